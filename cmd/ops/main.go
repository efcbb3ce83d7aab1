package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"candyworks/internal/ops"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	commands := map[string]func([]string) error{
		"backup":  cmdBackup,
		"restore": cmdRestore,
		"drill":   cmdDrill,
		"inspect": cmdInspect,
		"verify":  cmdVerify,
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		printUsage()
		os.Exit(2)
	}
	if err := run(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func cmdBackup(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	out := fs.String("out", "", "output archive path (.tar.gz)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		ts := time.Now().UTC().Format("20060102T150405Z")
		*out = filepath.Join("backups", "candyworks-"+ts+".tar.gz")
	}

	m, err := ops.Backup(*dataDir, *out)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d files)\n", *out, len(m.Files))
	return nil
}

func cmdRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	archive := fs.String("archive", "", "input backup archive (.tar.gz)")
	target := fs.String("target-dir", "data-restored", "restore target directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" {
		return fmt.Errorf("archive is required")
	}
	m, err := ops.Restore(*archive, *target)
	if err != nil {
		return err
	}
	fmt.Printf("restored %d files into %s\n", len(m.Files), *target)
	return nil
}

func cmdDrill(args []string) error {
	fs := flag.NewFlagSet("drill", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	workDir := fs.String("work-dir", os.TempDir(), "temporary workspace for drill artifacts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := ops.Drill(*dataDir, *workDir, time.Now())
	if err != nil {
		return err
	}
	return printJSON(r)
}

func cmdInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	session := fs.String("session", "default", "session id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := ops.Inspect(filepath.Join(*dataDir, "sessions", *session+".json"))
	if err != nil {
		return err
	}
	return printJSON(s)
}

func cmdVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ok, bad, err := ops.VerifySnapshots(filepath.Join(*dataDir, "sessions"))
	if err != nil {
		return err
	}
	for _, s := range ok {
		fmt.Printf("ok    %s (%s, money %d, rebirths %d)\n", s.Session, s.Layout, s.Money, s.Rebirths)
	}
	for _, p := range bad {
		fmt.Printf("bad   %s: %s\n", p.File, p.Err)
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d of %d snapshots unreadable", len(bad), len(ok)+len(bad))
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage() {
	fmt.Println("usage:")
	fmt.Println("  candyworks-ops backup  --data-dir data --out backups/backup.tar.gz")
	fmt.Println("  candyworks-ops restore --archive backups/backup.tar.gz --target-dir data-restored")
	fmt.Println("  candyworks-ops drill   --data-dir data --work-dir /tmp")
	fmt.Println("  candyworks-ops inspect --data-dir data --session default")
	fmt.Println("  candyworks-ops verify  --data-dir data")
}
