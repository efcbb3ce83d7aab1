package ops

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"candyworks/internal/catalog"
	"candyworks/internal/store"
	"candyworks/internal/tycoon"
)

// seedDataDir lays out a data dir the way the server leaves it.
func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")

	layout, err := catalog.Builtin(catalog.Default)
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}
	engine := tycoon.NewEngine(tycoon.DefaultTuning(), tycoon.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	st := engine.NewState(layout)
	if !engine.Purchase(st, "first_conveyor") {
		t.Fatalf("purchase first_conveyor refused")
	}

	repo, err := store.NewFileRepo(filepath.Join(dir, "sessions"))
	if err != nil {
		t.Fatalf("file repo: %v", err)
	}
	if err := repo.Save(context.Background(), "default", st); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	writeFile(t, filepath.Join(dir, "sessions", "default.json.tmp"), "{half a snapsh")
	writeFile(t, filepath.Join(dir, "notes", "readme.txt"), "keep me")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	got := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return got
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	src := seedDataDir(t)

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	m, err := Backup(src, archive)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if len(m.Files) != 2 {
		t.Fatalf("expected 2 files in manifest (temp file skipped), got %v", m.Files)
	}

	restoreDir := filepath.Join(t.TempDir(), "restore")
	restored, err := Restore(archive, restoreDir)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !reflect.DeepEqual(m.Files, restored.Files) {
		t.Fatalf("manifest mismatch:\nwant=%v\ngot=%v", m.Files, restored.Files)
	}

	want := readTree(t, src)
	delete(want, "sessions/default.json.tmp")
	if got := readTree(t, restoreDir); !reflect.DeepEqual(want, got) {
		t.Fatalf("restored files mismatch:\nwant=%v\ngot=%v", want, got)
	}
}

func TestBackup_RequiresDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	writeFile(t, file, "x")
	if _, err := Backup(file, filepath.Join(t.TempDir(), "out.tar.gz")); err == nil {
		t.Fatalf("expected backup of a plain file to fail")
	}
	if _, err := Backup("", "out.tar.gz"); err == nil {
		t.Fatalf("expected empty data dir to fail")
	}
}

type entry struct {
	name string
	body string
}

func writeArchive(t *testing.T, entries ...entry) string {
	t.Helper()
	archive := filepath.Join(t.TempDir(), "crafted.tar.gz")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		if err := tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(e.body)),
		}); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(e.body)); err != nil {
			t.Fatalf("write body: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return archive
}

func TestRestore_RejectsPathTraversal(t *testing.T) {
	for _, name := range []string{"../escape.txt", "/etc/escape.txt"} {
		archive := writeArchive(t, entry{name: name, body: "bad"})
		if _, err := Restore(archive, filepath.Join(t.TempDir(), "out")); err == nil {
			t.Fatalf("expected restore to reject %q", name)
		}
	}
}

func TestRestore_DetectsChecksumMismatch(t *testing.T) {
	manifest, err := json.Marshal(Manifest{Files: map[string]string{"sessions/default.json": "00"}})
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	archive := writeArchive(t,
		entry{name: "sessions/default.json", body: `{"money":1}`},
		entry{name: ManifestName, body: string(manifest)},
	)
	if _, err := Restore(archive, filepath.Join(t.TempDir(), "out")); !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}

	// archives without a manifest restore unchecked
	plain := writeArchive(t, entry{name: "sessions/default.json", body: `{"money":1}`})
	if _, err := Restore(plain, filepath.Join(t.TempDir(), "out")); err != nil {
		t.Fatalf("restore without manifest: %v", err)
	}
}

func TestDigest_IgnoresTempFilesAndTracksContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), "one")
	before, err := Digest(dir)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	writeFile(t, filepath.Join(dir, "a.json.tmp"), "junk")
	same, _ := Digest(dir)
	if same != before {
		t.Fatalf("temp files should not change the digest")
	}

	writeFile(t, filepath.Join(dir, "a.json"), "two")
	after, _ := Digest(dir)
	if after == before {
		t.Fatalf("content change should change the digest")
	}
}
