package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"candyworks/internal/store"
	"candyworks/internal/tycoon"
)

// Summary is the human-facing digest of one factory snapshot.
type Summary struct {
	Session           string   `json:"session"`
	Layout            string   `json:"layout"`
	Money             int64    `json:"money"`
	Rebirths          int      `json:"rebirths"`
	RebirthMultiplier float64  `json:"rebirth_multiplier"`
	ActiveCandies     int      `json:"active_candies"`
	Purchased         int      `json:"purchased"`
	Offers            int      `json:"offers"`
	NextOffer         string   `json:"next_offer,omitempty"`
	Unlocked          []string `json:"unlocked"`
	CandiesSold       int      `json:"candies_sold"`
	TotalEarned       int64    `json:"total_earned"`
	PlayTime          string   `json:"play_time"`
}

// Problem is one snapshot that failed to decode.
type Problem struct {
	File string `json:"file"`
	Err  string `json:"error"`
}

// Inspect summarizes the snapshot file at path.
func Inspect(path string) (Summary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	st, err := store.Decode(b)
	if err != nil {
		return Summary{}, err
	}
	return summarize(strings.TrimSuffix(filepath.Base(path), ".json"), st), nil
}

func summarize(id string, st *tycoon.State) Summary {
	s := Summary{
		Session:           id,
		Layout:            st.Layout,
		Money:             st.Money,
		Rebirths:          st.Rebirths,
		RebirthMultiplier: st.RebirthMultiplier,
		ActiveCandies:     len(st.Candies),
		Offers:            len(st.Offers),
		CandiesSold:       st.Stats.CandiesSold,
		TotalEarned:       st.Stats.TotalMoneyEarned,
		PlayTime:          st.Stats.PlayTime.Round(time.Second).String(),
		Unlocked:          []string{},
	}
	for _, o := range st.Offers {
		if o.Purchased {
			s.Purchased++
		}
	}
	if o, ok := st.NextOffer(); ok {
		s.NextOffer = o.ID
	}
	for _, d := range st.Droppers {
		if d.Unlocked {
			s.Unlocked = append(s.Unlocked, d.ID)
		}
	}
	for _, u := range st.Upgraders {
		if u.Unlocked {
			s.Unlocked = append(s.Unlocked, u.ID)
		}
	}
	for _, c := range st.Conveyors {
		if c.Unlocked {
			s.Unlocked = append(s.Unlocked, c.ID)
		}
	}
	for _, sl := range st.Sellers {
		if sl.Unlocked {
			s.Unlocked = append(s.Unlocked, sl.ID)
		}
	}
	for _, f := range st.Fusers {
		if f.Unlocked {
			s.Unlocked = append(s.Unlocked, f.ID)
		}
	}
	sort.Strings(s.Unlocked)
	return s
}

// VerifySnapshots decodes every *.json snapshot directly under dir. A
// missing dir has no snapshots and is not an error.
func VerifySnapshots(dir string) ([]Summary, []Problem, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var ok []Summary
	var bad []Problem
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		s, err := Inspect(filepath.Join(dir, e.Name()))
		if err != nil {
			bad = append(bad, Problem{File: e.Name(), Err: err.Error()})
			continue
		}
		ok = append(ok, s)
	}
	return ok, bad, nil
}

// DrillReport is what a successful restore drill proved.
type DrillReport struct {
	Archive    string `json:"archive"`
	RestoreDir string `json:"restore_dir"`
	Digest     string `json:"digest"`
	Files      int    `json:"files"`
	Snapshots  int    `json:"snapshots"`
}

// Drill backs dataDir up into workDir, restores it next to the archive,
// compares digests and decodes every restored session snapshot.
func Drill(dataDir, workDir string, now time.Time) (DrillReport, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return DrillReport{}, err
	}
	ts := now.UTC().Format("20060102T150405Z")
	r := DrillReport{
		Archive:    filepath.Join(workDir, "candyworks-drill-"+ts+".tar.gz"),
		RestoreDir: filepath.Join(workDir, "candyworks-drill-restore-"+ts),
	}

	m, err := Backup(dataDir, r.Archive)
	if err != nil {
		return r, fmt.Errorf("backup: %w", err)
	}
	r.Files = len(m.Files)
	if _, err := Restore(r.Archive, r.RestoreDir); err != nil {
		return r, fmt.Errorf("restore: %w", err)
	}

	want, err := Digest(dataDir)
	if err != nil {
		return r, err
	}
	got, err := Digest(r.RestoreDir)
	if err != nil {
		return r, err
	}
	if want != got {
		return r, fmt.Errorf("digest mismatch after restore: src=%s restored=%s", want, got)
	}
	r.Digest = got

	snaps, bad, err := VerifySnapshots(filepath.Join(r.RestoreDir, "sessions"))
	if err != nil {
		return r, err
	}
	if len(bad) > 0 {
		return r, fmt.Errorf("restored snapshot %s: %s", bad[0].File, bad[0].Err)
	}
	r.Snapshots = len(snaps)
	return r, nil
}
