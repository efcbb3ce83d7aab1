// Package ops implements offline maintenance of a candyworks data directory:
// backups, restores, restore drills and snapshot checks.
package ops

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ManifestName is the archive entry describing every other entry.
const ManifestName = "MANIFEST.json"

// ErrChecksum means a restored file does not match the archive manifest.
var ErrChecksum = errors.New("checksum mismatch")

type Manifest struct {
	CreatedAt time.Time         `json:"created_at"`
	Files     map[string]string `json:"files"`
}

// Backup writes every regular file under dataDir to a gzipped tar at
// archivePath, followed by a manifest of SHA-256 sums. Half-written
// snapshot temp files and symlinks are skipped.
func Backup(dataDir, archivePath string) (Manifest, error) {
	if strings.TrimSpace(dataDir) == "" || strings.TrimSpace(archivePath) == "" {
		return Manifest{}, errors.New("data dir and archive path are required")
	}
	dataDir = filepath.Clean(strings.TrimSpace(dataDir))
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	info, err := os.Stat(dataDir)
	if err != nil {
		return Manifest{}, err
	}
	if !info.IsDir() {
		return Manifest{}, fmt.Errorf("not a directory: %s", dataDir)
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return Manifest{}, err
	}

	f, err := os.Create(archivePath)
	if err != nil {
		return Manifest{}, err
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	m := Manifest{CreatedAt: time.Now().UTC(), Files: map[string]string{}}
	walkErr := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dataDir || path == archivePath || d.Type()&fs.ModeSymlink != 0 || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestName {
			return nil
		}
		sum, err := addEntry(tw, path, rel, d)
		if err != nil {
			return fmt.Errorf("archive %s: %w", rel, err)
		}
		if sum != "" {
			m.Files[rel] = sum
		}
		return nil
	})
	if walkErr != nil {
		return Manifest{}, walkErr
	}

	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, err
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:     ManifestName,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(body)),
		ModTime:  m.CreatedAt,
	}); err != nil {
		return Manifest{}, err
	}
	if _, err := tw.Write(body); err != nil {
		return Manifest{}, err
	}
	if err := tw.Close(); err != nil {
		return Manifest{}, err
	}
	if err := gz.Close(); err != nil {
		return Manifest{}, err
	}
	return m, f.Close()
}

// addEntry writes one directory or file and returns the file's checksum.
func addEntry(tw *tar.Writer, path, rel string, d fs.DirEntry) (string, error) {
	info, err := d.Info()
	if err != nil {
		return "", err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return "", err
	}
	hdr.Name = rel
	if info.IsDir() {
		hdr.Name += "/"
		return "", tw.WriteHeader(hdr)
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return "", err
	}

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tw, h), src); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Restore unpacks archivePath into targetDir and checks every file against
// the manifest when the archive carries one.
func Restore(archivePath, targetDir string) (Manifest, error) {
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	targetDir = filepath.Clean(strings.TrimSpace(targetDir))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return Manifest{}, err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return Manifest{}, err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return Manifest{}, err
	}
	defer gz.Close()

	var m Manifest
	sums := map[string]string{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Manifest{}, err
		}
		rel, err := entryPath(hdr.Name)
		if err != nil {
			return Manifest{}, err
		}

		if rel == ManifestName {
			if err := json.NewDecoder(tr).Decode(&m); err != nil {
				return Manifest{}, fmt.Errorf("read manifest: %w", err)
			}
			continue
		}

		out := filepath.Join(targetDir, filepath.FromSlash(rel))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(out, 0o755); err != nil {
				return Manifest{}, err
			}
		case tar.TypeReg:
			sum, err := extractFile(tr, out, fs.FileMode(hdr.Mode).Perm())
			if err != nil {
				return Manifest{}, fmt.Errorf("restore %s: %w", rel, err)
			}
			sums[rel] = sum
		}
	}

	for rel, want := range m.Files {
		if got, ok := sums[rel]; !ok || got != want {
			return m, fmt.Errorf("%s: %w", rel, ErrChecksum)
		}
	}
	return m, nil
}

func extractFile(r io.Reader, out string, perm fs.FileMode) (string, error) {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	dst, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dst, h), r); err != nil {
		_ = dst.Close()
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), dst.Close()
}

// entryPath rejects absolute names and anything climbing out of the target.
func entryPath(name string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(strings.TrimSpace(name)))
	switch {
	case clean == "." || clean == "":
		return "", errors.New("empty archive entry")
	case strings.HasPrefix(clean, "/") || filepath.IsAbs(name):
		return "", fmt.Errorf("absolute archive entry: %s", name)
	case clean == ".." || strings.HasPrefix(clean, "../"):
		return "", fmt.Errorf("archive entry escapes target: %s", name)
	}
	return clean, nil
}

// Digest hashes the names and contents of every file under root in a
// stable order. Two trees with equal digests hold the same data.
func Digest(root string) (string, error) {
	root = filepath.Clean(root)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(files)

	h := sha256.New()
	for _, rel := range files {
		b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\n%d\n", rel, len(b))
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
