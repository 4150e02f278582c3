// Package backup snapshots the FarmTech database (and optionally its
// config file) into a tar.gz archive and restores it.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/farmtech/irrigation/internal/store"
	"github.com/farmtech/irrigation/internal/version"
)

// ManifestName is the archive entry describing the backup. It is written
// first so Restore can verify checksums while extracting.
const ManifestName = "manifest.json"

// Manifest records what a backup contains.
type Manifest struct {
	Version   string            `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Database  string            `json:"database"`
	Files     map[string]string `json:"files"` // name -> sha256 hex
}

// Backup writes a consistent snapshot of the SQLite database at dbPath to
// archivePath. The snapshot is taken with VACUUM INTO, so a running server
// can keep writing. cfgPath is included when non-empty.
func Backup(ctx context.Context, dbPath, cfgPath, archivePath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}
		return fmt.Errorf("stat database: %w", err)
	}

	work, err := os.MkdirTemp("", "farmtech-backup-*")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(work)

	dbName := filepath.Base(dbPath)
	snapshot := filepath.Join(work, dbName)
	if err := vacuumInto(ctx, dbPath, snapshot); err != nil {
		return err
	}

	entries := []entry{{name: dbName, path: snapshot}}
	if cfgPath != "" {
		entries = append(entries, entry{name: filepath.Base(cfgPath), path: cfgPath})
	}

	m := Manifest{
		Version:   version.Short(),
		CreatedAt: time.Now().UTC(),
		Database:  dbName,
		Files:     make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		sum, err := fileSHA256(e.path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", e.name, err)
		}
		m.Files[e.name] = sum
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}
	tmp := archivePath + ".tmp"
	if err := writeArchive(tmp, m, entries); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, archivePath); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// DefaultArchiveName returns farmtech-backup-<UTC timestamp>.tar.gz.
func DefaultArchiveName(now time.Time) string {
	return "farmtech-backup-" + now.UTC().Format("20060102-150405") + ".tar.gz"
}

type entry struct {
	name string
	path string
}

func vacuumInto(ctx context.Context, dbPath, dest string) error {
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Snapshot(ctx, dest); err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}
	return nil
}

func writeArchive(path string, m Manifest, entries []entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	manifest, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    ManifestName,
		Mode:    0o644,
		Size:    int64(len(manifest)),
		ModTime: m.CreatedAt,
	}); err != nil {
		return fmt.Errorf("writing manifest header: %w", err)
	}
	if _, err := tw.Write(manifest); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	for _, e := range entries {
		if err := addFile(tw, e); err != nil {
			return fmt.Errorf("adding %s: %w", e.name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}
	return f.Close()
}

func addFile(tw *tar.Writer, e entry) error {
	src, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = e.name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, src)
	return err
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
