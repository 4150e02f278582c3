package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxFileSize bounds each extracted entry.
const maxFileSize = 10 << 30 // 10 GiB

// Restore extracts a backup archive to targetDir and returns its manifest
// (nil for archives without one). Existing files are only overwritten when
// force is true. Entries listed in the manifest are checksum-verified.
func Restore(ctx context.Context, archivePath, targetDir string, force bool) (*Manifest, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing archive: %w", err)
	}
	defer gr.Close()

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating target directory: %w", err)
	}

	var manifest *Manifest
	foundDB := false
	tr := tar.NewReader(gr)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive entry: %w", err)
		}

		if err := validateTarEntry(hdr.Name, targetDir); err != nil {
			return nil, err
		}

		if hdr.Name == ManifestName {
			manifest = &Manifest{}
			if err := json.NewDecoder(io.LimitReader(tr, 1<<20)).Decode(manifest); err != nil {
				return nil, fmt.Errorf("reading manifest: %w", err)
			}
			continue
		}
		if hdr.Typeflag != tar.TypeReg {
			// Directories are recreated on demand; links are never restored.
			continue
		}
		if strings.HasSuffix(hdr.Name, ".db") {
			foundDB = true
		}

		destPath := filepath.Join(targetDir, filepath.Clean(hdr.Name)) //nolint:gosec // G305: checked by validateTarEntry
		if !force {
			if _, err := os.Stat(destPath); err == nil {
				return nil, fmt.Errorf("file already exists (use --force to overwrite): %s", destPath)
			}
		}

		sum, err := extractFile(tr, destPath, hdr)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", hdr.Name, err)
		}
		if manifest != nil {
			if want, ok := manifest.Files[hdr.Name]; ok && want != sum {
				return nil, fmt.Errorf("checksum mismatch for %s", hdr.Name)
			}
		}
	}

	if !foundDB {
		return nil, fmt.Errorf("invalid backup: archive does not contain a .db file")
	}
	return manifest, nil
}

// validateTarEntry rejects entry names that would land outside targetDir.
func validateTarEntry(name, targetDir string) error {
	if filepath.IsAbs(name) {
		return fmt.Errorf("path traversal detected: absolute path %q", name)
	}
	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %q", name)
	}

	absTarget, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving target directory: %w", err)
	}
	absDest, err := filepath.Abs(filepath.Join(targetDir, cleaned))
	if err != nil {
		return fmt.Errorf("resolving destination path: %w", err)
	}
	if absDest != absTarget && !strings.HasPrefix(absDest, absTarget+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %q resolves outside target", name)
	}
	return nil
}

// extractFile writes a regular tar entry to destPath and returns its sha256.
func extractFile(tr *tar.Reader, destPath string, hdr *tar.Header) (string, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode&0o777)) //nolint:gosec // G115: mode bits fit in uint32
	if err != nil {
		return "", err
	}
	defer out.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), io.LimitReader(tr, maxFileSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), out.Close()
}
