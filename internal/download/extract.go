// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// extractTarGz unpacks a .tar.gz archive into destDir. Entries that would
// escape destDir are rejected; non-regular entries other than directories
// are skipped.
func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading gzip stream: %w", err)
	}
	defer gz.Close()

	cleanDest := filepath.Clean(destDir)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive entry: %w", err)
		}

		target := filepath.Join(cleanDest, filepath.FromSlash(hdr.Name))
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes extraction directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr); err != nil {
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
		}
	}
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// renameExtracted walks the extracted tree and renames the first PDF to
// {pmcid}.pdf and the first XML or NXML to {pmcid}.nxml. Extension matching
// is case-insensitive; walk order is lexical, so "first" is deterministic.
// An existing target is never overwritten, so later matches of the same
// type stay where the archive put them.
func renameExtracted(articleDir, pmcid string, log zerolog.Logger) {
	filepath.WalkDir(articleDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		var canonical string
		switch strings.ToLower(filepath.Ext(p)) {
		case ".pdf":
			canonical = pmcid + ".pdf"
		case ".xml", ".nxml":
			canonical = pmcid + ".nxml"
		default:
			return nil
		}

		target := filepath.Join(articleDir, canonical)
		if _, statErr := os.Stat(target); statErr == nil {
			return nil
		}
		if renameErr := os.Rename(p, target); renameErr != nil {
			log.Error().Err(renameErr).Str("file", d.Name()).Msg("renaming extracted file failed")
			return nil
		}
		log.Info().Str("from", d.Name()).Str("to", canonical).Msg("renamed extracted file")
		return nil
	})
}
