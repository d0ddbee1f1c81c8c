package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// maxFlattenDepth bounds the wrapper-hoisting loop so a pathological archive
// cannot spin forever.
const maxFlattenDepth = 3

// Entries ignored when deciding whether a tree is a single-wrapper archive.
var flattenIgnore = map[string]bool{
	"__MACOSX":          true,
	".DS_Store":         true,
	"node_modules":      true,
	".next":             true,
	"package-lock.json": true,
	"build":             true,
	"dist":              true,
	"build_log.txt":     true,
}

// Markers that identify the project root of a Next.js theme. A directory
// containing one of these is never treated as a wrapper to hoist.
var rootMarkers = map[string]bool{
	"app":             true,
	"pages":           true,
	"public":          true,
	"src":             true,
	"out":             true,
	"package.json":    true,
	"next.config.js":  true,
	"next.config.mjs": true,
}

// ArchiveNormalizer extracts uploaded theme archives into a predictable
// working-tree layout.
type ArchiveNormalizer struct {
	logger *zap.Logger
}

// NewArchiveNormalizer creates a new ArchiveNormalizer
func NewArchiveNormalizer(logger *zap.Logger) *ArchiveNormalizer {
	return &ArchiveNormalizer{logger: logger.Named("archive")}
}

// Normalize clears the destination (preserving npm caches), extracts the
// archive into it, and flattens wrapper directories until the project root
// is at the top level.
func (n *ArchiveNormalizer) Normalize(zipPath, dest string) error {
	if err := ClearPreserving(dest, preservedEntries); err != nil {
		return err
	}
	if err := n.extract(zipPath, dest); err != nil {
		return err
	}
	return n.Flatten(dest)
}

// extract unpacks the zip archive, rejecting entries that would escape dest
func (n *ArchiveNormalizer) extract(zipPath, dest string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		target, err := safeJoin(dest, file.Name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", file.Name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(file, target); err != nil {
			return err
		}
	}

	n.logger.Info("Archive extracted", zap.String("dest", dest), zap.Int("entries", len(reader.File)))
	return nil
}

// Flatten hoists single-wrapper directories until a root marker is visible
// at the top level, up to maxFlattenDepth passes.
func (n *ArchiveNormalizer) Flatten(dir string) error {
	for i := 0; i < maxFlattenDepth; i++ {
		wrapper, ok, err := findWrapper(dir)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		n.logger.Info("Flattening nested theme directory", zap.String("wrapper", filepath.Base(wrapper)))
		if err := hoistContents(wrapper, dir); err != nil {
			return fmt.Errorf("failed to flatten %s: %w", filepath.Base(wrapper), err)
		}
	}
	return nil
}

// findWrapper reports whether the directory consists of exactly one
// non-ignored subdirectory that is not itself a project root.
func findWrapper(dir string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var visible []os.DirEntry
	for _, entry := range entries {
		if flattenIgnore[entry.Name()] {
			continue
		}
		if rootMarkers[entry.Name()] {
			// Project root already at top level
			return "", false, nil
		}
		visible = append(visible, entry)
	}

	if len(visible) != 1 || !visible[0].IsDir() {
		return "", false, nil
	}
	return filepath.Join(dir, visible[0].Name()), true, nil
}

// hoistContents moves everything inside wrapper up into dest and removes the
// wrapper. On a name collision the existing top-level entry wins.
func hoistContents(wrapper, dest string) error {
	entries, err := os.ReadDir(wrapper)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		src := filepath.Join(wrapper, entry.Name())
		target := filepath.Join(dest, entry.Name())
		if _, err := os.Stat(target); err == nil {
			if err := os.RemoveAll(src); err != nil {
				return err
			}
			continue
		}
		if err := os.Rename(src, target); err != nil {
			return err
		}
	}
	return os.RemoveAll(wrapper)
}

// safeJoin joins an archive entry name under dest, rejecting traversal
func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("archive entry has absolute path: %s", name)
	}
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}

func extractFile(file *zip.File, target string) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to extract %s: %w", file.Name, err)
	}
	return out.Close()
}
