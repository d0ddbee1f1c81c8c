package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Preserved cache entries. Clearing a tree before re-extraction keeps these
// so rebuilds skip the full npm install.
var preservedEntries = []string{"node_modules", ".next", "package-lock.json"}

// Output directory candidates, checked in order after a build.
var outputDirCandidates = []string{"out", "build", "dist"}

// Workspace resolves filesystem locations under the upload root. All pipeline
// paths are derived here so slugs never escape the root.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at the given upload directory
func NewWorkspace(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload root: %w", err)
	}
	for _, sub := range []string{"themes", "stores"} {
		if err := os.MkdirAll(filepath.Join(abs, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute upload root
func (w *Workspace) Root() string {
	return w.root
}

// ThemeDir returns the working tree for a theme
func (w *Workspace) ThemeDir(slug string) string {
	return filepath.Join(w.root, "themes", slug)
}

// ThemeZipPath returns where a theme's uploaded archive is stored
func (w *Workspace) ThemeZipPath(slug string) string {
	return filepath.Join(w.root, "themes", slug+".zip")
}

// ThumbnailPath returns where a theme's thumbnail is stored
func (w *Workspace) ThumbnailPath(slug, ext string) string {
	return filepath.Join(w.root, "themes", slug+"_thumb."+ext)
}

// StoreDir returns the isolated working tree for a store activation
func (w *Workspace) StoreDir(slug string) string {
	return filepath.Join(w.root, "stores", slug)
}

// BuildLogPath returns the build log location for a working tree
func (w *Workspace) BuildLogPath(dir string) string {
	return filepath.Join(dir, "build_log.txt")
}

// ThemeBasePath returns the public URL prefix for a theme's exported assets
func (w *Workspace) ThemeBasePath(slug string) string {
	return "/uploads/themes/" + slug + "/out"
}

// StoreBasePath returns the public URL prefix for a store's exported assets
func (w *Workspace) StoreBasePath(slug string) string {
	return "/uploads/stores/" + slug + "/out"
}

// OutputDir locates a non-empty export directory under a working tree,
// checking the known candidates in order.
func OutputDir(dir string) (string, bool) {
	for _, name := range outputDirCandidates {
		candidate := filepath.Join(dir, name)
		entries, err := os.ReadDir(candidate)
		if err == nil && len(entries) > 0 {
			return candidate, true
		}
	}
	return "", false
}

// ClearPreserving removes everything in dir except the preserved cache
// entries. The directory is created if missing.
func ClearPreserving(dir string, preserve []string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0o755)
		}
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	keep := make(map[string]bool, len(preserve))
	for _, name := range preserve {
		keep[name] = true
	}

	for _, entry := range entries {
		if keep[entry.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// CopyTree copies src into dst recursively, skipping the named top-level
// entries. Used to seed a store tree from a theme tree without dragging
// node_modules along.
func CopyTree(src, dst string, skip []string) error {
	skipSet := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipSet[name] = true
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read source %s: %w", src, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	for _, entry := range entries {
		if skipSet[entry.Name()] {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := CopyTree(srcPath, dstPath, nil); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
