package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	reLiveStoreCall = regexp.MustCompile("`/api/v1/s/live/\\$\\{storeId\\}`")
	reStoreIDParam  = regexp.MustCompile(`const\s+storeId\s*=\s*searchParams\.get\(['"]store['"]\)[^;\n]*;?`)
	reStoreQueryURL = regexp.MustCompile(`\?store=\$\{[^}]+\}`)
)

const loginSuccessMarker = "if (res.success) {"

// operatorRedirectGuard sends operator accounts that log in through the
// deployed storefront to the management console at the platform root,
// instead of leaving them on the public site with a customer session.
const operatorRedirectGuard = loginSuccessMarker + `
            if (res.customer && res.customer.role === 'operator') {
                window.location.href = '/';
                return;
            }`

// Activator prepares a store's isolated working tree from a built theme and
// locks the store identity into the source before the store build runs.
type Activator struct {
	workspace *Workspace
	logger    *zap.Logger
}

func NewActivator(workspace *Workspace, logger *zap.Logger) *Activator {
	return &Activator{workspace: workspace, logger: logger.Named("activation")}
}

// SeedStoreTree copies the theme source into the store's tree. Installed
// dependencies already present in the store tree are preserved so repeat
// activations skip the install step; theme build output is not copied.
func (a *Activator) SeedStoreTree(storeSlug, themeSlug string) (string, error) {
	src := a.workspace.ThemeDir(themeSlug)
	if !dirExists(src) {
		return "", fmt.Errorf("theme tree %s does not exist", themeSlug)
	}

	dst := a.workspace.StoreDir(storeSlug)
	if err := ClearPreserving(dst, preservedEntries); err != nil {
		return "", fmt.Errorf("failed to reset store tree: %w", err)
	}

	skip := []string{"node_modules", ".next", "out", "build_log.txt"}
	if err := CopyTree(src, dst, skip); err != nil {
		return "", fmt.Errorf("failed to seed store tree: %w", err)
	}

	a.logger.Info("Seeded store tree",
		zap.String("store", storeSlug),
		zap.String("theme", themeSlug))
	return dst, nil
}

// LockIdentity hard-codes the store into the copied source: API calls stop
// reading the store from the query string, the identity bootstrap pins the
// slug, and the visible branding carries the store name.
func (a *Activator) LockIdentity(dir, storeSlug, storeName, themeName string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".next" || d.Name() == "out" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".tsx") && !strings.HasSuffix(path, ".ts") {
			return nil
		}
		return lockFile(path, storeSlug, storeName, themeName)
	})
	if err != nil {
		return fmt.Errorf("identity lock-in failed: %w", err)
	}
	a.logger.Info("Locked store identity", zap.String("store", storeSlug))
	return nil
}

func lockFile(path, storeSlug, storeName, themeName string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content := string(raw)
	original := content

	content = reLiveStoreCall.ReplaceAllString(content, "`/api/v1/s/live/"+storeSlug+"`")
	content = reStoreIDParam.ReplaceAllString(content, "const storeId = '"+storeSlug+"';")
	content = reStoreQueryURL.ReplaceAllString(content, "?store="+storeSlug)

	// Pin the injected bootstrap and auth pages to this store so the export
	// works without a ?store= query parameter
	content = strings.ReplaceAll(content,
		"new URLSearchParams(window.location.search).get('store')",
		"(new URLSearchParams(window.location.search).get('store') || '"+storeSlug+"')")
	content = strings.ReplaceAll(content,
		"sessionStorage.getItem('kx_sticky_store') || ''",
		"sessionStorage.getItem('kx_sticky_store') || '"+storeSlug+"'")
	content = strings.ReplaceAll(content,
		`sessionStorage.getItem('kx_sticky_store') || ""`,
		"sessionStorage.getItem('kx_sticky_store') || \""+storeSlug+"\"")

	// Operator accounts logging in on the storefront are bounced to the
	// management console. Inserted once; re-running lock-in is a no-op.
	if strings.Contains(content, "handleSubmit") &&
		strings.Contains(content, loginSuccessMarker) &&
		!strings.Contains(content, "role === 'operator'") {
		content = strings.Replace(content, loginSuccessMarker, operatorRedirectGuard, 1)
	}

	// Visible branding: swap the theme's own name for the store's
	if themeName != "" && storeName != "" && themeName != storeName {
		content = strings.ReplaceAll(content, ">"+themeName+"<", ">"+storeName+"<")
	}

	if content != original {
		return os.WriteFile(path, []byte(content), 0o644)
	}
	return nil
}
