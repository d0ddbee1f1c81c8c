package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storecraft/backend/internal/domain/shared"
)

// ProgressFunc receives build checkpoint updates
type ProgressFunc func(message string, progress int)

// Pipeline composes the normalization, transformation, build and activation
// stages into the two operations the platform exposes: building an uploaded
// theme and activating a built theme for a store.
type Pipeline struct {
	workspace       *Workspace
	normalizer      *ArchiveNormalizer
	transformer     *Transformer
	builder         *Builder
	activator       *Activator
	tracker         *StatusTracker
	locks           *KeyMutex
	failedRetention time.Duration
	logger          *zap.Logger
}

func NewPipeline(
	workspace *Workspace,
	normalizer *ArchiveNormalizer,
	transformer *Transformer,
	builder *Builder,
	activator *Activator,
	tracker *StatusTracker,
	failedRetention time.Duration,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		workspace:       workspace,
		normalizer:      normalizer,
		transformer:     transformer,
		builder:         builder,
		activator:       activator,
		tracker:         tracker,
		locks:           NewKeyMutex(),
		failedRetention: failedRetention,
		logger:          logger.Named("pipeline"),
	}
}

// Tracker exposes the deployment status tracker for the HTTP layer
func (p *Pipeline) Tracker() *StatusTracker {
	return p.tracker
}

// BuildTheme runs the full theme build chain for an uploaded archive.
// Concurrent builds of the same theme are rejected rather than queued.
func (p *Pipeline) BuildTheme(ctx context.Context, slug string, progress ProgressFunc) (*BuildResult, error) {
	if !p.locks.TryLock("theme:" + slug) {
		return nil, shared.ErrBuildInProgress
	}
	defer p.locks.Unlock("theme:" + slug)

	dir := p.workspace.ThemeDir(slug)
	logPath := p.workspace.BuildLogPath(dir)
	spec := TransformSpec{
		Dir:          dir,
		Slug:         slug,
		BasePath:     p.workspace.ThemeBasePath(slug),
		WithBasePath: true,
	}

	progress("Step 1/4: Unzipping files...", 25)
	if err := p.normalizer.Normalize(p.workspace.ThemeZipPath(slug), dir); err != nil {
		return nil, p.failTheme(dir, fmt.Errorf("archive normalization failed: %w", err))
	}

	progress("Step 2/4: Optimizing for Platform...", 50)
	if err := p.transformer.Apply(spec); err != nil {
		return nil, p.failTheme(dir, fmt.Errorf("source transformation failed: %w", err))
	}
	if err := RepairManifest(dir); err != nil {
		return nil, p.failTheme(dir, fmt.Errorf("manifest repair failed: %w", err))
	}

	progress("Step 3/4: Installing dependencies (3-5 mins)...", 75)
	if err := p.builder.Install(ctx, dir, logPath); err != nil {
		return nil, p.failTheme(dir, err)
	}

	progress("Step 4/4: Finalizing & Compiling assets...", 90)
	result, err := p.builder.Build(ctx, spec, logPath)
	if err != nil {
		return nil, p.failTheme(dir, err)
	}

	progress("Cleaning up...", 95)
	if err := os.RemoveAll(filepath.Join(dir, "node_modules")); err != nil {
		p.logger.Warn("Failed to remove node_modules", zap.String("slug", slug), zap.Error(err))
	}

	p.logger.Info("Theme build completed",
		zap.String("slug", slug),
		zap.Int("attempts", result.Attempts))
	return result, nil
}

// ActivateForStore builds an isolated, identity-locked copy of a theme for a
// store. Activations for the same store serialize; progress is reported
// through the status tracker.
func (p *Pipeline) ActivateForStore(ctx context.Context, storeSlug, themeSlug, storeName, themeName string) (*BuildResult, error) {
	p.locks.Lock("store:" + storeSlug)
	defer p.locks.Unlock("store:" + storeSlug)

	fail := func(dir string, err error) error {
		p.tracker.Update(storeSlug, 100, truncateCause(err.Error()), StatusFailed)
		p.reapLater(dir)
		return err
	}

	p.tracker.Update(storeSlug, 10, "Preparing store workspace...", StatusProcessing)
	dir, err := p.activator.SeedStoreTree(storeSlug, themeSlug)
	if err != nil {
		p.tracker.Update(storeSlug, 100, truncateCause(err.Error()), StatusFailed)
		return nil, err
	}

	spec := TransformSpec{
		Dir:          dir,
		Slug:         storeSlug,
		BasePath:     p.workspace.StoreBasePath(storeSlug),
		WithBasePath: false,
	}

	p.tracker.Update(storeSlug, 30, "Applying store identity...", StatusProcessing)
	if err := p.activator.LockIdentity(dir, storeSlug, storeName, themeName); err != nil {
		return nil, fail(dir, err)
	}
	if err := retargetLinks(dir, p.workspace.ThemeBasePath(themeSlug)); err != nil {
		return nil, fail(dir, err)
	}
	if err := p.transformer.RebaseLinks(dir, spec.BasePath); err != nil {
		return nil, fail(dir, err)
	}
	if err := p.transformer.WriteNextConfig(spec); err != nil {
		return nil, fail(dir, err)
	}
	if err := RepairManifest(dir); err != nil {
		return nil, fail(dir, fmt.Errorf("manifest repair failed: %w", err))
	}

	logPath := p.workspace.BuildLogPath(dir)

	// The store tree keeps node_modules across activations, so repeat
	// activations go straight to the build.
	if dirExists(filepath.Join(dir, "node_modules")) {
		p.tracker.Update(storeSlug, 50, "Reusing installed dependencies...", StatusProcessing)
	} else {
		p.tracker.Update(storeSlug, 50, "Installing dependencies...", StatusProcessing)
		if err := p.builder.Install(ctx, dir, logPath); err != nil {
			return nil, fail(dir, err)
		}
	}

	p.tracker.Update(storeSlug, 80, "Compiling store build...", StatusProcessing)
	result, err := p.builder.Build(ctx, spec, logPath)
	if err != nil {
		return nil, fail(dir, err)
	}

	p.tracker.Update(storeSlug, 95, "Cleaning up...", StatusProcessing)
	p.tracker.Update(storeSlug, 100, "Store is live!", StatusCompleted)

	p.logger.Info("Store activation completed",
		zap.String("store", storeSlug),
		zap.String("theme", themeSlug))
	return result, nil
}

// failTheme records the failure and schedules the broken tree for reaping
func (p *Pipeline) failTheme(dir string, err error) error {
	p.reapLater(dir)
	return err
}

// reapLater removes a failed working tree after the retention window, keeping
// it around long enough for log inspection.
func (p *Pipeline) reapLater(dir string) {
	if p.failedRetention <= 0 {
		return
	}
	time.AfterFunc(p.failedRetention, func() {
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn("Failed to reap working tree", zap.String("dir", dir), zap.Error(err))
		}
	})
}

// truncateCause bounds a failure message for status display
func truncateCause(msg string) string {
	const max = 100
	if len(msg) <= max {
		return msg
	}
	return msg[:max] + "..."
}

// retargetLinks strips a previous base path from hrefs so the store rebase
// starts from root-relative links again.
func retargetLinks(root, oldBase string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".next" || d.Name() == "out" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".tsx") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := string(raw)
		updated := strings.ReplaceAll(content, `href="`+oldBase+`/`, `href="/`)
		updated = strings.ReplaceAll(updated, "href={`"+oldBase+"/", "href={`/")
		if updated != content {
			return os.WriteFile(path, []byte(updated), 0o644)
		}
		return nil
	})
}
