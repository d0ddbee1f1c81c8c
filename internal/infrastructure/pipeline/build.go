package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BuildResult reports the outcome of a successful build
type BuildResult struct {
	OutputDir string
	Attempts  int
	LogPath   string
}

// Builder drives the npm install/build chain for a tree, with one
// classified remediation and a single retry on failure.
type Builder struct {
	runner         CommandRunner
	remediator     *Remediator
	installTimeout time.Duration
	buildTimeout   time.Duration
	logger         *zap.Logger
}

func NewBuilder(runner CommandRunner, remediator *Remediator, installTimeout, buildTimeout time.Duration, logger *zap.Logger) *Builder {
	return &Builder{
		runner:         runner,
		remediator:     remediator,
		installTimeout: installTimeout,
		buildTimeout:   buildTimeout,
		logger:         logger.Named("build"),
	}
}

// Install fetches dependencies. A failed install is retried once with
// relaxed peer-dependency resolution, which is what uploaded themes usually
// need.
func (b *Builder) Install(ctx context.Context, dir, logPath string) error {
	installCtx, cancel := context.WithTimeout(ctx, b.installTimeout)
	err := b.runner.Run(installCtx, dir, logPath, "npm", "install")
	cancel()
	if err == nil {
		return nil
	}

	b.logger.Warn("Install failed, retrying with relaxed peer resolution", zap.Error(err))

	retryCtx, cancel := context.WithTimeout(ctx, b.installTimeout)
	defer cancel()
	if err := b.runner.Run(retryCtx, dir, logPath, "npm", "install", "--legacy-peer-deps"); err != nil {
		return fmt.Errorf("dependency install failed: %w", err)
	}
	return nil
}

// Build compiles the static export. A build counts as successful when the
// output directory is non-empty, even if the process exited non-zero;
// otherwise the log is classified, one remediation is applied and the build
// retried exactly once.
func (b *Builder) Build(ctx context.Context, spec TransformSpec, logPath string) (*BuildResult, error) {
	attempts := 0
	var lastErr error

	for attempts < 2 {
		attempts++
		buildCtx, cancel := context.WithTimeout(ctx, b.buildTimeout)
		runErr := b.runner.Run(buildCtx, spec.Dir, logPath, "npm", "run", "build")
		cancel()

		if out, ok := OutputDir(spec.Dir); ok {
			if runErr != nil {
				b.logger.Warn("Build exited non-zero but produced output",
					zap.String("slug", spec.Slug),
					zap.Error(runErr))
			}
			return &BuildResult{OutputDir: out, Attempts: attempts, LogPath: logPath}, nil
		}

		if runErr == nil {
			runErr = fmt.Errorf("build produced no output directory")
		}
		lastErr = runErr

		if attempts >= 2 {
			break
		}

		tail, err := ReadLogTail(logPath, 80)
		if err != nil {
			return nil, err
		}
		class := ClassifyFailure(tail)
		b.logger.Warn("Build failed, remediating",
			zap.String("slug", spec.Slug),
			zap.String("class", class.String()),
			zap.Error(runErr))
		if err := b.remediator.Remediate(class, spec); err != nil {
			return nil, fmt.Errorf("remediation failed: %w", err)
		}
	}

	return nil, fmt.Errorf("build failed after %d attempts: %w", attempts, lastErr)
}
