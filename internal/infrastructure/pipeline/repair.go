package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// coreDependencies are the framework packages the build chain cannot run
// without. Uploaded manifests missing one get a floating version added.
var coreDependencies = []string{"next", "react", "react-dom"}

// RepairManifest patches package.json so install and build can run
// unattended: a build script is guaranteed, the core framework packages are
// present in some form, and host-specific toolchain pins are stripped.
// Re-applied unconditionally before every build, since transformation passes
// may have changed what the tree needs.
func RepairManifest(dir string) error {
	path := filepath.Join(dir, "package.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("manifest missing: %w", err)
	}

	var manifest map[string]any
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return fmt.Errorf("manifest unreadable: %w", err)
	}

	scripts := manifestSection(manifest, "scripts")
	if _, ok := scripts["build"]; !ok {
		scripts["build"] = "next build"
	}
	manifest["scripts"] = scripts

	deps := manifestSection(manifest, "dependencies")
	devDeps := manifestSection(manifest, "devDependencies")
	for _, name := range coreDependencies {
		if _, ok := deps[name]; ok {
			continue
		}
		if _, ok := devDeps[name]; ok {
			continue
		}
		deps[name] = "latest"
	}
	manifest["dependencies"] = deps

	// Pins like packageManager and engines fail installs outright when the
	// build host's toolchain differs from the theme author's.
	delete(manifest, "packageManager")
	delete(manifest, "engines")

	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest rewrite failed: %w", err)
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}

func manifestSection(manifest map[string]any, key string) map[string]any {
	if section, ok := manifest[key].(map[string]any); ok {
		return section
	}
	return map[string]any{}
}

// FailureClass identifies the category of a failed build attempt, derived
// from the captured build log.
type FailureClass int

const (
	FailureGeneric FailureClass = iota
	FailureLint
	FailureImageOptimization
	FailureAssetPrefix
	FailureSyntaxCorruption
)

func (c FailureClass) String() string {
	switch c {
	case FailureLint:
		return "lint"
	case FailureImageOptimization:
		return "image-optimization"
	case FailureAssetPrefix:
		return "asset-prefix"
	case FailureSyntaxCorruption:
		return "syntax-corruption"
	default:
		return "generic"
	}
}

// ClassifyFailure inspects a build log and picks the remediation class.
// Syntax corruption wins over lint because a corrupted auth page usually
// drags lint errors along with it.
func ClassifyFailure(log string) FailureClass {
	switch {
	case isSyntaxCorruption(log):
		return FailureSyntaxCorruption
	case containsAny(log, "Failed to compile", "ESLint", "Type error:", "Lint error"):
		return FailureLint
	case strings.Contains(log, "Image Optimization"):
		return FailureImageOptimization
	case containsAny(log, "assetPrefix", "basePath", `must start with a leading slash`):
		return FailureAssetPrefix
	default:
		return FailureGeneric
	}
}

func isSyntaxCorruption(log string) bool {
	if !containsAny(log, "Syntax Error", "SyntaxError", "Unexpected token", "Parsing error", "Expression expected") {
		return false
	}
	return containsAny(log, "login/page.tsx", "signup/page.tsx", "ClientPage.tsx", "ClientLayout.tsx", "layout.tsx")
}

// Remediator applies one targeted fix per failure class
type Remediator struct {
	transformer *Transformer
	logger      *zap.Logger
}

func NewRemediator(transformer *Transformer, logger *zap.Logger) *Remediator {
	return &Remediator{transformer: transformer, logger: logger.Named("repair")}
}

// Remediate mutates the tree according to the failure class and reports
// whether a retry is worth attempting.
func (r *Remediator) Remediate(class FailureClass, spec TransformSpec) error {
	r.logger.Info("Applying remediation",
		zap.String("slug", spec.Slug),
		zap.String("class", class.String()))

	switch class {
	case FailureLint, FailureImageOptimization, FailureAssetPrefix:
		// All three are cured by re-pinning the export config, which
		// already suppresses lint/ts, disables image optimization and
		// carries well-formed prefixes.
		return r.transformer.WriteNextConfig(spec)
	case FailureSyntaxCorruption:
		return r.transformer.RestoreAuthPages(spec.Dir)
	default:
		return clearBuildCache(spec.Dir)
	}
}

// clearBuildCache drops the .next directory so the retry starts cold
func clearBuildCache(dir string) error {
	if err := os.RemoveAll(filepath.Join(dir, ".next")); err != nil {
		return err
	}
	return nil
}
