// Package composer assembles HTML pages from recursively nested,
// independently cacheable components. It wires the descriptor loader, the
// two-tier cache, placeholder substitution, and the asset consolidator into
// one composition algorithm, exposed through a blocking and a concurrent
// build entry point that differ only in how remote fetches are scheduled.
package composer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/weftdev/weft/internal/assets"
	"github.com/weftdev/weft/internal/cache"
	"github.com/weftdev/weft/internal/descriptor"
	"github.com/weftdev/weft/internal/errors"
	"github.com/weftdev/weft/internal/logging"
	"github.com/weftdev/weft/internal/placeholder"
)

// Options configures a Builder.
type Options struct {
	// BasePath is the frontend root that relative template paths, absolute
	// descriptor paths, and the components convention resolve against.
	BasePath string
	// Caches is the shared two-tier cache. A default Manager is created when
	// nil; tests construct independent Builders to avoid cross-test state.
	Caches *cache.Manager
	Logger logging.Logger
}

// Builder owns the caches and collaborators of the composition engine. One
// Builder serves any number of builds; each build gets a fresh context.
type Builder struct {
	basePath string
	caches   *cache.Manager
	loader   *descriptor.Loader
	logger   logging.Logger
}

// New creates a Builder.
func New(opts Options) *Builder {
	if opts.Caches == nil {
		opts.Caches = cache.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	return &Builder{
		basePath: opts.BasePath,
		caches:   opts.Caches,
		loader:   descriptor.NewLoader(opts.Caches, opts.Logger),
		logger:   opts.Logger.WithComponent("composer"),
	}
}

// Build composes templatePath into final markup, fetching remote components
// and data strictly sequentially. It fails only when the top-level template
// file itself is absent or a descriptor holds an unresolvable component
// reference; every deeper failure degrades to an inline comment marker.
func (b *Builder) Build(ctx context.Context, templatePath string, override map[string]interface{}) (string, error) {
	return b.build(ctx, templatePath, override, &sequentialFetcher{caches: b.caches})
}

// BuildConcurrent composes templatePath with the same contract as Build, but
// launches all remote fetches discovered at each descriptor level together
// and awaits them as a batch.
func (b *Builder) BuildConcurrent(ctx context.Context, templatePath string, override map[string]interface{}) (string, error) {
	return b.build(ctx, templatePath, override, &concurrentFetcher{caches: b.caches})
}

// ClearCache empties both cache tiers.
func (b *Builder) ClearCache() {
	b.caches.Clear()
}

// CacheStats reports file and remote entry counts.
func (b *Builder) CacheStats() cache.Stats {
	return b.caches.Stats()
}

func (b *Builder) build(ctx context.Context, templatePath string, override map[string]interface{}, fetch fetcher) (string, error) {
	started := time.Now()

	fullPath := templatePath
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(b.basePath, templatePath)
	}

	content, err := b.caches.File(fullPath)
	if err != nil {
		return "", errors.NewTemplateNotFoundError(fullPath, err)
	}

	desc, err := b.loader.Load(fullPath)
	if err != nil {
		return "", err
	}

	bc := newBuildContext(fullPath)

	level := b.composeLevel(ctx, fullPath, desc, bc, fetch)
	merged := mergeData(desc.DefaultData, level, override)
	built := placeholder.Substitute(content, merged)

	cleaned, found := assets.Extract(built)
	bc.assets = append(bc.assets, found...)
	unique := assets.Deduplicate(bc.assets)
	final := assets.Inject(cleaned, unique)

	b.logger.Info(ctx, "template built",
		"template", templatePath,
		"components", len(desc.Components),
		"assets", len(unique),
		"duration", time.Since(started))

	return final, nil
}

// mergeData merges maps left to right; later maps win.
func mergeData(maps ...map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}

	return merged
}
