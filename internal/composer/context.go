package composer

import (
	"github.com/weftdev/weft/internal/assets"
)

// buildContext carries the mutable state of one top-level build. It is
// created fresh per Build call and never shared across concurrent builds.
type buildContext struct {
	// templatePath is the resolved path of the top-level template.
	templatePath string

	// assets collects every CSS/JS reference discovered in the tree, in
	// discovery order, for final deduplication and injection.
	assets []assets.Asset

	// inFlight is the cycle guard: component ids currently on the build
	// stack. Ids are added on enter and removed on exit, so an ancestor
	// blocks its descendants while siblings never block each other.
	inFlight map[string]struct{}

	// data caches remote JSON per URL for the duration of this build,
	// independently of the process-wide TTL cache.
	data map[string]interface{}
}

func newBuildContext(templatePath string) *buildContext {
	return &buildContext{
		templatePath: templatePath,
		inFlight:     make(map[string]struct{}),
		data:         make(map[string]interface{}),
	}
}
