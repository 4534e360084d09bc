package composer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/weftdev/weft/internal/assets"
	"github.com/weftdev/weft/internal/descriptor"
	"github.com/weftdev/weft/internal/placeholder"
)

// composeLevel processes one descriptor: it batches the level's remote
// fetches through the active strategy, builds every sub-component, and
// returns the level's data map (fragments plus fetched data, flattened and
// nested). Recursion into local sub-components stays sequential in both
// strategies because the cycle guard is mutated in place.
func (b *Builder) composeLevel(ctx context.Context, ownerPath string, desc *descriptor.Descriptor, bc *buildContext, fetch fetcher) map[string]interface{} {
	level := make(map[string]interface{})

	compNames := sortedKeys(desc.Components)
	depNames := sortedKeys(desc.DataDependencies)

	var reqs []fetchRequest
	compResult := make(map[string]int)
	depResult := make(map[string]int)
	urlIndex := make(map[string]int)

	for _, name := range compNames {
		ref := desc.Components[name]
		if ref.Kind != descriptor.KindRemoteURL {
			continue
		}
		key := "text\x00" + ref.URL
		idx, queued := urlIndex[key]
		if !queued {
			idx = len(reqs)
			reqs = append(reqs, fetchRequest{typ: fetchText, name: name, url: ref.URL})
			urlIndex[key] = idx
		}
		compResult[name] = idx
	}
	for _, name := range depNames {
		url := desc.DataDependencies[name]
		if _, cached := bc.data[url]; cached {
			continue
		}
		key := "json\x00" + url
		idx, queued := urlIndex[key]
		if !queued {
			idx = len(reqs)
			reqs = append(reqs, fetchRequest{typ: fetchJSON, name: name, url: url})
			urlIndex[key] = idx
		}
		depResult[name] = idx
	}

	results := fetch.fetchAll(ctx, reqs)

	for _, name := range compNames {
		ref := desc.Components[name]
		var pre *fetchResult
		if idx, prefetched := compResult[name]; prefetched {
			pre = &results[idx]
		}
		level[name] = b.buildComponent(ctx, ref, name, ownerPath, bc, fetch, pre)
	}

	for _, name := range depNames {
		url := desc.DataDependencies[name]
		value, cached := bc.data[url]
		if !cached {
			res := results[depResult[name]]
			if res.err != nil {
				b.logger.Warn(ctx, res.err, "data dependency fetch failed", "name", name, "url", url)
				value = map[string]interface{}{}
			} else {
				value = res.value
			}
			bc.data[url] = value
		}

		// Flatten object payloads into top-level keys and keep the payload
		// nested under its declared name for qualified access.
		if m, isMap := value.(map[string]interface{}); isMap {
			for k, v := range m {
				level[k] = v
			}
		}
		level[name] = value
	}

	return level
}

// buildComponent resolves one reference to a markup fragment. It owns the
// cycle guard and the per-component error recovery: a failing component
// yields an inline marker and never aborts siblings or ancestors.
func (b *Builder) buildComponent(ctx context.Context, ref descriptor.Reference, name, ownerPath string, bc *buildContext, fetch fetcher, pre *fetchResult) string {
	id := b.componentID(ref, name, ownerPath)
	if _, building := bc.inFlight[id]; building {
		b.logger.Warn(ctx, nil, "circular dependency", "id", id, "name", name)
		return fmt.Sprintf("<!-- circular dependency: %s -->", id)
	}

	bc.inFlight[id] = struct{}{}
	defer delete(bc.inFlight, id)

	fragment, err := b.renderComponent(ctx, ref, name, ownerPath, bc, fetch, pre)
	if err != nil {
		b.logger.Error(ctx, err, "building component failed", "name", name)
		return fmt.Sprintf("<!-- error building component: %s: %v -->", name, err)
	}

	return fragment
}

func (b *Builder) renderComponent(ctx context.Context, ref descriptor.Reference, name, ownerPath string, bc *buildContext, fetch fetcher, pre *fetchResult) (string, error) {
	var content string

	switch ref.Kind {
	case descriptor.KindRemoteURL:
		var err error
		if pre != nil {
			content, err = pre.text, pre.err
		} else {
			content, err = b.caches.Remote(ctx, ref.URL)
		}
		if err != nil {
			return "", err
		}
		// Remote components have no locatable descriptor; only the
		// reference's own variables apply.
		if len(ref.Variables) > 0 {
			content = placeholder.Substitute(content, ref.Variables)
		}

	default:
		path := b.resolveLocalPath(ref, ownerPath)

		var err error
		content, err = b.caches.File(path)
		if err != nil {
			if os.IsNotExist(err) {
				b.logger.Warn(ctx, err, "component file not found", "name", name, "path", path)
				return fmt.Sprintf("<!-- component not found: %s -->", name), nil
			}
			return "", err
		}

		desc, err := b.loader.Load(path)
		if err != nil {
			return "", err
		}

		switch {
		case desc.HasDependencies():
			level := b.composeLevel(ctx, path, desc, bc, fetch)
			merged := mergeData(desc.DefaultData, level, ref.Variables)
			content = placeholder.Substitute(content, merged)
		case len(ref.Variables) > 0 || len(desc.DefaultData) > 0:
			merged := mergeData(desc.DefaultData, ref.Variables)
			content = placeholder.Substitute(content, merged)
		}
	}

	cleaned, found := assets.Extract(content)
	bc.assets = append(bc.assets, found...)

	return cleaned, nil
}

// componentID is the cycle-guard key: group/name for structured references,
// and a synthetic id keyed by resolved path or URL otherwise, so cycles
// through path-referenced components terminate too.
func (b *Builder) componentID(ref descriptor.Reference, name, ownerPath string) string {
	switch ref.Kind {
	case descriptor.KindGroupName:
		return ref.Group + "/" + ref.Name
	case descriptor.KindRemoteURL:
		return "url:" + ref.URL
	default:
		return "path:" + b.resolveLocalPath(ref, ownerPath)
	}
}

// resolveLocalPath maps a local or group reference onto a file path. Plain
// relative paths resolve against the referencing template's directory;
// leading-slash paths resolve against the frontend root; group/name pairs
// follow the fixed components layout.
func (b *Builder) resolveLocalPath(ref descriptor.Reference, ownerPath string) string {
	if ref.Kind == descriptor.KindGroupName {
		return descriptor.TemplatePath(b.basePath, ref.Group, ref.Name)
	}

	if strings.HasPrefix(ref.Path, "/") {
		return filepath.Join(b.basePath, strings.TrimPrefix(ref.Path, "/"))
	}

	return filepath.Clean(filepath.Join(filepath.Dir(ownerPath), ref.Path))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
