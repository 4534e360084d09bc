// Package scaffolding generates empty component and page skeletons laid out
// the way the descriptor loader expects to find them: component groups with
// css/js/html/descriptors directories, pages with html/css/js directories and
// a descriptor beside them.
package scaffolding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/weftdev/weft/internal/logging"
)

// Generator scaffolds components and pages under the frontend root.
type Generator struct {
	basePath string
	logger   logging.Logger
	titler   cases.Caser
}

// NewGenerator creates a generator rooted at basePath.
func NewGenerator(basePath string, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Generator{
		basePath: basePath,
		logger:   logger.WithComponent("scaffolding"),
		titler:   cases.Title(language.English),
	}
}

// Component creates a component skeleton inside a group, creating the group
// directory layout when it does not exist yet. Existing files are never
// overwritten.
func (g *Generator) Component(group, name string) error {
	if err := validateName(group); err != nil {
		return fmt.Errorf("invalid group name: %w", err)
	}
	if err := validateName(name); err != nil {
		return fmt.Errorf("invalid component name: %w", err)
	}

	group = g.titler.String(group)
	groupDir := filepath.Join(g.basePath, "components", group)

	for _, sub := range []string{"css", "js", "html", "descriptors"} {
		if err := os.MkdirAll(filepath.Join(groupDir, sub), 0o755); err != nil {
			return fmt.Errorf("creating group layout: %w", err)
		}
	}

	ctx := skeletonContext{Name: name, Group: group}
	files := map[string]string{
		filepath.Join(groupDir, "html", name+".html"):              componentHTMLSkeleton,
		filepath.Join(groupDir, "css", name+".css"):                componentCSSSkeleton,
		filepath.Join(groupDir, "js", name+".js"):                  componentJSSkeleton,
		filepath.Join(groupDir, "descriptors", name+".descriptor"): componentDescriptorSkeleton,
	}

	if err := g.render(files, ctx); err != nil {
		return err
	}

	g.logger.Info(context.Background(), "component scaffolded", "group", group, "name", name)

	return nil
}

// Page creates a page skeleton with its descriptor.
func (g *Generator) Page(name string) error {
	if err := validateName(name); err != nil {
		return fmt.Errorf("invalid page name: %w", err)
	}

	page := g.titler.String(name)
	pageDir := filepath.Join(g.basePath, "pages", page)

	for _, sub := range []string{"html", "css", "js"} {
		if err := os.MkdirAll(filepath.Join(pageDir, sub), 0o755); err != nil {
			return fmt.Errorf("creating page layout: %w", err)
		}
	}

	ctx := skeletonContext{Page: page}
	files := map[string]string{
		filepath.Join(pageDir, "html", page+".html"): pageHTMLSkeleton,
		filepath.Join(pageDir, "css", page+".css"):   pageCSSSkeleton,
		filepath.Join(pageDir, page+".descriptor"):   pageDescriptorSkeleton,
	}

	if err := g.render(files, ctx); err != nil {
		return err
	}

	g.logger.Info(context.Background(), "page scaffolded", "name", page)

	return nil
}

func (g *Generator) render(files map[string]string, ctx skeletonContext) error {
	for path, skeleton := range files {
		if _, err := os.Stat(path); err == nil {
			g.logger.Debug(context.Background(), "skipping existing file", "path", path)
			continue
		}

		tmpl, err := template.New(filepath.Base(path)).Parse(skeleton)
		if err != nil {
			return fmt.Errorf("parsing skeleton for %s: %w", path, err)
		}

		var out strings.Builder
		if err := tmpl.Execute(&out, ctx); err != nil {
			return fmt.Errorf("rendering skeleton for %s: %w", path, err)
		}

		if err := os.WriteFile(path, []byte(out.String()), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	return nil
}

// validateName rejects names that would escape the frontend tree or collide
// with the directory conventions.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("name %q must be a plain identifier", name)
	}

	return nil
}
