// Package descriptor loads and resolves the YAML dependency descriptors that
// drive template composition. A descriptor enumerates a template's component
// references, its remote data sources, and its default values.
//
// Descriptor discovery follows the frontend layout convention: a page
// template at pages/<Name>/html/<Name>.ext maps to pages/<Name>/<Name>.descriptor,
// and a component template at components/<Group>/html/<name>.ext maps to
// components/<Group>/descriptors/<name>.descriptor. Moving a template without
// moving its descriptor silently breaks discovery; the loader then degrades
// to the empty descriptor.
package descriptor

import (
	"context"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weftdev/weft/internal/cache"
	"github.com/weftdev/weft/internal/logging"
)

// DescriptorExt is the file extension of dependency descriptors.
const DescriptorExt = ".descriptor"

// Descriptor is a template's parsed dependency file. Missing or malformed
// descriptor files yield the empty-but-valid zero descriptor, never an error.
type Descriptor struct {
	Components       map[string]Reference
	DataDependencies map[string]string
	DefaultData      map[string]interface{}
}

// Empty returns the empty descriptor.
func Empty() *Descriptor {
	return &Descriptor{
		Components:       map[string]Reference{},
		DataDependencies: map[string]string{},
		DefaultData:      map[string]interface{}{},
	}
}

// HasDependencies reports whether the descriptor names any components or
// remote data sources.
func (d *Descriptor) HasDependencies() bool {
	return len(d.Components) > 0 || len(d.DataDependencies) > 0
}

// rawDescriptor is the on-disk shape before reference resolution. Component
// entries stay as yaml nodes so Resolve can tag them by shape.
type rawDescriptor struct {
	Components       map[string]yaml.Node   `yaml:"components"`
	DataDependencies map[string]string      `yaml:"dataDependencies"`
	DefaultData      map[string]interface{} `yaml:"defaultData"`
}

// Loader locates and parses descriptors through the shared file cache.
type Loader struct {
	files  *cache.Manager
	logger logging.Logger
}

// NewLoader creates a descriptor loader backed by the given file cache.
func NewLoader(files *cache.Manager, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Loader{files: files, logger: logger.WithComponent("descriptor")}
}

// Load returns the descriptor for templatePath. Load failures degrade: a path
// outside the pages/components conventions, a missing descriptor file, and
// malformed YAML all produce the empty descriptor. The only error returned is
// the fatal invalid-reference shape, which cannot be safely defaulted.
func (l *Loader) Load(templatePath string) (*Descriptor, error) {
	descPath := Locate(templatePath)
	if descPath == "" {
		return Empty(), nil
	}

	content, err := l.files.File(descPath)
	if err != nil {
		l.logger.Debug(context.Background(), "no descriptor file", "template", templatePath, "descriptor", descPath)
		return Empty(), nil
	}

	var raw rawDescriptor
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		l.logger.Warn(context.Background(), err, "malformed descriptor, using empty", "descriptor", descPath)
		return Empty(), nil
	}

	d := Empty()
	for name, url := range raw.DataDependencies {
		d.DataDependencies[name] = url
	}
	for key, value := range raw.DefaultData {
		d.DefaultData[key] = value
	}
	for name := range raw.Components {
		node := raw.Components[name]
		ref, err := Resolve(name, &node)
		if err != nil {
			return nil, err
		}
		d.Components[name] = ref
	}

	return d, nil
}

// Locate maps a template path to its descriptor path by convention, or ""
// when the template sits outside the pages/components layout.
func Locate(templatePath string) string {
	parts := strings.Split(filepath.ToSlash(templatePath), "/")

	for i, part := range parts {
		switch part {
		case "pages":
			// pages/<Name>/html/<Name>.ext -> pages/<Name>/<Name>.descriptor
			if i+1 >= len(parts)-1 {
				return ""
			}
			pageName := parts[i+1]
			pageDir := strings.Join(parts[:i+2], "/")

			return filepath.FromSlash(pageDir + "/" + pageName + DescriptorExt)

		case "components":
			// components/<Group>/html/<name>.ext -> components/<Group>/descriptors/<name>.descriptor
			if i+2 >= len(parts)-1 {
				return ""
			}
			groupDir := strings.Join(parts[:i+2], "/")
			stem := strings.TrimSuffix(parts[len(parts)-1], filepath.Ext(parts[len(parts)-1]))

			return filepath.FromSlash(groupDir + "/descriptors/" + stem + DescriptorExt)
		}
	}

	return ""
}

// TemplatePath returns the conventional template file path for a component
// group and name under the frontend root.
func TemplatePath(basePath, group, name string) string {
	return filepath.Join(basePath, "components", group, "html", name+".html")
}
