package descriptor

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weftdev/weft/internal/errors"
)

// Kind identifies which shape a component reference takes.
type Kind int

const (
	// KindLocalPath references a template file relative to the referencing
	// template's directory (or the frontend root when absolute).
	KindLocalPath Kind = iota
	// KindGroupName references a component by its group and name under the
	// fixed components layout.
	KindGroupName
	// KindRemoteURL references raw markup served over HTTP(S).
	KindRemoteURL
)

// String returns the string representation of the reference kind.
func (k Kind) String() string {
	switch k {
	case KindLocalPath:
		return "path"
	case KindGroupName:
		return "group"
	case KindRemoteURL:
		return "url"
	default:
		return "unknown"
	}
}

// Reference is the resolved form of one descriptor component entry. Exactly
// one of Path, Group/Name, or URL is populated according to Kind. Variables
// apply only to the referenced component, never to its siblings or ancestors.
type Reference struct {
	Kind      Kind
	Path      string
	Group     string
	Name      string
	URL       string
	Variables map[string]interface{}
}

// groupNameRef mirrors the structured descriptor entry shape.
type groupNameRef struct {
	ComponentGroup string                 `yaml:"componentGroup"`
	ComponentName  string                 `yaml:"componentName"`
	Variables      map[string]interface{} `yaml:"variables"`
}

// Resolve normalizes one raw descriptor entry into a tagged Reference. A
// string becomes a RemoteURL or LocalPath depending on its scheme; a mapping
// with componentGroup and componentName becomes a GroupName reference. Any
// other shape is a configuration error naming the offending key.
func Resolve(name string, node *yaml.Node) (Reference, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var value string
		if err := node.Decode(&value); err != nil {
			return Reference{}, errors.NewInvalidReferenceError(name, "entry is not a string")
		}
		if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
			return Reference{Kind: KindRemoteURL, URL: value}, nil
		}
		if value == "" {
			return Reference{}, errors.NewInvalidReferenceError(name, "entry is empty")
		}

		return Reference{Kind: KindLocalPath, Path: value}, nil

	case yaml.MappingNode:
		var raw groupNameRef
		if err := node.Decode(&raw); err != nil {
			return Reference{}, errors.NewInvalidReferenceError(name, "mapping entry is malformed")
		}
		if raw.ComponentGroup == "" || raw.ComponentName == "" {
			return Reference{}, errors.NewInvalidReferenceError(
				name, "mapping entry needs componentGroup and componentName")
		}

		return Reference{
			Kind:      KindGroupName,
			Group:     raw.ComponentGroup,
			Name:      raw.ComponentName,
			Variables: raw.Variables,
		}, nil

	default:
		return Reference{}, errors.NewInvalidReferenceError(name, "entry must be a string or a mapping")
	}
}
