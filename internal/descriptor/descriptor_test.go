package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftdev/weft/internal/cache"
	"github.com/weftdev/weft/internal/errors"
	"github.com/weftdev/weft/internal/logging"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "page template",
			template: "src/frontend/pages/Welcome/html/Welcome.html",
			expected: "src/frontend/pages/Welcome/Welcome.descriptor",
		},
		{
			name:     "component template",
			template: "src/frontend/components/Navigation/html/navbar.html",
			expected: "src/frontend/components/Navigation/descriptors/navbar.descriptor",
		},
		{
			name:     "component with non-html extension",
			template: "components/Forms/html/login.tpl",
			expected: "components/Forms/descriptors/login.descriptor",
		},
		{
			name:     "outside conventions",
			template: "static/snippet.html",
			expected: "",
		},
		{
			name:     "truncated page path",
			template: "pages/Welcome",
			expected: "",
		},
		{
			name:     "truncated component path",
			template: "components/Navigation/navbar.html",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.expected), Locate(tt.template))
		})
	}
}

func TestTemplatePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("src", "frontend", "components", "Ui", "html", "button.html"),
		TemplatePath(filepath.Join("src", "frontend"), "Ui", "button"))
}

func TestLoader_Load(t *testing.T) {
	newLoader := func() *Loader {
		return NewLoader(cache.New(), logging.NewNop())
	}

	writeDescriptor := func(t *testing.T, base, content string) string {
		t.Helper()
		pageDir := filepath.Join(base, "pages", "Home")
		require.NoError(t, os.MkdirAll(filepath.Join(pageDir, "html"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(pageDir, "Home.descriptor"), []byte(content), 0o644))
		return filepath.Join(pageDir, "html", "Home.html")
	}

	t.Run("full descriptor", func(t *testing.T) {
		templatePath := writeDescriptor(t, t.TempDir(), `
components:
  header: ../shared/header.html
  widget: https://cdn.example.com/widget.html
  loginButton:
    componentGroup: Forms
    componentName: login
    variables:
      label: Sign In
dataDependencies:
  stats: https://api.example.com/stats
defaultData:
  title: Home
  count: 3
`)

		d, err := newLoader().Load(templatePath)
		require.NoError(t, err)

		assert.True(t, d.HasDependencies())
		require.Len(t, d.Components, 3)

		header := d.Components["header"]
		assert.Equal(t, KindLocalPath, header.Kind)
		assert.Equal(t, "../shared/header.html", header.Path)

		widget := d.Components["widget"]
		assert.Equal(t, KindRemoteURL, widget.Kind)
		assert.Equal(t, "https://cdn.example.com/widget.html", widget.URL)

		login := d.Components["loginButton"]
		assert.Equal(t, KindGroupName, login.Kind)
		assert.Equal(t, "Forms", login.Group)
		assert.Equal(t, "login", login.Name)
		assert.Equal(t, "Sign In", login.Variables["label"])

		assert.Equal(t, "https://api.example.com/stats", d.DataDependencies["stats"])
		assert.Equal(t, "Home", d.DefaultData["title"])
	})

	t.Run("missing descriptor degrades to empty", func(t *testing.T) {
		base := t.TempDir()
		templatePath := filepath.Join(base, "pages", "Home", "html", "Home.html")

		d, err := newLoader().Load(templatePath)
		require.NoError(t, err)
		assert.False(t, d.HasDependencies())
		assert.Empty(t, d.DefaultData)
	})

	t.Run("template outside conventions degrades to empty", func(t *testing.T) {
		d, err := newLoader().Load(filepath.Join(t.TempDir(), "static", "snippet.html"))
		require.NoError(t, err)
		assert.False(t, d.HasDependencies())
	})

	t.Run("malformed YAML degrades to empty", func(t *testing.T) {
		templatePath := writeDescriptor(t, t.TempDir(), "components: [unclosed")

		d, err := newLoader().Load(templatePath)
		require.NoError(t, err)
		assert.False(t, d.HasDependencies())
	})

	t.Run("invalid reference shape is fatal", func(t *testing.T) {
		templatePath := writeDescriptor(t, t.TempDir(), `
components:
  broken:
    - a
    - b
`)

		_, err := newLoader().Load(templatePath)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidReference(err))
		assert.Contains(t, err.Error(), "broken")
	})
}
