package scale

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// definitionFile is the on-disk shape: questions may omit their option set
// and inherit default_options.
type definitionFile struct {
	Definition     `yaml:",inline"`
	DefaultOptions []Option `yaml:"default_options"`
}

// Parse reads one scale definition from YAML, applies default options and
// validates the result.
func Parse(r io.Reader) (Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Definition{}, err
	}
	var f definitionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Definition{}, fmt.Errorf("scale: parse: %w", err)
	}
	for i := range f.Questions {
		if len(f.Questions[i].Options) == 0 {
			f.Questions[i].Options = f.DefaultOptions
		}
	}
	if err := f.Definition.Validate(); err != nil {
		return Definition{}, err
	}
	return f.Definition, nil
}

// Catalog is the set of scale definitions known to the application.
// Definitions are static reference data; lookups are read-only.
type Catalog struct {
	defs map[string]Definition
}

// NewCatalog loads and validates every built-in definition. An invalid
// builtin is a fatal configuration error, not something to skip over.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{defs: map[string]Definition{}}
	err := fs.WalkDir(builtinFS, "builtin", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		f, err := builtinFS.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		def, err := Parse(f)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return c.Add(def)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Add registers a definition. Names are matched case-insensitively.
func (c *Catalog) Add(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	key := strings.ToLower(def.Name)
	if _, dup := c.defs[key]; dup {
		return fmt.Errorf("scale: duplicate definition %q", def.Name)
	}
	c.defs[key] = def
	return nil
}

// Get returns the definition for name, case-insensitive.
func (c *Catalog) Get(name string) (Definition, bool) {
	d, ok := c.defs[strings.ToLower(name)]
	return d, ok
}

// List returns all definitions sorted by name.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
