// Package examples loads named vertex/fragment pairs from an examples.yaml
// manifest. Built-in examples are embedded; a project directory can add to
// or override them by name.
package examples

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

// ManifestName is the manifest file looked up in every examples directory.
const ManifestName = "examples.yaml"

// ErrNotFound is returned for an unknown example name.
var ErrNotFound = errors.New("example not found")

//go:embed templates/*.wgsl templates/examples.yaml
var builtin embed.FS

// Example describes one entry of a manifest.
type Example struct {
	Name        string `yaml:"name" json:"name"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Vertex      string `yaml:"vertex" json:"vertex"`
	Fragment    string `yaml:"fragment" json:"fragment"`

	// Builtin is set for embedded examples.
	Builtin bool `yaml:"-" json:"builtin"`

	fsys fs.FS
}

type manifest struct {
	Default  string    `yaml:"default"`
	Examples []Example `yaml:"examples"`
}

// Catalog is an ordered set of examples.
type Catalog struct {
	order    []string
	byName   map[string]Example
	fallback string
}

// Builtin returns the embedded catalog.
func Builtin() *Catalog {
	c := &Catalog{byName: map[string]Example{}}
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		panic(err)
	}
	if err := c.add(sub, true); err != nil {
		panic(fmt.Sprintf("embedded examples: %v", err))
	}
	return c
}

// Load returns the built-in catalog extended with the manifest in dir.
// A missing dir or manifest is not an error.
func Load(dir string) (*Catalog, error) {
	c := Builtin()
	if dir == "" {
		return c, nil
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestName)); errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err := c.add(os.DirFS(dir), false); err != nil {
		return nil, fmt.Errorf("load examples from %s: %w", dir, err)
	}
	return c, nil
}

func (c *Catalog) add(fsys fs.FS, isBuiltin bool) error {
	data, err := fs.ReadFile(fsys, ManifestName)
	if err != nil {
		return err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse %s: %w", ManifestName, err)
	}
	for i, ex := range m.Examples {
		if ex.Name == "" {
			return fmt.Errorf("example %d: missing name", i)
		}
		if ex.Vertex == "" || ex.Fragment == "" {
			return fmt.Errorf("example %q: vertex and fragment are required", ex.Name)
		}
		if ex.Title == "" {
			ex.Title = ex.Name
		}
		ex.Builtin = isBuiltin
		ex.fsys = fsys
		if _, exists := c.byName[ex.Name]; !exists {
			c.order = append(c.order, ex.Name)
		}
		c.byName[ex.Name] = ex
	}
	if m.Default != "" {
		c.fallback = m.Default
	}
	return nil
}

// List returns the examples in manifest order.
func (c *Catalog) List() []Example {
	out := make([]Example, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Names returns the example names in manifest order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.order)
}

// Get returns an example by name.
func (c *Catalog) Get(name string) (Example, error) {
	ex, ok := c.byName[name]
	if !ok {
		return Example{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return ex, nil
}

// Source reads the vertex and fragment files of the named example.
func (c *Catalog) Source(name string) (core.SourcePair, error) {
	ex, err := c.Get(name)
	if err != nil {
		return core.SourcePair{}, err
	}
	vert, err := fs.ReadFile(ex.fsys, ex.Vertex)
	if err != nil {
		return core.SourcePair{}, fmt.Errorf("example %q: %w", name, err)
	}
	frag, err := fs.ReadFile(ex.fsys, ex.Fragment)
	if err != nil {
		return core.SourcePair{}, fmt.Errorf("example %q: %w", name, err)
	}
	return core.SourcePair{Vertex: string(vert), Fragment: string(frag)}, nil
}

// DefaultName returns the example used to seed a new session.
func (c *Catalog) DefaultName() string {
	return c.fallback
}

// Default returns the source of the default example.
func (c *Catalog) Default() (core.SourcePair, error) {
	return c.Source(c.fallback)
}
