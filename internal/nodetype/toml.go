package nodetype

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/hyyve/flowcanvas/internal/geom"
)

// typesFile is the on-disk format for extra node types:
//
//	[[type]]
//	type = "webhook"
//	category = "module"
//	width = 220
//	height = 100
//	render = "card"
//
//	  [[type.handles]]
//	  id = "in"
//	  role = "input"
//	  side = "left"
type typesFile struct {
	Types []tomlDescriptor `toml:"type"`
}

type tomlDescriptor struct {
	Descriptor
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// LoadTOML decodes node types from r and registers them. Either every type
// in the file is registered or, on error, none is. It returns the keys that
// were added.
func (r *Registry) LoadTOML(src io.Reader) ([]string, error) {
	var f typesFile
	if _, err := toml.NewDecoder(src).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode node types: %w", err)
	}

	staged := NewRegistry()
	descs := make([]Descriptor, 0, len(f.Types))
	for i, t := range f.Types {
		d := t.Descriptor
		d.DefaultSize = geom.Sz(t.Width, t.Height)
		if _, ok := r.types[d.Type]; ok {
			return nil, fmt.Errorf("type %d: %w: %s", i, ErrAlreadyRegistered, d.Type)
		}
		if err := staged.Register(d.Type, d); err != nil {
			return nil, fmt.Errorf("type %d: %w", i, err)
		}
		descs = append(descs, d)
	}

	added := make([]string, 0, len(descs))
	for _, d := range descs {
		r.types[d.Type] = staged.types[d.Type]
		added = append(added, d.Type)
	}
	return added, nil
}

// LoadTOMLFile is LoadTOML for a path.
func (r *Registry) LoadTOMLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open node types: %w", err)
	}
	defer f.Close()
	return r.LoadTOML(f)
}
