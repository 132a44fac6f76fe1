// Package scene decodes YAML scene documents into validated kernel geometry.
//
// A document lists named entities. Constructed entities (loft, extrude,
// revolve) reference earlier curve entities by name, so a scene is always
// acyclic. Decoding reports every broken entity at once.
package scene

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

var (
	ErrUnknownKind      = errors.New("unknown entity kind")
	ErrMissingField     = errors.New("missing required field")
	ErrBadPoint         = errors.New("point must have 2 or 3 finite components")
	ErrUnknownReference = errors.New("unknown entity reference")
	ErrNotACurve        = errors.New("referenced entity is not a curve")
	ErrDuplicateName    = errors.New("duplicate entity name")
	ErrBadScale         = errors.New("place scale must be positive")
)

// Document is the YAML form of a scene.
type Document struct {
	Entities []EntitySpec `yaml:"entities"`
}

// Entity is one decoded scene entry.
type Entity struct {
	Name string
	Kind string
	// Construction entities are only referenced by others and are not
	// exported on their own.
	Construction bool
	Geometry     tessellate.Geometry
	Planar       PlanarOps
	Overrides    *Overrides
}

// PlanarOps lists the 2D post-processing applied to a curve's XY projection.
type PlanarOps struct {
	Offset     *float64 `yaml:"offset"`
	Simplify   float64  `yaml:"simplify"`
	MergeAngle float64  `yaml:"merge_angle"`
}

// Empty reports whether no planar operation is requested.
func (p PlanarOps) Empty() bool {
	return p.Offset == nil && p.Simplify <= 0 && p.MergeAngle <= 0
}

// Scene is an ordered, name-indexed entity list.
type Scene struct {
	Entities []Entity
	byName   map[string]int
}

// Lookup returns the entity called name.
func (s *Scene) Lookup(name string) (Entity, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Entity{}, false
	}
	return s.Entities[i], true
}

// Exported returns the entities that are not construction-only.
func (s *Scene) Exported() []Entity {
	var out []Entity
	for _, e := range s.Entities {
		if !e.Construction {
			out = append(out, e)
		}
	}
	return out
}

// Load reads and decodes the scene file at path.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

// Decode parses a YAML scene document and builds every entity in order.
func Decode(r io.Reader) (*Scene, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	return Build(doc)
}

// Build converts a parsed document into a Scene. Unnamed entities get a
// stable name derived from their kind and position.
func Build(doc Document) (*Scene, error) {
	s := &Scene{byName: make(map[string]int, len(doc.Entities))}
	var errs error
	for i, spec := range doc.Entities {
		name := spec.Name
		if name == "" {
			name = generatedName(spec.Kind, i)
		}
		if _, dup := s.byName[name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("entity %d: %w: %q", i, ErrDuplicateName, name))
			continue
		}

		g, err := spec.build(name, s)
		if err == nil {
			err = spec.Place.place(&g)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("entity %d (%s %q): %w", i, spec.Kind, name, err))
			continue
		}
		s.byName[name] = len(s.Entities)
		s.Entities = append(s.Entities, Entity{
			Name:         name,
			Kind:         spec.Kind,
			Construction: spec.Construction,
			Geometry:     g,
			Planar:       spec.Planar,
			Overrides:    spec.Tessellation,
		})
	}
	if errs != nil {
		return nil, errs
	}
	return s, nil
}

func generatedName(kind string, index int) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s#%d", kind, index)))
	return kind + "-" + id.String()[:8]
}
