package genetics

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/random"
)

var (
	//go:embed catalog.yaml
	defaultCatalogYAML []byte

	//go:embed catalog.schema.json
	catalogSchemaJSON string

	catalogSchema = jsonschema.MustCompileString("https://farmlife.zeusync.dev/schemas/catalog.schema.json", catalogSchemaJSON)
)

var ErrInvalidCatalog = fmt.Errorf("%w: gene catalog", fault.ErrInvalidArgument)

// Catalog is the read-only table of gene templates, indexed by gene id.
// It is never mutated after construction and needs no locking.
type Catalog struct {
	genes map[int]*Gene
	ids   []int
	log   log.Log
}

// NewCatalog indexes genes. Templates are cloned; duplicate or invalid genes are an error.
func NewCatalog(genes []*Gene, logger log.Log) (*Catalog, error) {
	c := &Catalog{
		genes: make(map[int]*Gene, len(genes)),
		ids:   make([]int, 0, len(genes)),
		log:   log.OrNop(logger),
	}
	for i, g := range genes {
		if !g.Valid() {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidCatalog, i, ErrInvalidGene)
		}
		if _, dup := c.genes[g.ID()]; dup {
			return nil, fmt.Errorf("%w: gene %d: %w", ErrInvalidCatalog, g.ID(), ErrDuplicateGene)
		}
		c.genes[g.ID()] = g.Clone()
		c.ids = append(c.ids, g.ID())
	}
	slices.Sort(c.ids)
	return c, nil
}

// DefaultCatalog loads the built-in catalog.
func DefaultCatalog(logger log.Log) (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalogYAML), logger)
}

// LoadCatalog decodes a YAML catalog, validates it against the catalog schema
// and indexes it.
func LoadCatalog(r io.Reader, logger log.Log) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	if err = validateCatalog(raw); err != nil {
		return nil, err
	}

	var doc catalogDoc
	if err = yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	genes := make([]*Gene, 0, len(doc.Genes))
	for _, gd := range doc.Genes {
		g, err := gd.gene()
		if err != nil {
			return nil, fmt.Errorf("%w: gene %d: %w", ErrInvalidCatalog, gd.ID, err)
		}
		genes = append(genes, g)
	}

	c, err := NewCatalog(genes, logger)
	if err != nil {
		return nil, err
	}
	c.log.Debug("gene catalog loaded", log.Int("genes", c.Len()))
	return c, nil
}

// validateCatalog checks raw YAML against the JSON schema. The document is
// round-tripped through JSON so the validator sees JSON-native types.
func validateCatalog(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	var v any
	if err = json.Unmarshal(js, &v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if err = catalogSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return nil
}

// GeneByID returns the template for id. Templates are shared; clone before mutating.
func (c *Catalog) GeneByID(id int) (*Gene, bool) {
	g, ok := c.genes[id]
	return g, ok
}

// RandomTemplate returns a uniformly chosen template.
func (c *Catalog) RandomTemplate(rng random.Source) (*Gene, error) {
	if len(c.ids) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c.genes[c.ids[rng.IntN(len(c.ids))]], nil
}

// RandomGenes returns clones of up to n distinct templates in random order.
func (c *Catalog) RandomGenes(rng random.Source, n int) ([]*Gene, error) {
	if len(c.ids) == 0 {
		return nil, ErrEmptyCatalog
	}
	n = min(max(n, 0), len(c.ids))

	pool := slices.Clone(c.ids)
	out := make([]*Gene, 0, n)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		out = append(out, c.genes[pool[i]].Clone())
	}
	return out, nil
}

// Resolve turns refs into owned genes: a clone of each template with the
// ref's passing chance. Unknown ids are logged and skipped.
func (c *Catalog) Resolve(refs []GeneRef) []*Gene {
	out := make([]*Gene, 0, len(refs))
	for _, ref := range refs {
		tpl, ok := c.genes[ref.ID]
		if !ok {
			c.log.Warn("unknown gene id in refs", log.Int("gene", ref.ID))
			continue
		}
		g := tpl.Clone()
		g.OverridePassingChance(ref.PassingChance)
		out = append(out, g)
	}
	return out
}

func (c *Catalog) Len() int { return len(c.ids) }

// IDs returns the template ids in ascending order.
func (c *Catalog) IDs() []int { return slices.Clone(c.ids) }

type catalogDoc struct {
	Genes []geneDoc `yaml:"genes"`
}

type geneDoc struct {
	ID            int          `yaml:"id"`
	Name          string       `yaml:"name"`
	Description   string       `yaml:"description"`
	PassingChance float64      `yaml:"passing_chance"`
	Features      []featureDoc `yaml:"features"`
}

type featureDoc struct {
	Kind        string  `yaml:"kind"`
	BodyPart    string  `yaml:"body_part"`
	Effect      string  `yaml:"effect"`
	Color       string  `yaml:"color"`
	Material    string  `yaml:"material"`
	Texture     string  `yaml:"texture"`
	Size        float64 `yaml:"size"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Level       int     `yaml:"level"`
	Cooldown    float64 `yaml:"cooldown"`
	Duration    float64 `yaml:"duration"`
	Skill       string  `yaml:"skill"`
	Stat        string  `yaml:"stat"`
	Value       int     `yaml:"value"`
}

func (d geneDoc) gene() (*Gene, error) {
	features := make([]GeneFeature, 0, len(d.Features))
	for _, fd := range d.Features {
		f, err := fd.feature()
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return NewGene(d.ID, d.Name, d.Description, d.PassingChance, features...), nil
}

func (d featureDoc) feature() (GeneFeature, error) {
	switch d.Kind {
	case "appearance":
		part, err := ParseBodyPart(d.BodyPart)
		if err != nil {
			return nil, err
		}
		effect, err := ParseEffectKind(d.Effect)
		if err != nil {
			return nil, err
		}
		return AppearanceFeature{
			BodyPart: part,
			Effect:   effect,
			Color:    d.Color,
			Material: d.Material,
			Texture:  d.Texture,
			Size:     d.Size,
		}, nil
	case "skill":
		kind, err := ParseSkillKind(d.Skill)
		if err != nil {
			return nil, err
		}
		return SkillFeature{
			Name:        d.Name,
			Description: d.Description,
			Level:       max(d.Level, 1),
			Cooldown:    d.Cooldown,
			Duration:    d.Duration,
			SkillKind:   kind,
		}, nil
	case "stat":
		stat, err := ParseStatKind(d.Stat)
		if err != nil {
			return nil, err
		}
		return StatFeature{Stat: stat, Value: d.Value}, nil
	default:
		return nil, fmt.Errorf("unknown feature kind %q", d.Kind)
	}
}
