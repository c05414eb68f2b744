package feeds

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"turnstile/internal/etl"
)

// Descriptor describes one configured transit data source.
type Descriptor struct {
	Name string `yaml:"name" validate:"required"`
	// Type must match a registered processor format identifier.
	Type   string `yaml:"type" validate:"required"`
	Source string `yaml:"source" validate:"required"`
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled"`
	// Schedule is a hint for the external scheduler; the engine only reports it.
	Schedule    string `yaml:"schedule"`
	Description string `yaml:"description"`
}

// IsEnabled reports whether the feed participates in run-all.
func (d Descriptor) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Catalog is the ordered set of configured feeds.
type Catalog struct {
	Feeds []Descriptor `yaml:"feeds"`
}

// ByName returns the descriptor with the given name.
func (c *Catalog) ByName(name string) (Descriptor, bool) {
	for _, d := range c.Feeds {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Enabled returns the descriptors that participate in run-all.
func (c *Catalog) Enabled() []Descriptor {
	out := make([]Descriptor, 0, len(c.Feeds))
	for _, d := range c.Feeds {
		if d.IsEnabled() {
			out = append(out, d)
		}
	}
	return out
}

// Load reads and validates the feed catalog. All failures are tagged
// etl.ErrConfiguration so callers can abort the run before any feed starts.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, etl.Wrap(etl.ErrConfiguration, "feeds", "read catalog", path, err)
	}
	return Parse(data)
}

// Parse validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, etl.Wrap(etl.ErrConfiguration, "feeds", "parse catalog", "invalid YAML", err)
	}

	validate := validator.New()
	seen := make(map[string]struct{}, len(catalog.Feeds))
	for i := range catalog.Feeds {
		d := &catalog.Feeds[i]
		d.Name = strings.TrimSpace(d.Name)
		d.Type = strings.TrimSpace(d.Type)
		d.Source = strings.TrimSpace(d.Source)

		if err := validate.Struct(d); err != nil {
			return nil, etl.Wrap(etl.ErrConfiguration, "feeds", "validate descriptor",
				fmt.Sprintf("feed %d (%q)", i, d.Name), err)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, etl.Wrap(etl.ErrConfiguration, "feeds", "validate descriptor",
				fmt.Sprintf("duplicate feed name %q", d.Name), nil)
		}
		seen[d.Name] = struct{}{}
	}
	return &catalog, nil
}
