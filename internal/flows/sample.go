package flows

import (
	_ "embed"
	"fmt"

	"github.com/aretw0/arbor/pkg/ports"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var sampleCatalogDoc []byte

type sampleCategory struct {
	ID      int           `yaml:"id"`
	Title   string        `yaml:"title"`
	Entries []sampleEntry `yaml:"entries"`
}

type sampleEntry struct {
	ID          int    `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

// SampleCatalog returns the demo catalog used by the memory driver and to seed an empty database.
func SampleCatalog() ([]ports.Category, error) {
	var doc struct {
		Categories []sampleCategory `yaml:"categories"`
	}
	if err := yaml.Unmarshal(sampleCatalogDoc, &doc); err != nil {
		return nil, fmt.Errorf("sample catalog: %w", err)
	}

	cats := make([]ports.Category, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		cat := ports.Category{ID: c.ID, Title: c.Title}
		for _, e := range c.Entries {
			cat.Children = append(cat.Children, ports.Entry{
				ID:          e.ID,
				Title:       e.Title,
				Description: e.Description,
				ImageURL:    e.Image,
			})
		}
		cats = append(cats, cat)
	}
	return cats, nil
}
