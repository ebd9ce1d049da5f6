package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/arbor/internal/dto"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrDuplicateID is returned when a document declares the same id twice.
var ErrDuplicateID = errors.New("duplicate id")

// Converter turns static dialog documents (YAML or JSON) into Dialogs.
// The mapping is one-to-one: no id is generated and nothing is derived.
type Converter struct{}

// NewConverter creates a new converter instance.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert decodes a document and validates the resulting dialog.
func (c *Converter) Convert(data []byte) (*domain.Dialog, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse dialog document: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to parse dialog document: empty document")
	}

	var doc dto.DialogDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode dialog document: %w", err)
	}

	d, err := toDomain(doc)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// ConvertFile reads and converts a single document.
func (c *Converter) ConvertFile(path string) (*domain.Dialog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d, err := c.Convert(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// ConvertDir converts every .yaml, .yml and .json document in dir, in file name order.
func (c *Converter) ConvertDir(dir string) ([]*domain.Dialog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dialogs dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	seen := make(map[int]string)
	dialogs := make([]*domain.Dialog, 0, len(names))
	for _, name := range names {
		d, err := c.ConvertFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("%w: dialog %d declared in %s and %s", ErrDuplicateID, d.ID, prev, name)
		}
		seen[d.ID] = name
		dialogs = append(dialogs, d)
	}
	return dialogs, nil
}

func toDomain(doc dto.DialogDocument) (*domain.Dialog, error) {
	d := domain.NewDialog(doc.ID)

	for _, s := range doc.Sequences {
		if _, dup := d.Sequences[s.ID]; dup {
			return nil, fmt.Errorf("%w: sequence %d", ErrDuplicateID, s.ID)
		}
		d.Sequences[s.ID] = domain.Sequence{
			ID:             s.ID,
			ItemIDs:        firstNonEmpty(s.Items, s.ItemsIDs),
			NextSequenceID: firstRef(s.Next, s.NextFull),
		}
	}

	for _, it := range doc.Items {
		if _, dup := d.Items[it.ID]; dup {
			return nil, fmt.Errorf("%w: item %d", ErrDuplicateID, it.ID)
		}
		d.Items[it.ID] = domain.Item{
			ID:        it.ID,
			Text:      it.Text,
			Type:      domain.ItemType(strings.ToUpper(strings.TrimSpace(it.Type))),
			OptionIDs: firstNonEmpty(it.Options, it.OptionsIDs),
			Images:    it.Images,
			Args:      it.Args,
		}
	}

	for _, o := range doc.Options {
		if _, dup := d.Options[o.ID]; dup {
			return nil, fmt.Errorf("%w: option %d", ErrDuplicateID, o.ID)
		}
		d.Options[o.ID] = domain.Option{
			ID:               o.ID,
			Text:             o.Text,
			TargetSequenceID: firstRef(o.Target, o.TargetFull),
			Row:              o.Row,
			CallbackData:     o.CallbackData,
		}
	}

	return d, nil
}

func firstNonEmpty(a, b []int) []int {
	if len(a) > 0 {
		return a
	}
	return b
}

func firstRef(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}
