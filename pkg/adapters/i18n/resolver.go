// Package i18n resolves text keys through go-i18n message bundles loaded from TOML files.
package i18n

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/ports"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// PluralArg is the template argument that selects the plural form.
const PluralArg = "Count"

// Bundle holds the messages of every loaded language.
type Bundle struct {
	bundle   *goi18n.Bundle
	fallback language.Tag
	logger   *slog.Logger
}

// Option configures the Bundle.
type Option func(*Bundle)

// WithLogger sets the logger used to report missing keys at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bundle) {
		b.logger = logger
	}
}

// NewBundle creates an empty bundle whose fallback language is lang (e.g. "en").
func NewBundle(lang string, opts ...Option) (*Bundle, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse default language %q: %w", lang, err)
	}
	b := &Bundle{
		bundle:   goi18n.NewBundle(tag),
		fallback: tag,
		logger:   logging.NewNop(),
	}
	b.bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// LoadFS loads every *.toml file at the root of fsys. The file name is the language tag.
func (b *Bundle) LoadFS(fsys fs.FS) error {
	matches, err := fs.Glob(fsys, "*.toml")
	if err != nil {
		return err
	}
	sort.Strings(matches)
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if _, err := b.bundle.ParseMessageFileBytes(data, path.Base(name)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// LoadDir loads every *.toml file in dir.
func (b *Bundle) LoadDir(dir string) error {
	if _, err := os.Stat(filepath.Clean(dir)); err != nil {
		return fmt.Errorf("locale dir: %w", err)
	}
	return b.LoadFS(os.DirFS(dir))
}

// Languages lists the loaded languages.
func (b *Bundle) Languages() []string {
	tags := b.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

// Resolver returns a text resolver for the preferred languages, best first.
// Values may be tags ("pt-BR") or Accept-Language headers.
func (b *Bundle) Resolver(langs ...string) *Resolver {
	return &Resolver{
		localizer: goi18n.NewLocalizer(b.bundle, langs...),
		logger:    b.logger,
	}
}

// Match picks the loaded language closest to the preferences.
func (b *Bundle) Match(langs ...string) string {
	matcher := language.NewMatcher(b.bundle.LanguageTags())
	tag, _ := language.MatchStrings(matcher, langs...)
	base, _ := tag.Base()
	for _, t := range b.bundle.LanguageTags() {
		if tb, _ := t.Base(); tb == base {
			return t.String()
		}
	}
	return b.fallback.String()
}

// Resolver implements ports.TextResolver for a fixed language preference.
type Resolver struct {
	localizer *goi18n.Localizer
	logger    *slog.Logger
}

var _ ports.TextResolver = (*Resolver)(nil)

// Get resolves key with args as template data. Keys without a message are
// returned verbatim so literal texts pass through.
func (r *Resolver) Get(key string, args map[string]any) string {
	if key == "" || strings.ContainsAny(key, " \n") {
		return key
	}
	cfg := &goi18n.LocalizeConfig{MessageID: key, TemplateData: args}
	if n, ok := args[PluralArg]; ok {
		cfg.PluralCount = n
	}
	msg, err := r.localizer.Localize(cfg)
	if msg == "" {
		if err != nil {
			r.logger.Debug("text key not resolved", "key", key, "err", err)
		}
		return key
	}
	return msg
}
