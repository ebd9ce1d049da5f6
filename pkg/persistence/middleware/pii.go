package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/ports"
)

// ErrReadOnly is returned by writes through a redacting view.
var ErrReadOnly = errors.New("redacting view is read-only")

// DefaultPIIPatterns match the draft fields the reference flows collect.
var DefaultPIIPatterns = []string{`(?i)^name$`, `(?i)^age$`, `(?i)phone`, `(?i)e-?mail`, `(?i)password`}

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a read-only view that masks JSON object fields whose
// names match one of the patterns. Non-JSON values pass through unchanged.
// It is meant for operators inspecting sessions; never hand it to the engine.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Get(ctx context.Context, userID int64, key string) ([]byte, error) {
	raw, err := m.next.Get(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw, nil
	}
	if !mask(v, m.patterns) {
		return raw, nil
	}
	return json.Marshal(v)
}

func (m *piiMiddleware) Set(ctx context.Context, userID int64, key string, value []byte) error {
	return ErrReadOnly
}

func (m *piiMiddleware) Delete(ctx context.Context, userID int64, key string) error {
	return ErrReadOnly
}

func (m *piiMiddleware) Clear(ctx context.Context, userID int64) error {
	return ErrReadOnly
}

func (m *piiMiddleware) List(ctx context.Context) ([]int64, error) {
	return m.next.List(ctx)
}

// mask replaces matching fields in place and reports whether anything changed.
func mask(v any, patterns []*regexp.Regexp) bool {
	changed := false
	switch t := v.(type) {
	case map[string]any:
		for k, sub := range t {
			if matchAny(k, patterns) {
				t[k] = "***"
				changed = true
				continue
			}
			changed = mask(sub, patterns) || changed
		}
	case []any:
		for _, sub := range t {
			changed = mask(sub, patterns) || changed
		}
	}
	return changed
}

func matchAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
