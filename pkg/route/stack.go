package route

import "encoding/json"

// Stack is the per-user navigation history of route tokens.
// The first entry is the entry point: the screen to fall back to
// once history is exhausted.
//
// A token never appears twice: pushing a token that is already present
// truncates the history back to it, so revisiting a screen cannot grow the stack.
type Stack struct {
	tokens []string
}

// NewStack creates a stack holding the given tokens, oldest first.
func NewStack(tokens ...string) *Stack {
	s := &Stack{tokens: make([]string, 0, len(tokens))}
	for _, t := range tokens {
		s.Push(t)
	}
	return s
}

// Push appends a token. If the token already sits at index i,
// the stack is first truncated to length i.
func (s *Stack) Push(token string) {
	if i := s.Index(token); i >= 0 {
		s.tokens = s.tokens[:i]
	}
	s.tokens = append(s.tokens, token)
}

// Pop removes and returns the top token.
// When Len() drops below 1 afterwards the history is exhausted.
func (s *Stack) Pop() (string, bool) {
	if len(s.tokens) == 0 {
		return "", false
	}
	top := s.tokens[len(s.tokens)-1]
	s.tokens = s.tokens[:len(s.tokens)-1]
	return top, true
}

// Peek returns the top token without removing it.
func (s *Stack) Peek() (string, bool) {
	if len(s.tokens) == 0 {
		return "", false
	}
	return s.tokens[len(s.tokens)-1], true
}

// PeekPrevious returns the token below the top.
func (s *Stack) PeekPrevious() (string, bool) {
	if len(s.tokens) < 2 {
		return "", false
	}
	return s.tokens[len(s.tokens)-2], true
}

// ReplaceCurrent swaps the top token, advancing without growing history.
// Used for in-screen pagination.
func (s *Stack) ReplaceCurrent(token string) {
	if len(s.tokens) > 0 {
		s.tokens = s.tokens[:len(s.tokens)-1]
	}
	s.Push(token)
}

// SetEntryPoint hard-resets the stack to [token].
func (s *Stack) SetEntryPoint(token string) {
	s.tokens = append(s.tokens[:0], token)
}

// EntryPoint returns the bottom token.
func (s *Stack) EntryPoint() (string, bool) {
	if len(s.tokens) == 0 {
		return "", false
	}
	return s.tokens[0], true
}

// Home returns the bottom token when it is a static screen, else fallback.
// A dialog token at the bottom is never a place to come home to.
func (s *Stack) Home(fallback string) string {
	if entry, ok := s.EntryPoint(); ok {
		if r, err := Decode(entry); err == nil && r.Kind == KindScreen {
			return entry
		}
	}
	return fallback
}

// TruncateTo drops every token above the one at index i, keeping it on top.
func (s *Stack) TruncateTo(i int) {
	if i >= 0 && i < len(s.tokens) {
		s.tokens = s.tokens[:i+1]
	}
}

// Index returns the position of token, or -1.
func (s *Stack) Index(token string) int {
	for i, t := range s.tokens {
		if t == token {
			return i
		}
	}
	return -1
}

// Len returns the depth of the stack.
func (s *Stack) Len() int {
	return len(s.tokens)
}

// Tokens returns a copy of the history, oldest first.
func (s *Stack) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// MarshalJSON encodes the stack as a plain array.
func (s *Stack) MarshalJSON() ([]byte, error) {
	if s.tokens == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.tokens)
}

// UnmarshalJSON decodes a plain array, collapsing any duplicates.
func (s *Stack) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	s.tokens = s.tokens[:0]
	for _, t := range tokens {
		s.Push(t)
	}
	return nil
}
