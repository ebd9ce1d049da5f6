package domain

import "fmt"

// ResultKind tags the outcome a callback hands back to the engine.
type ResultKind uint8

const (
	// ResultContinue lets the engine apply its normal advance-or-finish logic.
	ResultContinue ResultKind = iota
	// ResultRetryCurrent keeps the user on given coordinates without advancing.
	ResultRetryCurrent
	// ResultSkipAndComplete jumps straight to the finished path.
	ResultSkipAndComplete
)

func (k ResultKind) String() string {
	switch k {
	case ResultContinue:
		return "continue"
	case ResultRetryCurrent:
		return "retry_current"
	case ResultSkipAndComplete:
		return "skip_and_complete"
	default:
		return fmt.Sprintf("result(%d)", uint8(k))
	}
}

// Result is the outcome of a callback invocation.
// Its fields are unexported so that only the constructors below can build one;
// a retry without coordinates cannot be expressed.
type Result struct {
	kind       ResultKind
	sequenceID int
	itemIndex  int
}

// Continue proceeds with the engine's normal transition.
func Continue() Result {
	return Result{kind: ResultContinue}
}

// RetryCurrent resets the position to (sequenceID, itemIndex) and re-renders it.
// The callback is expected to have told the user what was wrong.
func RetryCurrent(sequenceID, itemIndex int) Result {
	return Result{kind: ResultRetryCurrent, sequenceID: sequenceID, itemIndex: itemIndex}
}

// SkipAndComplete finishes the dialog without visiting the remaining items.
func SkipAndComplete() Result {
	return Result{kind: ResultSkipAndComplete}
}

// Kind reports which variant the result holds.
func (r Result) Kind() ResultKind {
	return r.kind
}

// Retry returns the retry coordinates. ok is false for other variants.
func (r Result) Retry() (sequenceID, itemIndex int, ok bool) {
	if r.kind != ResultRetryCurrent {
		return 0, 0, false
	}
	return r.sequenceID, r.itemIndex, true
}

func (r Result) String() string {
	if r.kind == ResultRetryCurrent {
		return fmt.Sprintf("%s(%d,%d)", r.kind, r.sequenceID, r.itemIndex)
	}
	return r.kind.String()
}
