package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDialog() *domain.Dialog {
	d := domain.NewDialog(1)
	d.Sequences[0] = domain.Sequence{ID: 0, ItemIDs: []int{10, 11}}
	d.Sequences[1] = domain.Sequence{ID: 1, ItemIDs: []int{20}}
	d.Items[10] = domain.Item{ID: 10, Text: "pick", Type: domain.ItemSelect, OptionIDs: []int{100}}
	d.Items[11] = domain.Item{ID: 11, Text: "type", Type: domain.ItemTextInput}
	d.Items[20] = domain.Item{ID: 20, Text: "done", Type: domain.ItemSelect, OptionIDs: []int{200}}
	d.Options[100] = domain.Option{ID: 100, Text: "jump", TargetSequenceID: domain.Ref(1)}
	d.Options[200] = domain.Option{ID: 200, Text: "ok"}
	return d
}

func TestResult_Variants(t *testing.T) {
	assert.Equal(t, domain.ResultContinue, domain.Continue().Kind())
	assert.Equal(t, domain.ResultSkipAndComplete, domain.SkipAndComplete().Kind())

	seq, idx, ok := domain.RetryCurrent(0, 2).Retry()
	require.True(t, ok)
	assert.Equal(t, 0, seq)
	assert.Equal(t, 2, idx)

	_, _, ok = domain.Continue().Retry()
	assert.False(t, ok, "only RetryCurrent carries coordinates")

	var zero domain.Result
	assert.Equal(t, domain.ResultContinue, zero.Kind(), "zero value behaves as Continue")
	assert.Equal(t, "retry_current(0,2)", domain.RetryCurrent(0, 2).String())
}

func TestDialog_Lookup(t *testing.T) {
	d := sampleDialog()

	it, err := d.ItemAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 11, it.ID)

	_, err = d.ItemAt(0, 2)
	assert.ErrorIs(t, err, domain.ErrUnknownItem)

	_, err = d.ItemAt(7, 0)
	assert.ErrorIs(t, err, domain.ErrUnknownSequence)

	idx, ok := d.IndexOf(1, 20)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = d.IndexOf(1, 10)
	assert.False(t, ok)

	item10, _ := d.Item(10)
	assert.True(t, item10.HasOption(100))
	assert.Len(t, d.OptionsOf(item10), 1)
}

func TestDialog_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, sampleDialog().Validate())
	})

	t.Run("Broken References", func(t *testing.T) {
		d := sampleDialog()
		d.Sequences[2] = domain.Sequence{ID: 2, NextSequenceID: domain.Ref(9)}
		d.Items[30] = domain.Item{ID: 30, Type: "CAROUSEL", OptionIDs: []int{999}}
		d.Options[300] = domain.Option{ID: 300, TargetSequenceID: domain.Ref(42)}

		err := d.Validate()
		require.Error(t, err)

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, 1, verr.DialogID)
		// empty sequence, dangling next, unknown type, dangling option, dangling target
		assert.Len(t, verr.Violations, 5)
	})

	t.Run("Missing Root", func(t *testing.T) {
		d := sampleDialog()
		d.Sequences[5] = d.Sequences[0]
		delete(d.Sequences, 0)

		err := d.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root sequence is missing")
	})
}

func TestCallbackError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &domain.CallbackError{DialogID: 3, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dialog 3")
}
