package domain

// Position is where a user currently stands inside the active dialog.
type Position struct {
	DialogID   int `json:"dialog_id"`
	SequenceID int `json:"sequence_id"`
	ItemIndex  int `json:"item_index"`
}

// StartPosition is the initial position of a dialog.
func StartPosition(dialogID int) Position {
	return Position{
		DialogID:   dialogID,
		SequenceID: RootSequenceID,
		ItemIndex:  0,
	}
}

// At returns a copy of the position moved to the given coordinates.
func (p Position) At(sequenceID, index int) Position {
	p.SequenceID = sequenceID
	p.ItemIndex = index
	return p
}
