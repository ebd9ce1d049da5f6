package dto

// DialogDocument is the on-disk shape of a static dialog.
// It uses "mapstructure" tags so YAML and JSON documents decode the same way.
// Short keys (items, next, options, target) and the long wire names
// (items_ids, next_sequence_id, options_ids, target_sequence_id) are both accepted.
type DialogDocument struct {
	ID        int                `mapstructure:"id"`
	Name      string             `mapstructure:"name"`
	Sequences []SequenceDocument `mapstructure:"sequences"`
	Items     []ItemDocument     `mapstructure:"items"`
	Options   []OptionDocument   `mapstructure:"options"`
}

type SequenceDocument struct {
	ID       int   `mapstructure:"id"`
	Items    []int `mapstructure:"items"`
	ItemsIDs []int `mapstructure:"items_ids"`
	Next     *int  `mapstructure:"next"`
	NextFull *int  `mapstructure:"next_sequence_id"`
}

type ItemDocument struct {
	ID         int            `mapstructure:"id"`
	Text       string         `mapstructure:"text"`
	Type       string         `mapstructure:"type"`
	Options    []int          `mapstructure:"options"`
	OptionsIDs []int          `mapstructure:"options_ids"`
	Images     []string       `mapstructure:"images"`
	Args       map[string]any `mapstructure:"args"`
}

type OptionDocument struct {
	ID           int    `mapstructure:"id"`
	Text         string `mapstructure:"text"`
	Target       *int   `mapstructure:"target"`
	TargetFull   *int   `mapstructure:"target_sequence_id"`
	Row          int    `mapstructure:"row"`
	CallbackData string `mapstructure:"callback_data"`
}
