package domain

// Button is a single pressable button. Payload is the route token
// the channel hands back when the button is pressed.
type Button struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// Message is what the engine asks the messenger to display.
type Message struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
	Images  []string   `json:"images,omitempty"`
}

// MessageHandle identifies a delivered message so it can be edited or deleted.
type MessageHandle string
