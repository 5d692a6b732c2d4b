package models

// DisplayState is the status label for the pair of feature toggles.
type DisplayState int

const (
	BothOff DisplayState = iota
	ChatOnly
	AutocompleteOnly
	BothOn
)

// Summarize maps the two toggles to their label.
func Summarize(chatOn, autocompleteOn bool) DisplayState {
	switch {
	case chatOn && autocompleteOn:
		return BothOn
	case chatOn:
		return ChatOnly
	case autocompleteOn:
		return AutocompleteOnly
	default:
		return BothOff
	}
}

func (d DisplayState) String() string {
	switch d {
	case BothOn:
		return "AI: Chat + Autocomplete"
	case ChatOnly:
		return "AI: Chat only"
	case AutocompleteOnly:
		return "AI: Autocomplete only"
	default:
		return "AI: Off"
	}
}
