package model

// Value is a declared symbolic constant belonging to one Event, State,
// or Link type: an identifier, a display name, and an optional color.
type Value struct {
	ID    string
	Name  string
	Color *Color
}
