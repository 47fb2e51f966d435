package templates

// Template is a reusable preset of workout fields. It carries no date and
// no completion/favourite state; applying it only copies the three fields
// into a new workout draft.
type Template struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Location    string `json:"location"`
}
