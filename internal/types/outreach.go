package types

// Email is the subject and body of a generated outreach email
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Outreach is the generated content bundle for one signal
type Outreach struct {
	Email      Email    `json:"email"`
	LinkedIn   string   `json:"linkedin"`
	Twitter    string   `json:"twitter"` // intended to fit in 280 characters, not enforced
	CallPoints []string `json:"callPoints"`
	Summary    string   `json:"summary"`
}

// EmptyOutreach returns the all-empty outreach bundle
func EmptyOutreach() Outreach {
	return Outreach{CallPoints: []string{}}
}

// Normalize guarantees CallPoints is a non-nil slice
func (o Outreach) Normalize() Outreach {
	if o.CallPoints == nil {
		o.CallPoints = []string{}
	}
	return o
}
