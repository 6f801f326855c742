package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// UnknownError is recorded when a failure carries no message
const UnknownError = "unknown error"

// Status is the outcome of the last processing attempt for a signal
type Status string

// Status constants
const (
	StatusGenerated Status = "generated"
	StatusError     Status = "error"
)

// StoredSignal is the durable record written for every processed signal.
// A regeneration replaces the whole record.
type StoredSignal struct {
	Signal          Signal          `json:"signal"`
	Entities        Entities        `json:"entities,omitempty"`
	RawSignal       json.RawMessage `json:"rawSignal,omitempty"`
	Outreach        Outreach        `json:"outreach"`
	LandingPageHTML string          `json:"landingPageHtml,omitempty"`
	GeneratedAt     string          `json:"generatedAt"`
	Status          Status          `json:"status"`
	Error           string          `json:"error,omitempty"`
}

// NewGeneratedSignal builds a successful record
func NewGeneratedSignal(sig EnrichedSignal, outreach Outreach, landingHTML string, at time.Time) StoredSignal {
	return StoredSignal{
		Signal:          sig.Signal,
		Entities:        sig.Entities,
		RawSignal:       CompactRaw(sig.Raw),
		Outreach:        outreach.Normalize(),
		LandingPageHTML: landingHTML,
		GeneratedAt:     at.UTC().Format(time.RFC3339),
		Status:          StatusGenerated,
	}
}

// NewErrorSignal builds a failed record with an empty outreach bundle. A
// blank message is recorded as UnknownError so the record always carries one.
func NewErrorSignal(sig EnrichedSignal, message string, at time.Time) StoredSignal {
	if strings.TrimSpace(message) == "" {
		message = UnknownError
	}
	return StoredSignal{
		Signal:      sig.Signal,
		Entities:    sig.Entities,
		RawSignal:   CompactRaw(sig.Raw),
		Outreach:    EmptyOutreach(),
		GeneratedAt: at.UTC().Format(time.RFC3339),
		Status:      StatusError,
		Error:       message,
	}
}

// HasLandingPage reports whether a landing page was generated
func (s StoredSignal) HasLandingPage() bool {
	return s.LandingPageHTML != ""
}

// CompactRaw returns raw with insignificant whitespace removed, which is the
// form json.Marshal writes to the store. Empty or invalid input yields nil.
func CompactRaw(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil
	}
	return json.RawMessage(buf.Bytes())
}
