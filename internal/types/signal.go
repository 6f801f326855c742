// Package types provides type definitions for structured data used throughout the signal-outreach system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// UnknownCompany is the display name used when no company could be resolved.
const UnknownCompany = "Unknown Company"

// Strength represents how strong a detected signal is
type Strength string

// Strength constants
const (
	StrengthHigh   Strength = "HIGH"
	StrengthMedium Strength = "MEDIUM"
	StrengthLow    Strength = "LOW"
)

// NormalizeStrength maps a raw strength value onto HIGH, MEDIUM or LOW.
// Matching is case-insensitive; anything unrecognized becomes MEDIUM.
func NormalizeStrength(raw string) Strength {
	switch Strength(strings.ToUpper(strings.TrimSpace(raw))) {
	case StrengthHigh:
		return StrengthHigh
	case StrengthLow:
		return StrengthLow
	default:
		return StrengthMedium
	}
}

// SignalType is an open enumeration of business event kinds
type SignalType string

// Known signal types. Other values are allowed and kept as-is (lowercased).
const (
	SignalFunding          SignalType = "funding"
	SignalLeadershipChange SignalType = "leadership_change"
	SignalProductLaunch    SignalType = "product_launch"
	SignalPartnership      SignalType = "partnership"
	SignalAcquisition      SignalType = "acquisition"
	SignalExpansion        SignalType = "expansion"
	SignalHiringSurge      SignalType = "hiring_surge"
	SignalLayoff           SignalType = "layoff"
	SignalAward            SignalType = "award"
	SignalOther            SignalType = "other"
)

// NormalizeSignalType lowercases and trims a raw type; empty becomes "other".
func NormalizeSignalType(raw string) SignalType {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return SignalOther
	}
	return SignalType(t)
}

// IsKnown reports whether the type is one of the predefined values
func (t SignalType) IsKnown() bool {
	switch t {
	case SignalFunding, SignalLeadershipChange, SignalProductLaunch, SignalPartnership,
		SignalAcquisition, SignalExpansion, SignalHiringSurge, SignalLayoff, SignalAward:
		return true
	}
	return false
}

// Label returns a human readable form of the type ("leadership change")
func (t SignalType) Label() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// Signal represents one detected business event
type Signal struct {
	ID       string         `json:"id" validate:"required"`
	Type     SignalType     `json:"type"`
	Summary  string         `json:"summary"`
	Company  string         `json:"company"`
	Strength Strength       `json:"strength"`
	Date     string         `json:"date"`
	Source   string         `json:"source,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// Normalize returns a copy with type, strength and company in their
// canonical forms. The ID is never touched.
func (s Signal) Normalize() Signal {
	s.Type = NormalizeSignalType(string(s.Type))
	s.Strength = NormalizeStrength(string(s.Strength))
	if strings.TrimSpace(s.Company) == "" {
		s.Company = UnknownCompany
	}
	return s
}

// EnrichedSignal is a normalized signal together with the entity records
// and the raw upstream snapshot it was built from
type EnrichedSignal struct {
	Signal   Signal
	Entities Entities
	Raw      []byte
}
