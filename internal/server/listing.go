package server

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/signal-outreach/internal/types"
)

// SignalSummary is one row of the signal listing
type SignalSummary struct {
	ID               string       `json:"id"`
	Company          string       `json:"company"`
	Type             string       `json:"type"`
	Strength         string       `json:"strength"`
	Summary          string       `json:"summary"`
	Status           types.Status `json:"status"`
	GeneratedAt      string       `json:"generatedAt"`
	EmailSubject     string       `json:"emailSubject,omitempty"`
	HasLandingPage   bool         `json:"hasLandingPage"`
	LandingPageTitle string       `json:"landingPageTitle,omitempty"`
	Error            string       `json:"error,omitempty"`
}

// ListResponse is the body of GET /signals
type ListResponse struct {
	Signals []SignalSummary `json:"signals"`
	Count   int             `json:"count"`
}

// Summarize builds the listing row for a stored record
func Summarize(stored types.StoredSignal) SignalSummary {
	summary := SignalSummary{
		ID:             stored.Signal.ID,
		Company:        stored.Signal.Company,
		Type:           string(stored.Signal.Type),
		Strength:       string(stored.Signal.Strength),
		Summary:        stored.Signal.Summary,
		Status:         stored.Status,
		GeneratedAt:    stored.GeneratedAt,
		EmailSubject:   stored.Outreach.Email.Subject,
		HasLandingPage: stored.HasLandingPage(),
		Error:          stored.Error,
	}
	if summary.HasLandingPage {
		summary.LandingPageTitle = LandingPageTitle(stored.LandingPageHTML)
	}
	return summary
}

// LandingPageTitle returns the document title of a landing page, falling
// back to the first h1. Empty when neither is present.
func LandingPageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if title := collapse(doc.Find("head title").First().Text()); title != "" {
		return title
	}
	return collapse(doc.Find("h1").First().Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
