package prompts

import (
	"fmt"
	"strings"

	"github.com/jonathan/signal-outreach/internal/types"
)

const unknown = "Unknown"

// SignalBlock renders the signal fields embedded in every generation prompt.
func SignalBlock(sig types.Signal) string {
	var sb strings.Builder
	sb.WriteString("Signal:\n")
	fmt.Fprintf(&sb, "- Company: %s\n", orUnknown(sig.Company))
	fmt.Fprintf(&sb, "- Type: %s\n", orUnknown(sig.Type.Label()))
	fmt.Fprintf(&sb, "- Strength: %s\n", orUnknown(string(sig.Strength)))
	fmt.Fprintf(&sb, "- Date: %s\n", orUnknown(sig.Date))
	fmt.Fprintf(&sb, "- Summary: %s\n", orUnknown(sig.Summary))
	if sig.Source != "" {
		fmt.Fprintf(&sb, "- Source: %s\n", sig.Source)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// EntityContext renders the company and contact records for a signal.
// Every attribute falls back to "Unknown" on its own.
func EntityContext(entities types.Entities) string {
	company, hasCompany := entities.Company()
	person, hasPerson := entities.Person()
	if !hasCompany && !hasPerson {
		return "No additional company or contact context available."
	}

	var sections []string
	if hasCompany {
		sections = append(sections, strings.Join([]string{
			"Company context:",
			"- Name: " + orUnknown(company.FirstField("name", "company_name")),
			"- Industry: " + orUnknown(company.Field("industry")),
			"- Location: " + orUnknown(company.FirstField("location", "headquarters")),
			"- Size: " + orUnknown(company.FirstField("size", "employees")),
			"- Website: " + orUnknown(company.FirstField("website", "company_domain")),
			"- Description: " + orUnknown(company.Field("description")),
		}, "\n"))
	}
	if hasPerson {
		sections = append(sections, strings.Join([]string{
			"Contact:",
			"- Name: " + orUnknown(person.Field("name")),
			"- Title: " + orUnknown(person.Field("title")),
			"- Email: " + orUnknown(person.Field("email")),
			"- LinkedIn: " + orUnknown(person.Field("linkedin_url")),
		}, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// CallToAction picks the ask based on which entities were resolved: a
// personal meeting when a contact is known, a team demo when only the
// company is known, otherwise a generic reply ask.
func CallToAction(entities types.Entities) string {
	if person, ok := entities.Person(); ok {
		name := person.Field("name")
		if name == "" {
			name = "the contact"
		}
		return fmt.Sprintf("Ask %s for a short 15-minute call this week.", name)
	}
	if company, ok := entities.Company(); ok {
		name := company.FirstField("name", "company_name")
		if name == "" {
			name = "their"
		}
		return fmt.Sprintf("Offer %s team a tailored demo and ask who the right person to speak with is.", possessive(name))
	}
	return "Invite the reader to reply to learn more."
}

func possessive(name string) string {
	if name == "their" {
		return name
	}
	if strings.HasSuffix(name, "s") {
		return name + "'"
	}
	return name + "'s"
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}
