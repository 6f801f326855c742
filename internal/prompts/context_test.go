package prompts

import (
	"testing"

	"github.com/jonathan/signal-outreach/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestSignalBlock(t *testing.T) {
	sig := types.Signal{
		ID:       "sig_001",
		Type:     types.SignalLeadershipChange,
		Company:  "Acme Corp",
		Strength: types.StrengthHigh,
		Date:     "2026-01-28",
		Summary:  "Acme hired a new CTO",
		Source:   "https://news.example.com/acme",
	}

	block := SignalBlock(sig)

	assert.Contains(t, block, "- Company: Acme Corp")
	assert.Contains(t, block, "- Type: leadership change")
	assert.Contains(t, block, "- Strength: HIGH")
	assert.Contains(t, block, "- Source: https://news.example.com/acme")

	sig.Source = ""
	sig.Summary = ""
	block = SignalBlock(sig)
	assert.NotContains(t, block, "Source")
	assert.Contains(t, block, "- Summary: Unknown")
}

func TestEntityContext(t *testing.T) {
	entities := types.Entities{
		{EntityType: types.EntityCompany, Data: map[string]any{
			"name":         "Acme Corp",
			"headquarters": "Austin, TX",
			"employees":    float64(120),
		}},
		{EntityType: types.EntityPerson, Data: map[string]any{
			"name":  "Jane Doe",
			"title": "CTO",
		}},
	}

	ctx := EntityContext(entities)

	assert.Contains(t, ctx, "- Name: Acme Corp")
	assert.Contains(t, ctx, "- Industry: Unknown")
	assert.Contains(t, ctx, "- Location: Austin, TX")
	assert.Contains(t, ctx, "- Size: 120")
	assert.Contains(t, ctx, "- Title: CTO")
	assert.Contains(t, ctx, "- Email: Unknown")
	assert.Contains(t, ctx, "- LinkedIn: Unknown")
}

func TestEntityContext_Empty(t *testing.T) {
	assert.Equal(t, "No additional company or contact context available.", EntityContext(nil))
}

func TestCallToAction(t *testing.T) {
	person := types.Entity{EntityType: types.EntityPerson, Data: map[string]any{"name": "Jane Doe"}}
	company := types.Entity{EntityType: types.EntityCompany, Data: map[string]any{"name": "Acme Corp"}}

	assert.Contains(t, CallToAction(types.Entities{company, person}), "Ask Jane Doe")
	assert.Contains(t, CallToAction(types.Entities{company}), "Offer Acme Corp's team a tailored demo")
	assert.Contains(t, CallToAction(types.Entities{{EntityType: types.EntityCompany, Data: map[string]any{"name": "Globex Systems"}}}), "Globex Systems' team")
	assert.Equal(t, "Invite the reader to reply to learn more.", CallToAction(nil))
}
