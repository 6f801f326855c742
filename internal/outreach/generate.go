// Package outreach turns a signal and its entity context into email,
// social and call copy with a single LLM completion.
package outreach

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jonathan/signal-outreach/internal/llm"
	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/prompts"
	"github.com/jonathan/signal-outreach/internal/schemas"
	"github.com/jonathan/signal-outreach/internal/types"
)

// Generator produces outreach copy for signals
type Generator struct {
	client llm.Client
	tier   llm.ModelTier
	log    logger.Logger
}

// NewGenerator creates a generator using the standard model tier
func NewGenerator(client llm.Client, log logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{client: client, tier: llm.TierStandard, log: log}
}

// WithTier returns a copy of the generator that uses tier
func (g *Generator) WithTier(tier llm.ModelTier) *Generator {
	clone := *g
	clone.tier = tier
	return &clone
}

// Generate runs one completion for sig. A response that is empty or not a
// JSON object is a *GenerationError; missing or unusable fields default to
// empty values.
func (g *Generator) Generate(ctx context.Context, sig types.Signal, entities types.Entities) (types.Outreach, error) {
	req := BuildRequest(sig, entities)
	req.Tier = g.tier

	text, err := g.client.GenerateJSON(ctx, req)
	if err != nil {
		return types.Outreach{}, newCallError(sig.ID, err)
	}

	text = llm.CleanJSONBlock(text)
	if text == "" {
		return types.Outreach{}, newResponseError(sig.ID, "empty completion response", nil)
	}
	if !json.Valid([]byte(text)) {
		return types.Outreach{}, newResponseError(sig.ID, "completion response is not valid JSON", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return types.Outreach{}, newResponseError(sig.ID, "completion response is not a JSON object", err)
	}

	if err := schemas.Validate(schemas.Outreach, []byte(text)); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			g.log.Warn("Outreach response incomplete, defaulting unusable fields",
				logger.String("signal_id", sig.ID),
				logger.Strings("fields", verr.Fields()),
			)
		}
	}

	return toOutreach(fields), nil
}

// BuildRequest assembles the system instruction and user message for sig
func BuildRequest(sig types.Signal, entities types.Entities) llm.Request {
	system := prompts.Format(prompts.MustGet("outreach.json", "outreach-system"), map[string]string{
		"CallToAction": prompts.CallToAction(entities),
	})
	user := prompts.Format(prompts.MustGet("outreach.json", "outreach-user"), map[string]string{
		"Signal":        prompts.SignalBlock(sig),
		"EntityContext": prompts.EntityContext(entities),
	})
	return llm.Request{System: system, Prompt: user, Tier: llm.TierStandard}
}

// toOutreach pulls each field out on its own; a missing or wrongly typed
// field becomes its empty value and non-string call points are skipped.
func toOutreach(fields map[string]json.RawMessage) types.Outreach {
	var email map[string]json.RawMessage
	_ = json.Unmarshal(fields["email"], &email)

	var items []json.RawMessage
	_ = json.Unmarshal(fields["callPoints"], &items)
	points := make([]string, 0, len(items))
	for _, item := range items {
		if p := stringValue(item); p != "" {
			points = append(points, p)
		}
	}

	return types.Outreach{
		Email: types.Email{
			Subject: stringValue(email["subject"]),
			Body:    stringValue(email["body"]),
		},
		LinkedIn:   stringValue(fields["linkedin"]),
		Twitter:    stringValue(fields["twitter"]),
		CallPoints: points,
		Summary:    stringValue(fields["summary"]),
	}
}

func stringValue(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
