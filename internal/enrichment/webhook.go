package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/signal-outreach/internal/fanout"
	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/types"
)

// WebhookPayload is the notification sent when upstream creates resources
type WebhookPayload struct {
	Event string `json:"event,omitempty"`
	Data  struct {
		ResourcesCreated resources `json:"resources_created"`
	} `json:"data"`
	ResourcesCreated resources `json:"resources_created"`
}

type resources struct {
	SignalsCreated []signalRef `json:"signals_created"`
}

// signalRef accepts either a bare ID string or an object with an id field
type signalRef string

func (r *signalRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*r = signalRef(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("signal reference must be a string or {\"id\": ...}: %w", err)
	}
	*r = signalRef(obj.ID)
	return nil
}

// ParseWebhook decodes a raw webhook body
func ParseWebhook(raw []byte) (WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return WebhookPayload{}, fmt.Errorf("invalid webhook payload: %w", err)
	}
	return p, nil
}

// SignalIDs returns the created signal IDs, nested location first.
// Blank and duplicate IDs are dropped.
func (p WebhookPayload) SignalIDs() []string {
	refs := p.Data.ResourcesCreated.SignalsCreated
	if len(refs) == 0 {
		refs = p.ResourcesCreated.SignalsCreated
	}
	seen := make(map[string]bool, len(refs))
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		id := strings.TrimSpace(string(r))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// ProcessWebhook resolves every signal named in the payload. Signals that
// fail or do not exist are logged and dropped; the result keeps the payload
// order. An unparseable or empty payload yields an empty result.
func (c *Client) ProcessWebhook(ctx context.Context, raw []byte) []types.EnrichedSignal {
	payload, err := ParseWebhook(raw)
	if err != nil {
		c.log.Warn("Ignoring webhook", logger.Error(err))
		return []types.EnrichedSignal{}
	}

	ids := payload.SignalIDs()
	if len(ids) == 0 {
		c.log.Warn("Webhook contained no created signals")
		return []types.EnrichedSignal{}
	}

	outcomes := fanout.Collect(ctx, ids, func(ctx context.Context, id string) (types.EnrichedSignal, error) {
		sig, err := c.FetchSignal(ctx, id)
		if err != nil {
			return types.EnrichedSignal{}, err
		}
		if sig == nil {
			return types.EnrichedSignal{}, errNotFound
		}
		return *sig, nil
	})
	for _, f := range outcomes.Failures() {
		c.log.Warn("Dropping signal from webhook",
			logger.String("signal_id", ids[f.Index]),
			logger.Error(f.Err),
		)
	}

	signals := outcomes.Successes()
	c.log.Info("Resolved webhook signals",
		logger.Int("requested", len(ids)),
		logger.Int("resolved", len(signals)),
	)
	return signals
}
