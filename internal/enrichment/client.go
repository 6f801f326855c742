// Package enrichment resolves signal identifiers into normalized signals
// with their company and person entities.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/signal-outreach/internal/fanout"
	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/types"
)

var errNotFound = errors.New("not found")

// Client maps upstream records into enriched signals
type Client struct {
	source Source
	log    logger.Logger
}

// NewClient creates an enrichment client over source
func NewClient(source Source, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{source: source, log: log}
}

// FetchSignal retrieves one signal and its entities. It returns nil, nil
// when the signal does not exist. Entity fetch failures are logged and the
// entity is skipped.
func (c *Client) FetchSignal(ctx context.Context, id string) (*types.EnrichedSignal, error) {
	remote, err := c.source.RetrieveSignal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve signal %s: %w", id, err)
	}
	if remote == nil {
		return nil, nil
	}

	outcomes := fanout.Collect(ctx, remote.EntityIDs, func(ctx context.Context, entityID string) (types.Entity, error) {
		ent, err := c.source.RetrieveEntity(ctx, entityID)
		if err != nil {
			return types.Entity{}, err
		}
		if ent == nil {
			return types.Entity{}, errNotFound
		}
		return types.Entity{EntityType: types.NormalizeEntityType(ent.EntityType), Data: ent.Data}, nil
	})
	for _, f := range outcomes.Failures() {
		c.log.Warn("Skipping entity",
			logger.String("signal_id", id),
			logger.String("entity_id", remote.EntityIDs[f.Index]),
			logger.Error(f.Err),
		)
	}

	entities := types.Entities(outcomes.Successes())
	raw, err := json.Marshal(remote)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot signal %s: %w", id, err)
	}

	return &types.EnrichedSignal{
		Signal:   MapSignal(remote, entities),
		Entities: entities,
		Raw:      raw,
	}, nil
}

// MapSignal converts an upstream record into the normalized signal shape
func MapSignal(remote *RemoteSignal, entities types.Entities) types.Signal {
	sig := types.Signal{
		ID:       remote.ID,
		Type:     types.NormalizeSignalType(remote.SignalType),
		Summary:  remote.Summary,
		Company:  types.ResolveCompanyName(entities),
		Strength: types.NormalizeStrength(remote.Strength),
		Date:     remote.CreatedAt,
	}
	if len(remote.References) > 0 {
		sig.Source = remote.References[0]
	}

	details := map[string]any{}
	if remote.ICPID != "" {
		details["icp_id"] = remote.ICPID
	}
	if len(remote.References) > 0 {
		details["references"] = remote.References
	}
	if len(remote.EntityIDs) > 0 {
		details["entity_ids"] = remote.EntityIDs
	}
	if len(details) > 0 {
		sig.Details = details
	}
	return sig
}
