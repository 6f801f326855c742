package enrichment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jonathan/signal-outreach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockSource implements Source for testing
type MockSource struct {
	Signals  map[string]*RemoteSignal
	Entities map[string]*RemoteEntity
	Errors   map[string]error

	mu    sync.Mutex
	calls []string
}

func (m *MockSource) record(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
}

func (m *MockSource) RetrieveSignal(_ context.Context, id string) (*RemoteSignal, error) {
	m.record(id)
	if err := m.Errors[id]; err != nil {
		return nil, err
	}
	return m.Signals[id], nil
}

func (m *MockSource) RetrieveEntity(_ context.Context, id string) (*RemoteEntity, error) {
	m.record(id)
	if err := m.Errors[id]; err != nil {
		return nil, err
	}
	return m.Entities[id], nil
}

func newMockSource() *MockSource {
	return &MockSource{
		Signals: map[string]*RemoteSignal{
			"sig_001": {
				ID:         "sig_001",
				EntityIDs:  []string{"ent_co", "ent_person", "ent_broken", "ent_missing"},
				Summary:    "Acme raised a Series B",
				SignalType: "Funding",
				Strength:   "high",
				CreatedAt:  "2026-01-28T10:00:00Z",
				ICPID:      "icp_9",
				References: []string{"https://news.example.com/acme"},
			},
			"sig_002": {ID: "sig_002", SignalType: "award", Strength: "whatever"},
		},
		Entities: map[string]*RemoteEntity{
			"ent_co":     {EntityType: "company", Data: map[string]any{"name": "Acme Corp"}},
			"ent_person": {EntityType: "person", Data: map[string]any{"name": "Dana Lee", "company_name": "Acme Inc"}},
		},
		Errors: map[string]error{
			"ent_broken": errors.New("timeout"),
			"sig_bad":    errors.New("upstream unavailable"),
		},
	}
}

func TestFetchSignal_MapsAndSkipsFailedEntities(t *testing.T) {
	client := NewClient(newMockSource(), nil)

	enriched, err := client.FetchSignal(context.Background(), "sig_001")
	require.NoError(t, err)
	require.NotNil(t, enriched)

	sig := enriched.Signal
	assert.Equal(t, "sig_001", sig.ID)
	assert.Equal(t, types.SignalFunding, sig.Type)
	assert.Equal(t, types.StrengthHigh, sig.Strength)
	assert.Equal(t, "Acme Corp", sig.Company)
	assert.Equal(t, "2026-01-28T10:00:00Z", sig.Date)
	assert.Equal(t, "https://news.example.com/acme", sig.Source)
	assert.Equal(t, "icp_9", sig.Details["icp_id"])

	require.Len(t, enriched.Entities, 2)
	assert.Equal(t, types.EntityCompany, enriched.Entities[0].EntityType)
	assert.Equal(t, types.EntityPerson, enriched.Entities[1].EntityType)
	assert.Contains(t, string(enriched.Raw), `"id":"sig_001"`)
}

func TestFetchSignal_AbsentAndError(t *testing.T) {
	client := NewClient(newMockSource(), nil)

	enriched, err := client.FetchSignal(context.Background(), "sig_unknown")
	require.NoError(t, err)
	assert.Nil(t, enriched)

	_, err = client.FetchSignal(context.Background(), "sig_bad")
	assert.ErrorContains(t, err, "upstream unavailable")
}

func TestMapSignal_Defaults(t *testing.T) {
	sig := MapSignal(&RemoteSignal{ID: "s", Strength: "extreme"}, nil)

	assert.Equal(t, types.StrengthMedium, sig.Strength)
	assert.Equal(t, types.SignalOther, sig.Type)
	assert.Equal(t, types.UnknownCompany, sig.Company)
	assert.Empty(t, sig.Source)
	assert.Nil(t, sig.Details)
}

func TestMapSignal_PersonCompanyFallback(t *testing.T) {
	entities := types.Entities{
		{EntityType: types.EntityPerson, Data: map[string]any{"company_name": "Person Co"}},
	}
	sig := MapSignal(&RemoteSignal{ID: "s"}, entities)
	assert.Equal(t, "Person Co", sig.Company)
}

func TestProcessWebhook(t *testing.T) {
	client := NewClient(newMockSource(), nil)
	payload := []byte(`{"data":{"resources_created":{"signals_created":["sig_002","sig_bad","sig_unknown","sig_001"]}}}`)

	signals := client.ProcessWebhook(context.Background(), payload)
	require.Len(t, signals, 2)
	assert.Equal(t, "sig_002", signals[0].Signal.ID)
	assert.Equal(t, "sig_001", signals[1].Signal.ID)
}

func TestProcessWebhook_Empty(t *testing.T) {
	source := newMockSource()
	client := NewClient(source, nil)

	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty list", payload: `{"data":{"resources_created":{"signals_created":[]}}}`},
		{name: "missing field", payload: `{"data":{}}`},
		{name: "malformed", payload: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := client.ProcessWebhook(context.Background(), []byte(tt.payload))
			assert.NotNil(t, signals)
			assert.Empty(t, signals)
		})
	}
	assert.Empty(t, source.calls)
}

func TestWebhookPayload_SignalIDs(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected []string
	}{
		{
			name:     "nested",
			payload:  `{"data":{"resources_created":{"signals_created":["a","b"]}}}`,
			expected: []string{"a", "b"},
		},
		{
			name:     "top level",
			payload:  `{"resources_created":{"signals_created":["c"]}}`,
			expected: []string{"c"},
		},
		{
			name:     "objects and duplicates",
			payload:  `{"data":{"resources_created":{"signals_created":[{"id":"a"}," ","a","b"]}}}`,
			expected: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseWebhook([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.SignalIDs())
		})
	}
}
