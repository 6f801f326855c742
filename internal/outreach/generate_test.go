package outreach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonathan/signal-outreach/internal/llm"
	"github.com/jonathan/signal-outreach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, req llm.Request) (string, error)
	calls            []llm.Request
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, req llm.Request) (string, error) {
	m.calls = append(m.calls, req)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, req)
	}
	return "", nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

const fullResponse = `{
  "email": {"subject": "Congrats on the Series B", "body": "Hi Dana,\n\nSaw the news."},
  "linkedin": "Congrats to the Acme team!",
  "twitter": "Big week for @acme",
  "callPoints": ["Series B", "hiring plans", "  "],
  "summary": "Acme raised a Series B."
}`

func testSignal() types.Signal {
	return types.Signal{
		ID:       "sig-1",
		Type:     types.SignalFunding,
		Summary:  "Acme raised a $40M Series B",
		Company:  "Acme",
		Strength: types.StrengthHigh,
		Date:     "2025-01-10",
	}
}

func testEntities() types.Entities {
	return types.Entities{
		{EntityType: types.EntityCompany, Data: map[string]any{"name": "Acme", "industry": "Logistics"}},
		{EntityType: types.EntityPerson, Data: map[string]any{"name": "Dana Lee", "title": "CTO"}},
	}
}

func TestGenerate_Success(t *testing.T) {
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return fullResponse, nil
		},
	}
	gen := NewGenerator(mock, nil)

	out, err := gen.Generate(context.Background(), testSignal(), testEntities())
	require.NoError(t, err)

	assert.Equal(t, "Congrats on the Series B", out.Email.Subject)
	assert.Contains(t, out.Email.Body, "Saw the news.")
	assert.Equal(t, "Congrats to the Acme team!", out.LinkedIn)
	assert.Equal(t, "Big week for @acme", out.Twitter)
	assert.Equal(t, []string{"Series B", "hiring plans"}, out.CallPoints)
	assert.Equal(t, "Acme raised a Series B.", out.Summary)

	require.Len(t, mock.calls, 1)
	req := mock.calls[0]
	assert.Equal(t, llm.TierStandard, req.Tier)
	assert.Contains(t, req.System, "Ask Dana Lee for a short 15-minute call this week.")
	assert.Contains(t, req.Prompt, "Acme raised a $40M Series B")
	assert.Contains(t, req.Prompt, "Logistics")
}

func TestGenerate_MissingFieldsDefaultToEmpty(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		subject    string
		callPoints []string
	}{
		{name: "missing fields", response: `{"email": {"subject": "Hello"}}`, subject: "Hello", callPoints: []string{}},
		{name: "call points as a string", response: `{"email": {"subject": "Hello"}, "callPoints": "call them"}`, subject: "Hello", callPoints: []string{}},
		{name: "non-string call point", response: `{"email": {"subject": "Hello"}, "callPoints": ["a", 3]}`, subject: "Hello", callPoints: []string{"a"}},
		{name: "email not an object", response: `{"email": "hi", "summary": 42}`, callPoints: []string{}},
		{name: "null document", response: `null`, callPoints: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockLLMClient{
				GenerateJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
					return tt.response, nil
				},
			}

			out, err := NewGenerator(mock, nil).Generate(context.Background(), testSignal(), nil)
			require.NoError(t, err)

			assert.Equal(t, tt.subject, out.Email.Subject)
			assert.Empty(t, out.Email.Body)
			assert.Empty(t, out.LinkedIn)
			assert.Empty(t, out.Twitter)
			assert.Equal(t, tt.callPoints, out.CallPoints)
			assert.Empty(t, out.Summary)
		})
	}
}

func TestGenerate_CodeFencedResponse(t *testing.T) {
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return "```json\n" + fullResponse + "\n```", nil
		},
	}

	out, err := NewGenerator(mock, nil).Generate(context.Background(), testSignal(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Congrats on the Series B", out.Email.Subject)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		contains string
		reason   string
	}{
		{name: "empty response", response: "   ", contains: "empty completion response", reason: "empty completion response"},
		{name: "malformed JSON", response: "not json at all", contains: "not valid JSON", reason: "completion response is not valid JSON"},
		{name: "JSON array", response: `["a"]`, contains: "not a JSON object", reason: "completion response is not a JSON object"},
		{name: "call error", err: errors.New("quota exceeded"), contains: "quota exceeded", reason: "quota exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockLLMClient{
				GenerateJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
					return tt.response, tt.err
				},
			}

			_, err := NewGenerator(mock, nil).Generate(context.Background(), testSignal(), nil)
			require.Error(t, err)

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, "sig-1", genErr.SignalID)
			assert.Equal(t, tt.reason, genErr.Reason)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestGenerate_WithTier(t *testing.T) {
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return fullResponse, nil
		},
	}
	gen := NewGenerator(mock, nil).WithTier(llm.TierAdvanced)

	_, err := gen.Generate(context.Background(), testSignal(), nil)
	require.NoError(t, err)
	require.Len(t, mock.calls, 1)
	assert.Equal(t, llm.TierAdvanced, mock.calls[0].Tier)
}

func TestBuildRequest_NoEntities(t *testing.T) {
	req := BuildRequest(testSignal(), nil)

	assert.Contains(t, req.System, "Invite the reader to reply to learn more.")
	assert.Contains(t, req.Prompt, "No additional company or contact context available.")
	assert.False(t, strings.Contains(req.System, "{{."), "system prompt has unfilled placeholders")
	assert.False(t, strings.Contains(req.Prompt, "{{."), "user prompt has unfilled placeholders")
}
