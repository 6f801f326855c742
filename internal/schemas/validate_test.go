package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Outreach(t *testing.T) {
	tests := []struct {
		name       string
		document   string
		wantFields []string
		wantCount  int
	}{
		{
			name: "complete bundle",
			document: `{
				"email": {"subject": "Congrats", "body": "Hello"},
				"linkedin": "post",
				"twitter": "tweet",
				"callPoints": ["a", "b"],
				"summary": "recap"
			}`,
		},
		{
			name:      "missing fields",
			document:  `{"email": {"subject": "Congrats"}, "linkedin": "post"}`,
			wantCount: 4,
		},
		{
			name:       "wrong type",
			document:   `{"email": {"subject": "s", "body": "b"}, "linkedin": "p", "twitter": "t", "callPoints": "call them", "summary": "s"}`,
			wantFields: []string{"callPoints"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Outreach, []byte(tt.document))
			if tt.wantFields == nil && tt.wantCount == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			if tt.wantCount > 0 {
				assert.Len(t, verr.Errors, tt.wantCount)
				return
			}
			assert.ElementsMatch(t, tt.wantFields, verr.Fields())
		})
	}
}

func TestValidate_NotJSON(t *testing.T) {
	err := Validate(Outreach, []byte(`{not json`))
	require.Error(t, err)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", []byte(`{}`))

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing.schema.json", loadErr.Name)
}
