package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/signal-outreach/internal/config"
	"github.com/jonathan/signal-outreach/internal/llm"
	"github.com/jonathan/signal-outreach/internal/server"
	"github.com/jonathan/signal-outreach/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "cli-test-secret-at-least-16"

// isolateEnv pins the variables the commands read so a developer's
// environment cannot leak into the assertions.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SIGNALS_API_URL", "SANDBOX_API_URL", "GEMINI_API_KEY", "ANTHROPIC_API_KEY",
		"LLM_MODEL", "REDIS_ADDRESS", "DATABASE_URL", "JWT_SECRET", "JWT_EXPIRATION_HOURS", "PORT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")
}

// resetFlags restores every flag to its default; cobra keeps parsed values
// and the Changed bit between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseSignalFile(t *testing.T) {
	t.Run("wrapped", func(t *testing.T) {
		in, err := parseSignalFile([]byte(`{"signal":{"id":"sig_1","company":"Acme"},"entities":[{"entity_type":"company","data":{"name":"Acme"}}],"raw":{"x":1}}`))
		require.NoError(t, err)
		require.NotNil(t, in.Signal)
		assert.Equal(t, "sig_1", in.Signal.ID)
		require.Len(t, in.Entities, 1)
		assert.Equal(t, types.EntityCompany, in.Entities[0].EntityType)
		assert.JSONEq(t, `{"x":1}`, string(in.Raw))
	})

	t.Run("bare signal keeps the file as raw", func(t *testing.T) {
		data := []byte(`{"id":"sig_2","type":"funding","company":"Globex"}`)
		in, err := parseSignalFile(data)
		require.NoError(t, err)
		assert.Equal(t, "sig_2", in.Signal.ID)
		assert.Equal(t, types.SignalFunding, in.Signal.Type)
		assert.Empty(t, in.Entities)
		assert.Equal(t, data, []byte(in.Raw))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := parseSignalFile([]byte(`{"signal":{"company":"Acme"}}`))
		assert.EqualError(t, err, "signal id is required")

		_, err = parseSignalFile([]byte(`not json`))
		assert.Error(t, err)
	})
}

func TestFilterByStatus(t *testing.T) {
	records := []types.StoredSignal{
		{Signal: types.Signal{ID: "a"}, Status: types.StatusGenerated},
		{Signal: types.Signal{ID: "b"}, Status: types.StatusError},
	}

	all, err := filterByStatus(records, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := filterByStatus(records, "error")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].Signal.ID)

	_, err = filterByStatus(records, "pending")
	assert.Error(t, err)
}

func TestLLMConfig(t *testing.T) {
	c := llmConfig(config.Config{LLMProvider: "anthropic"})
	assert.Equal(t, llm.ProviderAnthropic, c.Provider)

	c = llmConfig(config.Config{LLMProvider: "gemini", Model: "gemini-custom"})
	assert.Equal(t, llm.ProviderGemini, c.Provider)
	assert.Equal(t, "gemini-custom", c.GetModel(llm.TierStandard))
	assert.Equal(t, llm.DefaultGeminiConfig().GetModel(llm.TierLite), c.GetModel(llm.TierLite))
}

func TestLandingOptions(t *testing.T) {
	opts := landingOptions(config.Config{PollInterval: time.Second, PollTimeout: time.Minute})
	assert.Equal(t, time.Second, opts.PollInterval)
	assert.Equal(t, time.Minute, opts.PollTimeout)

	defaults := landingOptions(config.Config{})
	assert.Equal(t, 3*time.Second, defaults.PollInterval)
	assert.Equal(t, 180*time.Second, defaults.PollTimeout)
}

func TestJWTConfig_PrefersFileSecret(t *testing.T) {
	isolateEnv(t)

	cfg, err := jwtConfig(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = jwtConfig(config.Config{JWTSecret: testSecret})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, testSecret, cfg.Secret)
}

func TestStoreConfig(t *testing.T) {
	sc := storeConfig(config.Config{StoreBackend: "redis", RedisAddress: "localhost:6379", RedisPassword: "pw"})
	assert.Equal(t, "redis", sc.Backend)
	assert.Equal(t, "localhost:6379", sc.Redis.Address)
	assert.Equal(t, "pw", sc.Redis.Password)
}

func TestTokenCommand(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	out, err := execute(t, "token", "--operator", "ops", "--ttl", "1h")
	require.NoError(t, err)

	jwtCfg, err := config.NewJWTConfig(os.Getenv)
	require.NoError(t, err)
	claims, err := server.NewJWTService(jwtCfg).ValidateToken(string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.GetOperator())
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "token", "--operator", "ops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestListCommand_EmptyStore(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No signals stored")

	out, err = execute(t, "list", "--json")
	require.NoError(t, err)
	var resp server.ListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Signals)
}

func TestDeleteCommand_NotFound(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "delete", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signal not found: missing")
}

func TestProcessCommand_RequiresAPIKey(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "signal.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"signal":{"id":"sig_1"}}`), 0o600))

	_, err := execute(t, "process", "--signal", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestProcessCommand_InvalidWebhook(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "webhook.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))

	_, err := execute(t, "process", "--webhook", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}
