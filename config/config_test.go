package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmesh/deskmesh/capability"
	"github.com/deskmesh/deskmesh/retry"
	"github.com/deskmesh/deskmesh/worker"
)

const sampleConfig = `
root: coordinator

workers:
  - name: coordinator
    role: front door
    description: Routes requests
    instructions:
      - Route to the right specialist.
    team: [mail-worker]
    history_window: 10

  - name: mail-worker
    role: email operator
    capabilities: [mail]
    history_window: 5
    retry_budget: 2

history:
  backend: sqlite
  path: /tmp/history.db

oracle:
  provider: openai
  model: gpt-4o-mini
  api_key: from-file

retry:
  max_attempts: 2
  initial_interval: 100ms
  max_interval: 1s
  attempt_timeout: 10s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deskmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testRegistry(t *testing.T) *capability.Registry {
	t.Helper()
	reg := capability.NewRegistry()
	mail := capability.NewFunc("mail", "Send email").
		Handle(capability.Action{Name: "send_email"}, func(context.Context, map[string]any) (any, error) {
			return "sent", nil
		})
	require.NoError(t, reg.Register(mail))
	return reg
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "coordinator", cfg.Root)
	require.Len(t, cfg.Workers, 2)
	assert.Equal(t, []string{"mail-worker"}, cfg.Workers[0].Team)
	assert.Equal(t, []string{"mail"}, cfg.Workers[1].Capabilities)
	assert.Equal(t, 2, cfg.Workers[1].RetryBudget)

	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, "from-file", cfg.Oracle.APIKey)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "workers:\n  - name: solo\n"))
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.History.Backend)
	assert.Equal(t, "anthropic", cfg.Oracle.Provider)
	assert.Equal(t, worker.DefaultRetryBudget, cfg.Retry.MaxAttempts)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DESKMESH_ORACLE_API_KEY", "from-env")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Oracle.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "workers: []\n"))
	assert.Error(t, err)
}

func TestBuildTree(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	root, err := cfg.BuildTree(testRegistry(t))
	require.NoError(t, err)

	assert.Equal(t, "coordinator", root.Name())
	assert.Equal(t, 10, root.HistoryWindow())

	mail, ok := root.Child("mail-worker")
	require.True(t, ok)
	assert.Equal(t, 5, mail.HistoryWindow())
	assert.Equal(t, 2, mail.RetryBudget())

	_, ok = mail.Capability("mail")
	assert.True(t, ok)

	require.NoError(t, worker.Validate(root))
}

func TestBuildTree_RootDefaultsToFirstWorker(t *testing.T) {
	cfg := &Config{Workers: []WorkerConfig{{Name: "first"}, {Name: "second"}}}

	root, err := cfg.BuildTree(capability.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "first", root.Name())
}

func TestBuildTree_Errors(t *testing.T) {
	reg := testRegistry(t)

	cfg := &Config{Workers: []WorkerConfig{{Name: "a", Capabilities: []string{"ghost"}}}}
	_, err := cfg.BuildTree(reg)
	assert.Error(t, err)

	cfg = &Config{Workers: []WorkerConfig{{Name: "a", Team: []string{"ghost"}}}}
	_, err = cfg.BuildTree(reg)
	assert.Error(t, err)

	cfg = &Config{Workers: []WorkerConfig{{Name: "a"}, {Name: "a"}}}
	_, err = cfg.BuildTree(reg)
	assert.Error(t, err)

	cfg = &Config{Root: "ghost", Workers: []WorkerConfig{{Name: "a"}}}
	_, err = cfg.BuildTree(reg)
	assert.Error(t, err)
}

func TestBuildTree_CyclicTeamAllowed(t *testing.T) {
	cfg := &Config{Workers: []WorkerConfig{
		{Name: "a", Team: []string{"b"}},
		{Name: "b", Team: []string{"a"}},
	}}

	root, err := cfg.BuildTree(capability.NewRegistry())
	require.NoError(t, err)

	b, ok := root.Child("b")
	require.True(t, ok)
	_, ok = b.Child("a")
	assert.True(t, ok)
}

func TestRetryConfig_Apply(t *testing.T) {
	opts := retry.Options{
		MaxAttempts:     retry.DefaultMaxAttempts,
		InitialInterval: 500 * time.Millisecond,
	}

	rc := RetryConfig{MaxAttempts: 5, InitialInterval: "250ms", AttemptTimeout: "1m"}
	require.NoError(t, rc.Apply(&opts))
	assert.Equal(t, 5, opts.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, opts.InitialInterval)
	assert.Equal(t, time.Minute, opts.AttemptTimeout)

	// Empty fields leave existing values untouched.
	require.NoError(t, RetryConfig{}.Apply(&opts))
	assert.Equal(t, 5, opts.MaxAttempts)

	assert.Error(t, RetryConfig{MaxInterval: "soon"}.Apply(&opts))
}
