package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/config"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/hcl"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/orchestrator"
	"github.com/vk/taskgrid/internal/testutil"
	"github.com/vk/taskgrid/modules/transform"
)

const projectHCL = `
data_node "greeting" {
  default = "hello"
}
data_node "loud" {}
data_node "shown" {}

task "shout" {
  function = "transform.upper"
  inputs   = ["greeting"]
  outputs  = ["loud"]
}

task "show" {
  function = "print"
  inputs   = ["loud"]
  outputs  = ["shown"]
}

scenario "pipeline" {
  tasks = ["shout", "show"]

  sequence "only_shout" {
    tasks = ["shout"]
  }
}
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.hcl"), []byte(content), 0o600))
	return dir
}

// setupApp builds an app over content with debug logs captured the way the
// rest of the test suite does.
func setupApp(t *testing.T, content string, mutate func(*Config)) (*App, *bytes.Buffer) {
	t.Helper()
	_, logs := testutil.Context(t)
	cfg, err := NewConfig(Config{
		Paths:     []string{writeProject(t, content)},
		Scenario:  "pipeline",
		LogFormat: "text",
		LogLevel:  "debug",
		LogOutput: logs,
	})
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}

	out := &bytes.Buffer{}
	a, err := NewApp(context.Background(), out, cfg, hcl.NewLoader())
	require.NoError(t, err)
	return a, out
}

func TestRun_Development(t *testing.T) {
	store := filepath.Join(t.TempDir(), "records")
	a, out := setupApp(t, projectHCL, func(c *Config) { c.StorePath = store })
	require.Equal(t, config.ModeDevelopment, a.Execution().Mode)

	require.NoError(t, a.Run(context.Background()))

	report := out.String()
	assert.Contains(t, report, "HELLO\n", "print module output")
	assert.Contains(t, report, "COMPLETED")
	assert.Contains(t, report, "shout")
	assert.Contains(t, report, "show")

	var records bytes.Buffer
	require.NoError(t, ListRecords(context.Background(), store, &records))
	assert.Contains(t, records.String(), "pipeline")
	assert.Contains(t, records.String(), "shout")
	assert.Contains(t, records.String(), string(job.StatusCompleted))
	assert.Contains(t, records.String(), "force=false,mode=development")
}

func TestRun_Standalone(t *testing.T) {
	a, out := setupApp(t, projectHCL, func(c *Config) {
		c.Mode = config.ModeStandalone
		c.Workers = 3
		c.Timeout = 30 * time.Second
	})
	assert.Equal(t, config.Execution{Mode: config.ModeStandalone, MaxWorkers: 3}, a.Execution())

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "HELLO")
}

func TestRun_StandaloneWorkerSeesSnapshot(t *testing.T) {
	project := `
data_node "worker" {}
data_node "shown" {}
task "whoami" {
  function = "env_vars.worker"
  outputs  = ["worker"]
}
task "show" {
  function = "print"
  inputs   = ["worker"]
  outputs  = ["shown"]
}
scenario "pipeline" { tasks = ["whoami", "show"] }
`
	a, out := setupApp(t, project, func(c *Config) {
		c.Mode = config.ModeStandalone
		c.Workers = 2
		c.Timeout = 30 * time.Second
	})

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), `target = "pipeline"`)
	assert.Contains(t, out.String(), `mode = "standalone"`)
	assert.Contains(t, out.String(), `max_workers = "2"`)
}

func TestRun_Sequence(t *testing.T) {
	a, out := setupApp(t, projectHCL, func(c *Config) { c.Sequence = "only_shout" })

	require.NoError(t, a.Run(context.Background()))
	assert.NotContains(t, out.String(), "HELLO", "print is not part of the sequence")
	assert.Contains(t, out.String(), "shout")
}

func TestRun_FailureIsReported(t *testing.T) {
	failing := `
data_node "n" { default = 42 }
data_node "out" {}
data_node "shown" {}
task "shout" {
  function = "transform.upper"
  inputs   = ["n"]
  outputs  = ["out"]
}
task "show" {
  function = "print"
  inputs   = ["out"]
  outputs  = ["shown"]
}
scenario "pipeline" { tasks = ["shout", "show"] }
`
	a, out := setupApp(t, failing, nil)

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, cerrors.ErrRunFailed.Equal(err))
	assert.Contains(t, out.String(), string(job.StatusFailed))
	assert.Contains(t, out.String(), string(job.StatusAbandoned))
}

func TestRun_StandaloneTimeout(t *testing.T) {
	stuck := `
data_node "never" {}
data_node "out" {}
task "wait" {
  function = "print"
  inputs   = ["never"]
  outputs  = ["out"]
}
scenario "pipeline" { tasks = ["wait"] }
`
	a, _ := setupApp(t, stuck, func(c *Config) {
		c.Mode = config.ModeStandalone
		c.Timeout = 50 * time.Millisecond
	})

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, cerrors.ErrRunTimeout.Equal(err))
}

func TestRun_TaskAndMissingTarget(t *testing.T) {
	a, out := setupApp(t, projectHCL, func(c *Config) {
		c.Scenario = ""
		c.Task = "shout"
	})
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "shout")

	a, _ = setupApp(t, projectHCL, func(c *Config) { c.Scenario = "" })
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, cerrors.ErrInvalidConfig.Equal(err))
}

func TestNewApp_Errors(t *testing.T) {
	_, logs := testutil.Context(t)
	unknown := writeProject(t, `task "t" { function = "does.not.exist" }`)
	cfg := &Config{Paths: []string{unknown}, LogFormat: "text", LogLevel: "info", LogOutput: logs}

	_, err := NewApp(context.Background(), &bytes.Buffer{}, cfg, hcl.NewLoader())
	require.Error(t, err)
	assert.True(t, cerrors.ErrInvalidConfig.Equal(err))
	assert.Contains(t, err.Error(), "does.not.exist")

	badExec := writeProject(t, `execution { max_workers = 0 }`)
	cfg.Paths = []string{badExec}
	_, err = NewApp(context.Background(), &bytes.Buffer{}, cfg, hcl.NewLoader())
	require.Error(t, err)
	assert.True(t, cerrors.ErrInvalidConfig.Equal(err))

	// Only the transform module is available here, so print is unknown.
	cfg.Paths = []string{writeProject(t, projectHCL)}
	_, err = NewApp(context.Background(), &bytes.Buffer{}, cfg, hcl.NewLoader(), &transform.Module{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "function 'print' is not registered")
}

func TestNewConfig(t *testing.T) {
	base := func() Config {
		return Config{Paths: []string{"."}, LogFormat: "json", LogLevel: "info"}
	}
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no paths", mutate: func(c *Config) { c.Paths = nil }, wantErr: true},
		{name: "empty path", mutate: func(c *Config) { c.Paths = []string{""} }, wantErr: true},
		{name: "bad mode", mutate: func(c *Config) { c.Mode = "cluster" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.StatusPort = 70000 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
		{name: "sequence without scenario", mutate: func(c *Config) { c.Sequence = "s" }, wantErr: true},
		{name: "scenario and task", mutate: func(c *Config) { c.Scenario, c.Task = "s", "t" }, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			_, err := NewConfig(cfg)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, cerrors.ErrInvalidConfig.Equal(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGraphAndSummary(t *testing.T) {
	a, _ := setupApp(t, projectHCL, nil)

	var g bytes.Buffer
	require.NoError(t, a.Graph(&g))
	assert.Contains(t, g.String(), "SCENARIO pipeline")
	assert.Contains(t, g.String(), "generation 0: data greeting")
	assert.Contains(t, g.String(), "generation 1: task shout")
	assert.Contains(t, g.String(), "generation 4: data shown")

	var s bytes.Buffer
	a.Summary(&s)
	assert.Contains(t, s.String(), "3 data nodes, 2 tasks, 1 scenarios")
	assert.Contains(t, s.String(), "sequences [only_shout]")
}

func TestStatusRoutes(t *testing.T) {
	ctx, _ := testutil.Context(t)
	a, _ := setupApp(t, projectHCL, nil)

	metrics := prometheus.NewRegistry()
	orchestrator.InitMetrics(metrics)
	orc, err := orchestrator.New(ctx, config.DefaultExecution())
	require.NoError(t, err)
	defer orc.Close()
	sub, err := orc.SubmitTask(ctx, a.entities.Tasks["shout"])
	require.NoError(t, err)
	jobID := sub.Jobs()[0].ID()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, orc, metrics)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = get("/jobs/" + jobID)
	require.Equal(t, http.StatusOK, w.Code)
	var rec job.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, job.StatusCompleted, rec.Status)
	assert.Equal(t, "shout", rec.TaskConfigID)

	w = get("/jobs")
	require.Equal(t, http.StatusOK, w.Code)
	var recs []job.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	assert.Len(t, recs, 1)

	assert.Equal(t, http.StatusNotFound, get("/jobs/JOB_missing").Code)
	assert.Equal(t, http.StatusOK, get("/submissions/"+sub.ID()).Code)
	assert.Equal(t, http.StatusOK, get("/submissions").Code)
	assert.Equal(t, http.StatusNotFound, get("/submissions/nope").Code)

	w = get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "taskgrid_orchestrator_run_queue_length")
}
