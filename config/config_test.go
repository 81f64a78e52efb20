package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dcshock/runstate/pipeline"
	"github.com/dcshock/runstate/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func double() pipeline.StageFunc {
	return pipeline.MapItems(func(ctx context.Context, n int) (int, error) { return n * 2, nil })
}

func newState(seed ...any) *state.State {
	return state.New(seed, state.WithSink(state.NewWriterSink(&strings.Builder{})))
}

func TestRegistry_RegisterGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register("id", pipeline.Identity())
	s, ok := reg.Get("id")
	require.True(t, ok)
	assert.NotNil(t, s)
	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_MustGet_Panic(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() { reg.MustGet("nope") })
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	reg.Register("b", pipeline.Identity())
	reg.Register("a", pipeline.Identity())
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}

func TestParsePipelineConfig_Simple(t *testing.T) {
	yaml := `
name: test-pipeline
stages:
  - fetch
  - parse
  - validate
`
	cfg, err := ParsePipelineConfig([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, "test-pipeline", cfg.Name)
	assert.Equal(t, []StageRef{{Name: "fetch"}, {Name: "parse"}, {Name: "validate"}}, cfg.Stages)
}

func TestParsePipelineConfig_WithOptions(t *testing.T) {
	yaml := `
name: with-options
stages:
  - fetch
  - name: parse
    advisory: true
    timeout: 60s
  - validate
observers: [log]
`
	cfg, err := ParsePipelineConfig([]byte(yaml))
	require.NoError(t, err)
	require.Len(t, cfg.Stages, 3)
	s1 := cfg.Stages[1]
	assert.Equal(t, "parse", s1.Name)
	assert.True(t, s1.Advisory)
	assert.Equal(t, 60*time.Second, s1.Timeout.Duration())
	assert.Equal(t, []string{"log"}, cfg.Observers)
}

func TestDuration_Unmarshal(t *testing.T) {
	var s struct {
		Timeout Duration `yaml:"timeout"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("timeout: 30s"), &s))
	assert.Equal(t, 30*time.Second, s.Timeout.Duration())
	assert.Error(t, yaml.Unmarshal([]byte("timeout: soon"), &s), "invalid duration")
}

func TestBuildPipeline(t *testing.T) {
	reg := NewRegistry()
	reg.Register("double", double())
	reg.Register("id", pipeline.Identity())

	cfg := &PipelineConfig{
		Name:   "math",
		Stages: []StageRef{{Name: "id"}, {Name: "double"}},
	}
	p, err := BuildPipeline(reg, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "math", p.Name)
	require.Len(t, p.Stages, 2)
	res, err := p.Run(context.Background(), newState(21), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{42}, res.Output)
}

func TestBuildPipeline_UnknownStage(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", pipeline.Identity())
	cfg := &PipelineConfig{Name: "x", Stages: []StageRef{{Name: "a"}, {Name: "not-registered"}}}
	_, err := BuildPipeline(reg, cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-registered")
}

func TestBuildPipeline_AdvisoryStage(t *testing.T) {
	reg := NewRegistry()
	reg.Register("flaky", func(ctx context.Context, st *state.State) error {
		st.AddOutput(st.Input()...)
		return errors.New("transient")
	})
	cfg := &PipelineConfig{Name: "x", Stages: []StageRef{{Name: "flaky", Advisory: true}}}
	p, err := BuildPipeline(reg, cfg, nil)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), newState(1), nil)
	require.NoError(t, err, "advisory stage should not abort")
	require.Len(t, res.Errors, 1)
	assert.False(t, res.Errors[0].Critical)
}

func TestBuildPipeline_Timeout(t *testing.T) {
	reg := NewRegistry()
	reg.Register("slow", func(ctx context.Context, st *state.State) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cfg := &PipelineConfig{Name: "x", Stages: []StageRef{{Name: "slow", Timeout: Duration(10 * time.Millisecond)}}}
	p, err := BuildPipeline(reg, cfg, nil)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), newState(), nil)
	require.True(t, state.IsAborted(err), "expected abort on timeout, got %v", err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestBuildPipeline_TimeoutOnAdvisoryStage(t *testing.T) {
	reg := NewRegistry()
	reg.Register("slow", func(ctx context.Context, st *state.State) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cfg := &PipelineConfig{Name: "x", Stages: []StageRef{{Name: "slow", Advisory: true, Timeout: Duration(10 * time.Millisecond)}}}
	p, err := BuildPipeline(reg, cfg, nil)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), newState(), nil)
	require.NoError(t, err, "a stage timeout on an advisory stage is advisory")
	require.Len(t, res.Errors, 1)
	assert.False(t, res.Errors[0].Critical)
}

func TestParseMultiPipelineConfig(t *testing.T) {
	yaml := `
pipelines:
  ingest:
    name: ingest
    stages: [fetch, parse]
  notify:
    stages: [validate, send]
`
	multi, err := ParseMultiPipelineConfig([]byte(yaml))
	require.NoError(t, err)
	require.Len(t, multi.Pipelines, 2)
	assert.Equal(t, "ingest", multi.Pipelines["ingest"].Name)
	assert.Len(t, multi.Pipelines["ingest"].Stages, 2)
	assert.Empty(t, multi.Pipelines["notify"].Name, "notify name should be empty in raw config")
	assert.Equal(t, []string{"ingest", "notify"}, multi.Names())
}

func TestBuildAllPipelines(t *testing.T) {
	reg := NewRegistry()
	reg.Register("id", pipeline.Identity())
	reg.Register("double", double())

	yaml := `
pipelines:
  math:
    name: math
    stages: [id, double]
  copy:
    stages: [id]
`
	multi, err := ParseMultiPipelineConfig([]byte(yaml))
	require.NoError(t, err)
	pipelines, err := BuildAllPipelines(reg, multi, nil)
	require.NoError(t, err)
	require.Len(t, pipelines, 2)
	// "copy" had no name in YAML; BuildAllPipelines uses map key
	require.NotNil(t, pipelines["copy"])
	assert.Equal(t, "copy", pipelines["copy"].Name)
	res, err := pipelines["math"].Run(context.Background(), newState(10), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{20}, res.Output)
}

func TestBuildObserver(t *testing.T) {
	var seen []string
	observers := NewObserverRegistry()
	observers.Register("a", &recordingObserver{name: "a", seen: &seen})
	observers.Register("b", &recordingObserver{name: "b", seen: &seen})
	opts := &BuildOptions{ObserverRegistry: observers}

	cfg := &PipelineConfig{Name: "x", Stages: []StageRef{{Name: "id"}}, Observers: []string{"b", "a"}}
	obs, err := BuildObserver(cfg, opts)
	require.NoError(t, err)
	reg := NewRegistry()
	reg.Register("id", pipeline.Identity())
	p, err := BuildPipeline(reg, cfg, opts)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), newState(), &pipeline.RunOptions{Observer: obs})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, seen, "observer order")

	cfg.Observers = []string{"missing"}
	_, err = BuildObserver(cfg, opts)
	assert.Error(t, err, "unregistered observer")

	obs, err = BuildObserver(&PipelineConfig{}, opts)
	assert.NoError(t, err)
	assert.Nil(t, obs)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"single", "name: a\nstages: [fetch, {name: parse, advisory: true, timeout: 5s}]\n", false},
		{"multi", "pipelines:\n  a:\n    stages: [fetch]\n  b:\n    stages: []\n", false},
		{"missing stages", "name: a\n", true},
		{"unknown key", "name: a\nstages: [x]\nretry: fixed\n", true},
		{"bad stage option", "stages:\n  - name: x\n    retry: exponential\n", true},
		{"timeout not a duration", "stages:\n  - name: x\n    timeout: 60\n", true},
		{"empty pipelines", "pipelines: {}\n", true},
		{"empty document", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, err := Validate([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.wantErr, len(violations) > 0, "violations = %v", violations)
		})
	}
}

func TestValidate_NotYAML(t *testing.T) {
	_, err := Validate([]byte("stages: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_Single(t *testing.T) {
	multi, err := Load([]byte("stages: [fetch]\n"))
	require.NoError(t, err)
	require.Contains(t, multi.Pipelines, "default")
	assert.Len(t, multi.Pipelines["default"].Stages, 1)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipelines:\n  ingest:\n    stages: [fetch]\n"), 0o644))
	multi, err := LoadFile(path)
	require.NoError(t, err)
	assert.Contains(t, multi.Pipelines, "ingest")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: x\n"), 0o644))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "missing file")
}

type recordingObserver struct {
	name string
	seen *[]string
}

func (r *recordingObserver) BeforePipeline(ctx context.Context, runID, name string, seed []any) error {
	*r.seen = append(*r.seen, r.name)
	return nil
}
func (r *recordingObserver) AfterPipeline(ctx context.Context, runID string, result *pipeline.Result, err error) error {
	return nil
}
func (r *recordingObserver) BeforeStage(ctx context.Context, runID string, stage state.StageRef, input []any) error {
	return nil
}
func (r *recordingObserver) AfterStage(ctx context.Context, runID string, stage state.StageRef, output []any, errs []state.ErrorRecord, duration time.Duration) error {
	return nil
}
