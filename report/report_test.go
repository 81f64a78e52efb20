package report

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dcshock/runstate/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_Plain(t *testing.T) {
	var buf bytes.Buffer
	st := state.New(nil, state.WithSink(NewConsole(&buf, false)))
	st.Advise("cache miss")
	st.Fail("disk full")

	v := st.CheckErrors(state.ScopeStage)

	require.True(t, v.Aborted())
	want := strings.Join([]string{state.ReportHeader, "  cache miss", "CRITICAL: disk full", state.AbortNotice}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestConsole_BuffersUntilFlush(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	require.NoError(t, c.WriteLine("hello"))
	assert.Zero(t, buf.Len())
	require.NoError(t, c.Flush())
	assert.Equal(t, "hello\n", buf.String())
}

func TestConsole_StyledKeepsText(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	require.NoError(t, c.WriteLine("CRITICAL: disk full"))
	require.NoError(t, c.WriteLine("  cache miss"))
	require.NoError(t, c.Flush())

	out := buf.String()
	assert.Contains(t, out, "CRITICAL: disk full")
	assert.Contains(t, out, "  cache miss\n")
}

func TestLogSink_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st := state.New(nil, state.WithSink(NewLogSink(logger)))
	st.Advise("cache miss")
	st.Fail("disk full")

	st.CheckErrors(state.ScopeStage)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "level=INFO")
	assert.Contains(t, lines[1], "level=WARN")
	assert.Contains(t, lines[1], `message="cache miss"`)
	assert.Contains(t, lines[2], "level=ERROR")
	assert.Contains(t, lines[2], `message="disk full"`)
	assert.Contains(t, lines[3], "Aborting")
}

type errSink struct{ err error }

func (s errSink) WriteLine(string) error { return s.err }
func (s errSink) Flush() error           { return s.err }

func TestTee(t *testing.T) {
	var a, b bytes.Buffer
	errBroken := errors.New("broken pipe")
	sink := Tee(state.NewWriterSink(&a), errSink{err: errBroken}, state.NewWriterSink(&b))

	assert.ErrorIs(t, sink.WriteLine("line"), errBroken)
	assert.ErrorIs(t, sink.Flush(), errBroken)
	assert.Equal(t, "line\n", a.String())
	assert.Equal(t, "line\n", b.String())
}
