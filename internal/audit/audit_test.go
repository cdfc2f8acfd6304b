package audit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
	panics  bool
	block   chan struct{}
	closed  bool
}

func (m *memorySink) Write(_ context.Context, e Entry) error {
	if m.block != nil {
		<-m.block
	}
	if m.panics {
		panic("boom")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestRecordDoesNotBlockCaller(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	rec := NewRecorder(sink, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		rec.Record(Entry{DiscordUserID: "1", CommandName: "stats", Success: true})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on the sink")
	}

	close(sink.block)
	require.NoError(t, rec.Close())
	require.Len(t, sink.entries, 1)
	assert.False(t, sink.entries[0].CreatedAt.IsZero())
	assert.True(t, sink.closed)
}

func TestSinkFailuresAreSwallowed(t *testing.T) {
	rec := NewRecorder(&memorySink{err: errors.New("db down")}, zerolog.Nop())
	rec.Record(Entry{CommandName: "stats"})
	rec.Flush()

	rec = NewRecorder(&memorySink{panics: true}, zerolog.Nop())
	assert.NotPanics(t, func() {
		rec.Record(Entry{CommandName: "stats"})
		rec.Flush()
	})
}

func TestRecordAfterCloseIsDropped(t *testing.T) {
	sink := &memorySink{}
	rec := NewRecorder(sink, zerolog.Nop())
	require.NoError(t, rec.Close())

	rec.Record(Entry{CommandName: "late"})
	rec.Flush()
	assert.Empty(t, sink.entries)
	require.NoError(t, rec.Close())
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() { rec.Record(Entry{}) })
}

func TestSQLiteSink(t *testing.T) {
	ctx := context.Background()
	sink, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer sink.Close()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, sink.Write(ctx, Entry{DiscordUserID: "42", CommandName: "votenext", Success: true, CreatedAt: at}))
	require.NoError(t, sink.Write(ctx, Entry{DiscordUserID: "42", CommandName: "votenext_staff_override", Success: true, TargetUUID: "abc-uuid", CreatedAt: at}))
	require.NoError(t, sink.Write(ctx, Entry{DiscordUserID: "7", CommandName: "stats", Error: "bridge down", CreatedAt: at}))

	got, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Entry{DiscordUserID: "7", CommandName: "stats", Error: "bridge down", CreatedAt: at}, got[0])
	assert.Equal(t, "abc-uuid", got[1].TargetUUID)
	assert.True(t, got[2].Success)
}

func TestFileSinkKeepsRecentHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.json")
	sink, err := OpenFile(path, zerolog.Nop())
	require.NoError(t, err)
	sink.limit = 3

	ctx := context.Background()
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, sink.Write(ctx, Entry{DiscordUserID: "42", CommandName: name, Success: true}))
	}
	history, err := sink.History("42")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "b", history[0].CommandName)
	require.NoError(t, sink.Close())

	reopened, err := OpenFile(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()
	history, err = reopened.History("42")
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	sink, err := Open(ctx, Options{Driver: "none"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, sink)

	sink, err = Open(ctx, Options{Driver: "sqlite", SQLitePath: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SQLSink{}, sink)
	require.NoError(t, sink.Close())

	_, err = Open(ctx, Options{Driver: "mysql"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: "postgres"}, zerolog.Nop())
	assert.Error(t, err)
}
