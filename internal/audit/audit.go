// Package audit records command invocations. Recording is best effort: writes
// run detached from the invocation and their failures are only logged.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/bridge-bot/internal/metrics"

	"github.com/rs/zerolog"
)

// Entry is one audit row.
type Entry struct {
	DiscordUserID string    `json:"discord_user_id"`
	CommandName   string    `json:"command_name"`
	Success       bool      `json:"success"`
	Error         string    `json:"error_message,omitempty"`
	TargetUUID    string    `json:"target_uuid,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sink persists entries.
type Sink interface {
	Write(ctx context.Context, e Entry) error
	Close() error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Write(context.Context, Entry) error { return nil }
func (Nop) Close() error                       { return nil }

const writeTimeout = 5 * time.Second

// Recorder hands entries to a Sink on background goroutines. The zero
// value is not usable; construct with NewRecorder.
type Recorder struct {
	sink Sink
	log  zerolog.Logger
	now  func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRecorder(sink Sink, log zerolog.Logger) *Recorder {
	if sink == nil {
		sink = Nop{}
	}
	return &Recorder{sink: sink, log: log, now: time.Now}
}

// Record schedules e for writing and returns immediately. It never fails and
// never panics; after Close it drops entries.
func (r *Recorder) Record(e Entry) {
	if r == nil {
		return
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Debug().Str("command", e.CommandName).Msg("audit recorder closed, entry dropped")
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	go r.write(e)
}

func (r *Recorder) write(e Entry) {
	defer r.wg.Done()
	defer func() {
		if p := recover(); p != nil {
			metrics.AuditWrite(false)
			r.log.Error().Str("panic", fmt.Sprint(p)).Str("command", e.CommandName).Msg("audit sink panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.sink.Write(ctx, e); err != nil {
		metrics.AuditWrite(false)
		r.log.Warn().Err(err).Str("command", e.CommandName).Str("user", e.DiscordUserID).Msg("audit write failed")
		return
	}
	metrics.AuditWrite(true)
}

// Flush waits for the writes scheduled so far.
func (r *Recorder) Flush() {
	r.wg.Wait()
}

// Close stops accepting entries, waits for in-flight writes and closes the sink.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
	return r.sink.Close()
}
