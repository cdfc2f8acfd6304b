package audit

import (
	"context"
	"fmt"

	"github.com/keshon/bridge-bot/datastore"

	"github.com/rs/zerolog"
)

// historyLimit is how many entries the file sink keeps per user.
const historyLimit = 50

type userRecord struct {
	History []Entry `json:"history"`
}

// FileSink keeps the most recent entries of each user in a JSON datastore.
type FileSink struct {
	ds    *datastore.DataStore
	limit int
}

func OpenFile(path string, log zerolog.Logger) (*FileSink, error) {
	cfg := datastore.DefaultConfig(path)
	cfg.Logger = log
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	return &FileSink{ds: ds, limit: historyLimit}, nil
}

func (s *FileSink) Write(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return datastore.Update(s.ds, e.DiscordUserID, func(r *userRecord) {
		r.History = append(r.History, e)
		if len(r.History) > s.limit {
			r.History = r.History[len(r.History)-s.limit:]
		}
	})
}

// History returns the stored entries of a user, oldest first.
func (s *FileSink) History(userID string) ([]Entry, error) {
	var r userRecord
	if _, err := s.ds.Get(userID, &r); err != nil {
		return nil, err
	}
	return r.History, nil
}

func (s *FileSink) Close() error {
	return s.ds.Close()
}
