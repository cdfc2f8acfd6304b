package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Options selects and configures a Sink.
type Options struct {
	Driver     string // none, mysql, sqlite or file
	MySQL      MySQLConfig
	SQLitePath string
	FilePath   string
}

// Open returns the sink named by opts.Driver.
func Open(ctx context.Context, opts Options, log zerolog.Logger) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "none":
		return Nop{}, nil
	case "mysql":
		return OpenMySQL(ctx, opts.MySQL)
	case "sqlite":
		return OpenSQLite(ctx, opts.SQLitePath)
	case "file":
		return OpenFile(opts.FilePath, log)
	default:
		return nil, fmt.Errorf("unknown audit driver %q", opts.Driver)
	}
}
