// Package connfactory provides ready-made pool factories for network
// connections: PostgreSQL sessions over pgx and raw TCP connections.
//
// Both factories treat dial errors as ordinary create failures, so a
// pool built on them rides out database restarts and network blips via
// poison capture and background retry.
package connfactory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	errs "github.com/ajitpratap0/stockpile/pkg/errors"
)

// PgConnFactory creates dedicated PostgreSQL sessions (*pgx.Conn) for a
// pool. Unlike pgxpool this gives the caller full session state per
// claim: temp tables, prepared statements, and session GUCs survive for
// the lifetime of the pooled object.
type PgConnFactory struct {
	// ConnString is a pgx-compatible connection string or URL.
	ConnString string
	// ConnectTimeout bounds each dial. Zero means 10 seconds.
	ConnectTimeout time.Duration
	// Logger receives dial and teardown events. Nil disables logging.
	Logger *zap.Logger
}

func (f *PgConnFactory) timeout() time.Duration {
	if f.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return f.ConnectTimeout
}

func (f *PgConnFactory) log() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// Create dials a new session.
func (f *PgConnFactory) Create(ctx context.Context) (*pgx.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	conn, err := pgx.Connect(dialCtx, f.ConnString)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, "postgres dial failed")
	}
	f.log().Debug("postgres session opened",
		zap.Uint32("backend_pid", conn.PgConn().PID()))
	return conn, nil
}

// Destroy closes a session. Sessions that already died are closed
// best-effort; the error is reported but the object is gone either way.
func (f *PgConnFactory) Destroy(ctx context.Context, conn *pgx.Conn) error {
	closeCtx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	if err := conn.Close(closeCtx); err != nil {
		return errs.Wrap(err, errs.KindConfig, "postgres close failed")
	}
	return nil
}

// Recreate replaces an expired session. A still-healthy connection is
// kept as-is: expiration of long-lived sessions is routine, not a sign
// the transport is broken, and a ping round-trip is much cheaper than a
// fresh handshake. Dead connections are closed and redialled.
func (f *PgConnFactory) Recreate(ctx context.Context, old *pgx.Conn) (*pgx.Conn, error) {
	pingCtx, cancel := context.WithTimeout(ctx, f.timeout())
	err := old.Ping(pingCtx)
	cancel()
	if err == nil {
		return old, nil
	}

	f.log().Debug("postgres session unhealthy; redialling", zap.Error(err))
	_ = old.Close(ctx)
	return f.Create(ctx)
}
