package connfactory

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	errs "github.com/ajitpratap0/stockpile/pkg/errors"
)

// DialFactory creates raw network connections for a pool. It suits
// protocols where the client keeps a warm TCP session per claim
// (memcached-style services, custom RPC).
type DialFactory struct {
	// Network and Address are passed to net.Dialer verbatim.
	Network string
	Address string
	// DialTimeout bounds each dial. Zero means 10 seconds.
	DialTimeout time.Duration
	// KeepAlive configures TCP keep-alive probes. Zero uses the
	// net.Dialer default.
	KeepAlive time.Duration
	// Logger receives dial events. Nil disables logging.
	Logger *zap.Logger
}

// Create dials a new connection.
func (f *DialFactory) Create(ctx context.Context) (net.Conn, error) {
	timeout := f.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: f.KeepAlive}

	conn, err := dialer.DialContext(ctx, f.Network, f.Address)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, "dial failed").
			WithDetail("network", f.Network).
			WithDetail("address", f.Address)
	}
	if f.Logger != nil {
		f.Logger.Debug("connection opened",
			zap.String("remote", conn.RemoteAddr().String()))
	}
	return conn, nil
}

// Destroy closes a connection.
func (f *DialFactory) Destroy(_ context.Context, conn net.Conn) error {
	return conn.Close()
}
