package mcppool

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// reconnect replaces a session's transport/sessionID pair after a lost
// connection. It holds the session's lock for the whole replacement, so
// concurrent callers of the same server wait for the outcome instead of
// racing; callers of other servers are unaffected. The broken transport is
// closed best-effort, then fresh handshakes are attempted at a fixed
// interval until one succeeds or the reconnection window elapses.
//
// dead identifies the transport the caller saw fail. When another caller
// already finished replacing it, reconnect returns immediately without a
// second handshake.
func (p *Pool) reconnect(ctx context.Context, sess *session, dead Transport) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.transport != dead {
		return nil
	}

	p.logger.Info("connection lost, reconnecting", slog.String("server", sess.name))

	if err := sess.transport.Close(); err != nil {
		p.logger.Debug("failed to close broken transport",
			slog.String("server", sess.name), "err", err)
	}

	type handshakeResult struct {
		transport Transport
		sessionID string
	}

	operation := func() (handshakeResult, error) {
		tr := sess.open()
		sessionID, err := p.handshake(ctx, tr)
		if err != nil {
			tr.Close()
			return handshakeResult{}, err
		}
		return handshakeResult{transport: tr, sessionID: sessionID}, nil
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.reconnectInterval)),
		backoff.WithMaxElapsedTime(p.reconnectTimeout),
		backoff.WithNotify(func(err error, wait time.Duration) {
			p.logger.Warn("handshake failed, retrying",
				slog.String("server", sess.name), slog.Duration("wait", wait), "err", err)
		}),
	)
	if err != nil {
		sess.broken = true
		return &ReconnectError{Server: sess.name, Timeout: p.reconnectTimeout, Err: err}
	}

	sess.transport = res.transport
	sess.sessionID = res.sessionID
	sess.broken = false

	p.logger.Info("reconnected", slog.String("server", sess.name))

	return nil
}
