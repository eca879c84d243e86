package service

import (
	"context"
	"log"
	"time"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
)

// SessionPruner periodically deletes expired sessions and expired, unused
// invitations.  It never touches vein data: status logs are append-only and
// are not subject to retention.
type SessionPruner struct {
	store    store.AuthStore
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// PrunerConfig holds the parameters for NewSessionPruner.
type PrunerConfig struct {
	// IntervalHours is how often the pruner runs.  Defaults to 6.
	// A negative value disables pruning.
	IntervalHours int
}

// NewSessionPruner creates a pruner but does not start it.
func NewSessionPruner(s store.AuthStore, cfg PrunerConfig, logger *log.Logger) *SessionPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if cfg.IntervalHours == 0 {
		interval = 6 * time.Hour
	}

	return &SessionPruner{
		store:    s,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		done:     make(chan struct{}),
	}
}

// Start runs an immediate prune, then repeats on the configured interval
// until ctx is cancelled or Stop is called.
func (p *SessionPruner) Start(ctx context.Context) {
	if p.interval < 0 {
		p.logger.Printf("session pruner disabled")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Printf("session pruner started (interval=%s)", p.interval)
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *SessionPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *SessionPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.Prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune runs one pass.  Errors are logged, not returned.
func (p *SessionPruner) Prune(ctx context.Context) {
	now := p.now()

	sessions, err := p.store.PruneSessions(ctx, now)
	if err != nil {
		p.logger.Printf("session prune error: %v", err)
	} else if sessions > 0 {
		p.logger.Printf("session prune: deleted %d expired sessions", sessions)
	}

	invitations, err := p.store.PruneInvitations(ctx, now)
	if err != nil {
		p.logger.Printf("invitation prune error: %v", err)
	} else if invitations > 0 {
		p.logger.Printf("invitation prune: deleted %d expired invitations", invitations)
	}
}
