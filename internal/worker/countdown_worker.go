package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/law-cbt/cbt-backend/internal/service"
)

// CountdownWorker drives the session countdown at 1 Hz. The tick
// itself is a no-op while no session is running, so the loop runs for
// the whole process lifetime.
type CountdownWorker struct {
	session *service.SessionService
	log     zerolog.Logger
}

// NewCountdownWorker creates a new CountdownWorker.
func NewCountdownWorker(session *service.SessionService, log zerolog.Logger) *CountdownWorker {
	return &CountdownWorker{
		session: session,
		log:     log.With().Str("component", "countdown_worker").Logger(),
	}
}

// Start begins the tick loop. Call in a goroutine.
func (w *CountdownWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.session.Tick(ctx)
		}
	}
}
