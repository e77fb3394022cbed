package session

import (
	"context"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/recommend"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/stream"
)

// Source produces a recommendation stream. Satisfied by *recommend.Client.
type Source interface {
	Stream(ctx context.Context, params recommend.Params) (<-chan stream.Event, error)
}

// Refresh starts a new ingestion: it cancels any prior fetch, clears the
// session, opens the stream, and consumes it on a single goroutine that is
// the only path appending exercises — stream arrival order is append order.
// The call returns as soon as the stream is open (or has failed to open);
// exercises become visible incrementally while fetching remains true.
//
// All terminal handling is exactly-once: the consumer sees one of
// EventComplete or EventError and stops. A fetch superseded by a newer
// Refresh is discarded by the store's generation check, so two ingestions
// never interleave writes into one session.
func (s *Store) Refresh(ctx context.Context, src Source, params recommend.Params) {
	streamCtx, cancel := context.WithCancel(ctx)
	gen := s.StartFetch(ctx, cancel)

	events, err := src.Stream(streamCtx, params)
	if err != nil {
		s.FailFetch(ctx, gen, err)
		cancel()
		return
	}

	go func() {
		defer cancel()
		// Persistence must outlive stream cancellation.
		persistCtx := context.WithoutCancel(ctx)
		for ev := range events {
			switch ev.Kind {
			case stream.EventExercise:
				s.AppendExercise(persistCtx, gen, ev.Exercise)
			case stream.EventComplete:
				s.FinishFetch(persistCtx, gen, ev.Total)
				return
			case stream.EventError:
				s.FailFetch(persistCtx, gen, ev.Err)
				return
			}
		}
		// Channel closed without a terminal event: the fetch was cancelled.
		// A newer fetch owns the store by now; nothing to do.
	}()
}
