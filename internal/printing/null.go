package printing

import (
	"context"

	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

// NullSubmitter accepts every ticket without printing. Used when the
// terminal has no printers attached.
type NullSubmitter struct {
	logg *logger.Logger
}

func NewNullSubmitter(logg *logger.Logger) *NullSubmitter {
	if logg == nil {
		logg = logger.Nop()
	}
	return &NullSubmitter{logg: logg}
}

func (s *NullSubmitter) Submit(ctx context.Context, ticket Ticket) error {
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"destination": ticket.Destination,
		"kind":        ticket.Kind.String(),
		"lines":       len(ticket.Items),
	}), "ticket discarded; printing disabled")
	return nil
}
