package printing

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/angelmondragon/kimipos-backend/pkg/escpos"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
)

// NetworkSubmitter writes raw ESC/POS bytes to printers listening on TCP
// (usually port 9100). Destinations are mapped to host:port addresses.
type NetworkSubmitter struct {
	addresses map[string]string
	width     int
	dialer    *net.Dialer
}

func NewNetworkSubmitter(addresses map[string]string, width int) (*NetworkSubmitter, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("printer addresses required")
	}
	if width <= 0 {
		width = escpos.DefaultWidth
	}
	copied := make(map[string]string, len(addresses))
	for name, addr := range addresses {
		copied[name] = addr
	}
	return &NetworkSubmitter{addresses: copied, width: width, dialer: &net.Dialer{}}, nil
}

func (s *NetworkSubmitter) Submit(ctx context.Context, ticket Ticket) error {
	addr, ok := s.addresses[ticket.Destination]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no address configured for printer").
			WithDetails(map[string]any{"destination": ticket.Destination})
	}

	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Now().Add(DefaultTimeout))
	}
	if _, err := conn.Write(RenderESCPOS(ticket, s.width)); err != nil {
		return fmt.Errorf("write to %s: %w", addr, err)
	}
	return nil
}
