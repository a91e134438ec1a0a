package printing

import (
	"strings"

	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	"github.com/angelmondragon/kimipos-backend/pkg/escpos"
)

const timestampLayout = "02/01/2006 15:04"

// RenderESCPOS lays out a ticket as an ESC/POS byte stream.
func RenderESCPOS(t Ticket, width int) []byte {
	return layout(escpos.NewDocument(width), t).Bytes()
}

// RenderText lays out a ticket as plain monospaced text.
func RenderText(t Ticket, width int) string {
	return layout(escpos.NewTextDocument(width), t).String()
}

func layout(d *escpos.Document, t Ticket) *escpos.Document {
	d.SetAlign(escpos.AlignCenter).
		SetBold(true).
		SetFontSize(escpos.FontDouble).
		Text(title(t.Kind)).
		SetFontSize(escpos.FontNormal).
		SetBold(false).
		Text(t.Destination)
	if t.Terminal != "" {
		d.Text(t.Terminal)
	}
	d.SetAlign(escpos.AlignLeft).
		FeedLines(1).
		SetBold(true).
		Text(t.ContextLabel).
		SetBold(false)
	if t.CustomerName != "" {
		d.Text(t.CustomerName)
	}
	d.Text(t.Timestamp.Format(timestampLayout)).
		Separator('-')

	for _, item := range t.Items {
		d.ItemLine(item.Quantity, item.Name, item.Total().StringFixed(2))
		if len(item.Modifiers) > 0 {
			d.Text("   * " + strings.Join(item.Modifiers, ", "))
		}
	}

	return d.Separator('-').
		KeyValue("Subtotal", t.Subtotal.StringFixed(2)).
		FeedLines(3).
		Cut()
}

func title(kind enums.TicketKind) string {
	switch kind {
	case enums.TicketKindCancellation:
		return "CANCELLATION"
	case enums.TicketKindReprint:
		return "REPRINT"
	default:
		return "ORDER"
	}
}
