package printing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kimipos-backend/pkg/config"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

func sampleTicket() Ticket {
	table := 4
	return Ticket{
		Kind:         enums.TicketKindOrder,
		Destination:  "Kitchen",
		ContextLabel: "Table 4",
		TableNumber:  &table,
		Timestamp:    time.Date(2026, 10, 15, 21, 30, 0, 0, time.UTC),
		Items: []Item{
			{Name: "Burger", Quantity: 2, UnitPrice: decimal.RequireFromString("8.00"), Modifiers: []string{"no onion"}},
		},
		Subtotal: decimal.RequireFromString("16.00"),
	}
}

func TestGatewaySubmitterPostsPlainText(t *testing.T) {
	var got printRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/print", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
	}))
	defer srv.Close()

	sub, err := NewGatewaySubmitter(srv.URL+"/", WithCharWidth(32))
	require.NoError(t, err)
	require.NoError(t, sub.Submit(context.Background(), sampleTicket()))

	assert.Equal(t, "Kitchen", got.PrinterName)
	assert.Equal(t, "order", got.Type)
	assert.Contains(t, got.Content, "2x Burger")
	assert.Contains(t, got.Content, "* no onion")
	assert.NotContains(t, got.Content, "\x1b")
}

func TestGatewaySubmitterTreatsLogicalFailureAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"printer offline"}`))
	}))
	defer srv.Close()

	sub, err := NewGatewaySubmitter(srv.URL)
	require.NoError(t, err)
	err = sub.Submit(context.Background(), sampleTicket())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "printer offline")
}

func TestGatewaySubmitterNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "spooler crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sub, err := NewGatewaySubmitter(srv.URL)
	require.NoError(t, err)
	err = sub.Submit(context.Background(), sampleTicket())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGatewaySubmitterHonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	sub, err := NewGatewaySubmitter(srv.URL)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = sub.Submit(ctx, sampleTicket())
	require.Error(t, err)
	assert.True(t, isTimeout(err))
}

func TestESCPOSGatewaySubmitter(t *testing.T) {
	var printed escposPrintRequest
	var connected, disconnected printerRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/escpos/print", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&printed))
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("/escpos/connect", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&connected))
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("/escpos/disconnect", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&disconnected))
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("/escpos/usb-printers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"success":true,"printers":[{"id":"usb-0","name":"USB Printer 1","type":"usb","isConnected":false}],"count":1}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sub, err := NewESCPOSGatewaySubmitter(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	printers, err := sub.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, printers, 1)
	assert.Equal(t, "usb-0", printers[0].ID)

	require.NoError(t, sub.Connect(ctx, "usb-0"))
	assert.Equal(t, "usb-0", connected.PrinterID)

	ticket := sampleTicket()
	ticket.Destination = "usb-0"
	require.NoError(t, sub.Submit(ctx, ticket))
	assert.Equal(t, "usb-0", printed.PrinterID)
	assert.Equal(t, "4", printed.TableNumber)
	assert.Equal(t, "2026-10-15T21:30:00Z", printed.Timestamp)
	require.Len(t, printed.Items, 1)
	assert.Equal(t, 16.0, printed.Items[0].TotalPrice)

	require.NoError(t, sub.Disconnect(ctx, "usb-0"))
	assert.Equal(t, "usb-0", disconnected.PrinterID)

	assert.Error(t, sub.Connect(ctx, " "))
}

func TestNewSubmitterSelectsMode(t *testing.T) {
	cases := map[string]any{
		config.PrintModeGateway: &GatewaySubmitter{},
		config.PrintModeESCPOS:  &ESCPOSGatewaySubmitter{},
		config.PrintModeNetwork: &NetworkSubmitter{},
		config.PrintModeNone:    &NullSubmitter{},
	}
	for mode, want := range cases {
		t.Run(mode, func(t *testing.T) {
			sub, err := NewSubmitter(config.PrintingConfig{
				Mode:       mode,
				GatewayURL: "http://localhost:3001",
				CharWidth:  42,
				Addresses:  config.AddressMap{"Kitchen": "127.0.0.1:9100"},
			}, logger.Nop())
			require.NoError(t, err)
			assert.IsType(t, want, sub)
		})
	}

	_, err := NewSubmitter(config.PrintingConfig{Mode: "fax"}, logger.Nop())
	assert.Error(t, err)
	_, err = NewGatewaySubmitter("  ")
	assert.Error(t, err)
}

func TestRenderTextLayout(t *testing.T) {
	out := RenderText(sampleTicket(), 32)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "ORDER", lines[0])
	assert.Equal(t, "Kitchen", lines[1])
	assert.Contains(t, out, "15/10/2026 21:30")
	assert.Contains(t, out, "Subtotal                   16.00")

	ticket := sampleTicket()
	ticket.Kind = enums.TicketKindCancellation
	assert.True(t, strings.HasPrefix(RenderText(ticket, 32), "CANCELLATION\n"))

	ticket = sampleTicket()
	ticket.Terminal = "TPV-2"
	lines = strings.Split(RenderText(ticket, 32), "\n")
	assert.Equal(t, "TPV-2", lines[2])
}
