package printing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/escpos"
)

const responseBodyReadLimit int64 = 1024

// GatewayOption configures the print gateway clients.
type GatewayOption func(*gatewayClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(c *gatewayClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCharWidth sets the ticket width in characters.
func WithCharWidth(width int) GatewayOption {
	return func(c *gatewayClient) {
		if width > 0 {
			c.width = width
		}
	}
}

type gatewayClient struct {
	httpClient *http.Client
	baseURL    string
	width      int
}

// gatewayResponse is the envelope every gateway endpoint answers with.
type gatewayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newGatewayClient(baseURL string, opts []GatewayOption) (*gatewayClient, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("print gateway url is required")
	}
	c := &gatewayClient{
		// Per-submission deadlines come from the router's context.
		httpClient: &http.Client{},
		baseURL:    trimmed,
		width:      escpos.DefaultWidth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *gatewayClient) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// do sends payload (nil for GET) and decodes the response into out. A
// non-2xx status is an error; out is decoded only on success.
func (c *gatewayClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal gateway request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute gateway request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"gateway request failed")
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}

func (r gatewayResponse) err(action string) error {
	if r.Success {
		return nil
	}
	reason := r.Error
	if reason == "" {
		reason = r.Message
	}
	if reason == "" {
		reason = "gateway reported failure"
	}
	return pkgerrors.New(pkgerrors.CodeDependency, action+": "+reason)
}

// GatewaySubmitter prints through the local print service's generic
// POST /print endpoint, sending the ticket as plain text.
type GatewaySubmitter struct {
	client *gatewayClient
}

func NewGatewaySubmitter(baseURL string, opts ...GatewayOption) (*GatewaySubmitter, error) {
	client, err := newGatewayClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &GatewaySubmitter{client: client}, nil
}

type printRequest struct {
	Content     string `json:"content"`
	PrinterName string `json:"printerName,omitempty"`
	Type        string `json:"type"`
}

func (s *GatewaySubmitter) Submit(ctx context.Context, ticket Ticket) error {
	var resp gatewayResponse
	if err := s.client.do(ctx, http.MethodPost, "/print", printRequest{
		Content:     RenderText(ticket, s.client.width),
		PrinterName: ticket.Destination,
		Type:        ticket.Kind.String(),
	}, &resp); err != nil {
		return err
	}
	return resp.err("print")
}

// ESCPOSPrinter is a thermal printer known to the print service.
type ESCPOSPrinter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	IsConnected bool   `json:"isConnected"`
}

// ESCPOSGatewaySubmitter prints on thermal printers through the print
// service's /escpos endpoints. The ticket destination is the printer id.
type ESCPOSGatewaySubmitter struct {
	client *gatewayClient
}

func NewESCPOSGatewaySubmitter(baseURL string, opts ...GatewayOption) (*ESCPOSGatewaySubmitter, error) {
	client, err := newGatewayClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &ESCPOSGatewaySubmitter{client: client}, nil
}

type escposItem struct {
	ProductName string   `json:"productName"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	TotalPrice  float64  `json:"totalPrice"`
	Modifiers   []string `json:"modifiers,omitempty"`
}

type escposPrintRequest struct {
	Items        []escposItem `json:"items"`
	TableNumber  string       `json:"tableNumber"`
	CustomerName string       `json:"customerName,omitempty"`
	Timestamp    string       `json:"timestamp"`
	PrinterID    string       `json:"printerId"`
}

type printerRequest struct {
	PrinterID string `json:"printerId"`
}

func (s *ESCPOSGatewaySubmitter) Submit(ctx context.Context, ticket Ticket) error {
	items := make([]escposItem, 0, len(ticket.Items))
	for _, item := range ticket.Items {
		// The print service renders prices itself and expects JSON numbers.
		unit, _ := item.UnitPrice.Round(2).Float64()
		total, _ := item.Total().Round(2).Float64()
		items = append(items, escposItem{
			ProductName: item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   unit,
			TotalPrice:  total,
			Modifiers:   item.Modifiers,
		})
	}
	table := ticket.ContextLabel
	if ticket.TableNumber != nil {
		table = fmt.Sprintf("%d", *ticket.TableNumber)
	}

	var resp gatewayResponse
	if err := s.client.do(ctx, http.MethodPost, "/escpos/print", escposPrintRequest{
		Items:        items,
		TableNumber:  table,
		CustomerName: ticket.CustomerName,
		Timestamp:    ticket.Timestamp.UTC().Format(time.RFC3339),
		PrinterID:    ticket.Destination,
	}, &resp); err != nil {
		return err
	}
	return resp.err("escpos print")
}

// Discover lists the USB thermal printers the print service can see.
func (s *ESCPOSGatewaySubmitter) Discover(ctx context.Context) ([]ESCPOSPrinter, error) {
	var resp struct {
		gatewayResponse
		Printers []ESCPOSPrinter `json:"printers"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/escpos/usb-printers", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("discover printers"); err != nil {
		return nil, err
	}
	return resp.Printers, nil
}

// Connect opens the print service's connection to a thermal printer.
func (s *ESCPOSGatewaySubmitter) Connect(ctx context.Context, printerID string) error {
	return s.lifecycle(ctx, "/escpos/connect", printerID)
}

// Disconnect closes the print service's connection to a thermal printer.
func (s *ESCPOSGatewaySubmitter) Disconnect(ctx context.Context, printerID string) error {
	return s.lifecycle(ctx, "/escpos/disconnect", printerID)
}

func (s *ESCPOSGatewaySubmitter) lifecycle(ctx context.Context, path, printerID string) error {
	if strings.TrimSpace(printerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "printer id is required")
	}
	var resp gatewayResponse
	if err := s.client.do(ctx, http.MethodPost, path, printerRequest{PrinterID: printerID}, &resp); err != nil {
		return err
	}
	return resp.err(strings.TrimPrefix(path, "/escpos/"))
}
