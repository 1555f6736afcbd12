package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/outbox"
)

// Notifier is the outbound contract to the notification/invoice collaborators.
// Every call is fire-and-forget from the core's point of view: the outbox
// worker retries, the checkout path never blocks on these.
type Notifier interface {
	SendSMS(ctx context.Context, phone, template string, orderID int) error
	SendEmail(ctx context.Context, email, template string, orderID int) error
	RequestInvoice(ctx context.Context, orderID int) error
}

// HTTPNotifier posts to the collaborator services.
type HTTPNotifier struct {
	client     *http.Client
	smsURL     string
	emailURL   string
	invoiceURL string
}

func NewHTTPNotifier(smsURL, emailURL, invoiceURL string) *HTTPNotifier {
	return &HTTPNotifier{
		client:     &http.Client{Timeout: 10 * time.Second},
		smsURL:     smsURL,
		emailURL:   emailURL,
		invoiceURL: invoiceURL,
	}
}

func (n *HTTPNotifier) post(ctx context.Context, url string, body any) error {
	if url == "" {
		// collaborator not configured; drop silently in dev setups
		return nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("collaborator returned %d", res.StatusCode)
	}
	return nil
}

func (n *HTTPNotifier) SendSMS(ctx context.Context, phone, template string, orderID int) error {
	return n.post(ctx, n.smsURL, map[string]any{"phone": phone, "template": template, "orderID": orderID})
}

func (n *HTTPNotifier) SendEmail(ctx context.Context, email, template string, orderID int) error {
	return n.post(ctx, n.emailURL, map[string]any{"email": email, "template": template, "orderID": orderID})
}

func (n *HTTPNotifier) RequestInvoice(ctx context.Context, orderID int) error {
	return n.post(ctx, n.invoiceURL, map[string]any{"orderID": orderID})
}

// EventPayload is the shape checkout and the payment reconciler enqueue.
type EventPayload struct {
	OrderID int    `json:"orderID"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Dispatcher routes outbox topics to the notifier. Unknown topics are
// acknowledged so a stale event cannot wedge the queue.
func Dispatcher(n Notifier) outbox.Dispatcher {
	return func(ctx context.Context, ev outbox.Event) error {
		var p EventPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			slog.Error("notify: bad event payload", "topic", ev.Topic, "eventID", ev.EventID, "error", err)
			return nil
		}
		switch ev.Topic {
		case outbox.TopicOrderConfirmed:
			if p.Email != "" {
				if err := n.SendEmail(ctx, p.Email, "order-confirmation", p.OrderID); err != nil {
					return err
				}
			}
			if p.Phone != "" {
				return n.SendSMS(ctx, p.Phone, "order-confirmation", p.OrderID)
			}
			return nil
		case outbox.TopicInvoiceRequested:
			return n.RequestInvoice(ctx, p.OrderID)
		case outbox.TopicPaymentSucceeded:
			if err := n.RequestInvoice(ctx, p.OrderID); err != nil {
				return err
			}
			if p.Phone != "" {
				return n.SendSMS(ctx, p.Phone, "payment-received", p.OrderID)
			}
			return nil
		case outbox.TopicPaymentFailed:
			if p.Phone != "" {
				return n.SendSMS(ctx, p.Phone, "payment-failed", p.OrderID)
			}
			return nil
		default:
			slog.Warn("notify: unknown topic dropped", "topic", ev.Topic)
			return nil
		}
	}
}
