// Package paymenttest provides an in-memory payment.Processor for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	"studynest/pkg/payment"
)

// Processor is a scriptable fake. Customers are keyed by email and
// subscriptions by customer id.
type Processor struct {
	mu            sync.Mutex
	Customers     map[string]payment.Customer
	Subscriptions map[string][]payment.Subscription
	Sessions      map[string]*payment.CheckoutSession
	Checkouts     []payment.CheckoutRequest
	PortalCalls   []string
	Err           error // returned by every remote call when set

	// Events decoded by ParseEvent: signature "valid" accepts the payload as Event.
	Event *payment.Event
}

func New() *Processor {
	return &Processor{
		Customers:     make(map[string]payment.Customer),
		Subscriptions: make(map[string][]payment.Subscription),
		Sessions:      make(map[string]*payment.CheckoutSession),
	}
}

func (p *Processor) FindCustomerByEmail(_ context.Context, email string) (*payment.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	c, ok := p.Customers[email]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (p *Processor) ListActiveSubscriptions(_ context.Context, customerID string, limit int64) ([]payment.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	var out []payment.Subscription
	for _, s := range p.Subscriptions[customerID] {
		if s.Status == "active" && int64(len(out)) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *Processor) CreateSubscriptionCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	p.Checkouts = append(p.Checkouts, req)
	id := fmt.Sprintf("cs_test_%d", len(p.Checkouts))
	s := &payment.CheckoutSession{
		ID:         id,
		URL:        "https://checkout.example/" + id,
		Status:     "open",
		CustomerID: req.CustomerID,
		Metadata:   req.Metadata,
	}
	p.Sessions[id] = s
	return s, nil
}

func (p *Processor) GetCheckoutSession(_ context.Context, sessionID string) (*payment.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	s, ok := p.Sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", sessionID)
	}
	return s, nil
}

func (p *Processor) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	p.PortalCalls = append(p.PortalCalls, customerID)
	return "https://billing.example/session/" + customerID, nil
}

func (p *Processor) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if signature != "valid" || p.Event == nil {
		return nil, payment.ErrInvalidSignature
	}
	ev := *p.Event
	ev.Payload = payload
	return &ev, nil
}

// CheckoutCount returns the number of sessions created so far.
func (p *Processor) CheckoutCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Checkouts)
}
