package mail

import (
	"context"
	"time"
)

// Message is one outbound transactional email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Delivery is the provider's view of a sent message.
type Delivery struct {
	ID        string
	To        []string
	Subject   string
	LastEvent string // e.g. "delivered", "bounced"
	CreatedAt time.Time
}

// Sender hands a message to the provider and returns its provider ID.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// StatusFetcher reads delivery status from the provider on demand.
type StatusFetcher interface {
	Status(ctx context.Context, id string) (*Delivery, error)
}
