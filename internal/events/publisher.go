// Package events publishes match log domain events after the owning transaction commits.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectRequestCreated  = "matchlog.request.created"
	SubjectRequestApproved = "matchlog.request.approved"
	SubjectRequestRejected = "matchlog.request.rejected"
)

// ParticipantOutcome is one player's line in a RequestEvent.
type ParticipantOutcome struct {
	UserID      uint64 `json:"userId"`
	Side        string `json:"side"`
	Decision    string `json:"decision"`
	RatingDelta *int   `json:"ratingDelta,omitempty"`
}

// RequestEvent is the payload of every match log subject.
type RequestEvent struct {
	RequestID    uint64               `json:"requestId"`
	Status       string               `json:"status"`
	MatchFormat  string               `json:"matchFormat"`
	WinnerSide   string               `json:"winnerSide"`
	Participants []ParticipantOutcome `json:"participants"`
	OccurredAt   time.Time            `json:"occurredAt"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, subject string, event RequestEvent) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, RequestEvent) error { return nil }

// NATSPublisher publishes JSON-encoded events on core NATS subjects.
type NATSPublisher struct {
	nc *nats.Conn
}

// ConnectNATS dials the broker and returns a publisher bound to the connection.
func ConnectNATS(url string, log *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("match-log"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish sends event as JSON on subject. Delivery is fire-and-forget.
func (p *NATSPublisher) Publish(_ context.Context, subject string, event RequestEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}
	return p.nc.Publish(subject, data)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.nc.Drain()
}

// Recorder keeps published events in memory. Used by tests and local tooling.
type Recorder struct {
	mu     sync.Mutex
	events map[string][]RequestEvent
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{events: make(map[string][]RequestEvent)}
}

func (r *Recorder) Publish(_ context.Context, subject string, event RequestEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[subject] = append(r.events[subject], event)
	return nil
}

// Events returns a copy of everything published on subject.
func (r *Recorder) Events(subject string) []RequestEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RequestEvent(nil), r.events[subject]...)
}
