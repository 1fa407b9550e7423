// Package nats publishes batches as JSON messages, one subject per record
// kind: <prefix>.<customer>.<job>.<kind>.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/logger"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

type Publisher struct {
	conn   Conn
	prefix string
}

func New(conn Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix}
}

// Connect dials url and logs connection state changes.
func Connect(url string, log logger.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("argo-connectors"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", logger.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", logger.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

func (p *Publisher) Name() string { return "nats" }

// Subject returns the subject of kind for a customer job. Dots and spaces
// in names are replaced so each name stays one token.
func (p *Publisher) Subject(customer, job, kind string) string {
	return strings.Join([]string{p.prefix, token(customer), token(job), kind}, ".")
}

func token(s string) string {
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(s)
}

type message struct {
	kind    string
	records any
}

func (p *Publisher) Publish(ctx context.Context, b *domain.Snapshot) error {
	msgs := []message{{"groups", b.Groups}, {"endpoints", b.Endpoints}}
	if b.Task == domain.TaskServiceTypes {
		msgs = []message{{"service-types", b.ServiceTypes}}
	}

	for _, m := range msgs {
		data, err := json.Marshal(envelope{Date: b.Date, RunID: b.RunID, Records: m.records})
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", m.kind, err)
		}
		if err := p.conn.Publish(p.Subject(b.Customer, b.Job, m.kind), data); err != nil {
			return fmt.Errorf("failed to publish %s: %w", m.kind, err)
		}
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush nats: %w", err)
	}
	return nil
}

type envelope struct {
	Date    string `json:"date"`
	RunID   string `json:"run_id"`
	Records any    `json:"records"`
}
