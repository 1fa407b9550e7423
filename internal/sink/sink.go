// Package sink defines where finished runs go. Every publisher receives
// the same batch; the first failure stops the run.
package sink

import (
	"context"
	"fmt"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/logger"
	"github.com/deksa89/argo-connectors/internal/webapi"
)

// Batch is the output of one run.
type Batch = domain.Snapshot

type Publisher interface {
	Name() string
	Publish(ctx context.Context, b *Batch) error
}

// Multi publishes to every publisher in order and stops at the first error.
type Multi []Publisher

func (m Multi) Name() string { return "multi" }

func (m Multi) Publish(ctx context.Context, b *Batch) error {
	for _, p := range m {
		if err := p.Publish(ctx, b); err != nil {
			return fmt.Errorf("publishing to %s: %w", p.Name(), err)
		}
	}
	return nil
}

// WebAPI posts batches to the ARGO web API under the batch date.
type WebAPI struct {
	doer  webapi.Doer
	host  string
	token string
	log   logger.Logger
}

func NewWebAPI(doer webapi.Doer, host, token string, log logger.Logger) *WebAPI {
	return &WebAPI{doer: doer, host: host, token: token, log: log}
}

func (w *WebAPI) Name() string { return "webapi" }

func (w *WebAPI) Publish(ctx context.Context, b *Batch) error {
	c := webapi.New(w.doer, w.host, w.token, b.Date, w.log)
	if b.Task == domain.TaskServiceTypes {
		return c.Send(ctx, webapi.KindServiceTypes, nonNil(b.ServiceTypes))
	}
	if err := c.Send(ctx, webapi.KindGroups, nonNil(b.Groups)); err != nil {
		return err
	}
	return c.Send(ctx, webapi.KindEndpoints, nonNil(b.Endpoints))
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
