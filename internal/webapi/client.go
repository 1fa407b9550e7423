// Package webapi talks to the ARGO web API: it reads the current
// service-type catalog and publishes topology for a date.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/httpclient"
	"github.com/deksa89/argo-connectors/internal/logger"
)

// Published kinds.
const (
	KindGroups       = "groups"
	KindEndpoints    = "endpoints"
	KindServiceTypes = "service-types"
)

// TagPOEM marks catalog entries managed by POEM. They survive a
// service-types sync.
const TagPOEM = "poem"

// Doer is the request capability the client needs. *httpclient.DefaultClient
// satisfies it.
type Doer interface {
	Do(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error)
}

type Client struct {
	doer  Doer
	base  string
	token string
	date  string
	log   logger.Logger
}

// New returns a client for host. host may be a bare hostname (https is
// assumed) or a full base URL. date is YYYY-MM-DD.
func New(doer Doer, host, token, date string, log logger.Logger) *Client {
	base := strings.TrimRight(host, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{doer: doer, base: base, token: token, date: date, log: log}
}

func (c *Client) endpoint(kind string) string {
	return fmt.Sprintf("%s/api/v2/topology/%s?date=%s", c.base, kind, url.QueryEscape(c.date))
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("x-api-key", c.token)
	h.Set("Accept", "application/json")
	return h
}

// ServiceTypes returns the catalog entries carrying tag.
func (c *Client) ServiceTypes(ctx context.Context, tag string) ([]domain.ServiceType, error) {
	data, err := c.doer.Do(ctx, http.MethodGet, c.endpoint(KindServiceTypes), nil, c.header())
	if err != nil {
		return nil, err
	}
	return ParseServiceTypes(data, tag)
}

// ParseServiceTypes reads the "data" array of a catalog response and keeps
// the entries tagged tag. An empty tag keeps everything.
func ParseServiceTypes(data []byte, tag string) ([]domain.ServiceType, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("webapi: invalid JSON in service-types response")
	}
	list := gjson.GetBytes(data, "data")
	if !list.IsArray() {
		return nil, errors.New("webapi: service-types response has no data array")
	}

	var out []domain.ServiceType
	for _, it := range list.Array() {
		st := domain.ServiceType{
			Name:        it.Get("name").String(),
			Description: it.Get("description").String(),
		}
		for _, t := range it.Get("tags").Array() {
			st.Tags = append(st.Tags, t.String())
		}
		if tag != "" && !hasTag(st.Tags, tag) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Send posts payload as the kind topology of the client date. When data
// already exists for that date, it is deleted and posted again.
func (c *Client) Send(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webapi: encoding %s: %w", kind, err)
	}
	h := c.header()
	h.Set("Content-Type", "application/json")

	_, err = c.doer.Do(ctx, http.MethodPost, c.endpoint(kind), body, h)
	if err == nil {
		c.log.Info("published to webapi", logger.String("kind", kind), logger.String("date", c.date))
		return nil
	}

	var he *httpclient.HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusConflict {
		return fmt.Errorf("webapi: sending %s: %w", kind, err)
	}

	c.log.Warn("webapi already has data for date, replacing",
		logger.String("kind", kind), logger.String("date", c.date))
	if _, err := c.doer.Do(ctx, http.MethodDelete, c.endpoint(kind), nil, c.header()); err != nil {
		return fmt.Errorf("webapi: deleting %s: %w", kind, err)
	}
	if _, err := c.doer.Do(ctx, http.MethodPost, c.endpoint(kind), body, h); err != nil {
		return fmt.Errorf("webapi: sending %s: %w", kind, err)
	}
	return nil
}
