// Package feed holds the small helpers every source parser shares: scope
// extraction, required-field checks, URL host reduction and parse error
// reporting.
package feed

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/logger"
)

// Context identifies the run a parser works for, so failures carry
// customer and job.
type Context struct {
	Customer string
	Job      string
	Log      logger.Logger
}

// Fail logs and wraps err as a *domain.ParseError for feed.
func (c Context) Fail(feed string, err error) error {
	perr := &domain.ParseError{Customer: c.Customer, Job: c.Job, Feed: feed, Err: err}
	if c.Log != nil {
		c.Log.Error("error parsing feed",
			logger.Customer(c.Customer),
			logger.Job(c.Job),
			logger.String("feed", feed),
			logger.Error(err))
	}
	return perr
}

// Warn logs a non-fatal oddity found while parsing.
func (c Context) Warn(msg string, fields ...logger.Field) {
	if c.Log == nil {
		return
	}
	c.Log.Warn(msg, append([]logger.Field{logger.Customer(c.Customer), logger.Job(c.Job)}, fields...)...)
}

// ScopeSet is the SCOPES element shared by several registry entities.
type ScopeSet struct {
	Labels []string `xml:"SCOPE"`
}

// Values returns the scope labels in document order. A missing SCOPES
// element yields nil.
func (s *ScopeSet) Values() []string {
	if s == nil {
		return nil
	}
	return s.Labels
}

// Required dereferences a mandatory element, failing when it was absent.
func Required(element string, v *string) (string, error) {
	if v == nil {
		return "", fmt.Errorf("missing required element %s", element)
	}
	return *v, nil
}

// Optional dereferences an optional element.
func Optional(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// FQDN returns the host[:port] part of rawURL, or "" when rawURL has none.
func FQDN(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// SplitEmails splits a contact field on ";" and ",", dropping blanks.
func SplitEmails(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
