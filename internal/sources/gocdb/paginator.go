package gocdb

import (
	"context"
	"encoding/xml"
	"iter"
	"strconv"
	"strings"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/httpclient"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// Paginator walks a cursor-paged gocdbpi method.
//
// The registry never announces a total: every page carries <meta><count>
// and a rel="next" link holding the next cursor, and the walk ends on the
// first page whose count is 0. That last page is still yielded.
type Paginator struct {
	client httpclient.Client
	paging bool
	pctx   feed.Context
}

func NewPaginator(client httpclient.Client, paging bool, pctx feed.Context) *Paginator {
	return &Paginator{client: client, paging: paging, pctx: pctx}
}

// Pages yields the raw page bodies of query in cursor order. Iteration stops
// at the first error, which is yielded with a nil page. With paging
// disabled a single unmodified request is made.
func (p *Paginator) Pages(ctx context.Context, query string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if !p.paging {
			data, err := p.client.Get(ctx, query)
			yield(data, err)
			return
		}

		cursor := "0"
		for {
			url := query + "&next_cursor=" + cursor
			data, err := p.client.Get(ctx, url)
			if err != nil {
				yield(nil, err)
				return
			}

			count, next, err := p.readMeta(url, data)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(data, nil) {
				return
			}
			if count == 0 {
				return
			}
			cursor = next
		}
	}
}

// FetchAll drains Pages into memory.
func (p *Paginator) FetchAll(ctx context.Context, query string) ([][]byte, error) {
	var pages [][]byte
	for page, err := range p.Pages(ctx, query) {
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (p *Paginator) readMeta(url string, data []byte) (int, string, error) {
	var doc pageMeta
	if err := xml.Unmarshal(data, &doc); err != nil {
		return 0, "", p.pctx.Fail(methodOf(url), err)
	}
	if doc.Meta == nil || doc.Meta.Count == nil {
		return 0, "", &domain.PagingProtocolError{URL: url, Reason: "page has no count"}
	}
	count, err := strconv.Atoi(strings.TrimSpace(*doc.Meta.Count))
	if err != nil {
		return 0, "", &domain.PagingProtocolError{URL: url, Reason: "count is not an integer: " + *doc.Meta.Count}
	}
	if count == 0 {
		return 0, "", nil
	}

	for _, l := range doc.Meta.Links {
		if l.Rel != "next" {
			continue
		}
		if c, ok := cursorOf(l.Href); ok {
			return count, c, nil
		}
	}
	return 0, "", &domain.PagingProtocolError{URL: url, Reason: "page has no next cursor"}
}

// cursorOf extracts the next_cursor value from a next link.
func cursorOf(href string) (string, bool) {
	for part := range strings.SplitSeq(href, "&") {
		k, v, ok := strings.Cut(part, "=")
		if ok && strings.HasSuffix(k, "next_cursor") && v != "" {
			return v, true
		}
	}
	return "", false
}

// methodOf names a gocdbpi query by its method parameter, for error reports.
func methodOf(query string) string {
	_, rest, ok := strings.Cut(query, "method=")
	if !ok {
		return query
	}
	method, _, _ := strings.Cut(rest, "&")
	return method
}
