package gocdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// fakeClient answers from a fixed list of bodies and records requested URLs.
type fakeClient struct {
	bodies []string
	urls   []string
	err    error
}

func (f *fakeClient) Get(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.urls) > len(f.bodies) {
		return nil, fmt.Errorf("unexpected request %d to %s", len(f.urls), url)
	}
	return []byte(f.bodies[len(f.urls)-1]), nil
}

func pagedBody(count int, next string) string {
	link := ""
	if next != "" {
		link = fmt.Sprintf(`<link rel="next" href="https://goc.example.org/gocdbpi/private/?method=get_site&amp;next_cursor=%s"/>`, next)
	}
	return fmt.Sprintf(`<results><meta><link rel="self" href="https://goc.example.org/x"/>%s<count>%d</count><max_page_size>5</max_page_size></meta></results>`, link, count)
}

const siteQuery = "https://goc.example.org/gocdbpi/private/?method=get_site&scope="

func TestPagesFollowsCursorUntilEmptyPage(t *testing.T) {
	client := &fakeClient{bodies: []string{
		pagedBody(5, "105"),
		pagedBody(5, "230"),
		pagedBody(5, "377"),
		pagedBody(0, ""),
	}}
	p := NewPaginator(client, true, feed.Context{})

	pages, err := p.FetchAll(context.Background(), siteQuery)
	require.NoError(t, err)
	assert.Len(t, pages, 4)
	assert.Equal(t, []string{
		siteQuery + "&next_cursor=0",
		siteQuery + "&next_cursor=105",
		siteQuery + "&next_cursor=230",
		siteQuery + "&next_cursor=377",
	}, client.urls)
}

func TestPagesSingleEmptyPage(t *testing.T) {
	client := &fakeClient{bodies: []string{pagedBody(0, "")}}
	pages, err := NewPaginator(client, true, feed.Context{}).FetchAll(context.Background(), siteQuery)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	assert.Len(t, client.urls, 1)
}

func TestPagesWithoutPaging(t *testing.T) {
	client := &fakeClient{bodies: []string{`<results/>`}}
	pages, err := NewPaginator(client, false, feed.Context{}).FetchAll(context.Background(), siteQuery)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	assert.Equal(t, []string{siteQuery}, client.urls)
}

func TestPagesProtocolViolations(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{name: "no meta", body: `<results><SITE NAME="x"/></results>`, reason: "page has no count"},
		{name: "no count", body: `<results><meta><link rel="next" href="?next_cursor=1"/></meta></results>`, reason: "page has no count"},
		{name: "bad count", body: `<results><meta><count>many</count></meta></results>`, reason: "count is not an integer"},
		{name: "no next", body: pagedBody(5, ""), reason: "page has no next cursor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{bodies: []string{tt.body}}
			_, err := NewPaginator(client, true, feed.Context{}).FetchAll(context.Background(), siteQuery)

			var perr *domain.PagingProtocolError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.True(t, strings.HasPrefix(perr.Reason, tt.reason), perr.Reason)
			assert.Len(t, client.urls, 1)
		})
	}
}

func TestPagesMalformedPage(t *testing.T) {
	client := &fakeClient{bodies: []string{"<results><meta>"}}
	_, err := NewPaginator(client, true, feed.Context{Customer: "EGI", Job: "EGI_Critical"}).FetchAll(context.Background(), siteQuery)

	var perr *domain.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "get_site", perr.Feed)
}

func TestPagesTransportFailure(t *testing.T) {
	boom := &domain.TransportError{URL: siteQuery, Err: errors.New("connection refused")}
	client := &fakeClient{err: boom}
	_, err := NewPaginator(client, true, feed.Context{}).FetchAll(context.Background(), siteQuery)
	assert.ErrorIs(t, err, boom)
}

func TestPagesStopsWhenConsumerBreaks(t *testing.T) {
	client := &fakeClient{bodies: []string{pagedBody(5, "1"), pagedBody(5, "2")}}
	p := NewPaginator(client, true, feed.Context{})
	for range p.Pages(context.Background(), siteQuery) {
		break
	}
	assert.Len(t, client.urls, 1)
}

func TestCursorOf(t *testing.T) {
	c, ok := cursorOf("https://goc.egi.eu/gocdbpi/private/?method=get_service_endpoint&next_cursor=1234&scope=")
	assert.True(t, ok)
	assert.Equal(t, "1234", c)

	_, ok = cursorOf("https://goc.egi.eu/gocdbpi/private/?method=get_service_endpoint")
	assert.False(t, ok)
}
