package flat

import (
	"context"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/httpclient"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

type Source struct {
	client httpclient.Client
	url    string
	isCSV  bool
	parser *Parser
}

func NewSource(client httpclient.Client, url string, isCSV bool, pctx feed.Context) *Source {
	return &Source{client: client, url: url, isCSV: isCSV, parser: NewParser(pctx)}
}

func (s *Source) Parser() *Parser { return s.parser }

// Fetch downloads the feed once and returns its entries and contacts.
func (s *Source) Fetch(ctx context.Context, uid bool) ([]domain.FlatEntry, []domain.ContactRecord, error) {
	data, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.parser.ParseEndpoints(data, s.isCSV)
	if err != nil {
		return nil, nil, err
	}
	contacts, err := s.parser.ParseContacts(data, s.isCSV, uid)
	if err != nil {
		return nil, nil, err
	}
	return entries, contacts, nil
}
