package provider

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/httpclient"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// Topology is everything one provider registry harvest yields.
type Topology struct {
	Providers  []domain.Provider
	Resources  []domain.Resource
	Extensions []domain.Extension
	Contacts   []domain.ContactRecord
}

type Source struct {
	client        httpclient.Client
	providersURL  string
	resourcesURL  string
	extensionsURL string
	parser        *Parser
}

// NewSource reads providers and resources, plus extensions when
// extensionsURL is set.
func NewSource(client httpclient.Client, providersURL, resourcesURL, extensionsURL string, pctx feed.Context) *Source {
	return &Source{
		client:        client,
		providersURL:  providersURL,
		resourcesURL:  resourcesURL,
		extensionsURL: extensionsURL,
		parser:        NewParser(pctx),
	}
}

func (s *Source) Parser() *Parser { return s.parser }

// Fetch downloads the feeds concurrently and parses them. Resource contacts
// come from the resources feed itself.
func (s *Source) Fetch(ctx context.Context) (*Topology, error) {
	var providers, resources, extensions []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		providers, err = s.client.Get(gctx, s.providersURL)
		return err
	})
	g.Go(func() (err error) {
		resources, err = s.client.Get(gctx, s.resourcesURL)
		return err
	})
	if s.extensionsURL != "" {
		g.Go(func() (err error) {
			extensions, err = s.client.Get(gctx, s.extensionsURL)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		topo Topology
		err  error
	)
	if topo.Providers, err = s.parser.ParseProviders(providers); err != nil {
		return nil, err
	}
	if topo.Resources, err = s.parser.ParseResources(resources); err != nil {
		return nil, err
	}
	if topo.Contacts, err = s.parser.ParseResourceContacts(resources); err != nil {
		return nil, err
	}
	if extensions != nil {
		if topo.Extensions, err = s.parser.ParseExtensions(extensions); err != nil {
			return nil, err
		}
	}
	return &topo, nil
}
