package gocdb

import (
	"fmt"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// TagConnectors marks service types harvested from a registry feed.
const TagConnectors = "connectors"

// ParseServiceTypes reads get_service_types.
func (p *Parser) ParseServiceTypes(page []byte) ([]domain.ServiceType, error) {
	var doc serviceTypesDoc
	if err := p.decode(FeedServiceTypes, page, &doc); err != nil {
		return nil, err
	}
	out := make([]domain.ServiceType, 0, len(doc.Types))
	for i, t := range doc.Types {
		name, err := feed.Required("SERVICE_TYPE_NAME", t.Name)
		if err != nil {
			return nil, p.pctx.Fail(FeedServiceTypes, fmt.Errorf("service type #%d: %w", i, err))
		}
		out = append(out, domain.ServiceType{
			Name:        name,
			Description: t.Description,
			Tags:        []string{TagConnectors},
		})
	}
	return out, nil
}
