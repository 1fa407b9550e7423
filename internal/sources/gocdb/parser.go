// Package gocdb reads the GOCDB registry XML API: paging, topology and
// contact parsers, service types.
package gocdb

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/logger"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// Feed names used in parse errors.
const (
	FeedSites         = "sites"
	FeedEndpoints     = "service endpoints"
	FeedServiceGroups = "service groups"
	FeedSiteContacts  = "site contacts"
	FeedRocContacts   = "roc contacts"
	FeedGroupRoles    = "service group roles"
	FeedServiceTypes  = "service types"
)

// Parser decodes gocdbpi pages into canonical records. Each Parse* call
// handles one page; records accumulate in the passed map so that later pages
// overwrite earlier values of the same key.
type Parser struct {
	pctx feed.Context
}

func NewParser(pctx feed.Context) *Parser {
	return &Parser{pctx: pctx}
}

func (p *Parser) decode(feedName string, page []byte, v any) error {
	if err := xml.Unmarshal(page, v); err != nil {
		return p.pctx.Fail(feedName, err)
	}
	return nil
}

// ParseSites reads SITE elements keyed by the NAME attribute.
func (p *Parser) ParseSites(page []byte, sites *domain.RecordMap[domain.Site]) error {
	var doc sitesDoc
	if err := p.decode(FeedSites, page, &doc); err != nil {
		return err
	}

	for _, el := range doc.Sites {
		infra, err1 := feed.Required("PRODUCTION_INFRASTRUCTURE", el.Infrastructure)
		cert, err2 := feed.Required("CERTIFICATION_STATUS", el.Certification)
		roc, err3 := feed.Required("ROC", el.ROC)
		if err := errors.Join(err1, err2, err3); err != nil {
			return p.pctx.Fail(FeedSites, fmt.Errorf("site %q: %w", el.Name, err))
		}

		s, _ := sites.Upsert(el.Name)
		s.Name = el.Name
		s.Infrastructure = infra
		s.Certification = cert
		s.NGI = roc
		s.Scopes = el.Scopes.Values()
	}
	return nil
}

// ParseServiceEndpoints reads SERVICE_ENDPOINT elements keyed by the
// PRIMARY_KEY attribute. Endpoints without one all share the empty key, so
// only the last of them survives; each such collision is logged.
func (p *Parser) ParseServiceEndpoints(page []byte, endpoints *domain.RecordMap[domain.ServiceEndpoint]) error {
	var doc endpointsDoc
	if err := p.decode(FeedEndpoints, page, &doc); err != nil {
		return err
	}

	for _, el := range doc.Endpoints {
		host, err1 := feed.Required("HOSTNAME", el.Hostname)
		stype, err2 := feed.Required("SERVICE_TYPE", el.ServiceType)
		mon, err3 := feed.Required("NODE_MONITORED", el.Monitored)
		prod, err4 := feed.Required("IN_PRODUCTION", el.Production)
		site, err5 := feed.Required("SITENAME", el.SiteName)
		roc, err6 := feed.Required("ROC_NAME", el.ROCName)
		if err := errors.Join(err1, err2, err3, err4, err5, err6); err != nil {
			return p.pctx.Fail(FeedEndpoints, fmt.Errorf("service endpoint %q: %w", el.PrimaryKey, err))
		}

		e, existed := endpoints.Upsert(el.PrimaryKey)
		if existed && el.PrimaryKey == "" {
			p.pctx.Warn("service endpoint without primary key overwrites previous one",
				logger.String("hostname", host),
				logger.String("service_type", stype))
		}
		e.ID = el.PrimaryKey
		e.Hostname = host
		e.ServiceType = stype
		e.Monitored = mon
		e.Production = prod
		e.Site = site
		e.NGI = roc
		e.Scopes = el.Scopes.Values()
		e.HostDN = feed.Optional(el.HostDN)
		e.URL = feed.Optional(el.URL)
		e.SortID = host + "-" + stype + "-" + site

		e.EndpointURLs = e.EndpointURLs[:0]
		for _, u := range el.Endpoints {
			if u.URL != "" {
				e.EndpointURLs = append(e.EndpointURLs, u.URL)
			}
		}
		e.Extensions = e.Extensions[:0]
		for _, x := range el.Extensions {
			e.Extensions = append(e.Extensions, domain.KeyValue{Key: x.Key, Value: x.Value})
		}
	}
	return nil
}

// ParseServiceGroups reads SERVICE_GROUP elements keyed by PRIMARY_KEY. A
// repeated group replaces its member list rather than extending it.
func (p *Parser) ParseServiceGroups(page []byte, groups *domain.RecordMap[domain.ServiceGroup]) error {
	var doc groupsDoc
	if err := p.decode(FeedServiceGroups, page, &doc); err != nil {
		return err
	}

	for _, el := range doc.Groups {
		name, err1 := feed.Required("NAME", el.Name)
		mon, err2 := feed.Required("MONITORED", el.Monitored)
		if err := errors.Join(err1, err2); err != nil {
			return p.pctx.Fail(FeedServiceGroups, fmt.Errorf("service group %q: %w", el.PrimaryKey, err))
		}

		members := make([]domain.GroupService, 0, len(el.Members))
		for _, m := range el.Members {
			svc, err := member(m)
			if err != nil {
				return p.pctx.Fail(FeedServiceGroups, fmt.Errorf("service group %q: %w", name, err))
			}
			members = append(members, svc)
		}

		g, _ := groups.Upsert(el.PrimaryKey)
		g.ID = el.PrimaryKey
		g.Name = name
		g.Monitored = mon
		g.Scopes = el.Scopes.Values()
		g.Services = members
	}
	return nil
}

func member(m memberElem) (domain.GroupService, error) {
	host, err1 := feed.Required("HOSTNAME", m.Hostname)
	stype, err2 := feed.Required("SERVICE_TYPE", m.ServiceType)
	mon, err3 := feed.Required("NODE_MONITORED", m.Monitored)
	prod, err4 := feed.Required("IN_PRODUCTION", m.Production)
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return domain.GroupService{}, err
	}

	id := m.PrimaryKeyAttr
	if m.PrimaryKey != nil {
		id = *m.PrimaryKey
	}
	return domain.GroupService{
		ID:          id,
		Hostname:    host,
		ServiceType: stype,
		Monitored:   mon,
		Production:  prod,
		Scopes:      m.Scopes.Values(),
	}, nil
}
