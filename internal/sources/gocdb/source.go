package gocdb

import (
	"context"
	"strings"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/httpclient"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// gocdbpi methods. The scope value is appended; an empty scope means all.
const (
	methodSites           = "/gocdbpi/private/?method=get_site&scope="
	methodEndpoints       = "/gocdbpi/private/?method=get_service_endpoint&scope="
	methodServiceGroups   = "/gocdbpi/private/?method=get_service_group&scope="
	methodSiteContacts    = "/gocdbpi/private/?method=get_site_contacts&scope="
	methodRocContacts     = "/gocdbpi/private/?method=get_roc_contacts"
	methodGroupRoles      = "/gocdbpi/private/?method=get_service_group_role&scope="
	MethodServiceTypesAPI = "/gocdbpi/public/?method=get_service_types"
)

// Source fetches and parses one registry for one job.
type Source struct {
	base   string
	scope  string
	pages  *Paginator
	parser *Parser
}

func NewSource(client httpclient.Client, baseURL, scope string, paging bool, pctx feed.Context) *Source {
	return &Source{
		base:   strings.TrimRight(baseURL, "/"),
		scope:  scope,
		pages:  NewPaginator(client, paging, pctx),
		parser: NewParser(pctx),
	}
}

func (s *Source) Parser() *Parser { return s.parser }

func (s *Source) query(method string, scoped bool) string {
	if scoped {
		return s.base + method + s.scope
	}
	return s.base + method
}

func (s *Source) each(ctx context.Context, query string, fn func([]byte) error) error {
	for page, err := range s.pages.Pages(ctx, query) {
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

// Sites returns the sites and the CONTACT_EMAIL contacts found on the same pages.
func (s *Source) Sites(ctx context.Context) (*domain.RecordMap[domain.Site], []domain.ContactRecord, error) {
	sites := domain.NewRecordMap[domain.Site]()
	var contacts []domain.ContactRecord
	err := s.each(ctx, s.query(methodSites, true), func(page []byte) error {
		if err := s.parser.ParseSites(page, sites); err != nil {
			return err
		}
		c, err := s.parser.ParseSitesWithContacts(page)
		contacts = append(contacts, c...)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return sites, contacts, nil
}

// ServiceEndpoints returns the endpoints and their CONTACT_EMAIL contacts,
// keyed the way uid mode names the endpoint records.
func (s *Source) ServiceEndpoints(ctx context.Context, uid bool) (*domain.RecordMap[domain.ServiceEndpoint], []domain.ContactRecord, error) {
	endpoints := domain.NewRecordMap[domain.ServiceEndpoint]()
	var contacts []domain.ContactRecord
	err := s.each(ctx, s.query(methodEndpoints, true), func(page []byte) error {
		if err := s.parser.ParseServiceEndpoints(page, endpoints); err != nil {
			return err
		}
		c, err := s.parser.ParseServiceEndpointContacts(page, uid)
		contacts = append(contacts, c...)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return endpoints, contacts, nil
}

// ServiceGroups returns the service groups and their CONTACT_EMAIL contacts.
func (s *Source) ServiceGroups(ctx context.Context) (*domain.RecordMap[domain.ServiceGroup], []domain.ContactRecord, error) {
	groups := domain.NewRecordMap[domain.ServiceGroup]()
	var contacts []domain.ContactRecord
	err := s.each(ctx, s.query(methodServiceGroups, true), func(page []byte) error {
		if err := s.parser.ParseServiceGroups(page, groups); err != nil {
			return err
		}
		c, err := s.parser.ParseServiceGroupWithContacts(page)
		contacts = append(contacts, c...)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return groups, contacts, nil
}

func (s *Source) SiteContacts(ctx context.Context) ([]domain.ContactRecord, error) {
	return s.contacts(ctx, s.query(methodSiteContacts, true), s.parser.ParseSiteContacts)
}

func (s *Source) RocContacts(ctx context.Context) ([]domain.ContactRecord, error) {
	return s.contacts(ctx, s.query(methodRocContacts, false), s.parser.ParseRocContacts)
}

func (s *Source) ServiceGroupRoles(ctx context.Context) ([]domain.ContactRecord, error) {
	return s.contacts(ctx, s.query(methodGroupRoles, true), s.parser.ParseServiceGroupRoles)
}

func (s *Source) contacts(ctx context.Context, query string, parse func([]byte) ([]domain.ContactRecord, error)) ([]domain.ContactRecord, error) {
	var out []domain.ContactRecord
	err := s.each(ctx, query, func(page []byte) error {
		c, err := parse(page)
		out = append(out, c...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
