// Package provider reads a service-catalogue provider registry: providers,
// their resources, monitoring extensions and resource helpdesk contacts.
package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// Feed names used in parse errors.
const (
	FeedProviders  = "providers"
	FeedResources  = "resources"
	FeedExtensions = "resource extensions"
	FeedContacts   = "resource contacts"
)

type Parser struct {
	pctx feed.Context
}

func NewParser(pctx feed.Context) *Parser {
	return &Parser{pctx: pctx}
}

// results validates data and returns its "results" array.
func (p *Parser) results(feedName string, data []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, p.pctx.Fail(feedName, errors.New("invalid JSON document"))
	}
	res := gjson.GetBytes(data, "results")
	if !res.IsArray() {
		return nil, p.pctx.Fail(feedName, errors.New("results is missing or not an array"))
	}
	return res.Array(), nil
}

func (p *Parser) ParseProviders(data []byte) ([]domain.Provider, error) {
	items, err := p.results(FeedProviders, data)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Provider, 0, len(items))
	for i, it := range items {
		id, err1 := requiredString(it, "id")
		name, err2 := requiredString(it, "name")
		abbr, err3 := requiredString(it, "abbreviation")
		site, err4 := requiredString(it, "website")
		if err := errors.Join(err1, err2, err3, err4); err != nil {
			return nil, p.pctx.Fail(FeedProviders, fmt.Errorf("provider #%d: %w", i, err))
		}
		out = append(out, domain.Provider{
			ID:           id,
			Name:         name,
			Abbreviation: abbr,
			Website:      site,
			Tags:         tags(it.Get("tags")),
		})
	}
	return out, nil
}

func (p *Parser) ParseResources(data []byte) ([]domain.Resource, error) {
	items, err := p.results(FeedResources, data)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Resource, 0, len(items))
	for i, it := range items {
		id, err1 := requiredString(it, "id")
		name, err2 := requiredString(it, "name")
		org, err3 := requiredString(it, "resourceOrganisation")
		page, err4 := requiredString(it, "webpage")
		if err := errors.Join(err1, err2, err3, err4); err != nil {
			return nil, p.pctx.Fail(FeedResources, fmt.Errorf("resource #%d: %w", i, err))
		}
		out = append(out, domain.Resource{
			ID:          id,
			Name:        name,
			ProviderID:  org,
			Webpage:     page,
			Description: it.Get("description").String(),
			Tags:        tags(it.Get("tags")),
		})
	}
	return out, nil
}

func (p *Parser) ParseExtensions(data []byte) ([]domain.Extension, error) {
	items, err := p.results(FeedExtensions, data)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Extension, 0, len(items))
	for i, it := range items {
		ext, err := extension(it)
		if err != nil {
			return nil, p.pctx.Fail(FeedExtensions, fmt.Errorf("extension #%d: %w", i, err))
		}
		out = append(out, ext)
	}
	return out, nil
}

func extension(it gjson.Result) (domain.Extension, error) {
	id, err1 := requiredString(it, "id")
	svc, err2 := requiredString(it, "serviceId")
	groups := it.Get("monitoringGroups")
	var err3 error
	if !groups.IsArray() {
		err3 = errors.New("monitoringGroups is missing or not an array")
	}
	if err := errors.Join(err1, err2, err3); err != nil {
		return domain.Extension{}, err
	}

	ext := domain.Extension{ID: id, ServiceID: svc}
	for _, g := range groups.Array() {
		stype, err1 := requiredString(g, "serviceType")
		endpoint, err2 := requiredString(g, "endpoint")
		if err := errors.Join(err1, err2); err != nil {
			return domain.Extension{}, fmt.Errorf("extension %s: %w", id, err)
		}
		ext.Groups = append(ext.Groups, domain.MonitoringGroup{ServiceType: stype, Endpoint: endpoint})
	}
	return ext, nil
}

// ParseResourceContacts names each resource fqdn(webpage)+id and lists its
// helpdesk addresses. Resources without any are skipped.
func (p *Parser) ParseResourceContacts(data []byte) ([]domain.ContactRecord, error) {
	items, err := p.results(FeedContacts, data)
	if err != nil {
		return nil, err
	}
	var out []domain.ContactRecord
	for i, it := range items {
		id, err1 := requiredString(it, "id")
		page, err2 := requiredString(it, "webpage")
		if err := errors.Join(err1, err2); err != nil {
			return nil, p.pctx.Fail(FeedContacts, fmt.Errorf("resource #%d: %w", i, err))
		}
		emails := helpdeskEmails(it)
		if len(emails) == 0 {
			continue
		}
		out = append(out, domain.ContactRecord{
			Name:     feed.FQDN(page) + "+" + id,
			Contacts: domain.EmailContacts(emails...),
		})
	}
	return out, nil
}

// helpdeskEmails looks at the helpdesk fields older and newer catalogue
// versions use, falling back to the main contact.
func helpdeskEmails(it gjson.Result) []string {
	for _, path := range []string{"helpdeskEmail", "helpdeskEmails", "helpdesk.emails", "mainContact.email"} {
		v := it.Get(path)
		var emails []string
		switch {
		case v.IsArray():
			for _, e := range v.Array() {
				emails = append(emails, feed.SplitEmails(e.String())...)
			}
		case v.Type == gjson.String:
			emails = feed.SplitEmails(v.String())
		}
		if len(emails) > 0 {
			return emails
		}
	}
	return nil
}

func requiredString(obj gjson.Result, key string) (string, error) {
	v := obj.Get(key)
	if !v.Exists() {
		return "", fmt.Errorf("missing required field %s", key)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("field %s is %s, want string", key, v.Type)
	}
	return v.String(), nil
}

// tags returns a trimmed tag list; anything but an array of strings yields nil.
func tags(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, t := range v.Array() {
		if t.Type == gjson.String {
			out = append(out, strings.TrimSpace(t.String()))
		}
	}
	return out
}
