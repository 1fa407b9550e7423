package gocdb

import (
	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// ParseSiteContacts reads get_site_contacts: structured contacts per site.
func (p *Parser) ParseSiteContacts(page []byte) ([]domain.ContactRecord, error) {
	var doc sitesDoc
	if err := p.decode(FeedSiteContacts, page, &doc); err != nil {
		return nil, err
	}
	out := make([]domain.ContactRecord, 0, len(doc.Sites))
	for _, s := range doc.Sites {
		out = append(out, domain.ContactRecord{Name: s.Name, Contacts: structured(s.Contacts)})
	}
	return out, nil
}

// ParseRocContacts reads get_roc_contacts: structured contacts per NGI.
func (p *Parser) ParseRocContacts(page []byte) ([]domain.ContactRecord, error) {
	var doc rocsDoc
	if err := p.decode(FeedRocContacts, page, &doc); err != nil {
		return nil, err
	}
	out := make([]domain.ContactRecord, 0, len(doc.ROCs))
	for _, r := range doc.ROCs {
		out = append(out, domain.ContactRecord{Name: r.Name, Contacts: structured(r.Contacts)})
	}
	return out, nil
}

// ParseSitesWithContacts reads the CONTACT_EMAIL of get_site pages.
func (p *Parser) ParseSitesWithContacts(page []byte) ([]domain.ContactRecord, error) {
	var doc sitesDoc
	if err := p.decode(FeedSites, page, &doc); err != nil {
		return nil, err
	}
	var out []domain.ContactRecord
	for _, s := range doc.Sites {
		if emails := feed.SplitEmails(feed.Optional(s.ContactEmail)); len(emails) > 0 {
			out = append(out, domain.ContactRecord{Name: s.Name, Contacts: domain.EmailContacts(emails...)})
		}
	}
	return out, nil
}

// ParseServiceEndpointContacts reads the CONTACT_EMAIL of get_service_endpoint
// pages, named hostname+service type. With uid the hostname carries the
// PRIMARY_KEY suffix the assembler gives endpoint records. Endpoints without
// emails are skipped, so a feed without any yields an empty list.
func (p *Parser) ParseServiceEndpointContacts(page []byte, uid bool) ([]domain.ContactRecord, error) {
	var doc endpointsDoc
	if err := p.decode(FeedEndpoints, page, &doc); err != nil {
		return nil, err
	}
	var out []domain.ContactRecord
	for _, e := range doc.Endpoints {
		emails := feed.SplitEmails(feed.Optional(e.ContactEmail))
		if len(emails) == 0 {
			continue
		}
		host := domain.UIDHostname(feed.Optional(e.Hostname), e.PrimaryKey, uid)
		name := domain.EndpointKey(host, feed.Optional(e.ServiceType))
		out = append(out, domain.ContactRecord{Name: name, Contacts: domain.EmailContacts(emails...)})
	}
	return out, nil
}

// ParseServiceGroupRoles reads get_service_group_role: the users holding a
// role in each group.
func (p *Parser) ParseServiceGroupRoles(page []byte) ([]domain.ContactRecord, error) {
	var doc groupsDoc
	if err := p.decode(FeedGroupRoles, page, &doc); err != nil {
		return nil, err
	}
	var out []domain.ContactRecord
	for _, g := range doc.Groups {
		var contacts []domain.Contact
		for _, u := range g.Users {
			if u.Email == "" {
				continue
			}
			contacts = append(contacts, domain.Contact{
				CertDN:   u.CertDN,
				Email:    u.Email,
				Forename: u.Forename,
				Surname:  u.Surname,
				Role:     u.Role,
			})
		}
		if len(contacts) > 0 {
			out = append(out, domain.ContactRecord{Name: feed.Optional(g.Name), Contacts: contacts})
		}
	}
	return out, nil
}

// ParseServiceGroupWithContacts reads the CONTACT_EMAIL of get_service_group
// pages.
func (p *Parser) ParseServiceGroupWithContacts(page []byte) ([]domain.ContactRecord, error) {
	var doc groupsDoc
	if err := p.decode(FeedServiceGroups, page, &doc); err != nil {
		return nil, err
	}
	var out []domain.ContactRecord
	for _, g := range doc.Groups {
		if emails := feed.SplitEmails(feed.Optional(g.ContactEmail)); len(emails) > 0 {
			out = append(out, domain.ContactRecord{Name: feed.Optional(g.Name), Contacts: domain.EmailContacts(emails...)})
		}
	}
	return out, nil
}

func structured(in []contactElem) []domain.Contact {
	out := make([]domain.Contact, 0, len(in))
	for _, c := range in {
		out = append(out, domain.Contact{
			CertDN:   c.CertDN,
			Email:    c.Email,
			Forename: c.Forename,
			Surname:  feed.Optional(c.Surname),
			Role:     c.Role,
		})
	}
	return out
}
