// Package topology turns parsed registry records into the two published
// hierarchies: group-of-groups and group-of-endpoints.
package topology

import (
	"cmp"
	"slices"
	"strings"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// ResourceService is the service name given to provider resources, which
// are monitored through their web page.
const ResourceService = "eu.eosc.portal.services.url"

// Inventory is the parsed output of one run. Any part may be empty.
type Inventory struct {
	Sites         *domain.RecordMap[domain.Site]
	Endpoints     *domain.RecordMap[domain.ServiceEndpoint]
	ServiceGroups *domain.RecordMap[domain.ServiceGroup]
	Providers     []domain.Provider
	Resources     []domain.Resource
	Extensions    []domain.Extension
	Flat          []domain.FlatEntry
}

type Options struct {
	Customer            string // group of PROJECT records
	UIDServiceEndpoints bool   // suffix hostnames with the registry id
	PassExtensions      bool   // copy endpoint extensions into info_ext_* tags
	Scope               string // scope tag for sources that carry no scopes
}

type Assembler struct {
	opts Options
}

func NewAssembler(opts Options) *Assembler {
	return &Assembler{opts: opts}
}

// GroupOfGroups emits service groups in registry order, then sites stably
// sorted by NGI, then provider resources, then flat groups.
func (a *Assembler) GroupOfGroups(inv Inventory) []domain.GroupRecord {
	var out []domain.GroupRecord

	for _, g := range inv.ServiceGroups.Values() {
		out = append(out, domain.GroupRecord{
			Type:     domain.GroupTypeProject,
			Group:    a.opts.Customer,
			Subgroup: g.Name,
			Tags: map[string]string{
				"monitored": domain.NormalizeFlag(g.Monitored),
				"scope":     domain.RenderScope(g.Scopes),
			},
		})
	}

	sites := inv.Sites.Values()
	slices.SortStableFunc(sites, func(x, y *domain.Site) int { return cmp.Compare(x.NGI, y.NGI) })
	for _, s := range sites {
		out = append(out, domain.GroupRecord{
			Type:     domain.GroupTypeNGI,
			Group:    s.NGI,
			Subgroup: s.Name,
			Tags: map[string]string{
				"certification":  s.Certification,
				"scope":          domain.RenderScope(s.Scopes),
				"infrastructure": s.Infrastructure,
			},
		})
	}

	for _, p := range inv.Providers {
		for _, r := range inv.Resources {
			if r.ProviderID != p.ID {
				continue
			}
			tags := map[string]string{"info_projectname": p.Abbreviation}
			if len(p.Tags) > 0 {
				tags["provider_tags"] = strings.Join(p.Tags, ", ")
			}
			out = append(out, domain.GroupRecord{
				Type:     domain.GroupTypeProject,
				Group:    p.ID,
				Subgroup: r.ID,
				Tags:     tags,
			})
		}
	}

	seen := make(map[string]bool)
	for _, e := range inv.Flat {
		if seen[e.Group] {
			continue
		}
		seen[e.Group] = true
		out = append(out, domain.GroupRecord{
			Type:     domain.GroupTypeProject,
			Group:    a.opts.Customer,
			Subgroup: e.Group,
			Tags:     map[string]string{"monitored": "1", "scope": a.opts.Scope},
		})
	}

	return out
}

// GroupOfEndpoints emits service group members, then site endpoints stably
// sorted by site, then provider resources and extensions, then flat rows.
// Every record carries a scope tag.
func (a *Assembler) GroupOfEndpoints(inv Inventory) []domain.EndpointRecord {
	var out []domain.EndpointRecord
	uid := a.opts.UIDServiceEndpoints

	for _, g := range inv.ServiceGroups.Values() {
		for _, s := range g.Services {
			out = append(out, domain.EndpointRecord{
				Type:     domain.EndpointTypeServiceGroups,
				Group:    g.Name,
				Service:  s.ServiceType,
				Hostname: domain.UIDHostname(s.Hostname, s.ID, uid),
				Tags: map[string]string{
					"scope":      domain.RenderScope(s.Scopes),
					"monitored":  domain.NormalizeFlag(s.Monitored),
					"production": domain.NormalizeFlag(s.Production),
				},
			})
		}
	}

	endpoints := inv.Endpoints.Values()
	slices.SortStableFunc(endpoints, func(x, y *domain.ServiceEndpoint) int { return cmp.Compare(x.Site, y.Site) })
	for _, e := range endpoints {
		out = append(out, domain.EndpointRecord{
			Type:     domain.EndpointTypeSites,
			Group:    e.Site,
			Service:  e.ServiceType,
			Hostname: domain.UIDHostname(e.Hostname, e.ID, uid),
			Tags:     a.siteEndpointTags(e),
		})
	}

	for _, r := range inv.Resources {
		host := feed.FQDN(r.Webpage)
		tags := map[string]string{
			"scope":          a.opts.Scope,
			"info_URL":       r.Webpage,
			"info_ID":        r.ID,
			"info_groupname": r.Name,
		}
		if len(r.Tags) > 0 {
			tags["service_tags"] = strings.Join(r.Tags, ", ")
		}
		if uid {
			tags["hostname"] = host
		}
		out = append(out, domain.EndpointRecord{
			Type:     domain.EndpointTypeServiceGroups,
			Group:    r.ID,
			Service:  ResourceService,
			Hostname: domain.UIDHostname(host, r.ID, uid),
			Tags:     tags,
		})
	}

	for _, x := range inv.Extensions {
		for _, mg := range x.Groups {
			host := extensionHost(mg.Endpoint)
			tags := map[string]string{
				"scope":    a.opts.Scope,
				"info_URL": mg.Endpoint,
				"info_ID":  x.ID,
			}
			if uid {
				tags["hostname"] = host
			}
			out = append(out, domain.EndpointRecord{
				Type:     domain.EndpointTypeServiceGroups,
				Group:    x.ServiceID,
				Service:  mg.ServiceType,
				Hostname: domain.UIDHostname(host, x.ID, uid),
				Tags:     tags,
			})
		}
	}

	for _, e := range inv.Flat {
		host := feed.FQDN(e.URL)
		tags := map[string]string{
			"scope":     a.opts.Scope,
			"monitored": "1",
			"info_ID":   e.UID,
			"info_URL":  e.URL,
		}
		if uid {
			tags["hostname"] = host
		}
		out = append(out, domain.EndpointRecord{
			Type:     domain.EndpointTypeServiceGroups,
			Group:    e.Group,
			Service:  e.ServiceType,
			Hostname: domain.UIDHostname(host, e.UID, uid),
			Tags:     tags,
		})
	}

	return out
}

func (a *Assembler) siteEndpointTags(e *domain.ServiceEndpoint) map[string]string {
	tags := map[string]string{
		"scope":      domain.RenderScope(e.Scopes),
		"monitored":  domain.NormalizeFlag(e.Monitored),
		"production": domain.NormalizeFlag(e.Production),
		"info_ID":    e.ID,
	}
	if e.HostDN != "" {
		tags["info_HOSTDN"] = e.HostDN
	}
	if e.URL != "" {
		tags["info_URL"] = e.URL
	}
	if len(e.EndpointURLs) > 0 {
		tags["info_service_endpoint_URL"] = strings.Join(e.EndpointURLs, ", ")
	}
	if a.opts.PassExtensions {
		for _, kv := range e.Extensions {
			tags["info_ext_"+kv.Key] = kv.Value
		}
	}
	return tags
}

// extensionHost reduces URL endpoints to their host and keeps bare host
// names as given.
func extensionHost(endpoint string) string {
	if strings.Contains(endpoint, "http") {
		return feed.FQDN(endpoint)
	}
	return endpoint
}
