package harvest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/deksa89/argo-connectors/internal/config"
	"github.com/deksa89/argo-connectors/internal/contacts"
	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/logger"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
	"github.com/deksa89/argo-connectors/internal/sources/flat"
	"github.com/deksa89/argo-connectors/internal/sources/gocdb"
	"github.com/deksa89/argo-connectors/internal/sources/provider"
	"github.com/deksa89/argo-connectors/internal/topology"
)

func (r *Runner) topology(ctx context.Context, rn *run) (*domain.Snapshot, error) {
	t := rn.Job.Topology
	withContacts := rn.Job.Contacts.Bool()
	pctx := feed.Context{Customer: rn.Customer.Name, Job: rn.Job.Name, Log: rn.log}

	var (
		inv topology.Inventory
		cs  []domain.ContactRecord
		err error
	)
	switch t.Type {
	case config.SourceGOCDB:
		inv, cs, err = r.fetchGOCDB(ctx, rn, pctx, withContacts)
	case config.SourceProvider:
		inv, cs, err = r.fetchProvider(ctx, rn, pctx)
	case config.SourceFlat:
		inv, cs, err = r.fetchFlat(ctx, rn, pctx)
	default:
		err = fmt.Errorf("unknown topology type %q", t.Type)
	}
	if err != nil {
		return nil, err
	}

	asm := topology.NewAssembler(topology.Options{
		Customer:            rn.Customer.Name,
		UIDServiceEndpoints: t.UIDServiceEndpoints.Bool(),
		PassExtensions:      t.PassExtensions.Bool(),
		Scope:               t.Scope,
	})
	snap := &domain.Snapshot{
		Groups:    asm.GroupOfGroups(inv),
		Endpoints: asm.GroupOfEndpoints(inv),
	}

	if withContacts {
		dir := contacts.NewDirectory(cs)
		groupHits := dir.AttachGroups(snap.Groups)
		endpointHits := dir.AttachEndpoints(snap.Endpoints)
		snap.Contacts = cs
		rn.log.Info("contacts merged",
			logger.Int("contacts", dir.Len()),
			logger.Int("groups_with_contacts", groupHits),
			logger.Int("endpoints_with_contacts", endpointHits))
	}
	return snap, nil
}

// fetchGOCDB runs the topology feeds and the contact feeds side by side.
// Any failure cancels the others.
func (r *Runner) fetchGOCDB(ctx context.Context, rn *run, pctx feed.Context, withContacts bool) (topology.Inventory, []domain.ContactRecord, error) {
	t := rn.Job.Topology
	src := gocdb.NewSource(r.fetcher(rn, config.SourceGOCDB), t.Feed, t.Scope, t.Paging.Bool(), pctx)

	var (
		inv              topology.Inventory
		pageContacts     []domain.ContactRecord // CONTACT_EMAIL on group pages
		endpointContacts []domain.ContactRecord
		feedContacts     []domain.ContactRecord // dedicated contact feeds
	)
	g, gctx := errgroup.WithContext(ctx)

	switch t.FetchType {
	case config.FetchSites:
		g.Go(func() error {
			var err error
			inv.Sites, pageContacts, err = src.Sites(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			inv.Endpoints, endpointContacts, err = src.ServiceEndpoints(gctx, t.UIDServiceEndpoints.Bool())
			return err
		})
		if withContacts && t.ContactsMethod != config.ContactsSitesWithContacts {
			g.Go(func() error {
				site, err := src.SiteContacts(gctx)
				if err != nil {
					return err
				}
				// NGI keyed, so listed in the snapshot but never attached to a site
				roc, err := src.RocContacts(gctx)
				feedContacts = append(site, roc...)
				return err
			})
		}
	case config.FetchServiceGroups:
		g.Go(func() error {
			var err error
			inv.ServiceGroups, pageContacts, err = src.ServiceGroups(gctx)
			return err
		})
		if withContacts && t.ContactsMethod != config.ContactsServiceGroupsWithContacts {
			g.Go(func() error {
				var err error
				feedContacts, err = src.ServiceGroupRoles(gctx)
				return err
			})
		}
	default:
		return inv, nil, fmt.Errorf("unknown gocdb fetch type %q", t.FetchType)
	}

	if err := g.Wait(); err != nil {
		return topology.Inventory{}, nil, err
	}
	if !withContacts {
		return inv, nil, nil
	}

	groupContacts := feedContacts
	if t.ContactsMethod == config.ContactsSitesWithContacts || t.ContactsMethod == config.ContactsServiceGroupsWithContacts {
		groupContacts = pageContacts
	}
	return inv, append(groupContacts, endpointContacts...), nil
}

func (r *Runner) fetchProvider(ctx context.Context, rn *run, pctx feed.Context) (topology.Inventory, []domain.ContactRecord, error) {
	t := rn.Job.Topology
	src := provider.NewSource(r.fetcher(rn, config.SourceProvider), t.ProvidersFeed, t.ResourcesFeed, t.ExtensionsFeed, pctx)
	topo, err := src.Fetch(ctx)
	if err != nil {
		return topology.Inventory{}, nil, err
	}
	return topology.Inventory{
		Providers:  topo.Providers,
		Resources:  topo.Resources,
		Extensions: topo.Extensions,
	}, topo.Contacts, nil
}

func (r *Runner) fetchFlat(ctx context.Context, rn *run, pctx feed.Context) (topology.Inventory, []domain.ContactRecord, error) {
	t := rn.Job.Topology
	src := flat.NewSource(r.fetcher(rn, config.SourceFlat), t.Feed, t.Format == "csv", pctx)
	entries, cs, err := src.Fetch(ctx, t.UIDServiceEndpoints.Bool())
	if err != nil {
		return topology.Inventory{}, nil, err
	}
	return topology.Inventory{Flat: entries}, cs, nil
}
