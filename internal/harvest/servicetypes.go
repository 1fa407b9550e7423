package harvest

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
	"github.com/deksa89/argo-connectors/internal/sources/flat"
	"github.com/deksa89/argo-connectors/internal/sources/gocdb"
	"github.com/deksa89/argo-connectors/internal/webapi"
)

// serviceTypes fetches the source catalog and, unless this is the initial
// sync, the POEM entries already in the web API. The merged list is sorted
// by name ignoring case.
func (r *Runner) serviceTypes(ctx context.Context, rn *run) (*domain.Snapshot, error) {
	st := rn.Job.ServiceTypes
	pctx := feed.Context{Customer: rn.Customer.Name, Job: rn.Job.Name, Log: rn.log}

	var source, poem []domain.ServiceType
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		url := st.Feed
		if st.Format == "xml" && !strings.Contains(url, "method=") {
			url = strings.TrimRight(url, "/") + gocdb.MethodServiceTypesAPI
		}
		data, err := r.fetcher(rn, "service-types").Get(gctx, url)
		if err != nil {
			return err
		}
		if st.Format == "xml" {
			source, err = gocdb.NewParser(pctx).ParseServiceTypes(data)
		} else {
			source, err = flat.NewParser(pctx).ParseServiceTypes(data, st.Format == "csv")
		}
		return err
	})

	if !st.InitialSync.Bool() {
		g.Go(func() error {
			wa := r.webAPI(rn)
			var err error
			poem, err = webapi.New(rn.client, wa.Host, wa.Token, rn.Date, rn.log).ServiceTypes(gctx, webapi.TagPOEM)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := append(source, poem...)
	slices.SortStableFunc(merged, func(a, b domain.ServiceType) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return &domain.Snapshot{ServiceTypes: merged}, nil
}
