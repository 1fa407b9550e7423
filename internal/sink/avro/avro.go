// Package avro writes batches as Avro object container files, one file
// per record kind and date.
package avro

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamba/avro/v2/ocf"

	"github.com/deksa89/argo-connectors/internal/domain"
)

const groupGroupsSchema = `{
  "namespace": "argo.avro",
  "type": "record",
  "name": "GroupGroups",
  "fields": [
    {"name": "type", "type": "string"},
    {"name": "group", "type": "string"},
    {"name": "subgroup", "type": "string"},
    {"name": "tags", "type": {"type": "map", "values": "string"}},
    {"name": "notifications", "type": ["null", {
      "type": "record",
      "name": "Notifications",
      "fields": [
        {"name": "contacts", "type": {"type": "array", "items": "string"}},
        {"name": "enabled", "type": "boolean"}
      ]
    }], "default": null}
  ]
}`

const groupEndpointsSchema = `{
  "namespace": "argo.avro",
  "type": "record",
  "name": "GroupEndpoints",
  "fields": [
    {"name": "type", "type": "string"},
    {"name": "group", "type": "string"},
    {"name": "service", "type": "string"},
    {"name": "hostname", "type": "string"},
    {"name": "tags", "type": {"type": "map", "values": "string"}},
    {"name": "notifications", "type": ["null", {
      "type": "record",
      "name": "Notifications",
      "fields": [
        {"name": "contacts", "type": {"type": "array", "items": "string"}},
        {"name": "enabled", "type": "boolean"}
      ]
    }], "default": null}
  ]
}`

const serviceTypesSchema = `{
  "namespace": "argo.avro",
  "type": "record",
  "name": "ServiceTypes",
  "fields": [
    {"name": "name", "type": "string"},
    {"name": "description", "type": "string"},
    {"name": "tags", "type": {"type": "array", "items": "string"}}
  ]
}`

// File kinds.
const (
	KindGroupGroups    = "group_groups"
	KindGroupEndpoints = "group_endpoints"
	KindServiceTypes   = "service_types"
)

type notifications struct {
	Contacts []string `avro:"contacts"`
	Enabled  bool     `avro:"enabled"`
}

type groupRow struct {
	Type          string            `avro:"type"`
	Group         string            `avro:"group"`
	Subgroup      string            `avro:"subgroup"`
	Tags          map[string]string `avro:"tags"`
	Notifications *notifications    `avro:"notifications"`
}

type endpointRow struct {
	Type          string            `avro:"type"`
	Group         string            `avro:"group"`
	Service       string            `avro:"service"`
	Hostname      string            `avro:"hostname"`
	Tags          map[string]string `avro:"tags"`
	Notifications *notifications    `avro:"notifications"`
}

type serviceTypeRow struct {
	Name        string   `avro:"name"`
	Description string   `avro:"description"`
	Tags        []string `avro:"tags"`
}

// Writer writes batch files under dir.
type Writer struct {
	dir string
}

func New(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Name() string { return "avro" }

// Path returns <dir>/<kind>_<YYYY_MM_DD>.avro.
func (w *Writer) Path(kind, date string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.avro", kind, strings.ReplaceAll(date, "-", "_")))
}

func (w *Writer) Publish(_ context.Context, b *domain.Snapshot) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if b.Task == domain.TaskServiceTypes {
		rows := make([]serviceTypeRow, 0, len(b.ServiceTypes))
		for _, st := range b.ServiceTypes {
			rows = append(rows, serviceTypeRow{Name: st.Name, Description: st.Description, Tags: orEmpty(st.Tags)})
		}
		return write(w.Path(KindServiceTypes, b.Date), serviceTypesSchema, rows)
	}

	groups := make([]groupRow, 0, len(b.Groups))
	for _, g := range b.Groups {
		groups = append(groups, groupRow{
			Type: g.Type, Group: g.Group, Subgroup: g.Subgroup,
			Tags: g.Tags, Notifications: fromDomain(g.Notifications),
		})
	}
	if err := write(w.Path(KindGroupGroups, b.Date), groupGroupsSchema, groups); err != nil {
		return err
	}

	endpoints := make([]endpointRow, 0, len(b.Endpoints))
	for _, e := range b.Endpoints {
		endpoints = append(endpoints, endpointRow{
			Type: e.Type, Group: e.Group, Service: e.Service, Hostname: e.Hostname,
			Tags: e.Tags, Notifications: fromDomain(e.Notifications),
		})
	}
	return write(w.Path(KindGroupEndpoints, b.Date), groupEndpointsSchema, endpoints)
}

func fromDomain(n *domain.Notifications) *notifications {
	if n == nil {
		return nil
	}
	return &notifications{Contacts: orEmpty(n.Contacts), Enabled: n.Enabled}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// write encodes rows into a temp file and renames it over path.
func write[T any](path, schema string, rows []T) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".avro-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc, err := ocf.NewEncoder(schema, tmp)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to create avro encoder: %w", err)
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
		}
	}
	if err := enc.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s in place: %w", filepath.Base(path), err)
	}
	return nil
}
