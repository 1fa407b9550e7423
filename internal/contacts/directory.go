// Package contacts attaches notification contacts to assembled topology
// records.
package contacts

import (
	"github.com/deksa89/argo-connectors/internal/domain"
)

// Directory maps a contact name to its emails in feed order.
type Directory struct {
	emails map[string][]string
}

// NewDirectory indexes records by name. A name seen twice keeps the later
// record. Records without any email are ignored.
func NewDirectory(records []domain.ContactRecord) *Directory {
	d := &Directory{emails: make(map[string][]string, len(records))}
	for _, r := range records {
		emails := r.Emails()
		if len(emails) == 0 {
			continue
		}
		d.emails[r.Name] = emails
	}
	return d
}

func (d *Directory) Len() int { return len(d.emails) }

func (d *Directory) Lookup(name string) ([]string, bool) {
	e, ok := d.emails[name]
	return e, ok
}

// AttachGroups sets notifications on every group whose subgroup has
// contacts and returns the number of hits. Calling it again yields the same
// records.
func (d *Directory) AttachGroups(groups []domain.GroupRecord) int {
	hits := 0
	for i := range groups {
		if n := d.notifications(groups[i].Subgroup); n != nil {
			groups[i].Notifications = n
			hits++
		}
	}
	return hits
}

// AttachEndpoints is AttachGroups for endpoints, keyed by hostname+service.
func (d *Directory) AttachEndpoints(endpoints []domain.EndpointRecord) int {
	hits := 0
	for i := range endpoints {
		key := domain.EndpointKey(endpoints[i].Hostname, endpoints[i].Service)
		if n := d.notifications(key); n != nil {
			endpoints[i].Notifications = n
			hits++
		}
	}
	return hits
}

func (d *Directory) notifications(name string) *domain.Notifications {
	emails, ok := d.emails[name]
	if !ok {
		return nil
	}
	return &domain.Notifications{
		Contacts: append([]string(nil), emails...),
		Enabled:  true,
	}
}
