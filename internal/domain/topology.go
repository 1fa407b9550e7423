package domain

// Group-of-groups record types.
const (
	GroupTypeNGI     = "NGI"
	GroupTypeProject = "PROJECT"
)

// Group-of-endpoints record types.
const (
	EndpointTypeSites         = "SITES"
	EndpointTypeServiceGroups = "SERVICEGROUPS"
)

// GroupRecord is one row of the group-of-groups hierarchy.
type GroupRecord struct {
	Type          string            `json:"type"`
	Group         string            `json:"group"`
	Subgroup      string            `json:"subgroup"`
	Tags          map[string]string `json:"tags"`
	Notifications *Notifications    `json:"notifications,omitempty"`
}

// EndpointRecord is one row of the group-of-endpoints hierarchy.
type EndpointRecord struct {
	Type          string            `json:"type"`
	Group         string            `json:"group"`
	Service       string            `json:"service"`
	Hostname      string            `json:"hostname"`
	Tags          map[string]string `json:"tags"`
	Notifications *Notifications    `json:"notifications,omitempty"`
}

type Notifications struct {
	Contacts []string `json:"contacts"`
	Enabled  bool     `json:"enabled"`
}

// ContactRecord lists the contacts of one named entity. Name is the merge key:
// hostname+service for endpoints, the bare name for groups.
type ContactRecord struct {
	Name     string    `json:"name"`
	Contacts []Contact `json:"contacts"`
}

// Contact is either a structured registry contact or just an email.
type Contact struct {
	CertDN   string `json:"certdn,omitempty"`
	Email    string `json:"email"`
	Forename string `json:"forename,omitempty"`
	Surname  string `json:"surname,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Emails returns the contact emails in feed order, skipping blanks.
func (c ContactRecord) Emails() []string {
	out := make([]string, 0, len(c.Contacts))
	for _, ct := range c.Contacts {
		if ct.Email != "" {
			out = append(out, ct.Email)
		}
	}
	return out
}

// EmailContacts wraps plain addresses as contacts.
func EmailContacts(emails ...string) []Contact {
	out := make([]Contact, 0, len(emails))
	for _, e := range emails {
		out = append(out, Contact{Email: e})
	}
	return out
}

// ServiceType is one entry of a service-type catalog.
type ServiceType struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}
