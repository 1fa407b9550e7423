package domain

// Site is an administrative site from the registry site feed.
type Site struct {
	Name           string
	NGI            string
	Certification  string
	Infrastructure string
	Scopes         []string
}

// ServiceEndpoint is one monitorable service instance.
type ServiceEndpoint struct {
	ID           string // registry primary key, "" when the feed has none
	Hostname     string
	ServiceType  string
	Site         string
	NGI          string
	Monitored    string // raw registry value, see NormalizeFlag
	Production   string // raw registry value, see NormalizeFlag
	Scopes       []string
	HostDN       string
	URL          string
	EndpointURLs []string
	Extensions   []KeyValue
	SortID       string // hostname-servicetype-site, ordering aid only
}

// ServiceGroup is a named bundle of endpoints.
type ServiceGroup struct {
	ID        string
	Name      string
	Monitored string
	Scopes    []string
	Services  []GroupService
}

// GroupService is a member endpoint of a ServiceGroup.
type GroupService struct {
	ID          string
	Hostname    string
	ServiceType string
	Monitored   string
	Production  string
	Scopes      []string
}

type KeyValue struct {
	Key   string
	Value string
}

// Provider is an organisation owning resources in the provider registry.
type Provider struct {
	ID           string
	Name         string
	Abbreviation string
	Website      string
	Tags         []string
}

// Resource is a service published in the provider registry.
type Resource struct {
	ID          string
	Name        string
	ProviderID  string
	Webpage     string
	Description string
	Tags        []string
}

// Extension carries monitoring-group overrides for a resource.
type Extension struct {
	ID        string
	ServiceID string
	Groups    []MonitoringGroup
}

type MonitoringGroup struct {
	ServiceType string
	Endpoint    string
}

// FlatEntry is one row of a flat CSV/JSON topology feed.
type FlatEntry struct {
	Group        string
	ServiceType  string
	URL          string
	ContactEmail string
	UID          string
}
