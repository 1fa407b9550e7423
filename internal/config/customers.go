package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topology source types.
const (
	SourceGOCDB    = "gocdb"
	SourceProvider = "provider"
	SourceFlat     = "flat"
)

// GOCDB fetch types.
const (
	FetchSites         = "sites"
	FetchServiceGroups = "servicegroups"
)

// Contact methods. The default ("") fetches the dedicated contact feeds;
// the *_with_contacts methods read CONTACT_EMAIL from the topology pages.
const (
	ContactsSitesWithContacts         = "sites_with_contacts"
	ContactsServiceGroupsWithContacts = "service_groups_with_contacts"
)

// Customers is the decoded customers.yaml.
type Customers struct {
	Customers []Customer `yaml:"customers"`
}

type Customer struct {
	Name      string `yaml:"name"`
	OutputDir string `yaml:"output_dir"`
	Auth      Auth   `yaml:"auth"`
	WebAPI    WebAPI `yaml:"webapi"`
	Jobs      []Job  `yaml:"jobs"`
}

type Job struct {
	Name         string        `yaml:"name"`
	Topology     Topology      `yaml:"topology"`
	Contacts     Flag          `yaml:"contacts"`
	ServiceTypes *ServiceTypes `yaml:"service_types"`
	Auth         *Auth         `yaml:"auth"`
	WebAPI       *WebAPI       `yaml:"webapi"`
}

type Topology struct {
	Type string `yaml:"type"` // gocdb | provider | flat
	Feed string `yaml:"feed"` // gocdb base URL or flat feed URL

	// gocdb
	FetchType      string `yaml:"fetch_type"` // sites | servicegroups
	Paging         Flag   `yaml:"paging"`
	ContactsMethod string `yaml:"contacts_method"`

	// provider
	ProvidersFeed  string `yaml:"providers_feed"`
	ResourcesFeed  string `yaml:"resources_feed"`
	ExtensionsFeed string `yaml:"extensions_feed"`

	// flat
	Format string `yaml:"format"` // csv | json

	UIDServiceEndpoints Flag   `yaml:"uid_service_endpoints"`
	PassExtensions      Flag   `yaml:"pass_extensions"`
	Scope               string `yaml:"scope"`
}

type ServiceTypes struct {
	Feed        string `yaml:"feed"`
	Format      string `yaml:"format"` // xml | csv | json
	InitialSync Flag   `yaml:"initial_sync"`
}

type Auth struct {
	ClientCert       string  `yaml:"client_cert"`
	ClientKey        string  `yaml:"client_key"`
	CAFile           string  `yaml:"ca_file"`
	VerifyServerCert *Flag   `yaml:"verify_server_cert"`
	Username         string  `yaml:"username"`
	Password         string  `yaml:"password"`
	BearerToken      string  `yaml:"bearer_token"`
	OAuth2           *OAuth2 `yaml:"oauth2"`
}

type OAuth2 struct {
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

type WebAPI struct {
	Host  string `yaml:"host"`
	Token string `yaml:"token"`
}

// LoadCustomers reads and validates the customers file.
func LoadCustomers(path string) (*Customers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read customers file: %w", err)
	}
	return ParseCustomers(data)
}

func ParseCustomers(data []byte) (*Customers, error) {
	var c Customers
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse customers yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the whole file and reports every problem found.
func (c *Customers) Validate() error {
	var errs []error
	if len(c.Customers) == 0 {
		errs = append(errs, errors.New("no customers defined"))
	}

	seenCust := make(map[string]bool)
	for _, cust := range c.Customers {
		if cust.Name == "" {
			errs = append(errs, errors.New("customer without name"))
			continue
		}
		if seenCust[cust.Name] {
			errs = append(errs, fmt.Errorf("customer %s defined twice", cust.Name))
		}
		seenCust[cust.Name] = true

		seenJob := make(map[string]bool)
		for _, job := range cust.Jobs {
			if job.Name == "" {
				errs = append(errs, fmt.Errorf("customer %s: job without name", cust.Name))
				continue
			}
			if seenJob[job.Name] {
				errs = append(errs, fmt.Errorf("customer %s: job %s defined twice", cust.Name, job.Name))
			}
			seenJob[job.Name] = true
			if err := job.validate(); err != nil {
				errs = append(errs, fmt.Errorf("customer %s job %s: %w", cust.Name, job.Name, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid customers file: %w", errors.Join(errs...))
	}
	return nil
}

func (j Job) validate() error {
	t := j.Topology
	switch t.Type {
	case SourceGOCDB:
		if t.Feed == "" {
			return errors.New("topology.feed is required")
		}
		if t.FetchType != FetchSites && t.FetchType != FetchServiceGroups {
			return fmt.Errorf("topology.fetch_type must be %q or %q, got %q", FetchSites, FetchServiceGroups, t.FetchType)
		}
		if m := t.ContactsMethod; m != "" && m != ContactsSitesWithContacts && m != ContactsServiceGroupsWithContacts {
			return fmt.Errorf("unknown topology.contacts_method %q", m)
		}
	case SourceProvider:
		if t.ProvidersFeed == "" || t.ResourcesFeed == "" {
			return errors.New("topology.providers_feed and topology.resources_feed are required")
		}
	case SourceFlat:
		if t.Feed == "" {
			return errors.New("topology.feed is required")
		}
		if t.Format != "csv" && t.Format != "json" {
			return fmt.Errorf("topology.format must be csv or json, got %q", t.Format)
		}
	default:
		return fmt.Errorf("unknown topology.type %q", t.Type)
	}

	if st := j.ServiceTypes; st != nil {
		if st.Feed == "" {
			return errors.New("service_types.feed is required")
		}
		if !slices.Contains([]string{"xml", "csv", "json"}, st.Format) {
			return fmt.Errorf("service_types.format must be xml, csv or json, got %q", st.Format)
		}
	}
	return nil
}

// Find returns the customer and job with the given names.
func (c *Customers) Find(customer, job string) (Customer, Job, error) {
	for _, cust := range c.Customers {
		if cust.Name != customer {
			continue
		}
		for _, j := range cust.Jobs {
			if j.Name == job {
				return cust, j, nil
			}
		}
		return Customer{}, Job{}, fmt.Errorf("customer %s has no job %s", customer, job)
	}
	return Customer{}, Job{}, fmt.Errorf("unknown customer %s", customer)
}

// Filter keeps only the named customers. An empty list keeps everything.
func (c *Customers) Filter(names []string) *Customers {
	if len(names) == 0 {
		return c
	}
	out := &Customers{}
	for _, cust := range c.Customers {
		if slices.ContainsFunc(names, func(n string) bool { return strings.EqualFold(n, cust.Name) }) {
			out.Customers = append(out.Customers, cust)
		}
	}
	return out
}

// EffectiveAuth returns the job auth when set, the customer auth otherwise.
func (cu Customer) EffectiveAuth(j Job) Auth {
	if j.Auth != nil {
		return *j.Auth
	}
	return cu.Auth
}

// EffectiveWebAPI layers job settings over customer settings over process defaults.
func (cu Customer) EffectiveWebAPI(j Job, defaults WebAPI) WebAPI {
	out := defaults
	for _, w := range []*WebAPI{&cu.WebAPI, j.WebAPI} {
		if w == nil {
			continue
		}
		if w.Host != "" {
			out.Host = w.Host
		}
		if w.Token != "" {
			out.Token = w.Token
		}
	}
	return out
}
