package gocdb

import (
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// Every gocdbpi method answers with a <results> document. The root name is
// not checked so that test fixtures and proxies may rename it.

type pageMeta struct {
	Meta *struct {
		Count *string    `xml:"count"`
		Links []linkElem `xml:"link"`
	} `xml:"meta"`
}

type linkElem struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type sitesDoc struct {
	Sites []siteElem `xml:"SITE"`
}

type siteElem struct {
	Name           string         `xml:"NAME,attr"`
	Infrastructure *string        `xml:"PRODUCTION_INFRASTRUCTURE"`
	Certification  *string        `xml:"CERTIFICATION_STATUS"`
	ROC            *string        `xml:"ROC"`
	ContactEmail   *string        `xml:"CONTACT_EMAIL"`
	Scopes         *feed.ScopeSet `xml:"SCOPES"`
	Contacts       []contactElem  `xml:"CONTACT"`
}

type endpointsDoc struct {
	Endpoints []endpointElem `xml:"SERVICE_ENDPOINT"`
}

type endpointElem struct {
	PrimaryKey   string         `xml:"PRIMARY_KEY,attr"`
	Hostname     *string        `xml:"HOSTNAME"`
	ServiceType  *string        `xml:"SERVICE_TYPE"`
	Monitored    *string        `xml:"NODE_MONITORED"`
	Production   *string        `xml:"IN_PRODUCTION"`
	SiteName     *string        `xml:"SITENAME"`
	ROCName      *string        `xml:"ROC_NAME"`
	HostDN       *string        `xml:"HOSTDN"`
	URL          *string        `xml:"URL"`
	ContactEmail *string        `xml:"CONTACT_EMAIL"`
	Scopes       *feed.ScopeSet `xml:"SCOPES"`
	Endpoints    []struct {
		URL string `xml:"URL"`
	} `xml:"ENDPOINTS>ENDPOINT"`
	Extensions []struct {
		Key   string `xml:"KEY"`
		Value string `xml:"VALUE"`
	} `xml:"EXTENSIONS>EXTENSION"`
}

type groupsDoc struct {
	Groups []groupElem `xml:"SERVICE_GROUP"`
}

type groupElem struct {
	PrimaryKey   string         `xml:"PRIMARY_KEY,attr"`
	Name         *string        `xml:"NAME"`
	Monitored    *string        `xml:"MONITORED"`
	ContactEmail *string        `xml:"CONTACT_EMAIL"`
	Scopes       *feed.ScopeSet `xml:"SCOPES"`
	Members      []memberElem   `xml:"SERVICE_ENDPOINT"`
	Users        []userElem     `xml:"USER"`
}

type memberElem struct {
	PrimaryKeyAttr string         `xml:"PRIMARY_KEY,attr"`
	PrimaryKey     *string        `xml:"PRIMARY_KEY"`
	Hostname       *string        `xml:"HOSTNAME"`
	ServiceType    *string        `xml:"SERVICE_TYPE"`
	Monitored      *string        `xml:"NODE_MONITORED"`
	Production     *string        `xml:"IN_PRODUCTION"`
	Scopes         *feed.ScopeSet `xml:"SCOPES"`
}

type contactElem struct {
	CertDN   string  `xml:"CERTDN"`
	Email    string  `xml:"EMAIL"`
	Forename string  `xml:"FORENAME"`
	Surname  *string `xml:"SURNAME"`
	Role     string  `xml:"ROLE_NAME"`
}

type userElem struct {
	CertDN   string `xml:"CERTDN"`
	Email    string `xml:"EMAIL"`
	Forename string `xml:"FORENAME"`
	Surname  string `xml:"SURNAME"`
	Role     string `xml:"ROLE_NAME"`
}

type rocsDoc struct {
	ROCs []struct {
		Name     string        `xml:"ROCNAME,attr"`
		Contacts []contactElem `xml:"CONTACT"`
	} `xml:"ROC"`
}

type serviceTypesDoc struct {
	Types []struct {
		Name        *string `xml:"SERVICE_TYPE_NAME"`
		Description string  `xml:"SERVICE_TYPE_DESC"`
	} `xml:"SERVICE_TYPE"`
}
