package gocdb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deksa89/argo-connectors/internal/domain"
)

func TestParseSiteContacts(t *testing.T) {
	contacts, err := testParser().ParseSiteContacts(fixture(t, "site_contacts.xml"))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, 5, len(contacts[0].Contacts)+len(contacts[1].Contacts))

	assert.Equal(t, "Site1", contacts[0].Name)
	assert.Equal(t, domain.Contact{
		CertDN:   "/C=HR/O=CROGRID/O=SRCE/CN=Name1 Surname1",
		Email:    "Name1.Surname1@email.hr",
		Forename: "Name1",
		Surname:  "Surname1",
		Role:     "Site Security Officer",
	}, contacts[0].Contacts[0])

	// contact without surname
	assert.Equal(t, domain.Contact{
		CertDN:   "/C=HR/O=CROGRID/O=SRCE/CN=Name3 Surname3",
		Email:    "Name3.Surname3@email.hr",
		Forename: "Name3",
		Surname:  "",
		Role:     "Site Administrator",
	}, contacts[1].Contacts[1])
}

func TestParseSiteContactsMalformed(t *testing.T) {
	_, err := testParser().ParseSiteContacts([]byte("wrong mocked data"))
	var perr *domain.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, FeedSiteContacts, perr.Feed)
}

func TestParseRocContacts(t *testing.T) {
	contacts, err := testParser().ParseRocContacts(fixture(t, "roc_contacts.xml"))
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "CERN", contacts[0].Name)
	assert.Equal(t, []string{"Name1.Surname1@example.com", "Name2.Surname2@example.com"}, contacts[0].Emails())
	assert.Equal(t, "NGI Security Officer", contacts[0].Contacts[1].Role)
}

func TestParseSitesWithContacts(t *testing.T) {
	contacts, err := testParser().ParseSitesWithContacts(fixture(t, "sites.xml"))
	require.NoError(t, err)
	assert.Equal(t, []domain.ContactRecord{
		{Name: "RAL-LCG2", Contacts: domain.EmailContacts("lcg-support@gridpp.rl.ac.uk")},
		{Name: "INFN-BARI", Contacts: domain.EmailContacts("name1.surname1@ba.infn.it")},
	}, contacts)
}

func TestParseServiceEndpointContacts(t *testing.T) {
	contacts, err := testParser().ParseServiceEndpointContacts(fixture(t, "service_endpoint_with_contacts.xml"), false)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	assert.Equal(t, domain.ContactRecord{
		Name:     "some.fqdn.com+service.type",
		Contacts: domain.EmailContacts("contact@email.com"),
	}, contacts[0])
	assert.Equal(t, domain.ContactRecord{
		Name:     "some.fqdn2.com+service.type2",
		Contacts: domain.EmailContacts("contact1@email.com", "contact2@email.com", "contact3@email.com"),
	}, contacts[2])
}

func TestParseServiceEndpointContactsUID(t *testing.T) {
	contacts, err := testParser().ParseServiceEndpointContacts(fixture(t, "service_endpoint_with_contacts.xml"), true)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	assert.Equal(t, "some.fqdn.com_100G0+service.type", contacts[0].Name)
}

func TestParseServiceEndpointContactsNone(t *testing.T) {
	contacts, err := testParser().ParseServiceEndpointContacts(fixture(t, "service_endpoint.xml"), false)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestParseServiceGroupRoles(t *testing.T) {
	contacts, err := testParser().ParseServiceGroupRoles(fixture(t, "service_group_roles.xml"))
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "GROUP1", contacts[0].Name)
	assert.Equal(t, []string{"grid-admin@example.com"}, contacts[0].Emails())
	assert.Equal(t, "Service Group Administrator", contacts[0].Contacts[0].Role)
}

func TestParseServiceGroupWithContacts(t *testing.T) {
	contacts, err := testParser().ParseServiceGroupWithContacts(fixture(t, "service_group.xml"))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, domain.ContactRecord{
		Name:     "B2FIND-Askeladden",
		Contacts: domain.EmailContacts("name1.surname1@email.com"),
	}, contacts[1])
}
