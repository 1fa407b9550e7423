package feed

import (
	"encoding/xml"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deksa89/argo-connectors/internal/domain"
)

func TestScopeSetValues(t *testing.T) {
	var doc struct {
		Scopes *ScopeSet `xml:"SCOPES"`
	}
	require.NoError(t, xml.Unmarshal([]byte(`<SITE><SCOPES><SCOPE>EGI</SCOPE><SCOPE>wlcg</SCOPE><SCOPE>atlas</SCOPE></SCOPES></SITE>`), &doc))
	assert.Equal(t, []string{"EGI", "wlcg", "atlas"}, doc.Scopes.Values())

	var empty struct {
		Scopes *ScopeSet `xml:"SCOPES"`
	}
	require.NoError(t, xml.Unmarshal([]byte(`<SITE/>`), &empty))
	assert.Nil(t, empty.Scopes.Values())
}

func TestRequired(t *testing.T) {
	v := "grid13.gsi.de"
	got, err := Required("HOSTNAME", &v)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Required("HOSTNAME", nil)
	assert.EqualError(t, err, "missing required element HOSTNAME")
	assert.Equal(t, "", Optional(nil))
}

func TestFQDN(t *testing.T) {
	tests := map[string]string{
		"https://eosc.grnet.gr/":               "eosc.grnet.gr",
		"https://b2access.eudat.eu:8443/oauth": "b2access.eudat.eu:8443",
		"no-scheme.example.org":                "",
		"":                                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FQDN(in), in)
	}
}

func TestSplitEmails(t *testing.T) {
	assert.Equal(t, []string{"a@x.org", "b@x.org", "c@x.org"}, SplitEmails("a@x.org; b@x.org,c@x.org;"))
	assert.Empty(t, SplitEmails(""))
}

func TestContextFail(t *testing.T) {
	ctx := Context{Customer: "EGI", Job: "EGI_Critical"}
	err := ctx.Fail("service endpoints", errors.New("boom"))

	var perr *domain.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "EGI", perr.Customer)
	assert.Equal(t, "EGI_Critical", perr.Job)
	assert.Equal(t, "service endpoints", perr.Feed)
}
