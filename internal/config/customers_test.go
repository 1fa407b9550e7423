package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customersYAML = `
customers:
  - name: EGI
    output_dir: /var/lib/argo-connectors/EGI
    auth:
      client_cert: /etc/grid-security/hostcert.pem
      client_key: /etc/grid-security/hostkey.pem
    webapi:
      token: customer-token
    jobs:
      - name: EGI_Critical
        contacts: "True"
        topology:
          type: gocdb
          feed: https://goc.egi.eu
          fetch_type: sites
          paging: yes
          uid_service_endpoints: "false"
          pass_extensions: true
          scope: EGI
        service_types:
          feed: https://goc.egi.eu/gocdbpi/public/?method=get_service_types
          format: xml
      - name: EGI_Cloud
        topology:
          type: gocdb
          feed: https://goc.egi.eu
          fetch_type: servicegroups
        webapi:
          host: api.devel.argo.grnet.gr
  - name: EOSC
    jobs:
      - name: EOSC_Marketplace
        topology:
          type: provider
          providers_feed: https://api.eosc-portal.eu/provider/all
          resources_feed: https://api.eosc-portal.eu/resource/all
          uid_service_endpoints: on
`

func TestParseCustomers(t *testing.T) {
	c, err := ParseCustomers([]byte(customersYAML))
	require.NoError(t, err)
	require.Len(t, c.Customers, 2)

	cust, job, err := c.Find("EGI", "EGI_Critical")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/argo-connectors/EGI", cust.OutputDir)
	assert.True(t, job.Contacts.Bool())
	assert.True(t, job.Topology.Paging.Bool())
	assert.False(t, job.Topology.UIDServiceEndpoints.Bool())
	assert.True(t, job.Topology.PassExtensions.Bool())
	require.NotNil(t, job.ServiceTypes)
	assert.Equal(t, "xml", job.ServiceTypes.Format)

	_, eosc, err := c.Find("EOSC", "EOSC_Marketplace")
	require.NoError(t, err)
	assert.True(t, eosc.Topology.UIDServiceEndpoints.Bool())
}

func TestParseCustomersRejectsLooseBooleans(t *testing.T) {
	data := `
customers:
  - name: EGI
    jobs:
      - name: job
        contacts: "1 == 1"
        topology: {type: gocdb, feed: https://goc.egi.eu, fetch_type: sites}
`
	_, err := ParseCustomers([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid boolean")
}

func TestParseCustomersValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no customers",
			yaml:    "customers: []",
			wantErr: "no customers defined",
		},
		{
			name: "unknown type",
			yaml: `
customers:
  - name: A
    jobs:
      - name: j
        topology: {type: ldap}
`,
			wantErr: `unknown topology.type "ldap"`,
		},
		{
			name: "gocdb without fetch type",
			yaml: `
customers:
  - name: A
    jobs:
      - name: j
        topology: {type: gocdb, feed: https://goc.example.org}
`,
			wantErr: "topology.fetch_type",
		},
		{
			name: "flat without format",
			yaml: `
customers:
  - name: A
    jobs:
      - name: j
        topology: {type: flat, feed: https://example.org/topo.csv}
`,
			wantErr: "topology.format",
		},
		{
			name: "duplicate job",
			yaml: `
customers:
  - name: A
    jobs:
      - name: j
        topology: {type: flat, feed: https://example.org/topo.csv, format: csv}
      - name: j
        topology: {type: flat, feed: https://example.org/topo.csv, format: csv}
`,
			wantErr: "job j defined twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCustomers([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCustomersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customersYAML), 0o644))

	c, err := LoadCustomers(path)
	require.NoError(t, err)
	assert.Len(t, c.Customers, 2)

	_, err = LoadCustomers(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEffectiveSettings(t *testing.T) {
	c, err := ParseCustomers([]byte(customersYAML))
	require.NoError(t, err)

	cust, cloud, err := c.Find("EGI", "EGI_Cloud")
	require.NoError(t, err)

	w := cust.EffectiveWebAPI(cloud, WebAPI{Host: "api.argo.grnet.gr", Token: "default"})
	assert.Equal(t, "api.devel.argo.grnet.gr", w.Host)
	assert.Equal(t, "customer-token", w.Token)

	auth := cust.EffectiveAuth(cloud)
	assert.Equal(t, "/etc/grid-security/hostcert.pem", auth.ClientCert)
}

func TestFilterCustomers(t *testing.T) {
	c, err := ParseCustomers([]byte(customersYAML))
	require.NoError(t, err)

	assert.Len(t, c.Filter(nil).Customers, 2)
	only := c.Filter([]string{"eosc"})
	require.Len(t, only.Customers, 1)
	assert.Equal(t, "EOSC", only.Customers[0].Name)

	_, _, err = c.Find("EGI", "missing")
	assert.Error(t, err)
	_, _, err = c.Find("missing", "job")
	assert.Error(t, err)
}
