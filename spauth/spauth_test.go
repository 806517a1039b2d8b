package spauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_MissingConfiguration(t *testing.T) {
	t.Setenv("SP_SITE_URL", "https://contoso.sharepoint.com/sites/media")
	t.Setenv("SP_TENANT_ID", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "SP_TENANT_ID")
}

func TestFromEnv_Complete(t *testing.T) {
	t.Setenv("SP_SITE_URL", "https://contoso.sharepoint.com/sites/media")
	t.Setenv("SP_TENANT_ID", "tenant")
	t.Setenv("SP_CLIENT_ID", "client")
	t.Setenv("SP_CERT_PATH", "/certs/app.pfx")
	t.Setenv("SP_CERT_PASSWORD", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "client", cfg.ClientID)

	client := NewClient(cfg)
	require.NotNil(t, client.AuthCnfg)
	assert.Equal(t, "https://contoso.sharepoint.com/sites/media", client.AuthCnfg.GetSiteURL())
}
