package spauth

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/koltyakov/gosip"
	"github.com/koltyakov/gosip/api"
	"github.com/koltyakov/gosip/auth/azurecert"
)

type Config struct {
	SiteURL      string `env:"SP_SITE_URL"`
	TenantID     string `env:"SP_TENANT_ID"`
	ClientID     string `env:"SP_CLIENT_ID"`
	CertPath     string `env:"SP_CERT_PATH"`
	CertPassword string `env:"SP_CERT_PASSWORD"`
}

func FromEnv() (Config, error) {
	// Environment should already be loaded by main.go
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse sharepoint config: %w", err)
	}

	if cfg.SiteURL == "" || cfg.TenantID == "" || cfg.ClientID == "" || cfg.CertPath == "" {
		return cfg, fmt.Errorf("missing required configuration: SP_SITE_URL, SP_TENANT_ID, SP_CLIENT_ID, SP_CERT_PATH")
	}
	return cfg, nil
}

func NewClient(cfg Config) *gosip.SPClient {
	ac := &azurecert.AuthCnfg{
		SiteURL:  cfg.SiteURL,
		TenantID: cfg.TenantID,
		ClientID: cfg.ClientID,
		CertPath: cfg.CertPath,
		CertPass: cfg.CertPassword,
	}
	return &gosip.SPClient{AuthCnfg: ac}
}

// NewSP builds a fluent gosip API client from environment configuration.
func NewSP() (*api.SP, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	return api.NewSP(NewClient(cfg)), nil
}
