package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/trackadmission/go-services/internal/config"
	"github.com/trackadmission/go-services/pkg/middleware"
)

// Verifier checks ID tokens issued by a Keycloak realm.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// IssuerURL returns the realm issuer for a Keycloak base URL.
func IssuerURL(kc config.KeycloakConfig) (string, error) {
	if kc.URL == "" || kc.Realm == "" {
		return "", errors.New("keycloak url and realm are required")
	}
	return strings.TrimRight(kc.URL, "/") + "/realms/" + kc.Realm, nil
}

// NewVerifier discovers the realm's provider metadata and returns a verifier for its client.
func NewVerifier(ctx context.Context, kc config.KeycloakConfig) (*Verifier, error) {
	issuer, err := IssuerURL(kc)
	if err != nil {
		return nil, err
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: kc.ClientID})}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
