// Package benchmark builds the anonymized cross-tenant demand aggregates.
//
// Privacy model: contributor tenant identifiers are pseudonymized with a keyed
// one-way hash before they reach any cache or log, aggregates always exclude
// the requesting tenant, and a (cluster, marketplace) aggregate is only
// exposed once enough distinct other tenants contribute to it.
package benchmark

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/channeliq/channeliq/internal/config"
	apperrors "github.com/channeliq/channeliq/pkg/errors"
	"github.com/channeliq/channeliq/pkg/types/common"
)

// devFallbackSecret keys pseudonymization in non-production environments that
// configure no secret.  Config validation rejects production deployments
// before this value can ever be used there.
const devFallbackSecret = "channeliq-dev-only-pseudonym-secret-0000"

// tokenLen is the emitted token length in hex characters (128 bits).
const tokenLen = 32

// Pseudonymizer derives stable, one-way tenant tokens via HMAC-SHA256.  The
// same tenant always yields the same token within a deployment, which is what
// lets the requester-exclusion fold work against cached rows, and nothing
// outside the deployment can reverse a token without the secret.
type Pseudonymizer struct {
	secret []byte
}

// NewPseudonymizer validates the privacy configuration and returns a ready
// Pseudonymizer.  A missing or short secret is a fatal configuration error in
// production; non-production environments fall back to a fixed dev secret.
func NewPseudonymizer(privacy config.PrivacyConfig) (*Pseudonymizer, error) {
	secret := privacy.PseudonymSecret
	if privacy.IsProduction() {
		if secret == "" {
			return nil, apperrors.New(apperrors.ErrCodePseudonymSecretMissing,
				"pseudonym secret is required in this environment")
		}
		if len(secret) < config.MinPseudonymSecretLen {
			return nil, apperrors.Newf(apperrors.ErrCodePseudonymSecretWeak,
				"pseudonym secret must be at least %d characters", config.MinPseudonymSecretLen)
		}
	}
	if secret == "" {
		secret = devFallbackSecret
	}
	return &Pseudonymizer{secret: []byte(secret)}, nil
}

// Token returns the pseudonymous token for a tenant.
func (p *Pseudonymizer) Token(tenant common.TenantID) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(tenant))
	return hex.EncodeToString(mac.Sum(nil))[:tokenLen]
}
