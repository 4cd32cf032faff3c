package dns

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/lite-lake/homelab-ops/internal/constants"
	domainerr "github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/logger"
)

// ChallengeSolver answers dns-01 challenges by writing the expected TXT
// record under _acme-challenge in the configured zone. It satisfies the
// certificate issuer's DNSProvider contract.
type ChallengeSolver struct {
	provider        Provider
	zone            string
	timeout         time.Duration
	propagationWait time.Duration
}

func NewChallengeSolver(provider Provider, zone string) *ChallengeSolver {
	return &ChallengeSolver{
		provider: provider,
		zone:     zone,
		timeout:  2 * time.Minute,
		// Registrars need a moment to publish the record on all their
		// nameservers before the CA queries it.
		propagationWait: 30 * time.Second,
	}
}

func (s *ChallengeSolver) Present(identifier, token, keyAuth string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	name := s.recordName(identifier)
	logger.Debug("presenting dns-01 challenge", "zone", s.zone, "name", name)

	record := &DNSRecord{
		Name:  name,
		Type:  "TXT",
		Value: challengeValue(keyAuth),
		TTL:   constants.ChallengeRecordTTL,
	}
	if err := s.provider.CreateRecord(ctx, s.zone, record); err != nil {
		return domainerr.WrapOp("present challenge record", err)
	}

	if s.propagationWait > 0 {
		time.Sleep(s.propagationWait)
	}
	return nil
}

func (s *ChallengeSolver) CleanUp(identifier, token, keyAuth string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	name := s.recordName(identifier)
	value := challengeValue(keyAuth)

	records, err := s.provider.ListRecords(ctx, s.zone)
	if err != nil {
		return domainerr.WrapOp("clean up challenge record", err)
	}

	for _, r := range records {
		if r.Type != "TXT" || GetSubDomain(r.Name, s.zone) != name {
			continue
		}
		// Some registrars hand TXT values back quoted.
		if trimQuotes(r.Value) != value {
			continue
		}
		if err := s.provider.DeleteRecord(ctx, s.zone, r.ID); err != nil {
			return domainerr.WrapOp("clean up challenge record", err)
		}
	}
	return nil
}

// recordName maps the authorization identifier to the bare TXT name:
// the zone apex validates at "_acme-challenge", anything beneath it at
// "_acme-challenge.<sub>". Wildcard identifiers arrive with the *. label
// already stripped.
func (s *ChallengeSolver) recordName(identifier string) string {
	sub := GetSubDomain(identifier, s.zone)
	if sub == "@" {
		return "_acme-challenge"
	}
	return "_acme-challenge." + sub
}

func challengeValue(keyAuth string) string {
	digest := sha256.Sum256([]byte(keyAuth))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
