package service

import (
	"context"
	"errors"
	"strings"

	"tallyman/internal/ledger/integrity"
	dErrors "tallyman/pkg/domain-errors"
	"tallyman/pkg/platform/sentinel"
)

// RegisterKey stores publicKey for party, replacing any previous key.
// Only RSA keys of at least integrity.MinKeyBits are accepted.
func (s *Service) RegisterKey(ctx context.Context, party, publicKey string) error {
	party = strings.TrimSpace(party)
	if party == "" {
		return dErrors.New(dErrors.CodeValidation, "party is required")
	}
	if strings.Contains(party, integrity.Delimiter) {
		return dErrors.New(dErrors.CodeValidation, "party must not contain the '|' delimiter")
	}
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return dErrors.New(dErrors.CodeValidation, "public_key is required")
	}
	if _, err := integrity.ParsePublicKey(publicKey); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "public_key is not a usable RSA key")
	}
	if err := s.keys.Save(ctx, party, publicKey); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save public key")
	}
	s.logger.InfoContext(ctx, "public key registered", "party", party)
	return nil
}

// PublicKey returns the key registered for party.
func (s *Service) PublicKey(ctx context.Context, party string) (string, error) {
	key, err := s.keys.Find(ctx, party)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "no public key registered for party")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load public key")
	}
	return key, nil
}
