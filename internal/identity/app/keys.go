package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/keyhaven/backoffice/pkg/jwtx"
)

// InitSigningKey loads the Ed25519 signing key from cfg.SigningKeyFile, or
// generates and persists a fresh one on first start. Session credentials
// signed before a key change become invalid, same as deleting the file.
func InitSigningKey(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, error) {
	pemKey, err := os.ReadFile(cfg.SigningKeyFile)
	if os.IsNotExist(err) {
		pemKey, err = jwtx.GenerateEd25519PEM()
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}

		if err := os.WriteFile(cfg.SigningKeyFile, pemKey, 0600); err != nil {
			return nil, fmt.Errorf("failed to persist signing key: %w", err)
		}

		logger.Info("generated new signing key", "path", cfg.SigningKeyFile)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	signer, err := jwtx.NewSignerEdDSA(pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}

	return signer, nil
}
