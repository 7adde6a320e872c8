package letsencrypt

import (
	"crypto"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-acme/lego/v4/certcrypto"
)

const accountKeyFile = "account.key.pem"

// accountKey returns the ACME account key, creating and persisting an
// RSA 2048 key on first use.
func (o *Orchestrator) accountKey() (crypto.Signer, error) {
	o.keyMu.Lock()
	defer o.keyMu.Unlock()

	if o.key != nil {
		return o.key, nil
	}

	path := filepath.Join(o.cfg.dataDir, accountKeyFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		key, err := certcrypto.ParsePEMPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("parse account key: %w", err)
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, errors.New("account key is not a signer")
		}
		o.key = signer
		return signer, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read account key: %w", err)
	}

	key, err := certcrypto.GeneratePrivateKey(certcrypto.RSA2048)
	if err != nil {
		return nil, fmt.Errorf("generate account key: %w", err)
	}
	if err := os.MkdirAll(o.cfg.dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := writeFileAtomic(path, certcrypto.PEMEncode(key), 0o600); err != nil {
		return nil, fmt.Errorf("save account key: %w", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, errors.New("account key is not a signer")
	}
	o.log.Info("acme account key created", slog.String("path", path))
	o.key = signer
	return signer, nil
}
