package letsencrypt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Mirror receives a copy of every issued artifact.
type Mirror interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

const pemContentType = "application/x-pem-file"

// artifactBase returns the file name stem for domain issued at t:
// "<safe-domain>_<unix-millis>".
func artifactBase(domain string, t time.Time) string {
	return safeFileSegment(domain) + "_" + strconv.FormatInt(t.UnixMilli(), 10)
}

// safeFileSegment lowercases value, spells a wildcard label as "wildcard"
// and replaces anything outside [a-z0-9.-] with '_'.
func safeFileSegment(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, "*", "wildcard")
	if value == "" {
		return "certificate"
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// writeArtifacts stores the certificate and key for domain in dir.
func writeArtifacts(dir, domain string, issued time.Time, certPEM, keyPEM []byte) (certPath, keyPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create certificate directory: %w", err)
	}

	base := artifactBase(domain, issued)
	certPath = filepath.Join(dir, base+".cert.pem")
	keyPath = filepath.Join(dir, base+".key.pem")

	if err := writeFileAtomic(keyPath, keyPEM, 0o600); err != nil {
		return "", "", fmt.Errorf("write private key: %w", err)
	}
	if err := writeFileAtomic(certPath, certPEM, 0o644); err != nil {
		_ = os.Remove(keyPath)
		return "", "", fmt.Errorf("write certificate: %w", err)
	}
	return certPath, keyPath, nil
}

// writeFileAtomic writes data to a temp file beside path and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
