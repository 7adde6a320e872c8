// Package certdb is the append-only log of issued certificates.
package certdb

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gridlinecompany/LetsEcrypt/pkg/jsonfile"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("certdb: certificate not found")

// Record describes an issued certificate and where its files are.
type Record struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Domain             string    `json:"domain"`
	CreatedAt          time.Time `json:"createdAt"`
	ExpiresAt          time.Time `json:"expiresAt"`
	CertificatePath    string    `json:"certificatePath"`
	PrivateKeyPath     string    `json:"privateKeyPath"`
	VerificationMethod string    `json:"verificationMethod"`
}

// DB stores records in a JSON file.
type DB struct {
	file *jsonfile.File[[]Record]
}

// Open returns a DB backed by path, usually DATA_DIR/certificates.json.
func Open(path string) *DB {
	return &DB{file: jsonfile.New[[]Record](path)}
}

// Add appends r, assigning ID and CreatedAt when empty.
func (db *DB) Add(_ context.Context, r Record) (Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	err := db.file.Update(func(records *[]Record) error {
		*records = append(*records, r)
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

// ListByUser returns userID's records, newest first.
func (db *DB) ListByUser(_ context.Context, userID string) ([]Record, error) {
	all, err := db.file.Load()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0)
	for _, r := range all {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// Get returns the record with id.
func (db *DB) Get(_ context.Context, id string) (Record, error) {
	all, err := db.file.Load()
	if err != nil {
		return Record{}, err
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// GetForUser returns the record with id if userID owns it.
func (db *DB) GetForUser(ctx context.Context, id, userID string) (Record, error) {
	r, err := db.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if r.UserID != userID || strings.TrimSpace(userID) == "" {
		return Record{}, ErrNotFound
	}
	return r, nil
}
