// Package keyring loads OpenPGP identities from a local keyring file and
// indexes them by a human-readable reference string for selection.
package keyring

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// ErrorKind classifies keyring failures.
type ErrorKind string

const (
	BackendUnavailable ErrorKind = "backend unavailable"
	UnknownReference   ErrorKind = "unknown reference"
)

// Error is returned when the keyring backend cannot be used or a selected
// reference does not resolve to a key.
type Error struct {
	Kind      ErrorKind
	Reference string
	Err       error
}

func (e *Error) Error() string {
	if e.Reference != "" {
		return fmt.Sprintf("keyring: %s: %q", e.Kind, e.Reference)
	}
	if e.Err != nil {
		return fmt.Sprintf("keyring: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("keyring: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a keyring Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ke *Error
	return errors.As(err, &ke) && ke.Kind == kind
}

// Record is one identity in the keyring. Identity is the full fingerprint;
// the display fields are not guaranteed unique.
type Record struct {
	Name        string
	Email       string
	Fingerprint string

	entity *openpgp.Entity
}

// Entity returns the opaque handle to the underlying key material.
func (r Record) Entity() *openpgp.Entity {
	return r.entity
}

// Reference builds the selection label: name, email and fingerprint joined by
// sep. It is a lookup hint for users, not a guaranteed-unique ID.
func (r Record) Reference(sep string) string {
	return r.Name + sep + r.Email + sep + r.Fingerprint
}

// Index caches keyring records by fingerprint, with reference strings as
// selection labels. The cache is rebuilt only by explicit Refresh; the
// underlying keyring may change without the cache knowing.
type Index struct {
	path string
	sep  string

	mu     sync.RWMutex
	loaded bool
	byFp   map[string]Record
	byRef  map[string]string // reference -> fingerprint
}

// NewIndex returns an empty index over the keyring file at path. The index is
// built lazily on first use via Ensure.
func NewIndex(path, sep string) *Index {
	return &Index{path: path, sep: sep}
}

// Refresh fully replaces the cache: every key in the keyring file is
// enumerated and re-indexed, prior entries are discarded.
func (x *Index) Refresh() error {
	entities, err := readKeyringFile(x.path)
	if err != nil {
		return err
	}

	byFp := make(map[string]Record, len(entities))
	byRef := make(map[string]string, len(entities))

	for _, e := range entities {
		if e.PrimaryKey == nil {
			continue
		}
		rec := Record{
			Fingerprint: fmt.Sprintf("%X", e.PrimaryKey.Fingerprint),
			entity:      e,
		}
		if id := primaryIdentity(e); id != nil && id.UserId != nil {
			rec.Name = id.UserId.Name
			rec.Email = id.UserId.Email
		}
		byFp[rec.Fingerprint] = rec
		byRef[rec.Reference(x.sep)] = rec.Fingerprint
	}

	x.mu.Lock()
	x.byFp = byFp
	x.byRef = byRef
	x.loaded = true
	x.mu.Unlock()

	return nil
}

// Ensure builds the index on first use. Refresh cost is O(number of keys), so
// callers rely on the cache afterwards and refresh explicitly.
func (x *Index) Ensure() error {
	x.mu.RLock()
	loaded := x.loaded
	x.mu.RUnlock()
	if loaded {
		return nil
	}
	return x.Refresh()
}

// Lookup resolves a reference string to a record. Absence is a valid result,
// not an error.
func (x *Index) Lookup(reference string) (Record, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	fp, ok := x.byRef[reference]
	if !ok {
		// Allow selecting by bare fingerprint as well.
		if rec, ok := x.byFp[reference]; ok {
			return rec, true
		}
		return Record{}, false
	}
	rec, ok := x.byFp[fp]
	return rec, ok
}

// References returns the selection labels of all cached records, unordered.
func (x *Index) References() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	refs := make([]string, 0, len(x.byRef))
	for ref := range x.byRef {
		refs = append(refs, ref)
	}
	return refs
}

// Resolve maps selected references to records, failing closed on the first
// unknown reference.
func (x *Index) Resolve(references []string) ([]Record, error) {
	records := make([]Record, 0, len(references))
	for _, ref := range references {
		rec, ok := x.Lookup(ref)
		if !ok {
			return nil, &Error{Kind: UnknownReference, Reference: ref}
		}
		records = append(records, rec)
	}
	return records, nil
}

// readKeyringFile reads an OpenPGP keyring file, armored or binary.
func readKeyringFile(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: BackendUnavailable, Err: err}
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, &Error{Kind: BackendUnavailable, Err: err}
		}
		return entities, nil
	}

	entities, err := openpgp.ReadKeyRing(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Kind: BackendUnavailable, Err: err}
	}
	return entities, nil
}

// primaryIdentity picks an identity for display purposes. Keys in the wild
// usually carry exactly one.
func primaryIdentity(e *openpgp.Entity) *openpgp.Identity {
	for _, id := range e.Identities {
		if id.UserId != nil {
			return id
		}
	}
	return nil
}
