package keyring

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

var (
	testKeysOnce sync.Once
	testKeys     []*openpgp.Entity
	testKeysErr  error
)

// testEntities generates two throwaway identities once per test run; key
// generation is too slow to repeat per test.
func testEntities(t *testing.T) []*openpgp.Entity {
	t.Helper()
	testKeysOnce.Do(func() {
		alice, err := openpgp.NewEntity("Alice Example", "", "alice@example.test", nil)
		if err != nil {
			testKeysErr = err
			return
		}
		bob, err := openpgp.NewEntity("Bob Example", "", "bob@example.test", nil)
		if err != nil {
			testKeysErr = err
			return
		}
		testKeys = []*openpgp.Entity{alice, bob}
	})
	if testKeysErr != nil {
		t.Fatalf("generating test keys: %v", testKeysErr)
	}
	return testKeys
}

// writeKeyring serializes the public halves of the given entities to a file.
func writeKeyring(t *testing.T, entities []*openpgp.Entity, armored bool) string {
	t.Helper()

	var buf bytes.Buffer
	if armored {
		w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
		if err != nil {
			t.Fatalf("armor encode: %v", err)
		}
		for _, e := range entities {
			if err := e.Serialize(w); err != nil {
				t.Fatalf("serializing entity: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("closing armor: %v", err)
		}
	} else {
		for _, e := range entities {
			if err := e.Serialize(&buf); err != nil {
				t.Fatalf("serializing entity: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "pubring.gpg")
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("writing keyring: %v", err)
	}
	return path
}

func TestRefreshAndLookupRoundTrip(t *testing.T) {
	path := writeKeyring(t, testEntities(t), false)
	idx := NewIndex(path, " - ")

	if err := idx.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	refs := idx.References()
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}

	// Every listed reference must resolve to a record.
	for _, ref := range refs {
		rec, ok := idx.Lookup(ref)
		if !ok {
			t.Errorf("reference %q did not resolve", ref)
			continue
		}
		if rec.Fingerprint == "" {
			t.Errorf("reference %q resolved to record without fingerprint", ref)
		}
		if rec.Entity() == nil {
			t.Errorf("reference %q resolved to record without key material", ref)
		}
	}
}

func TestLookupByFingerprint(t *testing.T) {
	path := writeKeyring(t, testEntities(t), false)
	idx := NewIndex(path, " - ")
	if err := idx.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	refs := idx.References()
	rec, ok := idx.Lookup(refs[0])
	if !ok {
		t.Fatalf("reference %q did not resolve", refs[0])
	}

	byFp, ok := idx.Lookup(rec.Fingerprint)
	if !ok {
		t.Fatal("bare fingerprint did not resolve")
	}
	if byFp.Fingerprint != rec.Fingerprint {
		t.Errorf("fingerprint lookup returned %s, want %s", byFp.Fingerprint, rec.Fingerprint)
	}
}

func TestArmoredKeyring(t *testing.T) {
	path := writeKeyring(t, testEntities(t), true)
	idx := NewIndex(path, " - ")

	if err := idx.Refresh(); err != nil {
		t.Fatalf("Refresh on armored keyring: %v", err)
	}
	if len(idx.References()) != 2 {
		t.Errorf("expected 2 references from armored keyring, got %d", len(idx.References()))
	}
}

func TestRefreshReplacesCache(t *testing.T) {
	entities := testEntities(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "pubring.gpg")

	writeOne := func(es []*openpgp.Entity) {
		var buf bytes.Buffer
		for _, e := range es {
			if err := e.Serialize(&buf); err != nil {
				t.Fatalf("serializing entity: %v", err)
			}
		}
		if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
			t.Fatalf("writing keyring: %v", err)
		}
	}

	writeOne(entities)
	idx := NewIndex(path, " - ")
	if err := idx.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(idx.References()) != 2 {
		t.Fatalf("expected 2 references, got %d", len(idx.References()))
	}

	// Shrink the keyring and refresh: prior entries must be discarded.
	writeOne(entities[:1])
	if err := idx.Refresh(); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if len(idx.References()) != 1 {
		t.Errorf("expected 1 reference after refresh, got %d", len(idx.References()))
	}
}

func TestBackendUnavailable(t *testing.T) {
	idx := NewIndex(filepath.Join(t.TempDir(), "missing.gpg"), " - ")

	err := idx.Refresh()
	if err == nil {
		t.Fatal("expected error for missing keyring file")
	}
	if !IsKind(err, BackendUnavailable) {
		t.Errorf("expected BackendUnavailable, got %v", err)
	}
}

func TestResolveUnknownReference(t *testing.T) {
	path := writeKeyring(t, testEntities(t), false)
	idx := NewIndex(path, " - ")
	if err := idx.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	_, err := idx.Resolve([]string{"Nobody - nobody@example.test - DEADBEEF"})
	if err == nil {
		t.Fatal("expected error for unknown reference")
	}
	if !IsKind(err, UnknownReference) {
		t.Errorf("expected UnknownReference, got %v", err)
	}
}

func TestEnsureIsLazyAndIdempotent(t *testing.T) {
	path := writeKeyring(t, testEntities(t), false)
	idx := NewIndex(path, " - ")

	if got := idx.References(); len(got) != 0 {
		t.Fatalf("index should be empty before Ensure, got %d refs", len(got))
	}
	if err := idx.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := idx.Ensure(); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if len(idx.References()) != 2 {
		t.Errorf("expected 2 references, got %d", len(idx.References()))
	}
}
