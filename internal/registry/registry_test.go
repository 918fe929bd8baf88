package registry

import (
	"path/filepath"
	"testing"
)

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uploads.yaml")

	// Create a registry, save it, reload it
	reg := NewRegistry()
	AddEntry(reg, UploadEntry{
		Name:      "notes.txt",
		URL:       "https://example.test/abc/notes.txt",
		Agent:     "wget",
		Encrypted: false,
	})

	if err := Save(path, reg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(loaded.Uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(loaded.Uploads))
	}
	if loaded.Uploads[0].URL != "https://example.test/abc/notes.txt" {
		t.Errorf("unexpected URL: %s", loaded.Uploads[0].URL)
	}
	if loaded.APIVersion != DefaultAPIVersion {
		t.Errorf("expected apiVersion %s, got %s", DefaultAPIVersion, loaded.APIVersion)
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load("/nonexistent/uploads.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOrNewMissingFile(t *testing.T) {
	reg, err := LoadOrNew(filepath.Join(t.TempDir(), "uploads.yaml"))
	if err != nil {
		t.Fatalf("LoadOrNew: %v", err)
	}
	if len(reg.Uploads) != 0 {
		t.Errorf("expected empty registry, got %d entries", len(reg.Uploads))
	}
	if reg.Kind != DefaultKind {
		t.Errorf("expected kind %s, got %s", DefaultKind, reg.Kind)
	}
}

func TestAddEntryKeepsHistory(t *testing.T) {
	reg := NewRegistry()
	AddEntry(reg, UploadEntry{Name: "a", URL: "https://example.test/1/a"})
	AddEntry(reg, UploadEntry{Name: "a", URL: "https://example.test/2/a"})

	if len(reg.Uploads) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(reg.Uploads))
	}
}

func TestFindEntryReturnsMostRecent(t *testing.T) {
	reg := NewRegistry()
	AddEntry(reg, UploadEntry{Name: "a", URL: "https://example.test/1/a"})
	AddEntry(reg, UploadEntry{Name: "a", URL: "https://example.test/2/a"})

	found := FindEntry(reg, "a")
	if found == nil {
		t.Fatal("expected to find entry")
	}
	if found.URL != "https://example.test/2/a" {
		t.Errorf("expected most recent URL, got %s", found.URL)
	}

	if FindEntry(reg, "missing") != nil {
		t.Error("expected nil for missing entry")
	}
}

func TestFilterEntries(t *testing.T) {
	reg := NewRegistry()
	AddEntry(reg, UploadEntry{Name: "a", Agent: "wget", Encrypted: true})
	AddEntry(reg, UploadEntry{Name: "b", Agent: "wget"})
	AddEntry(reg, UploadEntry{Name: "c", Agent: "curl", Encrypted: true})

	tests := []struct {
		agent         string
		encryptedOnly bool
		want          int
	}{
		{"wget", false, 2},
		{"", true, 2},
		{"wget", true, 1},
		{"", false, 3},
		{"rsync", false, 0},
	}

	for _, tt := range tests {
		got := FilterEntries(reg, tt.agent, tt.encryptedOnly)
		if len(got) != tt.want {
			t.Errorf("FilterEntries(%q, %v): got %d, want %d", tt.agent, tt.encryptedOnly, len(got), tt.want)
		}
	}
}

func TestRecordCreatesFileAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "uploads.yaml")

	if err := Record(path, UploadEntry{Name: "a", URL: "https://example.test/a"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := Record(path, UploadEntry{Name: "b", URL: "https://example.test/b"}); err != nil {
		t.Fatalf("second Record: %v", err)
	}

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reg.Uploads) != 2 {
		t.Errorf("expected 2 entries, got %d", len(reg.Uploads))
	}
}
