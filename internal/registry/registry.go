package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIVersion = "beam.sh/v1alpha1"
	DefaultKind       = "UploadRegistry"
)

// Load reads and parses an uploads.yaml file
func Load(path string) (*UploadRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry file: %w", err)
	}

	var reg UploadRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing registry file: %w", err)
	}

	return &reg, nil
}

// LoadOrNew reads the registry at path, returning an empty registry if the
// file does not exist yet.
func LoadOrNew(path string) (*UploadRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("reading registry file: %w", err)
	}

	var reg UploadRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing registry file: %w", err)
	}
	return &reg, nil
}

// Save writes an UploadRegistry to a YAML file
func Save(path string, reg *UploadRegistry) error {
	if reg.APIVersion == "" {
		reg.APIVersion = DefaultAPIVersion
	}
	if reg.Kind == "" {
		reg.Kind = DefaultKind
	}

	data, err := yaml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshalling registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing registry file: %w", err)
	}

	return nil
}

// AddEntry appends an upload entry to the registry. Entries are history, not
// identities: repeated uploads of the same name are all kept.
func AddEntry(reg *UploadRegistry, entry UploadEntry) {
	reg.Uploads = append(reg.Uploads, entry)
}

// FindEntry returns a pointer to the most recent entry with the given name, or nil.
func FindEntry(reg *UploadRegistry, name string) *UploadEntry {
	for i := len(reg.Uploads) - 1; i >= 0; i-- {
		if reg.Uploads[i].Name == name {
			return &reg.Uploads[i]
		}
	}
	return nil
}

// FilterEntries returns entries matching the given agent and/or encryption
// state. An empty agent is treated as a wildcard.
func FilterEntries(reg *UploadRegistry, agent string, encryptedOnly bool) []UploadEntry {
	var result []UploadEntry
	for _, e := range reg.Uploads {
		if agent != "" && e.Agent != agent {
			continue
		}
		if encryptedOnly && !e.Encrypted {
			continue
		}
		result = append(result, e)
	}
	return result
}

// NewRegistry creates an empty UploadRegistry with default fields.
func NewRegistry() *UploadRegistry {
	return &UploadRegistry{
		APIVersion: DefaultAPIVersion,
		Kind:       DefaultKind,
		Uploads:    []UploadEntry{},
	}
}

// Record appends one entry to the registry at path, creating it on first use.
func Record(path string, entry UploadEntry) error {
	reg, err := LoadOrNew(path)
	if err != nil {
		return err
	}
	AddEntry(reg, entry)
	return Save(path, reg)
}
