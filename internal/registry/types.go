package registry

// UploadRegistry represents the uploads.yaml history file
type UploadRegistry struct {
	APIVersion string        `yaml:"apiVersion"`
	Kind       string        `yaml:"kind"`
	Uploads    []UploadEntry `yaml:"uploads"`
}

// UploadEntry represents a single completed upload
type UploadEntry struct {
	Name       string   `yaml:"name"`
	URL        string   `yaml:"url"`
	Source     string   `yaml:"source,omitempty"`
	Agent      string   `yaml:"agent"`
	Encrypted  bool     `yaml:"encrypted"`
	Recipients []string `yaml:"recipients,omitempty"`
	UploadedAt string   `yaml:"uploadedAt"`
}
