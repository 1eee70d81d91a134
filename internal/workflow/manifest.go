package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Manifest records the identifiers produced by a run so it can be resumed.
type Manifest struct {
	RunID     string                  `json:"run_id"`
	ChainID   string                  `json:"chain_id"`
	Sender    string                  `json:"sender"`
	Steps     map[string]ManifestStep `json:"steps"`
	UpdatedAt string                  `json:"updated_at"`
}

// ManifestStep is a completed step. Ambiguous marks a step whose broadcast may
// have been committed without a confirmed result; it has no outputs.
type ManifestStep struct {
	TxHash      string            `json:"tx_hash"`
	Outputs     map[string]string `json:"outputs,omitempty"`
	Ambiguous   bool              `json:"ambiguous,omitempty"`
	CompletedAt string            `json:"completed_at"`
}

// ManifestStore persists the manifest to disk.
type ManifestStore struct {
	path    string
	enabled bool
}

func NewManifestStore(path string, enabled bool) *ManifestStore {
	return &ManifestStore{path: path, enabled: enabled && path != ""}
}

func (m *ManifestStore) Load() (Manifest, bool, error) {
	if m == nil || !m.enabled {
		return Manifest{}, false, nil
	}

	stat, err := os.Stat(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, false, nil
		}
		return Manifest{}, false, fmt.Errorf("stat manifest: %w", err)
	}
	if stat.IsDir() {
		return Manifest{}, false, fmt.Errorf("manifest path is a directory")
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, false, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Steps == nil {
		manifest.Steps = make(map[string]ManifestStep)
	}
	return manifest, true, nil
}

func (m *ManifestStore) Save(manifest Manifest) error {
	if m == nil || !m.enabled {
		return nil
	}

	dir := filepath.Dir(m.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create manifest dir: %w", err)
		}
	}

	manifest.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmpPath := m.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write manifest tmp: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}
