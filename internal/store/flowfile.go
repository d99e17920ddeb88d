package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// TenantFile is the on-disk YAML description of one tenant: its directory
// entry, service capacities and flow.
type TenantFile struct {
	Website    models.Website           `yaml:"website"`
	Capacities []models.ServiceCapacity `yaml:"capacities,omitempty"`
	Flow       models.FlowDefinition    `yaml:"flow"`
}

// LoadTenantFile parses a tenant YAML file. Missing tenant codes on the flow
// and capacities are filled from the website entry.
func LoadTenantFile(path string) (*TenantFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant file %s: %w", path, err)
	}
	var tf TenantFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse tenant file %s: %w", path, err)
	}
	code := tf.Website.TenantCode
	if code == "" {
		code = tf.Flow.TenantCode
	}
	if code == "" {
		return nil, fmt.Errorf("tenant file %s: %w", path, models.ErrEmptyTenantCode)
	}
	tf.Website.TenantCode = code
	tf.Flow.TenantCode = code
	for i := range tf.Capacities {
		if tf.Capacities[i].TenantCode == "" {
			tf.Capacities[i].TenantCode = code
		}
	}
	return &tf, nil
}

// LoadTenantDir loads every *.yaml and *.yml file in dir, ordered by name.
func LoadTenantDir(dir string) ([]*TenantFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make([]*TenantFile, 0, len(names))
	for _, name := range names {
		tf, err := LoadTenantFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files = append(files, tf)
	}
	slog.Debug("LoadTenantDir loaded tenant files", "dir", dir, "count", len(files))
	return files, nil
}

// Seed writes the tenant file into s, replacing existing entries.
func (tf *TenantFile) Seed(ctx context.Context, s Store) error {
	if err := s.SaveWebsite(ctx, tf.Website); err != nil {
		return err
	}
	for _, c := range tf.Capacities {
		if err := s.SaveServiceCapacity(ctx, c); err != nil {
			return err
		}
	}
	if err := s.SaveFlow(ctx, tf.Flow); err != nil {
		return err
	}
	slog.Info("Seeded tenant", "tenantCode", tf.Website.TenantCode, "steps", len(tf.Flow.Steps), "capacities", len(tf.Capacities))
	return nil
}
