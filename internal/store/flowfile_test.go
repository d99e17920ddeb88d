package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BTreeMap/SiteBot/internal/models"
)

const acmeYAML = `website:
  tenantCode: acme
  title: Acme Cooling
  contactPhone: "+15550000000"
capacities:
  - service: AC Repair
    howManyBookingsAllowed: 4
flow:
  welcomeMessage: Welcome to Acme!
  endMessage: Thanks, we'll be in touch.
  steps:
    - stepId: step-name
      type: text
      question: What's your name?
      isStart: true
      defaultNextStepId: step-service
    - stepId: step-service
      type: dropdown
      question: Which service?
      options: [AC Repair, Installation]
      optionConnections:
        - optionValue: AC Repair
          nextStepId: done
      defaultNextStepId: done
    - stepId: done
      type: text
      question: ""
      isEnd: true
`

func TestLoadTenantDirAndSeed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(acmeYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := LoadTenantDir(dir)
	if err != nil {
		t.Fatalf("LoadTenantDir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 tenant file, got %d", len(files))
	}
	tf := files[0]
	if tf.Flow.TenantCode != "acme" || tf.Capacities[0].TenantCode != "acme" {
		t.Errorf("tenant code not propagated: %+v", tf)
	}
	if len(tf.Flow.Steps) != 3 || tf.Flow.Steps[1].OptionConnections[0].NextStepID != "done" {
		t.Errorf("steps not parsed: %+v", tf.Flow.Steps)
	}

	s := NewInMemoryStore()
	ctx := context.Background()
	if err := tf.Seed(ctx, s); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	c, err := s.GetServiceCapacity(ctx, "acme", "AC Repair")
	if err != nil {
		t.Fatalf("GetServiceCapacity: %v", err)
	}
	if c.HowManyBookingsAllowed != 4 {
		t.Errorf("expected capacity 4, got %d", c.HowManyBookingsAllowed)
	}
	if _, err := s.GetFlow(ctx, "acme"); err != nil {
		t.Errorf("GetFlow: %v", err)
	}
}

func TestLoadTenantFile_MissingTenantCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anon.yaml")
	if err := os.WriteFile(path, []byte("flow:\n  steps: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTenantFile(path); !errors.Is(err, models.ErrEmptyTenantCode) {
		t.Errorf("expected ErrEmptyTenantCode, got %v", err)
	}
}
