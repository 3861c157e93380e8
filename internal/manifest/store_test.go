package manifest

import (
	"os"
	"strings"
	"testing"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/paths"
)

func TestRead_NotInitialized(t *testing.T) {
	_, err := Read(t.TempDir())
	if !errs.HasCode(err, errs.NotInitialized) {
		t.Errorf("Read() on empty dir = %v, want NOT_INITIALIZED", err)
	}
}

func TestCreate_Read_RoundTrip(t *testing.T) {
	root := t.TempDir()
	if _, err := Create(root, "ppg-test"); err != nil {
		t.Fatalf("Create() = %v", err)
	}

	m, err := Read(root)
	if err != nil {
		t.Fatalf("Read() = %v", err)
	}
	if m.SessionName != "ppg-test" {
		t.Errorf("SessionName = %q, want ppg-test", m.SessionName)
	}
	if m.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", m.Version, CurrentVersion)
	}
}

func TestCreate_AlreadyInitialized(t *testing.T) {
	root := t.TempDir()
	if _, err := Create(root, "ppg-test"); err != nil {
		t.Fatalf("Create() = %v", err)
	}
	_, err := Create(root, "ppg-test")
	if !errs.HasCode(err, errs.InvalidArgs) {
		t.Errorf("second Create() = %v, want INVALID_ARGS", err)
	}
}

func TestUpdate_Persists(t *testing.T) {
	root := t.TempDir()
	if _, err := Create(root, "ppg-test"); err != nil {
		t.Fatalf("Create() = %v", err)
	}

	updated, err := Update(root, func(m *Manifest) error {
		m.Worktrees["wt-abc123"] = &Worktree{
			ID:     "wt-abc123",
			Name:   "fix",
			Branch: "ppg/fix",
			Status: WorktreeActive,
			Agents: map[string]*Agent{},
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("Update() did not stamp UpdatedAt")
	}

	m, err := Read(root)
	if err != nil {
		t.Fatalf("Read() = %v", err)
	}
	if m.Worktrees["wt-abc123"] == nil {
		t.Error("mutation not persisted")
	}
}

func TestUpdate_FnErrorAborts(t *testing.T) {
	root := t.TempDir()
	if _, err := Create(root, "ppg-test"); err != nil {
		t.Fatalf("Create() = %v", err)
	}

	wantErr := errs.New(errs.WorktreeNotFound, "nope")
	_, err := Update(root, func(m *Manifest) error {
		m.SessionName = "mutated"
		return wantErr
	})
	if !errs.HasCode(err, errs.WorktreeNotFound) {
		t.Fatalf("Update() = %v, want the fn error", err)
	}

	m, err := Read(root)
	if err != nil {
		t.Fatalf("Read() = %v", err)
	}
	if m.SessionName != "ppg-test" {
		t.Error("aborted update leaked a write")
	}
}

func TestWrite_NoPartialFiles(t *testing.T) {
	root := t.TempDir()
	if _, err := Create(root, "ppg-test"); err != nil {
		t.Fatalf("Create() = %v", err)
	}

	// The temp file used for the atomic replace must not survive.
	entries, err := os.ReadDir(paths.PpgDir(root))
	if err != nil {
		t.Fatalf("ReadDir() = %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".manifest-") {
			t.Errorf("stale temp file %s left behind", e.Name())
		}
	}
}

func TestRead_Corrupt(t *testing.T) {
	root := t.TempDir()
	if _, err := Create(root, "ppg-test"); err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if err := os.WriteFile(paths.ManifestPath(root), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(root); err == nil {
		t.Error("Read() of corrupt manifest succeeded")
	}
}
