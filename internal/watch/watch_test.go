package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "strings.dat")
	writeFile(t, file, "# empty\n")

	w, err := New(file)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, file, "1 2 3\n")

	select {
	case c := <-w.Changes:
		if c.File != file {
			t.Errorf("change file = %q, want %q", c.File, file)
		}
		if c.Removed {
			t.Error("change reported as removal")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestWatcher_DetectsRemoval(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "partons.dat")
	writeFile(t, file, "")

	w, err := New(file)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.Remove(file); err != nil {
		t.Fatalf("remove: %v", err)
	}

	select {
	case c := <-w.Changes:
		if !c.Removed {
			t.Errorf("change = %+v, want removal", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for removal")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "strings.dat")
	writeFile(t, file, "")

	w, err := New(file)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "notes.txt"), "hello")

	select {
	case c := <-w.Changes:
		t.Errorf("unexpected change: %+v", c)
	case <-time.After(3 * Debounce):
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "strings.dat")
	writeFile(t, file, "")

	w, err := New(file)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		writeFile(t, file, string(rune('a'+i)))
	}

	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	select {
	case c := <-w.Changes:
		t.Errorf("burst produced a second change: %+v", c)
	case <-time.After(3 * Debounce):
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("New() with no files succeeded")
	}
	if _, err := New("", ""); err == nil {
		t.Error("New with only empty paths succeeded")
	}
}

func TestStop_ClosesChanges(t *testing.T) {
	file := filepath.Join(t.TempDir(), "strings.dat")
	writeFile(t, file, "")

	w, err := New(file)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()

	if _, ok := <-w.Changes; ok {
		t.Error("Changes still open after Stop")
	}
}
