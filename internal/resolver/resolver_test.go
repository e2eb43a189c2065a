package resolver

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(filepath.Join(t.TempDir(), "cache.db"), logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeContainer(t *testing.T, path string, typeID uint32, id uuid.UUID) {
	t.Helper()
	if err := os.WriteFile(path, Header(typeID, id), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveRecognizedContainer(t *testing.T) {
	s := newTestService(t)
	path := filepath.Join(t.TempDir(), "a.tex")
	id := uuid.New()
	writeContainer(t, path, 3, id)

	typeID, gotID, ok := s.Resolve(path)
	if !ok {
		t.Fatal("Resolve: ok = false")
	}
	if typeID != 3 || gotID != id {
		t.Errorf("Resolve = (%d, %s), want (3, %s)", typeID, gotID, id)
	}
}

func TestResolveRejectsBadFiles(t *testing.T) {
	s := newTestService(t)
	dir := t.TempDir()

	short := filepath.Join(dir, "short.bin")
	if err := os.WriteFile(short, []byte("FRG1"), 0o644); err != nil {
		t.Fatal(err)
	}
	wrongMagic := filepath.Join(dir, "wrong.bin")
	buf := Header(1, uuid.New())
	copy(buf[0:4], "NOPE")
	if err := os.WriteFile(wrongMagic, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	nilID := filepath.Join(dir, "nilid.bin")
	if err := os.WriteFile(nilID, Header(1, uuid.Nil), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{short, wrongMagic, nilID, filepath.Join(dir, "missing"), dir} {
		if _, _, ok := s.Resolve(path); ok {
			t.Errorf("Resolve(%s): ok = true, want false", path)
		}
	}
}

func TestResolveUsesCacheUntilFileChanges(t *testing.T) {
	s := newTestService(t)
	path := filepath.Join(t.TempDir(), "a.tex")
	first := uuid.New()
	writeContainer(t, path, 1, first)

	if _, gotID, ok := s.Resolve(path); !ok || gotID != first {
		t.Fatalf("initial Resolve = (%s, %v)", gotID, ok)
	}

	// Rewrite the file with a different identity and a bumped mtime so
	// the size/mtime fingerprint invalidates the cached entry.
	second := uuid.New()
	writeContainer(t, path, 2, second)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	typeID, gotID, ok := s.Resolve(path)
	if !ok || typeID != 2 || gotID != second {
		t.Errorf("Resolve after rewrite = (%d, %s, %v), want (2, %s, true)", typeID, gotID, ok, second)
	}
}

func TestResolveDropsStaleEntryWhenHeaderGone(t *testing.T) {
	s := newTestService(t)
	path := filepath.Join(t.TempDir(), "a.tex")
	writeContainer(t, path, 1, uuid.New())
	if _, _, ok := s.Resolve(path); !ok {
		t.Fatal("initial Resolve: ok = false")
	}

	// Overwrite with plain content but keep the old fingerprint out of
	// reach by changing the size.
	if err := os.WriteFile(path, []byte("just text, no header"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := s.Resolve(path); ok {
		t.Error("Resolve after overwrite: ok = true, want false")
	}
	// A second pass must not resurrect the deleted cache entry.
	if _, _, ok := s.Resolve(path); ok {
		t.Error("second Resolve after overwrite: ok = true, want false")
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	id := uuid.New()
	buf := Header(42, id)
	if len(buf) != HeaderSize {
		t.Fatalf("len(Header) = %d, want %d", len(buf), HeaderSize)
	}
	path := filepath.Join(t.TempDir(), "rt.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	typeID, gotID, ok := readHeader(path)
	if !ok || typeID != 42 || gotID != id {
		t.Errorf("readHeader = (%d, %s, %v), want (42, %s, true)", typeID, gotID, ok, id)
	}
}
