// Package resolver recognizes asset container files and reports their
// type id and unique id. Results are memoized in a SQLite cache keyed by
// the file's size and modification time, so a cold start over a large
// project reads headers only for files that actually changed.
package resolver

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Asset containers start with a fixed 24-byte header:
// 4-byte magic, uint32 type id (little endian), 16-byte unique id.
var headerMagic = []byte("FRG1")

// HeaderSize is the length of the asset container header in bytes.
const HeaderSize = 24

// Header encodes an asset container header for the given type and id.
// Used by asset writers and by tests that author container files.
func Header(typeID uint32, id uuid.UUID) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], headerMagic)
	binary.LittleEndian.PutUint32(buf[4:8], typeID)
	copy(buf[8:24], id[:])
	return buf
}

// Service resolves file paths to asset identities.
type Service struct {
	cache  *cache
	logger *slog.Logger
}

// New creates a Service with a SQLite cache at cachePath.
func New(cachePath string, logger *slog.Logger) (*Service, error) {
	c, err := openCache(cachePath)
	if err != nil {
		return nil, err
	}
	return &Service{cache: c, logger: logger}, nil
}

// Close closes the underlying cache database.
func (s *Service) Close() error {
	return s.cache.close()
}

// Resolve reports whether the file at path is a recognized asset
// container and, if so, returns its type id and unique id. Unrecognized
// and unreadable files simply report ok=false; resolution is
// deterministic for a given file's current content.
func (s *Service) Resolve(path string) (typeID uint32, id uuid.UUID, ok bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0, uuid.Nil, false
	}

	if entry, hit := s.cache.get(path, info.Size(), info.ModTime().UnixNano()); hit {
		return entry.typeID, entry.id, true
	}

	typeID, id, ok = readHeader(path)
	if !ok {
		// Drop any stale positive entry for a file that is no longer
		// a recognized container.
		s.cache.delete(path)
		return 0, uuid.Nil, false
	}

	if err := s.cache.put(path, info.Size(), info.ModTime().UnixNano(), typeID, id); err != nil {
		s.logger.Warn("resolver: cache write failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
	return typeID, id, true
}

// readHeader parses the container header at path. Short files, wrong
// magic, and nil unique ids all report ok=false.
func readHeader(path string) (uint32, uuid.UUID, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, uuid.Nil, false
	}
	defer f.Close()

	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return 0, uuid.Nil, false
	}
	if !bytes.Equal(buf[0:4], headerMagic) {
		return 0, uuid.Nil, false
	}
	typeID := binary.LittleEndian.Uint32(buf[4:8])
	var id uuid.UUID
	copy(id[:], buf[8:24])
	if id == uuid.Nil {
		return 0, uuid.Nil, false
	}
	return typeID, id, true
}
