package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-fiducial/internal/log"
	"github.com/teslashibe/go-fiducial/pkg/measure"
)

// DefaultDir is where snapshots go when no directory is configured.
const DefaultDir = "snapshots"

const (
	imageExt  = ".jpg"
	recordExt = ".json"
)

// ErrNotFound is returned when no snapshot has the requested ID.
var ErrNotFound = errors.New("snapshot not found")

// Store writes snapshots as <id>.jpg and <id>.json pairs in one directory.
type Store struct {
	dir string
	mu  sync.RWMutex
	now func() time.Time
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save encodes frame as JPEG and stores it with res.
func (s *Store) Save(frame gocv.Mat, res measure.Result) (Record, error) {
	if frame.Empty() {
		return Record{}, errors.New("empty frame")
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)
	return s.SaveJPEG(data, res)
}

// SaveJPEG stores already encoded image bytes with res.
func (s *Store) SaveJPEG(jpeg []byte, res measure.Result) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := NewRecord(res, s.now().UTC())

	if err := writeAtomic(filepath.Join(s.dir, rec.Image), jpeg); err != nil {
		return Record{}, err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := writeAtomic(s.recordPath(rec.ID), data); err != nil {
		os.Remove(filepath.Join(s.dir, rec.Image))
		return Record{}, err
	}

	log.Info("snapshot saved", "id", rec.ID, "scale_valid", rec.ScaleValid)
	return rec, nil
}

// Get loads the record for id.
func (s *Store) Get(id string) (Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.recordPath(uid))
}

// ImagePath returns the JPEG path for id.
func (s *Store) ImagePath(id string) (string, error) {
	rec, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, rec.Image), nil
}

// List returns all records, newest first. Unreadable records are skipped.
func (s *Store) List() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			log.Warn("skipping snapshot record", "file", e.Name(), "error", err)
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TakenAt.After(records[j].TakenAt)
	})
	return records, nil
}

// Delete removes both files of a snapshot.
func (s *Store) Delete(id string) error {
	rec, err := s.Get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.recordPath(rec.ID)); err != nil {
		return fmt.Errorf("failed to remove record: %w", err)
	}
	if err := os.Remove(filepath.Join(s.dir, rec.Image)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

func (s *Store) recordPath(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+recordExt)
}

func (s *Store) read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return Record{}, fmt.Errorf("failed to read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to parse record: %w", err)
	}
	return rec, nil
}

// writeAtomic writes to a temp file first, then renames.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
