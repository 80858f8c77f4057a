package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"herbal_store/internal/domain"

	"github.com/sirupsen/logrus"
)

type record[T any] interface {
	*T
	Meta() *domain.RecordMeta
}

// Collection is one JSON array file holding records of a single type.
// Every operation loads the file and, for writes, replaces it atomically,
// all under the collection lock.
type Collection[T any, P record[T]] struct {
	name string
	path string
	mu   sync.Mutex
	log  *logrus.Logger
	now  func() time.Time
}

func NewCollection[T any, P record[T]](dir, name string, logger *logrus.Logger) (*Collection[T, P], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create data directory %s: %w", dir, err)
	}
	return &Collection[T, P]{
		name: name,
		path: filepath.Join(dir, name+".json"),
		log:  logger,
		now:  time.Now,
	}, nil
}

func (c *Collection[T, P]) load() ([]T, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		c.log.Errorf("Repository: Failed to read collection %s: %v", c.name, err)
		return nil, fmt.Errorf("could not read %s: %w", c.name, err)
	}
	if len(raw) == 0 {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		c.log.Errorf("Repository: Collection %s is corrupt: %v", c.name, err)
		return nil, fmt.Errorf("could not decode %s: %w", c.name, err)
	}
	return records, nil
}

func (c *Collection[T, P]) save(records []T) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", c.name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), c.name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temp file for %s: %w", c.name, err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(raw); err == nil {
		err = tmp.Sync()
	}
	if cErr := tmp.Close(); err == nil {
		err = cErr
	}
	if err == nil {
		err = os.Rename(tmpName, c.path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		c.log.Errorf("Repository: Failed to write collection %s: %v", c.name, err)
		return fmt.Errorf("could not write %s: %w", c.name, err)
	}
	return nil
}

// nextID is the current Unix-millisecond timestamp, bumped past any id already taken.
func nextID(now time.Time, taken map[string]struct{}) string {
	n := now.UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if _, ok := taken[id]; !ok {
			return id
		}
		n++
	}
}

// Create assigns id, timestamps and version, then appends rec.
// guard runs against every existing record and can veto the insert.
func (c *Collection[T, P]) Create(rec *T, guard func(existing *T) error) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(records))
	for i := range records {
		if guard != nil {
			if err := guard(&records[i]); err != nil {
				return nil, err
			}
		}
		taken[P(&records[i]).Meta().ID] = struct{}{}
	}

	created := *rec
	meta := P(&created).Meta()
	now := c.now().UTC()
	meta.ID = nextID(now, taken)
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.Version = 1

	if err := c.save(append(records, created)); err != nil {
		return nil, err
	}
	c.log.Debugf("Repository: Created %s record %s", c.name, meta.ID)
	return &created, nil
}

func (c *Collection[T, P]) FindByID(id string) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if P(&records[i]).Meta().ID == id {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("%s record %s: %w", c.name, id, domain.ErrNotFound)
}

// Find returns the matching records in file order.
func (c *Collection[T, P]) Find(match func(*T) bool) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return nil, err
	}
	found := make([]T, 0, len(records))
	for i := range records {
		if match(&records[i]) {
			found = append(found, records[i])
		}
	}
	return found, nil
}

func (c *Collection[T, P]) All() ([]T, error) {
	return c.Find(func(*T) bool { return true })
}

// Update applies mutate to the record with id and bumps its version.
// The read-modify-write happens under the collection lock, so concurrent
// updates to the same record are never lost.
func (c *Collection[T, P]) Update(id string, mutate func(*T) error) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		meta := P(&records[i]).Meta()
		if meta.ID != id {
			continue
		}
		if err := mutate(&records[i]); err != nil {
			return nil, err
		}
		meta.ID = id
		meta.UpdatedAt = c.now().UTC()
		meta.Version++
		if err := c.save(records); err != nil {
			return nil, err
		}
		updated := records[i]
		return &updated, nil
	}
	return nil, fmt.Errorf("%s record %s: %w", c.name, id, domain.ErrNotFound)
}

func (c *Collection[T, P]) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return err
	}
	for i := range records {
		if P(&records[i]).Meta().ID == id {
			return c.save(append(records[:i], records[i+1:]...))
		}
	}
	return fmt.Errorf("%s record %s: %w", c.name, id, domain.ErrNotFound)
}
