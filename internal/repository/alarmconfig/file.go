package alarmconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
)

// filePermissions restricts the configuration file to its owner.
const filePermissions = 0o600

// fileDocument is the on-disk layout of the configuration file.
type fileDocument struct {
	// Alarms lists the configurations ordered by id.
	Alarms []*domain.Config `yaml:"alarms"`
}

// FileRepository persists alarm configurations to a YAML file on disk.
// Every Save and Delete rewrites the whole file, which is fine for the
// handful of alarms a single sensor carries.
type FileRepository struct {
	// path is the filesystem location of the YAML file.
	path string
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// LoadAll reads every configuration. A missing file is an empty set.
func (r *FileRepository) LoadAll(_ context.Context) (map[int64]*domain.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read()
}

// Save upserts the configuration and rewrites the file.
func (r *FileRepository) Save(_ context.Context, cfg *domain.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	configs, err := r.read()
	if err != nil {
		return err
	}

	configs[cfg.ID] = cfg.Clone()

	return r.write(configs)
}

// Delete removes the configuration and rewrites the file.
func (r *FileRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	configs, err := r.read()
	if err != nil {
		return err
	}

	if _, ok := configs[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	delete(configs, id)

	return r.write(configs)
}

// read decodes the file. Caller holds mu.
func (r *FileRepository) read() (map[int64]*domain.Config, error) {
	configs := make(map[int64]*domain.Config)

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return configs, nil
		}

		return nil, fmt.Errorf("read alarm file: %w", err)
	}

	var doc fileDocument
	if err = yaml.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode alarm file: %w", err)
	}

	for _, cfg := range doc.Alarms {
		if cfg == nil {
			continue
		}

		configs[cfg.ID] = cfg
	}

	return configs, nil
}

// write encodes the configurations ordered by id. Caller holds mu.
func (r *FileRepository) write(configs map[int64]*domain.Config) error {
	ids := make([]int64, 0, len(configs))
	for id := range configs {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	doc := fileDocument{Alarms: make([]*domain.Config, 0, len(ids))}
	for _, id := range ids {
		doc.Alarms = append(doc.Alarms, configs[id])
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode alarm file: %w", err)
	}

	// Write to a sibling file first so a crash never leaves a truncated file behind.
	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("write alarm file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace alarm file: %w", err)
	}

	return nil
}
