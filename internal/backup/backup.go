// Package backup snapshots the local key-value storage to JSON files and
// restores them.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/storage"
)

const (
	filePrefix    = "cmucal-"
	fileExt       = ".json"
	fileTimestamp = "20060102-150405"

	// DefaultKeep is the number of snapshots retained after a create.
	DefaultKeep = 10
)

// Snapshot is the on-disk backup format.
type Snapshot struct {
	ID        string            `json:"id"`
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Source    string            `json:"source"`
	Items     map[string]string `json:"items"`
}

// Info describes a snapshot file without its items.
type Info struct {
	Path      string
	CreatedAt time.Time
	Size      int64
}

type Manager struct {
	dir  string
	keep int
	now  func() time.Time
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir, keep: DefaultKeep, now: time.Now}
}

func (m *Manager) Dir() string { return m.dir }

// WithClock sets the clock used to stamp new snapshots.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	if now != nil {
		m.now = now
	}
	return m
}

// Create writes a snapshot of every key in src and prunes old snapshots.
func (m *Manager) Create(src storage.Provider) (Info, error) {
	keys, err := src.Keys()
	if err != nil {
		return Info{}, fmt.Errorf("failed to list storage keys: %w", err)
	}

	snap := Snapshot{
		ID:        uuid.NewString(),
		Version:   1,
		CreatedAt: m.now().UTC(),
		Source:    src.GetConfigPath(),
		Items:     make(map[string]string, len(keys)),
	}
	for _, k := range keys {
		v, err := src.GetItem(k)
		if err != nil {
			return Info{}, fmt.Errorf("failed to read %s: %w", k, err)
		}
		snap.Items[k] = v
	}

	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}
	path := m.path(snap.CreatedAt)
	// names have second resolution; a clash moves the stamp forward
	for {
		if _, err := os.Stat(path); err != nil {
			break
		}
		snap.CreatedAt = snap.CreatedAt.Add(time.Second)
		path = m.path(snap.CreatedAt)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Info{}, err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return Info{}, fmt.Errorf("failed to write backup: %w", err)
	}
	logger.Info("Backup created", "path", path, "keys", len(keys))

	if err := m.prune(); err != nil {
		logger.Warn("Failed to prune old backups", "error", err)
	}
	return Info{Path: path, CreatedAt: snap.CreatedAt, Size: int64(len(data))}, nil
}

func (m *Manager) path(t time.Time) string {
	return filepath.Join(m.dir, filePrefix+t.Format(fileTimestamp)+fileExt)
}

// List returns the snapshots in the backup directory, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ts := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt)
		created, err := time.Parse(fileTimestamp, ts)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Path: filepath.Join(m.dir, name), CreatedAt: created, Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Read loads a snapshot file.
func Read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read backup: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse backup: %w", err)
	}
	if snap.Items == nil {
		snap.Items = map[string]string{}
	}
	return snap, nil
}

// Restore replaces the contents of dst with the snapshot at path. Keys absent
// from the snapshot are removed.
func (m *Manager) Restore(dst storage.Provider, path string) (int, error) {
	snap, err := Read(path)
	if err != nil {
		return 0, err
	}

	existing, err := dst.Keys()
	if err != nil {
		return 0, fmt.Errorf("failed to list storage keys: %w", err)
	}
	for _, k := range existing {
		if _, ok := snap.Items[k]; ok {
			continue
		}
		if err := dst.RemoveItem(k); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("failed to remove %s: %w", k, err)
		}
	}
	for k, v := range snap.Items {
		if err := dst.SetItem(k, v); err != nil {
			return 0, fmt.Errorf("failed to restore %s: %w", k, err)
		}
	}
	logger.Info("Backup restored", "path", path, "keys", len(snap.Items))
	return len(snap.Items), nil
}

func (m *Manager) prune() error {
	if m.keep <= 0 {
		return nil
	}
	infos, err := m.List()
	if err != nil {
		return err
	}
	for _, info := range infos[min(m.keep, len(infos)):] {
		if err := os.Remove(info.Path); err != nil {
			return err
		}
		logger.Debug("Pruned backup", "path", info.Path)
	}
	return nil
}
