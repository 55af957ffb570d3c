package mix

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/meigma/mix/wwcrc"
)

// Manager holds an ordered set of open archives and resolves filenames
// against them in registration order: the first archive containing a
// name wins.
//
// It also keeps a key-to-filename registry, used purely for diagnostics
// (mapping a numeric key back to a readable name); lookups never
// consult it for correctness. A Manager is not safe for concurrent use
// without external synchronization.
type Manager struct {
	archives []*Archive
	names    map[int32]string
	logger   *slog.Logger
}

// NewManager returns an empty Manager. The logger, which may be nil, is
// passed to archives opened through Register.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		names:  make(map[int32]string),
		logger: logger,
	}
}

// Register opens the archive at path and appends it to the search
// order.
func (m *Manager) Register(path string, opts ...Option) error {
	if m.logger != nil {
		opts = append([]Option{WithLogger(m.logger)}, opts...)
	}
	a, err := Open(path, opts...)
	if err != nil {
		return err
	}
	m.archives = append(m.archives, a)
	return nil
}

// RegisterCached opens the archive with its payload region cached in
// memory and appends it to the search order.
func (m *Manager) RegisterCached(path string, opts ...Option) error {
	return m.Register(path, append(opts, WithCache())...)
}

// Unregister removes the archive registered from path. It reports
// whether an archive was removed.
func (m *Manager) Unregister(path string) bool {
	for i, a := range m.archives {
		if a.path == path {
			m.archives = append(m.archives[:i], m.archives[i+1:]...)
			return true
		}
	}
	return false
}

// Archive returns the registered archive opened from path, or nil.
func (m *Manager) Archive(path string) *Archive {
	for _, a := range m.archives {
		if a.path == path {
			return a
		}
	}
	return nil
}

// Len returns the number of registered archives.
func (m *Manager) Len() int { return len(m.archives) }

// Find resolves name to the first registered archive containing it.
func (m *Manager) Find(name string) (*Archive, Entry, bool) {
	key := int32(wwcrc.SumName(name))
	for _, a := range m.archives {
		if e, ok := a.FindKey(key); ok {
			return a, e, true
		}
	}
	return nil, Entry{}, false
}

// Exists reports whether any registered archive contains name.
func (m *Manager) Exists(name string) bool {
	_, _, ok := m.Find(name)
	return ok
}

// Read returns the stored bytes for name from the first archive that
// contains it.
func (m *Manager) Read(name string) ([]byte, error) {
	a, e, ok := m.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a.ReadEntry(e)
}

// Bytes returns a zero-copy slice for name from the first archive that
// both contains it and holds a payload cache.
func (m *Manager) Bytes(name string) ([]byte, bool) {
	key := int32(wwcrc.SumName(name))
	for _, a := range m.archives {
		if _, ok := a.FindKey(key); ok {
			if b, ok := a.Bytes(name); ok {
				return b, true
			}
		}
	}
	return nil, false
}

// Cache loads the payload cache of the archive registered from path.
// It reports whether such an archive was found.
func (m *Manager) Cache(path string) (bool, error) {
	a := m.Archive(path)
	if a == nil {
		return false, nil
	}
	return true, a.Cache()
}

// Uncache drops the payload cache of the archive registered from path.
// It reports whether such an archive was found.
func (m *Manager) Uncache(path string) bool {
	a := m.Archive(path)
	if a == nil {
		return false
	}
	a.Uncache()
	return true
}

// RegisterName records name in the key-to-filename registry so that
// LookupName can translate its key back to something readable.
func (m *Manager) RegisterName(name string) {
	m.names[int32(wwcrc.SumName(name))] = strings.ToUpper(name)
}

// LookupName returns the registered filename for key, if any.
func (m *Manager) LookupName(key int32) (string, bool) {
	name, ok := m.names[key]
	return name, ok
}
