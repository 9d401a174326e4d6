package content

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/folio-labs/folio-web/internal/site"
)

var ErrNoContent = errors.New("content: no active snapshot")

// Manager holds the active snapshot. Reads are lock-free.
type Manager struct {
	active atomic.Pointer[Snapshot]
}

func NewManager() *Manager { return &Manager{} }

// Set stores a copy of s as the active snapshot.
func (m *Manager) Set(s Snapshot) {
	cp := s
	if cp.LoadedAt.IsZero() {
		cp.LoadedAt = time.Now().UTC()
	}
	m.active.Store(&cp)
}

func (m *Manager) Get() (*Snapshot, bool) {
	s := m.active.Load()
	return s, s != nil && s.FS != nil && s.Site != nil
}

// Site returns the active rendered site, or nil.
func (m *Manager) Site() *site.Site {
	if s, ok := m.Get(); ok {
		return s.Site
	}
	return nil
}

// ReadyErr is the readiness probe: ready once any snapshot is active.
func (m *Manager) ReadyErr() error {
	if _, ok := m.Get(); !ok {
		return ErrNoContent
	}
	return nil
}

// ContentVersion and ContentHash feed the X-Content-* response headers.
func (m *Manager) ContentVersion() string {
	if s := m.active.Load(); s != nil {
		return s.Meta.Version
	}
	return ""
}

func (m *Manager) ContentHash() string {
	if s := m.active.Load(); s != nil {
		return s.Meta.Hash
	}
	return ""
}

func (m *Manager) Source() Source {
	if s := m.active.Load(); s != nil {
		return s.Meta.Source
	}
	return SourceUnknown
}

func (m *Manager) LoadedAt() time.Time {
	if s := m.active.Load(); s != nil {
		return s.LoadedAt
	}
	return time.Time{}
}

// ProjectCount is the number of projects in the active snapshot.
func (m *Manager) ProjectCount() int {
	if s := m.active.Load(); s != nil && s.Site != nil {
		return s.Site.Projects.Len()
	}
	return 0
}
