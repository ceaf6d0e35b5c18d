package assets

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxParallelLoads bounds concurrent fetches per group load.
const maxParallelLoads = 4

// Manager keeps named assets in groups. All methods except the fetch
// goroutines it starts run on the game goroutine.
type Manager struct {
	fsys fs.FS
	log  *zap.Logger

	assets   map[string]Handle
	groups   map[string][]string // insertion ordered
	inflight []Handle

	wg sync.WaitGroup

	// OnLoaded and OnFailed are called after an asset's own listeners.
	OnLoaded func(name string)
	OnFailed func(name string, err error)
}

func NewManager(fsys fs.FS, log *zap.Logger) *Manager {
	return &Manager{
		fsys:   fsys,
		log:    log,
		assets: make(map[string]Handle),
		groups: make(map[string][]string),
	}
}

// FS is the file system loaders created for this manager should read from.
func (m *Manager) FS() fs.FS { return m.fsys }

// Add registers h under group. A later asset with the same name replaces the
// earlier one in the name index.
func (m *Manager) Add(group string, h Handle) {
	name := h.Name()
	if _, dup := m.assets[name]; dup {
		m.log.Warn("asset replaced", zap.String("asset", name))
	}
	m.assets[name] = h
	for _, n := range m.groups[group] {
		if n == name {
			return
		}
	}
	m.groups[group] = append(m.groups[group], name)
}

func (m *Manager) Get(name string) (Handle, bool) {
	h, ok := m.assets[name]
	return h, ok
}

func (m *Manager) Has(name string) bool {
	_, ok := m.assets[name]
	return ok
}

// Lookup returns the typed asset registered under name.
func Lookup[T any](m *Manager, name string) (*Asset[T], error) {
	h, ok := m.assets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, name)
	}
	a, ok := h.(*Asset[T])
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrAssetType, name, h)
	}
	return a, nil
}

// Load fetches and delivers one asset synchronously.
func (m *Manager) Load(ctx context.Context, name string) error {
	h, ok := m.assets[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, name)
	}
	err := h.Fetch(ctx)
	m.deliver(h)
	return err
}

// GetOrLoad attaches the listeners and starts a background load if the asset
// has not been started. Finished assets call the matching listener at once.
func GetOrLoad[T any](ctx context.Context, m *Manager, name string, onDone func(T), onErr func(error)) error {
	a, err := Lookup[T](m, name)
	if err != nil {
		return err
	}
	a.OnComplete(onDone)
	a.OnError(onErr)
	if a.Status() == NotStarted {
		m.fetchAsync(ctx, a)
	}
	return nil
}

// LoadGroup fetches every asset of group concurrently and delivers the results
// before returning. The first error is returned; other loads still finish.
func (m *Manager) LoadGroup(ctx context.Context, group string) error {
	handles := m.pending(group)
	var g errgroup.Group
	g.SetLimit(maxParallelLoads)
	for _, h := range handles {
		h := h
		g.Go(func() error { return h.Fetch(ctx) })
	}
	err := g.Wait()
	for _, h := range handles {
		m.deliver(h)
	}
	return err
}

// LoadGroupOrdered loads group one asset at a time in registration order and
// stops at the first failure.
func (m *Manager) LoadGroupOrdered(ctx context.Context, group string) error {
	for _, h := range m.pending(group) {
		err := h.Fetch(ctx)
		m.deliver(h)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadGroupAsync starts loading group in the background. Results are
// delivered by Poll.
func (m *Manager) LoadGroupAsync(ctx context.Context, group string) {
	for _, h := range m.pending(group) {
		m.fetchAsync(ctx, h)
	}
}

// Poll delivers background loads that have finished. Called once per tick.
func (m *Manager) Poll() int {
	if len(m.inflight) == 0 {
		return 0
	}
	n := 0
	keep := m.inflight[:0]
	for _, h := range m.inflight {
		switch h.Status() {
		case Loaded, Failed:
			m.deliver(h)
			n++
		default:
			keep = append(keep, h)
		}
	}
	clear(m.inflight[len(keep):])
	m.inflight = keep
	return n
}

// Wait blocks until every background fetch has returned.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) GroupLoaded(group string) bool {
	for _, name := range m.groups[group] {
		if m.assets[name].Status() != Loaded {
			return false
		}
	}
	return true
}

func (m *Manager) GroupFailed(group string) bool {
	for _, name := range m.groups[group] {
		if m.assets[name].Status() == Failed {
			return true
		}
	}
	return false
}

func (m *Manager) pending(group string) []Handle {
	var out []Handle
	for _, name := range m.groups[group] {
		if h := m.assets[name]; h.Status() == NotStarted {
			out = append(out, h)
		}
	}
	return out
}

func (m *Manager) fetchAsync(ctx context.Context, h Handle) {
	m.inflight = append(m.inflight, h)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = h.Fetch(ctx) // result is read back through h.Status in Poll
	}()
}

func (m *Manager) deliver(h Handle) {
	if !h.Dispatch() {
		return
	}
	if err := h.Err(); err != nil {
		m.log.Warn("asset failed", zap.String("asset", h.Name()), zap.Error(err))
		if m.OnFailed != nil {
			m.OnFailed(h.Name(), err)
		}
		return
	}
	m.log.Debug("asset loaded", zap.String("asset", h.Name()))
	if m.OnLoaded != nil {
		m.OnLoaded(h.Name())
	}
}
