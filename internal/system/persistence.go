package system

import (
	"context"
	"sync"
	"time"

	coresys "github.com/runicrealm/engine/internal/core/system"
	"github.com/runicrealm/engine/internal/persist"
	"go.uber.org/zap"
)

// SnapshotSink stores world snapshots. *persist.SnapshotRepo satisfies it.
type SnapshotSink interface {
	Save(ctx context.Context, s persist.Snapshot) (int64, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// PersistenceSystem periodically captures the world and saves it off the
// game goroutine. Phase 6 (Persist).
type PersistenceSystem struct {
	sink      SnapshotSink
	capture   func() persist.Snapshot
	log       *zap.Logger
	tickCount int
	interval  int // save every N ticks
	keep      int // 0 keeps everything
	timeout   time.Duration

	wg       sync.WaitGroup
	inFlight chan struct{} // one save at a time
}

func NewPersistenceSystem(sink SnapshotSink, capture func() persist.Snapshot, intervalTicks, keep int, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		sink:     sink,
		capture:  capture,
		log:      log,
		interval: intervalTicks,
		keep:     keep,
		timeout:  5 * time.Second,
		inFlight: make(chan struct{}, 1),
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	select {
	case s.inFlight <- struct{}{}:
	default:
		s.log.Warn("snapshot skipped, previous save still running")
		return
	}
	// capture on the game goroutine, write on another
	snap := s.capture()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.inFlight }()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.save(ctx, snap)
	}()
}

// SaveNow captures and saves synchronously. Called on shutdown.
func (s *PersistenceSystem) SaveNow(ctx context.Context) error {
	s.wg.Wait()
	_, err := s.sink.Save(ctx, s.capture())
	return err
}

// Wait blocks until background saves have finished.
func (s *PersistenceSystem) Wait() { s.wg.Wait() }

func (s *PersistenceSystem) save(ctx context.Context, snap persist.Snapshot) {
	id, err := s.sink.Save(ctx, snap)
	if err != nil {
		s.log.Error("自動存檔失敗", zap.Uint64("tick", snap.Tick), zap.Error(err))
		return
	}
	s.log.Debug("snapshot saved",
		zap.Int64("id", id),
		zap.Uint64("tick", snap.Tick),
		zap.Int("bodies", len(snap.Bodies)))
	if s.keep <= 0 {
		return
	}
	if n, err := s.sink.Prune(ctx, s.keep); err != nil {
		s.log.Warn("snapshot prune failed", zap.Error(err))
	} else if n > 0 {
		s.log.Debug("snapshots pruned", zap.Int64("count", n))
	}
}
