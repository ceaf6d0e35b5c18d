// Package loop drives a simulation at a fixed logical rate and renders once
// per frame with an interpolation fraction.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sim is what the scheduler drives. Update always receives the configured
// tick duration; Render is called exactly once per Tick.
type Sim interface {
	Update(dt time.Duration)
	Render(alpha float64)
}

type Config struct {
	TickRate   time.Duration // logical tick length
	FrameRate  time.Duration // frame pump interval used by Run
	MaxCatchUp int           // logical ticks allowed per frame
	MaxBacklog int           // ticks of outstanding time kept after a capped frame; 0 keeps everything
}

const (
	DefaultTickRate   = time.Second / 60
	DefaultMaxCatchUp = 5
)

func (c Config) withDefaults() Config {
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.FrameRate <= 0 {
		c.FrameRate = c.TickRate
	}
	if c.MaxCatchUp <= 0 {
		c.MaxCatchUp = DefaultMaxCatchUp
	}
	if c.MaxBacklog < 0 {
		c.MaxBacklog = 0
	}
	return c
}

// Scheduler converts wall-clock time into fixed logical ticks. Time is kept
// as integer nanoseconds, so simulation time after N ticks is exactly N×TickRate.
//
// Tick must be called from a single goroutine. Stop may be called from any.
type Scheduler struct {
	cfg   Config
	sim   Sim
	clock Clock
	log   *zap.Logger

	last    time.Time
	started bool

	acc     time.Duration
	simTime time.Duration
	ticks   uint64
	alpha   float64
	dropped time.Duration

	lastWarn time.Time

	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(cfg Config, sim Sim, clock Clock, log *zap.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		cfg:    cfg.withDefaults(),
		sim:    sim,
		clock:  clock,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Config() Config { return s.cfg }

// Start sets the reference point for the next Tick without advancing.
func (s *Scheduler) Start(now time.Time) {
	s.last = now
	s.started = true
}

// Tick consumes the wall time elapsed since the previous call and returns the
// number of logical ticks run. The first call only records now. Non-positive
// elapsed time runs zero ticks and renders with the previous fraction.
func (s *Scheduler) Tick(now time.Time) int {
	if !s.started {
		s.Start(now)
	} else {
		if elapsed := now.Sub(s.last); elapsed > 0 {
			s.acc += elapsed
		}
		s.last = now
	}

	T := s.cfg.TickRate
	n := 0
	for s.acc >= T && n < s.cfg.MaxCatchUp {
		s.acc -= T
		s.simTime += T
		s.ticks++
		s.sim.Update(T)
		n++
	}
	if s.acc >= T {
		s.fallBehind(now)
	}

	s.alpha = min(1, float64(s.acc)/float64(T))
	s.sim.Render(s.alpha)
	return n
}

// fallBehind runs when the catch-up cap left whole ticks outstanding.
// 到上限就認輸：剩下的時間留給下一幀，不會無限補 tick
func (s *Scheduler) fallBehind(now time.Time) {
	T := s.cfg.TickRate
	if s.cfg.MaxBacklog > 0 {
		if keep := time.Duration(s.cfg.MaxBacklog) * T; s.acc > keep {
			s.dropped += s.acc - keep
			s.acc = keep
		}
	}
	if now.Sub(s.lastWarn) < time.Second {
		return
	}
	s.lastWarn = now
	s.log.Debug("simulation behind real time",
		zap.Duration("backlog", s.acc),
		zap.Duration("dropped", s.dropped),
		zap.Int("max_catch_up", s.cfg.MaxCatchUp),
	)
}

// Run pumps frames until ctx is done or Stop is called. No tick is
// interrupted; cancellation only prevents the next frame.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	defer s.running.Store(false)

	ticker := time.NewTicker(s.cfg.FrameRate)
	defer ticker.Stop()

	s.Start(s.clock.Now())
	s.log.Info("scheduler started",
		zap.Duration("tick", s.cfg.TickRate),
		zap.Duration("frame", s.cfg.FrameRate),
	)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", zap.Uint64("ticks", s.ticks), zap.Duration("sim_time", s.simTime))
			return nil
		case <-s.stopCh:
			s.log.Info("scheduler stopped", zap.Uint64("ticks", s.ticks), zap.Duration("sim_time", s.simTime))
			return nil
		case <-ticker.C:
			s.Tick(s.clock.Now())
		}
	}
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Scheduler) Running() bool { return s.running.Load() }

func (s *Scheduler) SimTime() time.Duration { return s.simTime }

func (s *Scheduler) Ticks() uint64 { return s.ticks }

func (s *Scheduler) Alpha() float64 { return s.alpha }

// Backlog is the unconsumed time carried into the next frame.
func (s *Scheduler) Backlog() time.Duration { return s.acc }

// Dropped is the total outstanding time discarded by MaxBacklog.
func (s *Scheduler) Dropped() time.Duration { return s.dropped }
