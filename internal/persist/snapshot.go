package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/runicrealm/engine/internal/core/physics"
)

// BodyState is the saved part of one physics body.
type BodyState struct {
	ID       uint64     `msgpack:"id"`
	Category uint8      `msgpack:"c"`
	Position [3]float64 `msgpack:"p"` // local position
	Velocity [3]float64 `msgpack:"v"`
}

// Snapshot is the world state at one tick.
type Snapshot struct {
	ID      int64
	Tick    uint64
	SimTime time.Duration
	Bodies  []BodyState
	TakenAt time.Time
}

// CaptureBodies copies every registered body of w, dynamic first.
func CaptureBodies(w *physics.World) []BodyState {
	var out []BodyState
	for _, c := range []physics.Category{physics.Dynamic, physics.Kinematic, physics.Trigger} {
		for _, b := range w.Bodies(c) {
			out = append(out, BodyState{
				ID:       uint64(b.ID()),
				Category: uint8(c),
				Position: b.Local(),
				Velocity: b.Velocity,
			})
		}
	}
	return out
}

// RestoreBodies writes saved positions, velocities and categories back onto
// the bodies of w with matching ids and returns how many matched. Unknown
// category values leave the live category alone.
func RestoreBodies(w *physics.World, bodies []BodyState) int {
	byID := make(map[uint64]BodyState, len(bodies))
	for _, s := range bodies {
		byID[s.ID] = s
	}
	var live []*physics.Body
	for _, c := range []physics.Category{physics.Dynamic, physics.Kinematic, physics.Trigger} {
		live = append(live, w.Bodies(c)...)
	}
	n := 0
	for _, b := range live {
		s, ok := byID[uint64(b.ID())]
		if !ok {
			continue
		}
		b.SetLocal(s.Position)
		b.Velocity = s.Velocity
		if c := physics.Category(s.Category); c <= physics.Trigger && c != b.Category() {
			b.SetCategory(c)
		}
		n++
	}
	return n
}

func EncodeBodies(bodies []BodyState) ([]byte, error) {
	raw, err := msgpack.Marshal(bodies)
	if err != nil {
		return nil, fmt.Errorf("encode bodies: %w", err)
	}
	return raw, nil
}

func DecodeBodies(raw []byte) ([]BodyState, error) {
	var bodies []BodyState
	if err := msgpack.Unmarshal(raw, &bodies); err != nil {
		return nil, fmt.Errorf("decode bodies: %w", err)
	}
	return bodies, nil
}

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save inserts s and returns its row id.
func (r *SnapshotRepo) Save(ctx context.Context, s Snapshot) (int64, error) {
	blob, err := EncodeBodies(s.Bodies)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO snapshots (tick, sim_time_ns, body_count, bodies)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		int64(s.Tick), int64(s.SimTime), len(s.Bodies), blob,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the newest snapshot, or nil when none has been saved.
func (r *SnapshotRepo) Latest(ctx context.Context) (*Snapshot, error) {
	var (
		s     Snapshot
		tick  int64
		simNs int64
		blob  []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, tick, sim_time_ns, bodies, taken_at
		 FROM snapshots
		 ORDER BY tick DESC, id DESC
		 LIMIT 1`,
	).Scan(&s.ID, &tick, &simNs, &blob, &s.TakenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	s.Tick = uint64(tick)
	s.SimTime = time.Duration(simNs)
	if s.Bodies, err = DecodeBodies(blob); err != nil {
		return nil, err
	}
	return &s, nil
}

// Prune deletes all but the newest keep snapshots.
func (r *SnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM snapshots
		 WHERE id NOT IN (SELECT id FROM snapshots ORDER BY tick DESC, id DESC LIMIT $1)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
