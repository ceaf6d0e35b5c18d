package render

import "sync"

// Snapshot is what one Draw call saw.
type Snapshot struct {
	Camera Camera
	Meshes []Mesh // visible meshes only, copied
}

// Recorder is a headless backend. It keeps the last Keep snapshots; zero
// keeps only a count.
type Recorder struct {
	Keep int
	Fail error // returned from every Draw when set

	mu    sync.Mutex
	shots []Snapshot
	draws int
}

func (r *Recorder) Draw(s *Scene, c *Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draws++
	if r.Fail != nil {
		return r.Fail
	}
	if r.Keep <= 0 {
		return nil
	}
	shot := Snapshot{Camera: *c}
	for _, m := range s.Meshes() {
		if m.Visible {
			shot.Meshes = append(shot.Meshes, *m)
		}
	}
	r.shots = append(r.shots, shot)
	if over := len(r.shots) - r.Keep; over > 0 {
		r.shots = r.shots[over:]
	}
	return nil
}

func (r *Recorder) Draws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draws
}

// Last returns the newest snapshot.
func (r *Recorder) Last() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.shots) == 0 {
		return Snapshot{}, false
	}
	return r.shots[len(r.shots)-1], true
}
