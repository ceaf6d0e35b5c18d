package input

import "sync"

type Kind uint8

const (
	KeyDown Kind = iota
	KeyUp
	ButtonDown
	ButtonUp
	PointerMove
	Wheel
)

// Event is one raw device event.
type Event struct {
	Kind   Kind
	Key    string
	Button int
	X, Y   float64
	Delta  float64
}

// Queue collects events from device goroutines until the game drains them.
type Queue struct {
	mu     sync.Mutex
	events []Event
	taps   []string // keys to release on the next drain

	releaseNext []string // game thread only
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Tap presses key now and releases it on the following drain, for devices
// that report no key-up events.
func (q *Queue) Tap(key string) {
	q.mu.Lock()
	q.events = append(q.events, Event{Kind: KeyDown, Key: key})
	q.taps = append(q.taps, key)
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drain applies every queued event to s in arrival order and returns how many
// were applied. Taps from the previous drain are released first unless the
// same key was tapped again in this batch.
func (q *Queue) Drain(s *State) int {
	q.mu.Lock()
	events, taps := q.events, q.taps
	q.events, q.taps = nil, nil
	q.mu.Unlock()

	again := make(map[string]bool, len(taps))
	for _, k := range taps {
		again[s.key(k)] = true
	}
	for _, k := range q.releaseNext {
		if !again[s.key(k)] {
			s.Release(k)
		}
	}
	q.releaseNext = taps

	for _, e := range events {
		switch e.Kind {
		case KeyDown:
			s.Press(e.Key)
		case KeyUp:
			s.Release(e.Key)
		case ButtonDown:
			s.PressButton(e.Button)
		case ButtonUp:
			s.ReleaseButton(e.Button)
		case PointerMove:
			s.MoveTo(e.X, e.Y)
		case Wheel:
			s.Scroll(e.Delta)
		}
	}
	return len(events)
}
