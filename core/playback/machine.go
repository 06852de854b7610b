package playback

import (
	"context"
	"sync"

	"github.com/trezcool/tirgul/core/video"
)

type State int

const (
	Idle       State = iota // no episode selected
	Seeking                 // player sent to the episode's start
	Playing                 // playing within the episode
	Completing              // episode end reached, completion call in flight
)

func (s State) String() string {
	switch s {
	case Seeking:
		return "seeking"
	case Playing:
		return "playing"
	case Completing:
		return "completing"
	}
	return "idle"
}

type (
	// Player is the video player being driven.
	Player interface {
		Pause()
		SeekTo(seconds float64)
	}

	// Tracker records watched episodes remotely and returns the updated watched episode IDs.
	Tracker interface {
		MarkEpisodeWatched(ctx context.Context, courseID, episodeIndex int) ([]string, error)
	}

	Options struct {
		CourseID int
		Player   Player
		Tracker  Tracker
		// OnWatched receives the watched episode IDs once an episode is completed.
		OnWatched func(episodesWatched []string)
		// OnError receives completion call failures.
		OnError func(err error)
	}

	// Machine follows the active episode of a course video.
	// It seeks the player to the episode's start and reports the episode once its end is reached.
	// At most one completion call is in flight at a time.
	Machine struct {
		opts Options
		ctx  context.Context

		mu         sync.Mutex
		state      State
		ready      bool
		visible    bool
		active     *video.Episode
		lastSeeked string
		inFlight   bool
		calls      sync.WaitGroup
	}
)

func NewMachine(ctx context.Context, opts Options) *Machine {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Machine{opts: opts, ctx: ctx}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Visible reports whether the player replaced the thumbnail.
func (m *Machine) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *Machine) Active() (video.Episode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return video.Episode{}, false
	}
	return *m.active, true
}

// InFlight reports whether a completion call is pending.
func (m *Machine) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// seekActive must be called with mu held.
func (m *Machine) seekActive() {
	if !m.ready || m.active == nil || m.active.ID == m.lastSeeked {
		return
	}
	m.opts.Player.Pause()
	m.opts.Player.SeekTo(m.active.StartTime)
	m.lastSeeked = m.active.ID
	m.state = Seeking
}

// SelectEpisode makes ep the active episode. Selecting the active episode again does nothing.
// Before the player is loaded, the episode is only recorded.
func (m *Machine) SelectEpisode(ep video.Episode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = &ep
	m.seekActive()
}

// Loaded must be called once the player signals it is ready.
func (m *Machine) Loaded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ready = true
	m.visible = true
	m.seekActive()
}

// Play must be called before playback resumes at currentTime.
// Outside of the active episode, the player is snapped back to its start; Play then returns true.
func (m *Machine) Play(currentTime float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return false
	}
	snapped := false
	if !m.active.Contains(currentTime) {
		m.opts.Player.SeekTo(m.active.StartTime)
		snapped = true
	}
	if m.inFlight {
		return snapped
	}
	if snapped {
		m.state = Seeking
	} else {
		m.state = Playing
	}
	return snapped
}

// TimeUpdate must be called on every playback time tick.
// Reaching the active episode's end pauses the player and reports the episode, unless a report is in flight.
// While seeking, ticks are ignored until one lands within the episode.
func (m *Machine) TimeUpdate(currentTime float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.inFlight {
		return
	}
	if m.state == Seeking {
		// ticks from before the seek landed still carry the previous position
		if m.active.Contains(currentTime) {
			m.state = Playing
		}
		return
	}
	if currentTime < m.active.EndTime {
		return
	}

	m.opts.Player.Pause()
	m.inFlight = true
	m.state = Completing

	index := m.active.Index
	m.calls.Add(1)
	go m.complete(index)
}

func (m *Machine) complete(index int) {
	defer m.calls.Done()

	watched, err := m.opts.Tracker.MarkEpisodeWatched(m.ctx, m.opts.CourseID, index)

	m.mu.Lock()
	// cleared even if another episode got selected meanwhile: marking is idempotent
	m.inFlight = false
	if m.state == Completing {
		m.state = Idle
	}
	m.mu.Unlock()

	if err != nil {
		if m.opts.OnError != nil {
			m.opts.OnError(err)
		}
		return
	}
	if m.opts.OnWatched != nil {
		m.opts.OnWatched(watched)
	}
}

// Wait blocks until no completion call is in flight.
func (m *Machine) Wait() {
	m.calls.Wait()
}
