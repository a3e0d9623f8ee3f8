package app

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quiz-arena-service/internal/domain"
)

// Room holds the complete state of one quiz session. All fields behind mu;
// every handler and timer callback locks the room before touching it, so
// check-then-mutate sequences are atomic per room. Rooms are independent
// units of concurrency and share no mutable state.
type Room struct {
	mu sync.Mutex

	code         string
	owner        string
	players      []*domain.Player
	settings     domain.Settings
	questions    []domain.Question
	currentIndex int
	timeLeft     int
	phase        domain.Phase

	// At most one ticker and one timeout live at a time, owned by this
	// room only. Cancelled on every round-ending path before the next
	// round's timers are created.
	ticker     *time.Ticker
	tickerDone chan struct{}
	timeout    *time.Timer
}

func newRoom(code, owner string, settings domain.Settings, questions []domain.Question) *Room {
	return &Room{
		code:      code,
		owner:     owner,
		players:   []*domain.Player{{Username: owner}},
		settings:  settings,
		questions: questions,
		phase:     domain.PhaseCreated,
	}
}

// newRoomCode returns a pseudo-random 4-digit code in [1000, 9999].
// Codes are not checked against currently registered rooms; Registry.Register
// rejects the rare collision.
func newRoomCode() string {
	return strconv.Itoa(1000 + rand.Intn(9000))
}

func (r *Room) findPlayerLocked(username string) *domain.Player {
	for _, p := range r.players {
		if p.Username == username {
			return p
		}
	}
	return nil
}

func (r *Room) allAnsweredLocked() bool {
	for _, p := range r.players {
		if p.Answer == nil {
			return false
		}
	}
	return true
}

func (r *Room) resetAnswersLocked() {
	for _, p := range r.players {
		p.Answer = nil
		p.AnswerTime = 0
	}
}

// cancelTimersLocked stops both round timers. Safe to call on every
// round-ending path, including repeatedly.
func (r *Room) cancelTimersLocked() {
	if r.ticker != nil {
		r.ticker.Stop()
		close(r.tickerDone)
		r.ticker = nil
		r.tickerDone = nil
	}
	if r.timeout != nil {
		r.timeout.Stop()
		r.timeout = nil
	}
}

func (r *Room) playersLocked() []domain.PlayerView {
	views := make([]domain.PlayerView, 0, len(r.players))
	for _, p := range r.players {
		views = append(views, domain.PlayerView{
			Username: p.Username,
			Score:    p.Score,
			Answered: p.Answer != nil,
		})
	}
	return views
}

func (r *Room) stateLocked() domain.RoomState {
	return domain.RoomState{
		Code:     r.code,
		Owner:    r.owner,
		Phase:    r.phase,
		Settings: r.settings,
		Players:  r.playersLocked(),
	}
}

// State returns a broadcast-friendly snapshot of the room.
func (r *Room) State() domain.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

// Registry is the process-wide store mapping a room code to its live room.
// It is injected rather than shared as a global so tests get isolated
// instances.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Register adds a room under its code. Fails if the code is already live.
func (r *Registry) Register(room *Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.code]; ok {
		return domain.ErrRoomCodeTaken
	}
	r.rooms[room.code] = room
	return nil
}

func (r *Registry) Lookup(code string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
