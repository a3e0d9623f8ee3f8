package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"quiz-arena-service/internal/domain"
)

// maxQuestions caps how many questions a single room may request.
const maxQuestions = 50

// Broadcast event types sent to every connection in a room.
const (
	EventRoomState       = "room-state"
	EventRoundStarted    = "round-started"
	EventTick            = "tick"
	EventAnswerSubmitted = "answer-submitted"
	EventRoundFinished   = "round-finished"
	EventSessionFinished = "session-finished"
	EventSessionError    = "session-error"
	EventChat            = "chat"
)

// QuestionProvider loads quiz content for a question domain (from
// cache/backing store). Fetch may return fewer questions than requested;
// an unrecognized domain is retried against case-insensitive and synonym
// variants before failing.
type QuestionProvider interface {
	Fetch(ctx context.Context, questionDomain string, count int) ([]domain.Question, error)
	Domains(ctx context.Context) ([]string, error)
}

// ResultPersister stores one player's final result. Calls are independent;
// a failed save for one player must not affect the others.
type ResultPersister interface {
	Save(ctx context.Context, result domain.Result) error
}

// Broadcaster fans an event out to every connection in a room.
type Broadcaster interface {
	Broadcast(code, event string, payload any)
}

// RoundPayload announces the active question. The correct option index is
// withheld until the round finishes.
type RoundPayload struct {
	Index     int                 `json:"index"`
	Text      string              `json:"text"`
	Options   []string            `json:"options"`
	TimeLimit int                 `json:"timeLimit"`
	Players   []domain.PlayerView `json:"players"`
}

type TickPayload struct {
	Index    int `json:"index"`
	TimeLeft int `json:"timeLeft"`
}

type AnswerSubmittedPayload struct {
	Username string              `json:"username"`
	Players  []domain.PlayerView `json:"players"`
}

// RoundFinishedPayload reveals the correct answer and current scores.
type RoundFinishedPayload struct {
	Index   int                 `json:"index"`
	Correct int                 `json:"correct"`
	Players []domain.PlayerView `json:"players"`
}

type SessionFinishedPayload struct {
	Players []domain.PlayerView `json:"players"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type ChatPayload struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// UnknownDomainError reports a failed room creation together with the
// domains the provider can actually serve.
type UnknownDomainError struct {
	Domain    string
	Available []string
}

func (e *UnknownDomainError) Error() string {
	return fmt.Sprintf("no questions for domain %q (available: %s)", e.Domain, strings.Join(e.Available, ", "))
}

func (e *UnknownDomainError) Unwrap() error { return domain.ErrNoQuestions }

// Engine is the operation surface of the quiz-room subsystem: it validates
// inbound events, mutates room state under the per-room lock, and drives
// round scheduling. One engine serves all rooms in the process.
type Engine struct {
	rooms     *Registry
	questions QuestionProvider
	results   ResultPersister
	bc        Broadcaster

	// tick is the length of one countdown second; revealDelay is the pause
	// between a round's reveal and the next round.
	tick        time.Duration
	revealDelay time.Duration
	clock       func() time.Time
}

func NewEngine(rooms *Registry, questions QuestionProvider, results ResultPersister, bc Broadcaster) *Engine {
	return newEngine(rooms, questions, results, bc, time.Second, 3*time.Second)
}

// NewEngineWithTiming overrides the countdown tick and the reveal delay
// (config-driven in the server, compressed in tests).
func NewEngineWithTiming(rooms *Registry, questions QuestionProvider, results ResultPersister, bc Broadcaster, tick, revealDelay time.Duration) *Engine {
	return newEngine(rooms, questions, results, bc, tick, revealDelay)
}

func newEngine(rooms *Registry, questions QuestionProvider, results ResultPersister, bc Broadcaster, tick, revealDelay time.Duration) *Engine {
	return &Engine{
		rooms:       rooms,
		questions:   questions,
		results:     results,
		bc:          bc,
		tick:        tick,
		revealDelay: revealDelay,
		clock:       time.Now,
	}
}

// CreateRoom fetches questions for the requested domain, builds a room with
// the creator as owner and sole player, and registers it. NumQuestions is
// rewritten to the count the provider actually returned.
func (e *Engine) CreateRoom(ctx context.Context, owner string, settings domain.Settings) (domain.RoomState, error) {
	count := settings.NumQuestions
	if count > maxQuestions {
		count = maxQuestions
	}

	questions, err := e.questions.Fetch(ctx, settings.Domain, count)
	if err != nil && !errors.Is(err, domain.ErrDomainNotFound) {
		return domain.RoomState{}, fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		available, derr := e.questions.Domains(ctx)
		if derr != nil {
			log.Printf("list question domains: %v", derr)
		}
		return domain.RoomState{}, &UnknownDomainError{Domain: settings.Domain, Available: available}
	}
	settings.NumQuestions = len(questions)

	room := newRoom(newRoomCode(), owner, settings, questions)
	if err := e.rooms.Register(room); err != nil {
		return domain.RoomState{}, err
	}

	state := room.State()
	e.bc.Broadcast(state.Code, EventRoomState, state)
	return state, nil
}

// JoinRoom appends a new player with a unique username to the room.
func (e *Engine) JoinRoom(code, username string) (domain.RoomState, error) {
	room, ok := e.rooms.Lookup(code)
	if !ok {
		return domain.RoomState{}, domain.ErrRoomNotFound
	}

	room.mu.Lock()
	if room.findPlayerLocked(username) != nil {
		room.mu.Unlock()
		return domain.RoomState{}, domain.ErrUsernameTaken
	}
	room.players = append(room.players, &domain.Player{Username: username})
	state := room.stateLocked()
	room.mu.Unlock()

	e.bc.Broadcast(code, EventRoomState, state)
	return state, nil
}

// StartQuiz begins the first round. Only the room owner may start.
func (e *Engine) StartQuiz(code, requester string) error {
	room, ok := e.rooms.Lookup(code)
	if !ok {
		return domain.ErrRoomNotFound
	}

	room.mu.Lock()
	if requester != room.owner {
		room.mu.Unlock()
		return domain.ErrNotOwner
	}
	if room.phase != domain.PhaseCreated {
		room.mu.Unlock()
		return nil
	}
	e.beginRoundLocked(room, 0)
	room.mu.Unlock()
	return nil
}

// SubmitAnswer records a player's answer for the active round. The first
// submission wins; anything after it, or any submission outside an active
// round, is silently ignored. When the last player answers, the round
// finishes immediately instead of waiting for the timeout.
func (e *Engine) SubmitAnswer(code, username string, answerIndex int) {
	room, ok := e.rooms.Lookup(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != domain.PhaseRoundActive {
		return
	}
	if room.currentIndex < 0 || room.currentIndex >= len(room.questions) {
		return
	}
	player := room.findPlayerLocked(username)
	if player == nil || player.Answer != nil {
		return
	}

	idx := answerIndex
	player.Answer = &idx
	player.AnswerTime = room.timeLeft

	question := room.questions[room.currentIndex]
	if answerIndex == question.Correct {
		player.Score += ScoreDelta(player.AnswerTime, room.settings.TimeLimitSeconds)
	}

	e.bc.Broadcast(code, EventAnswerSubmitted, AnswerSubmittedPayload{
		Username: username,
		Players:  room.playersLocked(),
	})

	if room.allAnsweredLocked() {
		e.finishRoundLocked(room)
	}
}

// ChatMessage relays a chat line to the room. Not part of game state.
func (e *Engine) ChatMessage(code, username, text string) error {
	room, ok := e.rooms.Lookup(code)
	if !ok {
		return domain.ErrRoomNotFound
	}

	room.mu.Lock()
	member := room.findPlayerLocked(username) != nil
	room.mu.Unlock()
	if !member {
		return domain.ErrPlayerNotFound
	}

	e.bc.Broadcast(code, EventChat, ChatPayload{Username: username, Text: text})
	return nil
}

// beginRoundLocked starts one round: validates the question, resets answers,
// broadcasts the question, and arms the countdown ticker plus the round
// timeout. Precondition failures broadcast a session-error and start no
// timers. Caller holds room.mu.
func (e *Engine) beginRoundLocked(room *Room, index int) {
	if err := validRound(room.questions, index); err != nil {
		e.bc.Broadcast(room.code, EventSessionError, ErrorPayload{Message: err.Error()})
		return
	}

	// Previous round's timers must be gone before new ones exist.
	room.cancelTimersLocked()

	room.resetAnswersLocked()
	room.currentIndex = index
	room.timeLeft = room.settings.TimeLimitSeconds
	room.phase = domain.PhaseRoundActive

	question := room.questions[index]
	e.bc.Broadcast(room.code, EventRoundStarted, RoundPayload{
		Index:     index,
		Text:      question.Text,
		Options:   question.Options,
		TimeLimit: room.settings.TimeLimitSeconds,
		Players:   room.playersLocked(),
	})

	code := room.code
	ticker := time.NewTicker(e.tick)
	done := make(chan struct{})
	room.ticker = ticker
	room.tickerDone = done
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				e.onTick(code, index)
			}
		}
	}()
	room.timeout = time.AfterFunc(time.Duration(room.settings.TimeLimitSeconds)*e.tick, func() {
		e.onTimeout(code, index)
	})
}

// onTick decrements the server-authoritative countdown and broadcasts it.
// The room is re-resolved by code so a stale timer of a deleted room no-ops.
func (e *Engine) onTick(code string, index int) {
	room, ok := e.rooms.Lookup(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != domain.PhaseRoundActive || room.currentIndex != index {
		return
	}
	if room.timeLeft > 0 {
		room.timeLeft--
	}
	e.bc.Broadcast(code, EventTick, TickPayload{Index: index, TimeLeft: room.timeLeft})
}

// onTimeout fires when the round deadline passes. It races the all-answered
// short-circuit; whichever takes the room lock first finishes the round and
// the loser sees a phase that is no longer RoundActive.
func (e *Engine) onTimeout(code string, index int) {
	room, ok := e.rooms.Lookup(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != domain.PhaseRoundActive || room.currentIndex != index {
		return
	}
	e.finishRoundLocked(room)
}

// finishRoundLocked ends the active round exactly once: cancels both timers,
// reveals the correct answer, and schedules the advance to the next round or
// session end after the reveal delay. Caller holds room.mu.
func (e *Engine) finishRoundLocked(room *Room) {
	room.cancelTimersLocked()

	if room.currentIndex < 0 || room.currentIndex >= len(room.questions) {
		// Fail closed: reveal nothing, advance nowhere.
		e.bc.Broadcast(room.code, EventSessionError, ErrorPayload{Message: domain.ErrRoundOutOfRange.Error()})
		return
	}

	room.phase = domain.PhaseRevealing
	index := room.currentIndex
	e.bc.Broadcast(room.code, EventRoundFinished, RoundFinishedPayload{
		Index:   index,
		Correct: room.questions[index].Correct,
		Players: room.playersLocked(),
	})

	code := room.code
	time.AfterFunc(e.revealDelay, func() {
		e.advance(code, index)
	})
}

// advance moves past the reveal: next round if questions remain, otherwise
// final scores, result persistence, and room teardown.
func (e *Engine) advance(code string, fromIndex int) {
	room, ok := e.rooms.Lookup(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != domain.PhaseRevealing || room.currentIndex != fromIndex {
		return
	}

	next := room.currentIndex + 1
	if next < len(room.questions) {
		e.beginRoundLocked(room, next)
		return
	}

	room.phase = domain.PhaseFinished
	e.bc.Broadcast(code, EventSessionFinished, SessionFinishedPayload{Players: room.playersLocked()})

	completed := e.clock()
	results := make([]domain.Result, 0, len(room.players))
	for _, p := range room.players {
		results = append(results, domain.Result{
			Username:    p.Username,
			Score:       p.Score,
			Domain:      room.settings.Domain,
			CompletedAt: completed,
		})
	}

	go func() {
		e.persistResults(context.Background(), results)
		e.rooms.Remove(code)
	}()
}

// persistResults settles every save independently; a failed write is logged
// and never blocks the sibling writes or the room teardown.
func (e *Engine) persistResults(ctx context.Context, results []domain.Result) {
	var g errgroup.Group
	for _, result := range results {
		result := result
		g.Go(func() error {
			if err := e.results.Save(ctx, result); err != nil {
				log.Printf("persist result for %s: %v", result.Username, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func validRound(questions []domain.Question, index int) error {
	if len(questions) == 0 {
		return domain.ErrNoQuestions
	}
	if index < 0 || index >= len(questions) {
		return domain.ErrRoundOutOfRange
	}
	q := questions[index]
	if q.Text == "" || len(q.Options) < 2 || q.Correct < 0 || q.Correct >= len(q.Options) {
		return domain.ErrMalformedQuestion
	}
	return nil
}
