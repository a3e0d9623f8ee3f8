package domain

import "time"

// Phase is the lifecycle state of a quiz room.
type Phase string

const (
	PhaseCreated     Phase = "created"
	PhaseRoundActive Phase = "round-active"
	PhaseRevealing   Phase = "revealing"
	PhaseFinished    Phase = "finished"
)

// Settings are the room parameters chosen at creation time.
// MaxPlayers is advisory and is not enforced on join.
type Settings struct {
	Domain           string `json:"domain"`
	NumQuestions     int    `json:"numQuestions"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
	MaxPlayers       int    `json:"maxPlayers"`
}

// Player is one participant in a room. Answer is nil until the player
// submits during the active round; AnswerTime is the room's remaining
// time sampled at the moment of submission.
type Player struct {
	Username   string `json:"username"`
	Score      int    `json:"score"`
	Answer     *int   `json:"answer,omitempty"`
	AnswerTime int    `json:"answerTime,omitempty"`
}

// Question models an MCQ question with exactly one correct option index.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// Result is the persisted outcome for a single player once a session ends.
type Result struct {
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	Domain      string    `json:"domain"`
	CompletedAt time.Time `json:"completedAt"`
}

// PlayerView is a broadcast-friendly snapshot of a player.
type PlayerView struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
	Answered bool   `json:"answered"`
}

// RoomState is the broadcast-friendly snapshot of a room.
type RoomState struct {
	Code     string       `json:"code"`
	Owner    string       `json:"owner"`
	Phase    Phase        `json:"phase"`
	Settings Settings     `json:"settings"`
	Players  []PlayerView `json:"players"`
}
