package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code resolves to nothing.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomCodeTaken is returned when registering a room under a live code.
	ErrRoomCodeTaken = errors.New("room code already registered")
	// ErrUsernameTaken is returned when a join reuses a name in the room.
	ErrUsernameTaken = errors.New("username taken")
	// ErrPlayerNotFound is returned when a user acts before joining.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrNotOwner is returned when a non-owner tries to start the quiz.
	ErrNotOwner = errors.New("only the room owner may start the quiz")
	// ErrNoQuestions indicates the provider returned nothing for a domain.
	ErrNoQuestions = errors.New("no questions available")
	// ErrDomainNotFound indicates the question domain could not be resolved.
	ErrDomainNotFound = errors.New("question domain not found")
	// ErrRoundOutOfRange indicates the current round index is invalid.
	ErrRoundOutOfRange = errors.New("round index out of range")
	// ErrMalformedQuestion indicates a question cannot be played.
	ErrMalformedQuestion = errors.New("malformed question")
)
