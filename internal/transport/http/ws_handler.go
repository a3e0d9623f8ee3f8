package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/domain"
)

// WSHandler upgrades HTTP requests to websockets and wires them into the
// quiz-room engine.
type WSHandler struct {
	engine   *app.Engine
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.Engine, hub *Hub) *WSHandler {
	return &WSHandler{
		engine: engine,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createRoomPayload struct {
	Username string          `json:"username"`
	Settings domain.Settings `json:"settings"`
}

type joinRoomPayload struct {
	Code     string `json:"code"`
	Username string `json:"username"`
}

type submitAnswerPayload struct {
	AnswerIndex int `json:"answerIndex"`
}

type chatPayload struct {
	Text string `json:"text"`
}

type connectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

type errorPayload struct {
	Message          string   `json:"message"`
	AvailableDomains []string `json:"availableDomains,omitempty"`
}

// ServeWS handles one connection for its whole lifetime. The read loop is
// the only writer of the connection's room binding; outbound traffic goes
// through the client's send channel.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	client := newClient(uuid.NewString(), conn)
	go client.writePump()
	defer close(client.send)

	h.reply(client, "connected", connectedPayload{ConnectionID: client.ID})

	var roomCode, username string
	defer func() {
		if roomCode != "" {
			h.hub.Leave(roomCode, client)
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "createRoom":
			var payload createRoomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Username == "" {
				h.replyError(client, "invalid createRoom payload", nil)
				continue
			}
			state, err := h.engine.CreateRoom(r.Context(), payload.Username, payload.Settings)
			if err != nil {
				var unknown *app.UnknownDomainError
				if errors.As(err, &unknown) {
					h.replyError(client, unknown.Error(), unknown.Available)
				} else {
					h.replyError(client, err.Error(), nil)
				}
				continue
			}
			if roomCode != "" {
				h.hub.Leave(roomCode, client)
			}
			roomCode, username = state.Code, payload.Username
			h.hub.Join(roomCode, client)
			h.reply(client, "room-created", state)

		case "joinRoom":
			var payload joinRoomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Username == "" {
				h.replyError(client, "invalid joinRoom payload", nil)
				continue
			}
			state, err := h.engine.JoinRoom(payload.Code, payload.Username)
			if err != nil {
				h.replyError(client, err.Error(), nil)
				continue
			}
			if roomCode != "" {
				h.hub.Leave(roomCode, client)
			}
			roomCode, username = payload.Code, payload.Username
			h.hub.Join(roomCode, client)
			h.reply(client, "room-joined", state)

		case "startQuiz":
			if roomCode == "" {
				h.replyError(client, "not in a room", nil)
				continue
			}
			if err := h.engine.StartQuiz(roomCode, username); err != nil {
				h.replyError(client, err.Error(), nil)
			}

		case "submitAnswer":
			if roomCode == "" {
				continue
			}
			var payload submitAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.replyError(client, "invalid submitAnswer payload", nil)
				continue
			}
			h.engine.SubmitAnswer(roomCode, username, payload.AnswerIndex)

		case "chatMessage":
			if roomCode == "" {
				continue
			}
			var payload chatPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.replyError(client, "invalid chatMessage payload", nil)
				continue
			}
			if err := h.engine.ChatMessage(roomCode, username, payload.Text); err != nil {
				h.replyError(client, err.Error(), nil)
			}

		default:
			h.replyError(client, "unsupported message type", nil)
		}
	}
}

func (h *WSHandler) reply(c *Client, event string, payload any) {
	data, err := json.Marshal(envelope{Type: event, Payload: payload})
	if err != nil {
		log.Printf("marshal %s reply: %v", event, err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *WSHandler) replyError(c *Client, message string, availableDomains []string) {
	h.reply(c, "error", errorPayload{Message: message, AvailableDomains: availableDomains})
}
