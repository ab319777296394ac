package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trivia-arcade/internal/app"
	"trivia-arcade/internal/domain"
	"trivia-arcade/internal/game"
)

// TokenVerifier resolves an optional identity token into a user.
type TokenVerifier interface {
	Verify(token string) (domain.User, error)
}

// WSHandler drives one game session per websocket connection: inbound
// messages carry player intents, outbound messages stream state snapshots.
type WSHandler struct {
	service  *app.GameService
	verifier TokenVerifier
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, verifier TokenVerifier) *WSHandler {
	return &WSHandler{
		service:  service,
		verifier: verifier,
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

type startPayload struct {
	Mode     domain.Mode `json:"mode"`
	Category string      `json:"category"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type powerUpPayload struct {
	Kind domain.PowerUp `json:"kind"`
}

type ratePayload struct {
	Rating int `json:"rating"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and pumps intents into the session state
// machine. Anonymous connections play under a connection-scoped id and skip
// score submission and rating.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var user *domain.User
	if token := r.URL.Query().Get("token"); token != "" {
		verified, err := h.verifier.Verify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		user = &verified
	}

	ownerID := uuid.NewString()
	if user != nil {
		ownerID = user.ID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := h.service.Attach(ownerID, user)
	defer h.service.Detach(ownerID)

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// A single writer goroutine keeps concurrent snapshot and reply writes off
	// the same connection.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if reply := h.dispatch(r, session, inbound); reply != nil {
			select {
			case send <- *reply:
			case <-closeSignals:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one intent. State changes flow back through the snapshot
// subscription; only failures produce a direct reply.
func (h *WSHandler) dispatch(r *http.Request, session *game.Session, inbound inboundMessage) *outboundMessage[any] {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid start payload")
		}
		if err := session.Start(r.Context(), payload.Mode, payload.Category); err != nil {
			return errorMessage(err.Error())
		}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid answer payload")
		}
		session.Answer(payload.Option)
	case "powerup":
		var payload powerUpPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid powerup payload")
		}
		session.UsePowerUp(r.Context(), payload.Kind)
	case "rate":
		var payload ratePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid rate payload")
		}
		if err := session.RateAnswer(r.Context(), payload.Rating); err != nil {
			return errorMessage(err.Error())
		}
	case "home":
		session.Home()
	default:
		return errorMessage("unsupported message type")
	}
	return nil
}

func errorMessage(message string) *outboundMessage[any] {
	return &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
