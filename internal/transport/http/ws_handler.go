package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"accreditation-questionnaire-service/internal/app"
	"accreditation-questionnaire-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuestionnaireService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuestionnaireService) *WSHandler {
	return &WSHandler{
		service: service,
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

type changePayload struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type fieldErrorsPayload struct {
	Section  domain.SectionID   `json:"section"`
	Fields   domain.FieldErrors `json:"fields"`
	Assembly bool               `json:"assembly,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs one questionnaire session per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	draftID := r.URL.Query().Get("draftId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	started, err := h.service.Start(r.Context(), draftID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := started.SessionID

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Close(r.Context(), sessionID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The initial snapshot arrives through the subscription.
	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
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
		for _, msg := range h.handle(r, sessionID, inbound) {
			select {
			case send <- msg:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle applies one inbound message. State changes reach the client through the
// subscription; the returned messages carry only outcomes specific to this request.
func (h *WSHandler) handle(r *http.Request, sessionID string, inbound inboundMessage) []outboundMessage[any] {
	ctx := r.Context()
	var err error

	switch inbound.Type {
	case "change":
		var payload changePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Field == "" {
			return errorMessages("invalid change payload")
		}
		_, err = h.service.ChangeField(ctx, sessionID, payload.Field, payload.Value)
	case "next":
		_, err = h.service.Next(ctx, sessionID)
		if err == nil {
			if payload, perr := h.service.Payload(ctx, sessionID); perr == nil {
				return []outboundMessage[any]{{Type: "submitted", Payload: payload}}
			}
		}
	case "previous":
		_, err = h.service.Previous(ctx, sessionID)
	case "jump":
		var payload jumpPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessages("invalid jump payload")
		}
		_, err = h.service.JumpTo(ctx, sessionID, domain.SectionID(payload.Index))
	case "state":
		view, serr := h.service.State(ctx, sessionID)
		if serr != nil {
			return errorMessages(serr.Error())
		}
		return []outboundMessage[any]{{Type: "state", Payload: view}}
	default:
		return errorMessages("unsupported message type")
	}

	if err == nil {
		return nil
	}
	var section *domain.SectionValidationFailure
	if errors.As(err, &section) {
		return []outboundMessage[any]{{Type: "fieldErrors", Payload: fieldErrorsPayload{Section: section.Section, Fields: section.Fields}}}
	}
	var assembly *domain.AssemblyError
	if errors.As(err, &assembly) {
		return []outboundMessage[any]{{Type: "fieldErrors", Payload: fieldErrorsPayload{Section: assembly.Section, Fields: assembly.Fields, Assembly: true}}}
	}
	return errorMessages(err.Error())
}

func errorMessages(message string) []outboundMessage[any] {
	return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: message}}}
}
