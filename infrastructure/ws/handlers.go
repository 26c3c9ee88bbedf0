package ws

import (
	"chat-relay/errors"
	"chat-relay/wire"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/google/uuid"
)

// Request validation happens here, before anything touches the store; the
// services keep their own sentinel guards behind it.

type JoinRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=64"`
}

type JoinResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
}

type SendMessageRequest struct {
	SenderID   uuid.UUID `json:"senderId" validate:"required"`
	SenderName string    `json:"senderName" validate:"required,max=64"`
	Body       string    `json:"message" validate:"required,max=1024"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.presence.Join(r.Context(), req.DisplayName)
	switch {
	case stderrors.Is(err, errors.ErrEmptyDisplayName):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "failed to join chat")
	default:
		s.writeJSON(w, http.StatusOK, JoinResponse{ID: user.ID, DisplayName: user.DisplayName})
	}
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.presence.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if user == nil {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.writeJSON(w, http.StatusOK, wire.FromUser(*user))
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.presence.Touch(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to refresh presence")
		return
	}
	if user == nil {
		// Vanished user: the client must re-join.
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.writeJSON(w, http.StatusOK, wire.FromUser(*user))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := s.chat.GetHistory(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	s.writeJSON(w, http.StatusOK, wire.FromMessages(messages))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	message, err := s.chat.SendMessage(r.Context(), req.SenderID, req.SenderName, req.Body)
	switch {
	case stderrors.Is(err, errors.ErrEmptyMessageBody) || stderrors.Is(err, errors.ErrNilSenderID):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "failed to send message")
	default:
		s.writeJSON(w, http.StatusOK, wire.FromMessage(*message))
	}
}
