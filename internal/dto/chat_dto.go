package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title"`
	Mood  string `json:"mood"`
	Style string `json:"style"`
}

type UpdateSessionRequest struct {
	Id    uuid.UUID `json:"-"`
	Title *string   `json:"title"`
	Mood  *string   `json:"mood"`
	Style *string   `json:"style"`
}

type SessionResponse struct {
	SessionId uuid.UUID  `json:"session_id"`
	Title     string     `json:"title"`
	Mood      string     `json:"mood"`
	Style     string     `json:"style"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Chat      string    `json:"chat"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageCountResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Count     int64     `json:"count"`
}

// SendChatRequest carries the session id as a free-form string: the
// client may send an existing UUID, "new", or nothing at all.
type SendChatRequest struct {
	SessionId string `json:"session_id"`
	Message   string `json:"message" validate:"required"`
}

type SendChatResponse struct {
	Reply     string    `json:"reply"`
	SessionId uuid.UUID `json:"session_id"`
	Title     string    `json:"title"`
}

// ChatAuditMessage is the payload published on the audit topic.
type ChatAuditMessage struct {
	Event     string    `json:"event"`
	SessionId uuid.UUID `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
	Detail    string    `json:"detail,omitempty"`
}
