package chat

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mazungumzo/core"
)

// Event record kinds interpreted by this package. The store also carries
// foreign kinds (attendance, maintenance, ...) owned by other subsystems.
const (
	KindRequest  = "chat_request"
	KindApproved = "chat_approved"
	KindRejected = "chat_rejected"
	KindMessage  = "chat_message"
	KindLive     = "live_chat"
)

// State is the lifecycle state of a ChatRequest, stored in the generic
// status field of the originating request record.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
	StateActive   State = "active"
	StateEnded    State = "ended"
)

// statusSent is the store's generic delivery tag; legacy request records
// carry it instead of "pending" and plain messages always do.
const statusSent = "sent"

var (
	// errors
	ErrRequestNotFound = errors.New("chat request not found")
	ErrQuotaExceeded   = errors.New("daily chat request limit reached")
)

// ConflictError indicates an attempted lifecycle transition that is invalid
// for the request's current state. The caller is expected to re-fetch state
// and retry or surface a user-facing conflict message.
type ConflictError struct {
	Action  string
	Current State
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot %s a chat request in state %q", e.Action, e.Current)
}

// InvalidStateError indicates an attempt to send a message into a
// conversation that is not active.
type InvalidStateError struct {
	Current State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("conversation is not active (state %q)", e.Current)
}

// ChatRequest is a student's request to open a conversation with a trainer,
// reconstructed from a chat_request event record.
type ChatRequest struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	FromName   string    `json:"from_name"`
	ToUserID   string    `json:"to_user_id"`
	Text       string    `json:"text"`
	State      State     `json:"state"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// Terminal reports whether the request can never transition again.
func (r ChatRequest) Terminal() bool {
	return r.State == StateRejected || r.State == StateEnded
}

// ChatMessage is one message within an approved conversation, reconstructed
// from a chat_message/live_chat event record whose correlation token matches
// the request.
type ChatMessage struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Notice is a lightweight event addressed to one participant, used for
// notification badges: approval/rejection notices and new-message pings.
type Notice struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	RecipientID string    `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// NewChatRequest contains the information needed to submit a new ChatRequest.
type NewChatRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	StudentName string `json:"student_name" validate:"required"`
	TrainerID   string `json:"trainer_id" validate:"required"`
	Text        string `json:"text" validate:"required,max=1000"`
}

func (nr *NewChatRequest) Validate(validate *validator.Validate) error {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.StudentName = core.CleanString(nr.StudentName)
	nr.TrainerID = core.CleanString(nr.TrainerID)
	nr.Text = core.CleanString(nr.Text)
	return validate.Struct(nr)
}

// NewChatMessage contains the information needed to send a message into an
// active conversation.
type NewChatMessage struct {
	RequestID string `json:"request_id" validate:"required"`
	SenderID  string `json:"sender_id" validate:"required"`
	Text      string `json:"text" validate:"required,max=1000"`
}

func (nm *NewChatMessage) Validate(validate *validator.Validate) error {
	nm.RequestID = core.CleanString(nm.RequestID)
	nm.SenderID = core.CleanString(nm.SenderID)
	nm.Text = core.CleanString(nm.Text)
	return validate.Struct(nm)
}
