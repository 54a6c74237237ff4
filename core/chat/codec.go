package chat

import (
	"encoding/json"
	"strings"

	"github.com/trezcool/mazungumzo/core/event"
)

// The store has no native concept of conversations: every chat kind is
// multiplexed onto the generic record fields. This file is the single seam
// that knows the mapping; the rest of the package never touches raw store
// fields directly.

// DecodedKind tags the variant produced by Decode.
type DecodedKind int

const (
	// DecodedDiscard marks malformed, legacy or foreign records; they are
	// dropped from derived views silently, never surfaced as errors.
	DecodedDiscard DecodedKind = iota
	DecodedRequest
	DecodedMessage
	DecodedNotice
)

// Decoded is the tagged variant of one decoded event record.
type Decoded struct {
	Kind    DecodedKind
	Request ChatRequest
	Message ChatMessage
	Notice  Notice
}

// messageBody is the structured envelope packed into the body of message and
// notice records. The source system packed "text|requestID" with no escaping;
// Decode still accepts that legacy form (split on the last separator) but
// Encode always writes the envelope.
type messageBody struct {
	Text      string `json:"text"`
	RequestID string `json:"request_id"`
}

const legacySeparator = "|"

// EncodeRequest maps a validated submission onto a chat_request record.
// The student's display name rides in the title field.
func EncodeRequest(nr NewChatRequest) event.Record {
	return event.Record{
		Kind:        KindRequest,
		Title:       nr.StudentName,
		Body:        nr.Text,
		SenderRef:   nr.StudentID,
		ReceiverRef: nr.TrainerID,
		Status:      string(StatePending),
	}
}

// EncodeMessage maps an outgoing message onto a chat_message record addressed
// to the counterpart. The correlation token is packed into the body.
func EncodeMessage(nm NewChatMessage, counterpartID string) event.Record {
	return event.Record{
		Kind:        KindMessage,
		Body:        encodeBody(nm.Text, nm.RequestID),
		SenderRef:   nm.SenderID,
		ReceiverRef: counterpartID,
		Status:      statusSent,
	}
}

// EncodeNotice maps an approval/rejection notice or a new-message ping onto a
// record addressed to the recipient. Pings use KindLive with empty text.
func EncodeNotice(kind, requestID, senderID, recipientID, text string) event.Record {
	return event.Record{
		Kind:        kind,
		Body:        encodeBody(text, requestID),
		SenderRef:   senderID,
		ReceiverRef: recipientID,
		Status:      statusSent,
	}
}

func encodeBody(text, requestID string) string {
	b, _ := json.Marshal(messageBody{Text: text, RequestID: requestID})
	return string(b)
}

// decodeBody recovers text and correlation token from a record body.
// It is total: a body that is neither an envelope nor a legacy composite
// yields ok=false.
func decodeBody(body string) (text, requestID string, ok bool) {
	if strings.HasPrefix(body, "{") {
		var mb messageBody
		if err := json.Unmarshal([]byte(body), &mb); err == nil && mb.RequestID != "" {
			return mb.Text, mb.RequestID, true
		}
		return "", "", false
	}
	// legacy "text|requestID" packing; split on the last separator since the
	// source never escaped it inside free text
	idx := strings.LastIndex(body, legacySeparator)
	if idx < 0 {
		return "", "", false
	}
	text, requestID = body[:idx], body[idx+1:]
	if requestID == "" {
		return "", "", false
	}
	return text, requestID, true
}

// Decode maps a raw event record back into its logical chat object.
// It never fails: anything it cannot interpret decodes to DecodedDiscard so
// derived views degrade gracefully instead of breaking.
func Decode(rec event.Record) Decoded {
	switch rec.Kind {
	case KindRequest:
		return Decoded{
			Kind: DecodedRequest,
			Request: ChatRequest{
				ID:         rec.ID,
				FromUserID: rec.SenderRef,
				FromName:   rec.Title,
				ToUserID:   rec.ReceiverRef,
				Text:       rec.Body,
				State:      decodeState(rec.Status),
				CreatedAt:  rec.CreatedAt,
			},
		}

	case KindMessage, KindLive:
		text, requestID, ok := decodeBody(rec.Body)
		if !ok {
			return Decoded{Kind: DecodedDiscard}
		}
		if rec.Kind == KindLive && text == "" {
			// a live_chat ping carries no text; it only bumps badges
			return Decoded{
				Kind: DecodedNotice,
				Notice: Notice{
					ID:          rec.ID,
					RequestID:   requestID,
					RecipientID: rec.ReceiverRef,
					Kind:        rec.Kind,
					CreatedAt:   rec.CreatedAt,
				},
			}
		}
		if text == "" {
			return Decoded{Kind: DecodedDiscard}
		}
		return Decoded{
			Kind: DecodedMessage,
			Message: ChatMessage{
				ID:        rec.ID,
				RequestID: requestID,
				SenderID:  rec.SenderRef,
				Text:      text,
				CreatedAt: rec.CreatedAt,
			},
		}

	case KindApproved, KindRejected:
		text, requestID, ok := decodeBody(rec.Body)
		if !ok {
			return Decoded{Kind: DecodedDiscard}
		}
		return Decoded{
			Kind: DecodedNotice,
			Notice: Notice{
				ID:          rec.ID,
				RequestID:   requestID,
				RecipientID: rec.ReceiverRef,
				Kind:        rec.Kind,
				Text:        text,
				CreatedAt:   rec.CreatedAt,
			},
		}
	}

	// foreign kind (attendance, maintenance, ...)
	return Decoded{Kind: DecodedDiscard}
}

// decodeState maps the store's status tag to a lifecycle state; legacy
// request records tagged with the generic "sent" status are pending.
func decodeState(status string) State {
	switch s := State(status); s {
	case StatePending, StateApproved, StateRejected, StateActive, StateEnded:
		return s
	}
	return StatePending
}
