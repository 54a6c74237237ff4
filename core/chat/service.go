package chat

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mazungumzo/core"
	"github.com/trezcool/mazungumzo/core/event"
)

// Service owns the request lifecycle state machine and the conversation feed.
// All writes go through the injected event store; the daily quota and
// lifecycle uniqueness are therefore best-effort under concurrent access
// (no locks, no conditional writes).
type Service struct {
	store    event.Store
	notifSvc core.NotificationService
	logger   core.Logger
	conf     *core.Config

	nowFunc func() time.Time // mockable
	loc     *time.Location
}

func NewService(store event.Store, notifSvc core.NotificationService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		store:    store,
		notifSvc: notifSvc,
		logger:   logger,
		conf:     conf,
		nowFunc:  time.Now,
		loc:      time.Local,
	}
}

// SubmitRequest creates a new pending ChatRequest after checking the
// sender's daily quota.
func (svc *Service) SubmitRequest(ctx context.Context, nr NewChatRequest) (ChatRequest, error) {
	status, err := svc.Quota(ctx, nr.StudentID)
	if err != nil {
		return ChatRequest{}, err
	}
	if !status.CanSend {
		return ChatRequest{}, ErrQuotaExceeded
	}

	rec, err := svc.store.Insert(ctx, EncodeRequest(nr))
	if err != nil {
		return ChatRequest{}, errors.Wrap(err, "inserting chat request")
	}
	return Decode(rec).Request, nil
}

// Quota reports whether the student may submit a new request today, plus the
// count of today's requests.
func (svc *Service) Quota(ctx context.Context, studentID string) (QuotaStatus, error) {
	recs, err := svc.store.Query(ctx, event.Filter{
		Kinds:  []string{KindRequest},
		Sender: studentID,
	})
	if err != nil {
		return QuotaStatus{}, errors.Wrap(err, "querying chat requests")
	}

	requests := make([]ChatRequest, 0, len(recs))
	for _, rec := range recs {
		if d := Decode(rec); d.Kind == DecodedRequest {
			requests = append(requests, d.Request)
		}
	}
	return ComputeQuota(requests, svc.nowFunc(), svc.loc), nil
}

// GetRequest fetches one ChatRequest by id.
func (svc *Service) GetRequest(ctx context.Context, id string) (ChatRequest, error) {
	recs, err := svc.store.Query(ctx, event.Filter{IDs: []string{id}, Kinds: []string{KindRequest}})
	if err != nil {
		return ChatRequest{}, errors.Wrap(err, "querying chat request")
	}
	if len(recs) == 0 {
		return ChatRequest{}, ErrRequestNotFound
	}
	return Decode(recs[0]).Request, nil
}

// ListRequests returns all requests the participant is part of, most recent
// first. Used by the request-list view and re-fetched by the poller.
func (svc *Service) ListRequests(ctx context.Context, participantID string) ([]ChatRequest, error) {
	recs, err := svc.store.Query(ctx, event.Filter{
		Kinds:       []string{KindRequest},
		Participant: participantID,
		Descending:  true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying chat requests")
	}

	requests := make([]ChatRequest, 0, len(recs))
	for _, rec := range recs {
		if d := Decode(rec); d.Kind == DecodedRequest {
			requests = append(requests, d.Request)
		}
	}
	return requests, nil
}

// Approve transitions a pending request to approved and notifies the sender.
func (svc *Service) Approve(ctx context.Context, requestID string) (ChatRequest, error) {
	return svc.transition(ctx, requestID, "approve", StatePending, StateApproved)
}

// Reject transitions a pending request to rejected and notifies the sender.
// Terminal, but does not count against the sender's daily quota going forward.
func (svc *Service) Reject(ctx context.Context, requestID string) (ChatRequest, error) {
	return svc.transition(ctx, requestID, "reject", StatePending, StateRejected)
}

// OpenConversation transitions an approved request to active, modeling
// "conversation started". Re-opening an already active conversation is a
// no-op view action, not a transition.
func (svc *Service) OpenConversation(ctx context.Context, requestID string) (ChatRequest, error) {
	req, err := svc.GetRequest(ctx, requestID)
	if err != nil {
		return ChatRequest{}, err
	}
	if req.State == StateActive {
		return req, nil
	}
	return svc.transition(ctx, requestID, "open", StateApproved, StateActive)
}

// EndConversation transitions an active request to ended. Terminal; the feed
// becomes read-only but remains viewable.
func (svc *Service) EndConversation(ctx context.Context, requestID string) (ChatRequest, error) {
	return svc.transition(ctx, requestID, "end", StateActive, StateEnded)
}

// transition realizes a state-machine edge as an in-place status update.
// The originating chat_request record is never deleted.
func (svc *Service) transition(ctx context.Context, requestID, action string, from, to State) (ChatRequest, error) {
	req, err := svc.GetRequest(ctx, requestID)
	if err != nil {
		return ChatRequest{}, err
	}
	if req.State != from {
		return ChatRequest{}, &ConflictError{Action: action, Current: req.State}
	}

	rec, err := svc.store.UpdateStatus(ctx, requestID, string(to))
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return ChatRequest{}, ErrRequestNotFound
		}
		return ChatRequest{}, errors.Wrapf(err, "updating chat request %s", requestID)
	}
	req = Decode(rec).Request

	switch to {
	case StateApproved:
		svc.emitNotice(ctx, KindApproved, req, req.ToUserID, req.FromUserID, "Your chat request was approved.")
		svc.notify(req.FromUserID, "Chat request approved", "request_approved", req)
	case StateRejected:
		svc.emitNotice(ctx, KindRejected, req, req.ToUserID, req.FromUserID, "Your chat request was rejected.")
		svc.notify(req.FromUserID, "Chat request rejected", "request_rejected", req)
	}
	return req, nil
}

// SendMessage appends a new message to an active conversation and best-effort
// pings the counterpart.
func (svc *Service) SendMessage(ctx context.Context, nm NewChatMessage) (ChatMessage, error) {
	req, err := svc.GetRequest(ctx, nm.RequestID)
	if err != nil {
		return ChatMessage{}, err
	}
	if req.State != StateActive {
		return ChatMessage{}, &InvalidStateError{Current: req.State}
	}

	counterpartID := req.ToUserID
	if nm.SenderID == req.ToUserID {
		counterpartID = req.FromUserID
	}

	rec, err := svc.store.Insert(ctx, EncodeMessage(nm, counterpartID))
	if err != nil {
		return ChatMessage{}, errors.Wrap(err, "inserting chat message")
	}
	msg := Decode(rec).Message

	// new-message ping for the counterpart's badge; must not fail the send
	if _, err := svc.store.Insert(ctx, EncodeNotice(KindLive, req.ID, nm.SenderID, counterpartID, "")); err != nil {
		svc.logger.Warn(fmt.Sprintf("chat: emitting new-message ping for request %s: %v", req.ID, err), err)
	}
	svc.notify(counterpartID, "New chat message", "new_message", req)

	return msg, nil
}

// ListMessages produces the ordered conversation feed for one request.
// The whole feed is re-fetched each call; there is no incremental cursor.
func (svc *Service) ListMessages(ctx context.Context, requestID string) ([]ChatMessage, error) {
	req, err := svc.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.State == StateRejected {
		return []ChatMessage{}, nil
	}

	recs, err := svc.store.Query(ctx, event.Filter{Kinds: []string{KindMessage, KindLive}})
	if err != nil {
		return nil, errors.Wrap(err, "querying chat messages")
	}

	msgs := make([]ChatMessage, 0, len(recs))
	for _, rec := range recs {
		d := Decode(rec)
		if d.Kind != DecodedMessage || d.Message.RequestID != requestID {
			continue
		}
		msgs = append(msgs, d.Message)
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

// ListNotices returns the participant's unread-badge feed: approval and
// rejection notices plus new-message pings, most recent first.
func (svc *Service) ListNotices(ctx context.Context, participantID string) ([]Notice, error) {
	recs, err := svc.store.Query(ctx, event.Filter{
		Kinds:      []string{KindApproved, KindRejected, KindLive},
		Receiver:   participantID,
		Descending: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying chat notices")
	}

	notices := make([]Notice, 0, len(recs))
	for _, rec := range recs {
		if d := Decode(rec); d.Kind == DecodedNotice {
			notices = append(notices, d.Notice)
		}
	}
	return notices, nil
}

// emitNotice persists an approval/rejection notice record addressed to the
// recipient. Best-effort: failures are logged and swallowed.
func (svc *Service) emitNotice(ctx context.Context, kind string, req ChatRequest, senderID, recipientID, text string) {
	if _, err := svc.store.Insert(ctx, EncodeNotice(kind, req.ID, senderID, recipientID, text)); err != nil {
		svc.logger.Warn(fmt.Sprintf("chat: emitting %s notice for request %s: %v", kind, req.ID, err), err)
	}
}

// notify pushes a human-readable summary to the external notification
// channel. Fire-and-forget.
func (svc *Service) notify(recipientID, subject, template string, req ChatRequest) {
	if svc.notifSvc == nil {
		return
	}
	svc.notifSvc.SendNotifications(&core.Notification{
		To:           []mail.Address{{Address: recipientID}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: req,
	})
}
