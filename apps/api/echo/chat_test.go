package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mazungumzo/core"
	"github.com/trezcool/mazungumzo/core/chat"
	dummynotif "github.com/trezcool/mazungumzo/services/notification/dummy"
	inmemdb "github.com/trezcool/mazungumzo/storage/database/inmem"
)

func setup(t *testing.T) Server {
	t.Helper()

	conf := &core.Config{
		AppName:         "Mazungumzo",
		TestMode:        true,
		FrontendBaseURL: "http://localhost:3000",
	}

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	logger := core.NewStdLogger(log.New(io.Discard, "", 0))
	svc := chat.NewService(inmemdb.NewEventStore(db), dummynotif.NewService(conf), logger, conf)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	return NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		ChatSvc:        svc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
}

func doRequest(srv Server, method, path string, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func submitRequestBody(studentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"student_id":%q,"student_name":"Student %s","trainer_id":"T1","text":"need help"}`,
		studentID, studentID,
	))
}

func createRequest(t *testing.T, srv Server, studentID string) chat.ChatRequest {
	t.Helper()
	rec := doRequest(srv, http.MethodPost, "/v1/chat/requests", submitRequestBody(studentID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("createRequest() failed: %d %s", rec.Code, rec.Body.String())
	}
	var req chat.ChatRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &req); err != nil {
		t.Fatalf("createRequest() failed: %v", err)
	}
	return req
}

func TestChatApi_requestLifecycle(t *testing.T) {
	srv := setup(t)

	req := createRequest(t, srv, "S1")
	assert.Equal(t, chat.StatePending, req.State)

	// quota badge
	rec := doRequest(srv, http.MethodGet, "/v1/chat/quota?student=S1")
	assert.Equal(t, http.StatusOK, rec.Code)
	var quota chat.QuotaStatus
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quota))
	assert.Equal(t, chat.QuotaStatus{CanSend: false, Count: 1}, quota)

	// approve, open
	rec = doRequest(srv, http.MethodPost, "/v1/chat/requests/"+req.ID+"/approve")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(srv, http.MethodPost, "/v1/chat/requests/"+req.ID+"/open")
	assert.Equal(t, http.StatusOK, rec.Code)

	// send + feed
	rec = doRequest(srv, http.MethodPost, "/v1/chat/requests/"+req.ID+"/messages",
		[]byte(`{"sender_id":"S1","text":"thanks"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/v1/chat/requests/"+req.ID+"/messages")
	assert.Equal(t, http.StatusOK, rec.Code)
	var msgs []chat.ChatMessage
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	if assert.Len(t, msgs, 1) {
		assert.Equal(t, "thanks", msgs[0].Text)
	}

	// end; the conversation becomes read-only
	rec = doRequest(srv, http.MethodPost, "/v1/chat/requests/"+req.ID+"/end")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(srv, http.MethodPost, "/v1/chat/requests/"+req.ID+"/messages",
		[]byte(`{"sender_id":"S1","text":"hello?"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChatApi_errors(t *testing.T) {
	srv := setup(t)
	req := createRequest(t, srv, "S1")

	tests := []struct {
		name     string
		method   string
		path     string
		body     []byte
		wantCode int
	}{
		{
			name:     "validation error",
			method:   http.MethodPost,
			path:     "/v1/chat/requests",
			body:     []byte(`{"student_id":"S9"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "same-day quota",
			method:   http.MethodPost,
			path:     "/v1/chat/requests",
			body:     submitRequestBody("S1"),
			wantCode: http.StatusTooManyRequests,
		},
		{
			name:     "unknown request",
			method:   http.MethodGet,
			path:     "/v1/chat/requests/nope",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "conflicting transition",
			method:   http.MethodPost,
			path:     "/v1/chat/requests/" + req.ID + "/end",
			wantCode: http.StatusConflict,
		},
		{
			name:     "missing participant param",
			method:   http.MethodGet,
			path:     "/v1/chat/requests",
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tt.body != nil {
				rec = doRequest(srv, tt.method, tt.path, tt.body)
			} else {
				rec = doRequest(srv, tt.method, tt.path)
			}
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestChatApi_rejectionFreesSameDaySlot(t *testing.T) {
	srv := setup(t)
	req := createRequest(t, srv, "S1")

	rec := doRequest(srv, http.MethodPost, "/v1/chat/requests/"+req.ID+"/reject")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/v1/chat/requests", submitRequestBody("S1"))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestChatApi_listRequestsAndNotices(t *testing.T) {
	srv := setup(t)
	req := createRequest(t, srv, "S1")
	doRequest(srv, http.MethodPost, "/v1/chat/requests/"+req.ID+"/approve")

	rec := doRequest(srv, http.MethodGet, "/v1/chat/requests?participant=T1")
	assert.Equal(t, http.StatusOK, rec.Code)
	var reqs []chat.ChatRequest
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reqs))
	if assert.Len(t, reqs, 1) {
		assert.Equal(t, chat.StateApproved, reqs[0].State)
	}

	rec = doRequest(srv, http.MethodGet, "/v1/chat/notices?participant=S1")
	assert.Equal(t, http.StatusOK, rec.Code)
	var notices []chat.Notice
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notices))
	if assert.Len(t, notices, 1) {
		assert.Equal(t, chat.KindApproved, notices[0].Kind)
	}
}
