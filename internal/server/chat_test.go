package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopmate/backend/internal/chat"
	"github.com/shopmate/backend/models"
	"github.com/shopmate/backend/session/inmemory"
)

type stubChatRemote struct {
	reply    models.ChatReply
	err      error
	cleared  []string
	clearErr error
}

func (s *stubChatRemote) Chat(ctx context.Context, sessionID, message string) (models.ChatReply, error) {
	if s.err != nil {
		return models.ChatReply{}, s.err
	}
	return s.reply, nil
}

func (s *stubChatRemote) Healthy(ctx context.Context) bool { return s.err == nil }

func (s *stubChatRemote) ClearSession(ctx context.Context, sessionID string) error {
	s.cleared = append(s.cleared, sessionID)
	return s.clearErr
}

func newChatHandler(remote *stubChatRemote) (*ChatHandler, *inmemory.Store) {
	store := inmemory.NewStore(0)
	return &ChatHandler{
		Sessions:   store,
		Controller: chat.NewController(store, remote, 40),
		Remote:     remote,
	}, store
}

func sidFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sidCookie {
			return ck.Value
		}
	}
	return ""
}

func TestChatSendMintsSessionCookie(t *testing.T) {
	remote := &stubChatRemote{reply: models.ChatReply{Response: "Here you go."}}
	h, _ := newChatHandler(remote)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"show me shoes"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.send(e.NewContext(req, rec)); err != nil {
		t.Fatalf("send returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	sid := sidFrom(t, rec)
	if sid == "" {
		t.Fatal("first request must set the session cookie")
	}
	ck := rec.Result().Cookies()[0]
	if !ck.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}

	var resp struct {
		SessionID string         `json:"session_id"`
		Message   models.Message `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode: %v", err)
	}
	if resp.SessionID != sid {
		t.Fatalf("body session id %s != cookie %s", resp.SessionID, sid)
	}
	if resp.Message.Text != "Here you go." || resp.Message.Pending {
		t.Fatalf("unexpected message: %+v", resp.Message)
	}
}

func TestChatSendRejectsEmptyMessage(t *testing.T) {
	h, _ := newChatHandler(&stubChatRemote{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.send(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 http error, got %#v", err)
	}
}

func TestChatSendConflictWhilePending(t *testing.T) {
	remote := &stubChatRemote{reply: models.ChatReply{Response: "ok"}}
	h, store := newChatHandler(remote)

	sess, _ := store.GetOrCreate(context.Background(), "")
	now := time.Now()
	_ = store.Save(context.Background(), sess.ID, []models.Message{
		{ID: models.NewMessageID(now), Role: models.RoleUser, Text: "first", CreatedAt: now},
		{ID: models.NewMessageID(now.Add(time.Nanosecond)), Role: models.RoleAssistant, Pending: true, CreatedAt: now},
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"second"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: sidCookie, Value: sess.ID})
	rec := httptest.NewRecorder()

	err := h.send(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409 http error, got %#v", err)
	}
}

func TestChatHistoryRepairsPendingTurn(t *testing.T) {
	remote := &stubChatRemote{reply: models.ChatReply{Response: "Recovered."}}
	h, store := newChatHandler(remote)

	sess, _ := store.GetOrCreate(context.Background(), "")
	now := time.Now()
	_ = store.Save(context.Background(), sess.ID, []models.Message{
		{ID: models.NewMessageID(now), Role: models.RoleUser, Text: "earbuds", CreatedAt: now},
		{ID: models.NewMessageID(now.Add(time.Nanosecond)), Role: models.RoleAssistant, Pending: true, CreatedAt: now},
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/session/history", nil)
	req.AddCookie(&http.Cookie{Name: sidCookie, Value: sess.ID})
	rec := httptest.NewRecorder()

	if err := h.history(e.NewContext(req, rec)); err != nil {
		t.Fatalf("history returned error: %v", err)
	}

	var resp struct {
		SessionID string           `json:"session_id"`
		Messages  []models.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode: %v", err)
	}
	if resp.SessionID != sess.ID {
		t.Fatalf("cookie session must be kept: %s vs %s", resp.SessionID, sess.ID)
	}
	last := resp.Messages[len(resp.Messages)-1]
	if last.Pending || last.Text != "Recovered." {
		t.Fatalf("pending turn not repaired before returning history: %+v", last)
	}
}

func TestChatHistoryEmptySession(t *testing.T) {
	h, _ := newChatHandler(&stubChatRemote{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/session/history", nil)
	rec := httptest.NewRecorder()

	if err := h.history(e.NewContext(req, rec)); err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("response decode: %v", err)
	}
	if string(raw["messages"]) == "null" {
		t.Fatal("empty history must serialize as [], not null")
	}
}

func TestChatClearIssuesFreshSession(t *testing.T) {
	remote := &stubChatRemote{clearErr: models.ErrRemoteUnavailable}
	h, store := newChatHandler(remote)

	sess, _ := store.GetOrCreate(context.Background(), "")
	_ = store.Save(context.Background(), sess.ID, []models.Message{
		{ID: "1", Role: models.RoleUser, Text: "old turn"},
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: sidCookie, Value: sess.ID})
	rec := httptest.NewRecorder()

	if err := h.clear(e.NewContext(req, rec)); err != nil {
		t.Fatalf("clear returned error even though remote clear is best effort: %v", err)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode: %v", err)
	}
	fresh := resp["session_id"]
	if fresh == "" || fresh == sess.ID {
		t.Fatalf("clear must issue a fresh id, got %q", fresh)
	}
	if sidFrom(t, rec) != fresh {
		t.Fatal("fresh id must be set on the cookie")
	}
	if len(remote.cleared) != 1 || remote.cleared[0] != sess.ID {
		t.Fatalf("remote clear should be attempted for the old id: %v", remote.cleared)
	}
	if _, err := store.Load(context.Background(), sess.ID); err == nil {
		t.Fatal("old session state must be gone")
	}
}
