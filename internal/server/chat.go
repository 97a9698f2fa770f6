package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopmate/backend/internal/chat"
	"github.com/shopmate/backend/internal/telemetry"
	"github.com/shopmate/backend/models"
	"github.com/shopmate/backend/session"
)

// sidCookie carries the opaque session id across reloads of the same
// browsing context. It is the only thing the client has to hold on to.
const sidCookie = "sid"

// RemoteSessions is the slice of the remote client the session endpoints use.
type RemoteSessions interface {
	ClearSession(ctx context.Context, sessionID string) error
}

type ChatHandler struct {
	Sessions   session.Store
	Controller *chat.Controller
	Remote     RemoteSessions
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.send)
	g.GET("/session/history", h.history)
	g.DELETE("/session", h.clear)
}

// send handles one chat turn for the cookie-bound session.
func (h *ChatHandler) send(c echo.Context) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}

	ctx := c.Request().Context()
	sess, err := h.session(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	msg, err := h.Controller.SendMessage(ctx, sess.ID, req.Message)
	if err != nil {
		if errors.Is(err, models.ErrPendingInFlight) {
			return echo.NewHTTPError(http.StatusConflict, "a response is still pending")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sess.ID,
		"message":    msg,
	})
}

// history returns the persisted conversation. A reload lands here first, so
// this is also where an interrupted pending turn gets repaired: at most one
// repair per call, guarded by the pending flag itself.
func (h *ChatHandler) history(c echo.Context) error {
	ctx := c.Request().Context()
	sess, err := h.session(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if _, err := h.Controller.Resume(ctx, sess.ID); err != nil {
		log.Printf("[CHAT] resume %s: %v", sess.ID, err)
	}

	msgs, err := h.Sessions.Load(ctx, sess.ID)
	if err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sess.ID,
		"messages":   msgs,
	})
}

// clear removes the session everywhere and issues a fresh id. The remote
// clear is best effort: local state goes away regardless of its outcome.
func (h *ChatHandler) clear(c echo.Context) error {
	ctx := c.Request().Context()
	sess, err := h.session(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.Remote.ClearSession(ctx, sess.ID); err != nil {
		log.Printf("[CHAT] remote clear %s: %v", sess.ID, err)
	}
	if err := h.Sessions.Clear(ctx, sess.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	telemetry.SessionsCleared.Inc()

	fresh, err := h.Sessions.GetOrCreate(ctx, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.setCookie(c, fresh.ID)
	return c.JSON(http.StatusOK, map[string]string{"session_id": fresh.ID})
}

// session resolves the cookie-bound session, minting id and cookie on first
// visit. Repeated calls without a clear keep returning the same id.
func (h *ChatHandler) session(c echo.Context) (models.Session, error) {
	id := ""
	if ck, err := c.Cookie(sidCookie); err == nil {
		id = ck.Value
	}
	sess, err := h.Sessions.GetOrCreate(c.Request().Context(), id)
	if err != nil {
		return models.Session{}, err
	}
	if sess.ID != id {
		h.setCookie(c, sess.ID)
	}
	return sess, nil
}

func (h *ChatHandler) setCookie(c echo.Context, id string) {
	ck := new(http.Cookie)
	ck.Name = sidCookie
	ck.Value = id
	ck.Path = "/"
	ck.HttpOnly = true
	ck.SameSite = http.SameSiteLaxMode
	ck.Expires = time.Now().Add(365 * 24 * time.Hour)
	c.SetCookie(ck)
}
