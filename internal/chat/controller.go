// Package chat drives the conversational discovery flow as an explicit state
// machine: idle -> user message recorded -> pending assistant placeholder ->
// resolved or failed. The placeholder is persisted before the network call so
// a reload mid-flight always finds a recorded turn to repair.
package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopmate/backend/internal/telemetry"
	"github.com/shopmate/backend/models"
	"github.com/shopmate/backend/session"
)

// Apology is the fixed user-facing text for any remote failure. It carries no
// technical detail.
const Apology = "I'm having trouble right now. Could you try asking in a different way? For example: 'show me men's shoes' or 'I need Nike sneakers'."

// Remote is the slice of the remote client the controller needs.
type Remote interface {
	Chat(ctx context.Context, sessionID, message string) (models.ChatReply, error)
	Healthy(ctx context.Context) bool
}

// Controller orchestrates user input, the pending placeholder and its
// resolution for one session store. The message list is mutated only here.
type Controller struct {
	store       session.Store
	remote      Remote
	maxMessages int
	logger      *log.Logger
	now         func() time.Time

	// Per-session turn locks. The load-check-save window must be atomic per
	// session or two concurrent turns could both pass the pending check and
	// one would overwrite the other's history.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewController wires a controller. maxMessages caps history length; zero
// disables the cap.
func NewController(store session.Store, remote Remote, maxMessages int) *Controller {
	return &Controller{
		store:       store,
		remote:      remote,
		maxMessages: maxMessages,
		logger:      log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
		now:         time.Now,
		locks:       make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the turn lock for a session, creating it on first use.
// Entries are a few words each and live as long as the process.
func (c *Controller) sessionLock(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// SendMessage records the user turn and a pending assistant placeholder,
// persists both, then resolves the placeholder in place from the remote
// reply (or the apology on failure). While a placeholder is pending no new
// turn is accepted.
func (c *Controller) SendMessage(ctx context.Context, sessionID, text string) (models.Message, error) {
	lock := c.sessionLock(sessionID)

	lock.Lock()
	msgs, err := c.store.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		lock.Unlock()
		return models.Message{}, err
	}
	if pendingIndex(msgs) >= 0 {
		lock.Unlock()
		return models.Message{}, models.ErrPendingInFlight
	}

	now := c.now()
	user := models.Message{
		ID:        models.NewMessageID(now),
		Role:      models.RoleUser,
		Text:      text,
		CreatedAt: now,
	}
	placeholder := models.Message{
		ID:        models.NewMessageID(now.Add(time.Nanosecond)),
		Role:      models.RoleAssistant,
		CreatedAt: now,
		Pending:   true,
	}
	msgs = c.trim(append(msgs, user, placeholder))

	// Durably record the turn before the network call; this is what makes
	// reload recovery possible. The lock is released for the call itself so
	// other sessions' turns and this session's rejections stay fast.
	c.persist(ctx, sessionID, msgs)
	lock.Unlock()

	resolved := c.resolve(ctx, sessionID, text, placeholder)

	lock.Lock()
	defer lock.Unlock()
	if cur, err := c.store.Load(ctx, sessionID); err == nil {
		msgs = cur
	}
	if i := indexByID(msgs, placeholder.ID); i >= 0 {
		msgs[i] = resolved
	} else {
		msgs = c.trim(append(msgs, resolved))
	}
	c.persist(ctx, sessionID, msgs)
	return resolved, nil
}

// Resume repairs an interrupted turn after a restart: if the persisted
// history ends in a pending placeholder, the request for the most recent
// preceding user message is re-issued exactly once and resolved into the same
// placeholder. Without a preceding user message the placeholder becomes a
// terminal failure instead of looping.
func (c *Controller) Resume(ctx context.Context, sessionID string) (bool, error) {
	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	msgs, err := c.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	pi := pendingIndex(msgs)
	if pi < 0 {
		return false, nil
	}

	ui := -1
	for i := pi - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			ui = i
			break
		}
	}
	if ui < 0 {
		failed := msgs[pi]
		failed.Pending = false
		failed.Text = Apology
		msgs[pi] = failed
		c.persist(ctx, sessionID, msgs)
		return false, nil
	}

	telemetry.ChatRecoveries.Inc()
	msgs[pi] = c.resolve(ctx, sessionID, msgs[ui].Text, msgs[pi])
	c.persist(ctx, sessionID, msgs)
	return true, nil
}

// resolve fills a placeholder from the remote reply. Every failure path,
// including an offline health flag, yields the apology with no products and
// no technical detail.
func (c *Controller) resolve(ctx context.Context, sessionID, text string, placeholder models.Message) models.Message {
	placeholder.Pending = false

	if !c.remote.Healthy(ctx) {
		c.logger.Printf("session %s: remote offline, skipping chat call", sessionID)
		telemetry.ChatTurns.WithLabelValues("offline").Inc()
		placeholder.Text = Apology
		return placeholder
	}

	reply, err := c.remote.Chat(ctx, sessionID, text)
	if err != nil {
		c.logger.Printf("session %s: chat failed: %v", sessionID, err)
		telemetry.ChatTurns.WithLabelValues("failed").Inc()
		placeholder.Text = Apology
		return placeholder
	}

	placeholder.Text = reply.Response
	if reply.NeedsClarification {
		telemetry.ChatTurns.WithLabelValues("clarification").Inc()
		placeholder.NeedsClarification = true
		placeholder.ClarificationPrompts = reply.ClarificationPrompts
		return placeholder
	}
	telemetry.ChatTurns.WithLabelValues("resolved").Inc()
	placeholder.Products = reply.Products
	return placeholder
}

// persist saves history; a storage failure is logged and swallowed because
// the in-memory state stays authoritative for the current process.
func (c *Controller) persist(ctx context.Context, sessionID string, msgs []models.Message) {
	if err := c.store.Save(ctx, sessionID, msgs); err != nil {
		c.logger.Printf("session %s: save failed (continuing in memory): %v", sessionID, err)
	}
}

// trim caps history length, always keeping the newest messages.
func (c *Controller) trim(msgs []models.Message) []models.Message {
	if c.maxMessages <= 0 || len(msgs) <= c.maxMessages {
		return msgs
	}
	return msgs[len(msgs)-c.maxMessages:]
}

func indexByID(msgs []models.Message, id string) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == id {
			return i
		}
	}
	return -1
}

func pendingIndex(msgs []models.Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Pending {
			return i
		}
	}
	return -1
}
