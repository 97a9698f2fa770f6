package models

import (
	"errors"
	"strconv"
	"time"
)

// ErrRemoteUnavailable is returned by the remote client whenever the search
// backend cannot produce a usable response (network error, timeout, non-2xx).
// Callers recover locally and must never surface the raw transport error.
var ErrRemoteUnavailable = errors.New("remote search unavailable")

// ErrSessionNotFound is returned when a session id has no persisted state.
var ErrSessionNotFound = errors.New("session not found")

// ErrPendingInFlight is returned when a new chat turn is attempted while a
// previous assistant placeholder has not resolved yet.
var ErrPendingInFlight = errors.New("a response is already pending for this session")

// Price is an optional amount/currency pair attached to a product.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ProductRecord is the canonical catalog entry. Records are immutable once
// loaded; ASIN is the identity used to deduplicate across sources. ASIN and
// Title are required, everything else is optional (zero value means absent).
type ProductRecord struct {
	ASIN        string  `json:"asin"`
	Title       string  `json:"title"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
	Price       *Price  `json:"price,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	TargetURL   string  `json:"target_url,omitempty"`
}

// Valid reports whether the record carries the required identity fields.
// Records failing this check are excluded from indexing and results rather
// than aborting a whole load or search.
func (p ProductRecord) Valid() bool {
	return p.ASIN != "" && p.Title != ""
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. A message with Pending set is an
// assistant placeholder awaiting a remote response; its Text/Products are
// filled in place when the response resolves, never appended as a new message.
type Message struct {
	ID                   string          `json:"id"`
	Role                 Role            `json:"role"`
	Text                 string          `json:"text"`
	CreatedAt            time.Time       `json:"created_at"`
	Products             []ProductRecord `json:"products,omitempty"`
	NeedsClarification   bool            `json:"needs_clarification,omitempty"`
	ClarificationPrompts []string        `json:"clarification_prompts,omitempty"`
	Pending              bool            `json:"pending,omitempty"`
}

// NewMessageID returns a time-ordered message id.
func NewMessageID(at time.Time) string {
	return strconv.FormatInt(at.UnixNano(), 10)
}

// Session is a durable, client-scoped conversation context. The id is opaque,
// minted once per browsing context and reused across reloads until an
// explicit clear.
type Session struct {
	ID        string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatReply is the normalized payload of the remote chat endpoint.
type ChatReply struct {
	Response             string          `json:"response"`
	Products             []ProductRecord `json:"products,omitempty"`
	NeedsClarification   bool            `json:"needs_clarification,omitempty"`
	ClarificationPrompts []string        `json:"clarification_prompts,omitempty"`
}
