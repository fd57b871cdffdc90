// Package chat implements the assistant conversation controller: it turns
// raw user input into a sequence of transcript entries, classifying
// market-intelligence intent, dispatching the right backend call and
// reconciling the optimistic "thinking" placeholder with the real outcome.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sagealpha/sagecli/internal/api"
	"github.com/sagealpha/sagecli/internal/attach"
	"github.com/sagealpha/sagecli/internal/intent"
)

// ErrLimited is returned when input is disabled by the usage limit. It stays
// in force until the user takes the upgrade path; new chats do not clear it.
var ErrLimited = errors.New("usage limit reached, upgrade to continue")

const (
	thinkingMessage      = "Thinking..."
	usageLimitMessage    = "You've reached the free usage limit. Upgrade to continue using SageAlpha services."
	clarificationMessage = "I detected a market intelligence request, but couldn't find a ticker symbol. " +
		"Please specify a ticker, for example: 'Market intelligence for AAPL' or 'Market intelligence for ZOMATO'."
)

// Backend is the slice of the API client the controller depends on.
type Backend interface {
	Chat(ctx context.Context, message, sessionID string) (*api.ChatResult, error)
	CreateReport(ctx context.Context, companyName, sessionID string) (*api.ChatResult, error)
	MarketIntelligence(ctx context.Context, ticker string) (*api.Intelligence, error)
	Session(ctx context.Context, sessionID string) ([]api.Message, error)
}

// Conversation drives one assistant transcript. It is not safe for
// concurrent use; like the UI it replaces, all operations run on a single
// caller goroutine and only the fire-and-forget session sync leaves it.
type Conversation struct {
	backend Backend
	staging *attach.Staging

	state     State
	sessionID string
	entries   []Entry

	onEvent func(Event)
	spawn   func(func())
	warnf   func(format string, args ...interface{})
}

// New creates an idle conversation.
func New(backend Backend, staging *attach.Staging) *Conversation {
	return &Conversation{
		backend: backend,
		staging: staging,
		spawn:   func(fn func()) { go fn() },
		warnf:   log.Printf,
	}
}

// SetOnEvent registers a callback observing transcript and state changes.
func (c *Conversation) SetOnEvent(fn func(Event)) {
	c.onEvent = fn
}

// State returns the controller state.
func (c *Conversation) State() State {
	return c.state
}

// SessionID returns the backend session identifier, empty until the first
// successful exchange issues one.
func (c *Conversation) SessionID() string {
	return c.sessionID
}

// Staging exposes the attachment staging area for the next message.
func (c *Conversation) Staging() *attach.Staging {
	return c.staging
}

// Entries returns a snapshot of the transcript.
func (c *Conversation) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Reset starts a new chat: transcript, session and staged files are
// discarded. A usage-limited conversation stays limited.
func (c *Conversation) Reset() {
	c.entries = nil
	c.sessionID = ""
	c.staging.Clear()
	if c.state != StateLimited {
		c.setState(StateIdle)
	}
}

// ClearLimit re-enables input after the user has taken the upgrade path.
func (c *Conversation) ClearLimit() {
	if c.state == StateLimited {
		c.setState(StateIdle)
	}
}

// LoadSession replaces the transcript with a stored conversation.
func (c *Conversation) LoadSession(ctx context.Context, sessionID string) error {
	messages, err := c.backend.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	entries := make([]Entry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, Entry{
			ID:          newEntryID(),
			Role:        Role(m.Role),
			Status:      StatusResolved,
			Content:     m.Content,
			Attachments: m.Attachments,
		})
	}
	c.entries = entries
	c.sessionID = sessionID
	c.staging.Clear()
	return nil
}

// SendChat performs one full send: upload staged attachments, append the
// optimistic user entry, then clarify, fetch market intelligence or run a
// conversational exchange depending on the classifier. Every failure path
// lands in the transcript; the returned error is non-nil only when input is
// disabled by the usage limit.
func (c *Conversation) SendChat(ctx context.Context, text string) error {
	if c.state == StateLimited {
		return ErrLimited
	}

	hasText := strings.TrimSpace(text) != ""
	if !hasText && c.staging.Count() == 0 {
		return nil
	}

	var uploaded []api.Attachment
	if c.staging.Count() > 0 {
		atts, err := c.staging.UploadAll(ctx)
		if err != nil {
			c.warnf("attachment upload failed: %v", err)
			if !hasText {
				return nil
			}
		} else {
			uploaded = atts
		}
	}

	c.append(Entry{
		ID:          newEntryID(),
		Role:        RoleUser,
		Status:      StatusResolved,
		Content:     text,
		Attachments: uploaded,
	})
	c.staging.Clear()

	c.setState(StateSending)
	defer func() {
		if c.state == StateSending {
			c.setState(StateIdle)
		}
	}()

	// The classifier runs before the placeholder goes up: both of its
	// branches manage their own transcript entries, and the exchange is
	// synchronous here, so a placeholder created first would never be
	// visible before being replaced.
	if det := intent.Classify(text); det != nil && det.Detected {
		if det.NeedsTicker {
			c.append(Entry{
				ID:      newEntryID(),
				Role:    RoleAssistant,
				Status:  StatusResolved,
				Content: clarificationMessage,
			})
			return nil
		}
		c.fetchIntelligence(ctx, det.Ticker)
		return c.limitedErr()
	}

	pendingID := c.appendPending(thinkingMessage)

	message := text
	if len(uploaded) > 0 {
		names := make([]string, len(uploaded))
		for i, a := range uploaded {
			names[i] = a.Filename
		}
		message += fmt.Sprintf("\n\n[Attached %d file(s): %s]", len(uploaded), strings.Join(names, ", "))
	}

	res, err := c.backend.Chat(ctx, message, c.sessionID)
	c.finishExchange(pendingID, res, err)
	return c.limitedErr()
}

// GenerateReport parallels SendChat for the report-generation endpoint; the
// classifier branch does not apply.
func (c *Conversation) GenerateReport(ctx context.Context, ticker string) error {
	if c.state == StateLimited {
		return ErrLimited
	}

	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil
	}

	var uploaded []api.Attachment
	if c.staging.Count() > 0 {
		atts, err := c.staging.UploadAll(ctx)
		if err != nil {
			c.warnf("attachment upload failed: %v", err)
		} else {
			uploaded = atts
		}
	}

	c.append(Entry{
		ID:          newEntryID(),
		Role:        RoleUser,
		Status:      StatusResolved,
		Content:     fmt.Sprintf("Generate research report for %s", ticker),
		Attachments: uploaded,
	})
	c.staging.Clear()

	c.setState(StateSending)
	defer func() {
		if c.state == StateSending {
			c.setState(StateIdle)
		}
	}()

	pendingID := c.appendPending(thinkingMessage)
	res, err := c.backend.CreateReport(ctx, ticker, c.sessionID)
	c.finishExchange(pendingID, res, err)
	return c.limitedErr()
}

// fetchIntelligence resolves a detected intelligence request: fetch the
// structured payload, then opportunistically record the exchange on the
// session. The sync call is fire-and-forget; its failure is logged, never
// surfaced.
func (c *Conversation) fetchIntelligence(ctx context.Context, ticker string) {
	pendingID := c.appendPending(fmt.Sprintf("Analyzing market intelligence for %s...", ticker))

	data, err := c.backend.MarketIntelligence(ctx, ticker)
	if err != nil {
		c.resolve(pendingID, Entry{
			ID:      newEntryID(),
			Role:    RoleAssistant,
			Status:  StatusFailed,
			Content: fmt.Sprintf("Error fetching market intelligence: %s", err),
		})
		return
	}

	c.resolve(pendingID, Entry{
		ID:           newEntryID(),
		Role:         RoleAssistant,
		Status:       StatusResolved,
		Intelligence: data,
		Ticker:       ticker,
	})

	if sessionID := c.sessionID; sessionID != "" {
		c.spawn(func() {
			message := "Market intelligence analysis for " + ticker
			if _, err := c.backend.Chat(context.Background(), message, sessionID); err != nil {
				c.warnf("failed to save market intelligence to session: %v", err)
			}
		})
	}
}

// finishExchange reconciles the placeholder with a chat or report outcome.
func (c *Conversation) finishExchange(pendingID string, res *api.ChatResult, err error) {
	if err != nil {
		if errors.Is(err, api.ErrUsageLimitReached) {
			c.resolve(pendingID, Entry{
				ID:         newEntryID(),
				Role:       RoleAssistant,
				Status:     StatusResolved,
				Content:    usageLimitMessage,
				UsageLimit: true,
			})
			c.setState(StateLimited)
			return
		}
		c.resolve(pendingID, Entry{
			ID:      newEntryID(),
			Role:    RoleAssistant,
			Status:  StatusFailed,
			Content: "Error: " + err.Error(),
		})
		return
	}

	// Adopt the session id before the resolution event fires so observers
	// reading SessionID() see the id the reply belongs to.
	if res.SessionID != "" {
		c.sessionID = res.SessionID
	}
	c.resolve(pendingID, Entry{
		ID:      newEntryID(),
		Role:    RoleAssistant,
		Status:  StatusResolved,
		Content: res.Response,
	})
}

func (c *Conversation) limitedErr() error {
	if c.state == StateLimited {
		return ErrLimited
	}
	return nil
}

func (c *Conversation) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.emit(Event{Kind: EventStateChanged, State: s})
}

func (c *Conversation) append(e Entry) {
	c.entries = append(c.entries, e)
	c.emit(Event{Kind: EventEntryAppended, Entry: e, State: c.state})
}

// appendPending inserts the thinking placeholder and returns its correlation
// id. The placeholder is always the last entry immediately after insertion.
func (c *Conversation) appendPending(content string) string {
	id := newEntryID()
	c.append(Entry{
		ID:      id,
		Role:    RoleAssistant,
		Status:  StatusPending,
		Content: content,
	})
	return id
}

// resolve atomically removes the placeholder with the given correlation id
// and appends its replacement. The transcript is rebuilt rather than mutated
// in place so no intermediate state ever shows both entries.
func (c *Conversation) resolve(pendingID string, replacement Entry) {
	kept := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Status == StatusPending && e.ID == pendingID {
			continue
		}
		kept = append(kept, e)
	}
	c.entries = append(kept, replacement)
	c.emit(Event{Kind: EventEntryResolved, Entry: replacement, State: c.state})
}

func (c *Conversation) emit(ev Event) {
	if c.onEvent != nil {
		c.onEvent(ev)
	}
}
