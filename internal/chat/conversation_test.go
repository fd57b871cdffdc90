package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagealpha/sagecli/internal/api"
	"github.com/sagealpha/sagecli/internal/attach"
)

type fakeBackend struct {
	chatFn    func(ctx context.Context, message, sessionID string) (*api.ChatResult, error)
	reportFn  func(ctx context.Context, companyName, sessionID string) (*api.ChatResult, error)
	intelFn   func(ctx context.Context, ticker string) (*api.Intelligence, error)
	sessionFn func(ctx context.Context, sessionID string) ([]api.Message, error)

	chatMessages []string
}

func (f *fakeBackend) Chat(ctx context.Context, message, sessionID string) (*api.ChatResult, error) {
	f.chatMessages = append(f.chatMessages, message)
	if f.chatFn != nil {
		return f.chatFn(ctx, message, sessionID)
	}
	return &api.ChatResult{Response: "ok", SessionID: "s-1"}, nil
}

func (f *fakeBackend) CreateReport(ctx context.Context, companyName, sessionID string) (*api.ChatResult, error) {
	if f.reportFn != nil {
		return f.reportFn(ctx, companyName, sessionID)
	}
	return &api.ChatResult{Response: "report ready", SessionID: "s-1"}, nil
}

func (f *fakeBackend) MarketIntelligence(ctx context.Context, ticker string) (*api.Intelligence, error) {
	if f.intelFn != nil {
		return f.intelFn(ctx, ticker)
	}
	data := &api.Intelligence{Ticker: ticker}
	data.Sentiment.Label = "bullish"
	data.Sentiment.Score = 0.8
	return data, nil
}

func (f *fakeBackend) Session(ctx context.Context, sessionID string) ([]api.Message, error) {
	if f.sessionFn != nil {
		return f.sessionFn(ctx, sessionID)
	}
	return nil, fmt.Errorf("no session")
}

type fakeUploader struct {
	err error
}

func (f *fakeUploader) Upload(_ context.Context, path string) (*api.Upload, error) {
	if f.err != nil {
		return nil, f.err
	}
	name := filepath.Base(path)
	return &api.Upload{URL: "https://files/" + name, DocID: "d-" + name, Filename: name}, nil
}

func newConversation(t *testing.T, backend *fakeBackend, uploader attach.Uploader) *Conversation {
	t.Helper()
	c := New(backend, attach.NewStaging(uploader))
	c.spawn = func(fn func()) { fn() }
	c.warnf = t.Logf
	return c
}

func stageFile(t *testing.T, c *Conversation, name string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, c.Staging().Add(path))
}

func TestSendChatAppendsUserBeforeAssistant(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, nil)

	require.NoError(t, c.SendChat(context.Background(), "How is ICICI doing?"))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, RoleUser, entries[0].Role)
	assert.Equal(t, "How is ICICI doing?", entries[0].Content)
	assert.Equal(t, RoleAssistant, entries[1].Role)
	assert.Equal(t, "ok", entries[1].Content)
	assert.Equal(t, "s-1", c.SessionID())
	assert.Equal(t, StateIdle, c.State())
}

func TestSendChatBlankIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, nil)

	require.NoError(t, c.SendChat(context.Background(), "   "))
	assert.Empty(t, c.Entries())
	assert.Empty(t, backend.chatMessages)
}

func TestSendChatPlaceholderVisibleDuringRequest(t *testing.T) {
	c := newConversation(t, &fakeBackend{}, nil)
	backend := &fakeBackend{}
	backend.chatFn = func(context.Context, string, string) (*api.ChatResult, error) {
		entries := c.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, RoleUser, entries[0].Role)
		assert.True(t, entries[1].Pending())
		assert.Equal(t, "Thinking...", entries[1].Content)
		return &api.ChatResult{Response: "done"}, nil
	}
	c.backend = backend

	require.NoError(t, c.SendChat(context.Background(), "hello"))
	for _, e := range c.Entries() {
		assert.False(t, e.Pending())
	}
}

func TestThreeSendsWithOneFailureLeaveCleanTranscript(t *testing.T) {
	call := 0
	backend := &fakeBackend{}
	backend.chatFn = func(context.Context, string, string) (*api.ChatResult, error) {
		call++
		if call == 2 {
			return nil, fmt.Errorf("backend unreachable")
		}
		return &api.ChatResult{Response: fmt.Sprintf("answer %d", call)}, nil
	}
	c := newConversation(t, backend, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.SendChat(context.Background(), fmt.Sprintf("question %d", i)))
	}

	entries := c.Entries()
	require.Len(t, entries, 6)
	var users, assistants, failed, pending int
	for _, e := range entries {
		switch {
		case e.Role == RoleUser:
			users++
		case e.Pending():
			pending++
		case e.Status == StatusFailed:
			assistants++
			failed++
		default:
			assistants++
		}
	}
	assert.Equal(t, 3, users)
	assert.Equal(t, 3, assistants)
	assert.Equal(t, 1, failed)
	assert.Zero(t, pending)
	assert.True(t, strings.HasPrefix(entries[3].Content, "Error: "))
}

func TestSendChatClarifiesMissingTicker(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, nil)

	require.NoError(t, c.SendChat(context.Background(), "market intelligence"))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[1].Content, "couldn't find a ticker symbol")
	assert.Empty(t, backend.chatMessages, "clarification must not hit the backend")
}

func TestSendChatFetchesMarketIntelligence(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, nil)

	require.NoError(t, c.SendChat(context.Background(), "Market intelligence for AAPL"))

	entries := c.Entries()
	require.Len(t, entries, 2)
	last := entries[1]
	require.NotNil(t, last.Intelligence)
	assert.Equal(t, "AAPL", last.Ticker)
	assert.Empty(t, last.Content)
	assert.Empty(t, backend.chatMessages, "no session yet, so no sync call")
}

func TestMarketIntelligenceSyncsExistingSession(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, nil)

	require.NoError(t, c.SendChat(context.Background(), "hello"))
	require.Equal(t, "s-1", c.SessionID())

	require.NoError(t, c.SendChat(context.Background(), "Market intelligence for TSLA"))

	require.Len(t, backend.chatMessages, 2)
	assert.Equal(t, "Market intelligence analysis for TSLA", backend.chatMessages[1])
}

func TestMarketIntelligenceFailureBecomesEntry(t *testing.T) {
	backend := &fakeBackend{}
	backend.intelFn = func(context.Context, string) (*api.Intelligence, error) {
		return nil, fmt.Errorf("ticker not covered")
	}
	c := newConversation(t, backend, nil)

	require.NoError(t, c.SendChat(context.Background(), "intelligence for ZOMATO"))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, StatusFailed, entries[1].Status)
	assert.Contains(t, entries[1].Content, "Error fetching market intelligence: ticker not covered")
}

func TestUsageLimitDisablesInputUntilUpgrade(t *testing.T) {
	backend := &fakeBackend{}
	backend.chatFn = func(context.Context, string, string) (*api.ChatResult, error) {
		return nil, api.ErrUsageLimitReached
	}
	c := newConversation(t, backend, nil)

	err := c.SendChat(context.Background(), "hello")
	require.ErrorIs(t, err, ErrLimited)
	assert.Equal(t, StateLimited, c.State())

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].UsageLimit)
	assert.Contains(t, entries[1].Content, "free usage limit")

	// Further sends are rejected without touching the transcript.
	require.ErrorIs(t, c.SendChat(context.Background(), "again"), ErrLimited)
	assert.Len(t, c.Entries(), 2)

	// A new chat does not clear the limit.
	c.Reset()
	assert.Equal(t, StateLimited, c.State())
	require.ErrorIs(t, c.GenerateReport(context.Background(), "AAPL"), ErrLimited)

	// Only the explicit upgrade path does.
	c.ClearLimit()
	assert.Equal(t, StateIdle, c.State())
	backend.chatFn = nil
	require.NoError(t, c.SendChat(context.Background(), "back"))
}

func TestGenerateReport(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, nil)

	require.NoError(t, c.GenerateReport(context.Background(), " INFY "))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Generate research report for INFY", entries[0].Content)
	assert.Equal(t, "report ready", entries[1].Content)
	assert.Equal(t, "s-1", c.SessionID())
}

func TestGenerateReportSkipsClassifier(t *testing.T) {
	backend := &fakeBackend{}
	called := false
	backend.intelFn = func(context.Context, string) (*api.Intelligence, error) {
		called = true
		return nil, fmt.Errorf("should not be called")
	}
	c := newConversation(t, backend, nil)

	require.NoError(t, c.GenerateReport(context.Background(), "INTELLIGENCE"))
	assert.False(t, called)
}

func TestGenerateReportFailure(t *testing.T) {
	backend := &fakeBackend{}
	backend.reportFn = func(context.Context, string, string) (*api.ChatResult, error) {
		return nil, fmt.Errorf("report engine down")
	}
	c := newConversation(t, backend, nil)

	require.NoError(t, c.GenerateReport(context.Background(), "AAPL"))
	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Error: report engine down", entries[1].Content)
}

func TestSendChatUploadsAttachments(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, &fakeUploader{})
	stageFile(t, c, "filing.pdf")

	require.NoError(t, c.SendChat(context.Background(), "summarize this"))

	entries := c.Entries()
	require.Len(t, entries, 2)
	require.Len(t, entries[0].Attachments, 1)
	assert.Equal(t, "filing.pdf", entries[0].Attachments[0].Filename)
	assert.Zero(t, c.Staging().Count(), "staging cleared after send")

	require.Len(t, backend.chatMessages, 1)
	assert.Contains(t, backend.chatMessages[0], "[Attached 1 file(s): filing.pdf]")
}

func TestSendChatAbortsSilentlyWhenUploadsFailAndNoText(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, &fakeUploader{err: fmt.Errorf("disk on fire")})
	stageFile(t, c, "filing.pdf")

	require.NoError(t, c.SendChat(context.Background(), ""))
	assert.Empty(t, c.Entries())
	assert.Empty(t, backend.chatMessages)
}

func TestSendChatProceedsWithoutAttachmentsWhenUploadsFail(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, &fakeUploader{err: fmt.Errorf("disk on fire")})
	stageFile(t, c, "filing.pdf")

	require.NoError(t, c.SendChat(context.Background(), "summarize anyway"))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Attachments)
	assert.NotContains(t, backend.chatMessages[0], "[Attached")
}

func TestLoadSessionReplacesTranscript(t *testing.T) {
	backend := &fakeBackend{}
	backend.sessionFn = func(_ context.Context, id string) ([]api.Message, error) {
		return []api.Message{
			{Role: "user", Content: "old question"},
			{Role: "assistant", Content: "old answer"},
		}, nil
	}
	c := newConversation(t, backend, nil)
	require.NoError(t, c.SendChat(context.Background(), "new question"))

	require.NoError(t, c.LoadSession(context.Background(), "s-42"))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "old question", entries[0].Content)
	assert.Equal(t, "s-42", c.SessionID())
}

func TestSessionIDVisibleWhenReplyResolves(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, nil)

	// Observers mirror resolved entries keyed by the session id they read
	// at event time, so the id issued with the reply must already be set.
	var seen []string
	c.SetOnEvent(func(ev Event) {
		if ev.Kind == EventEntryResolved && ev.Entry.Status == StatusResolved {
			seen = append(seen, c.SessionID())
		}
	})

	require.NoError(t, c.SendChat(context.Background(), "hello"))

	require.Equal(t, []string{"s-1"}, seen)
}

func TestEventsReportPlaceholderLifecycle(t *testing.T) {
	backend := &fakeBackend{}
	c := newConversation(t, backend, nil)

	var kinds []EventKind
	c.SetOnEvent(func(ev Event) { kinds = append(kinds, ev.Kind) })

	require.NoError(t, c.SendChat(context.Background(), "hello"))

	// user appended, state change, placeholder appended, resolution,
	// state change back to idle.
	require.Len(t, kinds, 5)
	assert.Equal(t, EventEntryAppended, kinds[0])
	assert.Equal(t, EventStateChanged, kinds[1])
	assert.Equal(t, EventEntryAppended, kinds[2])
	assert.Equal(t, EventEntryResolved, kinds[3])
	assert.Equal(t, EventStateChanged, kinds[4])
}
