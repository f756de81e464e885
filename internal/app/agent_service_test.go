package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cerebro/internal/ai"
	"cerebro/internal/cache"
	"cerebro/internal/model"
)

type recordedExchanges struct {
	mu      sync.Mutex
	entries []model.ExchangeLog
	err     error
}

func (r *recordedExchanges) Record(_ context.Context, entry model.ExchangeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

type agentFixture struct {
	agent    *AgentService
	gateway  *scriptedGateway
	sessions *cache.MemorySessionStore
	recorder *recordedExchanges
}

func newAgentFixture(t *testing.T, steps ...step) (*agentFixture, func(title, analysis string) *model.Material) {
	t.Helper()
	repo := newMaterialRepo(t)
	gw := newScriptedGateway(steps...)
	sessions := cache.NewMemorySessionStore(time.Hour)
	recorder := &recordedExchanges{}
	agent := NewAgentService(repo, sessions, gw, NewLocalSearchTool(repo, 0), recorder, nil, nil)
	seed := func(title, analysis string) *model.Material {
		return seedMaterial(t, repo, title, analysis)
	}
	return &agentFixture{agent: agent, gateway: gw, sessions: sessions, recorder: recorder}, seed
}

func TestChatAnswersDirectly(t *testing.T) {
	f, seed := newAgentFixture(t, textReply("  Lava flows are slow.  "))
	seed("Volcano Report", "Eruption data shows slow lava.")

	res, err := f.agent.Chat(context.Background(), ChatInput{SessionID: "s1", Query: "How fast is lava?"})
	require.NoError(t, err)
	assert.Equal(t, "Lava flows are slow.", res.Answer)
	assert.NotEmpty(t, res.AgentLogic)
	assert.False(t, res.Cleared)

	require.Equal(t, 1, f.gateway.callCount())
	call := f.gateway.calls[0]
	require.Len(t, call.opts.Tools, 1)
	assert.Equal(t, SearchToolName, call.opts.Tools[0].Name)

	texts := messageTexts(call.messages[0])
	require.Len(t, texts, 3)
	assert.Equal(t, agentInstruction, texts[0])
	assert.Contains(t, texts[1], "Volcano Report")
	assert.Contains(t, texts[1], "Eruption data shows slow lava.")
	assert.Equal(t, "User: How fast is lava?", texts[2])

	session, err := f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"User: How fast is lava?", "Agent: Lava flows are slow."}, session.History)
}

func TestChatDispatchesSearchTool(t *testing.T) {
	var toolResult *ai.ToolResult
	f, seed := newAgentFixture(t,
		toolReply(SearchToolName, map[string]any{"query": "volcano"}),
		func(messages []ai.Message, opts ai.Options) (*ai.Response, error) {
			last := messages[len(messages)-1]
			toolResult = last.Parts[0].ToolResult
			results := toolResult.Response["results"].([]map[string]any)
			first := results[0]
			return &ai.Response{Text: fmt.Sprintf("From %s: %s", first["title"], first["insight_snippet"])}, nil
		},
	)
	seed("Volcano Report", "Eruption data...")
	seed("Glacier Survey", "Ice cores.")

	res, err := f.agent.Chat(context.Background(), ChatInput{SessionID: "s1", Query: "What do we know about volcanoes?"})
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "Volcano Report")
	assert.Contains(t, res.Answer, "Eruption data...")
	assert.Contains(t, res.AgentLogic, "volcano")
	assert.Contains(t, res.AgentLogic, "1 matches")

	require.Equal(t, 2, f.gateway.callCount())
	followUp := f.gateway.calls[1]
	require.Len(t, followUp.messages, 3)
	assert.Equal(t, ai.RoleModel, followUp.messages[1].Role)
	require.NotNil(t, followUp.messages[1].Parts[0].ToolCall)
	assert.Equal(t, SearchToolName, followUp.messages[1].Parts[0].ToolCall.Name)
	assert.Len(t, followUp.opts.Tools, 1)

	require.NotNil(t, toolResult)
	assert.Equal(t, "call-1", toolResult.ID)
	assert.Equal(t, 1, toolResult.Response["count"])

	require.Len(t, f.recorder.entries, 1)
	entry := f.recorder.entries[0]
	assert.Equal(t, SearchToolName, entry.ToolName)
	assert.Equal(t, "volcano", entry.ToolQuery)
	assert.Equal(t, res.Answer, entry.Answer)
}

func TestChatToolQueryFallsBackToUserQuery(t *testing.T) {
	f, seed := newAgentFixture(t,
		toolReply(SearchToolName, map[string]any{}),
		textReply("done"),
	)
	seed("Glacier Survey", "Ice cores.")

	res, err := f.agent.Chat(context.Background(), ChatInput{SessionID: "s1", Query: "glacier"})
	require.NoError(t, err)
	assert.Contains(t, res.AgentLogic, `"glacier" (1 matches)`)
}

func TestChatIgnoresRepeatedToolRequest(t *testing.T) {
	f, _ := newAgentFixture(t,
		toolReply(SearchToolName, map[string]any{"query": "x"}),
		func([]ai.Message, ai.Options) (*ai.Response, error) {
			return &ai.Response{
				Text:     "partial answer",
				ToolCall: &ai.ToolCall{Name: SearchToolName, Args: map[string]any{"query": "y"}},
			}, nil
		},
	)

	res, err := f.agent.Chat(context.Background(), ChatInput{SessionID: "s1", Query: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "partial answer", res.Answer)
	assert.Contains(t, res.AgentLogic, "not executed")
	assert.Equal(t, 2, f.gateway.callCount())
}

func TestChatReportsUnknownTool(t *testing.T) {
	var response map[string]any
	f, _ := newAgentFixture(t,
		toolReply("delete_everything", nil),
		func(messages []ai.Message, _ ai.Options) (*ai.Response, error) {
			response = messages[2].Parts[0].ToolResult.Response
			return &ai.Response{Text: "I cannot do that."}, nil
		},
	)

	res, err := f.agent.Chat(context.Background(), ChatInput{SessionID: "s1", Query: "wipe it"})
	require.NoError(t, err)
	assert.Equal(t, "I cannot do that.", res.Answer)
	assert.Contains(t, res.AgentLogic, "unknown tool")
	assert.Contains(t, response["error"], "delete_everything")
}

func TestChatGatewayFailureLeavesHistoryUntouched(t *testing.T) {
	cases := map[string][]step{
		"first call":  {failReply("boom")},
		"second call": {toolReply(SearchToolName, map[string]any{"query": "q"}), failReply("boom")},
	}
	for name, steps := range cases {
		t.Run(name, func(t *testing.T) {
			f, _ := newAgentFixture(t, steps...)
			ctx := context.Background()

			prior := model.NewConversationSession("s1")
			prior.AppendExchange("earlier", "reply")
			require.NoError(t, f.sessions.Save(ctx, prior))

			_, err := f.agent.Chat(ctx, ChatInput{SessionID: "s1", Query: "new question"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAgent)
			assert.ErrorIs(t, err, ai.ErrGateway)

			session, err := f.sessions.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, []string{"User: earlier", "Agent: reply"}, session.History)
			assert.Empty(t, f.recorder.entries)
		})
	}
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	f, _ := newAgentFixture(t)

	_, err := f.agent.Chat(context.Background(), ChatInput{SessionID: "s1", Query: "   "})
	assert.ErrorIs(t, err, ErrQueryEmpty)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, f.gateway.callCount())

	_, err = f.agent.Chat(context.Background(), ChatInput{Query: "hi"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChatResetClearsHistory(t *testing.T) {
	f, _ := newAgentFixture(t, textReply("one"), textReply("two"), textReply("three"))
	ctx := context.Background()

	_, err := f.agent.Chat(ctx, ChatInput{SessionID: "s1", Query: "first"})
	require.NoError(t, err)
	_, err = f.agent.Chat(ctx, ChatInput{SessionID: "s1", Query: "second"})
	require.NoError(t, err)

	res, err := f.agent.Chat(ctx, ChatInput{SessionID: "s1", Reset: true})
	require.NoError(t, err)
	assert.True(t, res.Cleared)

	_, err = f.agent.LastAnswer(ctx, "s1")
	assert.ErrorIs(t, err, ErrHistoryEmpty)

	_, err = f.agent.Chat(ctx, ChatInput{SessionID: "s1", Query: "third"})
	require.NoError(t, err)

	texts := messageTexts(f.gateway.calls[2].messages[0])
	assert.Equal(t, []string{agentInstruction, "User: third"}, texts)

	session, err := f.sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, session.History, 2)
}

func TestChatHistoryIsCapped(t *testing.T) {
	var steps []step
	for i := 0; i < 8; i++ {
		steps = append(steps, textReply(fmt.Sprintf("answer %d", i)))
	}
	f, _ := newAgentFixture(t, steps...)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := f.agent.Chat(ctx, ChatInput{SessionID: "s1", Query: fmt.Sprintf("question %d", i)})
		require.NoError(t, err)
	}

	session, err := f.sessions.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, session.History, model.MaxHistoryEntries)
	assert.Equal(t, "User: question 3", session.History[0])
	assert.Equal(t, "Agent: answer 7", session.History[len(session.History)-1])

	// the prompt never carries more than the capped history
	last := messageTexts(f.gateway.calls[7].messages[0])
	assert.LessOrEqual(t, len(last), model.MaxHistoryEntries+2)
}

func TestChatSessionsAreIsolated(t *testing.T) {
	f, _ := newAgentFixture(t, textReply("for a"), textReply("for b"))
	ctx := context.Background()

	_, err := f.agent.Chat(ctx, ChatInput{SessionID: "a", Query: "secret a"})
	require.NoError(t, err)
	_, err = f.agent.Chat(ctx, ChatInput{SessionID: "b", Query: "hello"})
	require.NoError(t, err)

	for _, text := range messageTexts(f.gateway.calls[1].messages[0]) {
		assert.NotContains(t, text, "secret a")
	}
}

func TestChatEmptyModelAnswer(t *testing.T) {
	f, _ := newAgentFixture(t, textReply("   "))

	res, err := f.agent.Chat(context.Background(), ChatInput{SessionID: "s1", Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, emptyAnswer, res.Answer)
}

func TestChatRecorderFailureIsNotFatal(t *testing.T) {
	f, _ := newAgentFixture(t, textReply("fine"))
	f.recorder.err = errors.New("queue down")

	res, err := f.agent.Chat(context.Background(), ChatInput{SessionID: "s1", Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "fine", res.Answer)
	assert.Len(t, f.recorder.entries, 1)
}

func TestLastAnswerReturnsVerbatimAnswer(t *testing.T) {
	answer := "Line one.\nLine two with **markdown**."
	f, _ := newAgentFixture(t, textReply(answer))
	ctx := context.Background()

	_, err := f.agent.LastAnswer(ctx, "s1")
	assert.ErrorIs(t, err, ErrHistoryEmpty)

	_, err = f.agent.Chat(ctx, ChatInput{SessionID: "s1", Query: "hello"})
	require.NoError(t, err)

	got, err := f.agent.LastAnswer(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, answer, got)
	assert.False(t, strings.HasPrefix(got, "Agent: "))
}
