package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cerebro/internal/ai"
	"cerebro/internal/model"
)

const (
	agentInstruction = "You are Cerebro, a research assistant for an archive of analyzed media files. " +
		"Answer the user's question concisely using the research context and the conversation so far. " +
		"If the answer depends on archived materials that are not in the context, call " + SearchToolName +
		" with a few keywords before answering."

	emptyAnswer = "The model returned an empty response."
)

type AgentService struct {
	materials MaterialStore
	sessions  SessionStore
	gateway   ai.Gateway
	tool      *LocalSearchTool
	recorder  ExchangeRecorder
	exchanges ExchangeHistory
	log       *zap.Logger
}

type ChatInput struct {
	SessionID string
	Query     string
	Reset     bool
}

type ChatResult struct {
	Answer     string `json:"cerebro_answer"`
	AgentLogic string `json:"agent_logic"`
	Cleared    bool   `json:"-"`
}

func NewAgentService(
	materials MaterialStore,
	sessions SessionStore,
	gateway ai.Gateway,
	tool *LocalSearchTool,
	recorder ExchangeRecorder,
	exchanges ExchangeHistory,
	log *zap.Logger,
) *AgentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AgentService{
		materials: materials,
		sessions:  sessions,
		gateway:   gateway,
		tool:      tool,
		recorder:  recorder,
		exchanges: exchanges,
		log:       log,
	}
}

// Chat answers one query with at most one round of tool dispatch. History is
// only written after a complete answer; a gateway failure leaves it untouched.
func (s *AgentService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	if input.SessionID == "" {
		return nil, ErrInvalidInput
	}
	if input.Reset {
		if err := s.sessions.Reset(ctx, input.SessionID); err != nil {
			return nil, err
		}
		return &ChatResult{Cleared: true}, nil
	}

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, ErrQueryEmpty
	}

	session, err := s.sessions.Load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	prompt, err := s.buildPrompt(ctx, session, query)
	if err != nil {
		return nil, err
	}

	opts := ai.Options{Tools: []ai.ToolDeclaration{s.tool.Declaration()}}
	first, err := s.gateway.Generate(ctx, []ai.Message{prompt}, opts)
	if err != nil {
		s.log.Warn("agent model call failed", zap.String("session_id", input.SessionID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrAgent, err)
	}

	entry := model.ExchangeLog{SessionID: input.SessionID, Query: query}
	answer := first.Text
	logic := "Answered directly from context and history."

	if call := first.ToolCall; call != nil {
		result, toolLogic, err := s.dispatch(ctx, call, query, &entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAgent, err)
		}

		modelTurn := ai.Message{Role: ai.RoleModel}
		if strings.TrimSpace(first.Text) != "" {
			modelTurn.Parts = append(modelTurn.Parts, ai.TextPart(first.Text))
		}
		modelTurn.Parts = append(modelTurn.Parts, ai.Part{ToolCall: call})
		toolTurn := ai.UserMessage(ai.Part{ToolResult: &ai.ToolResult{
			ID:       call.ID,
			Name:     call.Name,
			Response: result,
		}})

		second, err := s.gateway.Generate(ctx, []ai.Message{prompt, modelTurn, toolTurn}, opts)
		if err != nil {
			s.log.Warn("agent follow-up call failed", zap.String("session_id", input.SessionID), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrAgent, err)
		}
		if second.ToolCall != nil {
			// single dispatch only; a repeated request is not executed
			s.log.Info("ignoring repeated tool request", zap.String("tool", second.ToolCall.Name))
			toolLogic += " A further tool request was not executed."
		}
		answer = second.Text
		logic = toolLogic
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = emptyAnswer
	}

	session.AppendExchange(query, answer)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	entry.Answer = answer
	entry.CreatedAt = time.Now()
	s.record(ctx, entry)

	return &ChatResult{Answer: answer, AgentLogic: logic}, nil
}

func (s *AgentService) dispatch(ctx context.Context, call *ai.ToolCall, query string, entry *model.ExchangeLog) (map[string]any, string, error) {
	entry.ToolName = call.Name
	if call.Name != SearchToolName {
		s.log.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return map[string]any{"error": "unknown tool " + call.Name},
			fmt.Sprintf("Model requested unknown tool %q; reported it as unavailable.", call.Name), nil
	}

	toolQuery := strings.TrimSpace(call.StringArg("query"))
	if toolQuery == "" {
		toolQuery = query
	}
	entry.ToolQuery = toolQuery

	result, count, err := s.tool.Execute(ctx, toolQuery)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("tool dispatched", zap.String("tool", call.Name), zap.String("query", toolQuery), zap.Int("matches", count))
	return result, fmt.Sprintf("Searched local records for %q (%d matches).", toolQuery, count), nil
}

func (s *AgentService) buildPrompt(ctx context.Context, session *model.ConversationSession, query string) (ai.Message, error) {
	parts := []ai.Part{ai.TextPart(agentInstruction)}

	latest, err := s.materials.MostRecentWithAnalysis(ctx)
	if err != nil {
		return ai.Message{}, err
	}
	if latest != nil {
		parts = append(parts, ai.TextPart(fmt.Sprintf(
			"Research context from %q:\n%s", latest.Title, latest.AnalysisText(),
		)))
	}
	for _, entry := range session.History {
		parts = append(parts, ai.TextPart(entry))
	}
	parts = append(parts, ai.TextPart("User: "+query))
	return ai.UserMessage(parts...), nil
}

func (s *AgentService) record(ctx context.Context, entry model.ExchangeLog) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.log.Warn("record exchange failed", zap.String("session_id", entry.SessionID), zap.Error(err))
	}
}

// LastAnswer returns the most recent agent answer in the session.
func (s *AgentService) LastAnswer(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrInvalidInput
	}
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	answer, ok := session.LastAnswer()
	if !ok {
		return "", ErrHistoryEmpty
	}
	return answer, nil
}

// Exchanges lists the persisted exchange records of a session.
func (s *AgentService) Exchanges(ctx context.Context, sessionID string, limit int) ([]model.ExchangeLog, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	if s.exchanges == nil {
		return []model.ExchangeLog{}, nil
	}
	return s.exchanges.ListBySessionID(ctx, sessionID, limit)
}
