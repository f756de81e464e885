package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cerebro/internal/ai"
	"cerebro/internal/model"
)

const (
	searchResultLimit = 50
	synthesisPrompt   = "You are Cerebro. Synthesize the following analyses of archived research materials on %q " +
		"into a single combined report. Highlight shared findings, contradictions and open questions."
	pingPrompt = "Cerebro, confirm you are awake."
)

type MaterialService struct {
	materials MaterialStore
	gateway   ai.Gateway
	log       *zap.Logger
}

type SynthesisResult struct {
	Topic       string `json:"topic"`
	Synthesis   string `json:"synthesis"`
	SourceCount int    `json:"source_count"`
	SourceIDs   []uint `json:"source_ids"`
}

func NewMaterialService(materials MaterialStore, gateway ai.Gateway, log *zap.Logger) *MaterialService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MaterialService{materials: materials, gateway: gateway, log: log}
}

// Search backs the keyword search endpoint. An empty query yields no results.
func (s *MaterialService) Search(ctx context.Context, query string) ([]RecordSummary, error) {
	list, err := s.materials.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, err
	}
	return summarize(list), nil
}

func (s *MaterialService) List(ctx context.Context, limit int) ([]model.Material, error) {
	return s.materials.List(ctx, limit)
}

func (s *MaterialService) Get(ctx context.Context, id uint) (*model.Material, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, ErrNotFound
	}
	return material, nil
}

// Synthesize merges the analyses of every material whose title matches topic
// into one report.
func (s *MaterialService) Synthesize(ctx context.Context, topic string) (*SynthesisResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is empty", ErrInvalidInput)
	}

	list, err := s.materials.ListByTitle(ctx, topic)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no materials match %q", ErrNotFound, topic)
	}

	var b strings.Builder
	ids := make([]uint, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.ID)
		analysis := m.AnalysisText()
		if !m.HasAnalysis() {
			analysis = noAnalysisPlaceholder
		}
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", m.Title, analysis)
	}

	resp, err := s.gateway.Generate(ctx, []ai.Message{ai.UserMessage(
		ai.TextPart(fmt.Sprintf(synthesisPrompt, topic)),
		ai.TextPart(strings.TrimSpace(b.String())),
	)}, ai.Options{})
	if err != nil {
		s.log.Warn("synthesis failed", zap.String("topic", topic), zap.Error(err))
		return nil, err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		text = emptyAnswer
	}
	return &SynthesisResult{
		Topic:       topic,
		Synthesis:   text,
		SourceCount: len(list),
		SourceIDs:   ids,
	}, nil
}

// Ping is the diagnostic round-trip to the model.
func (s *MaterialService) Ping(ctx context.Context) (string, error) {
	resp, err := s.gateway.Generate(ctx, []ai.Message{ai.UserMessage(ai.TextPart(pingPrompt))}, ai.Options{})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
