package app

import (
	"context"
	"strings"
	"time"

	"cerebro/internal/ai"
	"cerebro/internal/model"
)

const (
	SearchToolName = "search_local_records"

	snippetRunes          = 200
	defaultToolLimit      = 5
	noAnalysisPlaceholder = "No analysis available yet."
)

type RecordSummary struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	FileType       string    `json:"file_type"`
	InsightSnippet string    `json:"insight_snippet"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// LocalSearchTool is the one capability the agent may ask to run. It only
// reads the material store.
type LocalSearchTool struct {
	materials MaterialStore
	limit     int
}

func NewLocalSearchTool(materials MaterialStore, limit int) *LocalSearchTool {
	if limit <= 0 {
		limit = defaultToolLimit
	}
	return &LocalSearchTool{materials: materials, limit: limit}
}

func (t *LocalSearchTool) Declaration() ai.ToolDeclaration {
	return ai.ToolDeclaration{
		Name:        SearchToolName,
		Description: "Search the local research archive for uploaded materials whose title or AI analysis mentions the given keywords. Returns titles and short insight snippets.",
		Parameters: []ai.ToolParameter{{
			Name:        "query",
			Type:        "string",
			Description: "Keywords to look for in material titles and analyses.",
			Required:    true,
		}},
	}
}

// SearchLocalRecords returns summaries of materials whose title or analysis
// contains query, newest first.
func (t *LocalSearchTool) SearchLocalRecords(ctx context.Context, query string) ([]RecordSummary, error) {
	list, err := t.materials.Search(ctx, query, t.limit)
	if err != nil {
		return nil, err
	}
	return summarize(list), nil
}

// Execute runs the tool for a model-issued call and shapes the result for
// the follow-up prompt.
func (t *LocalSearchTool) Execute(ctx context.Context, query string) (map[string]any, int, error) {
	summaries, err := t.SearchLocalRecords(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	results := make([]map[string]any, 0, len(summaries))
	for _, s := range summaries {
		results = append(results, map[string]any{
			"title":           s.Title,
			"insight_snippet": s.InsightSnippet,
		})
	}
	return map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	}, len(results), nil
}

func summarize(list []model.Material) []RecordSummary {
	out := make([]RecordSummary, 0, len(list))
	for _, m := range list {
		out = append(out, RecordSummary{
			ID:             m.ID,
			Title:          m.Title,
			FileType:       m.TypeTag,
			InsightSnippet: snippet(m),
			UploadedAt:     m.CreatedAt,
		})
	}
	return out
}

func snippet(m model.Material) string {
	if !m.HasAnalysis() {
		return noAnalysisPlaceholder
	}
	runes := []rune(strings.TrimSpace(m.AnalysisText()))
	if len(runes) > snippetRunes {
		runes = runes[:snippetRunes]
	}
	return string(runes)
}
