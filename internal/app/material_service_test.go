package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cerebro/internal/ai"
)

func TestSearchSummaries(t *testing.T) {
	repo := newMaterialRepo(t)
	svc := NewMaterialService(repo, newScriptedGateway(), nil)
	ctx := context.Background()

	long := strings.Repeat("é", 250)
	seedMaterial(t, repo, "Volcano Report", long)
	seedMaterial(t, repo, "Volcano Photos", "")
	seedMaterial(t, repo, "Glacier Survey", "cold")

	results, err := svc.Search(ctx, "VOLCANO")
	require.NoError(t, err)
	require.Len(t, results, 2)

	byTitle := map[string]RecordSummary{}
	for _, r := range results {
		byTitle[r.Title] = r
	}
	assert.Equal(t, strings.Repeat("é", 200), byTitle["Volcano Report"].InsightSnippet)
	assert.Equal(t, noAnalysisPlaceholder, byTitle["Volcano Photos"].InsightSnippet)

	results, err = svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchToolExecute(t *testing.T) {
	repo := newMaterialRepo(t)
	tool := NewLocalSearchTool(repo, 2)
	for _, title := range []string{"a report", "b report", "c report"} {
		seedMaterial(t, repo, title, "findings")
	}

	out, count, err := tool.Execute(context.Background(), "report")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "report", out["query"])
	assert.Len(t, out["results"], 2)

	decl := tool.Declaration()
	assert.Equal(t, SearchToolName, decl.Name)
	require.Len(t, decl.Parameters, 1)
	assert.True(t, decl.Parameters[0].Required)
}

func TestSynthesize(t *testing.T) {
	repo := newMaterialRepo(t)
	gw := newScriptedGateway(textReply("Combined findings."))
	svc := NewMaterialService(repo, gw, nil)
	ctx := context.Background()

	first := seedMaterial(t, repo, "Mars Rover Log", "Dust storms.")
	second := seedMaterial(t, repo, "mars orbit notes", "")
	seedMaterial(t, repo, "Venus Probe", "Hot.")

	res, err := svc.Synthesize(ctx, "mars")
	require.NoError(t, err)
	assert.Equal(t, "Combined findings.", res.Synthesis)
	assert.Equal(t, 2, res.SourceCount)
	assert.Equal(t, []uint{first.ID, second.ID}, res.SourceIDs)

	texts := messageTexts(gw.calls[0].messages[0])
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], `"mars"`)
	assert.Contains(t, texts[1], "--- Mars Rover Log ---\nDust storms.")
	assert.Contains(t, texts[1], "--- mars orbit notes ---\n"+noAnalysisPlaceholder)
	assert.NotContains(t, texts[1], "Venus")
}

func TestSynthesizeNoMatches(t *testing.T) {
	repo := newMaterialRepo(t)
	gw := newScriptedGateway()
	svc := NewMaterialService(repo, gw, nil)

	_, err := svc.Synthesize(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Synthesize(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, gw.callCount())
}

func TestSynthesizeGatewayFailure(t *testing.T) {
	repo := newMaterialRepo(t)
	svc := NewMaterialService(repo, newScriptedGateway(failReply("down")), nil)
	seedMaterial(t, repo, "Mars", "x")

	_, err := svc.Synthesize(context.Background(), "mars")
	assert.ErrorIs(t, err, ai.ErrGateway)
}

func TestGetMaterial(t *testing.T) {
	repo := newMaterialRepo(t)
	svc := NewMaterialService(repo, newScriptedGateway(), nil)
	m := seedMaterial(t, repo, "Known", "")

	got, err := svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Known", got.Title)

	_, err = svc.Get(context.Background(), m.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPing(t *testing.T) {
	gw := newScriptedGateway(textReply("I am awake."))
	svc := NewMaterialService(newMaterialRepo(t), gw, nil)

	reply, err := svc.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "I am awake.", reply)
	assert.Equal(t, pingPrompt, messageTexts(gw.calls[0].messages[0])[0])
}
