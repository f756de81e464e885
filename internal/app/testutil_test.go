package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cerebro/internal/ai"
	"cerebro/internal/model"
	"cerebro/internal/repository"
)

func newMaterialRepo(t *testing.T) *repository.MaterialRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Material{}, &model.ExchangeLog{}))
	return repository.NewMaterialRepository(db)
}

func seedMaterial(t *testing.T, repo *repository.MaterialRepository, title, analysis string) *model.Material {
	t.Helper()
	m := &model.Material{Title: title, FileRef: "uploads/" + title, TypeTag: "application"}
	if analysis != "" {
		m.Analysis = &analysis
	}
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

type step func(messages []ai.Message, opts ai.Options) (*ai.Response, error)

type recordedCall struct {
	messages []ai.Message
	opts     ai.Options
}

// scriptedGateway answers calls in order from a fixed script.
type scriptedGateway struct {
	mu    sync.Mutex
	steps []step
	calls []recordedCall
}

func newScriptedGateway(steps ...step) *scriptedGateway {
	return &scriptedGateway{steps: steps}
}

func (g *scriptedGateway) Generate(_ context.Context, messages []ai.Message, opts ai.Options) (*ai.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := len(g.calls)
	g.calls = append(g.calls, recordedCall{messages: messages, opts: opts})
	if idx >= len(g.steps) {
		return nil, fmt.Errorf("%w: unexpected call %d", ai.ErrGateway, idx)
	}
	return g.steps[idx](messages, opts)
}

func (g *scriptedGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func textReply(text string) step {
	return func([]ai.Message, ai.Options) (*ai.Response, error) {
		return &ai.Response{Text: text}, nil
	}
}

func toolReply(name string, args map[string]any) step {
	return func([]ai.Message, ai.Options) (*ai.Response, error) {
		return &ai.Response{ToolCall: &ai.ToolCall{ID: "call-1", Name: name, Args: args}}, nil
	}
}

func failReply(msg string) step {
	return func([]ai.Message, ai.Options) (*ai.Response, error) {
		return nil, fmt.Errorf("%w: %s", ai.ErrGateway, msg)
	}
}

func messageTexts(m ai.Message) []string {
	var out []string
	for _, p := range m.Parts {
		if p.Text != "" {
			out = append(out, p.Text)
		}
	}
	return out
}

type memoryFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  bool
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{files: map[string][]byte{}}
}

func (f *memoryFiles) Save(fileName string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("disk full")
	}
	ref := fmt.Sprintf("uploads/%d-%s", len(f.files), fileName)
	f.files[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (f *memoryFiles) Read(ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[ref]
	if !ok {
		return nil, errors.New("missing file")
	}
	return data, nil
}

func (f *memoryFiles) Delete(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, ref)
	return nil
}

func (f *memoryFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}
