package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cerebro/internal/ai"
	"cerebro/internal/model"
	"cerebro/internal/pkg/pdfextract"
	"cerebro/internal/pkg/sniff"
	"cerebro/internal/repository"
)

const (
	analysisInstruction = "Analyze this research material. What are the core findings?"
	defaultUploadTitle  = "New Research Upload"
	pdfTextRunes        = 20000
	maxTypeTagLen       = 32
)

type IngestService struct {
	materials MaterialStore
	files     FileStore
	gateway   ai.Gateway
	log       *zap.Logger
}

type IngestInput struct {
	FileName string
	Title    string
	TypeHint string
	Data     []byte
}

type IngestResult struct {
	Material *model.Material
	Analysis string
}

func NewIngestService(materials MaterialStore, files FileStore, gateway ai.Gateway, log *zap.Logger) *IngestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestService{materials: materials, files: files, gateway: gateway, log: log}
}

// Ingest stores the upload, persists its material row and only then asks the
// model for an analysis. A failed analysis leaves the row in place and is
// reported as *IngestionError.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", ErrInvalidInput)
	}

	detected := sniff.Detect(input.Data)
	typeTag := detected.TypeTag
	if hint := strings.ToLower(strings.TrimSpace(input.TypeHint)); !detected.Known() && hint != "" {
		if len(hint) > maxTypeTagLen {
			hint = hint[:maxTypeTagLen]
		}
		typeTag = hint
	}

	ref, err := s.files.Save(input.FileName, input.Data)
	if err != nil {
		return nil, err
	}

	material := &model.Material{
		Title:     uploadTitle(input.Title, input.FileName),
		FileRef:   ref,
		FileName:  input.FileName,
		MimeType:  detected.MIME,
		TypeTag:   typeTag,
		SizeBytes: int64(len(input.Data)),
	}
	if err := s.materials.Create(ctx, material); err != nil {
		if delErr := s.files.Delete(ref); delErr != nil {
			s.log.Warn("remove orphaned upload failed", zap.String("file_ref", ref), zap.Error(delErr))
		}
		return nil, err
	}
	s.log.Info("material stored",
		zap.Uint("material_id", material.ID),
		zap.String("mime", material.MimeType),
		zap.Int64("size", material.SizeBytes),
	)

	return s.analyze(ctx, material, input.Data)
}

// Reanalyze re-runs analysis over the stored bytes and replaces the previous
// analysis. On failure the previous analysis is kept.
func (s *IngestService) Reanalyze(ctx context.Context, id uint) (*IngestResult, error) {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, ErrNotFound
	}
	data, err := s.files.Read(material.FileRef)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, material, data)
}

func (s *IngestService) analyze(ctx context.Context, material *model.Material, data []byte) (*IngestResult, error) {
	parts := []ai.Part{
		ai.TextPart(analysisInstruction),
		ai.BlobPart(data, material.MimeType),
	}
	if material.MimeType == "application/pdf" {
		if text, err := pdfextract.ExtractText(data); err != nil {
			s.log.Debug("pdf text extraction failed", zap.Uint("material_id", material.ID), zap.Error(err))
		} else if text != "" {
			parts = append(parts, ai.TextPart("Extracted document text:\n"+pdfextract.Truncate(text, pdfTextRunes)))
		}
	}

	resp, err := s.gateway.Generate(ctx, []ai.Message{ai.UserMessage(parts...)}, ai.Options{})
	if err != nil {
		s.log.Warn("material analysis failed", zap.Uint("material_id", material.ID), zap.Error(err))
		return nil, &IngestionError{MaterialID: material.ID, Err: err}
	}

	analysis := strings.TrimSpace(resp.Text)
	if analysis == "" {
		return nil, &IngestionError{MaterialID: material.ID, Err: fmt.Errorf("%w: empty analysis", ai.ErrGateway)}
	}

	updated, err := s.materials.Update(ctx, material.ID, repository.MaterialUpdate{Analysis: &analysis})
	if err != nil {
		return nil, &IngestionError{MaterialID: material.ID, Err: err}
	}
	return &IngestResult{Material: updated, Analysis: analysis}, nil
}

func uploadTitle(title, fileName string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if f := strings.TrimSpace(fileName); f != "" {
		return f
	}
	return defaultUploadTitle
}
