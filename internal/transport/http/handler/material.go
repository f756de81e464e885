package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cerebro/internal/app"
	"cerebro/internal/transport/http/response"
)

// multipart headers and text fields on top of the file itself
const formOverheadBytes = 1 << 20

var uploadFields = []string{"research_file", "file"}

type MaterialHandler struct {
	ingest         *app.IngestService
	materials      *app.MaterialService
	maxUploadBytes int64
}

func NewMaterialHandler(ingest *app.IngestService, materials *app.MaterialService, maxUploadBytes int64) *MaterialHandler {
	return &MaterialHandler{ingest: ingest, materials: materials, maxUploadBytes: maxUploadBytes}
}

func (h *MaterialHandler) ProcessFile(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverheadBytes)
	}

	header, err := h.formFile(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusBadRequest, response.CodeUploadTooLarge, h.tooLargeMessage())
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Send a file via POST in the research_file field.")
		return
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeUploadTooLarge, h.tooLargeMessage())
		return
	}

	data, err := readUpload(header)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed: "+err.Error())
		return
	}

	typeHint := c.PostForm("type")
	if typeHint == "" {
		typeHint = c.PostForm("file_type")
	}

	result, err := h.ingest.Ingest(c.Request.Context(), app.IngestInput{
		FileName: header.Filename,
		Title:    c.PostForm("title"),
		TypeHint: typeHint,
		Data:     data,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, gin.H{
		"status":   "success",
		"insight":  result.Analysis,
		"analysis": result.Analysis,
		"id":       result.Material.ID,
		"material": result.Material,
	})
}

func (h *MaterialHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	results, err := h.materials.Search(c.Request.Context(), query)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, gin.H{
		"status":  "success",
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (h *MaterialHandler) Synthesize(c *gin.Context) {
	result, err := h.materials.Synthesize(c.Request.Context(), c.Query("topic"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *MaterialHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}

	list, err := h.materials.List(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, gin.H{
		"count":     len(list),
		"materials": list,
	})
}

func (h *MaterialHandler) Get(c *gin.Context) {
	id, ok := materialID(c)
	if !ok {
		return
	}
	material, err := h.materials.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, material)
}

func (h *MaterialHandler) Reanalyze(c *gin.Context) {
	id, ok := materialID(c)
	if !ok {
		return
	}
	result, err := h.ingest.Reanalyze(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, gin.H{
		"status":   "success",
		"insight":  result.Analysis,
		"analysis": result.Analysis,
		"id":       result.Material.ID,
		"material": result.Material,
	})
}

func (h *MaterialHandler) formFile(c *gin.Context) (*multipart.FileHeader, error) {
	var firstErr error
	for _, field := range uploadFields {
		header, err := c.FormFile(field)
		if err == nil {
			return header, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func (h *MaterialHandler) tooLargeMessage() string {
	return fmt.Sprintf("uploaded file exceeds %d MB", h.maxUploadBytes>>20)
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func materialID(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid material id")
		return 0, false
	}
	return uint(id64), true
}
