// Package httpapi exposes the document QA service over HTTP.
package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

type Handler struct {
	search    usecase.SearchUsecase
	ingest    usecase.IngestUsecase
	documents usecase.DocumentsUsecase
	download  usecase.DownloadTokenUsecase
	ready     func(ctx echo.Context) error
	logger    *slog.Logger
}

// NewHandler creates the HTTP handler. ready is probed by /readyz; a
// nil ready always reports ready.
func NewHandler(
	search usecase.SearchUsecase,
	ingest usecase.IngestUsecase,
	documents usecase.DocumentsUsecase,
	download usecase.DownloadTokenUsecase,
	ready func(ctx echo.Context) error,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		search:    search,
		ingest:    ingest,
		documents: documents,
		download:  download,
		ready:     ready,
		logger:    logger,
	}
}

// RegisterRoutes wires all routes onto the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/readyz", h.Ready)

	e.POST("/upload", h.Upload)
	e.POST("/search", h.Search)

	e.GET("/documents", h.ListDocuments)
	e.POST("/documents", h.ListDocumentsByBody)
	e.DELETE("/documents/:id", h.DeleteDocument)
	e.POST("/documents/delete", h.DeleteDocumentByBody)

	e.POST("/download/token", h.MintDownloadToken)
	e.POST("/download/file", h.DownloadFile)
}

func (h *Handler) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Ready(ctx echo.Context) error {
	if h.ready != nil {
		if err := h.ready(ctx); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
		}
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// Upload ingests one multipart file.
// (POST /upload)
func (h *Handler) Upload(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing file"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable file"})
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable file"})
	}

	input := usecase.IngestInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
		DocumentID:  ctx.FormValue("documentId"),
		Metadata:    ctx.FormValue("metadata"),
	}
	if v := ctx.FormValue("chunkSize"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid chunkSize"})
		}
		input.ChunkSize = size
	}
	if v := ctx.FormValue("chunkOverlap"); v != "" {
		overlap, err := strconv.Atoi(v)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid chunkOverlap"})
		}
		input.ChunkOverlap = &overlap
	}

	resp, err := h.ingest.Execute(ctx.Request().Context(), input)
	if err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// Search runs the retrieval pipeline and optional answer generation.
// (POST /search)
func (h *Handler) Search(ctx echo.Context) error {
	var req domain.SearchRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	resp, err := h.search.Execute(ctx.Request().Context(), req)
	if err != nil {
		return h.writeError(ctx, err)
	}
	if !resp.Success {
		return ctx.JSON(http.StatusInternalServerError, resp)
	}
	return ctx.JSON(http.StatusOK, resp)
}

type listDocumentsRequest struct {
	MaxResults int    `json:"maxResults"`
	Skip       int    `json:"skip"`
	DocumentID string `json:"documentId"`
}

// ListDocuments pages document summaries via query parameters.
// (GET /documents)
func (h *Handler) ListDocuments(ctx echo.Context) error {
	var req listDocumentsRequest
	if v := ctx.QueryParam("maxResults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid maxResults"})
		}
		req.MaxResults = n
	}
	if v := ctx.QueryParam("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid skip"})
		}
		req.Skip = n
	}
	req.DocumentID = ctx.QueryParam("documentId")
	return h.listDocuments(ctx, req)
}

// ListDocumentsByBody pages document summaries via a JSON body.
// (POST /documents)
func (h *Handler) ListDocumentsByBody(ctx echo.Context) error {
	var req listDocumentsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	return h.listDocuments(ctx, req)
}

func (h *Handler) listDocuments(ctx echo.Context, req listDocumentsRequest) error {
	summaries, err := h.documents.List(ctx.Request().Context(), req.MaxResults, req.Skip, req.DocumentID)
	if err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"documents": summaries,
		"count":     len(summaries),
	})
}

// DeleteDocument removes a document and its blobs.
// (DELETE /documents/:id)
func (h *Handler) DeleteDocument(ctx echo.Context) error {
	return h.deleteDocument(ctx, ctx.Param("id"))
}

type deleteDocumentRequest struct {
	DocumentID string `json:"documentId"`
}

// DeleteDocumentByBody removes a document identified in a JSON body.
// (POST /documents/delete)
func (h *Handler) DeleteDocumentByBody(ctx echo.Context) error {
	var req deleteDocumentRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	return h.deleteDocument(ctx, req.DocumentID)
}

func (h *Handler) deleteDocument(ctx echo.Context, documentID string) error {
	if documentID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing documentId"})
	}
	if err := h.documents.Delete(ctx.Request().Context(), documentID); err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"documentId": documentID,
		"success":    true,
	})
}

type mintTokenRequest struct {
	DocumentID        string `json:"documentId"`
	ExpirationMinutes int    `json:"expirationMinutes"`
}

// MintDownloadToken issues a short-lived download token.
// (POST /download/token)
func (h *Handler) MintDownloadToken(ctx echo.Context) error {
	var req mintTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	token, err := h.download.Mint(ctx.Request().Context(), req.DocumentID, req.ExpirationMinutes)
	if err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, token)
}

type downloadFileRequest struct {
	Token string `json:"token"`
}

// DownloadFile streams the original document for a valid token.
// (POST /download/file)
func (h *Handler) DownloadFile(ctx echo.Context) error {
	var req downloadFileRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	file, err := h.download.Download(ctx.Request().Context(), req.Token)
	if err != nil {
		return h.writeError(ctx, err)
	}
	defer func() { _ = file.Body.Close() }()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", domain.SanitizeFileName(file.FileName)))
	if file.Size > 0 {
		ctx.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(file.Size, 10))
	}
	return ctx.Stream(http.StatusOK, contentType, file.Body)
}

// writeError maps domain sentinel errors onto HTTP statuses.
func (h *Handler) writeError(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTokenInvalid):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrTokenExpired):
		status = http.StatusGone
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request_failed",
			slog.String("path", ctx.Path()),
			slog.String("error", err.Error()))
	}
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}
