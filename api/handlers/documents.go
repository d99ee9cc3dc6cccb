package handlers

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/pcubed/gradeboard/api/middleware"
	"github.com/pcubed/gradeboard/internal/aggregator"
	"github.com/pcubed/gradeboard/internal/authz"
	"github.com/pcubed/gradeboard/internal/models"
	"github.com/pcubed/gradeboard/internal/uploads"
	"github.com/pcubed/gradeboard/pkg/logger"
)

// DocumentService is the aggregator surface the handlers call.
type DocumentService interface {
	Summary(ctx context.Context, principal authz.Principal) (aggregator.Summary, error)
	RequestFormatting(ctx context.Context, principal authz.Principal) (string, error)
	RetryProcessing(ctx context.Context, principal authz.Principal, documentID string) (string, error)
}

// DocumentLister reads the principal's document set once, policy-gated.
type DocumentLister interface {
	ListDocuments(ctx context.Context, principal authz.Principal, userID string) (models.Snapshot, error)
}

// Uploader stores raw files for later processing.
type Uploader interface {
	Put(ctx context.Context, userID string, docType models.DocumentType, filename string, r io.Reader) (string, error)
}

type DocumentHandler struct {
	service  DocumentService
	lister   DocumentLister
	uploader Uploader
	log      logger.Logger
}

func NewDocumentHandler(service DocumentService, lister DocumentLister, uploader Uploader, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{service: service, lister: lister, uploader: uploader, log: log}
}

// ListDocuments returns the raw records behind the summary, including
// per-record error messages for the retry UI.
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required"})
		return
	}

	docs, err := h.lister.ListDocuments(c.Request.Context(), principal, principal.UID)
	if err != nil {
		writeError(c, h.log, "failed to list documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// GetSummary returns the derived view of the principal's document set,
// starting the live subscription on first use.
func (h *DocumentHandler) GetSummary(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required"})
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), principal)
	if err != nil {
		writeError(c, h.log, "failed to load summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RequestFormat triggers whole-batch formatting. 409 while a previous
// invocation is still in flight.
func (h *DocumentHandler) RequestFormat(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required"})
		return
	}

	msg, err := h.service.RequestFormatting(c.Request.Context(), principal)
	if err != nil {
		writeError(c, h.log, "formatting request failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// RetryDocument re-triggers processing after an error. The backend
// reprocesses the whole batch regardless of which document was retried.
func (h *DocumentHandler) RetryDocument(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required"})
		return
	}
	documentID := c.Param("documentId")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "document id is required"})
		return
	}

	msg, err := h.service.RetryProcessing(c.Request.Context(), principal, documentID)
	if err != nil {
		writeError(c, h.log, "retry request failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "documentId": documentID})
}

// UploadResponse describes one stored file.
type UploadResponse struct {
	Object   string `json:"object"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Upload stores one or more raw files for the principal. Processing happens
// out of band; resulting document records arrive via the snapshot stream.
func (h *DocumentHandler) Upload(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid form data", Error: err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "no files provided"})
		return
	}
	docType := models.DocumentType(c.PostForm("documentType"))
	switch docType {
	case models.TypeSyllabus, models.TypeTranscript, models.TypeGrades, models.TypeOther:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "unknown document type"})
		return
	}

	for _, header := range files {
		if err := uploads.Validate(header.Filename, header.Size); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid file", Error: err.Error()})
			return
		}
	}

	var mu sync.Mutex
	results := make([]UploadResponse, 0, len(files))
	g, ctx := errgroup.WithContext(c.Request.Context())
	for _, header := range files {
		header := header
		g.Go(func() error {
			f, err := header.Open()
			if err != nil {
				return err
			}
			defer f.Close()

			object, err := h.uploader.Put(ctx, principal.UID, docType, header.Filename, f)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, UploadResponse{
				Object:   object,
				Filename: header.Filename,
				Size:     header.Size,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(c, h.log, "upload failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploads": results})
}
