package upload

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/abduss/assethost/internal/asset"
	"github.com/abduss/assethost/internal/auth"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the upload protocol under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/uploads", handler.initUpload)
	group.POST("/uploads/:batchID/chunks", handler.uploadChunk)
	group.POST("/uploads/:batchID/commit", handler.commitUpload)
}

type httpHandler struct {
	service *Service
}

type initUploadRequest struct {
	FullPath     string  `json:"full_path" binding:"required"`
	Collection   string  `json:"collection" binding:"required"`
	EncodingType *string `json:"encoding_type"`
	Token        *string `json:"token"`
	Name         string  `json:"name"`
	Description  *string `json:"description" binding:"omitempty,max=1024"`
}

type commitUploadRequest struct {
	ChunkIDs []ID        `json:"chunk_ids" binding:"required"`
	Headers  [][2]string `json:"headers"`
}

func (h *httpHandler) initUpload(c *gin.Context) {
	caller, ok := auth.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req initUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batchID, err := h.service.CreateBatch(c.Request.Context(), caller, InitInput{
		FullPath:     req.FullPath,
		Collection:   req.Collection,
		EncodingType: deref(req.EncodingType),
		Token:        deref(req.Token),
		Name:         req.Name,
		Description:  deref(req.Description),
	})
	if errors.Is(err, ErrUnsupportedEncoding) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "supported": asset.SupportedEncodings()})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"batch_id": batchID})
}

func (h *httpHandler) uploadChunk(c *gin.Context) {
	caller, ok := auth.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	batchID, err := parseID(c.Param("batchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}

	var orderID *uint64
	if raw := c.Query("order_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}
		orderID = &parsed
	}

	body := c.Request.Body
	if limit := h.service.maxChunkBytes; limit > 0 {
		// one extra byte lets the service see the overflow
		body = io.NopCloser(io.LimitReader(body, limit+1))
	}
	content, err := io.ReadAll(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read chunk body"})
		return
	}

	chunkID, err := h.service.CreateChunk(c.Request.Context(), caller, ChunkInput{
		BatchID: batchID,
		Content: content,
		OrderID: orderID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chunk_id": chunkID})
}

func (h *httpHandler) commitUpload(c *gin.Context) {
	caller, ok := auth.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	batchID, err := parseID(c.Param("batchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}

	var req commitUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	headers := make([]asset.HeaderField, 0, len(req.Headers))
	for _, pair := range req.Headers {
		headers = append(headers, asset.HeaderField{Name: pair[0], Value: pair[1]})
	}

	if err := h.service.CommitBatch(c.Request.Context(), caller, CommitInput{
		BatchID:  batchID,
		ChunkIDs: req.ChunkIDs,
		Headers:  headers,
	}); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch KindOf(err) {
	case KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case KindPermission:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case KindExpired:
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case KindOverflow:
		c.JSON(http.StatusInsufficientStorage, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
	}
}

func parseID(raw string) (ID, error) {
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed == 0 {
		return 0, errors.New("id must be positive")
	}
	return ID(parsed), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
