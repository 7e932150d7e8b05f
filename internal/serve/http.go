package serve

import (
	"net/http"

	"github.com/abduss/assethost/internal/asset"
	"github.com/gin-gonic/gin"
)

const (
	// StreamingTokenHeader carries the encoded continuation token.
	StreamingTokenHeader = "X-Streaming-Token"
	// StreamPath is the streaming callback route.
	StreamPath = "/v1/stream"
	// CursorParam names the query parameter holding the token on StreamPath.
	CursorParam = "cursor"
)

// RegisterRoutes mounts the streaming callback and hands every unmatched
// route to the responder.
func RegisterRoutes(router *gin.Engine, responder *Responder) {
	handler := &httpHandler{responder: responder}
	router.GET(StreamPath, handler.stream)
	router.NoRoute(handler.serveAsset)
}

type httpHandler struct {
	responder *Responder
}

func (h *httpHandler) serveAsset(c *gin.Context) {
	resp, err := h.responder.HTTPRequest(c.Request.Context(), Request{
		Method:  c.Request.Method,
		URL:     c.Request.RequestURI,
		Headers: c.Request.Header,
	})
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if !writeToken(c, resp.StreamingToken) {
		return
	}
	writeBody(c, resp.StatusCode, resp.Headers, resp.Body)
}

func (h *httpHandler) stream(c *gin.Context) {
	token, err := DecodeToken(c.Query(CursorParam))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.responder.StreamingCallback(c.Request.Context(), token)
	if err != nil {
		// ErrStreamGone included: no partial body once a stream has lost its asset
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if !writeToken(c, resp.Token) {
		return
	}
	writeBody(c, http.StatusOK, nil, resp.Body)
}

func writeToken(c *gin.Context, token *StreamingToken) bool {
	if token == nil {
		return true
	}
	encoded, err := EncodeToken(*token)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return false
	}
	c.Header(StreamingTokenHeader, encoded)
	return true
}

func writeBody(c *gin.Context, status int, headers []asset.HeaderField, body []byte) {
	for _, h := range headers {
		c.Writer.Header().Add(h.Name, h.Value)
	}
	c.Status(status)
	_, _ = c.Writer.Write(body)
}
