package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/abduss/assethost/internal/serve"
	"github.com/abduss/assethost/internal/upload"
	"go.uber.org/zap"
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the API origin, e.g. "http://localhost:8080".
	BaseURL string
	// BearerToken authenticates upload calls. Reads do not need it.
	BearerToken string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client speaks the upload protocol and follows streamed reads.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger
}

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assethost: status %d: %s", e.StatusCode, e.Message)
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("assethost: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("assethost: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.BearerToken,
		httpClient: httpClient,
		log:        log,
	}, nil
}

// InitRequest opens an upload batch.
type InitRequest struct {
	FullPath     string  `json:"full_path"`
	Collection   string  `json:"collection"`
	EncodingType string  `json:"encoding_type,omitempty"`
	Token        string  `json:"token,omitempty"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
}

// InitUpload opens a batch and returns its id.
func (c *Client) InitUpload(ctx context.Context, req InitRequest) (upload.ID, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/v1/uploads", req)
	if err != nil {
		return 0, fmt.Errorf("init upload: %w", err)
	}

	var resp struct {
		BatchID upload.ID `json:"batch_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("init upload: parse response: %w", err)
	}
	return resp.BatchID, nil
}

// UploadChunk sends one chunk. A nil orderID lets the server order by chunk id.
func (c *Client) UploadChunk(ctx context.Context, batchID upload.ID, content []byte, orderID *uint64) (upload.ID, error) {
	path := "/v1/uploads/" + strconv.FormatUint(uint64(batchID), 10) + "/chunks"
	if orderID != nil {
		path += "?order_id=" + strconv.FormatUint(*orderID, 10)
	}

	resp, err := c.do(ctx, http.MethodPost, path, "application/octet-stream", bytes.NewReader(content), nil)
	if err != nil {
		return 0, fmt.Errorf("upload chunk: %w", err)
	}

	var created struct {
		ChunkID upload.ID `json:"chunk_id"`
	}
	if err := json.Unmarshal(resp.body, &created); err != nil {
		return 0, fmt.Errorf("upload chunk: parse response: %w", err)
	}
	return created.ChunkID, nil
}

// CommitUpload publishes the listed chunks as the batch's encoding.
func (c *Client) CommitUpload(ctx context.Context, batchID upload.ID, chunkIDs []upload.ID, headers [][2]string) error {
	path := "/v1/uploads/" + strconv.FormatUint(uint64(batchID), 10) + "/commit"
	payload := struct {
		ChunkIDs []upload.ID `json:"chunk_ids"`
		Headers  [][2]string `json:"headers"`
	}{ChunkIDs: chunkIDs, Headers: headers}
	if payload.Headers == nil {
		payload.Headers = [][2]string{}
	}

	if _, err := c.doJSON(ctx, http.MethodPost, path, payload); err != nil {
		return fmt.Errorf("commit upload: %w", err)
	}
	return nil
}

// Download is a fully assembled read.
type Download struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Chunks counts the responses the body was assembled from.
	Chunks int
}

// Get requests target (a path with optional query) and follows streaming
// tokens until the body is complete. Non-200 responses are returned as a
// Download with the server's message as body, not as an error.
func (c *Client) Get(ctx context.Context, target, acceptEncoding string) (Download, error) {
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}

	header := http.Header{}
	if acceptEncoding != "" {
		header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, body, err := c.send(ctx, http.MethodGet, target, "", nil, header)
	if err != nil {
		return Download{}, fmt.Errorf("get %s: %w", target, err)
	}

	dl := Download{StatusCode: resp.StatusCode, Header: resp.Header, Body: body, Chunks: 1}
	if resp.StatusCode != http.StatusOK {
		return dl, nil
	}

	cursor := resp.Header.Get(serve.StreamingTokenHeader)
	for cursor != "" {
		path := serve.StreamPath + "?" + serve.CursorParam + "=" + url.QueryEscape(cursor)
		next, err := c.do(ctx, http.MethodGet, path, "", nil, nil)
		if err != nil {
			return Download{}, fmt.Errorf("stream %s chunk %d: %w", target, dl.Chunks, err)
		}
		dl.Body = append(dl.Body, next.body...)
		dl.Chunks++
		cursor = next.header.Get(serve.StreamingTokenHeader)
	}

	c.log.Debug("download complete", zap.String("target", target), zap.Int("chunks", dl.Chunks), zap.Int("bytes", len(dl.Body)))
	return dl, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.do(ctx, method, path, "application/json", bytes.NewReader(encoded), nil)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

type response struct {
	header http.Header
	body   []byte
}

// do sends an authenticated request and turns any status >= 300 into an APIError.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, header http.Header) (response, error) {
	resp, data, err := c.send(ctx, method, path, contentType, body, header)
	if err != nil {
		return response{}, err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return response{}, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	return response{header: resp.Header, body: data}, nil
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, header http.Header) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	for name, values := range header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	// bodies are compared byte for byte; keep the transport from decoding them
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, data, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
