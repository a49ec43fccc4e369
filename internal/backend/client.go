package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// Ordinary calls share the ceiling the engine's own clients use; PDF
	// processing on upload can take far longer than a section lookup.
	defaultTimeout = 2 * time.Minute
	uploadTimeout  = 10 * time.Minute
)

// Client is a thin facade over the PDF intelligence engine's HTTP API.
// Every operation makes exactly one attempt; retry policy belongs to the
// caller.
type Client struct {
	base    string
	http    *http.Client
	uploads *http.Client
	log     *zap.Logger
}

// Config describes how to build a Client.
type Config struct {
	BaseURL string
	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// New returns a Client rooted at cfg.BaseURL.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HTTPClient != nil {
		return &Client{base: base, http: cfg.HTTPClient, uploads: cfg.HTTPClient, log: logger}
	}
	return &Client{
		base:    base,
		http:    &http.Client{Timeout: defaultTimeout},
		uploads: &http.Client{Timeout: uploadTimeout},
		log:     logger,
	}
}

// BaseURL reports the configured engine root.
func (c *Client) BaseURL() string {
	return c.base
}

// FileURL resolves the engine-served location of an uploaded PDF.
func (c *Client) FileURL(filename string) string {
	return fmt.Sprintf("%s/files/%s", c.base, url.PathEscape(filename))
}

// ResolveURL turns an engine-relative path (eg. an audio_url) into an
// absolute URL. Absolute inputs pass through untouched.
func (c *Client) ResolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.base + "/" + strings.TrimLeft(path, "/")
}

// Upload sends one or more PDFs for processing and returns the engine's
// record for each. Callers are expected to have filtered to PDFs already.
func (c *Client) Upload(ctx context.Context, files []UploadFile) ([]UploadedDocument, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, file := range files {
		part, err := writer.CreateFormFile("files", file.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var parsed struct {
		Message string             `json:"message"`
		Files   []UploadedDocument `json:"files"`
	}
	if err := c.do(c.uploads, req, "upload", &parsed); err != nil {
		return nil, err
	}
	return parsed.Files, nil
}

// ListDocuments returns every document the engine has processed.
func (c *Client) ListDocuments(ctx context.Context) ([]UploadedDocument, error) {
	var parsed struct {
		Documents []UploadedDocument `json:"documents"`
	}
	if err := c.get(ctx, "/documents", "list documents", &parsed); err != nil {
		return nil, err
	}
	return parsed.Documents, nil
}

// Sections returns the extracted sections of one document.
func (c *Client) Sections(ctx context.Context, documentName string) ([]Section, error) {
	var parsed struct {
		Sections []Section `json:"sections"`
	}
	path := "/sections/" + url.PathEscape(documentName)
	if err := c.get(ctx, path, "get sections", &parsed); err != nil {
		return nil, err
	}
	return parsed.Sections, nil
}

// RelatedSections returns sections similar to the given section text. With
// an empty sectionText the engine instead returns the document's own
// sections, mirroring its historical behavior.
func (c *Client) RelatedSections(ctx context.Context, documentName, sectionText string) ([]RelatedSection, error) {
	path := "/related-sections/" + url.PathEscape(documentName)
	if sectionText != "" {
		path += "?section_text=" + url.QueryEscape(sectionText)
	}
	var parsed struct {
		Related []RelatedSection `json:"related_sections"`
	}
	if err := c.get(ctx, path, "get related sections", &parsed); err != nil {
		return nil, err
	}
	return parsed.Related, nil
}

// RelatedForDocument computes cross-document related sections for every
// section of the named document.
func (c *Client) RelatedForDocument(ctx context.Context, documentName string) ([]RelatedSection, error) {
	var parsed struct {
		CurrentDocument string           `json:"current_document"`
		Related         []RelatedSection `json:"related_sections"`
	}
	path := "/related-for-document/" + url.PathEscape(documentName)
	if err := c.get(ctx, path, "analyze document", &parsed); err != nil {
		return nil, err
	}
	return parsed.Related, nil
}

// Insights asks the engine for insights grounded in the selected text.
func (c *Client) Insights(ctx context.Context, selectedText string, topK int) ([]Insight, error) {
	if strings.TrimSpace(selectedText) == "" {
		return nil, fmt.Errorf("selected text cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}
	payload := map[string]any{
		"selected_text": selectedText,
		"top_k":         topK,
	}
	var parsed struct {
		Insights []Insight `json:"insights"`
	}
	if err := c.post(ctx, "/insights", payload, "generate insights", &parsed); err != nil {
		return nil, err
	}
	return parsed.Insights, nil
}

// GenerateAudio synthesizes a spoken overview and returns its URL,
// resolved against the engine base.
func (c *Client) GenerateAudio(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("audio text cannot be empty")
	}
	var parsed struct {
		AudioURL string `json:"audio_url"`
	}
	if err := c.post(ctx, "/audio", map[string]any{"text": text}, "generate audio", &parsed); err != nil {
		return "", err
	}
	if parsed.AudioURL == "" {
		return "", fmt.Errorf("engine returned no audio URL")
	}
	return c.ResolveURL(parsed.AudioURL), nil
}

// Chat sends the running message history plus the current selection and
// document context, and returns the assistant's reply. The engine proxies
// an OpenAI-style completion object.
func (c *Client) Chat(ctx context.Context, history []ChatMessage, selectedText, documentContext string) (ChatReply, error) {
	if len(history) == 0 {
		return ChatReply{}, fmt.Errorf("chat requires at least one message")
	}
	messages := make([]map[string]string, 0, len(history))
	for _, msg := range history {
		messages = append(messages, map[string]string{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}
	payload := map[string]any{
		"messages":         messages,
		"selected_text":    selectedText,
		"document_context": documentContext,
	}

	var parsed struct {
		Response struct {
			Provider string `json:"provider"`
			Choices  []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"response"`
	}
	if err := c.post(ctx, "/chat", payload, "chat", &parsed); err != nil {
		return ChatReply{}, err
	}
	if len(parsed.Response.Choices) == 0 {
		return ChatReply{}, fmt.Errorf("engine returned no chat choices")
	}
	return ChatReply{
		Content:  strings.TrimSpace(parsed.Response.Choices[0].Message.Content),
		Provider: parsed.Response.Provider,
	}, nil
}

// CheckHealth probes the engine's liveness endpoint.
func (c *Client) CheckHealth(ctx context.Context) (Health, error) {
	var parsed Health
	if err := c.get(ctx, "/health", "health check", &parsed); err != nil {
		return Health{}, err
	}
	return parsed, nil
}

// FetchRuntimeConfig pulls the runtime-issued client configuration.
func (c *Client) FetchRuntimeConfig(ctx context.Context) (RuntimeConfig, error) {
	var parsed RuntimeConfig
	if err := c.get(ctx, "/config", "fetch config", &parsed); err != nil {
		return RuntimeConfig{}, err
	}
	return parsed, nil
}

func (c *Client) get(ctx context.Context, path, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(c.http, req, op, out)
}

func (c *Client) post(ctx context.Context, path string, payload any, op string, out any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(c.http, req, op, out)
}

func (c *Client) do(client *http.Client, req *http.Request, op string, out any) error {
	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.log.Warn("engine request failed",
			zap.String("op", op),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return normalizeTransportError(err, c.base, op)
	}
	defer resp.Body.Close()

	c.log.Debug("engine request",
		zap.String("op", op),
		zap.String("url", req.URL.String()),
		zap.String("status", strconv.Itoa(resp.StatusCode)),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return normalizeStatusError(resp.StatusCode, body, op)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode engine response: %w", op, err)
	}
	return nil
}
