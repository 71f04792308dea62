// Package vision encapsulates calls to the external vision LLM: image
// checks, request composition, response parsing and quality scoring.
package vision

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Typed failure modes. The orchestrator treats all four as non-fatal for
// the larger pipeline.
var (
	ErrInvalidImage      = errors.New("invalid image")
	ErrRateLimited       = errors.New("vision rate limited")
	ErrVisionUnavailable = errors.New("vision service unavailable")
	ErrMalformedResponse = errors.New("malformed vision response")
)

// DefaultMaxImageBytes is the image size ceiling when none is configured.
const DefaultMaxImageBytes = 5 << 20

// Context tags an analysis with its originating session.
type Context struct {
	SessionID  string
	Source     string
	DeviceType string
}

// Analysis is the structured result parsed from the vision response.
type Analysis struct {
	WindowType      string   `json:"windowType"`
	Material        string   `json:"material"`
	Condition       string   `json:"condition"`
	EstimatedWidth  float64  `json:"estimatedWidth"`
	EstimatedHeight float64  `json:"estimatedHeight"`
	Confidence      float64  `json:"confidence"`
	Recommendations []string `json:"recommendations"`
}

// Client talks to the vision endpoint.
type Client struct {
	endpoint      string
	apiKey        string
	maxImageBytes int64
	httpClient    *http.Client
	log           *zap.Logger
}

func NewClient(endpoint, apiKey string, maxImageBytes int64, timeout time.Duration, log *zap.Logger) *Client {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:      endpoint,
		apiKey:        apiKey,
		maxImageBytes: maxImageBytes,
		httpClient:    &http.Client{Timeout: timeout},
		log:           log,
	}
}

// Digest returns the hex SHA-256 of the image bytes, used as the stored
// image reference.
func Digest(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// sniffFormat accepts JPEG, PNG and WebP.
func sniffFormat(image []byte) (string, bool) {
	switch {
	case len(image) > 3 && image[0] == 0xFF && image[1] == 0xD8 && image[2] == 0xFF:
		return "image/jpeg", true
	case len(image) > 8 && bytes.HasPrefix(image, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png", true
	case len(image) > 12 && bytes.HasPrefix(image, []byte("RIFF")) && bytes.Equal(image[8:12], []byte("WEBP")):
		return "image/webp", true
	}
	return "", false
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const analysisPrompt = `Analyze this photo of a residential window. Respond with only a JSON object:
{"windowType": "...", "material": "...", "condition": "...", "estimatedWidth": <inches>, "estimatedHeight": <inches>, "confidence": <0-100>, "recommendations": ["..."]}`

// AnalyzeImage validates the image, calls the vision LLM and parses the
// structured analysis.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, vc Context) (*Analysis, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if int64(len(image)) > c.maxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, c.maxImageBytes)
	}
	mime, ok := sniffFormat(image)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format", ErrInvalidImage)
	}

	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
	payload := chatRequest{
		Model: "gpt-4o",
		Messages: []chatMessage{{
			Role: "user",
			Content: []map[string]any{
				{"type": "text", "text": analysisPrompt},
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			},
		}},
	}

	content, err := c.call(ctx, payload)
	if err != nil {
		return nil, err
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(extractJSON(content)), &analysis); err != nil {
		c.log.Warn("vision response did not parse",
			zap.String("sessionId", vc.SessionID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	analysis.WindowType = strings.ToLower(strings.TrimSpace(analysis.WindowType))
	analysis.Material = strings.ToLower(strings.TrimSpace(analysis.Material))
	analysis.Condition = strings.ToLower(strings.TrimSpace(analysis.Condition))
	return &analysis, nil
}

// GenerateText runs the LLM in text mode, used for customer-facing quote
// explanations.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model: "gpt-4o",
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	return c.call(ctx, payload)
}

func (c *Client) call(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVisionUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVisionUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVisionUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", ErrVisionUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("%w: status %d", ErrMalformedResponse, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	return parsed.Choices[0].Message.Content, nil
}

// extractJSON strips markdown fences and surrounding prose the model may
// wrap around the JSON object.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
