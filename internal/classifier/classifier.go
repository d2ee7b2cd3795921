package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/medscan/apiserver/config"
)

// Result is the outcome of classifying one medical image.
type Result struct {
	Label      string  `json:"result"`
	Confidence float64 `json:"confidence"`
}

// Classifier sends a medical image to the AI classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, filename, contentType string, image []byte) (Result, error)
}

const defaultTimeout = 30 * time.Second

// HTTPClient calls the external classification service over HTTP with a
// bounded timeout. Timeouts and transport failures surface as plain errors
// for the caller to map to an upstream failure.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient constructs a classifier client from config.
func NewHTTPClient(cfg config.ClassifierConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("classifier url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Classify uploads the image as a multipart form and decodes the result.
func (c *HTTPClient) Classify(ctx context.Context, filename, contentType string, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, errors.New("empty image")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(image); err != nil {
		return Result{}, err
	}
	if err := writer.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("classifier response malformed: %w", err)
	}
	if strings.TrimSpace(result.Label) == "" {
		return Result{}, errors.New("classifier returned empty result")
	}
	return result, nil
}

// Static always returns a fixed result. Used in tests and local development
// when no classification service is reachable.
type Static struct {
	Result Result
	Err    error
}

func (s Static) Classify(ctx context.Context, filename, contentType string, image []byte) (Result, error) {
	if s.Err != nil {
		return Result{}, s.Err
	}
	return s.Result, nil
}
