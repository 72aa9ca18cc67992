// Package liveness is the client for the face-liveness collaborator, an
// independent HTTP service that judges whether an uploaded image contains a
// valid live face. The engine treats its verdict purely as a boolean gate on
// discovery eligibility and knows nothing about its internals.
package liveness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	svcErr "github.com/ember-dating/engine/internal/errors"
)

// Decision values returned by the collaborator.
const (
	DecisionAccepted = "ACCEPTED"
	DecisionRejected = "REJECTED"
)

// Result is the collaborator's verdict for one image.
type Result struct {
	Decision   string `json:"decision"`
	FacesCount int    `json:"faces_count"`
	Message    string `json:"message"`
}

// Accepted reports whether the image passed the gate.
func (r Result) Accepted() bool { return r.Decision == DecisionAccepted }

// Client calls the face service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the face service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// DetectFace submits an image (as multipart form data, the way the service
// expects it) and returns the accept/reject verdict. Transport failures map
// to the transient error kind so callers know a retry is safe.
func (c *Client) DetectFace(ctx context.Context, filename string, image io.Reader) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect-face", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, svcErr.Transient("face service unreachable: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		// the service rejects unreadable uploads with a 400
		return nil, svcErr.Validation("face service rejected the upload")
	case resp.StatusCode != http.StatusOK:
		return nil, svcErr.Transient("face service returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, svcErr.Transient("face service sent malformed response: %v", err)
	}
	return &result, nil
}
