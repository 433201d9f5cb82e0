package extract

import (
	"bytes"          // Multipart body buffer
	"context"        // Context for the HTTP call
	"encoding/json"  // Response decoding
	"fmt"            // Error formatting
	"io"             // File streaming
	"mime/multipart" // Multipart form encoding
	"net/http"       // HTTP client
	"strings"        // URL trimming
	"time"           // Client timeout
)

// Result holds the fields the extraction service parsed from a certificate
// image. Empty fields mean the OCR could not find them.
type Result struct {
	Issuer    string `json:"issuer"`    // Detected issuing platform
	Name      string `json:"name"`      // Recipient name on the certificate
	Title     string `json:"title"`     // Course or credential title
	IssueDate string `json:"issueDate"` // Issue date as printed, normalized by the service
}

// response is the extraction service's envelope
type response struct {
	Success   bool    `json:"success"`   // Whether extraction succeeded
	Extracted *Result `json:"extracted"` // Parsed fields on success
	Message   string  `json:"message"`   // Human-readable status
}

// Client calls the certificate extraction microservice
type Client struct {
	baseURL string       // Service base URL
	httpc   *http.Client // HTTP client with timeout
}

// New constructs an extraction Client
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"), // Normalize trailing slash
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Extract uploads a certificate image and returns the parsed fields. The
// platform hint is optional and narrows the service's extraction rules.
func (c *Client) Extract(ctx context.Context, filename string, file io.Reader, platformHint string) (*Result, error) {
	var body bytes.Buffer                // Multipart body
	writer := multipart.NewWriter(&body) // Multipart writer
	// The service expects the image under the certificateFile field
	part, err := writer.CreateFormFile("certificateFile", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	// Optional platform hint form field
	if platformHint != "" {
		if err := writer.WriteField("platform", platformHint); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType()) // Multipart content type with boundary
	resp, err := c.httpc.Do(req)                                 // Call the service
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out response // Decode the envelope
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}
	if !out.Success || out.Extracted == nil {
		return nil, fmt.Errorf("extraction failed: %s", out.Message)
	}
	return out.Extracted, nil
}
