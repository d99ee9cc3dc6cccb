// Package functions invokes the managed backend functions. The only
// operation the dashboard calls is formatDocumentsData, which reprocesses
// the caller's whole document batch; its effects surface asynchronously
// through the document snapshot stream, never in the response body.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pcubed/gradeboard/pkg/logger"
)

// Result is the response envelope of formatDocumentsData.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Invoker is the aggregator's view of the function backend.
type Invoker interface {
	FormatDocuments(ctx context.Context) (*Result, error)
}

// Client invokes functions over HTTPS.
type Client struct {
	formatURL string
	http      *http.Client
	log       logger.Logger
}

func NewClient(formatURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		formatURL: formatURL,
		http:      &http.Client{Timeout: timeout},
		log:       log,
	}
}

// FormatDocuments calls formatDocumentsData with an empty argument object.
// Transport failures and undecodable responses come back as errors; callers
// must treat them exactly like a success:false result.
func (c *Client) FormatDocuments(ctx context.Context) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.formatURL, bytes.NewReader([]byte(`{}`)))
	if err != nil {
		return nil, fmt.Errorf("build format request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke formatDocumentsData: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("formatDocumentsData returned HTTP %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode format response: %w", err)
	}

	c.log.Debug("formatDocumentsData invoked",
		logger.Bool("success", result.Success),
		logger.String("message", result.Message),
	)
	return &result, nil
}
