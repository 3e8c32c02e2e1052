package dox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Manojkumar-smk/ocr-in-sap/internal/logger"
	"github.com/go-resty/resty/v2"
)

// Job status values returned by the Document AI polling endpoint.
const (
	statusPending = "PENDING"
	statusRunning = "RUNNING"
	statusDone    = "DONE"
	statusFailed  = "FAILED"
)

// headerFields is the fixed set of header fields requested from Document AI.
// Only invoiceNumber and senderName are parsed downstream; the rest are kept
// in the raw payload for audit.
var headerFields = []string{
	"invoiceNumber",
	"purchaseOrderNumber",
	"invoiceDate",
	"currency",
	"grossAmount",
	"netAmount",
	"senderName",
	"senderAddress",
	"receiverName",
}

// ClientConfig holds configuration for the Document AI client.
type ClientConfig struct {
	BaseURL string
	APIPath string

	// PollInterval and MaxPollAttempts bound the job-status poll loop.
	// Zero values fall back to 2s and 30 attempts (a 60-second ceiling).
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Client submits documents to SAP Document Information Extraction and polls
// extraction jobs to completion. It keeps no per-request state; the only
// state shared across calls lives in the TokenSource.
type Client struct {
	http            *resty.Client
	tokens          *TokenSource
	jobsURL         string
	pollInterval    time.Duration
	maxPollAttempts int
}

// NewClient creates a Document AI client.
// Parameters:
//   - cfg: endpoint and poll-loop configuration.
//   - tokens: token source used to authenticate each call.
// Returns:
//   - *Client: initialized client.
func NewClient(cfg ClientConfig, tokens *TokenSource) *Client {
	client := resty.New()
	client.SetTimeout(60 * time.Second)

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	attempts := cfg.MaxPollAttempts
	if attempts <= 0 {
		attempts = 30
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	apiPath := cfg.APIPath
	if !strings.HasPrefix(apiPath, "/") {
		apiPath = "/" + apiPath
	}
	if !strings.HasSuffix(apiPath, "/") {
		apiPath += "/"
	}

	return &Client{
		http:            client,
		tokens:          tokens,
		jobsURL:         base + apiPath + "document/jobs",
		pollInterval:    interval,
		maxPollAttempts: attempts,
	}
}

// extractionOptions is the JSON options blob sent with the job-creation
// request.
type extractionOptions struct {
	Extraction struct {
		HeaderFields   []string `json:"headerFields"`
		LineItemFields []string `json:"lineItemFields"`
	} `json:"extraction"`
	SchemaName   string `json:"schemaName"`
	ClientID     string `json:"clientId"`
	DocumentType string `json:"documentType"`
	ReceivedDate string `json:"receivedDate"`
}

type jobCreatedResponse struct {
	ID string `json:"id"`
}

type jobStatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Extract uploads the file at path to Document AI and polls the resulting
// job until it completes, fails, or the attempt budget runs out.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - path: local path of the PDF to extract.
// Returns:
//   - []byte: the full DONE result body, unmodified.
//   - error: terminal extraction error (see errors.go) or transport failure.
func (c *Client) Extract(ctx context.Context, path string) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	jobID, err := c.createJob(ctx, path, token)
	if err != nil {
		return nil, err
	}

	ctx = logger.SetJobID(ctx, jobID)
	logger.CtxInfo(ctx, "Extraction job created, polling for results")

	return c.pollJob(ctx, jobID, token)
}

// createJob uploads the document as multipart form data and returns the
// vendor-assigned job ID.
func (c *Client) createJob(ctx context.Context, path, token string) (string, error) {
	opts := extractionOptions{
		SchemaName:   "SAP_invoice_schema",
		ClientID:     "default",
		DocumentType: "invoice",
	}
	opts.Extraction.HeaderFields = headerFields
	opts.Extraction.LineItemFields = []string{}

	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal extraction options: %w", err)
	}

	var created jobCreatedResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetFile("file", path).
		SetFormData(map[string]string{"options": string(optsJSON)}).
		SetResult(&created).
		Post(c.jobsURL)

	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpload, resp.StatusCode(), resp.Body())
	}

	if created.ID == "" {
		return "", fmt.Errorf("%w: no job ID in response", ErrUpload)
	}

	return created.ID, nil
}

// pollJob polls the job-status endpoint at a fixed interval until the job
// reaches a terminal state or the attempt budget is exhausted. PENDING and
// RUNNING sleep and retry; DONE returns the full body; FAILED and any
// unrecognized status are terminal.
func (c *Client) pollJob(ctx context.Context, jobID, token string) ([]byte, error) {
	pollURL := c.jobsURL + "/" + jobID

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		var status jobStatusResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetResult(&status).
			Get(pollURL)

		if err != nil {
			return nil, fmt.Errorf("failed to poll job: %w", err)
		}

		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("failed to poll job: status %d: %s", resp.StatusCode(), resp.Body())
		}

		switch status.Status {
		case statusDone:
			return resp.Body(), nil
		case statusFailed:
			reason := status.Error
			if reason == "" {
				reason = "unknown error"
			}
			return nil, fmt.Errorf("%w: %s", ErrJobFailed, reason)
		case statusPending, statusRunning:
			select {
			case <-time.After(c.pollInterval):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status.Status)
		}
	}

	return nil, fmt.Errorf("%w after %s",
		ErrPollTimeout, time.Duration(c.maxPollAttempts)*c.pollInterval)
}
