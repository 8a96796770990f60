// Package estimator is the HTTP client for the cost-estimation backend: job
// submission, status polling, analysis retrieval, report download, and SOR
// knowledge-base updates.
package estimator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client talks to the estimation backend.
type Client interface {
	// Health checks whether the backend is reachable.
	Health(ctx context.Context) error

	// SubmitEstimate uploads a BOQ file (required) and SOR file (optional)
	// and returns the backend task ID.
	SubmitEstimate(ctx context.Context, boqPath, sorPath string) (string, error)

	// TaskStatus polls a task's status.
	TaskStatus(ctx context.Context, taskID string) (*StatusResponse, error)

	// Analysis fetches the completed analysis result.
	Analysis(ctx context.Context, taskID string) (*AnalysisResult, error)

	// Download fetches a report file by basename into destDir and returns
	// the local path.
	Download(ctx context.Context, filename, destDir string) (string, error)

	// UpdateSOR replaces the backend's SOR reference database.
	UpdateSOR(ctx context.Context, path string) error
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for backend calls.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

type client struct {
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	retryAttempts int
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		limiter:       rate.NewLimiter(10, 10),
		retryAttempts: defaultRetryAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Health(ctx context.Context) error {
	resp, err := c.getWithRetry(ctx, "/api/")
	if err != nil {
		return eris.Wrap(err, "estimator: health")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError("health", resp)
	}
	return nil
}

func (c *client) SubmitEstimate(ctx context.Context, boqPath, sorPath string) (string, error) {
	files := map[string]string{"file": boqPath}
	if sorPath != "" {
		files["sor_file"] = sorPath
	}

	resp, err := c.postFiles(ctx, "/api/estimate-cost", files)
	if err != nil {
		return "", eris.Wrap(err, "estimator: submit estimate")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", apiError("submit estimate", resp)
	}

	var out SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", eris.Wrap(err, "estimator: decode submit response")
	}
	if out.TaskID == "" {
		return "", eris.New("estimator: backend returned no task_id")
	}
	return out.TaskID, nil
}

func (c *client) TaskStatus(ctx context.Context, taskID string) (*StatusResponse, error) {
	resp, err := c.getWithRetry(ctx, "/api/result/"+taskID)
	if err != nil {
		return nil, eris.Wrapf(err, "estimator: task status %s", taskID)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("task status", resp)
	}

	var out StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "estimator: decode status response")
	}
	return &out, nil
}

func (c *client) Analysis(ctx context.Context, taskID string) (*AnalysisResult, error) {
	resp, err := c.getWithRetry(ctx, "/api/analysis/"+taskID)
	if err != nil {
		return nil, eris.Wrapf(err, "estimator: analysis %s", taskID)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("analysis", resp)
	}

	var out AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "estimator: decode analysis response")
	}
	return &out, nil
}

func (c *client) Download(ctx context.Context, filename, destDir string) (string, error) {
	// The backend serves reports by basename only; strip any path the
	// caller picked up from output_file_path.
	base := filepath.Base(filepath.FromSlash(filename))

	resp, err := c.getWithRetry(ctx, "/api/download/"+base)
	if err != nil {
		return "", eris.Wrapf(err, "estimator: download %s", base)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError("download", resp)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "estimator: create download dir")
	}
	dest := filepath.Join(destDir, base)
	f, err := os.Create(dest)
	if err != nil {
		return "", eris.Wrap(err, "estimator: create download file")
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", eris.Wrap(err, "estimator: write download file")
	}
	return dest, nil
}

func (c *client) UpdateSOR(ctx context.Context, path string) error {
	resp, err := c.postFiles(ctx, "/api/update-sor", map[string]string{"file": path})
	if err != nil {
		return eris.Wrap(err, "estimator: update sor")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError("update sor", resp)
	}
	return nil
}

func (c *client) get(ctx context.Context, path string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func (c *client) postFiles(ctx context.Context, path string, files map[string]string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, filePath := range files {
		if err := attachFile(w, field, filePath); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, eris.Wrap(err, "close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.httpClient.Do(req)
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return eris.Wrapf(err, "create form file %s", field)
	}
	_, err = io.Copy(part, f)
	return eris.Wrapf(err, "copy %s", path)
}

// apiError surfaces the backend's error detail when the body carries one,
// matching the backend's {"detail": "..."} error shape.
func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return eris.Errorf("estimator: %s: %s", op, detail.Detail)
	}
	return eris.Errorf("estimator: %s: %s", op, fmt.Sprintf("status %d", resp.StatusCode))
}
