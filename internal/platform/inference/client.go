// Package inference is the HTTP client for the vision model server that
// hosts the disease classifier and the fetal ultrasound detector.
package inference

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
	"time"
)

const DefaultDetectConfidence = 0.25

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client posts raw image bytes to one model endpoint.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("inference: baseURL required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("inference: parse baseURL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{baseURL: baseURL, timeout: timeout, httpClient: hc}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Classify runs the classifier on one image.
func (c *Client) Classify(ctx context.Context, image []byte, contentType string) (*Classification, error) {
	var out Classification
	if err := c.post(ctx, "/classify", image, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Detect runs the detector on one image, keeping boxes with confidence of at
// least conf.
func (c *Client) Detect(ctx context.Context, image []byte, contentType string, conf float64) (*Detection, error) {
	if conf <= 0 {
		conf = DefaultDetectConfidence
	}
	path := "/detect?conf=" + strconv.FormatFloat(conf, 'f', -1, 64)

	var out Detection
	if err := c.post(ctx, path, image, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping checks the server's /healthz endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode/100 != 2 {
		return &HTTPError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, contentType string, out any) error {
	if len(body) == 0 {
		return errors.New("inference: empty image")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode/100 != 2 {
		return parseHTTPError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
