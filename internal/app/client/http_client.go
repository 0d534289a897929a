package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"secureprint/internal/app/client/config"
)

// Sentinel errors mirroring the server's response statuses so commands can
// give precise feedback instead of raw HTTP codes.
var (
	ErrCodeNotFound  = errors.New("invalid or expired access code")
	ErrWrongPassword = errors.New("incorrect password")
	ErrAlreadyUsed   = errors.New("code has already been used")
	ErrServerBusy    = errors.New("storage temporarily unavailable")
)

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &httpClient{
		client:    client,
		log:       log,
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "SecurePrint-Client/1.0",
	}
}

// HealthCheck verifies that the server is reachable.
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

type CreateRequest struct {
	Data     string `json:"data"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type,omitempty"`
	TTL      string `json:"ttl,omitempty"`
	Password string `json:"password,omitempty"`
}

type CreateResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *httpClient) CreateTransfer(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/transfers", req)
	if err != nil {
		return nil, err
	}

	var out CreateResponse
	if err := h.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type PeekResponse struct {
	RequiresPassword bool   `json:"requires_password"`
	AlreadyUsed      bool   `json:"already_used"`
	FileName         string `json:"file_name"`
	FileSize         int64  `json:"file_size"`
}

func (h *httpClient) PeekTransfer(ctx context.Context, code string) (*PeekResponse, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/transfers/"+code, nil)
	if err != nil {
		return nil, err
	}

	var out PeekResponse
	if err := h.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type RedeemRequest struct {
	Password string `json:"password,omitempty"`
}

type RedeemResponse struct {
	Data     string `json:"data"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

func (h *httpClient) RedeemTransfer(ctx context.Context, code, password string) (*RedeemResponse, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/transfers/"+code+"/redeem", RedeemRequest{Password: password})
	if err != nil {
		return nil, err
	}

	var out RedeemResponse
	if err := h.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *httpClient) CancelTransfer(ctx context.Context, code string) error {
	resp, err := h.doRequest(ctx, http.MethodDelete, "/api/v1/transfers/"+code, nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		h.log.Debug("request rejected", slog.Int("status", resp.StatusCode))
		return statusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusUnauthorized:
		return ErrWrongPassword
	case http.StatusGone:
		return ErrAlreadyUsed
	case http.StatusServiceUnavailable:
		return ErrServerBusy
	}

	var problem struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil && problem.Detail != "" {
		if resp.StatusCode == http.StatusUnprocessableEntity {
			return fmt.Errorf("%s", problem.Detail)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, problem.Detail)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
