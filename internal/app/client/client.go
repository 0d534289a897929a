// Package client implements the command-line client for the one-time file
// transfer service: sending files, peeking at codes, receiving exactly once
// and cancelling pending uploads.
package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"golang.org/x/exp/slog"

	"secureprint/internal/app/client/config"
)

type App struct {
	cfg  *config.Config
	log  *slog.Logger
	http *httpClient
}

func New(cfg *config.Config, log *slog.Logger) *App {
	return &App{
		cfg:  cfg,
		log:  log.With(slog.String("component", "client")),
		http: NewHTTPClient(cfg, log),
	}
}

// CheckConnection verifies the server is reachable.
func (a *App) CheckConnection(ctx context.Context) error {
	return a.http.HealthCheck(ctx)
}

// SendResult describes a successfully uploaded transfer.
type SendResult struct {
	Code      string
	FileName  string
	Size      int64
	ExpiresAt string
}

// Send uploads a local file and returns the access code to hand to the
// recipient.
func (a *App) Send(ctx context.Context, path, ttl, password string) (*SendResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file %s is empty", path)
	}

	name := filepath.Base(path)
	resp, err := a.http.CreateTransfer(ctx, CreateRequest{
		Data:     base64.StdEncoding.EncodeToString(data),
		FileName: name,
		MimeType: mime.TypeByExtension(filepath.Ext(name)),
		TTL:      ttl,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	return &SendResult{
		Code:      resp.Code,
		FileName:  name,
		Size:      int64(len(data)),
		ExpiresAt: resp.ExpiresAt.Local().Format("2006-01-02 15:04:05"),
	}, nil
}

// Peek checks a code without consuming the one-time access.
func (a *App) Peek(ctx context.Context, code string) (*PeekResponse, error) {
	return a.http.PeekTransfer(ctx, code)
}

// Receive redeems a code and writes the file to outDir. The server destroys
// the transfer as part of this call, so it can succeed at most once.
func (a *App) Receive(ctx context.Context, code, password, outDir string) (string, error) {
	resp, err := a.http.RedeemTransfer(ctx, code, password)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}

	name := resp.FileName
	if name == "" {
		name = code + ".bin"
	}
	target := filepath.Join(outDir, filepath.Base(name))

	if err := os.WriteFile(target, data, 0o600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	a.log.Debug("file received", slog.String("code", code), slog.String("path", target))
	return target, nil
}

// Cancel destroys a pending transfer before it is redeemed.
func (a *App) Cancel(ctx context.Context, code string) error {
	return a.http.CancelTransfer(ctx, code)
}
