package transfer

import (
	"context"
	"encoding/base64"
	"errors"

	"secureprint/internal/domain/vault"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Handler struct {
	service    vault.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service vault.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.peekOp(), h.peek)
	huma.Register(api, h.redeemOp(), h.redeem)
	huma.Register(api, h.cancelOp(), h.cancel)
}

func (h *Handler) create(ctx context.Context, input *createInput) (*createOutput, error) {
	data, err := base64.StdEncoding.DecodeString(input.Body.Data)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("Invalid base64 data: " + err.Error())
	}

	ttl, err := vault.ParseTTL(input.Body.TTL)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("Invalid TTL, must be one of 1h, 24h, 7d")
	}

	result, err := h.service.Create(ctx, vault.CreateInput{
		Data:         data,
		OriginalName: input.Body.FileName,
		MimeType:     input.Body.MimeType,
		TTL:          ttl,
		Password:     input.Body.Password,
	})
	if err != nil {
		return nil, h.mapError(err)
	}

	return &createOutput{
		Body: createResponse{
			Code:      result.Code,
			ExpiresAt: result.ExpiresAt,
		},
	}, nil
}

func (h *Handler) peek(ctx context.Context, input *peekInput) (*peekOutput, error) {
	result, err := h.service.Peek(ctx, input.Code)
	if err != nil {
		return nil, h.mapError(err)
	}

	return &peekOutput{
		Body: peekResponse{
			RequiresPassword: result.RequiresPassword,
			AlreadyUsed:      result.AlreadyUsed,
			FileName:         result.FileName,
			FileSize:         result.FileSize,
		},
	}, nil
}

func (h *Handler) redeem(ctx context.Context, input *redeemInput) (*redeemOutput, error) {
	result, err := h.service.Redeem(ctx, input.Code, input.Body.Password)
	if err != nil {
		return nil, h.mapError(err)
	}

	return &redeemOutput{
		Body: redeemResponse{
			Data:     base64.StdEncoding.EncodeToString(result.Data),
			FileName: result.FileName,
			MimeType: result.MimeType,
			Size:     result.Size,
		},
	}, nil
}

func (h *Handler) cancel(ctx context.Context, input *cancelInput) (*cancelOutput, error) {
	if err := h.service.Cancel(ctx, input.Code); err != nil {
		return nil, h.mapError(err)
	}

	return &cancelOutput{
		Body: cancelResponse{Status: "Ok"},
	}, nil
}

// mapError translates the vault error taxonomy into HTTP status errors.
// Invalid and expired codes are indistinguishable to the caller.
func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, vault.ErrInvalidCode), errors.Is(err, vault.ErrExpiredCode):
		return huma.Error404NotFound("Invalid or expired access code")
	case errors.Is(err, vault.ErrUnauthorized):
		return huma.Error401Unauthorized("Incorrect password")
	case errors.Is(err, vault.ErrAlreadyUsed):
		return huma.Error410Gone("This code has already been used")
	case errors.Is(err, vault.ErrCorruptedFile):
		return huma.Error422UnprocessableEntity("Stored file failed integrity verification and has been destroyed")
	case errors.Is(err, vault.ErrEmptyPayload):
		return huma.Error422UnprocessableEntity("File data must not be empty")
	case errors.Is(err, vault.ErrInvalidTTL):
		return huma.Error422UnprocessableEntity("Invalid TTL, must be one of 1h, 24h, 7d")
	case errors.Is(err, vault.ErrStorageUnavailable):
		return huma.Error503ServiceUnavailable("Storage temporarily unavailable, try again")
	default:
		h.log.Error("unexpected service error", slog.String("error", err.Error()))
		return huma.Error500InternalServerError("Internal server error")
	}
}
