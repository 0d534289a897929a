package transfer

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"secureprint/internal/domain/envelope"
	"secureprint/internal/domain/vault"
	"secureprint/internal/infrastructure/blob"
	"secureprint/internal/infrastructure/storage/memory"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()

	keyring, err := envelope.NewStaticKeyring(make([]byte, envelope.KeySize))
	require.NoError(t, err)

	service := vault.NewService(
		memory.NewRepository(),
		blob.NewMemoryStore(),
		envelope.NewCodec(keyring),
		slog.Default(),
	)

	return NewHandler(service, slog.Default(), huma.Middlewares{})
}

func TestHandler_createAndRedeem(t *testing.T) {
	// Arrange
	h := testHandler(t)
	ctx := context.Background()
	payload := []byte("quarterly report contents")

	// Act
	created, err := h.create(ctx, &createInput{Body: createRequest{
		Data:     base64.StdEncoding.EncodeToString(payload),
		FileName: "report.pdf",
		MimeType: "application/pdf",
	}})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Len(t, created.Body.Code, vault.CodeLength)
	assert.False(t, created.Body.ExpiresAt.IsZero())

	// Act
	redeemed, err := h.redeem(ctx, &redeemInput{Code: created.Body.Code})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), redeemed.Body.Data)
	assert.Equal(t, "report.pdf", redeemed.Body.FileName)
	assert.Equal(t, "application/pdf", redeemed.Body.MimeType)
	assert.Equal(t, int64(len(payload)), redeemed.Body.Size)
}

func TestHandler_create_invalidInput(t *testing.T) {
	tests := []struct {
		name           string
		body           createRequest
		expectedStatus int
	}{
		{
			name: "malformed base64",
			body: createRequest{
				Data:     "not-valid-base64!!!",
				FileName: "report.pdf",
			},
			expectedStatus: 422,
		},
		{
			name: "empty payload",
			body: createRequest{
				Data:     "",
				FileName: "report.pdf",
			},
			expectedStatus: 422,
		},
		{
			name: "unknown ttl",
			body: createRequest{
				Data:     base64.StdEncoding.EncodeToString([]byte("data")),
				FileName: "report.pdf",
				TTL:      "30m",
			},
			expectedStatus: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h := testHandler(t)

			// Act
			output, err := h.create(context.Background(), &createInput{Body: tt.body})

			// Assert
			require.Error(t, err)
			assert.Nil(t, output)
			var statusErr huma.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.expectedStatus, statusErr.GetStatus())
		})
	}
}

func TestHandler_peek(t *testing.T) {
	// Arrange
	h := testHandler(t)
	ctx := context.Background()

	created, err := h.create(ctx, &createInput{Body: createRequest{
		Data:     base64.StdEncoding.EncodeToString([]byte("payload")),
		FileName: "notes.txt",
	}})
	require.NoError(t, err)

	// Act
	output, err := h.peek(ctx, &peekInput{Code: created.Body.Code})

	// Assert
	require.NoError(t, err)
	assert.False(t, output.Body.RequiresPassword)
	assert.Equal(t, "notes.txt", output.Body.FileName)
	assert.Equal(t, int64(len("payload")), output.Body.FileSize)
}

func TestHandler_peek_passwordProtectedHidesMetadata(t *testing.T) {
	// Arrange
	h := testHandler(t)
	ctx := context.Background()

	created, err := h.create(ctx, &createInput{Body: createRequest{
		Data:     base64.StdEncoding.EncodeToString([]byte("payload")),
		FileName: "notes.txt",
		Password: "hunter2",
	}})
	require.NoError(t, err)

	// Act
	output, err := h.peek(ctx, &peekInput{Code: created.Body.Code})

	// Assert
	require.NoError(t, err)
	assert.True(t, output.Body.RequiresPassword)
	assert.Empty(t, output.Body.FileName)
	assert.Zero(t, output.Body.FileSize)
}

func TestHandler_redeem_errorStatuses(t *testing.T) {
	// Arrange
	h := testHandler(t)
	ctx := context.Background()

	created, err := h.create(ctx, &createInput{Body: createRequest{
		Data:     base64.StdEncoding.EncodeToString([]byte("payload")),
		FileName: "notes.txt",
		Password: "hunter2",
	}})
	require.NoError(t, err)

	// Act: wrong password
	_, err = h.redeem(ctx, &redeemInput{
		Code: created.Body.Code,
		Body: redeemRequest{Password: "wrong"},
	})

	// Assert
	var statusErr huma.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 401, statusErr.GetStatus())

	// Act: correct password consumes the code
	_, err = h.redeem(ctx, &redeemInput{
		Code: created.Body.Code,
		Body: redeemRequest{Password: "hunter2"},
	})
	require.NoError(t, err)

	// Act: spent code now reads as unknown
	_, err = h.redeem(ctx, &redeemInput{Code: created.Body.Code})

	// Assert
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.GetStatus())
}

func TestHandler_redeem_unknownCode(t *testing.T) {
	// Arrange
	h := testHandler(t)

	// Act
	_, err := h.redeem(context.Background(), &redeemInput{Code: "ZZZZZZ"})

	// Assert
	var statusErr huma.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.GetStatus())
}

func TestHandler_cancel_isIdempotent(t *testing.T) {
	// Arrange
	h := testHandler(t)
	ctx := context.Background()

	created, err := h.create(ctx, &createInput{Body: createRequest{
		Data:     base64.StdEncoding.EncodeToString([]byte("payload")),
		FileName: "notes.txt",
	}})
	require.NoError(t, err)

	// Act
	first, err1 := h.cancel(ctx, &cancelInput{Code: created.Body.Code})
	second, err2 := h.cancel(ctx, &cancelInput{Code: created.Body.Code})

	// Assert
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, "Ok", first.Body.Status)
	assert.Equal(t, "Ok", second.Body.Status)

	_, err = h.peek(ctx, &peekInput{Code: created.Body.Code})
	var statusErr huma.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.GetStatus())
}
