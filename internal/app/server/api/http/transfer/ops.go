package transfer

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID: "transfers-create",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers",
		Summary:     "Upload a file for one-time transfer",
		Description: "Encrypts the file, stores it and returns a short access code. The code grants exactly one download.",
		Tags:        []string{"transfers"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) peekOp() huma.Operation {
	return huma.Operation{
		OperationID: "transfers-peek",
		Method:      http.MethodGet,
		Path:        "/api/v1/transfers/{code}",
		Summary:     "Inspect a transfer without consuming it",
		Description: "Returns whether the code is valid and whether a password is required. Does not spend the one-time access.",
		Tags:        []string{"transfers"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) redeemOp() huma.Operation {
	return huma.Operation{
		OperationID: "transfers-redeem",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers/{code}/redeem",
		Summary:     "Redeem a transfer",
		Description: "Decrypts and returns the file exactly once. The transfer is destroyed whether decryption succeeds or fails.",
		Tags:        []string{"transfers"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) cancelOp() huma.Operation {
	return huma.Operation{
		OperationID: "transfers-cancel",
		Method:      http.MethodDelete,
		Path:        "/api/v1/transfers/{code}",
		Summary:     "Cancel a transfer",
		Description: "Destroys a pending transfer before it is redeemed. Cancelling an unknown code is not an error.",
		Tags:        []string{"transfers"},
		Middlewares: h.middleware,
	}
}
