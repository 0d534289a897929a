package transfer

import "time"

type createInput struct {
	Body createRequest
}

type createRequest struct {
	Data     string `json:"data" doc:"Base64-encoded file contents" minLength:"1"`
	FileName string `json:"file_name" doc:"Original file name" minLength:"1"`
	MimeType string `json:"mime_type,omitempty" doc:"MIME type of the file"`
	TTL      string `json:"ttl,omitempty" doc:"Retention period, one of 1h, 24h, 7d" enum:"1h,24h,7d"`
	Password string `json:"password,omitempty" doc:"Optional password protecting the transfer"`
}

type createOutput struct {
	Body createResponse
}

type createResponse struct {
	Code      string    `json:"code" example:"K7X2M9" doc:"Access code for the recipient"`
	ExpiresAt time.Time `json:"expires_at" doc:"When the transfer expires"`
}

type peekInput struct {
	Code string `path:"code" example:"K7X2M9" doc:"Access code"`
}

type peekOutput struct {
	Body peekResponse
}

type peekResponse struct {
	RequiresPassword bool   `json:"requires_password" doc:"Whether a password is needed to redeem"`
	AlreadyUsed      bool   `json:"already_used,omitempty" doc:"Whether the one-time access was already consumed"`
	FileName         string `json:"file_name,omitempty" doc:"Original file name, hidden for protected transfers"`
	FileSize         int64  `json:"file_size,omitempty" doc:"File size in bytes, hidden for protected transfers"`
}

type redeemInput struct {
	Code string `path:"code" example:"K7X2M9" doc:"Access code"`
	Body redeemRequest
}

type redeemRequest struct {
	Password string `json:"password,omitempty" doc:"Password for protected transfers"`
}

type redeemOutput struct {
	Body redeemResponse
}

type redeemResponse struct {
	Data     string `json:"data" doc:"Base64-encoded file contents"`
	FileName string `json:"file_name" doc:"Original file name"`
	MimeType string `json:"mime_type,omitempty" doc:"MIME type of the file"`
	Size     int64  `json:"size" doc:"File size in bytes"`
}

type cancelInput struct {
	Code string `path:"code" example:"K7X2M9" doc:"Access code"`
}

type cancelOutput struct {
	Body cancelResponse
}

type cancelResponse struct {
	Status string `json:"status" example:"Ok"`
}
