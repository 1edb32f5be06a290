package dto

import (
	apierrors "github.com/zlytics/wallet-insights/internal/api/shared/errors"
)

// Response is the envelope every endpoint returns
type Response struct {
	Success bool                `json:"success"`
	Data    interface{}         `json:"data,omitempty"`
	Error   *apierrors.APIError `json:"error,omitempty"`
	Message string              `json:"message,omitempty"`
}

// OK wraps a successful payload
func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// OKMessage wraps a successful payload with a human-readable message
func OKMessage(data interface{}, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

// Fail wraps an error
func Fail(err *apierrors.APIError) Response {
	return Response{Success: false, Error: err, Message: err.Message}
}

// PrivacyModeResponse represents a wallet's privacy mode
type PrivacyModeResponse struct {
	WalletID string `json:"wallet_id"`
	Mode     string `json:"mode"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
