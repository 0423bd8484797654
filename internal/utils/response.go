package utils

import "time"

// APIResponse is the envelope every handler writes. Rejected booking requests
// carry their machine-readable reason code in Error so clients can branch on
// it without parsing Message.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

// RejectionResponse reports a refused booking request: reason is the stable
// code (SESSION_FULL, ALREADY_BOOKED, ...), message the human-readable text.
func RejectionResponse(reason, message string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     reason,
		Timestamp: time.Now(),
	}
}
