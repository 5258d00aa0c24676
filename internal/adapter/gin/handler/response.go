package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "user-crud-service/pkg/errors"
)

// Envelope is the JSON body of every API response.
type Envelope struct {
	Success bool                   `json:"success"`
	Data    any                    `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
	Errors  []pkgerrors.FieldError `json:"errors,omitempty"`
	Count   *int                   `json:"count,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Response messages shared by the handlers and middleware.
const (
	MsgUserCreated     = "User created successfully"
	MsgUserUpdated     = "User updated successfully"
	MsgUserDeleted     = "User deleted successfully"
	MsgInvalidData     = "Invalid data"
	MsgInvalidID       = "Invalid ID"
	MsgEmailInUse      = "Email already in use"
	MsgUserNotFound    = "User not found"
	MsgRouteNotFound   = "Route not found"
	MsgInternalError   = "Internal server error"
	MsgTooManyRequests = "Too many requests"
)

// OK writes a successful envelope.
func OK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// List writes a successful envelope carrying a collection and its size.
func List(c *gin.Context, status int, data any, count int) {
	c.JSON(status, Envelope{Success: true, Data: data, Count: &count})
}

// Fail writes a failed envelope.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Message: message})
}

// FailFields writes a failed envelope listing the offending fields.
func FailFields(c *gin.Context, status int, message string, fields []pkgerrors.FieldError) {
	c.JSON(status, Envelope{Success: false, Message: message, Errors: fields})
}

// AbortInternal aborts with a 500 envelope. detail is only included when
// expose is set, which is never the case in production.
func AbortInternal(c *gin.Context, detail string, expose bool) {
	body := Envelope{Success: false, Message: MsgInternalError}
	if expose {
		body.Error = detail
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}
