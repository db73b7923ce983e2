package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Machine-readable error categories returned alongside the message.
const (
	CodeUnauthenticated   = "unauthenticated"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeInvalidRequest    = "invalid_request"
	CodeConflict          = "conflict"
	CodeInvalidTransition = "invalid_transition"
	CodeInternal          = "internal"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

var devMode bool

// SetDevMode controls whether BindingError echoes the underlying binding
// failure back to the client. Call once at startup.
func SetDevMode(on bool) { devMode = on }

// BadRequest sends 400 with the invalid_request category.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Code: CodeInvalidRequest, Error: err})
}

// BindingError sends 400 for a request-binding failure. Production clients
// get msg only; in dev mode the binding error text is appended.
func BindingError(c *gin.Context, err error, msg string) {
	if devMode && err != nil {
		msg = msg + ": " + err.Error()
	}
	BadRequest(c, msg)
}

// InvalidTransition sends 400 with the invalid_transition category.
func InvalidTransition(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Code: CodeInvalidTransition, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Code: CodeUnauthenticated, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Code: CodeForbidden, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Code: CodeNotFound, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Code: CodeConflict, Error: err})
}

// Internal sends 500. The message should stay generic; details belong in logs.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Code: CodeInternal, Error: err})
}
