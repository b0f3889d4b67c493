package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/middleware"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps the error taxonomy onto HTTP; anything untyped is
// a 500 with the message suppressed.
func RespondServiceError(c *gin.Context, err error) {
	if apiErr := apierr.From(err); apiErr != nil {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal", errInternal)
}

var (
	errInternal        = errors.New("internal server error")
	errMissingIdentity = errors.New("missing identity")
	errFileTooLarge    = errors.New("file exceeds upload limit")
)

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// requireUser reads the authenticated user id; the identity middleware has
// already rejected anonymous requests, so a miss is a programming error.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingIdentity)
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a :param path segment as a UUID.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return uuid.Nil, false
	}
	return id, true
}
