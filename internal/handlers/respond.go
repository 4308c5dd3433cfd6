package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/repositories"
)

// abortWithError maps the error taxonomy onto HTTP statuses. Version
// conflicts only surface here after the service layer has exhausted its
// retries, so they read as transient overload, not client error.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chaterr.ErrVersionConflict):
		status = http.StatusServiceUnavailable
	case errors.Is(err, chaterr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chaterr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, chaterr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, chaterr.ErrValidation):
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func abortBadRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
}

func pageFrom(c *gin.Context) repositories.Page {
	number, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	return repositories.Page{Number: number, Size: size}
}

// sinceFrom reads the optional RFC 3339 `since` filter. Absent means the
// zero time, i.e. no filter.
func sinceFrom(c *gin.Context) (time.Time, error) {
	raw := c.Query("since")
	if raw == "" {
		return time.Time{}, nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, chaterr.Validationf("since must be RFC 3339")
	}
	return since, nil
}

func listResponse[T any](c *gin.Context, slice repositories.Slice[T]) {
	c.JSON(http.StatusOK, gin.H{
		"items":    slice.Items,
		"has_next": slice.HasNext,
	})
}
