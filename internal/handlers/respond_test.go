package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAbortWithErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", chaterr.ErrNotFound, http.StatusNotFound},
		{"conflict", chaterr.ErrConflict, http.StatusConflict},
		{"forbidden", chaterr.ErrForbidden, http.StatusForbidden},
		{"validation", chaterr.ErrValidation, http.StatusBadRequest},
		{"version conflict after retries", chaterr.ErrVersionConflict, http.StatusServiceUnavailable},
		{"wrapped domain error", chaterr.ErrNotMember, http.StatusForbidden},
		{"wrapped with detail", chaterr.NotFoundf("channel %s", "c-1"), http.StatusNotFound},
		{"invitation pending is a conflict", chaterr.ErrAlreadyInvited, http.StatusConflict},
		{"unknown error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			abortWithError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestPageFrom(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&size=10", nil)

	page := pageFrom(c)
	assert.Equal(t, 3, page.Number)
	assert.Equal(t, 10, page.Size)
}

func TestPageFromDefaults(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=junk", nil)

	page := pageFrom(c)
	assert.Equal(t, 0, page.Number)
	assert.Equal(t, 0, page.Size)
}

func TestSinceFrom(t *testing.T) {
	t.Run("absent means zero", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		since, err := sinceFrom(c)
		require.NoError(t, err)
		assert.True(t, since.IsZero())
	})

	t.Run("parses RFC 3339", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?since=2026-01-02T15:04:05Z", nil)

		since, err := sinceFrom(c)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), since)
	})

	t.Run("rejects other formats", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?since=1735830245", nil)

		_, err := sinceFrom(c)
		assert.ErrorIs(t, err, chaterr.ErrValidation)
	})
}
