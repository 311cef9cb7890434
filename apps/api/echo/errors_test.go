package echoapi

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	logsvc "github.com/trezcool/darasa/services/logger"
)

func Test_appHTTPErrorHandler(t *testing.T) {
	_, translator := core.NewValidator()
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))

	e := echo.New()
	var shutdownCalled bool
	handler := newAppHTTPErrorHandler(logger, translator, func() { shutdownCalled = true })

	newCtx := func() (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		return e.NewContext(req, rec), rec
	}

	t.Run("http errors pass through", func(t *testing.T) {
		ctx, rec := newCtx()
		handler(errHttpForbidden, ctx)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error": "permission denied"}`, rec.Body.String())
	})

	t.Run("field errors map to 400", func(t *testing.T) {
		ctx, rec := newCtx()
		err := core.NewValidationError(nil, core.FieldError{Field: "code", Error: "nope"})
		handler(errors.Wrap(err, "validating course"), ctx)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"code": "nope"}`, rec.Body.String())
	})

	t.Run("unexpected errors are opaque 500s", func(t *testing.T) {
		ctx, rec := newCtx()
		handler(errors.New("kaboom"), ctx)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error": "Internal Server Error"}`, rec.Body.String())
		assert.False(t, shutdownCalled)
	})

	t.Run("integrity errors signal a graceful shutdown", func(t *testing.T) {
		ctx, rec := newCtx()
		handler(errors.Wrap(core.NewShutdownError("session store compromised"), "loading session"), ctx)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.True(t, shutdownCalled)
	})
}
