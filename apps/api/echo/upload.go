package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/storage/files"
)

var errUnknownUploadType = "must be one of: assignment, submission"

// uploadKinds maps the request's upload type to its storage kind.
var uploadKinds = map[string]string{
	"assignment": files.KindAssignments,
	"submission": files.KindSubmissions,
}

type uploadApi struct {
	storage files.Storage
}

func registerUploadAPI(g *echo.Group, storage files.Storage) {
	api := uploadApi{storage: storage}
	g.POST("/uploads", api.create, authRequiredMiddleware)
}

// Handlers

func (api *uploadApi) create(ctx echo.Context) error {
	kind, ok := uploadKinds[core.CleanString(ctx.FormValue("type"), true /* lower */)]
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "type", Error: errUnknownUploadType})
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(files.ErrNoFileSubmitted)
	}

	saved, err := api.storage.Save(kind, fh)
	if err != nil {
		return errors.Wrap(err, "saving uploaded file")
	}
	return ctx.JSON(http.StatusCreated, saved)
}
