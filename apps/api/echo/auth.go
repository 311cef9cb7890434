package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type authApi struct {
	svc      user.ServiceInterface
	sess     *sessionManager
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, sess *sessionManager, svc user.ServiceInterface, validate *validator.Validate) {
	api := authApi{
		svc:      svc,
		sess:     sess,
		validate: validate,
	}

	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
	ag.GET("/me", api.me, authRequiredMiddleware)
}

// LoginRequest is a user's login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

// Handlers

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	if err = api.sess.establish(ctx, SessionData{UserID: usr.ID, Email: usr.Email, Role: usr.Role}); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"user": usr})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.GetByEmail(ctx.Request().Context(), data.Email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errInvalidCredentials
		}
		return errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(data.Password); err != nil {
		return errInvalidCredentials
	}

	if err = api.sess.establish(ctx, SessionData{UserID: usr.ID, Email: usr.Email, Role: usr.Role}); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": usr})
}

func (api *authApi) logout(ctx echo.Context) error {
	api.sess.destroy(ctx)
	return ctx.JSON(http.StatusOK, echo.Map{"success": "logged out"})
}

func (api *authApi) me(ctx echo.Context) error {
	sess := getContextSession(ctx)
	usr, err := api.svc.GetByID(ctx.Request().Context(), sess.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": usr})
}
