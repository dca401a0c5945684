package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/api/metrics"
	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// AccountHandler handles HTTP requests for account operations.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Register creates a pending account and sends its confirmation token.
//
// @Summary      Register a new account
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      ports.RegisterInput  true  "Account details"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  statusResponse
// @Failure      500   {object}  statusResponse
// @Router       /user/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req ports.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Errors: msgInvalidPayload})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.service.Register(ctx, req); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusOK, statusResponse{Errors: ve.Fields})
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, statusResponse{Status: true})
}

// Confirm activates the account owning the given token.
//
// @Summary      Confirm an account
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      confirmRequest  true  "Email and confirmation token"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  statusResponse
// @Failure      429   {object}  statusResponse
// @Router       /user/register/confirm [post]
func (h *AccountHandler) Confirm(c echo.Context) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Errors: msgInvalidPayload})
	}
	if err := c.Validate(&req); err != nil {
		metrics.ConfirmationsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusOK, statusResponse{Errors: msgMissingArguments})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	err := h.service.Confirm(ctx, req.Email, req.Token)
	switch {
	case err == nil:
		metrics.ConfirmationsTotal.WithLabelValues("ok").Inc()
		return c.JSON(http.StatusOK, statusResponse{Status: true})
	case domain.IsConfirmError(err):
		metrics.ConfirmationsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusOK, statusResponse{Errors: msgInvalidConfirm})
	case errors.Is(err, domain.ErrTooManyAttempts):
		metrics.ConfirmationsTotal.WithLabelValues("throttled").Inc()
		return err
	default:
		metrics.ConfirmationsTotal.WithLabelValues("error").Inc()
		return err
	}
}

// Resend issues a fresh confirmation token for a pending account. The answer
// is the same whether or not the email is registered.
//
// @Summary      Resend the confirmation token
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      resendRequest  true  "Account email"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  statusResponse
// @Router       /user/register/resend [post]
func (h *AccountHandler) Resend(c echo.Context) error {
	var req resendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Errors: msgInvalidPayload})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailure(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.service.ResendConfirmation(ctx, req.Email); err != nil {
		return validationFailure(c, err)
	}
	return c.JSON(http.StatusOK, statusResponse{Status: true})
}

// Login exchanges credentials of an active account for an access token.
//
// @Summary      Login
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  statusResponse
// @Failure      429   {object}  statusResponse
// @Router       /user/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Errors: msgInvalidPayload})
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusOK, statusResponse{Errors: msgUnauthenticated})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	token, _, err := h.service.Authenticate(ctx, req.Email, req.Password)
	switch {
	case err == nil:
		metrics.LoginsTotal.WithLabelValues("ok").Inc()
		return c.JSON(http.StatusOK, loginResponse{Status: true, Token: token})
	case errors.Is(err, domain.ErrInvalidCredentials):
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusOK, statusResponse{Errors: msgUnauthenticated})
	case errors.Is(err, domain.ErrTooManyAttempts):
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		return err
	default:
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}
}

// GetDetails returns the profile of the authenticated account.
//
// @Summary      Get account details
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  detailsResponse
// @Failure      404  {object}  statusResponse
// @Router       /user/details [get]
func (h *AccountHandler) GetDetails(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := h.service.GetProfile(ctx, principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detailsResponse{Status: true, Profile: profile})
}

// UpdateDetails changes the profile fields present in the body.
//
// @Summary      Update account details
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateDetailsRequest  true  "Fields to change"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  statusResponse
// @Failure      404   {object}  statusResponse
// @Router       /user/details [post]
func (h *AccountHandler) UpdateDetails(c echo.Context) error {
	var req updateDetailsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Errors: msgInvalidPayload})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailure(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	_, err := h.service.UpdateProfile(ctx, principal(c), ports.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Position:  req.Position,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: true})
}

// validationFailure renders a *domain.ValidationError as an expected failure
// and hands anything else to the error handler.
func validationFailure(c echo.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusOK, statusResponse{Errors: ve.Fields})
	}
	return err
}
