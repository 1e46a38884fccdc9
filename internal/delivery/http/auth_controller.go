package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"evecorpbot/internal/domain"
)

// LoginQuery is the query of GET /login.
type LoginQuery struct {
	DiscordID string
}

// Validate implements Validator.
func (q LoginQuery) Validate() []string {
	if strings.TrimSpace(q.DiscordID) == "" {
		return []string{"discord_id is required"}
	}
	return nil
}

// CallbackQuery is the query the SSO server redirects back with.
type CallbackQuery struct {
	Code  string
	State string
}

// Validate implements Validator.
func (q CallbackQuery) Validate() []string {
	var errs []string
	if q.Code == "" {
		errs = append(errs, "code is required")
	}
	if q.State == "" {
		errs = append(errs, "state is required")
	}
	return errs
}

// LinkResponse is the response body of a completed login.
type LinkResponse struct {
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
	Message       string `json:"message"`
}

type AuthController struct {
	Links  domain.AccountLinkService
	Logger *slog.Logger
}

func NewAuthController(links domain.AccountLinkService, logger *slog.Logger) *AuthController {
	return &AuthController{Links: links, Logger: logger}
}

// Login godoc
// @Summary Start EVE SSO login
// @Description Redirects to the EVE Online login page. The signed state carries the Discord user ID through the round trip.
// @Tags auth
// @Produce json
// @Param discord_id query string true "Discord user ID to link"
// @Success 302 "redirect to EVE SSO"
// @Failure 400 {object} APIResponse "error.code: bad_request"
// @Failure 500 {object} APIResponse "error.code: internal_error"
// @Router /login [get]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	q := LoginQuery{DiscordID: r.URL.Query().Get("discord_id")}
	if !Valid(w, q) {
		return
	}
	target, err := c.Links.AuthorizeURL(strings.TrimSpace(q.DiscordID))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.Error("could not build sso redirect", "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "could not start login")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback godoc
// @Summary Complete EVE SSO login
// @Description Exchanges the authorization code, stores the tokens under the Discord user named by state and refreshes the station snapshot.
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "Signed login state"
// @Success 200 {object} APIResponse "data contains the linked character"
// @Failure 400 {object} APIResponse "error.code: bad_request"
// @Failure 502 {object} APIResponse "error.code: bad_gateway"
// @Failure 500 {object} APIResponse "error.code: internal_error"
// @Router /callback [get]
func (c *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if ssoErr := query.Get("error"); ssoErr != "" {
		msg := ssoErr
		if desc := query.Get("error_description"); desc != "" {
			msg += ": " + desc
		}
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, msg)
		return
	}
	q := CallbackQuery{Code: query.Get("code"), State: query.Get("state")}
	if !Valid(w, q) {
		return
	}

	pair, err := c.Links.CompleteLogin(r.Context(), q.Code, q.State)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "login link is invalid or expired, run /login again")
		return
	case errors.Is(err, domain.ErrRemoteFetchFailed):
		c.Logger.Warn("sso code exchange failed", "err", err)
		WriteJSONError(w, http.StatusBadGateway, ErrCodeBadGateway, "EVE SSO did not accept the login")
		return
	case err != nil:
		c.Logger.Error("could not complete login", "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "could not complete login")
		return
	}

	WriteJSONSuccess(w, http.StatusOK, LinkResponse{
		CharacterID:   pair.CharacterID,
		CharacterName: pair.CharacterName,
		Message:       "Login successful! You can close this window.",
	})
}

// Health godoc
// @Summary Liveness probe
// @Tags ops
// @Produce json
// @Success 200 {object} APIResponse
// @Router /healthz [get]
func Health(w http.ResponseWriter, _ *http.Request) {
	WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
