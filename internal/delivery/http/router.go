package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "evecorpbot/internal/delivery/http/docs"
)

// NewRouter initializes the auth server routes.
func NewRouter(authController *AuthController) *http.ServeMux {
	mux := http.NewServeMux()

	// SSO
	mux.HandleFunc("GET /login", authController.Login)
	mux.HandleFunc("GET /callback", authController.Callback)

	mux.HandleFunc("GET /healthz", Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
