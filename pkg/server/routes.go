package server

import (
	"fmt"
	"net/http"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/riandyrn/otelchi"

	"github.com/upliftai/uplift/pkg/auth"
	"github.com/upliftai/uplift/pkg/models"
)

const (
	RouterName        = "uplift"
	ReadHeaderTimeout = 5 * time.Second
)

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) *http.Server {
	cfg := appState.Config.Server

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           setupRouter(appState),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

func setupRouter(appState *models.AppState) *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))
	if appState.Config.OpenTelemetry.Enabled {
		router.Use(otelchi.Middleware(
			RouterName,
			otelchi.WithChiRoutes(router),
			otelchi.WithRequestMethodInSpanName(true),
		))
	}

	// The verifier parses a token when one is present; enforcement happens
	// per route group. Public routes still see the identity of logged-in
	// callers (guest vs. attributed donations).
	router.Use(auth.JWTVerifier(appState.Config))

	router.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", RegisterHandler(appState))
			r.Post("/login", LoginHandler(appState))
			r.Post("/verify/request", RequestOTPHandler(appState, models.OTPPurposeVerify))
			r.Post("/verify", VerifyAccountHandler(appState))
			r.Post("/reset/request", RequestOTPHandler(appState, models.OTPPurposeReset))
			r.Post("/reset", ResetPasswordHandler(appState))
		})

		r.Get("/plans", ListPlansHandler(appState))

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", ListCampaignsHandler(appState))
			r.Get("/{campaignUUID}", GetCampaignHandler(appState))
		})
		r.Post("/donations", CreateDonationHandler(appState))
		r.Get("/donations/totals", DonationTotalsHandler(appState))

		r.Post("/webhooks/stripe", StripeWebhookHandler(appState))
		r.Post("/metrics/visit", RecordVisitHandler(appState))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			if appState.Config.Auth.Required {
				r.Use(jwtauth.Authenticator)
			}

			r.Route("/user", func(r chi.Router) {
				r.Get("/", GetProfileHandler(appState))
				r.Patch("/", UpdateProfileHandler(appState))
				r.Post("/password", ChangePasswordHandler(appState))
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", CreateConversationHandler(appState))
				r.Get("/", ListConversationsHandler(appState))
				r.Post("/search", SearchMessagesHandler(appState, false))
				r.Route("/{conversationUUID}", func(r chi.Router) {
					r.Get("/", GetConversationHandler(appState))
					r.Delete("/", DeleteConversationHandler(appState))
					r.Post("/mode", SetModeHandler(appState))
					r.Get("/messages", GetMessagesHandler(appState))
					r.Post("/messages", SendMessageHandler(appState))
					r.Post("/dailytask", DailyTaskHandler(appState))
					r.Post("/search", SearchMessagesHandler(appState, true))
				})
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", ListMySubscriptionsHandler(appState))
				r.Post("/checkout/{planUUID}", CreateCheckoutHandler(appState))
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin(appState.Config))

				r.Get("/dashboard/stats", DashboardStatsHandler(appState))
				r.Get("/dashboard/trend", UserTrendHandler(appState))
				r.Get("/users", ListUsersHandler(appState))
				r.Get("/users/new", ListNewUsersHandler(appState))
				r.Get("/users/active", ListActiveUsersHandler(appState))
				r.Get("/subscribers", ListSubscribersHandler(appState))
				r.Post("/plans", CreatePlanHandler(appState))
				r.Post("/campaigns", CreateCampaignHandler(appState))
				r.Get("/donations", ListDonationsHandler(appState))
			})
		})
	})

	return router
}
