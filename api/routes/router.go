package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arlomercer/beatvault-backend/api/controllers"
	webhookcontrollers "github.com/arlomercer/beatvault-backend/api/controllers/webhooks"
	"github.com/arlomercer/beatvault-backend/api/middleware"
	adminauthsvc "github.com/arlomercer/beatvault-backend/internal/adminauth"
	"github.com/arlomercer/beatvault-backend/internal/catalog"
	checkoutsvc "github.com/arlomercer/beatvault-backend/internal/checkout"
	downloadsvc "github.com/arlomercer/beatvault-backend/internal/downloads"
	ordersvc "github.com/arlomercer/beatvault-backend/internal/orders"
	"github.com/arlomercer/beatvault-backend/internal/purchases"
	"github.com/arlomercer/beatvault-backend/internal/reference"
	waitlistsvc "github.com/arlomercer/beatvault-backend/internal/waitlist"
	"github.com/arlomercer/beatvault-backend/pkg/config"
	"github.com/arlomercer/beatvault-backend/pkg/db"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
	"github.com/arlomercer/beatvault-backend/pkg/redis"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   redis.Pinger
	Metrics http.Handler

	Catalog   catalog.Service
	Reference reference.Service
	Orders    ordersvc.Service
	Purchases purchases.Service
	Checkout  checkoutsvc.Service
	Downloads downloadsvc.Service
	AdminAuth adminauthsvc.Service
	Waitlist  waitlistsvc.Service

	WebhookService webhookcontrollers.Service
	WebhookGuard   webhookcontrollers.Guard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/beats", func(r chi.Router) {
			r.Get("/", controllers.BeatList(deps.Catalog, logg))
			r.Get("/{beatId}", controllers.BeatDetail(deps.Catalog, logg))
		})
		r.Get("/licenses", controllers.LicenseList(deps.Reference, logg))
		r.Get("/addons", controllers.AddonList(deps.Reference, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(deps.Orders, logg))
			r.Post("/capture", controllers.OrderCapture(deps.Purchases, logg))
		})
		r.Post("/checkout/session", controllers.CheckoutSession(deps.Checkout, logg))

		r.Get("/downloads/{token}", controllers.DownloadRedeem(deps.Downloads, logg))
		r.Post("/waitlist", controllers.WaitlistJoin(deps.Waitlist, logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/lemonsqueezy", webhookcontrollers.LemonSqueezyWebhook(
				deps.WebhookService,
				cfg.LemonSqueezy.WebhookSecret,
				deps.WebhookGuard,
				logg,
			))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/otp/request", controllers.AuthRequestOTP(deps.AdminAuth, logg))
			r.Post("/otp/verify", controllers.AuthVerifyOTP(deps.AdminAuth, cfg.Session, logg))
			r.Post("/logout", controllers.AuthLogout(cfg.Session))
			r.With(middleware.AdminAuth(cfg.Session, logg)).Get("/me", controllers.AuthMe(logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.Session, logg))

			r.Route("/beats", func(r chi.Router) {
				r.Get("/", controllers.AdminBeatList(deps.Catalog, logg))
				r.Post("/", controllers.AdminBeatCreate(deps.Catalog, logg))
				r.Get("/{beatId}", controllers.AdminBeatDetail(deps.Catalog, logg))
				r.Patch("/{beatId}", controllers.AdminBeatUpdate(deps.Catalog, logg))
				r.Delete("/{beatId}", controllers.AdminBeatDelete(deps.Catalog, logg))
			})
			r.Post("/uploads/presign", controllers.AdminBeatPresignUpload(deps.Catalog, logg))
		})
	})

	return r
}
