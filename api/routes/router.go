package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tunedash-backend/api/controllers"
	"github.com/angelmondragon/tunedash-backend/api/middleware"
	"github.com/angelmondragon/tunedash-backend/internal/notifications"
	"github.com/angelmondragon/tunedash-backend/pkg/config"
	"github.com/angelmondragon/tunedash-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	notificationsService notifications.Service,
	feedSessions controllers.FeedSessions,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisP,
		}))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
		})

		r.Route("/feed", func(r chi.Router) {
			r.Get("/", controllers.GetFeed(feedSessions, logg))
			r.Get("/counts", controllers.GetFeedCounts(feedSessions, logg))
			r.Put("/filter", controllers.SetFeedFilter(feedSessions, logg))
			r.Put("/search", controllers.SetFeedSearch(feedSessions, logg))
			r.Post("/refresh", controllers.RefreshFeed(feedSessions, logg))
			r.Post("/read-all", controllers.MarkAllFeedRead(feedSessions, logg))
			r.Post("/{notificationId}/read", controllers.MarkFeedItemRead(feedSessions, logg))
		})
	})

	return r
}
