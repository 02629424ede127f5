package httpapi

import (
	"context"
	"net/http"

	"groona_alerts/internal/domain/notification"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// NotificationLister is the read side of the notification store.
type NotificationLister interface {
	List(ctx context.Context, filter notification.Filter) ([]*notification.Notification, error)
}

// CodeIssuer issues and checks email sign-in codes.
type CodeIssuer interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
}

type Deps struct {
	Notifications NotificationLister
	OTP           CodeIssuer // nil disables the /auth routes
	Gatherer      prometheus.Gatherer
	APIToken      string // guards /notifications; empty means internal-only deployment
	Environment   string
	Logger        *logrus.Entry
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		requestLogger(deps.Logger),
	)

	r.Get("/healthz", Healthz(deps.Environment))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	r.With(RequireToken(deps.APIToken)).Get("/notifications", ListNotifications(deps.Notifications, deps.Logger))

	if deps.OTP != nil {
		r.Route("/auth/otp", func(r chi.Router) {
			r.Post("/", RequestOTP(deps.OTP, deps.Logger))
			r.Post("/verify", VerifyOTP(deps.OTP, deps.Logger))
		})
	}
	return r
}

func requestLogger(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("Request served")
		})
	}
}
