package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"groona_alerts/internal/app"
	"groona_alerts/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

const (
	maxListLimit = 1000
	maxBodyBytes = 4 << 10
)

type notificationView struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Status      string         `json:"status"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Recipient   string         `json:"recipient"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedDate time.Time      `json:"created_date"`
}

type errorBody struct {
	Error string `json:"error"`
}

func Healthz(environment string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Groona-Env", environment)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// RequireToken rejects requests without "Authorization: Bearer <token>".
// An empty token leaves the route open.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte("Bearer " + token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), want) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing or invalid API token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ListNotifications serves GET /notifications?status=&type=&since=&limit=.
// type may repeat or hold a comma-separated list; since accepts RFC 3339
// or a YYYY-MM-DD date.
func ListNotifications(lister NotificationLister, logger *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		items, err := lister.List(r.Context(), filter)
		if err != nil {
			logger.WithError(err).Error("Failed to list notifications")
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to list notifications"})
			return
		}
		out := make([]notificationView, 0, len(items))
		for _, n := range items {
			out = append(out, notificationView{
				ID:          n.ID.String(),
				Type:        string(n.Type),
				Status:      string(n.Status),
				Title:       n.Title,
				Message:     n.Message,
				Recipient:   n.Recipient,
				Payload:     n.Payload,
				CreatedDate: n.CreatedDate,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out})
	}
}

func parseFilter(r *http.Request) (notification.Filter, error) {
	q := r.URL.Query()
	var f notification.Filter

	switch s := notification.Status(strings.ToUpper(q.Get("status"))); s {
	case "":
	case notification.StatusOpen, notification.StatusResolved, notification.StatusDismissed:
		f.Status = s
	default:
		return f, errors.New("unknown status " + q.Get("status"))
	}

	for _, raw := range q["type"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Types = append(f.Types, notification.Type(t))
			}
		}
	}

	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			if t, err = time.ParseInLocation(time.DateOnly, since, time.Local); err != nil {
				return f, errors.New("since must be RFC 3339 or YYYY-MM-DD")
			}
		}
		f.Since = t
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 || n > maxListLimit {
			return f, errors.New("limit must be between 1 and 1000")
		}
		f.Limit = n
	}
	return f, nil
}

type otpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func decodeOTPRequest(w http.ResponseWriter, r *http.Request, needCode bool) (otpRequest, error) {
	var req otpRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return req, errors.New("invalid JSON body")
	}
	if !strings.Contains(req.Email, "@") {
		return req, errors.New("email is required")
	}
	if needCode && strings.TrimSpace(req.Code) == "" {
		return req, errors.New("code is required")
	}
	return req, nil
}

func RequestOTP(otp CodeIssuer, logger *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeOTPRequest(w, r, false)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		if err := otp.Issue(r.Context(), req.Email); err != nil {
			if errors.Is(err, app.ErrInvalidEmail) {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid email address"})
				return
			}
			logger.WithError(err).WithField("email", req.Email).Error("Failed to issue sign-in code")
			writeJSON(w, http.StatusBadGateway, errorBody{Error: "failed to send sign-in code"})
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func VerifyOTP(otp CodeIssuer, logger *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeOTPRequest(w, r, true)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		err = otp.Verify(r.Context(), req.Email, req.Code)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, app.ErrOTPInvalid):
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
		default:
			logger.WithError(err).WithField("email", req.Email).Error("Failed to verify sign-in code")
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to verify sign-in code"})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
