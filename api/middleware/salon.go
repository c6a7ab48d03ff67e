package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mbruegger/salora-backend/api/responses"
	pkgerrors "github.com/mbruegger/salora-backend/pkg/errors"
	"github.com/mbruegger/salora-backend/pkg/logger"
)

const salonIDHeader = "X-Salon-Id"

type contextKey string

const ctxSalonID contextKey = "salon_id"

// SalonContext resolves the tenant from the X-Salon-Id header and injects it
// into the request context. Requests without a valid salon are rejected
// before any handler runs.
func SalonContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(salonIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "salon context missing"))
				return
			}
			salonID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid salon id"))
				return
			}

			ctx := WithSalonID(r.Context(), salonID)
			if logg != nil {
				ctx = logg.WithSalonID(ctx, salonID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSalonID injects the salon identifier into the context.
func WithSalonID(ctx context.Context, salonID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSalonID, salonID)
}

// SalonIDFromContext returns the salon identifier, or uuid.Nil when absent.
func SalonIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxSalonID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
