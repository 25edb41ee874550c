package carehistory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"petcare-booking/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/customers/{customerID}/care-history", getHandler(svc))
}

func getHandler(svc *Service) http.HandlerFunc {
	// El dueño consulta su propio historial; el personal, el de cualquiera.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		customerID := chi.URLParam(r, "customerID")
		if customerID != claims.UserID && !claims.IsStaff() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		history, err := svc.ForCustomer(r.Context(), customerID, strings.TrimSpace(r.URL.Query().Get("pet_id")))
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, history)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
