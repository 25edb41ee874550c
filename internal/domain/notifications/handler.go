package notifications

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"petcare-booking/internal/middleware"
)

func RegisterRoutes(r chi.Router, feed *Feed) {
	r.Route("/admin/notifications", func(nr chi.Router) {
		nr.Get("/", pullHandler(feed))
		nr.Delete("/", clearHandler(feed))
	})
}

type pullResponse struct {
	Notifications []Event `json:"notifications"`
	Timestamp     int64   `json:"timestamp"`
}

// pullHandler godoc
// @Summary Pull incremental de notificaciones
// @Description Devuelve los eventos con cursor > since y el cursor máximo actual. El cliente debe guardar y reenviar siempre el último timestamp devuelto. Respuesta vacía es válida.
// @Tags notifications
// @Produce json
// @Param since query int false "cursor de la última entrega (default 0)"
// @Success 200 {object} pullResponse
// @Failure 403 {string} string "forbidden"
// @Router /admin/notifications [get]
func pullHandler(feed *Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var since int64
		if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "since must be an integer", http.StatusBadRequest)
				return
			}
			since = v
		}

		events, cursor := feed.Pull(since)
		writeJSON(w, http.StatusOK, pullResponse{
			Notifications: events,
			Timestamp:     cursor,
		})
	}
}

func clearHandler(feed *Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		feed.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
