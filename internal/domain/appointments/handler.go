package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"petcare-booking/internal/domain/scheduling"
	"petcare-booking/internal/domain/slotpolicy"
	"petcare-booking/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/appointments", func(ar chi.Router) {
		ar.Post("/", createHandler(svc))
		ar.Post("/walk-in", walkInHandler(svc))
		ar.Get("/", listByDateHandler(svc))

		ar.Get("/{appointmentID}", getHandler(svc))
		ar.Post("/{appointmentID}/status", updateStatusHandler(svc))
		ar.Post("/{appointmentID}/reschedule", rescheduleHandler(svc))
		ar.Post("/{appointmentID}/complete", completeHandler(svc))
		ar.Delete("/{appointmentID}", deleteHandler(svc))
	})

	// Mis citas (cliente)
	r.Get("/me/appointments", listMineHandler(svc))
}

type petRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Breed         string `json:"breed"`
	GroomingNotes string `json:"grooming_notes"`
}

type createRequest struct {
	Date       string       `json:"date"` // YYYY-MM-DD
	Time       string       `json:"time"` // etiqueta de slot, p.ej. "9:00 AM"
	Pets       []petRequest `json:"pets"`
	ServiceIDs []string     `json:"service_ids"`
	Notes      string       `json:"notes"`
}

type walkInRequest struct {
	createRequest
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
}

type rescheduleRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type completeRequest struct {
	Products []consumedProductRequest `json:"products"`
	Clinical *clinicalRequest         `json:"clinical"`
}

type consumedProductRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type clinicalRequest struct {
	Doctor      string  `json:"doctor"`
	WeightKg    float64 `json:"weight_kg"`
	Symptoms    string  `json:"symptoms"`
	Diagnosis   string  `json:"diagnosis"`
	TestResults string  `json:"test_results"`
}

type petResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Breed         string `json:"breed"`
	GroomingNotes string `json:"grooming_notes,omitempty"`
}

type rescheduleResponse struct {
	PrevDate string    `json:"prev_date"`
	PrevTime string    `json:"prev_time"`
	Reason   string    `json:"reason,omitempty"`
	MovedAt  time.Time `json:"moved_at"`
}

type appointmentResponse struct {
	ID          string               `json:"id"`
	CustomerID  string               `json:"customer_id"`
	Date        string               `json:"date"`
	Time        string               `json:"time"`
	Status      Status               `json:"status"`
	Notes       string               `json:"notes,omitempty"`
	Pets        []petResponse        `json:"pets"`
	ServiceIDs  []string             `json:"service_ids"`
	Reschedules []rescheduleResponse `json:"reschedules,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// createHandler godoc
// @Summary Reservar una cita
// @Description Crea una cita en estado pending si el slot pasa la política (día hábil, etiqueta conocida, antes del corte same-day) y tiene capacidad. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags appointments
// @Accept json
// @Produce json
// @Param payload body createRequest true "Fecha YYYY-MM-DD, etiqueta de slot y mascotas"
// @Success 201 {object} appointmentResponse
// @Failure 400 {object} map[string]string "slot inválido / datos incompletos"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {object} map[string]string "slot lleno"
// @Router /appointments [post]
func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), claims.UserID, claims.Email, toCreateInput(req))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toResponse(a))
	}
}

func walkInHandler(svc *Service) http.HandlerFunc {
	// Solo personal: el cliente de un walk-in lo registra el staff.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsStaff() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req walkInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.CustomerID) == "" {
			http.Error(w, "customer_id is required", http.StatusBadRequest)
			return
		}

		a, err := svc.CreateWalkIn(r.Context(), req.CustomerID, req.CustomerEmail, toCreateInput(req.createRequest))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toResponse(a))
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	// El dueño ve la suya; el personal ve todas.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if a.CustomerID != claims.UserID && !claims.IsStaff() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(a))
	}
}

func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByCustomer(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listByDateHandler(svc *Service) http.HandlerFunc {
	// Agenda del día (staff)
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsStaff() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			http.Error(w, "date query param is required", http.StatusBadRequest)
			return
		}

		items, err := svc.ListByDate(r.Context(), date)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsStaff() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "appointmentID"), Status(req.Status))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(a))
	}
}

func rescheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsStaff() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req rescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Reschedule(r.Context(), chi.URLParam(r, "appointmentID"), req.Date, req.Time, req.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(a))
	}
}

func completeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsStaff() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req completeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		consumed := make([]ConsumedProduct, 0, len(req.Products))
		for _, p := range req.Products {
			consumed = append(consumed, ConsumedProduct{ProductID: p.ProductID, Quantity: p.Quantity})
		}

		var clinical *ClinicalNotes
		if req.Clinical != nil {
			clinical = &ClinicalNotes{
				Doctor:      req.Clinical.Doctor,
				WeightKg:    req.Clinical.WeightKg,
				Symptoms:    req.Clinical.Symptoms,
				Diagnosis:   req.Clinical.Diagnosis,
				TestResults: req.Clinical.TestResults,
			}
		}

		a, err := svc.Complete(r.Context(), chi.URLParam(r, "appointmentID"), consumed, clinical)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(a))
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	// Borrado duro, solo admin.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "appointmentID")); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func toCreateInput(req createRequest) CreateInput {
	in := CreateInput{
		Date:       strings.TrimSpace(req.Date),
		TimeSlot:   strings.TrimSpace(req.Time),
		ServiceIDs: req.ServiceIDs,
		Notes:      req.Notes,
	}
	for _, p := range req.Pets {
		in.Pets = append(in.Pets, PetInput{
			Name:          p.Name,
			Type:          p.Type,
			Breed:         p.Breed,
			GroomingNotes: p.GroomingNotes,
		})
	}
	return in
}

func toResponse(a Appointment) appointmentResponse {
	out := appointmentResponse{
		ID:         a.ID,
		CustomerID: a.CustomerID,
		Date:       a.Date,
		Time:       a.TimeSlot,
		Status:     a.Status,
		Notes:      a.Notes,
		Pets:       make([]petResponse, 0, len(a.Pets)),
		ServiceIDs: a.ServiceIDs,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if out.ServiceIDs == nil {
		out.ServiceIDs = []string{}
	}
	for _, p := range a.Pets {
		out.Pets = append(out.Pets, petResponse{
			ID:            p.ID,
			Name:          p.Name,
			Type:          p.Type,
			Breed:         p.Breed,
			GroomingNotes: p.GroomingNotes,
		})
	}
	for _, h := range a.Reschedules {
		out.Reschedules = append(out.Reschedules, rescheduleResponse{
			PrevDate: h.PrevDate,
			PrevTime: h.PrevSlot,
			Reason:   h.Reason,
			MovedAt:  h.MovedAt,
		})
	}
	return out
}

// writeDomainError mapea errores de dominio a status + {error, detail}:
// suficiente estructura para que el cliente no tenga que matchear strings.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slotpolicy.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "invalid_slot", err)
	case errors.Is(err, scheduling.ErrSlotFull):
		writeError(w, http.StatusConflict, "slot_full", err)
	case errors.Is(err, ErrRescheduleConflict):
		writeError(w, http.StatusConflict, "reschedule_conflict", err)
	case errors.Is(err, ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	default:
		// Fallos de persistencia: genéricos hacia afuera, detalle solo en logs.
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, map[string]string{
		"error":  kind,
		"detail": err.Error(),
	})
}

// writeJSON está duplicado a propósito en los handlers de cada módulo para no
// crear un paquete de helpers compartido antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
