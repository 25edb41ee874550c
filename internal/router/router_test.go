package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"petcare-booking/internal/config"
	"petcare-booking/internal/router"
)

func newTestServer(t *testing.T, capacity int) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Booking: config.BookingConfig{
			MaxAppointmentsPerSlot: capacity,
			AvailableTimeSlots:     []string{"9:00 AM", "9:30 AM", "10:00 AM"},
			ExcludedDays:           nil,
			ClinicHours: config.ClinicHours{
				Start:             "09:00",
				End:               "17:00",
				AppointmentCutoff: "16:00",
			},
		},
	}

	h, err := router.NewRouter(router.Options{Cfg: cfg})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func bookingDate() string {
	return time.Now().AddDate(0, 1, 0).Format("2006-01-02")
}

func bookingPayload(date, slot string) map[string]any {
	return map[string]any{
		"date": date,
		"time": slot,
		"pets": []map[string]any{
			{"name": "Max", "type": "dog", "breed": "Golden Retriever"},
		},
		"service_ids": []string{"svc-checkup"},
	}
}

func TestHTTP_EndToEnd_BookingLifecycle(t *testing.T) {
	ts := newTestServer(t, 3)
	date := bookingDate()

	customerID := "cust-1"

	// 1) Sin identidad no se reserva.
	{
		st, _ := doReq(t, ts.URL, "POST", "/appointments", "", "", bookingPayload(date, "9:00 AM"))
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without identity, got %d", st)
		}
	}

	// 2) El cliente reserva; nace pending.
	apptID := createAppointment(t, ts.URL, customerID, bookingPayload(date, "9:00 AM"))

	// 3) La ve en sus citas.
	{
		st, body := doReq(t, ts.URL, "GET", "/me/appointments", customerID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing my appointments, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0]["id"] != apptID {
			t.Fatalf("expected my appointment in list, got %s", string(body))
		}
	}

	// 4) Otro cliente no puede verla; el dueño y el staff sí.
	{
		st, _ := doReq(t, ts.URL, "GET", "/appointments/"+apptID, "cust-2", "", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for another customer, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/appointments/"+apptID, customerID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 for owner, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/appointments/"+apptID, "staff-1", "staff", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 for staff, got %d", st)
		}
	}

	// 5) Operaciones de staff vedadas al cliente.
	{
		st, _ := doReq(t, ts.URL, "POST", "/appointments/"+apptID+"/status", customerID, "", map[string]any{"status": "confirmed"})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for customer status change, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/appointments?date="+date, customerID, "", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for customer agenda, got %d", st)
		}
	}

	// 6) Staff confirma.
	{
		st, body := doReq(t, ts.URL, "POST", "/appointments/"+apptID+"/status", "staff-1", "staff", map[string]any{"status": "confirmed"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 confirming, got %d body=%s", st, string(body))
		}
		var resp map[string]any
		_ = json.Unmarshal(body, &resp)
		if resp["status"] != "confirmed" {
			t.Fatalf("expected confirmed, got %v", resp["status"])
		}
	}

	// 7) Staff reagenda; el historial conserva el slot anterior.
	{
		st, body := doReq(t, ts.URL, "POST", "/appointments/"+apptID+"/reschedule", "staff-1", "staff", map[string]any{
			"date":   date,
			"time":   "9:30 AM",
			"reason": "vet unavailable",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 rescheduling, got %d body=%s", st, string(body))
		}
		var resp struct {
			Time        string `json:"time"`
			Status      string `json:"status"`
			Reschedules []struct {
				PrevTime string `json:"prev_time"`
			} `json:"reschedules"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Time != "9:30 AM" || resp.Status != "confirmed" {
			t.Fatalf("bad reschedule result: %s", string(body))
		}
		if len(resp.Reschedules) != 1 || resp.Reschedules[0].PrevTime != "9:00 AM" {
			t.Fatalf("missing reschedule history: %s", string(body))
		}
	}

	// 8) Staff completa con consumos y notas clínicas.
	{
		st, body := doReq(t, ts.URL, "POST", "/appointments/"+apptID+"/complete", "staff-1", "staff", map[string]any{
			"products": []map[string]any{
				{"product_id": "prod-rabies", "quantity": 1},
			},
			"clinical": map[string]any{
				"doctor":    "Dr. Silva",
				"diagnosis": "healthy",
			},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 completing, got %d body=%s", st, string(body))
		}
	}

	// 9) El historial de cuidado del cliente ya muestra la vacunación.
	{
		st, body := doReq(t, ts.URL, "GET", "/customers/"+customerID+"/care-history", customerID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 care history, got %d body=%s", st, string(body))
		}
		var resp struct {
			Groups []struct {
				PetName string `json:"pet_name"`
				Events  []struct {
					VaccineName string `json:"vaccine_name"`
					Doctor      string `json:"doctor"`
				} `json:"events"`
			} `json:"groups"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Groups) != 1 || len(resp.Groups[0].Events) != 1 {
			t.Fatalf("expected one vaccination event, got %s", string(body))
		}
		e := resp.Groups[0].Events[0]
		if e.VaccineName != "Rabies Vaccine" || e.Doctor != "Dr. Silva" {
			t.Fatalf("bad care history event: %s", string(body))
		}

		// El historial de otro cliente no es visible para éste.
		st, _ = doReq(t, ts.URL, "GET", "/customers/cust-2/care-history", customerID, "", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for foreign care history, got %d", st)
		}
	}

	// 10) El feed de notificaciones acumuló todo el ciclo (solo admin).
	{
		st, _ := doReq(t, ts.URL, "GET", "/admin/notifications", "staff-1", "staff", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for staff pulling notifications, got %d", st)
		}

		st, body := doReq(t, ts.URL, "GET", "/admin/notifications", "admin-1", "admin", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 pulling notifications, got %d body=%s", st, string(body))
		}
		var resp struct {
			Notifications []struct {
				Type string `json:"type"`
			} `json:"notifications"`
			Timestamp int64 `json:"timestamp"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Notifications) != 3 {
			t.Fatalf("expected 3 events (new, rescheduled, completed), got %d", len(resp.Notifications))
		}
		if resp.Timestamp == 0 {
			t.Fatal("expected a non-zero cursor")
		}

		// Pull incremental: con el cursor devuelto pasa a vacío.
		st, body = doReq(t, ts.URL, "GET", "/admin/notifications?since="+strconv.FormatInt(resp.Timestamp, 10), "admin-1", "admin", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 on incremental pull, got %d", st)
		}
		var again struct {
			Notifications []any `json:"notifications"`
		}
		_ = json.Unmarshal(body, &again)
		if len(again.Notifications) != 0 {
			t.Fatalf("expected empty incremental pull, got %d", len(again.Notifications))
		}

		// Clear administrativo.
		st, _ = doReq(t, ts.URL, "DELETE", "/admin/notifications", "admin-1", "admin", nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 clearing notifications, got %d", st)
		}
	}

	// 11) El borrado duro es solo admin.
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/appointments/"+apptID, "staff-1", "staff", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for staff delete, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "DELETE", "/appointments/"+apptID, "admin-1", "admin", nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 for admin delete, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/appointments/"+apptID, customerID, "", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", st)
		}
	}
}

func TestHTTP_SlotCapacityEnforced(t *testing.T) {
	ts := newTestServer(t, 1)
	date := bookingDate()

	createAppointment(t, ts.URL, "cust-1", bookingPayload(date, "9:00 AM"))

	st, body := doReq(t, ts.URL, "POST", "/appointments", "cust-2", "", bookingPayload(date, "9:00 AM"))
	if st != http.StatusConflict {
		t.Fatalf("expected 409 for full slot, got %d body=%s", st, string(body))
	}
	var resp map[string]string
	_ = json.Unmarshal(body, &resp)
	if resp["error"] != "slot_full" {
		t.Fatalf("expected slot_full error kind, got %s", string(body))
	}

	// Etiqueta desconocida => 400 invalid_slot.
	st, body = doReq(t, ts.URL, "POST", "/appointments", "cust-2", "", bookingPayload(date, "9:15 AM"))
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown slot, got %d body=%s", st, string(body))
	}
	_ = json.Unmarshal(body, &resp)
	if resp["error"] != "invalid_slot" {
		t.Fatalf("expected invalid_slot error kind, got %s", string(body))
	}
}

func TestHTTP_WalkInIsStaffOnly(t *testing.T) {
	ts := newTestServer(t, 3)
	date := bookingDate()

	payload := bookingPayload(date, "9:00 AM")
	payload["customer_id"] = "cust-1"

	st, _ := doReq(t, ts.URL, "POST", "/appointments/walk-in", "cust-1", "", payload)
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 for customer walk-in, got %d", st)
	}

	st, body := doReq(t, ts.URL, "POST", "/appointments/walk-in", "staff-1", "staff", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 for staff walk-in, got %d body=%s", st, string(body))
	}
	var resp map[string]any
	_ = json.Unmarshal(body, &resp)
	if resp["status"] != "confirmed" {
		t.Fatalf("walk-in should start confirmed, got %v", resp["status"])
	}
	if resp["customer_id"] != "cust-1" {
		t.Fatalf("walk-in should belong to the recorded customer, got %v", resp["customer_id"])
	}
}

func TestHTTP_CatalogListing(t *testing.T) {
	ts := newTestServer(t, 3)

	// El catálogo pide identidad (cualquier rol).
	st, _ := doReq(t, ts.URL, "GET", "/services", "", "", nil)
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", st)
	}

	st, body := doReq(t, ts.URL, "GET", "/services", "cust-1", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 listing services, got %d body=%s", st, string(body))
	}
	var services []struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	_ = json.Unmarshal(body, &services)
	if len(services) == 0 {
		t.Fatalf("expected seeded services, got %s", string(body))
	}
	for i := 1; i < len(services); i++ {
		if services[i-1].Name > services[i].Name {
			t.Fatalf("services must be sorted by name: %s", string(body))
		}
	}

	st, body = doReq(t, ts.URL, "GET", "/products", "cust-1", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 listing products, got %d body=%s", st, string(body))
	}
	var products []struct {
		ID         string `json:"id"`
		CategoryID string `json:"category_id"`
	}
	_ = json.Unmarshal(body, &products)
	if len(products) == 0 {
		t.Fatalf("expected seeded products, got %s", string(body))
	}
	for _, p := range products {
		if p.CategoryID == "" {
			t.Fatalf("product %s missing category: %s", p.ID, string(body))
		}
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := newTestServer(t, 3)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func createAppointment(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/appointments", userID, "", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create appointment, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create appointment: missing id body=%s", string(body))
	}
	if resp.Status != "pending" {
		t.Fatalf("new appointment should be pending, got %s", resp.Status)
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID, debugRole string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}
	if debugRole != "" {
		req.Header.Set("X-Debug-Role", debugRole)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}
