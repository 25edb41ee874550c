package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"petcare-booking/internal/domain/appointments"
)

const dateLayout = "2006-01-02"

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

var _ appointments.Repository = (*AppointmentsRepo)(nil)

// Create inserta la cita con sus mascotas y servicios en una transacción:
// o queda todo o no queda nada.
func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointments (
			id, customer_id, customer_email,
			visit_date, time_slot, status, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		a.ID,
		a.CustomerID,
		a.CustomerEmail,
		a.Date,
		a.TimeSlot,
		string(a.Status),
		a.Notes,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, p := range a.Pets {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pets (id, appointment_id, name, type, breed, grooming_notes)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, p.ID, a.ID, p.Name, p.Type, p.Breed, p.GroomingNotes)
		if err != nil {
			return err
		}
	}

	for _, svcID := range a.ServiceIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointment_services (appointment_id, service_id)
			VALUES ($1,$2)
		`, a.ID, svcID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return appointments.Appointment{}, appointments.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, customer_id, customer_email,
			visit_date, time_slot, status, notes,
			created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)

	a, err := scanAppointment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return appointments.Appointment{}, appointments.ErrNotFound
		}
		return appointments.Appointment{}, err
	}

	if err := r.loadChildren(ctx, &a); err != nil {
		return appointments.Appointment{}, err
	}
	return a, nil
}

// Update guarda los campos mutables e inserta solo los reschedules nuevos
// (el historial previo ya está persistido).
func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE appointments
		SET visit_date = $2, time_slot = $3, status = $4, notes = $5, updated_at = $6
		WHERE id = $1
	`, a.ID, a.Date, a.TimeSlot, string(a.Status), a.Notes, a.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appointments.ErrNotFound
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM appointment_reschedules WHERE appointment_id = $1
	`, a.ID).Scan(&existing); err != nil {
		return err
	}

	for i := existing; i < len(a.Reschedules); i++ {
		h := a.Reschedules[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointment_reschedules (appointment_id, prev_date, prev_slot, reason, moved_at)
			VALUES ($1,$2,$3,$4,$5)
		`, a.ID, h.PrevDate, h.PrevSlot, h.Reason, h.MovedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete es borrado duro; pets, medical_records, inventory_usages y
// reschedules caen por ON DELETE CASCADE en el esquema.
func (r *AppointmentsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appointments.ErrNotFound
	}
	return nil
}

func (r *AppointmentsRepo) ListByCustomer(ctx context.Context, customerID string) ([]appointments.Appointment, error) {
	return r.listWhere(ctx, `customer_id = $1`, customerID)
}

func (r *AppointmentsRepo) ListByDate(ctx context.Context, date string) ([]appointments.Appointment, error) {
	return r.listWhere(ctx, `visit_date = $1`, date)
}

func (r *AppointmentsRepo) ListCompletedByCustomer(ctx context.Context, customerID string) ([]appointments.Appointment, error) {
	return r.listWhere(ctx, `customer_id = $1 AND status = 'completed'`, customerID)
}

func (r *AppointmentsRepo) CountActiveInSlot(ctx context.Context, date, slot, excludeID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE visit_date = $1
		  AND time_slot = $2
		  AND status IN ('pending', 'confirmed')
		  AND ($3 = '' OR id <> $3)
	`, date, slot, excludeID).Scan(&count)
	return count, err
}

// Complete transiciona a completed y registra consumos y registros médicos
// en una sola transacción; una cita nunca queda completada a medias.
func (r *AppointmentsRepo) Complete(ctx context.Context, a appointments.Appointment, usages []appointments.InventoryUsage, records []appointments.MedicalRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, a.ID, string(a.Status), a.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appointments.ErrNotFound
	}

	for _, u := range usages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_usages (
				id, appointment_id, product_id,
				quantity, unit_price, total_price, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, u.ID, u.AppointmentID, u.ProductID, u.Quantity, u.UnitPrice, u.TotalPrice, u.CreatedAt)
		if err != nil {
			return err
		}
	}

	for _, rec := range records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO medical_records (
				id, appointment_id, pet_id,
				doctor, weight_kg, symptoms, diagnosis, test_results, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, rec.ID, rec.AppointmentID, rec.PetID, rec.Doctor, rec.WeightKg, rec.Symptoms, rec.Diagnosis, rec.TestResults, rec.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *AppointmentsRepo) UsagesByAppointment(ctx context.Context, appointmentID string) ([]appointments.InventoryUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, appointment_id, product_id, quantity, unit_price, total_price, created_at
		FROM inventory_usages
		WHERE appointment_id = $1
		ORDER BY created_at ASC
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.InventoryUsage, 0)
	for rows.Next() {
		var u appointments.InventoryUsage
		if err := rows.Scan(&u.ID, &u.AppointmentID, &u.ProductID, &u.Quantity, &u.UnitPrice, &u.TotalPrice, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *AppointmentsRepo) RecordByPet(ctx context.Context, appointmentID, petID string) (appointments.MedicalRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, appointment_id, pet_id, doctor, weight_kg, symptoms, diagnosis, test_results, created_at
		FROM medical_records
		WHERE appointment_id = $1 AND pet_id = $2
	`, appointmentID, petID)

	var rec appointments.MedicalRecord
	err := row.Scan(&rec.ID, &rec.AppointmentID, &rec.PetID, &rec.Doctor, &rec.WeightKg, &rec.Symptoms, &rec.Diagnosis, &rec.TestResults, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return appointments.MedicalRecord{}, appointments.ErrNotFound
		}
		return appointments.MedicalRecord{}, err
	}
	return rec, nil
}

func (r *AppointmentsRepo) listWhere(ctx context.Context, where string, arg any) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, customer_id, customer_email,
			visit_date, time_slot, status, notes,
			created_at, updated_at
		FROM appointments
		WHERE `+where+`
		ORDER BY created_at ASC
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := r.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *AppointmentsRepo) loadChildren(ctx context.Context, a *appointments.Appointment) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, appointment_id, name, type, breed, grooming_notes
		FROM pets
		WHERE appointment_id = $1
		ORDER BY id ASC
	`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p appointments.Pet
		if err := rows.Scan(&p.ID, &p.AppointmentID, &p.Name, &p.Type, &p.Breed, &p.GroomingNotes); err != nil {
			return err
		}
		a.Pets = append(a.Pets, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	svcRows, err := r.db.QueryContext(ctx, `
		SELECT service_id FROM appointment_services WHERE appointment_id = $1
	`, a.ID)
	if err != nil {
		return err
	}
	defer svcRows.Close()

	for svcRows.Next() {
		var id string
		if err := svcRows.Scan(&id); err != nil {
			return err
		}
		a.ServiceIDs = append(a.ServiceIDs, id)
	}
	if err := svcRows.Err(); err != nil {
		return err
	}

	histRows, err := r.db.QueryContext(ctx, `
		SELECT prev_date, prev_slot, reason, moved_at
		FROM appointment_reschedules
		WHERE appointment_id = $1
		ORDER BY moved_at ASC
	`, a.ID)
	if err != nil {
		return err
	}
	defer histRows.Close()

	for histRows.Next() {
		var h appointments.Reschedule
		var prev time.Time
		if err := histRows.Scan(&prev, &h.PrevSlot, &h.Reason, &h.MovedAt); err != nil {
			return err
		}
		h.PrevDate = prev.Format(dateLayout)
		a.Reschedules = append(a.Reschedules, h)
	}
	return histRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (appointments.Appointment, error) {
	var a appointments.Appointment
	var visitDate time.Time
	var status string
	if err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.CustomerEmail,
		&visitDate,
		&a.TimeSlot,
		&status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return appointments.Appointment{}, err
	}
	// visit_date es DATE; pgx lo mapea a time.Time medianoche UTC.
	a.Date = visitDate.Format(dateLayout)
	a.Status = appointments.Status(status)
	return a, nil
}
