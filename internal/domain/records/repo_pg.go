package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthguard/assistant/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `p.id, p.patient_id, p.name, p.age, p.gender, p.patient_type, p.medical_specialty,
	p.contact, p.insurance, p.ward_number, p.cart_number, p.admission_date, p.status,
	p.assigned_doctor_id, p.lab_reports, p.prescriptions, p.appointments,
	p.created_at, p.updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.normalize()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (
			id, patient_id, name, age, gender, patient_type, medical_specialty,
			contact, insurance, ward_number, cart_number, admission_date, status,
			assigned_doctor_id, lab_reports, prescriptions, appointments,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		p.ID, p.PatientID, p.Name, p.Age, p.Gender, p.Type, p.MedicalSpecialty,
		p.Contact, p.Insurance, p.WardNumber, p.CartNumber, p.AdmissionDate, p.Status,
		p.AssignedDoctorID, p.LabReports, p.Prescriptions, p.Appointments,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient %s: %w", p.PatientID, err)
	}
	return nil
}

func (r *patientRepoPG) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient p WHERE p.patient_id = $1`, patientID))
	if err != nil {
		return nil, notFound(err, ErrPatientNotFound)
	}
	return p, nil
}

func (r *patientRepoPG) GetDetail(ctx context.Context, patientID string) (*PatientDetail, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+patientCols+`,
			d.id, d.name, d.specialization, d.department, d.role, d.email,
			w.id, w.name, w.floor, w.ward_type, w.capacity
		FROM patient p
		LEFT JOIN staff d ON d.id = p.assigned_doctor_id
		LEFT JOIN ward w ON w.name = p.ward_number
		WHERE p.patient_id = $1`, patientID)

	var (
		d       PatientDetail
		docID   *uuid.UUID
		docName *string
		docRole *string
		wardID  *uuid.UUID
		wardNm  *string
	)
	err := row.Scan(append(patientDest(&d.Patient),
		&docID, &docName, &d.AssignedDoctor.Specialization, &d.AssignedDoctor.Department, &docRole, &d.AssignedDoctor.Email,
		&wardID, &wardNm, &d.WardDetails.Floor, &d.WardDetails.WardType, &d.WardDetails.Capacity,
	)...)
	if err != nil {
		return nil, notFound(err, ErrPatientNotFound)
	}

	if docID != nil && docName != nil {
		d.AssignedDoctor.ID = docID.String()
		d.AssignedDoctor.Name = *docName
		if docRole != nil {
			d.AssignedDoctor.Role = *docRole
		}
	} else {
		d.AssignedDoctor = DoctorSummary{Name: unknownName}
	}
	if wardID != nil && wardNm != nil {
		d.WardDetails.ID = wardID.String()
		d.WardDetails.Name = *wardNm
	} else {
		d.WardDetails = WardSummary{Name: unknownName}
	}
	return &d, nil
}

func (r *patientRepoPG) FindByCredentials(ctx context.Context, patientID, name string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient p
		WHERE lower(p.patient_id) = lower($1) AND lower(p.name) = lower($2)
		LIMIT 1`, patientID, name))
	if err != nil {
		return nil, notFound(err, ErrPatientNotFound)
	}
	return p, nil
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient p ORDER BY p.patient_id`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func patientDest(p *Patient) []any {
	return []any{
		&p.ID, &p.PatientID, &p.Name, &p.Age, &p.Gender, &p.Type, &p.MedicalSpecialty,
		&p.Contact, &p.Insurance, &p.WardNumber, &p.CartNumber, &p.AdmissionDate, &p.Status,
		&p.AssignedDoctorID, &p.LabReports, &p.Prescriptions, &p.Appointments,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(patientDest(&p)...); err != nil {
		return nil, err
	}
	p.normalize()
	return &p, nil
}

// -- Staff Repository --

type staffRepoPG struct {
	pool *pgxpool.Pool
}

func NewStaffRepo(pool *pgxpool.Pool) StaffRepository {
	return &staffRepoPG{pool: pool}
}

func (r *staffRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const staffCols = `id, name, specialization, department, role, email, status, created_at`

func (r *staffRepoPG) Create(ctx context.Context, s *Staff) error {
	s.ID = uuid.New()
	if s.Role == "" {
		s.Role = "doctor"
	}
	if s.Status == "" {
		s.Status = "active"
	}
	s.CreatedAt = time.Now().UTC()

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staff (id, name, specialization, department, role, email, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.Name, s.Specialization, s.Department, s.Role, s.Email, s.Status, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert staff %s: %w", s.Name, err)
	}
	return nil
}

func (r *staffRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	s, err := scanStaff(r.conn(ctx).QueryRow(ctx, `SELECT `+staffCols+` FROM staff WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, ErrStaffNotFound)
	}
	return s, nil
}

func (r *staffRepoPG) GetByName(ctx context.Context, name string) (*Staff, error) {
	s, err := scanStaff(r.conn(ctx).QueryRow(ctx,
		`SELECT `+staffCols+` FROM staff WHERE lower(name) = lower($1) ORDER BY created_at LIMIT 1`, name))
	if err != nil {
		return nil, notFound(err, ErrStaffNotFound)
	}
	return s, nil
}

func (r *staffRepoPG) List(ctx context.Context) ([]*Staff, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+staffCols+` FROM staff ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var out []*Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.Name, &s.Specialization, &s.Department, &s.Role, &s.Email, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// -- Ward Repository --

type wardRepoPG struct {
	pool *pgxpool.Pool
}

func NewWardRepo(pool *pgxpool.Pool) WardRepository {
	return &wardRepoPG{pool: pool}
}

func (r *wardRepoPG) Upsert(ctx context.Context, w *Ward) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO ward (id, name, floor, ward_type, capacity)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (name) DO UPDATE
			SET floor = EXCLUDED.floor, ward_type = EXCLUDED.ward_type, capacity = EXCLUDED.capacity
		RETURNING id, created_at`,
		w.ID, w.Name, w.Floor, w.WardType, w.Capacity,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert ward %s: %w", w.Name, err)
	}
	return nil
}

// notFound maps pgx.ErrNoRows to the domain sentinel and wraps anything else.
func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("query: %w", err)
}
