package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twinhealth/twin/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const patientCols = `id, full_name, sex, birth_date, archetype, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, full_name, sex, birth_date, archetype)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.FullName, p.Sex, p.BirthDate, p.Archetype,
	)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("patient %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET full_name=$2, sex=$3, birth_date=$4, archetype=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.Sex, p.BirthDate, p.Archetype,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM patients
		ORDER BY full_name, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	patients := make([]*Patient, 0, limit)
	for rows.Next() {
		p, err := scanPatientRows(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.Sex, &p.BirthDate, &p.Archetype, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPatientRows(rows pgx.Rows) (*Patient, error) {
	var p Patient
	err := rows.Scan(&p.ID, &p.FullName, &p.Sex, &p.BirthDate, &p.Archetype, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Snapshot Repository --

type snapshotRepoPG struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) SnapshotRepository {
	return &snapshotRepoPG{pool: pool}
}

func (r *snapshotRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const snapshotCols = `id, patient_id, recorded_at, height_cm, weight_kg,
	waist_cm, systolic_bp, diastolic_bp, triglycerides_mg_dl, hdl_mg_dl, ldl_mg_dl,
	total_cholesterol_mg_dl, fasting_glucose_mg_dl, ast_ul, alt_ul, ggt_ul,
	physical_activity_level, smoking_status, audit_score, bdi_score,
	is_on_antihypertensive, is_on_antidiabetic, is_on_lipid_lowering,
	disease_codes, body_fat_pct, muscle_pct, visceral_fat_rating, created_at`

func (r *snapshotRepoPG) Create(ctx context.Context, s *ClinicalSnapshot) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_snapshots (
			id, patient_id, recorded_at, height_cm, weight_kg,
			waist_cm, systolic_bp, diastolic_bp, triglycerides_mg_dl, hdl_mg_dl, ldl_mg_dl,
			total_cholesterol_mg_dl, fasting_glucose_mg_dl, ast_ul, alt_ul, ggt_ul,
			physical_activity_level, smoking_status, audit_score, bdi_score,
			is_on_antihypertensive, is_on_antidiabetic, is_on_lipid_lowering,
			disease_codes, body_fat_pct, muscle_pct, visceral_fat_rating
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,$10,$11,
			$12,$13,$14,$15,$16,
			$17,$18,$19,$20,
			$21,$22,$23,
			$24,$25,$26,$27
		)`,
		s.ID, s.PatientID, s.RecordedAt, s.HeightCm, s.WeightKg,
		s.WaistCm, s.SystolicBp, s.DiastolicBp, s.TriglyceridesMgDl, s.HdlMgDl, s.LdlMgDl,
		s.TotalCholesterolMgDl, s.FastingGlucoseMgDl, s.AstUl, s.AltUl, s.GgtUl,
		s.PhysicalActivityLevel, s.SmokingStatus, s.AuditScore, s.BdiScore,
		s.IsOnAntihypertensive, s.IsOnAntidiabetic, s.IsOnLipidLowering,
		s.DiseaseCodes, s.BodyFatPct, s.MusclePct, s.VisceralFatRating,
	)
	return err
}

func (r *snapshotRepoPG) GetByID(ctx context.Context, patientID, id uuid.UUID) (*ClinicalSnapshot, error) {
	s, err := scanSnapshot(r.conn(ctx).QueryRow(ctx, `
		SELECT `+snapshotCols+` FROM clinical_snapshots
		WHERE id = $1 AND patient_id = $2`, id, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	return s, err
}

func (r *snapshotRepoPG) Latest(ctx context.Context, patientID uuid.UUID) (*ClinicalSnapshot, error) {
	s, err := scanSnapshot(r.conn(ctx).QueryRow(ctx, `
		SELECT `+snapshotCols+` FROM clinical_snapshots
		WHERE patient_id = $1
		ORDER BY recorded_at DESC, created_at DESC
		LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("patient %s has no snapshots: %w", patientID, ErrNotFound)
	}
	return s, err
}

func (r *snapshotRepoPG) History(ctx context.Context, patientID uuid.UUID) ([]ClinicalSnapshot, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+snapshotCols+` FROM clinical_snapshots
		WHERE patient_id = $1
		ORDER BY recorded_at ASC, created_at ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []ClinicalSnapshot
	for rows.Next() {
		s, err := scanSnapshotRows(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *s)
	}
	return history, rows.Err()
}

func (r *snapshotRepoPG) List(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ClinicalSnapshot, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM clinical_snapshots WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+snapshotCols+` FROM clinical_snapshots
		WHERE patient_id = $1
		ORDER BY recorded_at DESC, created_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	snaps := make([]*ClinicalSnapshot, 0, limit)
	for rows.Next() {
		s, err := scanSnapshotRows(rows)
		if err != nil {
			return nil, 0, err
		}
		snaps = append(snaps, s)
	}
	return snaps, total, rows.Err()
}

func scanSnapshot(row pgx.Row) (*ClinicalSnapshot, error) {
	var s ClinicalSnapshot
	err := row.Scan(
		&s.ID, &s.PatientID, &s.RecordedAt, &s.HeightCm, &s.WeightKg,
		&s.WaistCm, &s.SystolicBp, &s.DiastolicBp, &s.TriglyceridesMgDl, &s.HdlMgDl, &s.LdlMgDl,
		&s.TotalCholesterolMgDl, &s.FastingGlucoseMgDl, &s.AstUl, &s.AltUl, &s.GgtUl,
		&s.PhysicalActivityLevel, &s.SmokingStatus, &s.AuditScore, &s.BdiScore,
		&s.IsOnAntihypertensive, &s.IsOnAntidiabetic, &s.IsOnLipidLowering,
		&s.DiseaseCodes, &s.BodyFatPct, &s.MusclePct, &s.VisceralFatRating, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSnapshotRows(rows pgx.Rows) (*ClinicalSnapshot, error) {
	var s ClinicalSnapshot
	err := rows.Scan(
		&s.ID, &s.PatientID, &s.RecordedAt, &s.HeightCm, &s.WeightKg,
		&s.WaistCm, &s.SystolicBp, &s.DiastolicBp, &s.TriglyceridesMgDl, &s.HdlMgDl, &s.LdlMgDl,
		&s.TotalCholesterolMgDl, &s.FastingGlucoseMgDl, &s.AstUl, &s.AltUl, &s.GgtUl,
		&s.PhysicalActivityLevel, &s.SmokingStatus, &s.AuditScore, &s.BdiScore,
		&s.IsOnAntihypertensive, &s.IsOnAntidiabetic, &s.IsOnLipidLowering,
		&s.DiseaseCodes, &s.BodyFatPct, &s.MusclePct, &s.VisceralFatRating, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
