package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/afyacare/hms/internal/data/database"
	"github.com/afyacare/hms/internal/data/pgxutil"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/util"
)

const patientColumns = "id, mrn, full_name, dob, sex, phone, address, created_at, updated_at, deleted_at"

// PatientRepo provides database operations for the patient registry.
type PatientRepo struct {
	DB    *sql.DB
	clock util.Clock
}

// NewPatientRepo creates a PatientRepo with the system clock.
func NewPatientRepo(db *sql.DB) *PatientRepo {
	return &PatientRepo{DB: db, clock: util.RealClock{}}
}

// NewPatientRepoWithClock creates a PatientRepo with a custom clock (useful for tests).
func NewPatientRepoWithClock(db *sql.DB, clock util.Clock) *PatientRepo {
	return &PatientRepo{DB: db, clock: clock}
}

// Create registers a new patient.
func (r *PatientRepo) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if req == nil {
		return nil, errors.New("create patient request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sex := req.Sex
	if sex == "" {
		sex = model.PatientSexUnknown
	}

	now := r.clock.Now().UTC()
	var out model.Patient
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO patients (id, mrn, full_name, dob, sex, phone, address, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+patientColumns,
			uuid.NewString(),
			strings.TrimSpace(req.MRN),
			strings.TrimSpace(req.FullName),
			req.DOB,
			sex,
			req.Phone,
			req.Address,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Patient])
		return err
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrMRNExists
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a patient by ID. Soft-deleted patients are still
// retrievable by ID; history views need them.
func (r *PatientRepo) GetByID(ctx context.Context, id string) (*model.Patient, error) {
	return r.getByQuery(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE id = $1", id)
}

// GetByMRN retrieves a non-deleted patient by medical record number.
func (r *PatientRepo) GetByMRN(ctx context.Context, mrn string) (*model.Patient, error) {
	return r.getByQuery(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE mrn = $1 AND deleted_at IS NULL", mrn)
}

func (r *PatientRepo) getByQuery(ctx context.Context, query string, arg any) (*model.Patient, error) {
	var out model.Patient
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Patient])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &out, nil
}

// List retrieves patients with paging and an optional name/MRN search.
func (r *PatientRepo) List(ctx context.Context, opts model.PatientsListOptions) ([]*model.Patient, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	var conds []string
	var args []any
	if !opts.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		pattern := "%" + strings.TrimSpace(*opts.Q) + "%"
		args = append(args, pattern)
		n := strconv.Itoa(len(args))
		conds = append(conds, "(full_name ILIKE $"+n+" OR mrn ILIKE $"+n+")")
	}

	query := "SELECT " + patientColumns + " FROM patients"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += " ORDER BY full_name ASC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, offset)
	query += " OFFSET $" + strconv.Itoa(len(args))

	var rowsOut []model.Patient
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Patient])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	res := make([]*model.Patient, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Count counts non-deleted patients.
func (r *PatientRepo) Count(ctx context.Context) (int, error) {
	query, args := database.BuildListQuery(database.NewListQueryOptions("patients",
		database.WithCountOnly(),
		database.WithCondition(database.WhereNull("deleted_at", false)),
	))

	var count int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

// Update applies a partial update to a patient.
func (r *PatientRepo) Update(ctx context.Context, id string, req model.UpdatePatientRequest) (*model.Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if req.FullName != nil {
		addSet("full_name", strings.TrimSpace(*req.FullName))
	}
	if req.Phone != nil {
		addSet("phone", *req.Phone)
	}
	if req.Address != nil {
		addSet("address", *req.Address)
	}
	if req.Sex != nil {
		addSet("sex", *req.Sex)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	addSet("updated_at", r.clock.Now().UTC())

	args = append(args, id)
	query := "UPDATE patients SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" AND deleted_at IS NULL RETURNING " + patientColumns

	var out model.Patient
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Patient])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return &out, nil
}

// SoftDelete tombstones a patient record.
func (r *PatientRepo) SoftDelete(ctx context.Context, id string) error {
	now := r.clock.Now().UTC()
	var tag pgconn.CommandTag
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var execErr error
		tag, execErr = conn.Exec(ctx, `
			UPDATE patients SET deleted_at = $1, updated_at = $1
			WHERE id = $2 AND deleted_at IS NULL`,
			now, id)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to soft-delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}
