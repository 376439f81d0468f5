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

	"github.com/afyacare/hms/internal/data/pgxutil"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/util"
)

const appointmentColumns = "id, doctor_id, patient_id, starts_at, ends_at, status, reason, created_at, updated_at"

// AppointmentRepo provides database operations for appointment slots.
//
// Double-booking is prevented by the database, not by application-level
// checks: the appointments table carries an exclusion constraint over
// (doctor_id, time range) for scheduled rows, so of two concurrent bookings
// for overlapping slots exactly one commits and the other surfaces as
// ErrSlotTaken.
type AppointmentRepo struct {
	DB    *sql.DB
	clock util.Clock
}

// NewAppointmentRepo creates an AppointmentRepo with the system clock.
func NewAppointmentRepo(db *sql.DB) *AppointmentRepo {
	return &AppointmentRepo{DB: db, clock: util.RealClock{}}
}

// NewAppointmentRepoWithClock creates an AppointmentRepo with a custom clock (useful for tests).
func NewAppointmentRepoWithClock(db *sql.DB, clock util.Clock) *AppointmentRepo {
	return &AppointmentRepo{DB: db, clock: clock}
}

// Book inserts a new scheduled appointment. Overlap with an existing
// scheduled appointment for the same doctor returns ErrSlotTaken.
func (r *AppointmentRepo) Book(ctx context.Context, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if req == nil {
		return nil, errors.New("book appointment request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.clock.Now().UTC()
	var out model.Appointment
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, `
				INSERT INTO appointments (id, doctor_id, patient_id, starts_at, ends_at, status, reason, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING `+appointmentColumns,
				uuid.NewString(),
				req.DoctorID,
				req.PatientID,
				req.StartsAt.UTC(),
				req.EndsAt.UTC(),
				model.AppointmentScheduled,
				req.Reason,
				now,
			)
			if err != nil {
				return err
			}
			defer rows.Close()
			out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Appointment])
			return err
		},
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ExclusionViolation:
				return nil, ErrSlotTaken
			case pgerrcode.ForeignKeyViolation:
				return nil, fmt.Errorf("unknown doctor or patient: %w", err)
			}
		}
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}
	return &out, nil
}

// GetByID retrieves an appointment by ID.
func (r *AppointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	var out model.Appointment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			"SELECT "+appointmentColumns+" FROM appointments WHERE id = $1", id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Appointment])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &out, nil
}

// List retrieves appointments with optional filters.
func (r *AppointmentRepo) List(ctx context.Context, opts model.AppointmentsListOptions) ([]*model.Appointment, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	var conds []string
	var args []any
	addCond := func(expr string, value any) {
		args = append(args, value)
		conds = append(conds, expr+" $"+strconv.Itoa(len(args)))
	}
	if opts.DoctorID != nil {
		addCond("doctor_id =", *opts.DoctorID)
	}
	if opts.PatientID != nil {
		addCond("patient_id =", *opts.PatientID)
	}
	if opts.From != nil {
		addCond("starts_at >=", opts.From.UTC())
	}
	if opts.To != nil {
		addCond("starts_at <", opts.To.UTC())
	}
	if opts.Status != nil {
		addCond("status =", *opts.Status)
	}

	query := "SELECT " + appointmentColumns + " FROM appointments"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += " ORDER BY starts_at ASC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, offset)
	query += " OFFSET $" + strconv.Itoa(len(args))

	var rowsOut []model.Appointment
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Appointment])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	res := make([]*model.Appointment, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// UpdateStatus transitions an appointment to a new status. Cancelling or
// completing a slot releases it for rebooking because the exclusion
// constraint only covers scheduled rows.
func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid appointment status %q", status)
	}

	now := r.clock.Now().UTC()
	var out model.Appointment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE appointments SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING `+appointmentColumns,
			status, now, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Appointment])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	return &out, nil
}
