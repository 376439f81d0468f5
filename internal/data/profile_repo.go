package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/afyacare/hms/internal/data/database"
	"github.com/afyacare/hms/internal/data/pgxutil"
	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/ports"
	"github.com/afyacare/hms/internal/util"
)

const profileColumns = "id, full_name, email, role, status, created_at, updated_at, deleted_at"

// ProfileRepo provides database operations for user profiles. The profile row
// is the authority for role and status; the identity provider only vouches
// for identity, so every authorization decision reads from here.
type ProfileRepo struct {
	DB    *sql.DB
	clock util.Clock
}

// NewProfileRepo creates a ProfileRepo with the system clock.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, clock: util.RealClock{}}
}

// NewProfileRepoWithClock creates a ProfileRepo with a custom clock (useful for tests).
func NewProfileRepoWithClock(db *sql.DB, clock util.Clock) *ProfileRepo {
	return &ProfileRepo{DB: db, clock: clock}
}

// GetByID retrieves a profile by its provider user ID.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (domainauth.Principal, error) {
	return r.getByQuery(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE id = $1", id)
}

// GetByEmail retrieves a profile by email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (domainauth.Principal, error) {
	return r.getByQuery(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE email = $1", email)
}

func (r *ProfileRepo) getByQuery(ctx context.Context, query string, arg any) (domainauth.Principal, error) {
	var out domainauth.Principal
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.Principal])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.Principal{}, ErrProfileNotFound
		}
		return domainauth.Principal{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return out, nil
}

// Create inserts a new profile. The caller decides the initial status;
// self-registered patients arrive pending, provisioned staff arrive active.
func (r *ProfileRepo) Create(ctx context.Context, p domainauth.Principal) error {
	if p.ID == "" {
		return errors.New("profile ID is required")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("invalid role %q", p.Role)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", p.Status)
	}

	now := r.clock.Now().UTC()
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO profiles (id, full_name, email, role, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			p.ID, p.FullName, p.Email, p.Role, p.Status, now)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrProfileExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// UpdateStatus transitions a profile to a new status.
func (r *ProfileRepo) UpdateStatus(ctx context.Context, id string, status domainauth.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}

	now := r.clock.Now().UTC()
	var tag pgconn.CommandTag
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var execErr error
		tag, execErr = conn.Exec(ctx, `
			UPDATE profiles SET status = $1, updated_at = $2
			WHERE id = $3 AND deleted_at IS NULL`,
			status, now, id)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to update profile status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// SoftDelete tombstones a profile. The row stays for audit joins; the account
// can never authenticate again.
func (r *ProfileRepo) SoftDelete(ctx context.Context, id string) error {
	now := r.clock.Now().UTC()
	var tag pgconn.CommandTag
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var execErr error
		tag, execErr = conn.Exec(ctx, `
			UPDATE profiles SET deleted_at = $1, updated_at = $1
			WHERE id = $2 AND deleted_at IS NULL`,
			now, id)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to soft-delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// List retrieves profiles with optional filters.
func (r *ProfileRepo) List(ctx context.Context, opts ports.ProfilesListOptions) ([]domainauth.Principal, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithOrderBy("created_at", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.Role != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("role", database.Equal, string(*opts.Role))))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, string(*opts.Status))))
	}
	if !opts.IncludeDeleted {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereNull("deleted_at", false)))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("profiles", queryOpts...))

	var out []domainauth.Principal
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[domainauth.Principal])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return out, nil
}

// CountByRole counts non-deleted profiles holding the given role. Used during
// first-run setup to decide whether a superadmin already exists.
func (r *ProfileRepo) CountByRole(ctx context.Context, role domainauth.Role) (int, error) {
	query, args := database.BuildListQuery(database.NewListQueryOptions("profiles",
		database.WithCountOnly(),
		database.WithCondition(database.WhereCond("role", database.Equal, string(role))),
		database.WithCondition(database.WhereNull("deleted_at", false)),
	))

	var count int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles by role: %w", err)
	}
	return count, nil
}
