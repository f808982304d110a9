package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/navlight/booking-service/internal/errs"
	"github.com/navlight/booking-service/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	Create(ctx context.Context, b model.Booking) error
	Update(ctx context.Context, b model.Booking) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (model.Booking, error)
	List(ctx context.Context) ([]model.Booking, error)
	HasDateConflict(ctx context.Context, navlightSet, pickupDate, returnDate string, excludeID int64) (bool, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const bookingsTableName = `bookings`

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// The full booking is kept as a JSONB document; the scheduling columns
// are promoted copies used for indexing and the overlap constraint.
func (r *repository) Create(ctx context.Context, b model.Booking) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	query, args, err := qb.Insert(bookingsTableName).
		Columns("id", "navlight_set", "pickup_date", "event_date", "return_date", "status", "data").
		Values(b.ID, b.NavlightSet, b.PickupDate, b.EventDate, b.ReturnDate, b.Status, data).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("Create", zap.String("q", query), zap.Error(err))
		return mapConflict(err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, b model.Booking) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	query, args, err := qb.Update(bookingsTableName).
		Set("navlight_set", b.NavlightSet).
		Set("pickup_date", b.PickupDate).
		Set("event_date", b.EventDate).
		Set("return_date", b.ReturnDate).
		Set("status", b.Status).
		Set("data", data).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.Error("Update", zap.String("q", query), zap.Error(err))
		return mapConflict(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	query, args, err := qb.Delete(bookingsTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (model.Booking, error) {
	query, args, err := qb.Select("data").
		From(bookingsTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Booking{}, err
	}
	var data []byte
	if err := r.db.GetContext(ctx, &data, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, errs.ErrNotFound
		}
		return model.Booking{}, err
	}
	return parseBookingRow(id, data)
}

func (r *repository) List(ctx context.Context) ([]model.Booking, error) {
	query, args, err := qb.Select("id", "data").
		From(bookingsTableName).
		OrderBy("pickup_date").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID   int64  `db:"id"`
		Data []byte `db:"data"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	items := make([]model.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := parseBookingRow(row.ID, row.Data)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, nil
}

// HasDateConflict reports whether [pickupDate, returnDate] touches any
// existing booking of the same set, endpoints inclusive. On update the
// booking's own row is excluded by id.
func (r *repository) HasDateConflict(ctx context.Context, navlightSet, pickupDate, returnDate string, excludeID int64) (bool, error) {
	query, args, err := conflictQuery(navlightSet, pickupDate, returnDate, excludeID)
	if err != nil {
		return false, err
	}
	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// conflictQuery matches when the candidate range touches a stored one,
// endpoints inclusive: NOT (candidate return < stored pickup OR
// candidate pickup > stored return).
func conflictQuery(navlightSet, pickupDate, returnDate string, excludeID int64) (string, []interface{}, error) {
	b := qb.Select("1").
		From(bookingsTableName).
		Where(sq.Eq{"navlight_set": navlightSet}).
		Where("NOT (?::date < pickup_date OR ?::date > return_date)", returnDate, pickupDate)
	if excludeID != 0 {
		b = b.Where(sq.NotEq{"id": excludeID})
	}
	return b.Limit(1).ToSql()
}

func parseBookingRow(id int64, data []byte) (model.Booking, error) {
	var b model.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return model.Booking{}, errors.Wrapf(err, "booking %d: corrupt data column", id)
	}
	if b.ID == 0 {
		b.ID = id
	}
	return b, nil
}

// mapConflict translates the overlap exclusion constraint into the
// domain conflict error so a lost check-then-write race still answers
// 409 rather than 500.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		(pgErr.Code == pgerrcode.ExclusionViolation || pgErr.Code == pgerrcode.UniqueViolation) {
		return errs.ErrConflict
	}
	return err
}
