package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JakubGluszek/ludicrum/internal/model"
)

// EventRepo manages persistence for events. Ownership checks are folded
// into the WHERE clause of every mutating statement so that an
// unauthorized attempt and a missing row are the same database outcome,
// and the one-hosted-event-per-user rule is delegated entirely to the
// unique index on events.user_id. All timestamps are stored in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

// reviewCodeAlphabet is the character set for host issued review codes.
// Codes are short and single-use; collision resistance beyond that is
// not a goal.
const reviewCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReviewCode returns a random alphanumeric token of length n read
// from crypto/rand. It is used to populate events.review_code.
func NewReviewCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = reviewCodeAlphabet[int(b)%len(reviewCodeAlphabet)]
	}
	return string(out), nil
}

// isDuplicate reports whether err is a MySQL duplicate-key error (1062)
// on the named index.
func isDuplicate(err error, index string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1062") && strings.Contains(msg, index)
}

const eventColumns = `id, title, description, lat, lng, starts_at, ends_at, user_id, review_code, created_at`

// scanEvent reads one events row from the given row scanner.
func scanEvent(scan func(dest ...any) error, e *model.Event) error {
	var userID, reviewCode sql.NullString
	if err := scan(
		&e.ID, &e.Title, &e.Description, &e.Lat, &e.Lng,
		&e.Date, &e.DateEnd, &userID, &reviewCode, &e.CreatedAt,
	); err != nil {
		return err
	}
	if userID.Valid {
		v := userID.String
		e.UserID = &v
	}
	if reviewCode.Valid {
		v := reviewCode.String
		e.ReviewCode = &v
	}
	return nil
}

// ListAll returns every event together with its host's public profile,
// ordered by insertion. No filtering or pagination is applied; the map
// client renders the full set as markers.
func (r *EventRepo) ListAll(ctx context.Context) ([]model.EventWithHost, error) {
	const q = `SELECT e.id, e.title, e.description, e.lat, e.lng, e.starts_at, e.ends_at, e.user_id, e.review_code, e.created_at,
	                  u.id, u.name, u.image
	           FROM events e
	           LEFT JOIN users u ON u.id = e.user_id
	           ORDER BY e.created_at ASC, e.id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.EventWithHost, 0)
	for rows.Next() {
		var ev model.EventWithHost
		var userID, reviewCode, hostID, hostName, hostImage sql.NullString
		if err := rows.Scan(
			&ev.ID, &ev.Title, &ev.Description, &ev.Lat, &ev.Lng,
			&ev.Date, &ev.DateEnd, &userID, &reviewCode, &ev.CreatedAt,
			&hostID, &hostName, &hostImage,
		); err != nil {
			return nil, err
		}
		if userID.Valid {
			v := userID.String
			ev.UserID = &v
		}
		if hostID.Valid {
			ev.Host = nullableUser(hostID, hostName, hostImage)
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetWithHost returns one event with its host's public profile, or
// ErrNotFound when no such id exists. Safe for anonymous callers; the
// review code is carried on the model but public serializers omit it.
func (r *EventRepo) GetWithHost(ctx context.Context, id string) (*model.EventWithHost, error) {
	const q = `SELECT e.id, e.title, e.description, e.lat, e.lng, e.starts_at, e.ends_at, e.user_id, e.review_code, e.created_at,
	                  u.id, u.name, u.image
	           FROM events e
	           LEFT JOIN users u ON u.id = e.user_id
	           WHERE e.id = ?`
	var ev model.EventWithHost
	var userID, reviewCode, hostID, hostName, hostImage sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&ev.ID, &ev.Title, &ev.Description, &ev.Lat, &ev.Lng,
		&ev.Date, &ev.DateEnd, &userID, &reviewCode, &ev.CreatedAt,
		&hostID, &hostName, &hostImage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if userID.Valid {
		v := userID.String
		ev.UserID = &v
	}
	if reviewCode.Valid {
		v := reviewCode.String
		ev.ReviewCode = &v
	}
	if hostID.Valid {
		ev.Host = nullableUser(hostID, hostName, hostImage)
	}
	return &ev, nil
}

// GetByHost returns the event hosted by the given user, or ErrNotFound
// when they host nothing. The review code is included so the host can
// display it.
func (r *EventRepo) GetByHost(ctx context.Context, hostID string) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE user_id = ?`
	var ev model.Event
	err := scanEvent(r.db.QueryRowContext(ctx, q, hostID).Scan, &ev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// Create inserts a new event and assigns the generated UUID back onto
// the model. When the event is hosted, the unique index on user_id is
// the authority for the one-hosted-event rule: a duplicate-key failure
// is mapped to ErrAlreadyHosting so concurrent hosted inserts from the
// same caller cannot both succeed.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	e.ID = uuid.NewString()
	const q = `INSERT INTO events (id, title, description, lat, lng, starts_at, ends_at, user_id, review_code)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.Title, e.Description, e.Lat, e.Lng,
		e.Date.UTC(), e.DateEnd.UTC(), e.UserID,
	)
	if err != nil {
		if isDuplicate(err, "uq_events_host") {
			return ErrAlreadyHosting
		}
		return err
	}
	// Query back the row to populate the DB assigned created_at.
	const sel = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return scanEvent(r.db.QueryRowContext(ctx, sel, e.ID).Scan, e)
}

// Update applies a partial update to the event identified by id,
// provided it is hosted by hostID. The row is locked for the duration
// so the merged start/end pair can be validated against what is
// actually stored; an event may never be left ending before it starts,
// even when only one side of the pair is submitted. A missing row and
// a host mismatch are both reported as ErrNotFound.
func (r *EventRepo) Update(ctx context.Context, id, hostID string, in model.UpdateEventInput) (*model.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var ev model.Event
	const sel = `SELECT ` + eventColumns + ` FROM events WHERE id = ? AND user_id = ? FOR UPDATE`
	if err := scanEvent(tx.QueryRowContext(ctx, sel, id, hostID).Scan, &ev); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.Title != nil {
		ev.Title = *in.Title
	}
	if in.Description != nil {
		ev.Description = *in.Description
	}
	if in.Lat != nil {
		ev.Lat = *in.Lat
	}
	if in.Lng != nil {
		ev.Lng = *in.Lng
	}
	if in.Date != nil {
		ev.Date = in.Date.UTC()
	}
	if in.DateEnd != nil {
		ev.DateEnd = in.DateEnd.UTC()
	}
	if ev.DateEnd.Before(ev.Date) {
		return nil, model.ErrDateOrder
	}

	const upd = `UPDATE events SET title = ?, description = ?, lat = ?, lng = ?, starts_at = ?, ends_at = ?
	             WHERE id = ? AND user_id = ?`
	if _, err := tx.ExecContext(ctx, upd,
		ev.Title, ev.Description, ev.Lat, ev.Lng, ev.Date.UTC(), ev.DateEnd.UTC(),
		id, hostID,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &ev, nil
}

// SetReviewCodeByHost stores a fresh review code on the event hosted by
// hostID, overwriting any previous code, and returns the updated event.
// ErrNotFound is returned when the caller hosts nothing.
func (r *EventRepo) SetReviewCodeByHost(ctx context.Context, hostID, code string) (*model.Event, error) {
	const q = `UPDATE events SET review_code = ? WHERE user_id = ?`
	res, err := r.db.ExecContext(ctx, q, code, hostID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The UPDATE also matches zero rows when the stored code already
		// equals the new one; with random codes that is not a case worth
		// disambiguating, but verify existence before reporting not found.
		ev, err := r.GetByHost(ctx, hostID)
		if err != nil {
			return nil, err
		}
		return ev, nil
	}
	return r.GetByHost(ctx, hostID)
}

// SetReviewCodeByID is the id-parameterized variant: it stores a fresh
// review code on the event identified by id, provided hostID hosts it.
// A mismatch is indistinguishable from a missing row.
func (r *EventRepo) SetReviewCodeByID(ctx context.Context, id, hostID, code string) (*model.Event, error) {
	const q = `UPDATE events SET review_code = ? WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q, code, id, hostID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	const sel = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	var ev model.Event
	if err := scanEvent(r.db.QueryRowContext(ctx, sel, id).Scan, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Delete removes an event under the two authorization paths: the host
// may always delete their event, and anyone (including anonymous
// callers) may delete an unhosted event whose end time has passed. The
// decision and the delete happen under a row lock so a host cannot be
// attached concurrently. Reviews are removed by the FK cascade.
func (r *EventRepo) Delete(ctx context.Context, id string, callerID *string, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var hostID sql.NullString
	var endsAt time.Time
	const sel = `SELECT user_id, ends_at FROM events WHERE id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, sel, id).Scan(&hostID, &endsAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	switch {
	case hostID.Valid:
		if callerID == nil || *callerID != hostID.String {
			return ErrForbidden
		}
	default:
		if !endsAt.Before(now.UTC()) {
			return ErrForbidden
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// nullableUser builds a User from nullable profile columns. The id
// must be valid; name and image may be NULL.
func nullableUser(id, name, image sql.NullString) *model.User {
	u := &model.User{ID: id.String}
	if name.Valid {
		v := name.String
		u.Name = &v
	}
	if image.Valid {
		v := image.String
		u.Image = &v
	}
	return u
}
