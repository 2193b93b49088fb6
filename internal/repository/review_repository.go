package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JakubGluszek/ludicrum/internal/model"
)

// ReviewRepo provides data access to the event_reviews table. Review
// creation is the one multi-step write in the system: for hosted events
// the review code must be consumed in the same transaction that inserts
// the review, so that a duplicate review rolls the consumption back and
// a concurrent reviewer racing for the same code loses cleanly.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the provided database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// ListByEvent returns all reviews for an event with each author's
// public profile attached, ordered newest first. When the event does
// not exist or has no reviews, an empty slice is returned.
func (r *ReviewRepo) ListByEvent(ctx context.Context, eventID string) ([]model.ReviewWithAuthor, error) {
	const q = `SELECT rv.id, rv.event_id, rv.user_id, rv.rating, rv.body, rv.created_at,
	                  u.id, u.name, u.image
	           FROM event_reviews rv
	           LEFT JOIN users u ON u.id = rv.user_id
	           WHERE rv.event_id = ?
	           ORDER BY rv.created_at DESC, rv.id DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.ReviewWithAuthor, 0)
	for rows.Next() {
		var rv model.ReviewWithAuthor
		var body, authorID, authorName, authorImage sql.NullString
		if err := rows.Scan(
			&rv.ID, &rv.EventID, &rv.UserID, &rv.Rating, &body, &rv.CreatedAt,
			&authorID, &authorName, &authorImage,
		); err != nil {
			return nil, err
		}
		if body.Valid {
			v := body.String
			rv.Body = &v
		}
		if authorID.Valid {
			rv.Author = *nullableUser(authorID, authorName, authorImage)
		} else {
			// Author row missing from the profile mirror; keep the id so
			// the client can still attribute the review.
			rv.Author = model.User{ID: rv.UserID}
		}
		result = append(result, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts a review for the given event by the given user,
// enforcing the full submission protocol in one transaction:
//
//  1. the event row is read under a lock; a missing event is ErrNotFound
//  2. an event that has not started at `now` is ErrNotStarted
//  3. for hosted events the supplied code is consumed by a
//     compare-and-swap UPDATE against the stored code; any mismatch,
//     including a code already consumed by a faster reviewer, is
//     ErrCodeMismatch
//  4. the insert itself relies on the (user_id, event_id) unique index;
//     a duplicate maps to ErrDuplicateReview and rolls the transaction
//     back, leaving the code unconsumed
//
// On success the created review is returned with the generated id and
// timestamp populated.
func (r *ReviewRepo) Create(ctx context.Context, eventID, userID string, in model.CreateReviewInput, now time.Time) (*model.Review, error) {
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

	var hostID, storedCode sql.NullString
	var startsAt time.Time
	const sel = `SELECT user_id, review_code, starts_at FROM events WHERE id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, sel, eventID).Scan(&hostID, &storedCode, &startsAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if startsAt.After(now.UTC()) {
		return nil, ErrNotStarted
	}

	if hostID.Valid {
		if in.Code == nil || !storedCode.Valid || *in.Code != storedCode.String {
			return nil, ErrCodeMismatch
		}
		// Consume the code with a compare-and-swap so the transition is
		// atomic even across service instances.
		res, err := tx.ExecContext(ctx,
			`UPDATE events SET review_code = NULL WHERE id = ? AND review_code = ?`,
			eventID, *in.Code,
		)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrCodeMismatch
		}
	}

	rv := &model.Review{
		ID:      uuid.NewString(),
		EventID: eventID,
		UserID:  userID,
		Rating:  in.Rating,
		Body:    in.Body,
	}
	const ins = `INSERT INTO event_reviews (id, event_id, user_id, rating, body) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins, rv.ID, rv.EventID, rv.UserID, rv.Rating, rv.Body); err != nil {
		if isDuplicate(err, "uq_review_author") {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	const sel2 = `SELECT created_at FROM event_reviews WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel2, rv.ID).Scan(&rv.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return rv, nil
}

// Delete removes a review, provided the caller authored it on the
// given event. The composite filter on (id, event_id, user_id) makes a
// foreign review indistinguishable from a missing one.
func (r *ReviewRepo) Delete(ctx context.Context, id, eventID, userID string) error {
	const q = `DELETE FROM event_reviews WHERE id = ? AND event_id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, eventID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
