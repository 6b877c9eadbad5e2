package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core/attempt"
	"github.com/ecrmi/institute/storage/database"
)

type attemptRow struct {
	ID               string      `db:"id"`
	ParticipantName  string      `db:"participant_name"`
	ParticipantEmail string      `db:"participant_email"`
	CourseID         string      `db:"course_id"`
	Answers          answerSlice `db:"answers"`
	Score            int         `db:"score"`
	Passed           bool        `db:"passed"`
	SeqNo            int         `db:"seq_no"`
	CreatedAt        time.Time   `db:"created_at"`
}

type attemptRepository struct {
	db *sqlx.DB
}

var _ attempt.Repository = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *sqlx.DB) *attemptRepository {
	return &attemptRepository{db: db}
}

func (repo attemptRepository) unrow(r attemptRow) attempt.Attempt {
	return attempt.Attempt{
		ID:               r.ID,
		ParticipantName:  r.ParticipantName,
		ParticipantEmail: r.ParticipantEmail,
		CourseID:         r.CourseID,
		Answers:          []*int(r.Answers),
		Score:            r.Score,
		Passed:           r.Passed,
		SeqNo:            r.SeqNo,
		CreatedAt:        r.CreatedAt,
	}
}

func (repo attemptRepository) unrowSlice(rows []attemptRow) []attempt.Attempt {
	atts := make([]attempt.Attempt, 0, len(rows))
	for _, r := range rows {
		atts = append(atts, repo.unrow(r))
	}
	return atts
}

// CreateAttempt assigns the next sequence number for the (email, course) pair
// in the INSERT itself; the unique (email, course, seq_no) index makes the
// count-and-insert atomic. A losing writer gets a unique violation and simply
// retries; a pair already at the cap selects no row to insert.
func (repo attemptRepository) CreateAttempt(ctx context.Context, att attempt.Attempt) (attempt.Attempt, error) {
	const q = `
		INSERT INTO attempt (id, participant_name, participant_email, course_id, answers, score, passed, seq_no, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, COALESCE(MAX(seq_no), 0) + 1, $8
		FROM attempt
		WHERE participant_email = $3 AND course_id = $4
		HAVING COALESCE(MAX(seq_no), 0) < $9
		RETURNING seq_no`

	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		att.ID = uuid.New().String()
		err := repo.db.QueryRowContext(ctx, q,
			att.ID, att.ParticipantName, att.ParticipantEmail, att.CourseID,
			answerSlice(att.Answers), att.Score, att.Passed, att.CreatedAt.UTC(), attempt.MaxAttempts,
		).Scan(&att.SeqNo)
		if err == nil {
			return att, nil
		}
		if errors.Cause(err) == sql.ErrNoRows {
			return attempt.Attempt{}, attempt.ErrAttemptsExhausted
		}
		if database.IsUniqueViolation(err) {
			continue // lost the race, recompute seq_no
		}
		return attempt.Attempt{}, errors.Wrap(err, "inserting attempt")
	}
	return attempt.Attempt{}, attempt.ErrAttemptsExhausted
}

func (repo attemptRepository) QueryAttempts(ctx context.Context) ([]attempt.Attempt, error) {
	var rows []attemptRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM attempt ORDER BY created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	return repo.unrowSlice(rows), nil
}

func (repo attemptRepository) QueryAttemptsByEmail(ctx context.Context, email string) ([]attempt.Attempt, error) {
	var rows []attemptRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM attempt WHERE participant_email = $1 ORDER BY created_at", email); err != nil {
		return nil, errors.Wrap(err, "querying attempts by email")
	}
	return repo.unrowSlice(rows), nil
}

func (repo attemptRepository) DeleteAttempts(ctx context.Context, email, courseID string) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM attempt WHERE participant_email = $1 AND course_id = $2", email, courseID); err != nil {
		return errors.Wrap(err, "deleting attempts")
	}
	return nil
}
