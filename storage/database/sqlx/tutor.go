package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/tutor"
)

type (
	tutorRow struct {
		ID     int    `db:"id"`
		Name   string `db:"name"`
		Phone  string `db:"phone"`
		Degree string `db:"degree"`
	}

	subjectRow struct {
		TutorID    int    `db:"tutor_id"`
		CourseName string `db:"course_name"`
	}

	feedbackRow struct {
		ID        int         `db:"id"`
		TutorID   int         `db:"tutor_id"`
		UserID    string      `db:"user_id"`
		Email     string      `db:"email"`
		Rating    int         `db:"rating"`
		Comment   null.String `db:"comment"`
		CreatedAt time.Time   `db:"created_at"`
		UpdatedAt time.Time   `db:"updated_at"`
	}

	requestRow struct {
		ID        string         `db:"id"`
		Name      string         `db:"name"`
		Phone     string         `db:"phone"`
		Degree    string         `db:"degree"`
		Subjects  pq.StringArray `db:"subjects"`
		Email     string         `db:"email"`
		CreatedAt time.Time      `db:"created_at"`
	}
)

func (r feedbackRow) feedback() tutor.Feedback {
	return tutor.Feedback{
		ID:        r.ID,
		TutorID:   r.TutorID,
		UserID:    r.UserID,
		Email:     r.Email,
		Rating:    r.Rating,
		Comment:   r.Comment.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (r requestRow) request() tutor.TutorRequest {
	return tutor.TutorRequest{
		ID:        r.ID,
		Name:      r.Name,
		Phone:     r.Phone,
		Degree:    catalog.Track(r.Degree),
		Subjects:  []string(r.Subjects),
		Email:     r.Email,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

const (
	feedbackColumns = "id, tutor_id, user_id, email, rating, comment, created_at, updated_at"
	requestColumns  = "id, name, phone, degree, subjects, email, created_at"
)

var requestOrderingFields = []string{"created_at", "name", "degree"}

type tutorRepository struct {
	db *sqlx.DB
}

var _ tutor.Repository = (*tutorRepository)(nil) // interface compliance check

func NewTutorRepository(db *sqlx.DB) *tutorRepository {
	return &tutorRepository{db: db}
}

// populate loads the subjects and feedback of tutors.
func (repo *tutorRepository) populate(ctx context.Context, rows []tutorRow) ([]tutor.Tutor, error) {
	tutors := make([]tutor.Tutor, 0, len(rows))
	if len(rows) == 0 {
		return tutors, nil
	}

	ids := make([]int, 0, len(rows))
	byID := make(map[int]int, len(rows)) // {tutor ID: index in tutors}
	for i, r := range rows {
		ids = append(ids, r.ID)
		byID[r.ID] = i
		tutors = append(tutors, tutor.Tutor{
			ID:       r.ID,
			Name:     r.Name,
			Phone:    r.Phone,
			Degree:   catalog.Track(r.Degree),
			Subjects: []tutor.Subject{},
			Feedback: []tutor.Feedback{},
		})
	}

	q, args, err := sqlx.In("SELECT tutor_id, course_name FROM tutor_subject WHERE tutor_id IN (?) ORDER BY course_name", ids)
	if err != nil {
		return nil, errors.Wrap(err, "building subjects query")
	}
	var subjs []subjectRow
	if err = repo.db.SelectContext(ctx, &subjs, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	for _, s := range subjs {
		t := &tutors[byID[s.TutorID]]
		t.Subjects = append(t.Subjects, tutor.Subject{CourseName: s.CourseName})
	}

	q, args, err = sqlx.In("SELECT "+feedbackColumns+" FROM feedback WHERE tutor_id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, errors.Wrap(err, "building feedback query")
	}
	var fbs []feedbackRow
	if err = repo.db.SelectContext(ctx, &fbs, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying feedback")
	}
	for _, fb := range fbs {
		t := &tutors[byID[fb.TutorID]]
		t.Feedback = append(t.Feedback, fb.feedback())
	}
	return tutors, nil
}

func (repo *tutorRepository) QueryTutors(ctx context.Context, degree catalog.Track) ([]tutor.Tutor, error) {
	var rows []tutorRow
	err := repo.db.SelectContext(ctx, &rows, "SELECT id, name, phone, degree FROM tutor WHERE degree = $1 ORDER BY id", string(degree))
	if err != nil {
		return nil, errors.Wrap(err, "querying tutors")
	}
	return repo.populate(ctx, rows)
}

func (repo *tutorRepository) GetTutor(ctx context.Context, id int) (tutor.Tutor, error) {
	var row tutorRow
	if err := repo.db.GetContext(ctx, &row, "SELECT id, name, phone, degree FROM tutor WHERE id = $1", id); err != nil {
		return tutor.Tutor{}, trapNoRowsErr(err, tutor.ErrTutorNotFound, "getting tutor")
	}
	tutors, err := repo.populate(ctx, []tutorRow{row})
	if err != nil {
		return tutor.Tutor{}, err
	}
	return tutors[0], nil
}

func (repo *tutorRepository) CreateTutor(ctx context.Context, t tutor.Tutor) (tutor.Tutor, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &t.ID,
			"INSERT INTO tutor (name, phone, degree) VALUES ($1, $2, $3) RETURNING id",
			t.Name, t.Phone, string(t.Degree))
		if err != nil {
			return errors.Wrap(err, "inserting tutor")
		}
		for _, s := range t.Subjects {
			_, err = tx.ExecContext(ctx, "INSERT INTO tutor_subject (tutor_id, course_name) VALUES ($1, $2) ON CONFLICT DO NOTHING", t.ID, s.CourseName)
			if err != nil {
				return errors.Wrap(err, "inserting subject")
			}
		}
		return nil
	})
	if err != nil {
		return tutor.Tutor{}, err
	}
	return repo.GetTutor(ctx, t.ID)
}

func (repo *tutorRepository) GetFeedback(ctx context.Context, tutorID int, userID string) (tutor.Feedback, error) {
	var row feedbackRow
	err := repo.db.GetContext(ctx, &row, "SELECT "+feedbackColumns+" FROM feedback WHERE tutor_id = $1 AND user_id = $2", tutorID, userID)
	if err != nil {
		return tutor.Feedback{}, trapNoRowsErr(err, tutor.ErrFeedbackNotFound, "getting feedback")
	}
	return row.feedback(), nil
}

func (repo *tutorRepository) CreateFeedback(ctx context.Context, fb tutor.Feedback) (tutor.Feedback, error) {
	err := repo.db.GetContext(ctx, &fb.ID,
		`INSERT INTO feedback (tutor_id, user_id, email, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		fb.TutorID, fb.UserID, fb.Email, fb.Rating, null.NewString(fb.Comment, fb.Comment != ""), fb.CreatedAt.UTC(), fb.UpdatedAt.UTC())
	if err != nil {
		return tutor.Feedback{}, trapUniqueErr(err, tutor.ErrDuplicateFeedback, "inserting feedback")
	}
	return fb, nil
}

func (repo *tutorRepository) UpdateFeedback(ctx context.Context, fb tutor.Feedback) (tutor.Feedback, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE feedback SET rating = $1, comment = $2, email = $3, updated_at = $4 WHERE id = $5",
		fb.Rating, null.NewString(fb.Comment, fb.Comment != ""), fb.Email, fb.UpdatedAt.UTC(), fb.ID)
	if err != nil {
		return tutor.Feedback{}, errors.Wrap(err, "updating feedback")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tutor.Feedback{}, tutor.ErrFeedbackNotFound
	}
	return fb, nil
}

func (repo *tutorRepository) DeleteFeedback(ctx context.Context, tutorID int, userID string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM feedback WHERE tutor_id = $1 AND user_id = $2", tutorID, userID)
	if err != nil {
		return errors.Wrap(err, "deleting feedback")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tutor.ErrFeedbackNotFound
	}
	return nil
}

func (repo *tutorRepository) CreateRequest(ctx context.Context, req tutor.TutorRequest) (tutor.TutorRequest, error) {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO tutor_request ("+requestColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		req.ID, req.Name, req.Phone, string(req.Degree), pq.StringArray(req.Subjects), req.Email, req.CreatedAt.UTC())
	if err != nil {
		return tutor.TutorRequest{}, errors.Wrap(err, "inserting tutor request")
	}
	return req, nil
}

func (repo *tutorRepository) QueryRequests(ctx context.Context, orderings ...core.DBOrdering) ([]tutor.TutorRequest, error) {
	orderBy, err := core.OrderingClause(orderings, "created_at DESC", requestOrderingFields...)
	if err != nil {
		return nil, err
	}
	var rows []requestRow
	if err = repo.db.SelectContext(ctx, &rows, "SELECT "+requestColumns+" FROM tutor_request "+orderBy); err != nil {
		return nil, errors.Wrap(err, "querying tutor requests")
	}
	reqs := make([]tutor.TutorRequest, 0, len(rows))
	for _, r := range rows {
		reqs = append(reqs, r.request())
	}
	return reqs, nil
}
