package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/tutor"
)

type tutorRepository struct {
	db *tutorTables
}

var _ tutor.Repository = (*tutorRepository)(nil) // interface compliance check

func NewTutorRepository(db *DB) *tutorRepository {
	return &tutorRepository{db: db.tutor}
}

// withFeedback must be called with the lock held.
func (repo *tutorRepository) withFeedback(t tutor.Tutor) tutor.Tutor {
	t.Subjects = append([]tutor.Subject(nil), t.Subjects...)
	t.Feedback = make([]tutor.Feedback, 0)
	for _, fb := range repo.db.feedback {
		if fb.TutorID == t.ID {
			t.Feedback = append(t.Feedback, *fb)
		}
	}
	sort.Slice(t.Feedback, func(i, j int) bool { return t.Feedback[i].ID < t.Feedback[j].ID })
	return t
}

func (repo *tutorRepository) QueryTutors(_ context.Context, degree catalog.Track) ([]tutor.Tutor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tutors := make([]tutor.Tutor, 0, len(repo.db.tutors))
	for _, t := range repo.db.tutors {
		if t.Degree == degree {
			tutors = append(tutors, repo.withFeedback(*t))
		}
	}
	sort.Slice(tutors, func(i, j int) bool { return tutors[i].ID < tutors[j].ID })
	return tutors, nil
}

func (repo *tutorRepository) GetTutor(_ context.Context, id int) (tutor.Tutor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.tutors[id]; ok {
		return repo.withFeedback(*t), nil
	}
	return tutor.Tutor{}, tutor.ErrTutorNotFound
}

func (repo *tutorRepository) CreateTutor(_ context.Context, t tutor.Tutor) (tutor.Tutor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	t.ID = repo.db.pk
	t.Feedback = nil
	t.Subjects = append([]tutor.Subject(nil), t.Subjects...)
	repo.db.tutors[t.ID] = &t
	return repo.withFeedback(t), nil
}

// findFeedback must be called with the lock held.
func (repo *tutorRepository) findFeedback(tutorID int, userID string) *tutor.Feedback {
	for _, fb := range repo.db.feedback {
		if fb.TutorID == tutorID && fb.UserID == userID {
			return fb
		}
	}
	return nil
}

func (repo *tutorRepository) GetFeedback(_ context.Context, tutorID int, userID string) (tutor.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if fb := repo.findFeedback(tutorID, userID); fb != nil {
		return *fb, nil
	}
	return tutor.Feedback{}, tutor.ErrFeedbackNotFound
}

func (repo *tutorRepository) CreateFeedback(_ context.Context, fb tutor.Feedback) (tutor.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tutors[fb.TutorID]; !ok {
		return tutor.Feedback{}, tutor.ErrTutorNotFound
	}
	if repo.findFeedback(fb.TutorID, fb.UserID) != nil {
		return tutor.Feedback{}, tutor.ErrDuplicateFeedback
	}
	repo.db.fbPK++
	fb.ID = repo.db.fbPK
	repo.db.feedback[fb.ID] = &fb
	return fb, nil
}

func (repo *tutorRepository) UpdateFeedback(_ context.Context, fb tutor.Feedback) (tutor.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.feedback[fb.ID]
	if !ok {
		return tutor.Feedback{}, tutor.ErrFeedbackNotFound
	}
	orig.Rating = fb.Rating
	orig.Comment = fb.Comment
	orig.Email = fb.Email
	orig.UpdatedAt = fb.UpdatedAt
	return *orig, nil
}

func (repo *tutorRepository) DeleteFeedback(_ context.Context, tutorID int, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	fb := repo.findFeedback(tutorID, userID)
	if fb == nil {
		return tutor.ErrFeedbackNotFound
	}
	delete(repo.db.feedback, fb.ID)
	return nil
}

func (repo *tutorRepository) CreateRequest(_ context.Context, req tutor.TutorRequest) (tutor.TutorRequest, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	req.Subjects = append([]string(nil), req.Subjects...)
	repo.db.requests[req.ID] = &req
	return req, nil
}

func (repo *tutorRepository) QueryRequests(_ context.Context, orderings ...core.DBOrdering) ([]tutor.TutorRequest, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reqs := make([]tutor.TutorRequest, 0, len(repo.db.requests))
	for _, r := range repo.db.requests {
		reqs = append(reqs, *r)
	}
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		for _, o := range orderings {
			c := compareRequests(reqs[i], reqs[j], o.Field)
			if c == 0 {
				continue
			}
			if o.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return reqs, nil
}

func compareRequests(a, b tutor.TutorRequest, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "degree":
		return strings.Compare(string(a.Degree), string(b.Degree))
	default:
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}
