package tutor

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/user"
)

var (
	// errors (user facing)
	ErrTutorNotFound     = errors.New("המתרגל לא נמצא")
	ErrFeedbackNotFound  = errors.New("לא נמצא משוב למחיקה")
	ErrDuplicateFeedback = errors.New("כבר השארת משוב למתרגל זה")

	requestOrderingFields = []string{"created_at", "name", "degree"}
)

type (
	Repository interface {
		// QueryTutors returns the tutors of degree with their subjects and feedback.
		QueryTutors(ctx context.Context, degree catalog.Track) ([]Tutor, error)
		GetTutor(ctx context.Context, id int) (Tutor, error)
		CreateTutor(ctx context.Context, t Tutor) (Tutor, error)
		GetFeedback(ctx context.Context, tutorID int, userID string) (Feedback, error)
		// CreateFeedback fails with ErrDuplicateFeedback if the user already rated the tutor.
		CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
		UpdateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
		DeleteFeedback(ctx context.Context, tutorID int, userID string) error
		CreateRequest(ctx context.Context, req TutorRequest) (TutorRequest, error)
		QueryRequests(ctx context.Context, orderings ...core.DBOrdering) ([]TutorRequest, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
		conf     *core.Config
	}
)

func NewService(
	repo Repository,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
		conf:     conf,
	}
}

// Query fetches the tutors of degree with their derived ratings, sorted by rating.
func (svc *Service) Query(ctx context.Context, degree catalog.Track) ([]Tutor, error) {
	tutors, err := svc.repo.QueryTutors(ctx, degree)
	if err != nil {
		return nil, errors.Wrap(err, "querying tutors")
	}

	derived := make([]Tutor, 0, len(tutors))
	for _, t := range tutors {
		derived = append(derived, Derive(t))
	}
	return SortByRating(derived), nil
}

// Refresh is Query for the student facing list.
// On failure, or when none is found, the default roster is returned instead.
func (svc *Service) Refresh(ctx context.Context, degree catalog.Track) []Tutor {
	tutors, err := svc.Query(ctx, degree)
	if err != nil {
		svc.logger.Error("querying tutors", err, map[string]interface{}{"degree": degree})
		return SortByRating(DefaultRoster(degree))
	}
	if len(tutors) == 0 {
		svc.logger.Warn("no tutors found, listing default roster", map[string]interface{}{"degree": degree})
		return SortByRating(DefaultRoster(degree))
	}
	return tutors
}

// List returns the visible tutors of degree teaching course (any course if empty).
func (svc *Service) List(ctx context.Context, degree catalog.Track, course string, showAll bool) Page {
	tutors := FilterByCourse(svc.Refresh(ctx, degree), core.CleanString(course))
	return Paginate(tutors, showAll)
}

// SubmitFeedback creates the user's feedback about the tutor, or updates it if there is one already.
// The refreshed tutor list of the tutor's degree is returned.
func (svc *Service) SubmitFeedback(ctx context.Context, usr user.User, tutorID int, nf NewFeedback) ([]Tutor, error) {
	if err := nf.Validate(svc.validate); err != nil {
		return nil, err
	}

	t, err := svc.repo.GetTutor(ctx, tutorID)
	if err != nil {
		return nil, errors.Wrap(err, "getting tutor")
	}

	now := time.Now().UTC()
	fb, err := svc.repo.GetFeedback(ctx, tutorID, usr.ID)
	switch errors.Cause(err) {
	case nil:
		fb.Rating = nf.Rating
		fb.Comment = nf.Comment
		fb.Email = usr.Email
		fb.UpdatedAt = now
		if _, err = svc.repo.UpdateFeedback(ctx, fb); err != nil {
			return nil, errors.Wrap(err, "updating feedback")
		}
	case ErrFeedbackNotFound:
		fb = Feedback{
			TutorID:   tutorID,
			UserID:    usr.ID,
			Email:     usr.Email,
			Rating:    nf.Rating,
			Comment:   nf.Comment,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err = svc.repo.CreateFeedback(ctx, fb); err != nil {
			return nil, errors.Wrap(err, "creating feedback")
		}
	default:
		return nil, errors.Wrap(err, "getting feedback")
	}

	return svc.Refresh(ctx, t.Degree), nil
}

// DeleteFeedback deletes the user's feedback about the tutor and returns the refreshed tutor list.
func (svc *Service) DeleteFeedback(ctx context.Context, usr user.User, tutorID int) ([]Tutor, error) {
	t, err := svc.repo.GetTutor(ctx, tutorID)
	if err != nil {
		return nil, errors.Wrap(err, "getting tutor")
	}
	if err = svc.repo.DeleteFeedback(ctx, tutorID, usr.ID); err != nil {
		return nil, errors.Wrap(err, "deleting feedback")
	}
	return svc.Refresh(ctx, t.Degree), nil
}

// RequestListing stores a "become a tutor" request and notifies the admins.
func (svc *Service) RequestListing(ctx context.Context, nr NewTutorRequest) (TutorRequest, error) {
	if err := nr.Validate(svc.validate); err != nil {
		return TutorRequest{}, err
	}

	req, err := svc.repo.CreateRequest(ctx, TutorRequest{
		ID:        uuid.NewString(),
		Name:      nr.Name,
		Phone:     nr.Phone,
		Degree:    catalog.Track(nr.Degree),
		Subjects:  nr.Subjects,
		Email:     nr.Email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return TutorRequest{}, errors.Wrap(err, "creating tutor request")
	}

	svc.notifyAdmins(req)
	return req, nil
}

func (svc *Service) notifyAdmins(req TutorRequest) {
	if len(svc.conf.AdminEmails) == 0 {
		svc.logger.Warn("no admin to notify about tutor request", map[string]interface{}{"request": req.ID})
		return
	}

	to := make([]mail.Address, 0, len(svc.conf.AdminEmails))
	for _, email := range svc.conf.AdminEmails {
		to = append(to, mail.Address{Address: email})
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("בקשת הצטרפות חדשה: %s", req.Name),
		TemplateName: "tutor_request",
		TemplateData: req,
	})
}

func (svc *Service) QueryRequests(ctx context.Context, orderings ...core.DBOrdering) ([]TutorRequest, error) {
	if _, err := core.OrderingClause(orderings, "", requestOrderingFields...); err != nil {
		return nil, core.NewFieldError("ordering", "שדה מיון לא חוקי")
	}
	return svc.repo.QueryRequests(ctx, orderings...)
}

// CreateTutor lists a new tutor. Every subject must be a course of the tutor's degree.
func (svc *Service) CreateTutor(ctx context.Context, nt NewTutor) (Tutor, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Tutor{}, err
	}

	degree := catalog.Track(nt.Degree)
	subjs := make([]Subject, 0, len(nt.Subjects))
	for _, name := range nt.Subjects {
		if _, _, ok := catalog.FindCourse(degree, name); !ok {
			return Tutor{}, core.NewFieldError("subjects", fmt.Sprintf("הקורס %q לא קיים במסלול", name))
		}
		subjs = append(subjs, Subject{CourseName: name})
	}

	t, err := svc.repo.CreateTutor(ctx, Tutor{
		Name:     nt.Name,
		Phone:    nt.Phone,
		Degree:   degree,
		Subjects: subjs,
	})
	if err != nil {
		return Tutor{}, errors.Wrap(err, "creating tutor")
	}
	return Derive(t), nil
}
