package tutor_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/tutor"
	"github.com/trezcool/tirgul/core/user"
	emailsvc "github.com/trezcool/tirgul/services/email"
	"github.com/trezcool/tirgul/storage/database/inmem"
	"github.com/trezcool/tirgul/tests"
)

type failingRepository struct {
	tutor.Repository
}

func (failingRepository) QueryTutors(context.Context, catalog.Track) ([]tutor.Tutor, error) {
	return nil, errors.New("connection refused")
}

type fixture struct {
	svc    *tutor.Service
	repo   tutor.Repository
	mail   *emailsvc.ConsoleServiceMock
	logger *testutil.LoggerMock
}

func setup(t *testing.T, wrap ...func(tutor.Repository) tutor.Repository) fixture {
	db, err := inmemdb.Open()
	require.NoError(t, err)

	var repo tutor.Repository = inmemdb.NewTutorRepository(db)
	for _, w := range wrap {
		repo = w(repo)
	}

	conf := core.NewTestConfig()
	logger := testutil.NewLoggerMock()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	tutor.InitValidators(validate, translator)
	core.ParseEmailTemplates(logger, true /* strict */)

	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	return fixture{
		svc:    tutor.NewService(repo, mail, logger, validate, conf),
		repo:   repo,
		mail:   mail,
		logger: logger,
	}
}

func tutorIDs(tutors []tutor.Tutor) []int {
	res := make([]int, 0, len(tutors))
	for _, t := range tutors {
		res = append(res, t.ID)
	}
	return res
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("sorted by rating", func(t *testing.T) {
		f := setup(t)
		a := testutil.CreateTutor(t, f.repo, "A", catalog.TrackCS, "מבני נתונים")
		b := testutil.CreateTutor(t, f.repo, "B", catalog.TrackCS, "אלגוריתמים 1")
		c := testutil.CreateTutor(t, f.repo, "C", catalog.TrackCS, "מערכות הפעלה")
		testutil.CreateTutor(t, f.repo, "EE", catalog.TrackEE, "מעגלים חשמליים")
		testutil.CreateFeedback(t, f.repo, b.ID, "u1", 3, "")
		testutil.CreateFeedback(t, f.repo, c.ID, "u1", 5, "")
		testutil.CreateFeedback(t, f.repo, c.ID, "u2", 4, "")

		tutors := f.svc.Refresh(ctx, catalog.TrackCS)
		assert.Equal(t, []int{c.ID, b.ID, a.ID}, tutorIDs(tutors))
		assert.Equal(t, 2, tutors[0].FeedbackCount)
		assert.InDelta(t, 4.5, *tutors[0].AverageRating, 0.001)
	})

	t.Run("none found", func(t *testing.T) {
		f := setup(t)
		tutors := f.svc.Refresh(ctx, catalog.TrackEE)
		assert.Equal(t, tutorIDs(tutor.DefaultRoster(catalog.TrackEE)), tutorIDs(tutors))
		assert.Len(t, f.logger.Entries("warn"), 1)
	})

	t.Run("repository failure", func(t *testing.T) {
		f := setup(t, func(r tutor.Repository) tutor.Repository { return failingRepository{r} })
		tutors := f.svc.Refresh(ctx, catalog.TrackCS)
		assert.Equal(t, tutorIDs(tutor.DefaultRoster(catalog.TrackCS)), tutorIDs(tutors))
		assert.Len(t, f.logger.Entries("error"), 1)
	})
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()

	t.Run("sorted by rating", func(t *testing.T) {
		f := setup(t)
		a := testutil.CreateTutor(t, f.repo, "A", catalog.TrackCS, "מבני נתונים")
		b := testutil.CreateTutor(t, f.repo, "B", catalog.TrackCS, "אלגוריתמים 1")
		testutil.CreateFeedback(t, f.repo, b.ID, "u1", 5, "")

		tutors, err := f.svc.Query(ctx, catalog.TrackCS)
		require.NoError(t, err)
		assert.Equal(t, []int{b.ID, a.ID}, tutorIDs(tutors))
		assert.Equal(t, 1, tutors[0].FeedbackCount)
	})

	t.Run("none found", func(t *testing.T) {
		f := setup(t)
		tutors, err := f.svc.Query(ctx, catalog.TrackEE)
		require.NoError(t, err)
		assert.Empty(t, tutors)
		assert.Empty(t, f.logger.Entries("warn"))
	})

	t.Run("repository failure", func(t *testing.T) {
		f := setup(t, func(r tutor.Repository) tutor.Repository { return failingRepository{r} })
		tutors, err := f.svc.Query(ctx, catalog.TrackCS)
		assert.EqualError(t, err, "querying tutors: connection refused")
		assert.Nil(t, tutors)
	})
}

func TestService_List(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		testutil.CreateTutor(t, f.repo, "T", catalog.TrackCS, "מבני נתונים")
	}
	other := testutil.CreateTutor(t, f.repo, "O", catalog.TrackCS, "מערכות הפעלה")

	page := f.svc.List(ctx, catalog.TrackCS, "", false)
	assert.Len(t, page.Tutors, tutor.TutorsPerPage)
	assert.Equal(t, 8, page.Total)
	assert.True(t, page.HasMore)

	page = f.svc.List(ctx, catalog.TrackCS, "", true)
	assert.Len(t, page.Tutors, 8)
	assert.False(t, page.HasMore)

	page = f.svc.List(ctx, catalog.TrackCS, " מערכות ", false)
	assert.Equal(t, []int{other.ID}, tutorIDs(page.Tutors))
}

func TestService_SubmitFeedback(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	usr := user.User{ID: "u1", Email: "u1@tirgul.test"}
	tut := testutil.CreateTutor(t, f.repo, "Noa", catalog.TrackCS, "מבני נתונים")

	_, err := f.svc.SubmitFeedback(ctx, usr, tut.ID, tutor.NewFeedback{Rating: 9})
	assert.IsType(t, validator.ValidationErrors{}, err)

	_, err = f.svc.SubmitFeedback(ctx, usr, 999, tutor.NewFeedback{Rating: 4})
	assert.Equal(t, tutor.ErrTutorNotFound, errors.Cause(err))

	tutors, err := f.svc.SubmitFeedback(ctx, usr, tut.ID, tutor.NewFeedback{Rating: 4, Comment: " ok "})
	require.NoError(t, err)
	require.Len(t, tutors, 1)
	assert.Equal(t, 1, tutors[0].FeedbackCount)
	assert.Equal(t, "ok", tutors[0].Feedback[0].Comment)

	// submitting again updates
	tutors, err = f.svc.SubmitFeedback(ctx, usr, tut.ID, tutor.NewFeedback{Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, tutors[0].FeedbackCount)
	assert.InDelta(t, 2, *tutors[0].AverageRating, 0.001)

	tutors, err = f.svc.DeleteFeedback(ctx, usr, tut.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, tutors[0].FeedbackCount)
	assert.Nil(t, tutors[0].AverageRating)

	_, err = f.svc.DeleteFeedback(ctx, usr, tut.ID)
	assert.Equal(t, tutor.ErrFeedbackNotFound, errors.Cause(err))
}

func TestService_RequestListing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.RequestListing(ctx, tutor.NewTutorRequest{Name: "Noa"})
	assert.Error(t, err)
	assert.Empty(t, f.mail.Sent())

	req, err := f.svc.RequestListing(ctx, tutor.NewTutorRequest{
		Name:     "Noa",
		Phone:    "0521234567",
		Degree:   "cs",
		Subjects: []string{"מבני נתונים", "אלגוריתמים 1"},
		Email:    "noa@tirgul.test",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)

	sent := f.mail.Sent()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "admin@tirgul.test", sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, "0521234567")
		assert.Contains(t, sent[0].TextContent, "מבני נתונים, אלגוריתמים 1")
		assert.Contains(t, sent[0].HTMLContent, "noa@tirgul.test")
	}

	reqs, err := f.svc.QueryRequests(ctx, core.DBOrdering{Field: "name"})
	require.NoError(t, err)
	assert.Len(t, reqs, 1)

	_, err = f.svc.QueryRequests(ctx, core.DBOrdering{Field: "phone"})
	assert.IsType(t, &core.ValidationError{}, err)
}

func TestService_CreateTutor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tut, err := f.svc.CreateTutor(ctx, tutor.NewTutor{Name: "Noa", Phone: "0521234567", Degree: "cs", Subjects: []string{"מבני נתונים"}})
	require.NoError(t, err)
	assert.Greater(t, tut.ID, 0)
	assert.Equal(t, []string{"מבני נתונים"}, tut.SubjectNames())

	_, err = f.svc.CreateTutor(ctx, tutor.NewTutor{Name: "Omer", Phone: "0521234567", Degree: "ee", Subjects: []string{"מבני נתונים"}})
	if assert.IsType(t, &core.ValidationError{}, err) {
		assert.Equal(t, "subjects", err.(*core.ValidationError).Fields[0].Field)
	}
}
