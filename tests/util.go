package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/tutor"
	"github.com/trezcool/tirgul/core/video"
	"github.com/trezcool/tirgul/storage/database"
)

type (
	LogEntry struct {
		Level string
		Msg   string
		Args  []interface{}
	}

	// LoggerMock records log entries instead of printing them.
	LoggerMock struct {
		mu      sync.Mutex
		entries []LogEntry
	}
)

var _ core.Logger = (*LoggerMock)(nil)

func NewLoggerMock() *LoggerMock {
	return new(LoggerMock)
}

func (l *LoggerMock) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *LoggerMock) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *LoggerMock) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *LoggerMock) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *LoggerMock) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *LoggerMock) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Entries returns the entries logged at level, all of them if level is empty.
func (l *LoggerMock) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]LogEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			res = append(res, e)
		}
	}
	return res
}

func CreateTutor(t *testing.T, repo tutor.Repository, name string, degree catalog.Track, subjects ...string) tutor.Tutor {
	subjs := make([]tutor.Subject, 0, len(subjects))
	for _, s := range subjects {
		subjs = append(subjs, tutor.Subject{CourseName: s})
	}
	tut, err := repo.CreateTutor(context.Background(), tutor.Tutor{
		Name:     name,
		Phone:    "0521234567",
		Degree:   degree,
		Subjects: subjs,
	})
	if err != nil {
		t.Fatalf("CreateTutor() failed: %v", err)
	}
	return tut
}

func CreateFeedback(t *testing.T, repo tutor.Repository, tutorID int, userID string, rating int, comment string) tutor.Feedback {
	now := time.Now().UTC()
	fb, err := repo.CreateFeedback(context.Background(), tutor.Feedback{
		TutorID:   tutorID,
		UserID:    userID,
		Email:     userID + "@tirgul.test",
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateFeedback() failed: %v", err)
	}
	return fb
}

// CreateCourse creates a course made of consecutive episodes split at bounds, e.g. 0, 10, 20 gives [0,10) and [10,20).
func CreateCourse(t *testing.T, repo video.Repository, title, videoUID string, bounds ...float64) video.Course {
	ctx := context.Background()
	c, err := repo.CreateCourse(ctx, video.Course{Title: title, VideoUID: videoUID, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	for i := 1; i < len(bounds); i++ {
		_, err = repo.CreateEpisode(ctx, video.Episode{
			ID:        videoUID + "-ep" + string(rune('0'+i)),
			CourseID:  c.ID,
			Index:     i,
			Title:     title,
			StartTime: bounds[i-1],
			EndTime:   bounds[i],
			VideoUID:  videoUID,
		})
		if err != nil {
			t.Fatalf("CreateCourse() failed: %v", err)
		}
	}
	if c, err = repo.GetCourse(ctx, c.ID); err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

// PrepareDB opens the test database, migrated and emptied.
// The test is skipped unless TEST_DATABASE_HOST is set.
func PrepareDB(t *testing.T) *sqlx.DB {
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST not set")
	}
	t.Setenv("ENV", "TEST")
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Truncate(context.Background(), db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
