package inmemdb

import (
	"sync"
	"time"

	"github.com/trezcool/tirgul/core/session"
	"github.com/trezcool/tirgul/core/tutor"
	"github.com/trezcool/tirgul/core/video"
)

type (
	// DB keeps every table in memory. It is used by tests and by the "inmem" database engine.
	DB struct {
		tutor   *tutorTables
		video   *videoTables
		session *sessionTable
	}

	tutorTables struct {
		sync.RWMutex
		pk       int
		fbPK     int
		tutors   map[int]*tutor.Tutor
		feedback map[int]*tutor.Feedback
		requests map[string]*tutor.TutorRequest
	}

	accessKey struct {
		userID   string
		courseID int
	}

	watchedKey struct {
		userID    string
		episodeID string
	}

	videoTables struct {
		sync.RWMutex
		pk       int
		courses  map[int]*video.Course
		episodes map[string]*video.Episode
		access   map[accessKey]time.Time
		watched  map[watchedKey]time.Time
		devices  map[string]*video.Device
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session
	}
)

func Open() (*DB, error) {
	db := &DB{
		tutor: &tutorTables{
			tutors:   make(map[int]*tutor.Tutor),
			feedback: make(map[int]*tutor.Feedback),
			requests: make(map[string]*tutor.TutorRequest),
		},
		video: &videoTables{
			courses:  make(map[int]*video.Course),
			episodes: make(map[string]*video.Episode),
			access:   make(map[accessKey]time.Time),
			watched:  make(map[watchedKey]time.Time),
			devices:  make(map[string]*video.Device),
		},
		session: &sessionTable{table: make(map[string]*session.Session)},
	}
	return db, nil
}
