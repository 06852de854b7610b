package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/tirgul/core/video"
)

type videoRepository struct {
	db *videoTables
}

var _ video.Repository = (*videoRepository)(nil) // interface compliance check

func NewVideoRepository(db *DB) *videoRepository {
	return &videoRepository{db: db.video}
}

// episodesOf must be called with the lock held.
func (repo *videoRepository) episodesOf(courseID int) []video.Episode {
	eps := make([]video.Episode, 0)
	for _, e := range repo.db.episodes {
		if e.CourseID == courseID {
			eps = append(eps, *e)
		}
	}
	sort.Slice(eps, func(i, j int) bool { return eps[i].Index < eps[j].Index })
	return eps
}

func (repo *videoRepository) CreateCourse(_ context.Context, c video.Course) (video.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	c.ID = repo.db.pk
	c.Episodes = nil
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *videoRepository) GetCourse(_ context.Context, id int) (video.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	c, ok := repo.db.courses[id]
	if !ok {
		return video.Course{}, video.ErrCourseNotFound
	}
	res := *c
	res.Episodes = repo.episodesOf(id)
	return res, nil
}

func (repo *videoRepository) QueryCourses(_ context.Context) ([]video.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]video.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		res := *c
		res.Episodes = repo.episodesOf(c.ID)
		courses = append(courses, res)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (repo *videoRepository) CreateEpisode(_ context.Context, e video.Episode) (video.Episode, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[e.CourseID]; !ok {
		return video.Episode{}, video.ErrCourseNotFound
	}
	for _, ep := range repo.db.episodes {
		if ep.CourseID == e.CourseID && ep.Index == e.Index {
			return video.Episode{}, video.ErrDuplicateEpisode
		}
	}
	e.Completed = false
	repo.db.episodes[e.ID] = &e
	return e, nil
}

func (repo *videoRepository) GetEpisodeByIndex(_ context.Context, courseID, index int) (video.Episode, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, e := range repo.db.episodes {
		if e.CourseID == courseID && e.Index == index {
			return *e, nil
		}
	}
	return video.Episode{}, video.ErrEpisodeNotFound
}

func (repo *videoRepository) GrantAccess(_ context.Context, userID string, courseID int, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[courseID]; !ok {
		return video.ErrCourseNotFound
	}
	key := accessKey{userID: userID, courseID: courseID}
	if _, ok := repo.db.access[key]; !ok {
		repo.db.access[key] = at
	}
	return nil
}

func (repo *videoRepository) HasAccess(_ context.Context, userID string, courseID int) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	_, ok := repo.db.access[accessKey{userID: userID, courseID: courseID}]
	return ok, nil
}

func (repo *videoRepository) HasVideoAccess(_ context.Context, userID, videoUID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for key := range repo.db.access {
		if key.userID != userID {
			continue
		}
		c, ok := repo.db.courses[key.courseID]
		if !ok {
			continue
		}
		if c.VideoUID == videoUID {
			return true, nil
		}
		for _, e := range repo.episodesOf(c.ID) {
			if e.VideoUID == videoUID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (repo *videoRepository) QueryWatched(_ context.Context, userID string, courseID int) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]string, 0)
	for _, e := range repo.episodesOf(courseID) {
		if _, ok := repo.db.watched[watchedKey{userID: userID, episodeID: e.ID}]; ok {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

func (repo *videoRepository) MarkWatched(_ context.Context, userID string, courseID int, episodeID string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.episodes[episodeID]
	if !ok || e.CourseID != courseID {
		return video.ErrEpisodeNotFound
	}
	key := watchedKey{userID: userID, episodeID: episodeID}
	if _, ok = repo.db.watched[key]; !ok {
		repo.db.watched[key] = at
	}
	return nil
}

func (repo *videoRepository) QueryDevices(_ context.Context, userID string) ([]video.Device, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	devices := make([]video.Device, 0)
	for _, d := range repo.db.devices {
		if d.UserID == userID {
			devices = append(devices, *d)
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].CreatedAt.Before(devices[j].CreatedAt) })
	return devices, nil
}

func (repo *videoRepository) CreateDevice(_ context.Context, d video.Device) (video.Device, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	d.FingerprintHash = append([]byte(nil), d.FingerprintHash...)
	repo.db.devices[d.ID] = &d
	return d, nil
}

func (repo *videoRepository) TouchDevice(_ context.Context, id string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if d, ok := repo.db.devices[id]; ok {
		d.LastSeen = at
	}
	return nil
}

func (repo *videoRepository) DeleteDevicesSeenBefore(_ context.Context, before time.Time) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int64
	for id, d := range repo.db.devices {
		if d.LastSeen.Before(before) {
			delete(repo.db.devices, id)
			n++
		}
	}
	return n, nil
}
