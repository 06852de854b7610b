package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tirgul/core/video"
)

type (
	courseRow struct {
		ID           int         `db:"id"`
		Title        string      `db:"title"`
		VideoUID     string      `db:"video_uid"`
		ThumbnailURL null.String `db:"thumbnail_url"`
		CreatedAt    time.Time   `db:"created_at"`
	}

	episodeRow struct {
		ID        string  `db:"id"`
		CourseID  int     `db:"course_id"`
		Index     int     `db:"idx"`
		Title     string  `db:"title"`
		StartTime float64 `db:"start_time"`
		EndTime   float64 `db:"end_time"`
		VideoUID  string  `db:"video_uid"`
	}

	deviceRow struct {
		ID              string    `db:"id"`
		UserID          string    `db:"user_id"`
		FingerprintHash []byte    `db:"fingerprint_hash"`
		CreatedAt       time.Time `db:"created_at"`
		LastSeen        time.Time `db:"last_seen"`
	}
)

func (r courseRow) course() video.Course {
	return video.Course{
		ID:           r.ID,
		Title:        r.Title,
		VideoUID:     r.VideoUID,
		ThumbnailURL: r.ThumbnailURL.String,
		Episodes:     []video.Episode{},
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (r episodeRow) episode() video.Episode {
	return video.Episode{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Index:     r.Index,
		Title:     r.Title,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		VideoUID:  r.VideoUID,
	}
}

func (r deviceRow) device() video.Device {
	return video.Device{
		ID:              r.ID,
		UserID:          r.UserID,
		FingerprintHash: r.FingerprintHash,
		CreatedAt:       r.CreatedAt.UTC(),
		LastSeen:        r.LastSeen.UTC(),
	}
}

const (
	courseColumns  = "id, title, video_uid, thumbnail_url, created_at"
	episodeColumns = "id, course_id, idx, title, start_time, end_time, video_uid"
)

type videoRepository struct {
	db *sqlx.DB
}

var _ video.Repository = (*videoRepository)(nil) // interface compliance check

func NewVideoRepository(db *sqlx.DB) *videoRepository {
	return &videoRepository{db: db}
}

func (repo *videoRepository) CreateCourse(ctx context.Context, c video.Course) (video.Course, error) {
	err := repo.db.GetContext(ctx, &c.ID,
		"INSERT INTO video_course (title, video_uid, thumbnail_url, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		c.Title, c.VideoUID, null.NewString(c.ThumbnailURL, c.ThumbnailURL != ""), c.CreatedAt.UTC())
	if err != nil {
		return video.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

// episodes returns the episodes of the courses, keyed by course ID.
func (repo *videoRepository) episodes(ctx context.Context, courseIDs ...int) (map[int][]video.Episode, error) {
	res := make(map[int][]video.Episode, len(courseIDs))
	if len(courseIDs) == 0 {
		return res, nil
	}
	q, args, err := sqlx.In("SELECT "+episodeColumns+" FROM episode WHERE course_id IN (?) ORDER BY course_id, idx", courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building episodes query")
	}
	var rows []episodeRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying episodes")
	}
	for _, r := range rows {
		res[r.CourseID] = append(res[r.CourseID], r.episode())
	}
	return res, nil
}

func (repo *videoRepository) GetCourse(ctx context.Context, id int) (video.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+courseColumns+" FROM video_course WHERE id = $1", id); err != nil {
		return video.Course{}, trapNoRowsErr(err, video.ErrCourseNotFound, "getting course")
	}
	eps, err := repo.episodes(ctx, id)
	if err != nil {
		return video.Course{}, err
	}
	c := row.course()
	if e, ok := eps[id]; ok {
		c.Episodes = e
	}
	return c, nil
}

func (repo *videoRepository) QueryCourses(ctx context.Context) ([]video.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+courseColumns+" FROM video_course ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	eps, err := repo.episodes(ctx, ids...)
	if err != nil {
		return nil, err
	}
	courses := make([]video.Course, 0, len(rows))
	for _, r := range rows {
		c := r.course()
		if e, ok := eps[r.ID]; ok {
			c.Episodes = e
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (repo *videoRepository) CreateEpisode(ctx context.Context, e video.Episode) (video.Episode, error) {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO episode ("+episodeColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		e.ID, e.CourseID, e.Index, e.Title, e.StartTime, e.EndTime, e.VideoUID)
	if err != nil {
		return video.Episode{}, trapUniqueErr(err, video.ErrDuplicateEpisode, "inserting episode")
	}
	return e, nil
}

func (repo *videoRepository) GetEpisodeByIndex(ctx context.Context, courseID, index int) (video.Episode, error) {
	var row episodeRow
	err := repo.db.GetContext(ctx, &row, "SELECT "+episodeColumns+" FROM episode WHERE course_id = $1 AND idx = $2", courseID, index)
	if err != nil {
		return video.Episode{}, trapNoRowsErr(err, video.ErrEpisodeNotFound, "getting episode")
	}
	return row.episode(), nil
}

func (repo *videoRepository) GrantAccess(ctx context.Context, userID string, courseID int, at time.Time) error {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO course_access (user_id, course_id, granted_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		userID, courseID, at.UTC())
	return errors.Wrap(err, "inserting course access")
}

func (repo *videoRepository) HasAccess(ctx context.Context, userID string, courseID int) (bool, error) {
	var ok bool
	err := repo.db.GetContext(ctx, &ok,
		"SELECT EXISTS (SELECT 1 FROM course_access WHERE user_id = $1 AND course_id = $2)", userID, courseID)
	return ok, errors.Wrap(err, "checking course access")
}

func (repo *videoRepository) HasVideoAccess(ctx context.Context, userID, videoUID string) (bool, error) {
	var ok bool
	err := repo.db.GetContext(ctx, &ok, `SELECT EXISTS (
		SELECT 1 FROM course_access a
		JOIN video_course c ON c.id = a.course_id
		LEFT JOIN episode e ON e.course_id = c.id
		WHERE a.user_id = $1 AND (c.video_uid = $2 OR e.video_uid = $2)
	)`, userID, videoUID)
	return ok, errors.Wrap(err, "checking video access")
}

func (repo *videoRepository) QueryWatched(ctx context.Context, userID string, courseID int) ([]string, error) {
	ids := make([]string, 0)
	err := repo.db.SelectContext(ctx, &ids, `SELECT w.episode_id FROM episode_watched w
		JOIN episode e ON e.id = w.episode_id
		WHERE w.user_id = $1 AND w.course_id = $2
		ORDER BY e.idx`, userID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying watched episodes")
	}
	return ids, nil
}

func (repo *videoRepository) MarkWatched(ctx context.Context, userID string, courseID int, episodeID string, at time.Time) error {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO episode_watched (user_id, course_id, episode_id, watched_at) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING",
		userID, courseID, episodeID, at.UTC())
	return errors.Wrap(err, "inserting watched episode")
}

func (repo *videoRepository) QueryDevices(ctx context.Context, userID string) ([]video.Device, error) {
	var rows []deviceRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT id, user_id, fingerprint_hash, created_at, last_seen FROM device WHERE user_id = $1 ORDER BY created_at", userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying devices")
	}
	devices := make([]video.Device, 0, len(rows))
	for _, r := range rows {
		devices = append(devices, r.device())
	}
	return devices, nil
}

func (repo *videoRepository) CreateDevice(ctx context.Context, d video.Device) (video.Device, error) {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO device (id, user_id, fingerprint_hash, created_at, last_seen) VALUES ($1, $2, $3, $4, $5)",
		d.ID, d.UserID, d.FingerprintHash, d.CreatedAt.UTC(), d.LastSeen.UTC())
	if err != nil {
		return video.Device{}, errors.Wrap(err, "inserting device")
	}
	return d, nil
}

func (repo *videoRepository) TouchDevice(ctx context.Context, id string, at time.Time) error {
	_, err := repo.db.ExecContext(ctx, "UPDATE device SET last_seen = $1 WHERE id = $2", at.UTC(), id)
	return errors.Wrap(err, "updating device")
}

func (repo *videoRepository) DeleteDevicesSeenBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM device WHERE last_seen < $1", before.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "deleting devices")
	}
	return res.RowsAffected()
}
