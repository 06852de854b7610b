package video

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core"
)

var (
	// errors
	ErrCourseNotFound      = errors.New("course not found")
	ErrEpisodeNotFound     = errors.New("episode not found")
	ErrDuplicateEpisode    = errors.New("an episode with this index already exists")
	ErrNoAccess            = errors.New("no access to this course")
	ErrDeviceLimitExceeded = errors.New("device limit exceeded")
	ErrInvalidToken        = errors.New("invalid playback token")

	tokenSigningMethod = jwt.SigningMethodHS256
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// GetCourse returns the course with its episodes ordered by index.
		GetCourse(ctx context.Context, id int) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		// CreateEpisode fails with ErrDuplicateEpisode if the course already has an episode with this index.
		CreateEpisode(ctx context.Context, e Episode) (Episode, error)
		GetEpisodeByIndex(ctx context.Context, courseID, index int) (Episode, error)

		GrantAccess(ctx context.Context, userID string, courseID int, at time.Time) error
		HasAccess(ctx context.Context, userID string, courseID int) (bool, error)
		// HasVideoAccess reports whether the user has access to a course using the video.
		HasVideoAccess(ctx context.Context, userID, videoUID string) (bool, error)

		// QueryWatched returns the IDs of the episodes of the course watched by the user, in index order.
		QueryWatched(ctx context.Context, userID string, courseID int) ([]string, error)
		MarkWatched(ctx context.Context, userID string, courseID int, episodeID string, at time.Time) error

		QueryDevices(ctx context.Context, userID string) ([]Device, error)
		CreateDevice(ctx context.Context, d Device) (Device, error)
		TouchDevice(ctx context.Context, id string, at time.Time) error
		DeleteDevicesSeenBefore(ctx context.Context, before time.Time) (int64, error)
	}

	Service struct {
		repo     Repository
		logger   core.Logger
		validate *validator.Validate
		conf     *core.Config

		// serializes device registration so the device limit holds under concurrent requests
		devicesMu sync.Mutex
	}
)

func NewService(repo Repository, logger core.Logger, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		logger:   logger,
		validate: validate,
		conf:     conf,
	}
}

// GetCourse returns the course, each episode flagged as completed if the user watched it.
func (svc *Service) GetCourse(ctx context.Context, userID string, courseID int) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, errors.Wrap(err, "getting course")
	}

	watched := make(map[string]bool)
	if userID != "" {
		ids, err := svc.repo.QueryWatched(ctx, userID, courseID)
		if err != nil {
			return Course{}, errors.Wrap(err, "querying watched episodes")
		}
		for _, id := range ids {
			watched[id] = true
		}
	}

	if c.Episodes == nil {
		c.Episodes = []Episode{}
	}
	for i := range c.Episodes {
		c.Episodes[i].Completed = watched[c.Episodes[i].ID]
	}
	return c, nil
}

func (svc *Service) QueryCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

// IssuePlaybackToken returns a short-lived token to play the video on the device identified by fingerprint.
// Unknown devices are registered until the user reaches the device limit.
func (svc *Service) IssuePlaybackToken(ctx context.Context, userID, videoUID, fingerprint string) (PlaybackToken, error) {
	fingerprint = core.CleanString(fingerprint)
	if fingerprint == "" {
		return PlaybackToken{}, core.NewFieldError("fingerprint", "שדה חובה")
	}

	ok, err := svc.repo.HasVideoAccess(ctx, userID, videoUID)
	if err != nil {
		return PlaybackToken{}, errors.Wrap(err, "checking video access")
	}
	if !ok {
		return PlaybackToken{}, ErrNoAccess
	}

	dev, err := svc.registerDevice(ctx, userID, fingerprint)
	if err != nil {
		return PlaybackToken{}, err
	}

	now := time.Now().UTC()
	exp := now.Add(svc.conf.Playback.TokenTTL)
	claims := PlaybackClaims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    svc.conf.AppName,
			Subject:   userID,
			Audience:  videoUID,
			ExpiresAt: exp.Unix(),
			IssuedAt:  now.Unix(),
		},
		DeviceID: dev.ID,
	}
	ss, err := jwt.NewWithClaims(tokenSigningMethod, claims).SignedString([]byte(svc.conf.SecretKey))
	if err != nil {
		return PlaybackToken{}, errors.Wrap(err, "signing playback token")
	}
	return PlaybackToken{Token: ss, ExpiresAt: time.Unix(exp.Unix(), 0).UTC()}, nil
}

func (svc *Service) registerDevice(ctx context.Context, userID, fingerprint string) (Device, error) {
	svc.devicesMu.Lock()
	defer svc.devicesMu.Unlock()

	devices, err := svc.repo.QueryDevices(ctx, userID)
	if err != nil {
		return Device{}, errors.Wrap(err, "querying devices")
	}

	now := time.Now().UTC()
	for _, dev := range devices {
		if dev.MatchesFingerprint(fingerprint) {
			if err = svc.repo.TouchDevice(ctx, dev.ID, now); err != nil {
				return Device{}, errors.Wrap(err, "touching device")
			}
			return dev, nil
		}
	}

	if len(devices) >= svc.conf.Playback.DeviceLimit {
		return Device{}, ErrDeviceLimitExceeded
	}

	dev := Device{ID: uuid.NewString(), UserID: userID, CreatedAt: now, LastSeen: now}
	if err = dev.SetFingerprint(fingerprint); err != nil {
		return Device{}, errors.Wrap(err, "hashing fingerprint")
	}
	dev, err = svc.repo.CreateDevice(ctx, dev)
	return dev, errors.Wrap(err, "creating device")
}

// ParsePlaybackToken verifies a token issued by IssuePlaybackToken.
func (svc *Service) ParsePlaybackToken(token string) (*PlaybackClaims, error) {
	claims := new(PlaybackClaims)
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != tokenSigningMethod {
			return nil, ErrInvalidToken
		}
		return []byte(svc.conf.SecretKey), nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// MarkEpisodeWatched records the episode as watched by the user. Marking it again is a no-op.
// It returns the IDs of all the episodes of the course the user watched.
func (svc *Service) MarkEpisodeWatched(ctx context.Context, userID string, courseID, episodeIndex int) ([]string, error) {
	ok, err := svc.repo.HasAccess(ctx, userID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "checking course access")
	}
	if !ok {
		return nil, ErrNoAccess
	}

	ep, err := svc.repo.GetEpisodeByIndex(ctx, courseID, episodeIndex)
	if err != nil {
		return nil, errors.Wrap(err, "getting episode")
	}
	if err = svc.repo.MarkWatched(ctx, userID, courseID, ep.ID, time.Now().UTC()); err != nil {
		return nil, errors.Wrap(err, "marking episode watched")
	}

	ids, err := svc.repo.QueryWatched(ctx, userID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying watched episodes")
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (svc *Service) GrantAccess(ctx context.Context, userID string, courseID int) error {
	userID = core.CleanString(userID)
	if userID == "" {
		return core.NewFieldError("user", "שדה חובה")
	}
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return errors.Wrap(err, "getting course")
	}
	return errors.Wrap(svc.repo.GrantAccess(ctx, userID, courseID, time.Now().UTC()), "granting access")
}

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	c, err := svc.repo.CreateCourse(ctx, Course{
		Title:        nc.Title,
		VideoUID:     nc.VideoUID,
		ThumbnailURL: nc.ThumbnailURL,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	c.Episodes = []Episode{}
	return c, nil
}

// AddEpisode appends an episode to the course. Episodes cannot start before the previous one.
func (svc *Service) AddEpisode(ctx context.Context, ne NewEpisode) (Episode, error) {
	if err := ne.Validate(svc.validate); err != nil {
		return Episode{}, err
	}

	c, err := svc.repo.GetCourse(ctx, ne.CourseID)
	if err != nil {
		return Episode{}, errors.Wrap(err, "getting course")
	}

	index := 1
	if n := len(c.Episodes); n > 0 {
		last := c.Episodes[n-1]
		if ne.StartTime < last.StartTime {
			return Episode{}, core.NewFieldError("start_time", "הפרק מתחיל לפני הפרק הקודם")
		}
		index = last.Index + 1
	}

	videoUID := ne.VideoUID
	if videoUID == "" {
		videoUID = c.VideoUID
	}
	ep, err := svc.repo.CreateEpisode(ctx, Episode{
		ID:        uuid.NewString(),
		CourseID:  c.ID,
		Index:     index,
		Title:     ne.Title,
		StartTime: ne.StartTime,
		EndTime:   ne.EndTime,
		VideoUID:  videoUID,
	})
	return ep, errors.Wrap(err, "creating episode")
}

// PruneDevices forgets the devices not seen since before.
func (svc *Service) PruneDevices(ctx context.Context, before time.Time) (int64, error) {
	n, err := svc.repo.DeleteDevicesSeenBefore(ctx, before)
	if err != nil {
		return 0, errors.Wrap(err, "deleting devices")
	}
	svc.logger.Info("pruned devices", map[string]interface{}{"count": n, "before": before})
	return n, nil
}
