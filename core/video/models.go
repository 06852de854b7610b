package video

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/tirgul/core"
)

type Course struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	VideoUID     string    `json:"video_uid"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Episodes     []Episode `json:"episodes"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// Episode is a labeled range of a video's timeline, in seconds.
type Episode struct {
	ID        string  `json:"id"`
	CourseID  int     `json:"course_id"`
	Index     int     `json:"index"`
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	VideoUID  string  `json:"video_uid"`

	// derived from the user's watched episodes
	Completed bool `json:"completed"`
}

// Contains reports whether t is within [StartTime, EndTime).
func (e Episode) Contains(t float64) bool {
	return t >= e.StartTime && t < e.EndTime
}

// Device is a device a user watched videos on.
type Device struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	FingerprintHash []byte    `json:"-"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	LastSeen        time.Time `json:"last_seen"`  // UTC
}

func (d *Device) SetFingerprint(fp string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(fp), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	d.FingerprintHash = hash
	return nil
}

func (d *Device) MatchesFingerprint(fp string) bool {
	return bcrypt.CompareHashAndPassword(d.FingerprintHash, []byte(fp)) == nil
}

type PlaybackToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PlaybackClaims are carried by playback tokens. The audience is the video UID.
type PlaybackClaims struct {
	jwt.StandardClaims
	DeviceID string `json:"device_id"`
}

type WatchedEpisodes struct {
	EpisodesWatched []string `json:"episodes_watched"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title        string `json:"title" validate:"required"`
	VideoUID     string `json:"video_uid" validate:"required"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.VideoUID = core.CleanString(nc.VideoUID)
	nc.ThumbnailURL = core.CleanString(nc.ThumbnailURL)
	return validate.Struct(nc)
}

// NewEpisode contains information needed to add an Episode to a Course.
// VideoUID defaults to the course's video.
type NewEpisode struct {
	CourseID  int     `json:"course_id" validate:"required"`
	Title     string  `json:"title" validate:"required"`
	StartTime float64 `json:"start_time" validate:"min=0"`
	EndTime   float64 `json:"end_time" validate:"gtfield=StartTime"`
	VideoUID  string  `json:"video_uid"`
}

func (ne *NewEpisode) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.VideoUID = core.CleanString(ne.VideoUID)
	return validate.Struct(ne)
}
