// Package client is a Go client of the Tirgul API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/playback"
	"github.com/trezcool/tirgul/core/tutor"
	"github.com/trezcool/tirgul/core/video"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response of the API.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string // validation errors
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for f, msg := range e.Fields {
			parts = append(parts, f+": "+msg)
		}
		return strings.Join(parts, "; ")
	}
	return http.StatusText(e.StatusCode)
}

type (
	Client struct {
		baseURL string
		token   string
		http    *http.Client
	}

	Option func(*Client)
)

var _ playback.Tracker = (*Client)(nil) // interface compliance check

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client of the API at baseURL, authenticated with token (may be empty).
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %s", method, path))
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeError(res)
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(res.Body).Decode(out), "decoding response")
}

func decodeError(res *http.Response) error {
	apiErr := &APIError{StatusCode: res.StatusCode}
	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var fields map[string]string
	if json.Unmarshal(data, &fields) == nil {
		if msg, ok := fields["error"]; ok && len(fields) == 1 {
			apiErr.Message = msg
		} else {
			apiErr.Fields = fields
		}
	}
	return apiErr
}

// MarkEpisodeWatched records the episode as watched and returns the IDs of all the watched episodes of the course.
func (c *Client) MarkEpisodeWatched(ctx context.Context, courseID, episodeIndex int) ([]string, error) {
	var res video.WatchedEpisodes
	path := "/v1/courses/" + strconv.Itoa(courseID) + "/episodes/" + strconv.Itoa(episodeIndex) + "/watched"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &res); err != nil {
		return nil, err
	}
	return res.EpisodesWatched, nil
}

// PlaybackToken requests a token to play the video on the device identified by fingerprint.
func (c *Client) PlaybackToken(ctx context.Context, videoUID, fingerprint string) (video.PlaybackToken, error) {
	var res video.PlaybackToken
	in := map[string]string{"fingerprint": fingerprint}
	err := c.do(ctx, http.MethodPost, "/v1/videos/"+url.PathEscape(videoUID)+"/token", nil, in, &res)
	return res, err
}

// Tutors lists the tutors of degree teaching course (any course if empty).
func (c *Client) Tutors(ctx context.Context, degree catalog.Track, course string, all bool) (tutor.Page, error) {
	q := url.Values{"degree": {string(degree)}}
	if course != "" {
		q.Set("course", course)
	}
	if all {
		q.Set("all", "true")
	}
	var page tutor.Page
	err := c.do(ctx, http.MethodGet, "/v1/tutors", q, nil, &page)
	return page, err
}
