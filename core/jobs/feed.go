package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
)

var ErrFeedUnavailable = errors.New("job feed unavailable")

// Posting is a job offer for students.
type Posting struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url"`
	Posted   string `json:"posted,omitempty"`
}

// Feed reads the job-postings document: a JSON object keyed by track.
type Feed struct {
	url    string
	client *http.Client
	logger core.Logger
}

func NewFeed(conf *core.Config, logger core.Logger) *Feed {
	return &Feed{
		url:    conf.Jobs.FeedURL,
		client: &http.Client{Timeout: conf.Jobs.Timeout},
		logger: logger,
	}
}

// Fetch downloads the feed and returns the postings of track. Unknown tracks have no posting.
func (f *Feed) Fetch(ctx context.Context, track catalog.Track) ([]Posting, error) {
	if f.url == "" {
		return []Posting{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building feed request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("fetching job feed", errors.Wrap(err, "fetching job feed"))
		return nil, errors.Wrap(ErrFeedUnavailable, err.Error())
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("fetching job feed - status: %d", res.StatusCode)
		f.logger.Error(msg)
		return nil, errors.Wrap(ErrFeedUnavailable, msg)
	}

	var doc map[catalog.Track][]Posting
	if err = json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, errors.Wrap(ErrFeedUnavailable, "decoding job feed: "+err.Error())
	}
	f.logger.Debug("job feed fetched", map[string]interface{}{"track": track, "took": time.Since(start).String()})

	postings := doc[track]
	if postings == nil {
		postings = []Posting{}
	}
	return postings, nil
}
