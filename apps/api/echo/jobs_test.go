package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/jobs"
)

func Test_jobsApi(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cs": [{"title": "Junior Backend", "company": "Acme", "url": "https://jobs.test/1"}]}`))
	}))
	defer feed.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	f := setup(t, func(conf *core.Config) { conf.Jobs.FeedURL = feed.URL })
	runHTTPTests(t, f, []httpTest{
		{
			name: "Postings", path: "/v1/jobs/cs",
			wantData: marchallObj(t, []jobs.Posting{{Title: "Junior Backend", Company: "Acme", URL: "https://jobs.test/1"}}),
		},
		{name: "No posting", path: "/v1/jobs/ee", wantData: []byte(`[]`)},
		{
			name: "Unknown track", path: "/v1/jobs/math",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "unknown track"}),
		},
	})

	f = setup(t, func(conf *core.Config) { conf.Jobs.FeedURL = down.URL })
	runHTTPTests(t, f, []httpTest{
		{
			name: "Feed down", path: "/v1/jobs/cs",
			wantCode: http.StatusBadGateway, wantData: marchallObj(t, httpErr{Error: "job feed unavailable"}),
		},
	})
}
