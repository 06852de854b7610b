package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/jobs"
	"github.com/trezcool/tirgul/core/session"
	"github.com/trezcool/tirgul/core/tutor"
	"github.com/trezcool/tirgul/core/user"
	"github.com/trezcool/tirgul/core/video"
	emailsvc "github.com/trezcool/tirgul/services/email"
	"github.com/trezcool/tirgul/storage/database/inmem"
	"github.com/trezcool/tirgul/tests"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
)

// identityMock signs in whoever is in users, keyed by authorization code.
type identityMock struct {
	mu       sync.Mutex
	users    map[string]user.User
	failures int // FetchUser calls to fail before succeeding
	fetches  int
}

func newIdentityMock() *identityMock {
	return &identityMock{users: make(map[string]user.User)}
}

func (m *identityMock) AuthCodeURL(state, verifier string) string {
	return "http://auth.test/authorize?state=" + state
}

func (m *identityMock) Exchange(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	if verifier == "" {
		return nil, errors.New("oauth2: missing PKCE verifier")
	}
	return &oauth2.Token{AccessToken: code}, nil
}

func (m *identityMock) FetchUser(_ context.Context, token *oauth2.Token) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.failures > 0 {
		m.failures--
		return user.User{}, errNoIdentity
	}
	usr, ok := m.users[token.AccessToken]
	if !ok {
		return user.User{}, errNoIdentity
	}
	return usr, nil
}

type fixture struct {
	srv       *Server
	conf      *core.Config
	logger    *testutil.LoggerMock
	idp       *identityMock
	sessions  *session.Manager
	tutorRepo tutor.Repository
	videoRepo video.Repository
	mail      *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T, confFuncs ...func(*core.Config)) fixture {
	db, err := inmemdb.Open()
	require.NoError(t, err)

	conf := core.NewTestConfig()
	for _, f := range confFuncs {
		f(conf)
	}
	logger := testutil.NewLoggerMock()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	tutor.InitValidators(validate, translator)
	core.ParseEmailTemplates(logger, true /* strict */)

	f := fixture{
		conf:      conf,
		logger:    logger,
		idp:       newIdentityMock(),
		sessions:  session.NewManager(inmemdb.NewSessionRepository(db), logger),
		tutorRepo: inmemdb.NewTutorRepository(db),
		videoRepo: inmemdb.NewVideoRepository(db),
		mail:      emailsvc.NewConsoleServiceMock(conf, logger),
	}
	f.srv = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Sessions:       f.sessions,
		Identity:       f.idp,
		TutorSvc:       tutor.NewService(f.tutorRepo, f.mail, logger, validate, conf),
		VideoSvc:       video.NewService(f.videoRepo, logger, validate, conf),
		JobFeed:        jobs.NewFeed(conf, logger),
		DisableReqLogs: true,
	})
	return f
}

// signIn opens a session for usr and returns its token.
func (f fixture) signIn(t *testing.T, usr user.User) string {
	usr.Roles = user.RolesFor(usr.Email, f.conf.IsAdminEmail)
	s, err := f.sessions.Start(context.Background(), usr)
	require.NoError(t, err)
	return getToken(t, usr, s.ID, f.conf)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (f fixture) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	f.srv.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User, sessionID string, conf *core.Config) string {
	token, err := GenerateToken(GetUserClaims(usr, sessionID, conf), conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

// checkCodeAndData checks the response code, and the response data when wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, f fixture, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.do(tt))
		})
	}
}
