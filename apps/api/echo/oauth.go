package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/session"
	"github.com/trezcool/tirgul/core/user"
)

const (
	stateCookie    = "tirgul_oauth_state"
	verifierCookie = "tirgul_oauth_verifier"
	authCookiePath = "/v1/auth"
	authCookieAge  = 10 * 60 // seconds
)

var (
	// delay between the sign-in polling attempts; grows linearly
	sessionAwaitStep = 500 * time.Millisecond

	errNoIdentity = errors.New("identity provider returned no user")
)

// IdentityProvider signs users in with the authorization-code flow (PKCE).
type IdentityProvider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	FetchUser(ctx context.Context, token *oauth2.Token) (user.User, error)
}

// OAuthProvider is the IdentityProvider of a standard OAuth2 / OpenID server.
type OAuthProvider struct {
	conf        *oauth2.Config
	userInfoURL string
}

var _ IdentityProvider = (*OAuthProvider)(nil) // interface compliance check

func NewOAuthProvider(conf *core.Config) *OAuthProvider {
	return &OAuthProvider{
		conf: &oauth2.Config{
			ClientID:     conf.OAuth.ClientID,
			ClientSecret: conf.OAuth.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  conf.OAuth.AuthURL,
				TokenURL: conf.OAuth.TokenURL,
			},
			RedirectURL: conf.OAuth.RedirectURL,
			Scopes:      conf.OAuth.Scopes,
		},
		userInfoURL: conf.OAuth.UserInfoURL,
	}
}

func (p *OAuthProvider) AuthCodeURL(state, verifier string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

func (p *OAuthProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := p.conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	return tok, errors.Wrap(err, "exchanging code")
}

// FetchUser reads the signed in user from the userinfo endpoint.
func (p *OAuthProvider) FetchUser(ctx context.Context, token *oauth2.Token) (user.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return user.User{}, errors.Wrap(err, "building userinfo request")
	}
	res, err := p.conf.Client(ctx, token).Do(req)
	if err != nil {
		return user.User{}, errors.Wrap(err, "requesting userinfo")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return user.User{}, errors.Errorf("userinfo: unexpected status %d", res.StatusCode)
	}

	var info struct {
		Sub   string `json:"sub"`
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err = json.NewDecoder(res.Body).Decode(&info); err != nil {
		return user.User{}, errors.Wrap(err, "decoding userinfo")
	}
	usr := user.User{ID: info.Sub, Email: core.CleanString(info.Email, true /* lower */), Name: info.Name}
	if usr.ID == "" {
		usr.ID = info.ID
	}
	if usr.ID == "" || usr.Email == "" {
		return user.User{}, errNoIdentity
	}
	return usr, nil
}

type TokenResponse struct {
	Token string `json:"token"`
}

type authApi struct {
	idp    IdentityProvider
	mgr    *session.Manager
	conf   *core.Config
	logger core.Logger
}

func registerAuthAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	idp IdentityProvider,
	mgr *session.Manager,
	conf *core.Config,
	logger core.Logger,
) {
	api := authApi{
		idp:    idp,
		mgr:    mgr,
		conf:   conf,
		logger: logger,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.GET("/login", api.login)
	ag.GET("/callback", api.callback)

	// authed endpoints
	sg := ag.Group("", authed...)
	sg.POST("/logout", api.logout)
	sg.POST("/token-refresh", api.refreshToken)
}

func (api *authApi) setCookie(ctx echo.Context, name, value string, maxAge int) {
	ctx.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     authCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !(api.conf.Debug || api.conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	})
}

func (api *authApi) completeURL() string {
	return api.conf.FrontendBaseURL + "/auth/complete"
}

func (api *authApi) fail(ctx echo.Context, reason string, err error) error {
	api.logger.Warn("sign-in failed: "+reason, errors.Wrap(err, reason))
	return ctx.Redirect(http.StatusFound, api.completeURL()+"?error=auth")
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	api.setCookie(ctx, stateCookie, state, authCookieAge)
	api.setCookie(ctx, verifierCookie, verifier, authCookieAge)
	return ctx.Redirect(http.StatusFound, api.idp.AuthCodeURL(state, verifier))
}

func (api *authApi) callback(ctx echo.Context) error {
	// the flow is single use
	api.setCookie(ctx, stateCookie, "", -1)
	api.setCookie(ctx, verifierCookie, "", -1)

	if e := ctx.QueryParam("error"); e != "" {
		return api.fail(ctx, "provider error", errors.New(e))
	}
	state, err := ctx.Cookie(stateCookie)
	if err != nil || state.Value == "" || state.Value != ctx.QueryParam("state") {
		return api.fail(ctx, "state mismatch", errors.New("invalid oauth state"))
	}
	verifier, err := ctx.Cookie(verifierCookie)
	if err != nil {
		return api.fail(ctx, "missing verifier", err)
	}
	code := ctx.QueryParam("code")
	if code == "" {
		return api.fail(ctx, "missing code", errors.New("no authorization code"))
	}

	reqCtx := ctx.Request().Context()
	tok, err := api.idp.Exchange(reqCtx, code, verifier.Value)
	if err != nil {
		return api.fail(ctx, "code exchange", err)
	}

	usr, err := session.AwaitSession(reqCtx, sessionAwaitStep, func(ctx context.Context) (user.User, error) {
		return api.idp.FetchUser(ctx, tok)
	})
	if err != nil {
		return api.fail(ctx, "session", err)
	}
	usr.Roles = user.RolesFor(usr.Email, api.conf.IsAdminEmail)

	s, err := api.mgr.Start(reqCtx, usr)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	token, err := GenerateToken(GetUserClaims(usr, s.ID, api.conf), api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	frag := url.Values{"token": {token}}
	return ctx.Redirect(http.StatusFound, api.completeURL()+"#"+frag.Encode())
}

func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.mgr.Reset(ctx.Request().Context(), claims.Subject, claims.Id); err != nil {
		return errors.Wrap(err, "resetting session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}
