package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		AdminEmails      []string
		RollbarToken     string
		SendgridApiKey   string

		Server   ServerConfig
		Database DatabaseConfig
		OAuth    OAuthConfig
		Playback PlaybackConfig
		Jobs     JobsConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	OAuthConfig struct {
		ClientID     string
		ClientSecret string
		AuthURL      string
		TokenURL     string
		UserInfoURL  string
		RedirectURL  string
		Scopes       []string
	}

	PlaybackConfig struct {
		DeviceLimit     int
		TokenTTL        time.Duration
		DeviceRetention time.Duration
	}

	JobsConfig struct {
		FeedURL string
		Timeout time.Duration
	}
)

func (dc DatabaseConfig) Address() string {
	return dc.Host + ":" + dc.Port
}

// IsAdminEmail reports whether email belongs to a configured administrator.
func (c *Config) IsAdminEmail(email string) bool {
	email = CleanString(email, true /* lower */)
	for _, e := range c.AdminEmails {
		if CleanString(e, true) == email {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Tirgul")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k3x9-tirgul)dev$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Tirgul <noreply@localhost>")
	v.SetDefault("adminEmails", []string{})
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "tirgul")
	v.SetDefault("database.user", "tirgul")
	v.SetDefault("database.password", "tirgul")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("oauth.clientID", "")
	v.SetDefault("oauth.clientSecret", "")
	v.SetDefault("oauth.authURL", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("oauth.tokenURL", "https://oauth2.googleapis.com/token")
	v.SetDefault("oauth.userInfoURL", "https://www.googleapis.com/oauth2/v2/userinfo")
	v.SetDefault("oauth.redirectURL", "http://localhost:8000/v1/auth/callback")
	v.SetDefault("oauth.scopes", []string{"openid", "email", "profile"})

	v.SetDefault("playback.deviceLimit", 2)
	v.SetDefault("playback.tokenTTL", 6*time.Hour)
	v.SetDefault("playback.deviceRetention", 90*24*time.Hour)

	v.SetDefault("jobs.feedURL", "")
	v.SetDefault("jobs.timeout", 10*time.Second)
}

// NewConfig reads the configuration from defaults, `config/.env.<env>` (if any) and the environment.
// Environment variables are prefixed with the current env, e.g. DEV_DATABASE_HOST.
func NewConfig() *Config {
	return newConfig(viper.New())
}

// NewConfigFrom builds a Config on top of an existing viper instance (e.g. one with bound flags).
func NewConfigFrom(v *viper.Viper) *Config {
	return newConfig(v)
}

func newConfig(v *viper.Viper) *Config {
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	conf := &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail: *from,
		AdminEmails:      v.GetStringSlice("adminEmails"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		OAuth: OAuthConfig{
			ClientID:     v.GetString("oauth.clientID"),
			ClientSecret: v.GetString("oauth.clientSecret"),
			AuthURL:      v.GetString("oauth.authURL"),
			TokenURL:     v.GetString("oauth.tokenURL"),
			UserInfoURL:  v.GetString("oauth.userInfoURL"),
			RedirectURL:  v.GetString("oauth.redirectURL"),
			Scopes:       v.GetStringSlice("oauth.scopes"),
		},
		Playback: PlaybackConfig{
			DeviceLimit:     v.GetInt("playback.deviceLimit"),
			TokenTTL:        v.GetDuration("playback.tokenTTL"),
			DeviceRetention: v.GetDuration("playback.deviceRetention"),
		},
		Jobs: JobsConfig{
			FeedURL: v.GetString("jobs.feedURL"),
			Timeout: v.GetDuration("jobs.timeout"),
		},
	}
	if conf.Playback.DeviceLimit < 1 {
		log.Fatal(fmt.Sprintf("config.playback.deviceLimit must be positive, got %d", conf.Playback.DeviceLimit))
	}
	return conf
}

// NewTestConfig returns a Config suitable for tests: no .env lookup, no external services.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	from, _ := mail.ParseAddress(v.GetString("defaultFromEmail"))
	return &Config{
		AppName:          v.GetString("appName"),
		Env:              "TEST",
		Build:            "test",
		Debug:            false,
		TestMode:         true,
		SecretKey:        "secret",
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: *from,
		AdminEmails:      []string{"admin@tirgul.test"},
		Server: ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		OAuth: OAuthConfig{
			ClientID:    "client",
			AuthURL:     "http://auth.test/authorize",
			TokenURL:    "http://auth.test/token",
			UserInfoURL: "http://auth.test/userinfo",
			RedirectURL: "http://localhost:8000/v1/auth/callback",
			Scopes:      []string{"openid", "email"},
		},
		Playback: PlaybackConfig{
			DeviceLimit:     2,
			TokenTTL:        time.Hour,
			DeviceRetention: 90 * 24 * time.Hour,
		},
		Jobs: JobsConfig{Timeout: time.Second},
	}
}
