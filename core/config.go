package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Email backends
const (
	EmailBackendConsole  = "console"
	EmailBackendSendgrid = "sendgrid"
	EmailBackendResend   = "resend"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      int
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		CookieSecure              bool
		CORSOrigins               []string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Config struct {
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		RollbarToken              string
		EmailBackend              string
		SendgridApiKey            string
		ResendApiKey              string
		DefaultUserPassword       string
		PassMark                  float64
		PasswordResetTimeoutDelta time.Duration
		Server                    ServerConfig
		Database                  DatabaseConfig

		defaultFromEmail string
	}
)

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DefaultFromEmail returns the sender address of outgoing emails.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// NewConfig loads the configuration of the current environment (ENV: DEV (default), TEST, QA, PROD).
// Values are read from the environment, prefixed by the environment name (eg. DEV_SECRET_KEY),
// after loading "config/.env.<env>" when it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("test_mode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("app_name", "LMS")
	v.SetDefault("secret_key", "z8#k1v!q0w@e5r$t7y^u9i&o2p*a4s(d6f)g3h-j_kl=m")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("default_from_email", "noreply@localhost")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("email_backend", EmailBackendConsole)
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("resend_api_key", "")
	v.SetDefault("default_user_password", "Welcome@123")
	v.SetDefault("pass_mark", 0.4)
	v.SetDefault("password_reset_timeout_delta", 3*24*time.Hour)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debug_host", "localhost:4000")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.jwt_expiration_delta", 7*24*time.Hour)
	v.SetDefault("server.jwt_refresh_expiration_delta", 30*24*time.Hour)
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.cors_origins", "http://localhost:3000")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "lms")
	v.SetDefault("database.user", "lms")
	v.SetDefault("database.password", "lms")
	v.SetDefault("database.admin_user", "")
	v.SetDefault("database.admin_password", "")
	v.SetDefault("database.disable_tls", true)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("test_mode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
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

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("test_mode"),
		AppName:                   v.GetString("app_name"),
		SecretKey:                 v.GetString("secret_key"),
		FrontendBaseURL:           strings.TrimSuffix(v.GetString("frontend_base_url"), "/"),
		RollbarToken:              v.GetString("rollbar_token"),
		EmailBackend:              CleanString(v.GetString("email_backend"), true /* lower */),
		SendgridApiKey:            v.GetString("sendgrid_api_key"),
		ResendApiKey:              v.GetString("resend_api_key"),
		DefaultUserPassword:       v.GetString("default_user_password"),
		PassMark:                  v.GetFloat64("pass_mark"),
		PasswordResetTimeoutDelta: v.GetDuration("password_reset_timeout_delta"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetInt("server.port"),
			DebugHost:                 v.GetString("server.debug_host"),
			ReadTimeout:               v.GetDuration("server.read_timeout"),
			WriteTimeout:              v.GetDuration("server.write_timeout"),
			ShutdownTimeout:           v.GetDuration("server.shutdown_timeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwt_expiration_delta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwt_refresh_expiration_delta"),
			CookieSecure:              v.GetBool("server.cookie_secure"),
			CORSOrigins:               splitList(v.GetString("server.cors_origins")),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.admin_user"),
			AdminPassword: v.GetString("database.admin_password"),
			DisableTLS:    v.GetBool("database.disable_tls"),
		},
		defaultFromEmail: v.GetString("default_from_email"),
	}
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
