package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	Env      string // DEV|TEST|QA|PROD
	HTTPAddr string
	AppName  string

	DBDriver string
	DBDSN    string
	SiteID   string

	EnableLocalAuth bool
	AuthHMACSecret  string

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	DefaultFromEmail string
	SendGridAPIKey   string // empty: log mail to the console
	RollbarToken     string // empty: rollbar disabled

	StrictQuizGate  bool
	NotifyQueueSize int
}

// CORSOrigins returns the allow-list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// FromEnv loads an optional .env file (DOTENV_PATH, default ".env") and
// reads the process environment.
func FromEnv() Config {
	path := os.Getenv("DOTENV_PATH")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			log.Fatalf("config.godotenv(%s): %v", path, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", path, err)
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("env", "DEV")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("app_name", "MindEngage Courses")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("site_id", "local")
	v.SetDefault("enable_local_auth", true)
	v.SetDefault("auth_hmac_secret", "dev-secret-change-me")
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass_hash", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji")
	v.SetDefault("cors_origins_online", "https://courses.mindengage.ai")
	v.SetDefault("cors_origins_offline", "http://localhost:3000,http://localhost:3010")
	v.SetDefault("default_from_email", "noreply@localhost")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("strict_quiz_gate", false)
	v.SetDefault("notify_queue_size", 256)
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Mode:               Mode(v.GetString("mode")),
		Env:                strings.ToUpper(v.GetString("env")),
		HTTPAddr:           v.GetString("http_addr"),
		AppName:            v.GetString("app_name"),
		DBDriver:           v.GetString("db_driver"),
		DBDSN:              v.GetString("db_dsn"),
		SiteID:             v.GetString("site_id"),
		EnableLocalAuth:    v.GetBool("enable_local_auth"),
		AuthHMACSecret:     v.GetString("auth_hmac_secret"),
		AdminUser:          v.GetString("admin_user"),
		AdminPassHash:      v.GetString("admin_pass_hash"),
		CORSOriginsOnline:  splitCSV(v.GetString("cors_origins_online")),
		CORSOriginsOffline: splitCSV(v.GetString("cors_origins_offline")),
		DefaultFromEmail:   v.GetString("default_from_email"),
		SendGridAPIKey:     v.GetString("sendgrid_api_key"),
		RollbarToken:       v.GetString("rollbar_token"),
		StrictQuizGate:     v.GetBool("strict_quiz_gate"),
		NotifyQueueSize:    v.GetInt("notify_queue_size"),
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
