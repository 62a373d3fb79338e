package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string
	SiteID   string // stamped on event_log rows

	DBDriver string
	DBDSN    string

	EnableLocalAuth bool
	AdminUser       string
	AdminPassHash   string // bcrypt
	AuthHMACSecret  string
	TokenTTL        time.Duration

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	SessionSecret string
	SessionTTL    time.Duration
	AttemptStore  string // memory|sql

	SeedQuestions        bool
	DefaultQuestionCount int

	BlobDir string // question-bank snapshots
}

// CORSOrigins returns the allow-list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func defaults(v *viper.Viper) {
	v.SetDefault("MODE", string(ModeOffline))
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SITE_ID", "local")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("ENABLE_LOCAL_AUTH", "true")
	v.SetDefault("ADMIN_USER", "admin")
	v.SetDefault("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji")
	v.SetDefault("AUTH_HMAC_SECRET", "supersecret-dev-key")
	v.SetDefault("TOKEN_TTL", "8h")
	v.SetDefault("CORS_ORIGINS_ONLINE", "https://quiz.mindengage.ai")
	v.SetDefault("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010")
	v.SetDefault("SESSION_SECRET", "quiz-session-dev-key-change-me!!")
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("ATTEMPT_STORE", "memory")
	v.SetDefault("SEED_QUESTIONS", "true")
	v.SetDefault("DEFAULT_QUESTION_COUNT", 20)
	v.SetDefault("BLOB_DIR", "./data")
}

// Load resolves configuration from defaults, an optional config file
// (yaml, json, toml, env) and the environment, in increasing precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	mode := Mode(strings.ToLower(v.GetString("MODE")))
	if mode != ModeOnline {
		mode = ModeOffline
	}
	cfg := Config{
		Mode:     mode,
		HTTPAddr: v.GetString("HTTP_ADDR"),
		SiteID:   v.GetString("SITE_ID"),

		DBDriver: v.GetString("DB_DRIVER"),
		DBDSN:    v.GetString("DB_DSN"),

		EnableLocalAuth: boolOr(v, "ENABLE_LOCAL_AUTH", true),
		AdminUser:       v.GetString("ADMIN_USER"),
		AdminPassHash:   v.GetString("ADMIN_PASS_HASH"),
		AuthHMACSecret:  v.GetString("AUTH_HMAC_SECRET"),
		TokenTTL:        durationOr(v, "TOKEN_TTL", 8*time.Hour),

		CORSOriginsOnline:  csv(v.GetString("CORS_ORIGINS_ONLINE")),
		CORSOriginsOffline: csv(v.GetString("CORS_ORIGINS_OFFLINE")),

		SessionSecret: v.GetString("SESSION_SECRET"),
		SessionTTL:    durationOr(v, "SESSION_TTL", 2*time.Hour),
		AttemptStore:  strings.ToLower(v.GetString("ATTEMPT_STORE")),

		SeedQuestions:        boolOr(v, "SEED_QUESTIONS", true),
		DefaultQuestionCount: v.GetInt("DEFAULT_QUESTION_COUNT"),

		BlobDir: v.GetString("BLOB_DIR"),
	}
	if cfg.DefaultQuestionCount <= 0 {
		cfg.DefaultQuestionCount = 20
	}
	if cfg.AttemptStore != "sql" {
		cfg.AttemptStore = "memory"
	}
	return cfg, nil
}

func boolOr(v *viper.Viper, k string, def bool) bool {
	switch v.GetString(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func durationOr(v *viper.Viper, k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func csv(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
