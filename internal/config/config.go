package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string

	// LinkedIn OAuth and posting
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	LifecycleState string
	LinkedInAPIURL string
	MaxPostLength  int

	// Sessions
	DatabasePath string
	SessionTTL   time.Duration
	CookieSecure bool

	// JSON API auth; when empty the API falls back to the browser session.
	APIKey string

	// Newsletter generation
	GoogleAPIKey  string
	GeminiModel   string
	MaxToolRounds int

	// News retrieval
	NewsAPIKey string
	NewsAPIURL string
	NewsFeeds  []string

	// Newsletter job pool
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Draft import
	MaxUploadBytes       int64
	PDFFallbackPdftotext bool

	// TLS via ACME
	TLSDomains []string
	ACMEEmail  string

	// Shown in the page footer.
	AuthorName     string
	AuthorLinkedIn string
	AuthorGitHub   string
}

// envNames lists the environment variables bound to each key. The first
// name is the canonical one; the rest are legacy names still accepted.
var envNames = map[string][]string{
	"port":                   {"PORT"},
	"client_id":              {"CLIENT_ID"},
	"client_secret":          {"CLIENT_SECRET"},
	"redirect_url":           {"OAUTH2_REDIRECT_URL"},
	"lifecycle_state":        {"LIFECYCLE_STATE", "lifecycleState"},
	"linkedin_api_url":       {"LINKEDIN_API_URL"},
	"max_post_length":        {"MAX_POST_LENGTH"},
	"database_path":          {"DATABASE_PATH"},
	"session_ttl":            {"SESSION_TTL"},
	"cookie_secure":          {"COOKIE_SECURE"},
	"api_key":                {"API_KEY"},
	"google_api_key":         {"GOOGLE_API_KEY"},
	"gemini_model":           {"GEMINI_MODEL"},
	"max_tool_rounds":        {"MAX_TOOL_ROUNDS"},
	"newsapi_key":            {"NEWSAPI_KEY", "newsapi_key"},
	"newsapi_url":            {"NEWSAPI_URL"},
	"news_feeds":             {"NEWS_FEEDS"},
	"worker_count":           {"WORKER_COUNT"},
	"max_queue_size":         {"MAX_QUEUE_SIZE"},
	"job_ttl":                {"JOB_TTL"},
	"max_upload_bytes":       {"MAX_UPLOAD_BYTES"},
	"pdf_fallback_pdftotext": {"PDF_FALLBACK_PDFTOTEXT"},
	"tls_domains":            {"TLS_DOMAINS"},
	"acme_email":             {"ACME_EMAIL"},
	"author_name":            {"AUTHOR_NAME"},
	"author_linkedin":        {"AUTHOR_LINKEDIN"},
	"author_github":          {"AUTHOR_GITHUB"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8090")
	v.SetDefault("lifecycle_state", "PUBLISHED")
	v.SetDefault("linkedin_api_url", "https://api.linkedin.com/v2")
	v.SetDefault("max_post_length", 2500)
	v.SetDefault("database_path", "linkpost.db")
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("cookie_secure", true)
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("max_tool_rounds", 5)
	v.SetDefault("newsapi_url", "https://newsapi.org/v2")
	v.SetDefault("worker_count", 2)
	v.SetDefault("max_queue_size", 20)
	v.SetDefault("job_ttl", time.Hour)
	v.SetDefault("max_upload_bytes", 10485760) // 10MB
	v.SetDefault("pdf_fallback_pdftotext", true)
}

// Load resolves configuration with precedence defaults < file < env. If
// configFile is empty, linkpost.yaml (or .json/.toml) in the working
// directory is read when present.
func Load(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v)
	for key, names := range envNames {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("linkpost")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Port: v.GetString("port"),

		ClientID:       v.GetString("client_id"),
		ClientSecret:   v.GetString("client_secret"),
		RedirectURL:    v.GetString("redirect_url"),
		LifecycleState: v.GetString("lifecycle_state"),
		LinkedInAPIURL: strings.TrimSuffix(v.GetString("linkedin_api_url"), "/"),
		MaxPostLength:  v.GetInt("max_post_length"),

		DatabasePath: v.GetString("database_path"),
		SessionTTL:   v.GetDuration("session_ttl"),
		CookieSecure: v.GetBool("cookie_secure"),

		APIKey: v.GetString("api_key"),

		GoogleAPIKey:  v.GetString("google_api_key"),
		GeminiModel:   v.GetString("gemini_model"),
		MaxToolRounds: v.GetInt("max_tool_rounds"),

		NewsAPIKey: v.GetString("newsapi_key"),
		NewsAPIURL: strings.TrimSuffix(v.GetString("newsapi_url"), "/"),
		NewsFeeds:  stringList(v, "news_feeds"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),
		JobTTL:       v.GetDuration("job_ttl"),

		MaxUploadBytes:       v.GetInt64("max_upload_bytes"),
		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),

		TLSDomains: stringList(v, "tls_domains"),
		ACMEEmail:  v.GetString("acme_email"),

		AuthorName:     v.GetString("author_name"),
		AuthorLinkedIn: v.GetString("author_linkedin"),
		AuthorGitHub:   v.GetString("author_github"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 5
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}

	return cfg, nil
}

// Validate checks the settings the web server cannot run without.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("CLIENT_SECRET is required")
	}
	if c.RedirectURL == "" {
		return fmt.Errorf("OAUTH2_REDIRECT_URL is required")
	}
	if c.MaxPostLength <= 0 {
		return fmt.Errorf("MAX_POST_LENGTH must be greater than 0, got %d", c.MaxPostLength)
	}
	switch c.LifecycleState {
	case "PUBLISHED", "DRAFT":
	default:
		return fmt.Errorf("lifecycleState must be PUBLISHED or DRAFT, got %q", c.LifecycleState)
	}
	return nil
}

// NewsletterEnabled reports whether a Gemini key is configured.
func (c Config) NewsletterEnabled() bool {
	return c.GoogleAPIKey != ""
}

// stringList accepts either a list (config file) or a comma-separated
// string (environment).
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
