package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	AI         AI         `mapstructure:"ai"`
	News       News       `mapstructure:"news"`
	Images     Images     `mapstructure:"images"`
	Blogger    Blogger    `mapstructure:"blogger"`
	Affiliate  Affiliate  `mapstructure:"affiliate"`
	Analytics  Analytics  `mapstructure:"analytics"`
	Ads        Ads        `mapstructure:"ads"`
	Social     Social     `mapstructure:"social"`
	Automation Automation `mapstructure:"automation"`
	Server     Server     `mapstructure:"server"`
}

// App holds general application configuration
type App struct {
	LogLevel   string `mapstructure:"log_level"`
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"config_file"`
}

// AI holds content generation configuration
type AI struct {
	Provider string       `mapstructure:"provider"` // gemini or openai
	Gemini   GeminiConfig `mapstructure:"gemini"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	ImageModel string `mapstructure:"image_model"`
	BaseURL    string `mapstructure:"base_url"`
}

// News holds trending topic source configuration
type News struct {
	APIKey       string        `mapstructure:"api_key"`
	Country      string        `mapstructure:"country"`
	PageSize     int           `mapstructure:"page_size"`
	CacheDir     string        `mapstructure:"cache_dir"`
	FreshTTL     time.Duration `mapstructure:"fresh_ttl"`
	StaleTTL     time.Duration `mapstructure:"stale_ttl"`
	TrendsGeo    string        `mapstructure:"trends_geo"`
	RSSFeeds     []string      `mapstructure:"rss_feeds"`
	FilterPeople bool          `mapstructure:"filter_people"`
}

// Images holds image provider configuration
type Images struct {
	Provider    string `mapstructure:"provider"` // unsplash or dalle
	UnsplashKey string `mapstructure:"unsplash_key"`
	OutputDir   string `mapstructure:"output_dir"`
}

// Blogger holds Blogger publishing credentials
type Blogger struct {
	BlogID       string `mapstructure:"blog_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
}

// Affiliate holds affiliate catalog configuration
type Affiliate struct {
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	Worksheet       string        `mapstructure:"worksheet"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	CacheFile       string        `mapstructure:"cache_file"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	MaxProducts     int           `mapstructure:"max_products"`
}

// Analytics holds Google Analytics 4 reporting configuration. Credentials
// come from CredentialsFile or from ClientEmail and PrivateKey.
type Analytics struct {
	PropertyID      string `mapstructure:"property_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	ClientEmail     string `mapstructure:"client_email"`
	PrivateKey      string `mapstructure:"private_key"`
	ProjectID       string `mapstructure:"project_id"`
	Days            int    `mapstructure:"days"`
}

// Ads holds ad placement configuration
type Ads struct {
	Network string `mapstructure:"network"` // google, carbon, direct
	Density string `mapstructure:"density"` // low, medium, high
}

// Social holds social sharing configuration
type Social struct {
	Enabled        bool   `mapstructure:"enabled"`
	SlackWebhook   string `mapstructure:"slack_webhook"`
	DiscordWebhook string `mapstructure:"discord_webhook"`
	Username       string `mapstructure:"username"`
}

// Automation holds scheduler and pipeline configuration
type Automation struct {
	PostsPerDay          int           `mapstructure:"posts_per_day" json:"posts_per_day"`
	Sources              []string      `mapstructure:"sources" json:"trending_sources"`
	Categories           []string      `mapstructure:"categories" json:"categories"`
	MinSEOScore          int           `mapstructure:"min_seo_score" json:"min_seo_score"`
	MaxRetries           int           `mapstructure:"max_retries" json:"max_retries"`
	DedupWindow          time.Duration `mapstructure:"dedup_window" json:"-"`
	LogFile              string        `mapstructure:"log_file" json:"-"`
	MaxLogEntries        int           `mapstructure:"max_log_entries" json:"max_log_entries"`
	PollInterval         time.Duration `mapstructure:"poll_interval" json:"-"`
	Jitter               time.Duration `mapstructure:"jitter" json:"-"`
	MinHoursBetweenPosts float64       `mapstructure:"min_hours_between_posts" json:"min_hours_between_posts"`
	ShareOnSocial        bool          `mapstructure:"share_on_social" json:"share_on_social"`
}

// Server holds HTTP server configuration
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AdminAPIKey     string        `mapstructure:"admin_api_key"`
	CORS            CORS          `mapstructure:"cors"`
}

// CORS holds CORS middleware configuration
type CORS struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load loads the configuration from a .env file, an optional YAML file and the environment.
// Every call builds a fresh viper instance, so callers own the returned value.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".autoblog")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = v.ConfigFileUsed()

	postProcessConfig(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns the configuration built from defaults only, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	config := &Config{}
	_ = v.Unmarshal(config)
	postProcessConfig(config)
	return config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.data_dir", ".autoblog")

	// AI defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.max_tokens", 2048)
	v.SetDefault("ai.gemini.temperature", 0.7)
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.image_model", "gpt-image-1")
	v.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")

	// News defaults
	v.SetDefault("news.country", "us")
	v.SetDefault("news.page_size", 20)
	v.SetDefault("news.cache_dir", ".autoblog/cache")
	v.SetDefault("news.fresh_ttl", "2h")
	v.SetDefault("news.stale_ttl", "24h")
	v.SetDefault("news.trends_geo", "US")
	v.SetDefault("news.filter_people", true)

	// Image defaults
	v.SetDefault("images.provider", "unsplash")
	v.SetDefault("images.output_dir", "images")

	// Affiliate defaults
	v.SetDefault("affiliate.cache_file", ".autoblog/cache/affiliate_products.json")
	v.SetDefault("affiliate.cache_ttl", "6h")
	v.SetDefault("affiliate.max_products", 3)

	// Analytics defaults
	v.SetDefault("analytics.days", 30)

	// Ads defaults
	v.SetDefault("ads.network", "google")
	v.SetDefault("ads.density", "medium")

	// Social defaults
	v.SetDefault("social.enabled", false)
	v.SetDefault("social.username", "AutoBlog")

	// Automation defaults
	v.SetDefault("automation.posts_per_day", 1)
	v.SetDefault("automation.sources", []string{"news"})
	v.SetDefault("automation.categories", []string{"technology", "business", "science"})
	v.SetDefault("automation.min_seo_score", 70)
	v.SetDefault("automation.max_retries", 3)
	v.SetDefault("automation.dedup_window", "24h")
	v.SetDefault("automation.log_file", "automation_log.json")
	v.SetDefault("automation.max_log_entries", 500)
	v.SetDefault("automation.poll_interval", "60s")
	v.SetDefault("automation.jitter", "30m")
	v.SetDefault("automation.min_hours_between_posts", 8)
	v.SetDefault("automation.share_on_social", true)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors.enabled", true)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables(v *viper.Viper) {
	// Gemini API key - support multiple formats
	bindEnvKeys(v, "ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys(v, "ai.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	bindEnvKeys(v, "news.api_key", []string{
		"NEWS_API_KEY",
		"NEWSAPI_KEY",
	})

	bindEnvKeys(v, "images.unsplash_key", []string{
		"UNSPLASH_API_KEY",
		"UNSPLASH_ACCESS_KEY",
	})

	bindEnvKeys(v, "images.output_dir", []string{
		"IMAGE_OUTPUT_DIR",
	})

	// Blogger OAuth credentials
	bindEnvKeys(v, "blogger.blog_id", []string{"BLOGGER_ID", "BLOGGER_BLOG_ID"})
	bindEnvKeys(v, "blogger.client_id", []string{"BLOGGER_CLIENT_ID"})
	bindEnvKeys(v, "blogger.client_secret", []string{"BLOGGER_CLIENT_SECRET"})
	bindEnvKeys(v, "blogger.refresh_token", []string{"BLOGGER_REFRESH_TOKEN"})

	bindEnvKeys(v, "affiliate.spreadsheet_id", []string{
		"AFFILIATE_SPREADSHEET_ID",
		"GOOGLE_SHEET_ID",
	})
	bindEnvKeys(v, "affiliate.credentials_file", []string{
		"GOOGLE_APPLICATION_CREDENTIALS",
		"GOOGLE_SERVICE_ACCOUNT_FILE",
	})

	bindEnvKeys(v, "analytics.property_id", []string{"GA_PROPERTY_ID"})
	bindEnvKeys(v, "analytics.credentials_file", []string{
		"GA_CREDENTIALS_FILE",
		"GOOGLE_APPLICATION_CREDENTIALS",
	})
	bindEnvKeys(v, "analytics.client_email", []string{"GA_CLIENT_EMAIL"})
	bindEnvKeys(v, "analytics.private_key", []string{"GA_PRIVATE_KEY"})
	bindEnvKeys(v, "analytics.project_id", []string{"GA_PROJECT_ID"})

	// Messaging webhooks
	bindEnvKeys(v, "social.slack_webhook", []string{
		"SLACK_WEBHOOK_URL",
		"SLACK_WEBHOOK",
	})
	bindEnvKeys(v, "social.discord_webhook", []string{
		"DISCORD_WEBHOOK_URL",
		"DISCORD_WEBHOOK",
	})

	bindEnvKeys(v, "server.admin_api_key", []string{
		"ADMIN_API_KEY",
	})

	bindEnvKeys(v, "app.log_level", []string{
		"LOG_LEVEL",
		"AUTOBLOG_LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(v *viper.Viper, viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) {
	config.News.CacheDir = expandPath(config.News.CacheDir)
	config.Images.OutputDir = expandPath(config.Images.OutputDir)
	config.Affiliate.CacheFile = expandPath(config.Affiliate.CacheFile)
	config.Affiliate.CredentialsFile = expandPath(config.Affiliate.CredentialsFile)
	config.Analytics.CredentialsFile = expandPath(config.Analytics.CredentialsFile)
	config.Automation.LogFile = expandPath(config.Automation.LogFile)

	// Polling more slowly than once a minute would miss the stop deadline
	if config.Automation.PollInterval <= 0 || config.Automation.PollInterval > time.Minute {
		config.Automation.PollInterval = time.Minute
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures configuration values are coherent
func validateConfig(config *Config) error {
	var errors []string

	switch config.AI.Provider {
	case "gemini", "openai":
	default:
		errors = append(errors, fmt.Sprintf("Unknown AI provider: %s. Supported: gemini, openai", config.AI.Provider))
	}

	switch config.Images.Provider {
	case "unsplash", "dalle":
	default:
		errors = append(errors, fmt.Sprintf("Unknown image provider: %s. Supported: unsplash, dalle", config.Images.Provider))
	}

	switch config.Ads.Network {
	case "google", "carbon", "direct":
	default:
		errors = append(errors, fmt.Sprintf("Unknown ad network: %s. Supported: google, carbon, direct", config.Ads.Network))
	}

	switch config.Ads.Density {
	case "low", "medium", "high":
	default:
		errors = append(errors, fmt.Sprintf("Unknown ad density: %s. Supported: low, medium, high", config.Ads.Density))
	}

	errors = append(errors, ValidateAutomation(config.Automation)...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateAutomation reports problems with automation settings.
// It is shared with runtime settings updates.
func ValidateAutomation(a Automation) []string {
	var errors []string

	if a.PostsPerDay < 1 || a.PostsPerDay > 24 {
		errors = append(errors, fmt.Sprintf("posts_per_day must be between 1 and 24, got %d", a.PostsPerDay))
	}
	if a.MinSEOScore < 0 || a.MinSEOScore > 100 {
		errors = append(errors, fmt.Sprintf("min_seo_score must be between 0 and 100, got %d", a.MinSEOScore))
	}
	if a.MaxRetries < 1 {
		errors = append(errors, fmt.Sprintf("max_retries must be at least 1, got %d", a.MaxRetries))
	}
	if a.MaxLogEntries < 1 {
		errors = append(errors, fmt.Sprintf("max_log_entries must be at least 1, got %d", a.MaxLogEntries))
	}
	if len(a.Sources) == 0 {
		errors = append(errors, "at least one trending source is required")
	}
	for _, source := range a.Sources {
		switch source {
		case "news", "google", "rss":
		default:
			errors = append(errors, fmt.Sprintf("Unknown trending source: %s. Supported: news, google, rss", source))
		}
	}

	return errors
}

// HasBloggerCredentials reports whether publishing can authenticate
func (c *Config) HasBloggerCredentials() bool {
	b := c.Blogger
	return b.BlogID != "" && b.ClientID != "" && b.ClientSecret != "" && b.RefreshToken != ""
}

// Address returns the host:port the HTTP server listens on
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
