package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config struct is the top-level configuration structure. It is built once
// at startup and handed to the components that need it.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Notion   NotionConfig   `mapstructure:"notion"`
	Export   ExportConfig   `mapstructure:"export"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the storage connection. URL is either a postgres
// DSN/URL or a sqlite URL such as sqlite:///health_management.db.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	LogLevel string `mapstructure:"log_level"`
}

// CORSConfig lists the origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// NotionConfig holds the recording-service settings used for export.
type NotionConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	DatabaseID  string        `mapstructure:"database_id"`
	BaseURL     string        `mapstructure:"base_url"`
	Version     string        `mapstructure:"version"`
	Timeout     time.Duration `mapstructure:"timeout"`
	TitleLayout string        `mapstructure:"title_layout"`
	Timezone    string        `mapstructure:"timezone"`

	Properties NotionProperties `mapstructure:"properties"`
}

// NotionProperties names the columns of the Notion database that receive a
// session summary.
type NotionProperties struct {
	Title                   string `mapstructure:"title"`
	PVTMeanReactionTime     string `mapstructure:"pvt_mean_reaction_time"`
	PVTAccuracy             string `mapstructure:"pvt_accuracy"`
	FlankerMeanReactionTime string `mapstructure:"flanker_mean_reaction_time"`
	FlankerAccuracy         string `mapstructure:"flanker_accuracy"`
	EFSIFatigueScore        string `mapstructure:"efsi_fatigue_score"`
	VASSleepiness           string `mapstructure:"vas_sleepiness"`
	VASFatigue              string `mapstructure:"vas_fatigue"`
}

// DefaultNotionProperties returns the column names of the existing results
// database.
func DefaultNotionProperties() NotionProperties {
	return NotionProperties{
		Title:                   "Name",
		PVTMeanReactionTime:     "PVT-平均速度",
		PVTAccuracy:             "PVT-正解率",
		FlankerMeanReactionTime: "Flanker-平均速度",
		FlankerAccuracy:         "Flanker-正解率",
		EFSIFatigueScore:        "EFSI-過労スコア",
		VASSleepiness:           "VANS-眠気",
		VASFatigue:              "VANS-疲労",
	}
}

// WithDefaults fills every empty name from DefaultNotionProperties.
func (p NotionProperties) WithDefaults() NotionProperties {
	d := DefaultNotionProperties()
	fill := func(name *string, def string) {
		if *name == "" {
			*name = def
		}
	}
	fill(&p.Title, d.Title)
	fill(&p.PVTMeanReactionTime, d.PVTMeanReactionTime)
	fill(&p.PVTAccuracy, d.PVTAccuracy)
	fill(&p.FlankerMeanReactionTime, d.FlankerMeanReactionTime)
	fill(&p.FlankerAccuracy, d.FlankerAccuracy)
	fill(&p.EFSIFatigueScore, d.EFSIFatigueScore)
	fill(&p.VASSleepiness, d.VASSleepiness)
	fill(&p.VASFatigue, d.VASFatigue)
	return p
}

// ExportConfig holds limits applied to the export endpoint.
type ExportConfig struct {
	RateLimit uint `mapstructure:"rate_limit"` // requests per minute per client
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// envAliases maps config keys to the plain environment names used by the
// deployment (in addition to the HEALTH_ prefixed form).
var envAliases = map[string]string{
	"server.port":          "PORT",
	"database.url":         "DATABASE_URL",
	"cors.allowed_origins": "FRONTEND_URL",
	"notion.api_key":       "NOTION_API_KEY",
	"notion.database_id":   "NOTION_DATABASE_ID",
	"notion.base_url":      "NOTION_BASE_URL",
	"notion.version":       "NOTION_VERSION",
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database defaults
	v.SetDefault("database.url", "sqlite:///health_management.db")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("cors.allowed_origins", "http://localhost:5173")

	// Notion defaults; credentials have none on purpose
	v.SetDefault("notion.api_key", "")
	v.SetDefault("notion.database_id", "")
	v.SetDefault("notion.base_url", "https://api.notion.com/v1")
	v.SetDefault("notion.version", "2022-06-28")
	v.SetDefault("notion.timeout", "30s")
	v.SetDefault("notion.title_layout", "2006年01月02日 15:04")
	v.SetDefault("notion.timezone", "Local")
	props := DefaultNotionProperties()
	v.SetDefault("notion.properties.title", props.Title)
	v.SetDefault("notion.properties.pvt_mean_reaction_time", props.PVTMeanReactionTime)
	v.SetDefault("notion.properties.pvt_accuracy", props.PVTAccuracy)
	v.SetDefault("notion.properties.flanker_mean_reaction_time", props.FlankerMeanReactionTime)
	v.SetDefault("notion.properties.flanker_accuracy", props.FlankerAccuracy)
	v.SetDefault("notion.properties.efsi_fatigue_score", props.EFSIFatigueScore)
	v.SetDefault("notion.properties.vas_sleepiness", props.VASSleepiness)
	v.SetDefault("notion.properties.vas_fatigue", props.VASFatigue)

	v.SetDefault("export.rate_limit", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
}

// Load reads the configuration. configFile may be empty, in which case
// config/config.yaml is used when present. Environment variables win over
// the file, which wins over defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// e.g. HEALTH_SERVER_PORT
	v.SetEnvPrefix("HEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		prefixed := "HEALTH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitOrigins(cfg.CORS.AllowedOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitOrigins trims entries and also splits any that still hold commas,
// which happens when the list comes from a YAML scalar.
func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, origin := range strings.Split(entry, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port must not be empty")
	}
	if c.Database.URL == "" {
		return errors.New("database.url must not be empty")
	}
	if c.Notion.Timeout <= 0 {
		return fmt.Errorf("notion.timeout must be positive, got %s", c.Notion.Timeout)
	}
	return nil
}

// ExportConfigured reports whether both Notion credentials are set.
func (n NotionConfig) ExportConfigured() bool {
	return n.APIKey != "" && n.DatabaseID != ""
}
