package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/sitehost/internal/adapters/out/vhost"
	"github.com/bnema/sitehost/internal/domain"
	"github.com/bnema/sitehost/internal/logging"
	"github.com/bnema/sitehost/pkg/bytesize"
)

// Config holds the application configuration.
type Config struct {
	Server struct {
		Port            int           `mapstructure:"port"`
		CallTimeout     time.Duration `mapstructure:"call_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		MaxUploadSize   string        `mapstructure:"max_upload_size"`
		APISecret       string        `mapstructure:"api_secret"`
		AllowedCIDRs    []string      `mapstructure:"allowed_cidrs"`
		TrustedProxies  []string      `mapstructure:"trusted_proxies"`
		CORSOrigins     []string      `mapstructure:"cors_origins"`
	} `mapstructure:"server"`

	RateLimit struct {
		RPS           float64       `mapstructure:"rps"`
		Burst         int           `mapstructure:"burst"`
		IdleTTL       time.Duration `mapstructure:"idle_ttl"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
		RetryAfter    int           `mapstructure:"retry_after"` // seconds
	} `mapstructure:"rate_limit"`

	Sites struct {
		BaseDir       string   `mapstructure:"base_dir"`
		Domain        string   `mapstructure:"domain"`
		ReservedNames []string `mapstructure:"reserved_names"`
	} `mapstructure:"sites"`

	Webserver struct {
		Flavor         string   `mapstructure:"flavor"` // "apache" or "nginx"
		SitesAvailable string   `mapstructure:"sites_available"`
		SitesEnabled   string   `mapstructure:"sites_enabled"`
		TestCmd        []string `mapstructure:"test_cmd"`
		ReloadCmd      []string `mapstructure:"reload_cmd"`
		Owner          string   `mapstructure:"owner"`
		Sudo           bool     `mapstructure:"sudo"`
		CertFile       string   `mapstructure:"cert_file"` // may contain {domain}
		KeyFile        string   `mapstructure:"key_file"`  // may contain {domain}
		LogDir         string   `mapstructure:"log_dir"`
		AdminEmail     string   `mapstructure:"admin_email"`
	} `mapstructure:"webserver"`

	Registry struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"registry"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   struct {
			Enabled    bool   `mapstructure:"enabled"`
			Path       string `mapstructure:"path"`
			MaxSize    int    `mapstructure:"max_size"`
			MaxBackups int    `mapstructure:"max_backups"`
			MaxAge     int    `mapstructure:"max_age"`
		} `mapstructure:"file"`
	} `mapstructure:"logging"`
}

// legacyEnv maps the variable names of the first deployment server onto
// config keys. The SITEHOST_ form is still read first.
var legacyEnv = map[string]string{
	"server.port":               "PORT",
	"server.api_secret":         "API_SECRET",
	"sites.base_dir":            "BASE_DIR",
	"sites.domain":              "DOMAIN",
	"webserver.sites_available": "APACHE_SITES_AVAILABLE",
}

// LoadConfig reads .env, the config file and the environment, in that order
// of increasing precedence, and returns the validated configuration.
func LoadConfig(configPath string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if err := loadConfig(v, configPath); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyFlavorDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadConfig loads configuration from file and sets defaults.
func loadConfig(v *viper.Viper, configPath string) error {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.call_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_upload_size", "100M")
	v.SetDefault("server.api_secret", "")
	v.SetDefault("server.allowed_cidrs", []string{})
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("rate_limit.rps", 2)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.idle_ttl", "10m")
	v.SetDefault("rate_limit.sweep_interval", "1m")
	v.SetDefault("rate_limit.retry_after", 1)
	v.SetDefault("sites.base_dir", "/var/www/html")
	v.SetDefault("sites.domain", "digitel.site")
	v.SetDefault("sites.reserved_names", domain.DefaultReservedNames)
	v.SetDefault("webserver.flavor", vhost.FlavorApache)
	v.SetDefault("webserver.sites_available", "")
	v.SetDefault("webserver.sites_enabled", "")
	v.SetDefault("webserver.test_cmd", []string{})
	v.SetDefault("webserver.reload_cmd", []string{})
	v.SetDefault("webserver.owner", "www-data:www-data")
	v.SetDefault("webserver.sudo", false)
	v.SetDefault("webserver.cert_file", "")
	v.SetDefault("webserver.key_file", "")
	v.SetDefault("webserver.log_dir", "")
	v.SetDefault("webserver.admin_email", "")
	v.SetDefault("registry.path", DefaultRegistryPath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)

	ConfigureViper(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SITEHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		primary := "SITEHOST_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, primary, legacy); err != nil {
			return fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}

	return nil
}

// applyFlavorDefaults fills paths whose default depends on the web server.
func (c *Config) applyFlavorDefaults() {
	c.Webserver.Flavor = strings.ToLower(strings.TrimSpace(c.Webserver.Flavor))
	if c.Webserver.SitesAvailable == "" {
		switch c.Webserver.Flavor {
		case vhost.FlavorNginx:
			c.Webserver.SitesAvailable = "/etc/nginx/sites-available"
		default:
			c.Webserver.SitesAvailable = "/etc/apache2/sites-available"
		}
	}
	c.Sites.Domain = strings.ToLower(strings.TrimSpace(c.Sites.Domain))
}

// Validate checks the settings every command relies on.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if _, err := bytesize.Parse(c.Server.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid server.max_upload_size: %w", err)
	}
	if c.Server.CallTimeout <= 0 {
		return fmt.Errorf("server.call_timeout must be positive")
	}
	if c.Sites.Domain == "" || strings.ContainsAny(c.Sites.Domain, "/: ") {
		return fmt.Errorf("invalid sites.domain %q", c.Sites.Domain)
	}
	if !filepath.IsAbs(c.Sites.BaseDir) {
		return fmt.Errorf("sites.base_dir must be an absolute path, got %q", c.Sites.BaseDir)
	}
	for _, name := range c.Sites.ReservedNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("sites.reserved_names contains an empty entry")
		}
	}
	switch c.Webserver.Flavor {
	case vhost.FlavorApache, vhost.FlavorNginx:
	default:
		return fmt.Errorf("unsupported webserver.flavor %q", c.Webserver.Flavor)
	}
	if c.Registry.Path == "" {
		return fmt.Errorf("registry.path is required")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.rps and rate_limit.burst must be positive")
	}
	return nil
}

// LoggingConfig converts the logging section for logging.Setup.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File: logging.FileConfig{
			Enabled:    c.Logging.File.Enabled,
			Path:       c.Logging.File.Path,
			MaxSize:    c.Logging.File.MaxSize,
			MaxBackups: c.Logging.File.MaxBackups,
			MaxAge:     c.Logging.File.MaxAge,
			Compress:   true,
		},
	}
}
