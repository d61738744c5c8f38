package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Convert ConvertConfig `yaml:"convert" mapstructure:"convert"`
	Heatmap HeatmapConfig `yaml:"heatmap" mapstructure:"heatmap"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ConvertConfig configures GeoJSON conversion batches.
type ConvertConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Workers   int    `yaml:"workers" mapstructure:"workers"`
	Indent    int    `yaml:"indent" mapstructure:"indent"`
}

// HeatmapConfig configures heatmap rasterization. Radius and pixel size
// are in the coordinate units of the input data.
type HeatmapConfig struct {
	OutputDir string  `yaml:"output_dir" mapstructure:"output_dir"`
	Radius    float64 `yaml:"radius" mapstructure:"radius"`
	PixelSize float64 `yaml:"pixel_size" mapstructure:"pixel_size"`
	Kernel    string  `yaml:"kernel" mapstructure:"kernel"`
}

// StoreConfig configures the run ledger.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP conversion server. RateLimit is the
// allowed requests per second on the convert endpoint; 0 disables
// throttling.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// validKernels are the density kernel names the heatmap command accepts.
var validKernels = map[string]bool{
	"quartic":      true,
	"triangular":   true,
	"uniform":      true,
	"epanechnikov": true,
}

// Validate checks the fields a given command depends on. mode is the
// command name: "convert", "heatmap", or "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "convert":
		if c.Convert.Workers < 1 || c.Convert.Workers > 64 {
			problems = append(problems, "convert.workers must be between 1 and 64")
		}
		if c.Convert.Indent < 0 {
			problems = append(problems, "convert.indent must be >= 0")
		}
	case "heatmap":
		if c.Heatmap.Radius <= 0 {
			problems = append(problems, "heatmap.radius must be > 0")
		}
		if c.Heatmap.PixelSize <= 0 {
			problems = append(problems, "heatmap.pixel_size must be > 0")
		}
		if !validKernels[c.Heatmap.Kernel] {
			problems = append(problems, "heatmap.kernel must be one of quartic, triangular, uniform, epanechnikov")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 {
			problems = append(problems, "server.rate_limit must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOTRACKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("convert.output_dir", "geojson_output")
	v.SetDefault("convert.workers", 4)
	v.SetDefault("convert.indent", 2)
	v.SetDefault("heatmap.output_dir", "heatmap_output")
	v.SetDefault("heatmap.radius", 0.01)
	v.SetDefault("heatmap.pixel_size", 0.001)
	v.SetDefault("heatmap.kernel", "quartic")
	v.SetDefault("store.path", "geotracks.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
