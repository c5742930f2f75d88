package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/de-tools/cost-atlas/pkg/services/analyzer"
	"github.com/de-tools/cost-atlas/pkg/services/cloud/aws"
	"github.com/de-tools/cost-atlas/pkg/services/pipeline"
	"github.com/de-tools/cost-atlas/pkg/services/remediation"
	"github.com/de-tools/cost-atlas/pkg/store/pricing"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "COSTATLAS"

// keyDelimiter replaces viper's default "." so that instance classes such as "t2.micro" can be
// used as map keys.
const keyDelimiter = "::"

type Config struct {
	Regions     []string          `mapstructure:"regions"`
	AWS         AWSConfig         `mapstructure:"aws"`
	Thresholds  ThresholdsConfig  `mapstructure:"thresholds"`
	Pricing     PricingConfig     `mapstructure:"pricing"`
	Remediation RemediationConfig `mapstructure:"remediation"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Server      ServerConfig      `mapstructure:"server"`
	Collector   CollectorConfig   `mapstructure:"collector"`
}

type AWSConfig struct {
	Profile string `mapstructure:"profile"`
	// SharedConfigFile is listed by the profiles command (default: ~/.aws/config)
	SharedConfigFile string `mapstructure:"shared_config_file"`
}

type ThresholdsConfig struct {
	IdleCPU              float64 `mapstructure:"idle_cpu"`
	IdleDays             int     `mapstructure:"idle_days"`
	UnattachedVolumeDays int     `mapstructure:"unattached_volume_days"`
}

type PricingConfig struct {
	InstanceHourly  map[string]float64 `mapstructure:"instance_hourly"`
	DefaultHourly   float64            `mapstructure:"default_hourly"`
	VolumeGBMonthly float64            `mapstructure:"volume_gb_monthly"`
}

type RemediationConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	DryRun             bool    `mapstructure:"dry_run"`
	AutoApproveCeiling float64 `mapstructure:"auto_approve_ceiling"`
	Concurrency        int     `mapstructure:"concurrency"`
}

type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type CollectorConfig struct {
	RegionTimeout time.Duration `mapstructure:"region_timeout"`
	Parallelism   int           `mapstructure:"parallelism"`
}

func setDefaults(v *viper.Viper) {
	analyzerDefaults := analyzer.DefaultSettings()
	collectorDefaults := aws.DefaultCollectorSettings()

	v.SetDefault("regions", collectorDefaults.Regions)
	v.SetDefault("aws::profile", "")
	v.SetDefault("aws::shared_config_file", "")
	v.SetDefault("thresholds::idle_cpu", analyzerDefaults.IdleCPUThreshold)
	v.SetDefault("thresholds::idle_days", analyzerDefaults.IdleDays)
	v.SetDefault("thresholds::unattached_volume_days", analyzerDefaults.UnattachedVolumeDays)
	v.SetDefault("pricing::default_hourly", pricing.DefaultHourlyRate)
	v.SetDefault("pricing::volume_gb_monthly", pricing.DefaultVolumeRatePerGB)
	v.SetDefault("remediation::enabled", false)
	v.SetDefault("remediation::dry_run", true)
	v.SetDefault("remediation::auto_approve_ceiling", remediation.DefaultAutoApproveCeiling)
	v.SetDefault("remediation::concurrency", 4)
	v.SetDefault("schedule::cron", "0 2 * * *")
	v.SetDefault("storage::db_path", "cost-atlas.db")
	v.SetDefault("server::host", "127.0.0.1")
	v.SetDefault("server::port", 5000)
	v.SetDefault("collector::region_timeout", collectorDefaults.RegionTimeout)
	v.SetDefault("collector::parallelism", collectorDefaults.Parallelism)
}

// Load reads configuration from defaults, the optional YAML file at path, a .env file in the
// working directory and COSTATLAS_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("at least one region must be configured")
	}
	if c.Thresholds.IdleCPU < 0 || c.Thresholds.IdleCPU > 100 {
		return fmt.Errorf("thresholds::idle_cpu must be within [0, 100], got %v", c.Thresholds.IdleCPU)
	}
	if c.Remediation.AutoApproveCeiling < 0 {
		return fmt.Errorf("remediation::auto_approve_ceiling must not be negative")
	}
	return nil
}

func (c *Config) AnalyzerSettings() analyzer.Settings {
	return analyzer.Settings{
		IdleCPUThreshold:     c.Thresholds.IdleCPU,
		IdleDays:             c.Thresholds.IdleDays,
		UnattachedVolumeDays: c.Thresholds.UnattachedVolumeDays,
		Pricing: pricing.NewStore(pricing.Settings{
			InstanceHourly:  c.Pricing.InstanceHourly,
			DefaultHourly:   c.Pricing.DefaultHourly,
			VolumeGBMonthly: c.Pricing.VolumeGBMonthly,
		}),
	}
}

func (c *Config) CollectorSettings() aws.CollectorSettings {
	return aws.CollectorSettings{
		Regions:       append([]string{}, c.Regions...),
		RegionTimeout: c.Collector.RegionTimeout,
		Parallelism:   c.Collector.Parallelism,
	}
}

func (c *Config) ExecutorOptions() remediation.Options {
	return remediation.Options{
		DryRun:      c.Remediation.DryRun,
		Concurrency: c.Remediation.Concurrency,
	}
}

func (c *Config) PipelineSettings() pipeline.Settings {
	return pipeline.Settings{
		Analyzer:           c.AnalyzerSettings(),
		AutoRemediate:      c.Remediation.Enabled,
		AutoApproveCeiling: c.Remediation.AutoApproveCeiling,
	}
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
