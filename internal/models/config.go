package models

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
}

type Config struct {
	Seed           int64       `mapstructure:"seed"`
	CustomerRoster []string    `mapstructure:"customer_roster"`
	Bounds         BoundingBox `mapstructure:"bounds"`
	MinAmount      int         `mapstructure:"min_amount"`
	MaxAmount      int         `mapstructure:"max_amount"`
	DailyMinOrders int         `mapstructure:"daily_min_orders"`
	DailyMaxOrders int         `mapstructure:"daily_max_orders"`

	JitterInterval       time.Duration `mapstructure:"jitter_interval"`
	JitterRange          float64       `mapstructure:"jitter_range"`
	DeliveryInterval     time.Duration `mapstructure:"delivery_interval"`
	MaxDeliveriesPerTick int           `mapstructure:"max_deliveries_per_tick"`
	DailyCheckInterval   time.Duration `mapstructure:"daily_check_interval"`
	SyncTimeout          time.Duration `mapstructure:"sync_timeout"`
	Timezone             string        `mapstructure:"timezone"` // "Local" or an IANA name, used for hour buckets

	OrderStore  string   `mapstructure:"order_store"`
	DatabaseURL string   `mapstructure:"database_url"`
	KVStore     string   `mapstructure:"kv_store"`
	KVFilePath  string   `mapstructure:"kv_file_path"`
	S3          S3Config `mapstructure:"s3"`

	EventOutput     string `mapstructure:"event_output"`
	EventOutputPath string `mapstructure:"event_output_path"`
	EventBufferSize int    `mapstructure:"event_buffer_size"`
	KafkaBrokerList string `mapstructure:"kafka_broker_list"`

	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level"`
	Stage       string `mapstructure:"stage"`
}

var DefaultCustomerRoster = []string{
	"Aarav Sharma",
	"Priya Patel",
	"Rohan Gupta",
	"Ananya Iyer",
	"Vikram Singh",
	"Meera Nair",
	"Arjun Reddy",
	"Kavya Menon",
	"Ishaan Verma",
	"Sneha Kulkarni",
}

// SetDefaults registers every key so that environment overrides are picked up
// by Unmarshal even when no config file mentions them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("seed", 0)
	v.SetDefault("customer_roster", DefaultCustomerRoster)
	v.SetDefault("bounds.min_lat", 8.0)
	v.SetDefault("bounds.max_lat", 30.0)
	v.SetDefault("bounds.min_lng", 70.0)
	v.SetDefault("bounds.max_lng", 88.0)
	v.SetDefault("min_amount", 500)
	v.SetDefault("max_amount", 3000)
	v.SetDefault("daily_min_orders", 5)
	v.SetDefault("daily_max_orders", 10)
	v.SetDefault("jitter_interval", "2.5s")
	v.SetDefault("jitter_range", 0.01)
	v.SetDefault("delivery_interval", "2m")
	v.SetDefault("max_deliveries_per_tick", 2)
	v.SetDefault("daily_check_interval", "1h")
	v.SetDefault("sync_timeout", "5s")
	v.SetDefault("timezone", DefaultTimezoneLocal)
	v.SetDefault("order_store", OrderStoreMemory)
	v.SetDefault("database_url", "")
	v.SetDefault("kv_store", KVStoreFile)
	v.SetDefault("kv_file_path", "orderpulse-state.json")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.prefix", "orderpulse")
	v.SetDefault("event_output", EventOutputNone)
	v.SetDefault("event_output_path", "output")
	v.SetDefault("event_buffer_size", 256)
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("stage", "dev")
}

// LoadConfig initializes and reads the configuration using the global Viper
// instance, so flags bound by the CLI take part.
func LoadConfig(cfgFile string) (*Config, error) {
	return LoadConfigFrom(viper.GetViper(), cfgFile)
}

func LoadConfigFrom(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".orderpulse")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("ORDERPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (cfg *Config) Validate() error {
	switch {
	case len(cfg.CustomerRoster) == 0:
		return errors.New("config: customer_roster must not be empty")
	case cfg.MinAmount < 0 || cfg.MinAmount > cfg.MaxAmount:
		return fmt.Errorf("config: invalid amount range [%d, %d]", cfg.MinAmount, cfg.MaxAmount)
	case cfg.DailyMinOrders < 0 || cfg.DailyMinOrders > cfg.DailyMaxOrders:
		return fmt.Errorf("config: invalid daily order range [%d, %d]", cfg.DailyMinOrders, cfg.DailyMaxOrders)
	case cfg.Bounds.MinLat > cfg.Bounds.MaxLat || cfg.Bounds.MinLng > cfg.Bounds.MaxLng:
		return errors.New("config: bounds minimum exceeds maximum")
	case cfg.JitterInterval <= 0 || cfg.DeliveryInterval <= 0 || cfg.DailyCheckInterval <= 0:
		return errors.New("config: simulator intervals must be positive")
	case cfg.MaxDeliveriesPerTick < 1:
		return errors.New("config: max_deliveries_per_tick must be at least 1")
	}

	switch cfg.OrderStore {
	case OrderStoreMemory, OrderStorePostgres:
	default:
		return fmt.Errorf("config: unsupported order_store %q", cfg.OrderStore)
	}
	switch cfg.KVStore {
	case KVStoreMemory, KVStoreFile, KVStorePostgres, KVStoreS3:
	default:
		return fmt.Errorf("config: unsupported kv_store %q", cfg.KVStore)
	}
	switch cfg.EventOutput {
	case EventOutputNone, EventOutputConsole, EventOutputFile, EventOutputKafka, EventOutputPostgres:
	default:
		return fmt.Errorf("config: unsupported event_output %q", cfg.EventOutput)
	}

	if (cfg.OrderStore == OrderStorePostgres || cfg.KVStore == KVStorePostgres || cfg.EventOutput == EventOutputPostgres) && cfg.DatabaseURL == "" {
		return errors.New("config: database_url is required for postgres backends")
	}
	if cfg.KVStore == KVStoreS3 && cfg.S3.Bucket == "" {
		return errors.New("config: s3.bucket is required for the s3 kv store")
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (cfg *Config) Location() (*time.Location, error) {
	if cfg.Timezone == "" || cfg.Timezone == DefaultTimezoneLocal {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: unknown timezone %q: %w", cfg.Timezone, err)
	}
	return loc, nil
}
