package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dunamismax/pixelpress/internal/sizing"
	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. api.addr is read from
// PIXELPRESS_API_ADDR.
const EnvPrefix = "PIXELPRESS"

type Config struct {
	Log         LogConfig
	API         APIConfig
	Queue       QueueConfig
	Worker      WorkerConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Compression CompressionConfig
	Background  BackgroundConfig
	Webhook     WebhookConfig
	Tracing     TracingConfig
	RateLimit   RateLimitConfig
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type APIConfig struct {
	Addr         string
	PresignTTL   time.Duration
	UserIDHeader string
}

type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Name          string
}

func (q QueueConfig) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

type WorkerConfig struct {
	Concurrency    int
	MaxActiveJobs  int
	LocalOutputDir string
	MetricsAddr    string
	FilterWorkers  int
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	MaxObjectBytes int64
}

type DatabaseConfig struct {
	DSN string
}

type CompressionConfig struct {
	MinTargetSizeBytes int64
	MaxDimension       int
	OutputFormat       string
}

type BackgroundConfig struct {
	Endpoint string
	Timeout  time.Duration
}

type WebhookConfig struct {
	SigningSecret  string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type TracingConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRatio  float64
}

type RateLimitConfig struct {
	Enabled  bool
	Capacity int
	Window   time.Duration
}

// Load reads defaults, then an optional file named by PIXELPRESS_CONFIG, then
// environment variables.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("api.addr", ":8080")
	v.SetDefault("api.presign_ttl", 15*time.Minute)
	v.SetDefault("api.user_id_header", "X-User-ID")

	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_password", "")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.name", "default")

	v.SetDefault("worker.concurrency", max(2, runtime.NumCPU()))
	v.SetDefault("worker.max_active_jobs", max(1, runtime.NumCPU()/2))
	v.SetDefault("worker.local_output_dir", "./.pixelpress-output")
	v.SetDefault("worker.metrics_addr", ":9091")
	v.SetDefault("worker.filter_workers", runtime.NumCPU())

	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "minioadmin")
	v.SetDefault("storage.secret_key", "minioadmin")
	v.SetDefault("storage.bucket", "pixelpress-jobs")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.max_object_bytes", 50<<20)

	v.SetDefault("database.dsn", "")

	v.SetDefault("compression.min_target_size_bytes", sizing.DefaultMinTargetSizeBytes)
	v.SetDefault("compression.max_dimension", 1024)
	v.SetDefault("compression.output_format", "jpeg")

	v.SetDefault("background.endpoint", "")
	v.SetDefault("background.timeout", 60*time.Second)

	v.SetDefault("webhook.signing_secret", "")
	v.SetDefault("webhook.timeout", 10*time.Second)
	v.SetDefault("webhook.max_attempts", 3)
	v.SetDefault("webhook.initial_backoff", time.Second)
	v.SetDefault("webhook.max_backoff", 10*time.Second)

	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.otlp_insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.capacity", 30)
	v.SetDefault("ratelimit.window", time.Minute)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
		API: APIConfig{
			Addr:         v.GetString("api.addr"),
			PresignTTL:   v.GetDuration("api.presign_ttl"),
			UserIDHeader: v.GetString("api.user_id_header"),
		},
		Queue: QueueConfig{
			RedisAddr:     v.GetString("queue.redis_addr"),
			RedisPassword: v.GetString("queue.redis_password"),
			RedisDB:       v.GetInt("queue.redis_db"),
			Name:          v.GetString("queue.name"),
		},
		Worker: WorkerConfig{
			Concurrency:    v.GetInt("worker.concurrency"),
			MaxActiveJobs:  v.GetInt("worker.max_active_jobs"),
			LocalOutputDir: v.GetString("worker.local_output_dir"),
			MetricsAddr:    v.GetString("worker.metrics_addr"),
			FilterWorkers:  v.GetInt("worker.filter_workers"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("storage.endpoint"),
			AccessKey: v.GetString("storage.access_key"),
			SecretKey: v.GetString("storage.secret_key"),
			Bucket:    v.GetString("storage.bucket"),
			UseSSL:    v.GetBool("storage.use_ssl"),

			MaxObjectBytes: v.GetInt64("storage.max_object_bytes"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("database.dsn"),
		},
		Compression: CompressionConfig{
			MinTargetSizeBytes: v.GetInt64("compression.min_target_size_bytes"),
			MaxDimension:       v.GetInt("compression.max_dimension"),
			OutputFormat:       v.GetString("compression.output_format"),
		},
		Background: BackgroundConfig{
			Endpoint: v.GetString("background.endpoint"),
			Timeout:  v.GetDuration("background.timeout"),
		},
		Webhook: WebhookConfig{
			SigningSecret:  v.GetString("webhook.signing_secret"),
			Timeout:        v.GetDuration("webhook.timeout"),
			MaxAttempts:    v.GetInt("webhook.max_attempts"),
			InitialBackoff: v.GetDuration("webhook.initial_backoff"),
			MaxBackoff:     v.GetDuration("webhook.max_backoff"),
		},
		Tracing: TracingConfig{
			Exporter:     v.GetString("tracing.exporter"),
			OTLPEndpoint: v.GetString("tracing.otlp_endpoint"),
			OTLPInsecure: v.GetBool("tracing.otlp_insecure"),
			SampleRatio:  v.GetFloat64("tracing.sample_ratio"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("ratelimit.enabled"),
			Capacity: v.GetInt("ratelimit.capacity"),
			Window:   v.GetDuration("ratelimit.window"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be at least 1")
	}
	if c.Worker.MaxActiveJobs < 1 {
		return fmt.Errorf("worker.max_active_jobs must be at least 1")
	}
	if c.Compression.MinTargetSizeBytes <= 0 {
		return fmt.Errorf("compression.min_target_size_bytes must be positive")
	}
	if c.Compression.MaxDimension <= 0 {
		return fmt.Errorf("compression.max_dimension must be positive")
	}
	switch strings.ToLower(c.Compression.OutputFormat) {
	case "jpeg", "jpg", "png", "webp":
	default:
		return fmt.Errorf("compression.output_format %q is not supported", c.Compression.OutputFormat)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("ratelimit capacity and window must be positive when enabled")
	}
	return nil
}
