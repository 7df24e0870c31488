package config

import (
	"database/sql"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type Config struct {
	MinIOBucket  string        `yaml:"minio_bucket"`
	App          App           `yaml:"app"`
	DB           *sql.DB       `yaml:"db"`
	Queue        *RabbitMQ     `yaml:"rabbitmq"`
	Storage      *minio.Client `yaml:"storage"`
	Server       Server        `yaml:"server"`
	Traffic      Traffic       `yaml:"traffic"`
	Pipeline     Pipeline      `yaml:"pipeline"`
	Notification Notification  `yaml:"notification"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort   string        `yaml:"http_port"`
	Workers    int           `yaml:"workers"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
	QueueName    string `json:"queue_name"`
	RoutingKey   string `json:"routing_key"`
	MaxRetries   uint   `json:"max_retries"`
}

// Traffic holds the camera directory API settings.
type Traffic struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Pipeline holds recording, extraction and upload settings.
type Pipeline struct {
	ScratchDir        string        `yaml:"scratch_dir"`
	MediaBackend      string        `yaml:"media_backend"`
	RecordSeconds     int           `yaml:"record_seconds"`
	RecordGrace       time.Duration `yaml:"record_grace"`
	DefaultFPS        float64       `yaml:"default_fps"`
	ExtractFPS        int           `yaml:"extract_fps"`
	ExtractSeconds    int           `yaml:"extract_seconds"`
	Timezone          string        `yaml:"timezone"`
	BufferPrefix      string        `yaml:"buffer_prefix"`
	InferencePrefix   string        `yaml:"inference_prefix"`
	CachePrefix       string        `yaml:"cache_prefix"`
	MetadataKeyMode   string        `yaml:"metadata_key_mode"`
	UploadRetries     uint          `yaml:"upload_retries"`
	UploadConcurrency int           `yaml:"upload_concurrency"`
	KeepLocal         bool          `yaml:"keep_local"`
}

type Notification struct {
	URLs    []string      `yaml:"urls"`
	Timeout time.Duration `yaml:"timeout"`
}

func setDefaults() {
	viper.SetDefault("app.environment", "develop")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.workers", 1)
	viper.SetDefault("server.session_ttl", 30*time.Minute)
	viper.SetDefault("rabbitmq_kind", "direct")
	viper.SetDefault("rabbitmq_exchange", "ingest_exchange")
	viper.SetDefault("rabbitmq_queue", "ingest_queue")
	viper.SetDefault("rabbitmq_routing_key", "ingest.request")
	viper.SetDefault("rabbitmq_max_retries", 3)
	viper.SetDefault("minio.url", "localhost:9000")
	viper.SetDefault("minio.bucket", "capstone-mids-datasets")
	viper.SetDefault("minio.secure", false)
	viper.SetDefault("traffic.base_url", "https://511ny.org/api")
	viper.SetDefault("traffic.timeout", 15*time.Second)
	viper.SetDefault("traffic.cache_ttl", 5*time.Minute)
	viper.SetDefault("pipeline.scratch_dir", "./temp/")
	viper.SetDefault("pipeline.media_backend", "ffmpeg")
	viper.SetDefault("pipeline.record_seconds", 20)
	viper.SetDefault("pipeline.record_grace", 30*time.Second)
	viper.SetDefault("pipeline.default_fps", 20.0)
	viper.SetDefault("pipeline.extract_fps", 4)
	viper.SetDefault("pipeline.extract_seconds", 20)
	viper.SetDefault("pipeline.timezone", "America/New_York")
	viper.SetDefault("pipeline.buffer_prefix", "capstone-inference/buffer/")
	viper.SetDefault("pipeline.inference_prefix", "capstone-inference/inference/")
	viper.SetDefault("pipeline.cache_prefix", "capstone-cache/")
	viper.SetDefault("pipeline.metadata_key_mode", "timestamped")
	viper.SetDefault("pipeline.upload_retries", 1)
	viper.SetDefault("pipeline.upload_concurrency", 4)
	viper.SetDefault("pipeline.keep_local", false)
	viper.SetDefault("notification.timeout", 10*time.Second)
}

func Load(path string) (*Config, error) {
	setDefaults()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host:         viper.GetString("rabbitmq_host"),
		Port:         viper.GetInt("rabbitmq_port"),
		User:         viper.GetString("rabbitmq_user"),
		Pass:         viper.GetString("rabbitmq_pass"),
		Kind:         viper.GetString("rabbitmq_kind"),
		ExchangeName: viper.GetString("rabbitmq_exchange"),
		QueueName:    viper.GetString("rabbitmq_queue"),
		RoutingKey:   viper.GetString("rabbitmq_routing_key"),
		MaxRetries:   viper.GetUint("rabbitmq_max_retries"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: viper.GetBool("minio.secure"),
	})
	if err != nil {
		return nil, err
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort:   viper.GetString("server.port"),
			Workers:    viper.GetInt("server.workers"),
			SessionTTL: viper.GetDuration("server.session_ttl"),
		},
		Traffic: Traffic{
			BaseURL:  viper.GetString("traffic.base_url"),
			APIKey:   viper.GetString("traffic.api_key"),
			Timeout:  viper.GetDuration("traffic.timeout"),
			CacheTTL: viper.GetDuration("traffic.cache_ttl"),
		},
		Pipeline: Pipeline{
			ScratchDir:        viper.GetString("pipeline.scratch_dir"),
			MediaBackend:      viper.GetString("pipeline.media_backend"),
			RecordSeconds:     viper.GetInt("pipeline.record_seconds"),
			RecordGrace:       viper.GetDuration("pipeline.record_grace"),
			DefaultFPS:        viper.GetFloat64("pipeline.default_fps"),
			ExtractFPS:        viper.GetInt("pipeline.extract_fps"),
			ExtractSeconds:    viper.GetInt("pipeline.extract_seconds"),
			Timezone:          viper.GetString("pipeline.timezone"),
			BufferPrefix:      viper.GetString("pipeline.buffer_prefix"),
			InferencePrefix:   viper.GetString("pipeline.inference_prefix"),
			CachePrefix:       viper.GetString("pipeline.cache_prefix"),
			MetadataKeyMode:   viper.GetString("pipeline.metadata_key_mode"),
			UploadRetries:     viper.GetUint("pipeline.upload_retries"),
			UploadConcurrency: viper.GetInt("pipeline.upload_concurrency"),
			KeepLocal:         viper.GetBool("pipeline.keep_local"),
		},
		Notification: Notification{
			URLs:    viper.GetStringSlice("notification.urls"),
			Timeout: viper.GetDuration("notification.timeout"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}, nil
}
