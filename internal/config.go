package internal

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type (
	LogConfig struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json" validate:"oneof=json text"`
	}

	ServerConfig struct {
		Port            string        `yaml:"port" env:"PORT" env-default:"5000" validate:"required,numeric"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	}

	APIConfig struct {
		// Answer every failure with 500 like the service always did.
		UniformErrorStatus bool          `yaml:"uniform_error_status" env:"UNIFORM_ERROR_STATUS"`
		CaptionTimeout     time.Duration `yaml:"caption_timeout" env:"CAPTION_TIMEOUT"`
	}

	ImagesConfig struct {
		Root          string        `yaml:"root" env:"IMAGES_ROOT"`
		AllowRemote   bool          `yaml:"allow_remote" env:"IMAGES_ALLOW_REMOTE"`
		MaxBytes      int64         `yaml:"max_bytes" env:"IMAGES_MAX_BYTES" validate:"gte=0"`
		RemoteTimeout time.Duration `yaml:"remote_timeout" env:"IMAGES_REMOTE_TIMEOUT" env-default:"30s"`
	}

	HuggingFaceConfig struct {
		Endpoint string        `yaml:"endpoint" env:"HF_ENDPOINT" env-default:"https://api-inference.huggingface.co/models"`
		Token    string        `yaml:"token" env:"HF_TOKEN"`
		Timeout  time.Duration `yaml:"timeout" env:"HF_TIMEOUT"`
	}

	LlavaCppConfig struct {
		Binary     string  `yaml:"binary" env:"LLAVA_BINARY" env-default:"./llava.cpp"`
		Model      string  `yaml:"model" env:"LLAVA_MODEL" env-default:"./llava.bin"`
		Projection string  `yaml:"projection" env:"LLAVA_PROJECTION" env-default:"./llava-proj.bin"`
		Prompt     string  `yaml:"prompt" env-default:"Describe the picture in one short sentence."`
		Temp       float64 `yaml:"temp" env-default:"0.1"`
	}

	RekognitionConfig struct {
		Region        string  `yaml:"region" env:"AWS_REGION"`
		MaxLabels     int32   `yaml:"max_labels" env-default:"5" validate:"gte=1"`
		MinConfidence float32 `yaml:"min_confidence" env-default:"70" validate:"gte=0,lte=100"`
	}

	ModelConfig struct {
		Backend     string            `yaml:"backend" env:"MODEL_BACKEND" env-default:"huggingface" validate:"oneof=huggingface llavacpp rekognition stub"`
		Name        string            `yaml:"name" env:"MODEL_NAME" env-default:"microsoft/git-base-coco"`
		MaxLength   int               `yaml:"max_length" env:"MODEL_MAX_LENGTH" env-default:"50" validate:"gte=1"`
		HuggingFace HuggingFaceConfig `yaml:"huggingface"`
		LlavaCpp    LlavaCppConfig    `yaml:"llavacpp"`
		Rekognition RekognitionConfig `yaml:"rekognition"`
	}

	TranslationConfig struct {
		Backend string `yaml:"backend" env:"TRANSLATION_BACKEND" env-default:"google" validate:"oneof=google stub"`
		Source  string `yaml:"source" env:"TRANSLATION_SOURCE" env-default:"en" validate:"required"`
		Target  string `yaml:"target" env:"TRANSLATION_TARGET" env-default:"nl" validate:"required,nefield=Source"`
		Mode    string `yaml:"mode" env:"TRANSLATION_MODE" env-default:"each" validate:"oneof=each first"`
		APIKey  string `yaml:"api_key" env:"GOOGLE_TRANSLATE_API_KEY"`
	}

	KafkaConfig struct {
		Brokers      []string `yaml:"brokers" env:"KAFKA_BROKERS"`
		Group        string   `yaml:"group" env-default:"captioner"`
		TaskTopic    string   `yaml:"task_topic" env-default:"caption_requests"`
		CaptionTopic string   `yaml:"caption_topic" env-default:"captions"`
	}

	HealthConfig struct {
		PollPeriod time.Duration `yaml:"poll_period" env:"HEALTH_POLL_PERIOD" env-default:"5m"`
	}

	AppConfig struct {
		Log         LogConfig         `yaml:"log"`
		Server      ServerConfig      `yaml:"server"`
		API         APIConfig         `yaml:"api"`
		Images      ImagesConfig      `yaml:"images"`
		Model       ModelConfig       `yaml:"model"`
		Translation TranslationConfig `yaml:"translation"`
		Kafka       KafkaConfig       `yaml:"kafka"`
		Health      HealthConfig      `yaml:"health"`
	}
)

func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%s", c.Server.Port)
}

// ReadConfig parses the -config flag and loads the file it names. A missing file is not an
// error: environment variables and defaults are enough to run.
func ReadConfig() (*AppConfig, error) {
	configPath := flag.String("config", "config.yaml", "Path to config")

	flag.Parse()

	return LoadConfig(*configPath)
}

func LoadConfig(path string) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
