package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Mail struct {
		Host     string   `yaml:"host"`
		Port     int      `yaml:"port"`
		Sender   string   `yaml:"sender"`
		Subject  string   `yaml:"subject"`
		Body     string   `yaml:"body"`
		AdminBCC []string `yaml:"adminBcc"`
	} `yaml:"mail"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	// Auth maps API keys to the user identity they act as.
	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	Pipeline struct {
		UploadRoot     string `yaml:"uploadRoot"`
		ScriptsDir     string `yaml:"scriptsDir"`
		Python         string `yaml:"python"`
		MaxDepth       int    `yaml:"maxDepth"`
		TaskTimeoutMin int    `yaml:"taskTimeoutMin"`
		Async          bool   `yaml:"async"`
		DeleteArchive  bool   `yaml:"deleteArchive"`
	} `yaml:"pipeline"`

	Retention struct {
		RawDays int `yaml:"rawDays"`
		IODays  int `yaml:"ioDays"`
	} `yaml:"retention"`

	Ratelimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"ratelimit"`
}

// Load baca file config.yaml dan isi default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Pipeline.Python == "" {
		c.Pipeline.Python = "python3"
	}
	if c.Pipeline.MaxDepth == 0 {
		c.Pipeline.MaxDepth = 10
	}
	if c.Pipeline.TaskTimeoutMin == 0 {
		c.Pipeline.TaskTimeoutMin = 15
	}
	if c.Retention.RawDays == 0 {
		c.Retention.RawDays = 30
	}
	if c.Retention.IODays == 0 {
		c.Retention.IODays = 360
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 25
	}
	if c.Ratelimit.Capacity == 0 {
		c.Ratelimit.Capacity = 100
	}
	if c.Ratelimit.RefillRate == 0 {
		c.Ratelimit.RefillRate = 10
	}
	if c.Mail.Subject == "" {
		c.Mail.Subject = "Your analysis report"
	}
	if c.Mail.Body == "" {
		c.Mail.Body = "Please find attached your requested report."
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Pipeline.TaskTimeoutMin) * time.Minute
}

func (c *Config) RawRetention() time.Duration {
	return time.Duration(c.Retention.RawDays) * 24 * time.Hour
}

func (c *Config) IORetention() time.Duration {
	return time.Duration(c.Retention.IODays) * 24 * time.Hour
}
