package model

import "time"

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"json"`
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"LOG_FILE_PATH" default:"logs/memoria.log"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"rfc3339"`
}

// HTTPConfig holds the web server settings
type HTTPConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":5000"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

// MemoryConfig selects where answer memories live
type MemoryConfig struct {
	Dir      string `envconfig:"MEMORY_DIR" default:"memorias"`
	Backend  string `envconfig:"MEMORY_BACKEND" default:"file"`
	Watch    bool   `envconfig:"MEMORY_WATCH" default:"true"`
	RedisURL string `envconfig:"REDIS_URL"`
}

// WikiConfig holds the MediaWiki client settings
type WikiConfig struct {
	Language   string        `envconfig:"WIKI_LANGUAGE" default:"pt"`
	Endpoint   string        `envconfig:"WIKI_ENDPOINT"`
	Sentences  int           `envconfig:"WIKI_SENTENCES" default:"3"`
	Timeout    time.Duration `envconfig:"WIKI_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"WIKI_MAX_RETRIES" default:"2"`
	UserAgent  string        `envconfig:"WIKI_USER_AGENT"`
}
