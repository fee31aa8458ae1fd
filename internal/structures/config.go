package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type ClanConfig struct {
	Name               string `yaml:"name" validate:"required"`
	RateLimitPerMinute int    `yaml:"rateLimitPerMinute" validate:"required|min:1"`
	LogsSkip           int    `yaml:"logsSkip"`
	LogsLimit          int    `yaml:"logsLimit" validate:"required|min:1"`
}

type ApiConfig struct {
	BaseURL   string        `yaml:"baseUrl" validate:"required"`
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
	Slack     time.Duration `yaml:"slack"`
}

type Persistence struct {
	DataDir    string `yaml:"dataDir" validate:"required"`
	LevelsFile string `yaml:"levelsFile"`
	Compress   bool   `yaml:"compress"`
}

type AnalyticsConfig struct {
	OfflineThresholdHours float64 `yaml:"offlineThresholdHours"`
	MemberLogWindow       int     `yaml:"memberLogWindow"`
	MaxLogRows            int     `yaml:"maxLogRows"`
	Timezone              string  `yaml:"timezone"`
}

type MarketItemConfig struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type MarketConfig struct {
	Items []MarketItemConfig `yaml:"items"`
}

type ScheduleConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

type GitConfig struct {
	Enabled       bool   `yaml:"enabled"`
	CommitMessage string `yaml:"commitMessage"`
	RepoDir       string `yaml:"repoDir"`
}

type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

type PublishConfig struct {
	Git GitConfig `yaml:"git"`
	S3  S3Config  `yaml:"s3"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Clan        ClanConfig      `yaml:"clan"`
	Api         ApiConfig       `yaml:"api"`
	Persistence Persistence     `yaml:"persistence"`
	Analytics   AnalyticsConfig `yaml:"analytics"`
	Market      MarketConfig    `yaml:"market"`
	Schedule    ScheduleConfig  `yaml:"schedule"`
	Publish     PublishConfig   `yaml:"publish"`
	WebServer   Server          `yaml:"webServer"`
	Logger      LoggerConfig    `yaml:"logger"`
	Cache       CacheConfig     `yaml:"cache"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}
