package providers

import (
	"clanwatch/internal/structures"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("clan.rateLimitPerMinute", 15)
	v.SetDefault("clan.logsSkip", 0)
	v.SetDefault("clan.logsLimit", 500)
	v.SetDefault("api.baseUrl", "https://query.idleclans.com/api")
	v.SetDefault("api.userAgent", "IdleClans-WebApp-Updater")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.slack", 250*time.Millisecond)
	v.SetDefault("persistence.dataDir", "data")
	v.SetDefault("persistence.levelsFile", "assets/levels.csv")
	v.SetDefault("analytics.offlineThresholdHours", 12)
	v.SetDefault("analytics.memberLogWindow", 200)
	v.SetDefault("analytics.maxLogRows", 1000)
	v.SetDefault("analytics.timezone", "America/Los_Angeles")
	v.SetDefault("schedule.interval", time.Hour)
	v.SetDefault("publish.git.commitMessage", "Update data")
	v.SetDefault("publish.git.repoDir", ".")
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 8090)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("cache.ttl", time.Minute)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	dir := filepath.Dir(flags.ConfigPath)
	// a missing .env is fine, the yaml and real env still apply
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(dir)
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setDefaults(v)

	v.BindEnv("clan.name", "CLANWATCH_CLAN_NAME")
	v.BindEnv("clan.rateLimitPerMinute", "CLANWATCH_RATE_LIMIT")
	v.BindEnv("logger.level", "CLANWATCH_LOG_LEVEL")
	v.BindEnv("persistence.dataDir", "CLANWATCH_DATA_DIR")
	v.BindEnv("cache.enabled", "CLANWATCH_CACHE_ENABLED")
	v.BindEnv("publish.s3.accessKey", "CLANWATCH_S3_ACCESS_KEY")
	v.BindEnv("publish.s3.secretKey", "CLANWATCH_S3_SECRET_KEY")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	conf.Clan.Name = strings.TrimSpace(conf.Clan.Name)

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "ClanWatch"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
