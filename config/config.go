package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"appeal-bot/model"
	"appeal-bot/utils"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Env holds the process settings and secrets read from the environment.
type Env struct {
	BotToken        string        `env:"BOT_TOKEN,required"`
	AESSecretKey    string        `env:"AES_SECRET_KEY,required"`
	AESSalt         string        `env:"AES_SALT,required"`
	OpenCloudKey    string        `env:"OPEN_CLOUD_KEY,required"`
	AccessDomain    string        `env:"ACCESS_DOMAIN,required"`
	DBPath          string        `env:"DB_PATH" envDefault:"./data/appeals.db"`
	GamesFile       string        `env:"GAMES_FILE" envDefault:"./data/games.yaml"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	RedisURL        string        `env:"REDIS_URL"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	LogWebhookURL   string        `env:"LOG_WEBHOOK_URL"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1m"`
	CleanupGrace    time.Duration `env:"CLEANUP_GRACE" envDefault:"24h"`
	IntakeTimeout   time.Duration `env:"INTAKE_TIMEOUT" envDefault:"30s"`
}

// Load loads the configuration from the environment and the games file.
func Load() (*model.Config, Env, error) {
	if err := godotenv.Load(); err != nil {
		utils.Logger.Info(".env file not found, relying on environment variables")
	}

	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	games, err := LoadGames(e.GamesFile)
	if err != nil {
		return nil, Env{}, err
	}

	cfg := &model.Config{
		BotToken:        e.BotToken,
		AccessDomain:    strings.TrimSuffix(e.AccessDomain, "/"),
		AESSecretKey:    e.AESSecretKey,
		AESSalt:         e.AESSalt,
		OpenCloudKey:    e.OpenCloudKey,
		DBPath:          e.DBPath,
		HTTPAddr:        e.HTTPAddr,
		RedisURL:        e.RedisURL,
		LogWebhookURL:   e.LogWebhookURL,
		CleanupInterval: e.CleanupInterval,
		CleanupGrace:    e.CleanupGrace,
		IntakeTimeout:   e.IntakeTimeout,
		Games:           games,
		Credentials:     BuildCredentials(games, os.LookupEnv),
	}
	if err := cfg.Validate(); err != nil {
		return nil, Env{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, e, nil
}

// LoadGames reads the game list from a YAML file.
func LoadGames(path string) ([]model.GameConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read games file %s: %w", path, err)
	}

	var games []model.GameConfig
	if err := v.UnmarshalKey("games", &games); err != nil {
		return nil, fmt.Errorf("failed to decode games file %s: %w", path, err)
	}
	return games, nil
}

// BuildCredentials indexes the Rover tokens per game and server.
// APPEAL_<TAG>_ROVER_TOKEN and COMMUNITY_<TAG>_ROVER_TOKEN override the file values.
func BuildCredentials(games []model.GameConfig, lookup func(string) (string, bool)) map[model.CredentialKey]string {
	creds := make(map[model.CredentialKey]string, len(games)*2)
	for _, g := range games {
		tag := g.Tag()
		creds[model.CredentialKey{Game: tag, Role: model.AppealServer}] =
			override(lookup, "APPEAL_"+strings.ToUpper(tag)+"_ROVER_TOKEN", g.RoverTokens.Appeal)
		creds[model.CredentialKey{Game: tag, Role: model.CommunityServer}] =
			override(lookup, "COMMUNITY_"+strings.ToUpper(tag)+"_ROVER_TOKEN", g.RoverTokens.Community)
	}
	return creds
}

func override(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
