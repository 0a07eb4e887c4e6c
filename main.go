package main

import (
	"fmt"
	"os"
	"path/filepath"

	"appeal-bot/api"
	"appeal-bot/bot"
	"appeal-bot/config"
	"appeal-bot/handlers"
	"appeal-bot/handlers/admin"
	"appeal-bot/handlers/code"
	"appeal-bot/handlers/crossroads"
	"appeal-bot/handlers/guilds"
	"appeal-bot/handlers/mirror"
	"appeal-bot/handlers/router"
	"appeal-bot/handlers/verdict"
	"appeal-bot/scanner"
	"appeal-bot/utils"
	"appeal-bot/utils/accesscode"
	"appeal-bot/utils/database"
	"appeal-bot/utils/roblox"
)

// roverRequestsPerSecond stays under the registry's per-token quota.
const roverRequestsPerSecond = 2

func main() {
	if err := run(); err != nil {
		utils.Component("main").WithError(err).Fatal("Bot exited")
	}
}

// run returns instead of exiting so the deferred closes always execute.
func run() error {
	cfg, env, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	utils.ConfigureLogger(env.LogLevel, env.LogFormat)
	if cfg.LogWebhookURL != "" {
		utils.Logger.AddHook(utils.NewDiscordHook(cfg.LogWebhookURL, utils.GlobalHTTPClient))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open case database: %w", err)
	}
	defer store.Close()

	rdb, err := roblox.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to configure redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	codec, err := accesscode.New(cfg.AESSecretKey, cfg.AESSalt)
	if err != nil {
		return fmt.Errorf("failed to initialize access code codec: %w", err)
	}
	verifier := accesscode.NewVerifier(codec, store)

	b, err := bot.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	session := b.GetSession()

	resolver := roblox.NewResolver(
		roblox.NewRoverClient(utils.GlobalHTTPClient, "", roverRequestsPerSecond),
		roblox.NewOpenCloudClient(utils.GlobalHTTPClient, "", cfg.OpenCloudKey),
		roblox.NewProfileCache(rdb),
		session,
		b,
	)

	roles := router.NewRoleResolver(b, store)
	processor := verdict.NewProcessor(b, store, resolver, roles, session, codec)
	r := router.New(b, store, cfg.IntakeTimeout,
		verdict.NewCommand(processor),
		code.NewCommand(b, store, verifier, codec, roles, session),
		admin.NewSetup(session, store, roles),
		admin.NewAppeals(store),
		admin.NewPanel(session),
		admin.NewStatus(store, session, cfg.DBPath),
	)
	pipeline := crossroads.NewPipeline(b, store, resolver, roles, session, cfg.IntakeTimeout)

	handlers.Register(b, handlers.Handlers{
		Router:     r,
		Crossroads: crossroads.NewHandler(pipeline),
		Mirror:     mirror.New(b, store),
		Guilds:     guilds.NewListener(b),
	})

	b.UseScheduler(bot.NewScheduler(
		scanner.NewCleaner(store, session, cfg.CleanupGrace),
		cfg.CleanupInterval,
		api.NewServer(cfg.HTTPAddr, store, verifier),
	))

	if err := b.Run(); err != nil {
		return fmt.Errorf("failed to open gateway connection: %w", err)
	}
	b.Close()
	return nil
}
