package bot

import (
	"os"
	"os/signal"
	"syscall"
)

// Run connects to the gateway, registers commands in every appeal server and blocks until
// the process is interrupted.
func (b *Bot) Run() error {
	if err := b.Session.Open(); err != nil {
		return err
	}

	for _, game := range b.GetConfig().Games {
		b.RefreshCommands(game.AppealServerID)
	}

	if b.scheduler != nil {
		b.scheduler.Start()
	}

	b.log.Info("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	return nil
}
