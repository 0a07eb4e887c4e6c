package handlers

import (
	"strings"

	"appeal-bot/bot"
	"appeal-bot/handlers/crossroads"
	"appeal-bot/handlers/guilds"
	"appeal-bot/handlers/mirror"
	"appeal-bot/handlers/router"
	"appeal-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Handlers groups the gateway event handlers of the appeal system.
type Handlers struct {
	Router     *router.Router
	Crossroads *crossroads.Handler
	Mirror     *mirror.Mirror
	Guilds     *guilds.Listener
}

func Register(b *bot.Bot, h Handlers) {
	log := utils.Component("handlers")
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.WithFields(logrus.Fields{"user": s.State.User.Username, "guilds": len(r.Guilds)}).Info("Logged in")
	})
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		h.Dispatch(s, i)
	})
	b.Session.AddHandler(h.Mirror.HandleCreate)
	b.Session.AddHandler(h.Mirror.HandleUpdate)
	b.Session.AddHandler(h.Mirror.HandleDelete)
	b.Session.AddHandler(h.Guilds.HandleGuildCreate)
}

// Dispatch routes one interaction by type and custom id prefix.
func (h Handlers) Dispatch(s utils.Responder, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.Router.HandleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		if strings.HasPrefix(i.MessageComponentData().CustomID, crossroads.Prefix) {
			h.Crossroads.Handle(s, i)
		}
	case discordgo.InteractionModalSubmit:
		if strings.HasPrefix(i.ModalSubmitData().CustomID, crossroads.Prefix) {
			h.Crossroads.Handle(s, i)
		}
	}
}
