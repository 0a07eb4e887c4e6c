package crossroads

import (
	"context"
	"fmt"
	"strings"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils"
	"appeal-bot/utils/apperr"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const notConfiguredMessage = "This server is not configured for the appeal system."

// Handler answers the buttons, select menu and modals of the crossroads panel.
type Handler struct {
	pipeline *Pipeline
	log      *logrus.Entry
}

func NewHandler(p *Pipeline) *Handler {
	return &Handler{pipeline: p, log: utils.Component("crossroads")}
}

// Handle routes a crossroads component or modal interaction.
func (h *Handler) Handle(s utils.Responder, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		h.handleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		h.handleModal(s, i)
	}
}

func (h *Handler) entry(i *discordgo.InteractionCreate, customID string) *logrus.Entry {
	e := h.log.WithFields(logrus.Fields{"guild_id": i.GuildID, "custom_id": customID})
	if user := utils.InteractionUser(i); user != nil {
		e = e.WithField("user_id", user.ID)
	}
	return e
}

func (h *Handler) handleComponent(s utils.Responder, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	entry := h.entry(i, data.CustomID)

	// Components must be answered within three seconds.
	ctx, cancel := context.WithTimeout(context.Background(), h.pipeline.componentTimeout())
	defer cancel()

	var err error
	switch {
	case strings.HasPrefix(data.CustomID, discordButtonPrefix):
		err = h.discordButton(ctx, s, i, strings.TrimPrefix(data.CustomID, discordButtonPrefix))
	case strings.HasPrefix(data.CustomID, gameButtonPrefix):
		err = h.gameButton(ctx, s, i, strings.TrimPrefix(data.CustomID, gameButtonPrefix))
	case strings.HasPrefix(data.CustomID, discordMenuPrefix):
		err = h.discordMenu(ctx, s, i, strings.TrimPrefix(data.CustomID, discordMenuPrefix), data.Values)
	default:
		entry.Warn("Unknown crossroads component")
		return
	}
	if err == nil {
		return
	}

	err = router.Normalize(ctx, err)
	router.Report(entry, err)
	message := apperr.UserMessage(err)
	if apperr.HasCode(err, apperr.CodeNotAppealGuild) {
		message = notConfiguredMessage
	}
	utils.SendErrorResponse(s, i, message)
}

func (h *Handler) discordButton(ctx context.Context, s utils.Responder, i *discordgo.InteractionCreate, tag string) error {
	if _, err := h.pipeline.Enter(ctx, i.GuildID, tag); err != nil {
		return err
	}
	return utils.SendEphemeralComponents(s, i, "What kind of punishment are you appealing?", punishmentMenu(tag))
}

func (h *Handler) gameButton(ctx context.Context, s utils.Responder, i *discordgo.InteractionCreate, tag string) error {
	if _, err := h.pipeline.Enter(ctx, i.GuildID, tag); err != nil {
		return err
	}
	return utils.SendModal(s, i, ModalID(model.PlatformGame, model.PunishmentBan, tag), "In-Game Appeal", appealModal(true))
}

func (h *Handler) discordMenu(ctx context.Context, s utils.Responder, i *discordgo.InteractionCreate, tag string, values []string) error {
	if len(values) == 0 {
		return apperr.InvalidAppealData("No option selected. Please try again.")
	}
	game, err := h.pipeline.Enter(ctx, i.GuildID, tag)
	if err != nil {
		return err
	}

	var punishment model.PunishmentType
	switch values[0] {
	case menuBan:
		if err := h.pipeline.ConfirmDiscordBan(ctx, game, utils.InteractionUser(i).ID); err != nil {
			return err
		}
		punishment = model.PunishmentBan
	case menuWarning:
		punishment = model.PunishmentWarn
	default:
		return apperr.InvalidAppealData("Invalid selection. Please try again.")
	}
	return utils.SendModal(s, i, ModalID(model.PlatformDiscord, punishment, tag), "Discord Appeal", appealModal(false))
}

func (h *Handler) handleModal(s utils.Responder, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	entry := h.entry(i, data.CustomID)

	key, ok := parseModalID(data.CustomID)
	if !ok {
		entry.Warn("Unknown crossroads modal")
		utils.SendErrorResponse(s, i, "Invalid selection. Please try again.")
		return
	}

	if err := utils.DeferResponse(s, i, true); err != nil {
		entry.WithError(err).Error("Failed to defer modal response")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.pipeline.timeout)
	defer cancel()

	c, err := h.submit(ctx, i, key, modalValues(data))
	if err != nil {
		err = router.Normalize(ctx, err)
		router.Report(entry, err)
		utils.SendFollowUpError(s, i.Interaction, apperr.UserMessage(err))
		return
	}
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf(
		"<@%s> Your appeal has been successfully submitted! Please check the channel <#%s> for details.",
		c.AppealerDiscordID, c.ChannelID))
}

func (h *Handler) submit(ctx context.Context, i *discordgo.InteractionCreate, key modalKey, values map[string]string) (*model.Case, error) {
	game, err := h.pipeline.Enter(ctx, i.GuildID, key.Tag)
	if err != nil {
		return nil, err
	}
	return h.pipeline.Submit(ctx, Submission{
		Game:       game,
		GuildID:    i.GuildID,
		User:       utils.InteractionUser(i),
		Platform:   key.Platform,
		Punishment: key.Punishment,
		Form:       NewForm(values),
	})
}

func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, row := range data.Components {
		r, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range r.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

func punishmentMenu(tag string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    menuID(tag),
				Placeholder: "Select the punishment you received",
				Options: []discordgo.SelectMenuOption{
					{Label: "Ban", Value: menuBan, Description: "You were banned from the Discord community server"},
					{Label: "Warning", Value: menuWarning, Description: "You received a warning in the Discord community server"},
				},
			},
		}},
	}
}

func appealModal(withVideo bool) []discordgo.MessageComponent {
	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    FieldPunishmentReason,
				Label:       "Reason for punishment",
				Style:       discordgo.TextInputShort,
				Placeholder: "What you were punished for",
				Required:    true,
				MaxLength:   maxReasonLength,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    FieldAppealReason,
				Label:       "Reason for appeal",
				Style:       discordgo.TextInputParagraph,
				Placeholder: "Why should the punishment be lifted? What has changed?",
				Required:    true,
				MaxLength:   maxReasonLength,
			},
		}},
	}
	if withVideo {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    FieldVideo,
				Label:       "Video evidence",
				Style:       discordgo.TextInputShort,
				Placeholder: "https://youtube.com/watch?v=...",
				Required:    true,
			},
		}})
	}
	return rows
}
