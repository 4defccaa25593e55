package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/actabi/FreelanceAcademy/internal/alert"
	"github.com/actabi/FreelanceAcademy/internal/freelance"
	"github.com/actabi/FreelanceAcademy/internal/mission"
	"github.com/actabi/FreelanceAcademy/internal/publish"
)

// Handler executes one slash command.
type Handler func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error

// Commands holds the services the slash commands delegate to. The command
// set is a static table built at startup; there is no runtime discovery.
type Commands struct {
	missions   *mission.Service
	alerts     *alert.Service
	freelances *freelance.Service
	log        *slog.Logger

	table map[string]Handler
}

// NewCommands builds the command table.
func NewCommands(missions *mission.Service, alerts *alert.Service, freelances *freelance.Service, log *slog.Logger) *Commands {
	if log == nil {
		log = slog.Default()
	}
	c := &Commands{missions: missions, alerts: alerts, freelances: freelances, log: log}
	c.table = map[string]Handler{
		"mission": c.handleMission,
		"alert":   c.handleAlert,
		"profile": c.handleProfile,
	}
	return c
}

// definitions returns the command payloads registered with Discord.
func (c *Commands) definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "mission",
			Description: "Show the details of a mission",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "id",
					Description: "Mission id",
					Required:    true,
				},
			},
		},
		{
			Name:        "alert",
			Description: "Manage your mission alerts",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Create an alert",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "skills",
							Description: "Comma-separated skill names",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "min_rate",
							Description: "Minimum daily rate",
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "max_rate",
							Description: "Maximum daily rate",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List your alerts",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Delete an alert",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "id",
							Description: "Alert id",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:        "profile",
			Description: "Show or update your freelance profile",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "available",
					Description: "Set your availability",
				},
			},
		},
	}
}

// Register overwrites the command set for the application (guild-scoped when
// guildID is set, global otherwise) and installs the dispatch handler.
func (c *Commands) Register(client *Client, guildID string) error {
	appID := client.session.State.User.ID
	if _, err := client.session.ApplicationCommandBulkOverwrite(appID, guildID, c.definitions()); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	client.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		name := i.ApplicationCommandData().Name
		handler, ok := c.table[name]
		if !ok {
			return
		}
		if err := handler(context.Background(), s, i); err != nil {
			c.log.Error("command failed", "command", name, "err", err)
			respondEphemeral(s, i, "Something went wrong, please try again.")
		}
	})

	c.log.Info("slash commands registered", "count", len(c.table), "guildId", guildID)
	return nil
}

// ─── Command handlers ────────────────────────────────────────────────────────

func (c *Commands) handleMission(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	id := i.ApplicationCommandData().Options[0].StringValue()

	m, err := c.missions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mission.ErrNotFound) {
			respondEphemeral(s, i, fmt.Sprintf("No mission with id `%s`.", id))
			return nil
		}
		return err
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{toEmbed(publish.Render(m))},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func (c *Commands) handleAlert(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		respondEphemeral(s, i, "Missing subcommand.")
		return nil
	}
	sub := data.Options[0]
	userID := interactionUserID(i)

	switch sub.Name {
	case "add":
		in := alert.CreateInput{UserID: userID}
		for _, opt := range sub.Options {
			switch opt.Name {
			case "skills":
				for _, sk := range strings.Split(opt.StringValue(), ",") {
					if sk = strings.TrimSpace(sk); sk != "" {
						in.Skills = append(in.Skills, sk)
					}
				}
			case "min_rate":
				v := int(opt.IntValue())
				in.MinRate = &v
			case "max_rate":
				v := int(opt.IntValue())
				in.MaxRate = &v
			}
		}
		a, err := c.alerts.Create(ctx, in)
		if err != nil {
			return err
		}
		respondEphemeral(s, i, fmt.Sprintf("Alert `%s` created.", a.ID))

	case "list":
		alerts, err := c.alerts.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(alerts) == 0 {
			respondEphemeral(s, i, "You have no alerts configured.")
			return nil
		}
		var b strings.Builder
		for _, a := range alerts {
			fmt.Fprintf(&b, "• `%s` — skills: %s", a.ID, strings.Join(a.Skills, ", "))
			if a.MinRate != nil || a.MaxRate != nil {
				fmt.Fprintf(&b, " — rate: %s-%s", optRate(a.MinRate), optRate(a.MaxRate))
			}
			b.WriteString("\n")
		}
		respondEphemeral(s, i, b.String())

	case "remove":
		id := sub.Options[0].StringValue()
		if err := c.alerts.Delete(ctx, id); err != nil {
			if errors.Is(err, mission.ErrNotFound) {
				respondEphemeral(s, i, fmt.Sprintf("No alert with id `%s`.", id))
				return nil
			}
			return err
		}
		respondEphemeral(s, i, "Alert deleted.")

	default:
		respondEphemeral(s, i, "Unknown subcommand.")
	}
	return nil
}

func (c *Commands) handleProfile(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID := interactionUserID(i)

	f, err := c.freelances.FindByDiscordID(ctx, userID)
	if err != nil {
		if errors.Is(err, mission.ErrNotFound) {
			respondEphemeral(s, i, "No freelance profile is linked to your account.")
			return nil
		}
		return err
	}

	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "available" {
			v := opt.BoolValue()
			if f, err = c.freelances.Update(ctx, f.ID, freelance.UpdateInput{IsAvailable: &v}); err != nil {
				return err
			}
		}
	}

	respondEphemeral(s, i, fmt.Sprintf(
		"**%s**\n💰 Daily rate: %d€\n🛠️ Skills: %s\nAvailable: %v",
		f.Name, f.DailyRate, strings.Join(f.SkillNames(), ", "), f.IsAvailable,
	))
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// interactionUserID works for both guild and DM interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("interaction response failed", "err", err)
	}
}

func optRate(v *int) string {
	if v == nil {
		return "∅"
	}
	return fmt.Sprintf("%d€", *v)
}
