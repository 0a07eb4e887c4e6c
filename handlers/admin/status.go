package admin

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Gateway reports live session numbers.
type Gateway interface {
	HeartbeatLatency() time.Duration
}

// Status shows host metrics and case counts.
type Status struct {
	cases   CaseCounter
	gateway Gateway
	dbPath  string
	started time.Time
}

func NewStatus(cases CaseCounter, gateway Gateway, dbPath string) *Status {
	return &Status{cases: cases, gateway: gateway, dbPath: dbPath, started: time.Now()}
}

func (c *Status) Name() string                   { return "status" }
func (c *Status) RequiredRoles() []model.AppRole { return overseerOnly }
func (c *Status) Guildless() bool                { return false }

func (c *Status) Check(context.Context, *router.Context) error { return nil }

func (c *Status) Execute(ctx context.Context, rc *router.Context) error {
	stats, err := c.cases.CaseStats(ctx)
	if err != nil {
		return err
	}

	// Metric failures degrade to zero values.
	cpuCount, _ := cpu.CountsWithContext(ctx, true)
	cpuPercent, _ := cpu.PercentWithContext(ctx, 0, false)
	vm, _ := mem.VirtualMemoryWithContext(ctx)
	hostInfo, _ := host.InfoWithContext(ctx)

	usage := 0.0
	if len(cpuPercent) > 0 {
		usage = cpuPercent[0]
	}
	memory := "unknown"
	if vm != nil {
		memory = fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}
	platform := "unknown"
	if hostInfo != nil {
		platform = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
	}
	var dbSize int64
	if info, err := os.Stat(c.dbPath); err == nil {
		dbSize = info.Size() / 1024
	}
	latency := "n/a"
	if c.gateway != nil {
		latency = c.gateway.HeartbeatLatency().String()
	}

	rc.ReplyEmbed(&discordgo.MessageEmbed{
		Title: "System Status",
		Color: utils.ParseHexColor(utils.ColorInfo),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "OS", Value: platform, Inline: true},
			{Name: "Go", Value: runtime.Version(), Inline: true},
			{Name: "CPUs", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			{Name: "CPU usage", Value: fmt.Sprintf("%.1f%%", usage), Inline: true},
			{Name: "Memory", Value: memory, Inline: true},
			{Name: "Database", Value: fmt.Sprintf("%d KB", dbSize), Inline: true},
			{Name: "Gateway latency", Value: latency, Inline: true},
			{Name: "Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "Uptime", Value: time.Since(c.started).Truncate(time.Second).String(), Inline: true},
			{Name: "Pending cases", Value: fmt.Sprintf("%d", stats.Pending), Inline: true},
			{Name: "Closed cases", Value: fmt.Sprintf("%d", stats.Closed), Inline: true},
			{Name: "Awaiting cleanup", Value: fmt.Sprintf("%d", stats.AwaitingCleanup), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Updated " + time.Now().UTC().Format("15:04 UTC"),
		},
	})
	return nil
}
