package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

func getColor(level logrus.Level) int {
	switch level {
	case logrus.InfoLevel:
		return 3066993 // Green
	case logrus.WarnLevel:
		return 15105570 // Orange
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

// DiscordHook forwards warn and error entries to an operator webhook.
type DiscordHook struct {
	webhookURL string
	client     *http.Client
	timeout    time.Duration
}

func NewDiscordHook(webhookURL string, client *http.Client) *DiscordHook {
	return &DiscordHook{webhookURL: webhookURL, client: client, timeout: 5 * time.Second}
}

func (h *DiscordHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.WarnLevel, logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}
}

// Fire sends asynchronously; a failing webhook never blocks the caller.
func (h *DiscordHook) Fire(entry *logrus.Entry) error {
	embed := buildLogEmbed(entry)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if err := h.send(ctx, embed); err != nil {
			fmt.Printf("failed to forward log entry to discord: %v\n", err)
		}
	}()
	return nil
}

func buildLogEmbed(entry *logrus.Entry) DiscordEmbed {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]DiscordEmbedField, 0, len(keys))
	for _, k := range keys {
		value := fmt.Sprint(entry.Data[k])
		if len(value) > 1024 {
			value = value[:1021] + "..."
		}
		fields = append(fields, DiscordEmbedField{Name: k, Value: value, Inline: len(value) < 40})
	}

	return DiscordEmbed{
		Title:       fmt.Sprintf("%s Log", entry.Level.String()),
		Description: entry.Message,
		Color:       getColor(entry.Level),
		Fields:      fields,
		Timestamp:   entry.Time.UTC().Format(time.RFC3339),
	}
}

func (h *DiscordHook) send(ctx context.Context, embed DiscordEmbed) error {
	jsonPayload, err := json.Marshal(DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.webhookURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to send log to discord, status: %s, body: %s", resp.Status, string(body))
	}
	return nil
}
