package crossroads

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"appeal-bot/model"
	"appeal-bot/utils/apperr"
)

const (
	minReasonLength = 10
	maxReasonLength = 2000
)

var videoHosts = []string{
	"youtube.com",
	"youtu.be",
	"streamable.com",
	"vimeo.com",
	"twitch.tv",
	"clips.twitch.tv",
}

// Form is what the appealer typed into the modal.
type Form struct {
	PunishmentReason string
	AppealReason     string
	// VideoURL is nil when the form has no evidence field or it was left blank.
	VideoURL *string
}

// NewForm trims the raw modal values.
func NewForm(values map[string]string) Form {
	f := Form{
		PunishmentReason: strings.TrimSpace(values[FieldPunishmentReason]),
		AppealReason:     strings.TrimSpace(values[FieldAppealReason]),
	}
	if v := strings.TrimSpace(values[FieldVideo]); v != "" {
		f.VideoURL = &v
	}
	return f
}

// Validate checks the form for the given platform. Game appeals require evidence.
func (f Form) Validate(platform model.Platform) error {
	if !withinLength(f.PunishmentReason) {
		return apperr.InvalidAppealData("Punishment reason must be between 10 and 2000 characters")
	}
	if !withinLength(f.AppealReason) {
		return apperr.InvalidAppealData("Appeal reason must be between 10 and 2000 characters")
	}
	if f.VideoURL == nil {
		if platform == model.PlatformGame {
			return apperr.InvalidAppealData("Video URL must be a valid URL")
		}
		return nil
	}

	u, err := url.ParseRequestURI(*f.VideoURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return apperr.InvalidAppealData("Video URL must be a valid URL")
	}
	if !allowedHost(u.Hostname()) {
		return apperr.InvalidAppealData("Video URL must be from a supported platform (YouTube, Streamable, etc.)")
	}
	return nil
}

func withinLength(s string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= minReasonLength && n <= maxReasonLength
}

func allowedHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, allowed := range videoHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
