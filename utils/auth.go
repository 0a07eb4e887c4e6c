package utils

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// HasAnyRole reports whether the member holds at least one of the required role ids.
func HasAnyRole(memberRoleIDs, requiredRoleIDs []string) bool {
	held := make(map[string]struct{}, len(memberRoleIDs))
	for _, id := range memberRoleIDs {
		held[id] = struct{}{}
	}
	for _, id := range requiredRoleIDs {
		if _, ok := held[id]; ok {
			return true
		}
	}
	return false
}

// RESTStatus returns the HTTP status of a discordgo REST error, or 0.
func RESTStatus(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return http.StatusTooManyRequests
	}
	return 0
}
