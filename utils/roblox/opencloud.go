package roblox

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const OpenCloudBaseURL = "https://apis.roblox.com"

// Profile is the Open Cloud v2 user resource.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Premium     bool      `json:"premium"`
	IDVerified  bool      `json:"idVerified"`
	CreateTime  time.Time `json:"createTime"`
}

// Avatar is the generateThumbnail operation result.
type Avatar struct {
	Path     string `json:"path"`
	Done     bool   `json:"done"`
	Response struct {
		Type     string `json:"@type"`
		ImageURI string `json:"imageUri"`
	} `json:"response"`
}

type GameJoinRestriction struct {
	Active             bool       `json:"active"`
	StartTime          *time.Time `json:"startTime,omitempty"`
	Duration           string     `json:"duration,omitempty"`
	PrivateReason      string     `json:"privateReason,omitempty"`
	DisplayReason      string     `json:"displayReason,omitempty"`
	ExcludeAltAccounts bool       `json:"excludeAltAccounts,omitempty"`
}

// UserRestriction is a universe-level restriction of a user.
type UserRestriction struct {
	Path                string              `json:"path"`
	User                string              `json:"user"`
	GameJoinRestriction GameJoinRestriction `json:"gameJoinRestriction"`
	UpdateTime          *time.Time          `json:"updateTime,omitempty"`
}

type unbanRequest struct {
	GameJoinRestriction struct {
		Active bool `json:"active"`
	} `json:"gameJoinRestriction"`
}

// OpenCloudClient talks to the Roblox Open Cloud API with an API key.
type OpenCloudClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewOpenCloudClient(httpClient *http.Client, baseURL, apiKey string) *OpenCloudClient {
	if baseURL == "" {
		baseURL = OpenCloudBaseURL
	}
	return &OpenCloudClient{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: httpClient}
}

func (c *OpenCloudClient) header() http.Header {
	h := http.Header{}
	h.Set("x-api-key", c.apiKey)
	return h
}

func (c *OpenCloudClient) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := doJSON(ctx, c.http, http.MethodGet, c.baseURL+"/cloud/v2/users/"+url.PathEscape(userID), c.header(), nil, &p)
	return p, err
}

func (c *OpenCloudClient) Avatar(ctx context.Context, userID string) (Avatar, error) {
	var a Avatar
	endpoint := c.baseURL + "/cloud/v2/users/" + url.PathEscape(userID) + ":generateThumbnail?shape=SQUARE"
	err := doJSON(ctx, c.http, http.MethodGet, endpoint, c.header(), nil, &a)
	return a, err
}

func (c *OpenCloudClient) restrictionURL(universeID, userID string) string {
	return fmt.Sprintf("%s/cloud/v2/universes/%s/user-restrictions/%s", c.baseURL, url.PathEscape(universeID), url.PathEscape(userID))
}

func (c *OpenCloudClient) Restriction(ctx context.Context, universeID, userID string) (UserRestriction, error) {
	var r UserRestriction
	err := doJSON(ctx, c.http, http.MethodGet, c.restrictionURL(universeID, userID), c.header(), nil, &r)
	return r, err
}

// LiftRestriction sets gameJoinRestriction.active to false.
func (c *OpenCloudClient) LiftRestriction(ctx context.Context, universeID, userID string) error {
	var body unbanRequest
	endpoint := c.restrictionURL(universeID, userID) + "?updateMask=gameJoinRestriction"
	return doJSON(ctx, c.http, http.MethodPatch, endpoint, c.header(), body, nil)
}
