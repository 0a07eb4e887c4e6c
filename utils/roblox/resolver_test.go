package roblox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"appeal-bot/model"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticConfig struct{ cfg *model.Config }

func (s staticConfig) GetConfig() *model.Config { return s.cfg }

var testGame = model.GameConfig{
	Name:              "Blox Fruits",
	AppealServerID:    "appeal-guild",
	CommunityServerID: "community-guild",
	UniverseID:        "994732206",
}

func testConfig() staticConfig {
	return staticConfig{cfg: &model.Config{
		Games: []model.GameConfig{testGame},
		Credentials: map[model.CredentialKey]string{
			{Game: "blox_fruits", Role: model.AppealServer}:    "appeal-token",
			{Game: "blox_fruits", Role: model.CommunityServer}: "community-token",
		},
	}}
}

type fakeBans struct {
	banErr    error
	deleteErr error
	deleted   []string
}

func (f *fakeBans) GuildBan(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.GuildBan, error) {
	if f.banErr != nil {
		return nil, f.banErr
	}
	return &discordgo.GuildBan{Reason: "spam"}, nil
}

func (f *fakeBans) GuildBanDelete(guildID, userID string, _ ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, guildID+"/"+userID)
	return f.deleteErr
}

func restError(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

func newTestResolver(t *testing.T, handler http.Handler, bans BanLookup) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	rover := NewRoverClient(srv.Client(), srv.URL+"/api", 100)
	cloud := NewOpenCloudClient(srv.Client(), srv.URL, "cloud-key")
	return NewResolver(rover, cloud, NewProfileCache(nil), bans, testConfig())
}

func TestRobloxUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/guilds/appeal-guild/discord-to-roblox/111", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer appeal-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(RoverUser{RobloxID: 42, CachedUsername: "builder", DiscordID: "111"})
	})
	mux.HandleFunc("/api/guilds/appeal-guild/discord-to-roblox/222", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/api/guilds/appeal-guild/discord-to-roblox/333", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	r := newTestResolver(t, mux, &fakeBans{})

	user, err := r.RobloxUser(context.Background(), testGame, "111")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.RobloxID)

	_, err = r.RobloxUser(context.Background(), testGame, "222")
	assert.ErrorIs(t, err, ErrNotLinked)

	_, err = r.RobloxUser(context.Background(), testGame, "333")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestProfileIsCached(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/cloud/v2/users/42", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "cloud-key", r.Header.Get("x-api-key"))
		io.WriteString(w, `{"id":"42","name":"builder","displayName":"Builder","premium":true,"idVerified":false,"createTime":"2015-06-01T00:00:00Z"}`)
	})
	mux.HandleFunc("/cloud/v2/users/42:generateThumbnail", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SQUARE", r.URL.Query().Get("shape"))
		io.WriteString(w, `{"path":"users/42/operations/x","done":true,"response":{"@type":"type.googleapis.com/roblox.open_cloud.cloud.v2.GenerateUserThumbnailResponse","imageUri":"https://tr.rbxcdn.com/42.png"}}`)
	})
	r := newTestResolver(t, mux, &fakeBans{})

	for i := 0; i < 3; i++ {
		p, a, err := r.ProfileWithAvatar(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "builder", p.Name)
		assert.True(t, p.Premium)
		assert.Equal(t, 2015, p.CreateTime.Year())
		assert.Equal(t, "https://tr.rbxcdn.com/42.png", a.Response.ImageURI)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestProfileWithoutAvatar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cloud/v2/users/7", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"7","name":"seven"}`)
	})
	r := newTestResolver(t, mux, &fakeBans{})

	p, a, err := r.ProfileWithAvatar(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "seven", p.Name)
	assert.Empty(t, a.Response.ImageURI)
}

func TestIsDiscordBanned(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    bool
		wantErr bool
	}{
		{"banned", nil, true, false},
		{"not found means not banned", restError(http.StatusNotFound), false, false},
		{"forbidden propagates", restError(http.StatusForbidden), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, http.NewServeMux(), &fakeBans{banErr: tt.err})
			got, err := r.IsDiscordBanned(context.Background(), "community-guild", "111")
			if tt.wantErr {
				require.Error(t, err)
				assert.Same(t, tt.err, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRevocationsTolerateNotFound(t *testing.T) {
	var deleted, patched atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/guilds/community-guild/bans/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "Bearer community-token", r.Header.Get("Authorization"))
		deleted.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/cloud/v2/universes/994732206/user-restrictions/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "gameJoinRestriction", r.URL.Query().Get("updateMask"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"gameJoinRestriction":{"active":false}}`, string(body))
		patched.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	bans := &fakeBans{deleteErr: restError(http.StatusNotFound)}
	r := newTestResolver(t, mux, bans)

	require.NoError(t, r.RevokeRegistryBan(context.Background(), testGame, "42"))
	require.NoError(t, r.RevokeDiscordBan(context.Background(), "community-guild", "111"))
	require.NoError(t, r.RevokeGameRestriction(context.Background(), testGame.UniverseID, "42"))
	assert.Equal(t, int32(1), deleted.Load())
	assert.Equal(t, int32(1), patched.Load())
	assert.Equal(t, []string{"community-guild/111"}, bans.deleted)

	bans.deleteErr = restError(http.StatusForbidden)
	assert.Error(t, r.RevokeDiscordBan(context.Background(), "community-guild", "111"))
}

func TestIsGameRestricted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cloud/v2/universes/1/user-restrictions/42", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"user":"users/42","gameJoinRestriction":{"active":true,"privateReason":"exploit"}}`)
	})
	mux.HandleFunc("/cloud/v2/universes/1/user-restrictions/43", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r := newTestResolver(t, mux, &fakeBans{})

	restricted, err := r.IsGameRestricted(context.Background(), "1", "42")
	require.NoError(t, err)
	assert.True(t, restricted)

	restricted, err = r.IsGameRestricted(context.Background(), "1", "43")
	require.NoError(t, err)
	assert.False(t, restricted)
}
