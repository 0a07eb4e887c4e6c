package config

import (
	"os"
	"path/filepath"
	"testing"

	"appeal-bot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gamesYAML = `
games:
  - name: Blox Fruits
    crossroad_description:
      - Banned from our Discord or the game?
      - Submit an appeal below.
    image: https://cdn.example.com/bf.png
    appeal_server_id: "100"
    community_server_id: "200"
    appeal_judge_role_id: "300"
    appeal_overseer_role_id: "400"
    log_channel_id: "500"
    universe_id: "994732206"
    rover_tokens:
      appeal: file-appeal
      community: file-community
`

func writeGames(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "games.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadGames(t *testing.T) {
	games, err := LoadGames(writeGames(t, gamesYAML))
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "blox_fruits", g.Tag())
	assert.Equal(t, "100", g.AppealServerID)
	assert.Equal(t, "400", g.OverseerRoleID)
	assert.Equal(t, "994732206", g.UniverseID)
	assert.Len(t, g.CrossroadDescription, 2)
	assert.Equal(t, "file-community", g.RoverTokens.Community)
}

func TestLoadGamesMissingFile(t *testing.T) {
	_, err := LoadGames(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBuildCredentialsEnvOverride(t *testing.T) {
	games, err := LoadGames(writeGames(t, gamesYAML))
	require.NoError(t, err)

	env := map[string]string{"COMMUNITY_BLOX_FRUITS_ROVER_TOKEN": "env-community"}
	creds := BuildCredentials(games, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "file-appeal", creds[model.CredentialKey{Game: "blox_fruits", Role: model.AppealServer}])
	assert.Equal(t, "env-community", creds[model.CredentialKey{Game: "blox_fruits", Role: model.CommunityServer}])
}

func TestLoad(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("AES_SECRET_KEY", "secret")
	t.Setenv("AES_SALT", "salt")
	t.Setenv("OPEN_CLOUD_KEY", "cloud")
	t.Setenv("ACCESS_DOMAIN", "appeals.example.com/")
	t.Setenv("GAMES_FILE", writeGames(t, gamesYAML))
	t.Setenv("CLEANUP_GRACE", "2h")

	cfg, e, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "appeals.example.com", cfg.AccessDomain)
	assert.Equal(t, "./data/appeals.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "2h0m0s", cfg.CleanupGrace.String())
	assert.Equal(t, "info", e.LogLevel)

	token, ok := cfg.Credential("blox_fruits", model.AppealServer)
	assert.True(t, ok)
	assert.Equal(t, "file-appeal", token)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("GAMES_FILE", writeGames(t, gamesYAML))
	for _, k := range []string{"BOT_TOKEN", "AES_SECRET_KEY", "AES_SALT", "OPEN_CLOUD_KEY", "ACCESS_DOMAIN"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	_, _, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *model.Config {
		games := []model.GameConfig{{
			Name: "Blox Fruits", AppealServerID: "100", CommunityServerID: "200",
			JudgeRoleID: "300", OverseerRoleID: "400",
			RoverTokens: model.RoverTokens{Appeal: "a", Community: "c"},
		}}
		return &model.Config{Games: games, Credentials: BuildCredentials(games, func(string) (string, bool) { return "", false })}
	}

	tests := []struct {
		name    string
		mutate  func(c *model.Config)
		wantErr string
	}{
		{"valid", func(c *model.Config) {}, ""},
		{"no games", func(c *model.Config) { c.Games = nil }, "no games configured"},
		{"missing community token", func(c *model.Config) {
			c.Credentials[model.CredentialKey{Game: "blox_fruits", Role: model.CommunityServer}] = ""
		}, "missing community rover token"},
		{"empty server id", func(c *model.Config) { c.Games[0].CommunityServerID = "" }, "community_server_id"},
		{"shared appeal server", func(c *model.Config) {
			dup := c.Games[0]
			dup.Name = "Pet Sim"
			c.Games = append(c.Games, dup)
			c.Credentials = BuildCredentials(c.Games, func(string) (string, bool) { return "", false })
		}, "share appeal server"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
