package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClaudeDesktopConfig_MissingFile(t *testing.T) {
	config, err := LoadClaudeDesktopConfig(filepath.Join(t.TempDir(), "claude_desktop_config.json"))

	require.NoError(t, err)
	require.NotNil(t, config)
	assert.NotNil(t, config.MCPServers)
	assert.Empty(t, config.MCPServers)
}

func TestLoadClaudeDesktopConfig_MalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "claude_desktop_config.json")
	require.NoError(t, os.WriteFile(configPath, []byte("{not json"), 0644))

	_, err := LoadClaudeDesktopConfig(configPath)
	assert.Error(t, err)
}

func TestSaveClaudeDesktopConfig_RoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "claude_desktop_config.json")

	config := &ClaudeDesktopConfig{
		MCPServers: map[string]MCPServerConfig{
			serverKey: {
				Command: "/usr/local/bin/mcp-server-lite",
				Args:    []string{},
				Env: map[string]string{
					"WELLNESS_DATA_DIR": "/data/wellness",
					"GEMINI_API_KEY":    "test-key",
				},
			},
		},
	}

	require.NoError(t, SaveClaudeDesktopConfig(configPath, config))

	loaded, err := LoadClaudeDesktopConfig(configPath)
	require.NoError(t, err)

	server, ok := loaded.MCPServers[serverKey]
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/mcp-server-lite", server.Command)
	assert.Equal(t, "/data/wellness", server.Env["WELLNESS_DATA_DIR"])
	assert.Equal(t, "test-key", server.Env["GEMINI_API_KEY"])
}

func TestSaveClaudeDesktopConfig_BacksUpAndKeepsOtherServers(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "claude_desktop_config.json")

	original := &ClaudeDesktopConfig{
		MCPServers: map[string]MCPServerConfig{
			"other-server": {Command: "/usr/local/bin/other"},
		},
	}
	require.NoError(t, SaveClaudeDesktopConfig(configPath, original))

	// Register ours the way ConfigureClaudeDesktop does: load, add, save
	loaded, err := LoadClaudeDesktopConfig(configPath)
	require.NoError(t, err)
	loaded.MCPServers[serverKey] = MCPServerConfig{Command: "/usr/local/bin/mcp-server-lite"}
	require.NoError(t, SaveClaudeDesktopConfig(configPath, loaded))

	backup, err := os.ReadFile(configPath + ".bak")
	require.NoError(t, err)
	assert.Contains(t, string(backup), "other-server")
	assert.NotContains(t, string(backup), serverKey)

	final, err := LoadClaudeDesktopConfig(configPath)
	require.NoError(t, err)
	assert.Contains(t, final.MCPServers, "other-server")
	assert.Contains(t, final.MCPServers, serverKey)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", maskKey("abc"))
	assert.Equal(t, "********6789", maskKey("AIza56786789"))
}
