package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/manifestkit/pkg/manifest"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "manifestkit"

	// configEnv names the environment variable that overrides the config path.
	configEnv = "MANIFESTKIT_CONFIG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer
	Config Config

	dir        string
	configPath string
	reader     *manifest.Reader
}

// New creates a new CLI instance with a default logger. Command output goes
// to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		Config: defaultConfig(),
		dir:    ".",
		reader: manifest.NewReader(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// setup runs before every command: it loads the config file and attaches
// the logger to the command context.
func (c *CLI) setup(cmd *cobra.Command) error {
	path, explicit := c.resolveConfigPath()
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	c.Config = cfg
	if path != "" {
		c.Logger.Debug("config", "path", path)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/manifestkit/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// resolveConfigPath picks the config file: --config, then $MANIFESTKIT_CONFIG,
// then config.toml in configDir. explicit reports whether the user named the
// file, in which case it must exist.
func (c *CLI) resolveConfigPath() (path string, explicit bool) {
	if c.configPath != "" {
		return c.configPath, true
	}
	if env := os.Getenv(configEnv); env != "" {
		return env, true
	}
	dir, err := configDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "config.toml"), false
}

// projectDir returns the directory commands operate on.
func (c *CLI) projectDir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}
