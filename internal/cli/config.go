package cli

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	merrors "github.com/matzehuels/manifestkit/pkg/errors"
	"github.com/matzehuels/manifestkit/pkg/manifest"
)

// Output formats accepted by `show` and the config file.
const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// Config holds user settings read from config.toml. Command-line flags take
// precedence over it.
//
//	indent = "2"            # spaces, "tab", or a literal whitespace unit
//	final_newline = true
//	output = "yaml"         # json or yaml
//	listen = "127.0.0.1:7373"
type Config struct {
	// Indent is used for manifests created from scratch.
	Indent string `toml:"indent"`
	// FinalNewline is used for manifests created from scratch.
	FinalNewline bool `toml:"final_newline"`
	// Output is the default format of `show`.
	Output string `toml:"output"`
	// Listen is the default address of `serve`.
	Listen string `toml:"listen"`
}

func defaultConfig() Config {
	return Config{
		Indent:       "tab",
		FinalNewline: true,
		Output:       outputJSON,
		Listen:       "127.0.0.1:7373",
	}
}

// loadConfig reads the TOML file at path over the defaults. A missing file
// yields the defaults unless the user named it explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaultConfig(), nil
		}
		return Config{}, merrors.Wrap(merrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, merrors.New(merrors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return Config{}, merrors.Wrap(merrors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if _, err := parseIndent(cfg.Indent); err != nil {
		return err
	}
	if _, err := parseOutput(cfg.Output); err != nil {
		return err
	}
	if cfg.Listen == "" {
		return errors.New("listen must not be empty")
	}
	return nil
}

// Formatting returns the formatting for newly created manifests.
func (cfg Config) Formatting() *manifest.Formatting {
	indent, err := parseIndent(cfg.Indent)
	if err != nil {
		indent = "\t"
	}
	return &manifest.Formatting{Indent: indent, InsertFinalNewline: cfg.FinalNewline}
}

// parseIndent turns a configured indent into a whitespace unit. Numbers are
// a count of spaces, 0 meaning compact output.
func parseIndent(s string) (string, error) {
	switch s {
	case "tab", "\t":
		return "\t", nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 10 {
			return "", errors.New("indent must be between 0 and 10 spaces")
		}
		return strings.Repeat(" ", n), nil
	}
	if s != "" && strings.Trim(s, " \t") == "" {
		return s, nil
	}
	return "", errors.New(`indent must be a number of spaces, "tab", or whitespace`)
}

// parseOutput maps an output format name to the manifest file it mimics.
func parseOutput(s string) (manifest.FileName, error) {
	switch strings.ToLower(s) {
	case outputJSON:
		return manifest.FileJSON, nil
	case outputYAML:
		return manifest.FileYAML, nil
	}
	return "", errors.New("output must be json or yaml")
}
