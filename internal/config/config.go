package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LocalConfigName is the per-workspace config file looked up from the working directory upwards
const LocalConfigName = ".release.toml"

// Config holds all application configuration
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace" yaml:"workspace"`
	Tools     ToolsConfig     `toml:"tools" yaml:"tools"`
	Build     BuildConfig     `toml:"build" yaml:"build"`
	Publish   PublishConfig   `toml:"publish" yaml:"publish"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

// WorkspaceConfig describes the monorepo and the tool that manages it
type WorkspaceConfig struct {
	Root             string `toml:"root" yaml:"root"`
	Tool             string `toml:"tool" yaml:"tool"`
	Manifest         string `toml:"manifest" yaml:"manifest"`
	DetachedSentinel string `toml:"detached_sentinel" yaml:"detached_sentinel"`
}

// ToolsConfig names the external binaries
type ToolsConfig struct {
	Git      string `toml:"git" yaml:"git"`
	Registry string `toml:"registry" yaml:"registry"`
}

// BuildConfig holds the build/verify phase settings
type BuildConfig struct {
	Scripts  []string `toml:"scripts" yaml:"scripts"`
	Parallel bool     `toml:"parallel" yaml:"parallel"`
	Pull     bool     `toml:"pull" yaml:"pull"`
}

// PublishConfig holds registry and commit settings
type PublishConfig struct {
	StableChannel     string `toml:"stable_channel" yaml:"stable_channel"`
	PrereleaseChannel string `toml:"prerelease_channel" yaml:"prerelease_channel"`
	CommitSubject     string `toml:"commit_subject" yaml:"commit_subject"`
	Exact             bool   `toml:"exact" yaml:"exact"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:             "",
			Tool:             "lerna",
			Manifest:         "package.json",
			DetachedSentinel: "HEAD",
		},
		Tools: ToolsConfig{
			Git:      "git",
			Registry: "npm",
		},
		Build: BuildConfig{
			Scripts:  []string{"clean", "build", "test"},
			Parallel: true,
		},
		Publish: PublishConfig{
			StableChannel:     "latest",
			PrereleaseChannel: "next",
			CommitSubject:     "Publish",
			Exact:             true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a TOML or YAML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, err
	}

	cfg.Workspace.Root = ExpandPath(cfg.Workspace.Root)

	return cfg, nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "release-orchestrator", "config.toml")
}

// FindLocalConfig walks up from the working directory looking for LocalConfigName.
// Returns "" when none is found.
func FindLocalConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, LocalConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve picks the config file to load: explicit path, local config, then the user default
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if local := FindLocalConfig(); local != "" {
		return local
	}
	return DefaultConfigPath()
}
