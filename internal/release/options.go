package release

import "github.com/hochfrequenz/release-orchestrator/internal/config"

// Options carries the settings the pipeline needs, resolved from config
type Options struct {
	Root             string
	Tool             string
	Manifest         string
	DetachedSentinel string
	Git              string
	Registry         string

	Scripts  []string
	Parallel bool
	Pull     bool

	Exact             bool
	StableChannel     string
	PrereleaseChannel string
	CommitSubject     string
}

// OptionsFromConfig builds Options for the workspace at root
func OptionsFromConfig(cfg *config.Config, root string) Options {
	return Options{
		Root:              root,
		Tool:              cfg.Workspace.Tool,
		Manifest:          cfg.Workspace.Manifest,
		DetachedSentinel:  cfg.Workspace.DetachedSentinel,
		Git:               cfg.Tools.Git,
		Registry:          cfg.Tools.Registry,
		Scripts:           cfg.Build.Scripts,
		Parallel:          cfg.Build.Parallel,
		Pull:              cfg.Build.Pull,
		Exact:             cfg.Publish.Exact,
		StableChannel:     cfg.Publish.StableChannel,
		PrereleaseChannel: cfg.Publish.PrereleaseChannel,
		CommitSubject:     cfg.Publish.CommitSubject,
	}
}
