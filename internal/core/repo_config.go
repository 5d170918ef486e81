package core

// RepoConfig represents the structure of the .codesage.yml file.
type RepoConfig struct {
	// Custom instructions appended to the pull request prompt.
	CustomInstructions []string `yaml:"custom_instructions"`

	// Directories whose files are never selected for review.
	// Example: ["dist", "vendor", "docs"]
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// Extensions that are never selected for review.
	// The leading dot is optional. Example: [".md", "lock", ".log"]
	ExcludeExts []string `yaml:"exclude_exts"`

	// MaxFiles caps how many changed files go into one review. Zero means the default.
	MaxFiles int `yaml:"max_files"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		CustomInstructions: []string{},
		ExcludeDirs:        []string{},
		ExcludeExts:        []string{},
	}
}
