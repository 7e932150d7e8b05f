package version

// Build information, set with -ldflags "-X github.com/abduss/assethost/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
)
