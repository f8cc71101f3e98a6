package buildinfo

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Short returns a compact build identifier for banners and logs.
func Short() string {
	switch {
	case Version != "" && Version != "dev":
		if Commit != "" && Commit != "unknown" {
			return Version + " (" + Commit + ")"
		}
		return Version
	case Commit != "" && Commit != "unknown":
		return Commit
	default:
		return "dev"
	}
}
