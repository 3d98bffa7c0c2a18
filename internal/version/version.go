package version

// Version is the postbuilder release, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/postbuilder/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the text printed by --version.
func String() string {
	return "postbuilder " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
