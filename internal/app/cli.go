package app

import (
	"time"

	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio, sse or http")
	flags.StringP("host", "H", "", "Host for HTTP transports")
	flags.IntP("port", "p", 0, "Port for HTTP transports")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")

	// Documentation corpus
	flags.String("docs-source", "", "Documentation source: local or remote")
	flags.StringP("docs-base-path", "d", "", "Local documentation root directory")
	flags.String("docs-remote-url", "", "Base URL of the published documentation site")
	flags.Duration("docs-remote-timeout", 10*time.Second, "Timeout for a single remote request")
	flags.Float64("docs-remote-rps", 0, "Maximum remote requests per second (0 means unlimited)")

	// Cross-reference artifacts
	flags.String("code-docs-map", "", "Path to the code to docs mapping JSON")
	flags.String("code-tests-map", "", "Path to the code to tests mapping JSON")

	// Search
	flags.Bool("search-enabled", true, "Build a full-text search index over the documentation")
	flags.Int("search-max-results", 20, "Maximum number of search results")
}
