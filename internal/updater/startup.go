package updater

import (
	"fmt"
	"io"

	"github.com/agentx-labs/promptreg/internal/branding"
)

// PrintBanner prints an update notification from the cache at path when the
// last check found updates. Cache errors are ignored.
func PrintBanner(w io.Writer, path string) {
	cache, err := LoadCache(path)
	if err != nil || cache == nil || len(cache.Updates) == 0 {
		return
	}
	PrintUpdateBanner(w, len(cache.Updates))
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, count int) {
	noun := "update"
	if count != 1 {
		noun = "updates"
	}
	fmt.Fprintf(w, "\n%d artifact %s available\n", count, noun)
	fmt.Fprintf(w, "    Run `%s outdated` to review or `%s update --all` to apply\n\n", branding.CLIName(), branding.CLIName())
}
