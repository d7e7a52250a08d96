package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var browserCommands = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"windows": {"cmd", "/c", "start"},
}

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser launches the default browser at url. Callers must be
// prepared for it to fail and print the URL themselves: the authorization
// flow cannot complete without the user reaching the consent page.
func OpenBrowser(url string) error {
	argv, ok := browserCommands[getRuntime()]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", getRuntime())
	}
	cmd := exec.Command(argv[0], append(argv[1:], url)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
