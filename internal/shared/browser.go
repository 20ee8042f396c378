package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the default system browser to the specified URL.
//
// The BROWSER environment variable, when set, names the command used
// instead of the platform default. Supports macOS, Linux, and Windows.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	if browser := os.Getenv("BROWSER"); browser != "" {
		cmd = exec.Command(browser, url)
	} else {
		switch rt := getRuntime(); rt {
		case "darwin":
			cmd = exec.Command("open", url)
		case "linux":
			cmd = exec.Command("xdg-open", url)
		case "windows":
			cmd = exec.Command("cmd", "/c", "start", url)
		default:
			return fmt.Errorf("unsupported platform: %s", rt)
		}
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
