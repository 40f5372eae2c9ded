package hooks

import (
	"fmt"
	"os"
	"path/filepath"
)

// DispatcherEvents lists the hook kinds Claude Code is configured to
// report (spec.md §6's child-process contract). SessionStart is not
// wired through settings.local.json — Panoptes infers it itself when a
// session is created.
var DispatcherEvents = []string{"PreToolUse", "PostToolUse", "Stop", "Notification"}

const dispatcherScript = `#!/bin/sh
# Installed by panoptes. Reads a hook payload on stdin and forwards it,
# best-effort, to the loopback hook server. PANOPTES_SESSION_ID and
# PANOPTES_HOOK_PORT are inherited from the spawning session's
# environment.
[ -z "$PANOPTES_HOOK_PORT" ] && exit 0
cat | curl -s -m 1 -X POST "http://127.0.0.1:$PANOPTES_HOOK_PORT/hook" \
	-H 'Content-Type: application/json' -d @- >/dev/null 2>&1
exit 0
`

// InstallDispatcher writes the single shared dispatcher script into
// hooksDir (creating it if needed) plus one symlink per DispatcherEvents
// entry, and returns the script's path. Idempotent: re-running overwrites
// the script and recreates the symlinks.
func InstallDispatcher(hooksDir string) (scriptPath string, err error) {
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return "", fmt.Errorf("hooks: create hooks dir: %w", err)
	}
	scriptPath = filepath.Join(hooksDir, "dispatcher.sh")
	if err := os.WriteFile(scriptPath, []byte(dispatcherScript), 0o755); err != nil {
		return "", fmt.Errorf("hooks: write dispatcher script: %w", err)
	}

	for _, event := range DispatcherEvents {
		link := filepath.Join(hooksDir, event+".sh")
		os.Remove(link)
		if err := os.Symlink(scriptPath, link); err != nil {
			return "", fmt.Errorf("hooks: symlink %s: %w", event, err)
		}
	}
	return scriptPath, nil
}
