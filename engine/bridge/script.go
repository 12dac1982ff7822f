package bridge

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed scripts/dragnn_bridge.py
var embeddedScript string

// scriptPath returns path when set. Otherwise the embedded script is
// written to a temporary file, removed by the returned cleanup.
func scriptPath(path string) (string, func(), error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", nil, fmt.Errorf("bridge script not found: %w", err)
		}
		return path, func() {}, nil
	}

	f, err := os.CreateTemp("", "dragnn_bridge_*.py")
	if err != nil {
		return "", nil, fmt.Errorf("failed to extract bridge script: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(embeddedScript); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to write bridge script: %w", err)
	}

	name := f.Name()
	return name, func() { os.Remove(name) }, nil
}
