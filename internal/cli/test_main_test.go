package cli

import (
	"fmt"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	tempHome, err := os.MkdirTemp("", "agentskills-home-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp HOME: %v\n", err)
		os.Exit(1)
	}

	oldHome, hadHome := os.LookupEnv("AGENTSKILLS_HOME")
	if err := os.Setenv("AGENTSKILLS_HOME", tempHome); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set AGENTSKILLS_HOME: %v\n", err)
		_ = os.RemoveAll(tempHome)
		os.Exit(1)
	}

	code := m.Run()

	if hadHome {
		_ = os.Setenv("AGENTSKILLS_HOME", oldHome)
	} else {
		_ = os.Unsetenv("AGENTSKILLS_HOME")
	}
	_ = os.RemoveAll(tempHome)

	os.Exit(code)
}
