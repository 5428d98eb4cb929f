package cmd

import (
	"strings"
	"testing"
)

func TestServeRejectsUnknownStore(t *testing.T) {
	isolateEnv(t)
	_, err := executeCommand(rootCmd, "serve", "--store", "bogus")
	if err == nil || !strings.Contains(err.Error(), "unknown store") {
		t.Errorf("err = %v, want unknown store", err)
	}
}
