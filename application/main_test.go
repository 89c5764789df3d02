package application_test

import (
	"os"
	"testing"

	"gamerit/config"
)

func TestMain(m *testing.M) {
	// Set up test config once for all tests
	config.SetTestConfig(config.NewTestConfig())

	// Ensure config is loaded before running tests
	_ = config.Get()

	code := m.Run()

	os.Exit(code)
}
