// Package testing switches the process into test mode when imported by a test
// binary, so command entrypoints skip connecting to real infrastructure.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

const testModeEnv = "PORTAL_TEST_MODE"

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		if os.Getenv(testModeEnv) == "" {
			_ = os.Setenv(testModeEnv, "1")
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain can be assigned by packages that need test mode before flags parse.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
