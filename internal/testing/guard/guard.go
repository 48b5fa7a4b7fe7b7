// Package guard forces test mode for any package that imports it, so
// tests never start runtime side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("PULSEBOARD_TEST_MODE") == "" {
			_ = os.Setenv("PULSEBOARD_TEST_MODE", "1")
		}
	})
}
