// Package guard forces test mode for packages that import it, keeping
// background runtimes from starting during tests.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("INKWELL_TEST_MODE") == "" {
			_ = os.Setenv("INKWELL_TEST_MODE", "1")
		}
	})
}
