package main

import (
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Test Configuration Helpers
// =============================================================================

// getEnvInt reads an integer from an environment variable with a default value.
func getEnvInt(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return defaultVal
}

// getEnvBool reads a boolean from an environment variable with a default value.
func getEnvBool(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// Test size configuration via environment variables:
//   QUEUE_TEST_SIZE      - Default size for normal tests (default: 10000)
//   QUEUE_STRESS_SIZE    - Size for stress tests (default: 100000)
//   QUEUE_ENABLE_STRESS  - Enable large stress tests (default: false)
//   QUEUE_CONCURRENCY    - Number of concurrent goroutines (default: 50)

func getTestSize() int {
	return getEnvInt("QUEUE_TEST_SIZE", 10000)
}

func getStressSize() int {
	return getEnvInt("QUEUE_STRESS_SIZE", 100000)
}

func stressTestsEnabled() bool {
	return getEnvBool("QUEUE_ENABLE_STRESS", false)
}

func getConcurrency() int {
	return getEnvInt("QUEUE_CONCURRENCY", 50)
}

// =============================================================================
// Shared Test Helpers
// =============================================================================

// withAllQueues loops over all implementations and calls the test
// function for each one as a subtest. Feature filtering is done inside
// the subtest to avoid skipping at parent level.
func withAllQueues(t *testing.T, testedFeatures []string, fn func(t *testing.T, impl Implementation)) {
	t.Helper()
	for _, impl := range getImplementations() {
		impl := impl // capture range variable

		t.Run(impl.name, func(t *testing.T) {
			for _, feature := range testedFeatures {
				found := false
				for _, implFeature := range impl.features {
					if feature == implFeature {
						found = true
						break
					}
				}
				if !found {
					t.Skipf("Skipping: missing feature %q", feature)
					return
				}
			}
			fn(t, impl)
		})
	}
}

// progressWatchdog monitors progress and fails the test if no progress is made for 15 seconds.
type progressWatchdog struct {
	t            *testing.T
	label        string
	lastProgress atomic.Int64
	done         chan struct{}
}

func newWatchdog(t *testing.T, label string) *progressWatchdog {
	wd := &progressWatchdog{
		t:     t,
		label: label,
		done:  make(chan struct{}),
	}
	wd.lastProgress.Store(time.Now().UnixNano())
	return wd
}

func (wd *progressWatchdog) Start() {
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				last := wd.lastProgress.Load()
				elapsed := time.Since(time.Unix(0, last))
				if elapsed > 15*time.Second {
					wd.t.Errorf("No progress in the last 15 seconds (%s test likely stuck).", wd.label)
					return
				}
			case <-wd.done:
				return
			}
		}
	}()
}

func (wd *progressWatchdog) Progress() {
	wd.lastProgress.Store(time.Now().UnixNano())
}

func (wd *progressWatchdog) Stop() {
	close(wd.done)
}

func logTestStart(t *testing.T, name string, impl Implementation) {
	t.Logf("%s: testing %s (%s)", name, impl.name, impl.pkgName)
}
