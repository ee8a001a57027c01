// Package testutil provides shared helpers for tests: skip helpers for live
// provider tests, clip fixtures and WAV assertions.
//
// Live tests hit paid APIs, so they run only when NARRATOR_LIVE_TESTS=1 and
// a key is present:
//
//	func TestGeminiLive(t *testing.T) {
//	    key := testutil.RequireGeminiKey(t)
//	    ...
//	}
package testutil

import (
	"os"
	"strings"
	"testing"
)

// LiveTestsEnv enables tests that call real speech providers.
const LiveTestsEnv = "NARRATOR_LIVE_TESTS"

// RequireLive skips the test unless live provider tests are enabled.
func RequireLive(tb testing.TB) {
	tb.Helper()

	if os.Getenv(LiveTestsEnv) != "1" {
		tb.Skipf("live provider tests disabled; set %s=1 to run", LiveTestsEnv)
	}
}

// RequireEnv returns the first non-empty variable among names and skips the
// test when none is set.
func RequireEnv(tb testing.TB, names ...string) string {
	tb.Helper()

	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	tb.Skipf("none of %s is set", strings.Join(names, ", "))
	return ""
}

// RequireGeminiKey skips unless live tests are enabled and a Gemini key is set.
func RequireGeminiKey(tb testing.TB) string {
	tb.Helper()

	RequireLive(tb)
	return RequireEnv(tb, "GEMINI_API_KEY", "GOOGLE_API_KEY")
}

// RequireOpenAIKey skips unless live tests are enabled and an OpenAI key is set.
func RequireOpenAIKey(tb testing.TB) string {
	tb.Helper()

	RequireLive(tb)
	return RequireEnv(tb, "OPENAI_API_KEY")
}
