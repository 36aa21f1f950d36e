package guard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDangerousBlocksPrivateTargets(t *testing.T) {
	blocked := []string{
		"http://localhost/",
		"http://localhost:8080/admin",
		"HTTP://LOCALHOST/",
		"https://localhost/health",
		"http://127.0.0.1/",
		"http://127.0.0.1:6379/info",
		"http://0.0.0.0/",
		"http://192.168.1.5/admin",
		"http://10.0.0.1/",
		"http://172.16.0.1/",
		"http://172.23.4.5/",
		"http://172.31.255.1/",
		"http://169.254.169.254/latest/meta-data",
		"file:///etc/passwd",
		"FILE://c:/windows",
		"ftp://example.com/file.txt",
		"gopher://example.com/",
	}

	for _, url := range blocked {
		require.True(t, IsDangerous(url), "expected %s to be blocked", url)
	}
}

func TestIsDangerousAllowsPublicTargets(t *testing.T) {
	allowed := []string{
		"http://example.com/",
		"https://example.com/page?q=1",
		"https://www.wikipedia.org/",
		// Not caught: only the literal text is inspected.
		"http://my10.example.com/",
		"http://172.32.0.1/",
		"http://example.com/127.0.0.1",
		"https://example.com/?next=http://localhost/",
	}

	for _, url := range allowed {
		require.False(t, IsDangerous(url), "expected %s to be allowed", url)
	}
}

func TestPatternsAreExposedForDisplay(t *testing.T) {
	patterns := Patterns()
	require.NotEmpty(t, patterns)
	for _, p := range patterns {
		require.NotNil(t, p.Expr)
		require.NotEmpty(t, p.Description)
	}
}
