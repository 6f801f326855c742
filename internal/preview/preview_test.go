package preview

import (
	"context"
	"encoding/base64"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURL(t *testing.T) {
	html := "<!DOCTYPE html><html><body>Hi</body></html>"
	url := DataURL(html)

	prefix := "data:text/html;charset=utf-8;base64,"
	require.True(t, strings.HasPrefix(url, prefix))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)
	assert.Equal(t, html, string(decoded))
}

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{Quality: 500, Settle: -time.Second}.withDefaults()
	assert.Equal(t, int64(1280), got.Width)
	assert.Equal(t, int64(800), got.Height)
	assert.Equal(t, 100, got.Quality)
	assert.Equal(t, time.Duration(0), got.Settle)
	assert.Equal(t, 30*time.Second, got.Timeout)

	kept := Options{Width: 375, Height: 667, Quality: 80, Timeout: time.Second}.withDefaults()
	assert.Equal(t, int64(375), kept.Width)
	assert.Equal(t, 80, kept.Quality)
	assert.Equal(t, time.Second, kept.Timeout)
}

func TestActions(t *testing.T) {
	var buf []byte
	assert.Len(t, Actions("<html></html>", DefaultOptions(), &buf), 5)
	assert.Len(t, Actions("<html></html>", Options{Settle: -1}, &buf), 4)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType(DefaultOptions()))
	assert.Equal(t, "image/png", ContentType(Options{Quality: 80}))
	assert.Equal(t, "image/jpeg", ContentType(Options{Quality: 80, FullPage: true}))
}

func TestScreenshot_EmptyDocument(t *testing.T) {
	_, err := Screenshot(context.Background(), "   ", DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func findChrome() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

func TestIntegration_Screenshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	chrome := findChrome()
	if chrome == "" {
		t.Skip("chrome not installed")
	}

	html := "<!DOCTYPE html><html><head><title>Preview</title></head><body><h1>Hello</h1></body></html>"
	img, err := Screenshot(context.Background(), html, Options{Width: 400, Height: 300, ExecPath: chrome})
	require.NoError(t, err)
	require.Greater(t, len(img), 8)
	assert.Equal(t, "\x89PNG", string(img[:4]))
}
