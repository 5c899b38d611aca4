package release

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	lkerrors "github.com/latchkey-dev/latchkey/internal/errors"
)

func newIndexServer(t *testing.T, debName string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/deb/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "fake deb contents")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"tag_name": "v2.6.0",
			"assets": [
				{"name": "gcm-osx-x64-2.6.0.pkg", "browser_download_url": "%s/pkg/gcm.pkg"},
				{"name": "%s", "browser_download_url": "%s/deb/%s"}
			]
		}`, server.URL, debName, server.URL, debName)
	})
	return server
}

func TestLatestAssetURLMatchesPlatform(t *testing.T) {
	server := newIndexServer(t, "gcm-linux_amd64.2.6.0.deb")

	url, err := LatestAssetURL(NewClient(), server.URL+"/latest",
		regexp.MustCompile(`gcm-linux_amd64.*\.deb$`))
	if err != nil {
		t.Fatalf("LatestAssetURL: %v", err)
	}
	if url != server.URL+"/deb/gcm-linux_amd64.2.6.0.deb" {
		t.Errorf("url = %q", url)
	}
}

func TestLatestAssetURLNoMatch(t *testing.T) {
	server := newIndexServer(t, "gcm-linux_arm64.2.6.0.deb")

	_, err := LatestAssetURL(NewClient(), server.URL+"/latest",
		regexp.MustCompile(`gcm-linux_amd64.*\.deb$`))
	if !errors.Is(err, lkerrors.ErrNoAsset) {
		t.Errorf("err = %v, want ErrNoAsset", err)
	}
}

func TestLatestAssetURLBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient()
	client.RetryMax = 0
	if _, err := LatestAssetURL(client, server.URL, PlatformPattern()); err == nil {
		t.Error("expected error for non-200 index response")
	}
}

func TestDownloadWritesArtifact(t *testing.T) {
	server := newIndexServer(t, "gcm-linux_amd64.2.6.0.deb")
	dir := t.TempDir()

	path, err := Download(NewClient(), server.URL+"/deb/gcm-linux_amd64.2.6.0.deb", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(path) != "gcm-linux_amd64.2.6.0.deb" {
		t.Errorf("downloaded name = %q", filepath.Base(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(content) != "fake deb contents" {
		t.Errorf("artifact contents = %q", content)
	}
}

func TestPlatformPattern(t *testing.T) {
	pattern := PlatformPattern()
	// Exercised on any arch: the pattern always pins the .deb suffix and
	// the linux prefix.
	if pattern.MatchString("gcm-osx-x64-2.6.0.pkg") {
		t.Error("pattern must not match macOS artifacts")
	}
	if pattern.MatchString("gcm-linux_amd64.2.6.0.tar.gz") {
		t.Error("pattern must not match tarballs")
	}
}
