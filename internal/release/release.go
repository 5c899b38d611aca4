// Package release fetches and installs Git Credential Manager from its
// GitHub release index. GCM is not packaged by Debian, so the .deb comes
// straight from the project's releases.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/hashicorp/go-retryablehttp"

	lkerrors "github.com/latchkey-dev/latchkey/internal/errors"
	"github.com/latchkey-dev/latchkey/internal/pkgmgr"
	"github.com/latchkey-dev/latchkey/internal/system"
)

// DefaultIndexURL is the GCM latest-release endpoint.
const DefaultIndexURL = "https://api.github.com/repos/git-ecosystem/git-credential-manager/releases/latest"

// Release is the subset of the GitHub release payload latchkey reads.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable artifact of a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// NewClient returns the retrying HTTP client used for release traffic.
func NewClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return client
}

// PlatformPattern matches the Debian artifact for the current
// architecture, e.g. gcm-linux_amd64.2.6.0.deb.
func PlatformPattern() *regexp.Regexp {
	return regexp.MustCompile(`gcm-linux_` + regexp.QuoteMeta(runtime.GOARCH) + `.*\.deb$`)
}

// LatestAssetURL queries the release index and returns the download URL
// of the first asset matching pattern. Returns ErrNoAsset (wrapped) when
// nothing matches.
func LatestAssetURL(client *retryablehttp.Client, indexURL string, pattern *regexp.Regexp) (string, error) {
	resp, err := client.Get(indexURL)
	if err != nil {
		return "", fmt.Errorf("querying release index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release index returned %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("decoding release index: %w", err)
	}

	for _, asset := range release.Assets {
		if pattern.MatchString(asset.Name) {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("release %s, pattern %s: %w", release.TagName, pattern, lkerrors.ErrNoAsset)
}

// Download fetches url into destDir and returns the written file path.
func Download(client *retryablehttp.Client, url, destDir string) (string, error) {
	resp, err := client.Get(url)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: %s", url, resp.Status)
	}

	dest := filepath.Join(destDir, filepath.Base(url))
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	return dest, nil
}

// GCMInstall ensures git-credential-manager is installed from the latest
// matching release artifact. Implements reconcile.Resource.
type GCMInstall struct {
	Runner system.Runner

	// Client defaults to NewClient when nil.
	Client *retryablehttp.Client

	// IndexURL defaults to DefaultIndexURL when empty.
	IndexURL string

	// Pattern defaults to PlatformPattern when nil.
	Pattern *regexp.Regexp
}

// Name implements reconcile.Resource.
func (g *GCMInstall) Name() string { return "git-credential-manager" }

// Check implements reconcile.Resource.
func (g *GCMInstall) Check(ctx context.Context) (bool, error) {
	_, err := g.Runner.LookPath("git-credential-manager")
	return err == nil, nil
}

// Apply downloads the latest artifact and installs it with dpkg.
func (g *GCMInstall) Apply(ctx context.Context) error {
	client := g.Client
	if client == nil {
		client = NewClient()
	}
	indexURL := g.IndexURL
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	pattern := g.Pattern
	if pattern == nil {
		pattern = PlatformPattern()
	}

	assetURL, err := LatestAssetURL(client, indexURL, pattern)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "latchkey-gcm-*")
	if err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	debPath, err := Download(client, assetURL, tmpDir)
	if err != nil {
		return err
	}

	name, args := pkgmgr.MaybeSudo("dpkg", []string{"-i", debPath})
	if err := g.Runner.RunInteractive(ctx, name, args...); err != nil {
		return fmt.Errorf("installing %s: %w", filepath.Base(debPath), err)
	}
	return nil
}
