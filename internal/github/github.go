package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/magnus188/trimix-analysator/internal/uerr"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "trimix-analysator-updater"
	acceptHeader   = "application/vnd.github.v3+json"
)

// Release is the subset of GitHub's release API response we need.
type Release struct {
	TagName     string         `json:"tag_name"`
	Name        string         `json:"name"`
	Body        string         `json:"body"`
	PublishedAt string         `json:"published_at"`
	Prerelease  bool           `json:"prerelease"`
	Draft       bool           `json:"draft"`
	Assets      []ReleaseAsset `json:"assets"`
}

// ReleaseAsset represents a downloadable file attached to a GitHub release.
type ReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// ReleaseInfo describes the newest eligible release with its firmware
// asset resolved. It is built fresh on every check and never persisted.
type ReleaseInfo struct {
	Version     string
	Name        string
	Notes       string
	PublishedAt string
	Prerelease  bool
	DownloadURL string
	Size        int64
}

// Connectivity reports whether the network transport is usable. The
// device's Wi-Fi layer implements this; tests stub it.
type Connectivity interface {
	Connected() bool
}

// ConnectivityFunc adapts a plain function to the Connectivity interface.
type ConnectivityFunc func() bool

func (f ConnectivityFunc) Connected() bool { return f() }

type alwaysConnected struct{}

func (alwaysConnected) Connected() bool { return true }

// Client resolves the latest published firmware release from a GitHub
// repository.
type Client struct {
	repo             string
	token            string
	baseURL          string
	allowPrereleases bool
	http             *http.Client
	connectivity     Connectivity
	logger           *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the token used for private repositories.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithBaseURL overrides the GitHub API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithConnectivity sets the connectivity gate consulted before each check.
func WithConnectivity(conn Connectivity) Option {
	return func(c *Client) { c.connectivity = conn }
}

// WithPrereleases allows prerelease versions to be offered.
func WithPrereleases(allow bool) Option {
	return func(c *Client) { c.allowPrereleases = allow }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a release client for "owner/repo".
func NewClient(repo string, opts ...Option) *Client {
	c := &Client{
		repo:         repo,
		baseURL:      defaultBaseURL,
		http:         http.DefaultClient,
		connectivity: alwaysConnected{},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestRelease fetches the latest published release and resolves its
// firmware asset. Draft releases and, unless opted in, prereleases are
// not eligible.
func (c *Client) LatestRelease(ctx context.Context) (*ReleaseInfo, error) {
	const op = "github.LatestRelease"

	if !c.connectivity.Connected() {
		return nil, uerr.New(uerr.NetworkUnavailable, op, "network is not connected")
	}

	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, c.repo)
	c.logger.Debug("fetching latest release", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, uerr.Wrap(uerr.TransportError, op, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, uerr.Wrap(uerr.TransportError, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, uerr.New(uerr.TransportError, op, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, uerr.Wrap(uerr.ParseError, op, err)
	}
	if strings.TrimSpace(rel.TagName) == "" {
		return nil, uerr.New(uerr.ParseError, op, "release has no tag_name")
	}
	if rel.Draft {
		return nil, uerr.New(uerr.AssetNotFound, op, "latest release is a draft")
	}
	if rel.Prerelease && !c.allowPrereleases {
		return nil, uerr.New(uerr.AssetNotFound, op, "latest release "+rel.TagName+" is a prerelease")
	}

	asset, err := findFirmwareAsset(rel.Assets)
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", rel.TagName, err)
	}

	c.logger.Debug("resolved firmware asset",
		zap.String("version", rel.TagName),
		zap.String("asset", asset.Name),
		zap.Int64("size", asset.Size))

	return &ReleaseInfo{
		Version:     strings.TrimSpace(rel.TagName),
		Name:        rel.Name,
		Notes:       rel.Body,
		PublishedAt: rel.PublishedAt,
		Prerelease:  rel.Prerelease,
		DownloadURL: asset.BrowserDownloadURL,
		Size:        asset.Size,
	}, nil
}

// findFirmwareAsset scans the attached assets for the firmware image.
// First match wins: an asset whose name contains ".bin" or "firmware".
// A zero-size match is rejected because the installer cannot size the
// update partition from it.
func findFirmwareAsset(assets []ReleaseAsset) (*ReleaseAsset, error) {
	const op = "github.findFirmwareAsset"

	for i := range assets {
		name := strings.ToLower(strings.TrimSpace(assets[i].Name))
		if !strings.Contains(name, ".bin") && !strings.Contains(name, "firmware") {
			continue
		}
		if assets[i].Size <= 0 {
			return nil, uerr.New(uerr.AssetNotFound, op, "firmware asset "+assets[i].Name+" has zero size")
		}
		if strings.TrimSpace(assets[i].BrowserDownloadURL) == "" {
			return nil, uerr.New(uerr.AssetNotFound, op, "firmware asset "+assets[i].Name+" has no download URL")
		}
		return &assets[i], nil
	}
	return nil, uerr.New(uerr.AssetNotFound, op, "no firmware asset found in release")
}
