// Package modrinth implements the Registry port against the Modrinth API v2.
package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Registry = (*Client)(nil)

const (
	// DefaultBaseURL is the public Modrinth API.
	DefaultBaseURL = "https://api.modrinth.com/v2"

	endpointProject     = "project"
	endpointVersions    = "project_versions"
	endpointVersion     = "version"
	endpointVersionFile = "version_file"

	hashAlgorithm = "sha512"
)

// Client implements ports.Registry using the Modrinth HTTP API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    ports.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(base string) Option {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent sets the User-Agent header Modrinth uses to identify clients.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithMetrics records every request.
func WithMetrics(m ports.Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// New creates a new Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveVersion returns the newest version of id that satisfies constraint.
// The returned VersionInfo carries the canonical project id, which may differ from a requested slug.
func (c *Client) ResolveVersion(ctx context.Context, id string, constraint domain.Constraint) (*domain.VersionInfo, error) {
	proj, err := c.project(ctx, id)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if constraint.GameVersion != "" {
		query.Set("game_versions", jsonList(constraint.GameVersion))
	}
	if constraint.Loader != 0 {
		query.Set("loaders", jsonList(constraint.Loader.String()))
	}

	var versions []version
	path := "/project/" + url.PathEscape(proj.ID) + "/version"
	if err := c.get(ctx, endpointVersions, path, query, &versions); err != nil {
		return nil, zerr.With(err, "mod_id", id)
	}

	for i := range versions {
		v := &versions[i]
		channel, err := domain.ParseReleaseChannel(v.VersionType)
		if err != nil || !constraint.Allows(channel) {
			continue
		}
		if _, ok := v.primaryFile(); !ok {
			continue
		}
		return c.toVersionInfo(ctx, proj, v)
	}

	notFound := zerr.With(domain.Mark(domain.ErrNotFound, "mod_id", id), "game_version", constraint.GameVersion)
	return nil, zerr.With(notFound, "loader", constraint.Loader.String())
}

// ResolveByHash identifies an artifact by its SHA-512 digest.
func (c *Client) ResolveByHash(ctx context.Context, hash string) (*domain.VersionInfo, error) {
	var v version
	query := url.Values{"algorithm": []string{hashAlgorithm}}
	if err := c.get(ctx, endpointVersionFile, "/version_file/"+url.PathEscape(hash), query, &v); err != nil {
		return nil, zerr.With(err, "sha512", shortHash(hash))
	}

	proj, err := c.project(ctx, v.ProjectID)
	if err != nil {
		return nil, err
	}

	info, err := c.toVersionInfo(ctx, proj, &v)
	if err != nil {
		return nil, err
	}

	// A version can ship several files; report the one that was looked up.
	for _, f := range v.Files {
		if strings.EqualFold(f.Hashes[hashAlgorithm], hash) {
			info.File = toArtifact(f)
			break
		}
	}
	return info, nil
}

func (c *Client) project(ctx context.Context, id string) (*project, error) {
	var p project
	if err := c.get(ctx, endpointProject, "/project/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, zerr.With(err, "mod_id", id)
	}
	if p.ID == "" {
		return nil, zerr.With(domain.Mark(domain.ErrTransportFailure, "reason", "project without id"), "mod_id", id)
	}
	return &p, nil
}

func (c *Client) toVersionInfo(ctx context.Context, proj *project, v *version) (*domain.VersionInfo, error) {
	f, ok := v.primaryFile()
	if !ok {
		return nil, domain.Mark(domain.ErrNotFound, "mod_id", proj.ID)
	}

	deps := make([]domain.DependencyRef, 0, len(v.Dependencies))
	for _, d := range v.Dependencies {
		kind, err := domain.ParseDependencyKind(d.DependencyType)
		if err != nil {
			continue
		}

		target := d.ProjectID
		if target == "" && d.VersionID != "" {
			target, err = c.projectOfVersion(ctx, d.VersionID)
			if err != nil {
				return nil, zerr.With(err, "mod_id", proj.ID)
			}
		}
		if target == "" {
			continue
		}

		deps = append(deps, domain.DependencyRef{
			Source:   domain.SourceModrinth,
			TargetID: target,
			Kind:     kind,
		})
	}

	name := proj.Title
	if name == "" {
		name = proj.Slug
	}

	return &domain.VersionInfo{
		ID:           proj.ID,
		Name:         name,
		Version:      v.VersionNumber,
		Source:       domain.SourceModrinth,
		PublishedAt:  v.DatePublished,
		File:         toArtifact(f),
		Dependencies: deps,
	}, nil
}

func (c *Client) projectOfVersion(ctx context.Context, versionID string) (string, error) {
	var v version
	if err := c.get(ctx, endpointVersion, "/version/"+url.PathEscape(versionID), nil, &v); err != nil {
		return "", zerr.With(err, "version_id", versionID)
	}
	return v.ProjectID, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return domain.Classify(domain.ErrTransportFailure, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		return zerr.With(domain.Classify(domain.ErrTransportFailure, err), "endpoint", endpoint)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(endpoint, resp.StatusCode, start)

	if resp.StatusCode == http.StatusNotFound {
		return domain.Mark(domain.ErrNotFound, "endpoint", endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		apiErr := domain.Mark(domain.ErrTransportFailure, "status_code", resp.StatusCode)
		return zerr.With(apiErr, "endpoint", endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return zerr.With(domain.Classify(domain.ErrTransportFailure, err), "endpoint", endpoint)
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveRegistryRequest(endpoint, status, time.Since(start))
	}
}

func toArtifact(f file) domain.ArtifactFile {
	return domain.ArtifactFile{
		FileName:    f.Filename,
		URL:         f.URL,
		ContentHash: strings.ToLower(f.Hashes[hashAlgorithm]),
		Size:        f.Size,
	}
}

func jsonList(values ...string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
