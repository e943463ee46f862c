// Package threatintel pulls the curated IP blocklist the SOC keeps in a
// git repository, so the dashboard can show it next to the live firewall
// data. The list is a plain text file, one address or CIDR per line,
// with '#' comments.
package threatintel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/errs"
)

type Blocklist struct {
	Entries []string `json:"entries"`
	Count   int      `json:"count"`
	SHA     string   `json:"sha"`
}

type Feed struct {
	client Client
	owner  string
	repo   string
	path   string
	ref    string
	logger *zap.Logger
}

func New(owner, repo, path, ref, pat string, timeout time.Duration, logger *zap.Logger) *Feed {
	client := github.NewClient(&http.Client{Timeout: timeout})
	if pat != "" {
		client = client.WithAuthToken(pat)
	}
	return &Feed{
		client: &wrapper{client},
		owner:  owner,
		repo:   repo,
		path:   path,
		ref:    ref,
		logger: logger,
	}
}

// Fetch downloads the blocklist file and parses it. The result does not
// depend on the dashboard time window, the list is whatever the SOC has
// committed at the configured ref.
func (f *Feed) Fetch(ctx context.Context) (*Blocklist, error) {
	f.logger.Debug("fetching blocklist",
		zap.String("repo", fmt.Sprintf("%s/%s", f.owner, f.repo)),
		zap.String("path", f.path),
		zap.String("ref", f.ref))

	file, _, _, err := f.client.GetContents(ctx, f.owner, f.repo, f.ref, f.path)
	if err != nil {
		return nil, mapGitHubError(f.path, err)
	}
	if file == nil {
		// the configured path points at a directory
		return nil, errs.NewNotFound(f.path)
	}

	raw, err := file.GetContent()
	if err != nil {
		return nil, errs.NewDecode(f.path, err)
	}

	entries := parseBlocklist(raw)
	return &Blocklist{
		Entries: entries,
		Count:   len(entries),
		SHA:     file.GetSHA(),
	}, nil
}

func parseBlocklist(raw string) []string {
	lines := strings.Split(raw, "\n")
	entries := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	return entries
}

func mapGitHubError(path string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return errs.NewRateLimited(path, rateErr.Rate.Reset.UTC().Format(time.RFC3339))
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch {
		case ghErr.Response.StatusCode == http.StatusNotFound:
			return errs.NewNotFound(path)
		case ghErr.Response.StatusCode == http.StatusUnauthorized,
			ghErr.Response.StatusCode == http.StatusForbidden:
			return errs.NewUnauthorized(ghErr.Response.StatusCode, path)
		case ghErr.Response.StatusCode >= 500:
			return errs.NewServer(ghErr.Response.StatusCode, path)
		}
		return err
	}
	return errs.NewTransport(path, err)
}
