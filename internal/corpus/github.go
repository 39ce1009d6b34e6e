package corpus

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// GitHubSource loads every markdown file under a repository directory as a
// Record. The file path doubles as the record ID; records are tagged
// format=markdown so chunking is heading-aware.
type GitHubSource struct {
	client   *github.Client
	owner    string
	repo     string
	basePath string
}

// NewGitHubSource builds a source for owner/repo rooted at basePath.
// GITHUB_TOKEN, when set, authenticates the client for higher rate limits;
// secondary rate limits are handled by waiting automatically.
func NewGitHubSource(owner, repo, basePath string) (*GitHubSource, error) {
	limiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}
	client := github.NewClient(limiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubSource{client: client, owner: owner, repo: repo, basePath: basePath}, nil
}

func (s *GitHubSource) Load(ctx context.Context) ([]Record, error) {
	paths, err := s.listMarkdown(ctx, s.basePath, "")
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(paths))
	for _, rel := range paths {
		content, err := s.fetch(ctx, rel)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", rel, err)
		}
		records = append(records, Record{
			ID:      rel,
			Content: content,
			Metadata: map[string]string{
				"format": "markdown",
				"repo":   s.owner + "/" + s.repo,
				"path":   path.Join(s.basePath, rel),
			},
		})
	}
	return records, nil
}

func (s *GitHubSource) listMarkdown(ctx context.Context, fullPath, relPath string) ([]string, error) {
	_, entries, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", fullPath, err)
	}
	var found []string
	for _, entry := range entries {
		if entry.Type == nil || entry.Name == nil {
			continue
		}
		rel := path.Join(relPath, *entry.Name)
		switch *entry.Type {
		case "file":
			if strings.HasSuffix(*entry.Name, ".md") {
				found = append(found, rel)
			}
		case "dir":
			sub, err := s.listMarkdown(ctx, path.Join(fullPath, *entry.Name), rel)
			if err != nil {
				return nil, err
			}
			found = append(found, sub...)
		}
	}
	return found, nil
}

func (s *GitHubSource) fetch(ctx context.Context, rel string) (string, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path.Join(s.basePath, rel), nil)
	if err != nil {
		return "", err
	}
	if file == nil || file.Content == nil {
		return "", fmt.Errorf("no file content returned")
	}
	decoded, err := base64.StdEncoding.DecodeString(*file.Content)
	if err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	return string(decoded), nil
}
