package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pricing-audit-service/internal/config"
	"pricing-audit-service/internal/logger"
)

// GitHubStore keeps price lists in a repository directory through the
// contents API. Every upload is a commit, so history is kept by git.
type GitHubStore struct {
	BaseURL    string
	Token      string
	Owner      string
	Repo       string
	Branch     string
	Dir        string
	Client     *http.Client
	RetryCount int
	RetryWait  time.Duration
	log        logger.Logger
}

// NewGitHubStore creates a store from config.
func NewGitHubStore(cfg config.GitHubConfig, log logger.Logger) (*GitHubStore, error) {
	if cfg.Token == "" || cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github token, owner and repo are required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}

	return &GitHubStore{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      cfg.Token,
		Owner:      cfg.Owner,
		Repo:       cfg.Repo,
		Branch:     branch,
		Dir:        strings.Trim(cfg.Dir, "/"),
		Client:     &http.Client{Timeout: timeout},
		RetryCount: 2,
		RetryWait:  time.Second,
		log:        log,
	}, nil
}

type contentEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// List returns the files in the configured directory. A missing directory
// is an empty store.
func (s *GitHubStore) List(ctx context.Context) ([]string, error) {
	resp, err := s.do(ctx, http.MethodGet, s.contentsURL(""), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list", resp)
	}

	var entries []contentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode directory listing: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type == "file" {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Download fetches the raw file content of name to dst.
func (s *GitHubStore) Download(ctx context.Context, name, dst string) error {
	resp, err := s.do(ctx, http.MethodGet, s.contentsURL(path.Base(name)), nil, "application/vnd.github.raw")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s/%s: %w", s.Repo, s.filePath(name), ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return apiError("download", resp)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", dst, err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return file.Close()
}

// Upload creates or updates the file, sending the existing blob sha when
// the file is already present.
func (s *GitHubStore) Upload(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	name := filepath.Base(localPath)

	sha, err := s.existingSHA(ctx, name)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(putContentRequest{
		Message: "Upload " + name,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  s.Branch,
		SHA:     sha,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode upload: %w", err)
	}

	resp, err := s.do(ctx, http.MethodPut, s.contentsURL(name), body, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", apiError("upload", resp)
	}

	s.log.Info("Uploaded price list",
		logger.String("repo", s.Owner+"/"+s.Repo),
		logger.String("path", s.filePath(name)),
		logger.Bool("replaced", sha != ""),
	)
	return fmt.Sprintf("github.com/%s/%s/%s@%s", s.Owner, s.Repo, s.filePath(name), s.Branch), nil
}

func (s *GitHubStore) existingSHA(ctx context.Context, name string) (string, error) {
	resp, err := s.do(ctx, http.MethodGet, s.contentsURL(name), nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var entry contentEntry
		if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
			return "", fmt.Errorf("failed to decode file metadata: %w", err)
		}
		return entry.SHA, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", apiError("lookup", resp)
	}
}

func (s *GitHubStore) filePath(name string) string {
	if name == "" {
		return s.Dir
	}
	if s.Dir == "" {
		return path.Base(name)
	}
	return s.Dir + "/" + path.Base(name)
}

func (s *GitHubStore) contentsURL(name string) string {
	segments := strings.Split(s.filePath(name), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		s.BaseURL, url.PathEscape(s.Owner), url.PathEscape(s.Repo), strings.Join(segments, "/"), url.QueryEscape(s.Branch))
}

// do executes a request with retry on transport errors and gateway failures.
func (s *GitHubStore) do(ctx context.Context, method, endpoint string, body []byte, accept string) (*http.Response, error) {
	if accept == "" {
		accept = "application/vnd.github+json"
	}

	var lastErr error
	for attempt := 0; attempt <= s.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * s.RetryWait):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, fmt.Errorf("request creation failed: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.Token)
		req.Header.Set("Accept", accept)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.Client.Do(req)
		if err != nil {
			lastErr = err
			s.log.Warn("GitHub request failed", logger.String("method", method), logger.Int("attempt", attempt+1), logger.Error(err))
			continue
		}

		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			if attempt < s.RetryCount {
				resp.Body.Close()
				lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
				continue
			}
		}
		return resp, nil
	}
	return nil, fmt.Errorf("github %s %s: %w", method, endpoint, lastErr)
}

func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var msg struct {
		Message string `json:"message"`
	}
	detail := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &msg) == nil && msg.Message != "" {
		detail = msg.Message
	}
	return fmt.Errorf("github %s failed: HTTP %d: %s", op, resp.StatusCode, detail)
}
