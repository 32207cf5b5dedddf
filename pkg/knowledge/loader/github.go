package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"portfolio-assistant-be/pkg/knowledge"
)

// GitHubLoader feeds the dynamic partition with the owner's most recently
// updated public repositories.
type GitHubLoader struct {
	Username string
	Token    string
	BaseURL  string
	Client   *http.Client
}

func NewGitHubLoader(username, token string) *GitHubLoader {
	return &GitHubLoader{
		Username: username,
		Token:    token,
		BaseURL:  "https://api.github.com",
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (l *GitHubLoader) Name() string { return "dynamic" }

type githubRepo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	UpdatedAt    string `json:"updated_at"`
	HTMLURL      string `json:"html_url"`
	LanguagesURL string `json:"languages_url"`
}

func (l *GitHubLoader) Load(ctx context.Context) ([]knowledge.Document, error) {
	if l.Username == "" {
		return nil, nil
	}

	url := fmt.Sprintf("%s/users/%s/repos?sort=updated&per_page=5", l.BaseURL, l.Username)
	var repos []githubRepo
	if err := l.getJSON(ctx, url, &repos); err != nil {
		return nil, fmt.Errorf("fetch github repos: %w", err)
	}

	docs := make([]knowledge.Document, 0, len(repos))
	for _, repo := range repos {
		description := repo.Description
		if description == "" {
			description = "No description"
		}
		content := fmt.Sprintf("Project: %s (Updated: %s)\nDescription: %s", repo.Name, repo.UpdatedAt, description)
		if languages := l.repoLanguages(ctx, repo.LanguagesURL); len(languages) > 0 {
			content += "\nLanguages: " + strings.Join(languages, ", ")
		}
		docs = append(docs, knowledge.Document{
			Content: content,
			Metadata: knowledge.Metadata{
				"type":   "project",
				"source": "github",
				"title":  repo.Name,
				"url":    repo.HTMLURL,
			},
		})
	}
	return docs, nil
}

// repoLanguages is best-effort; a failed lookup just omits the line.
func (l *GitHubLoader) repoLanguages(ctx context.Context, languagesURL string) []string {
	if languagesURL == "" {
		return nil
	}
	languageBytes := map[string]int64{}
	if err := l.getJSON(ctx, languagesURL, &languageBytes); err != nil {
		return nil
	}
	languages := make([]string, 0, len(languageBytes))
	for language := range languageBytes {
		languages = append(languages, language)
	}
	sort.Strings(languages)
	return languages
}

func (l *GitHubLoader) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	if l.Token != "" {
		req.Header.Set("Authorization", "token "+l.Token)
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
