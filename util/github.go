package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v72/github"
	"golang.org/x/oauth2"

	"licence-sync/types"
)

type GitHub struct {
	client *github.Client
}

// NewGitHubClient returns a go-github client that sends token as a bearer
// credential on every request and gives up after timeout.
func NewGitHubClient(ctx context.Context, token, apiURL string, timeout time.Duration) (*github.Client, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token, TokenType: "Bearer"},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = timeout

	client := github.NewClient(tc)
	if apiURL != "" {
		baseURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		client.BaseURL = baseURL
	}
	return client, nil
}

func NewGitHub(client *github.Client) *GitHub {
	return &GitHub{client: client}
}

// ListRepositories returns the organisation's repositories in the order the
// API lists them. Only the first page is requested.
func (g *GitHub) ListRepositories(ctx context.Context, org string, perPage int) ([]types.Repo, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	repos, _, err := g.client.Repositories.ListByOrg(ctx, org, opts)
	if err != nil {
		return nil, classify(fmt.Sprintf("list repositories of %s", org), err)
	}

	result := make([]types.Repo, 0, len(repos))
	for _, r := range repos {
		result = append(result, types.Repo{
			Name:     r.GetName(),
			Archived: r.GetArchived(),
		})
	}
	return result, nil
}

// FetchFile returns the file at path, or nil when the repository has no such file.
func (g *GitHub) FetchFile(ctx context.Context, org, repo, path string) (*types.FileRecord, error) {
	operation := fmt.Sprintf("get %s/%s/%s", org, repo, path)

	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, org, repo, path, &github.RepositoryContentGetOptions{})
	if err != nil {
		classified := classify(operation, err)
		if IsNotFound(classified) {
			return nil, nil
		}
		return nil, classified
	}
	if fileContent == nil {
		return nil, &APIError{Operation: operation, StatusCode: http.StatusOK, Message: "path is a directory, not a file"}
	}

	var encoded string
	if fileContent.Content != nil {
		encoded = *fileContent.Content
	}

	return &types.FileRecord{
		Path:     fileContent.GetPath(),
		Content:  encoded,
		Encoding: fileContent.GetEncoding(),
		Sha:      fileContent.GetSHA(),
	}, nil
}

// PutFile creates the file when req.Sha is empty and updates it otherwise.
// It returns the sha of the written content.
func (g *GitHub) PutFile(ctx context.Context, org, repo string, req types.WriteRequest) (string, error) {
	operation := fmt.Sprintf("put %s/%s/%s", org, repo, req.Path)

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(req.Message),
		Content: req.Content,
	}

	var (
		response *github.RepositoryContentResponse
		err      error
	)
	if req.Sha == "" {
		response, _, err = g.client.Repositories.CreateFile(ctx, org, repo, req.Path, opts)
	} else {
		opts.SHA = github.Ptr(req.Sha)
		response, _, err = g.client.Repositories.UpdateFile(ctx, org, repo, req.Path, opts)
	}
	if err != nil {
		return "", classifyWrite(operation, req.Path, err)
	}

	if response == nil || response.Content == nil {
		return "", nil
	}
	return response.Content.GetSHA(), nil
}

func (g *GitHub) DeleteFile(ctx context.Context, org, repo, path, sha, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		SHA:     github.Ptr(sha),
	}
	_, _, err := g.client.Repositories.DeleteFile(ctx, org, repo, path, opts)
	if err != nil {
		return classifyWrite(fmt.Sprintf("delete %s/%s/%s", org, repo, path), path, err)
	}
	return nil
}

func (g *GitHub) TriggerWorkflow(ctx context.Context, org, repo, workflowID, ref string) error {
	event := github.CreateWorkflowDispatchEventRequest{Ref: ref}
	_, err := g.client.Actions.CreateWorkflowDispatchEventByFileName(ctx, org, repo, workflowID, event)
	if err != nil {
		return classify(fmt.Sprintf("dispatch %s on %s/%s", workflowID, org, repo), err)
	}
	return nil
}

// DecodeContent returns the raw bytes of a fetched file.
func DecodeContent(record *types.FileRecord) ([]byte, error) {
	if record == nil {
		return nil, nil
	}

	content := &github.RepositoryContent{
		Path:     github.Ptr(record.Path),
		Encoding: github.Ptr(record.Encoding),
		Content:  github.Ptr(record.Content),
	}
	decoded, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", record.Path, err)
	}
	return []byte(decoded), nil
}
