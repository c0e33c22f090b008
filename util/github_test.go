package util_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"licence-sync/types"
	"licence-sync/util"
)

const (
	testOrganisation = "acme"
	testRepository   = "alpha"
	testToken        = "secret-token"
)

func newTestGitHub(t *testing.T, handler http.Handler) *util.GitHub {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := util.NewGitHubClient(context.Background(), testToken, server.URL, 5*time.Second)
	require.NoError(t, err)
	return util.NewGitHub(client)
}

func TestListRepositoriesSendsBearerToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		require.Equal(t, "100", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`[{"id":1,"name":"alpha"},{"id":2,"name":"beta","archived":true}]`))
	})

	repos, err := newTestGitHub(t, mux).ListRepositories(context.Background(), testOrganisation, 100)
	require.NoError(t, err)
	require.Equal(t, []types.Repo{
		{Name: "alpha"},
		{Name: "beta", Archived: true},
	}, repos)
}

func TestListRepositoriesForbidden(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Must have admin rights"}`))
	})

	_, err := newTestGitHub(t, mux).ListRepositories(context.Background(), testOrganisation, 100)
	var apiErr *util.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Equal(t, "Must have admin rights", apiErr.Message)
}

func TestFetchFile(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("Apache License"))

	testCases := []struct {
		name      string
		status    int
		body      string
		expectNil bool
		expectErr bool
	}{
		{
			name:   "present",
			status: http.StatusOK,
			body:   `{"type":"file","path":"LICENCE","encoding":"base64","sha":"abc123","content":"` + encoded + `"}`,
		},
		{
			name:      "not_found_is_absent",
			status:    http.StatusNotFound,
			body:      `{"message":"Not Found"}`,
			expectNil: true,
		},
		{
			name:      "server_error",
			status:    http.StatusInternalServerError,
			body:      `{"message":"boom"}`,
			expectErr: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/repos/acme/alpha/contents/LICENCE", func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(testCase.status)
				_, _ = w.Write([]byte(testCase.body))
			})

			record, err := newTestGitHub(t, mux).FetchFile(context.Background(), testOrganisation, testRepository, "LICENCE")
			if testCase.expectErr {
				var apiErr *util.APIError
				require.ErrorAs(t, err, &apiErr)
				require.Equal(t, testCase.status, apiErr.StatusCode)
				return
			}

			require.NoError(t, err)
			if testCase.expectNil {
				require.Nil(t, record)
				return
			}

			require.Equal(t, "abc123", record.Sha)
			require.Equal(t, "LICENCE", record.Path)
			decoded, err := util.DecodeContent(record)
			require.NoError(t, err)
			require.Equal(t, "Apache License", string(decoded))
		})
	}
}

func TestFetchFileOnDirectory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/alpha/contents/LICENCE", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"type":"file","path":"LICENCE/README","sha":"abc"}]`))
	})

	record, err := newTestGitHub(t, mux).FetchFile(context.Background(), testOrganisation, testRepository, "LICENCE")
	require.Nil(t, record)
	var apiErr *util.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Message, "directory")
}

type contentWrite struct {
	Message string `json:"message"`
	Content []byte `json:"content"`
	SHA     string `json:"sha"`
}

func TestPutFile(t *testing.T) {
	var received contentWrite
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/alpha/contents/LICENCE", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"content":{"path":"LICENCE","sha":"new-sha"}}`))
	})
	github := newTestGitHub(t, mux)

	sha, err := github.PutFile(context.Background(), testOrganisation, testRepository, types.WriteRequest{
		Path:    "LICENCE",
		Content: []byte("licence body"),
		Message: "Add Apache 2.0 licence",
	})
	require.NoError(t, err)
	require.Equal(t, "new-sha", sha)
	require.Equal(t, "Add Apache 2.0 licence", received.Message)
	require.Equal(t, "licence body", string(received.Content))
	require.Empty(t, received.SHA)

	_, err = github.PutFile(context.Background(), testOrganisation, testRepository, types.WriteRequest{
		Path:    "LICENCE",
		Content: []byte("licence body"),
		Message: "Update licence with current year and copyright owner",
		Sha:     "old-sha",
	})
	require.NoError(t, err)
	require.Equal(t, "old-sha", received.SHA)
}

func TestPutFileConflict(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "stale_sha", status: http.StatusConflict, body: `{"message":"LICENCE does not match abc"}`},
		{name: "missing_sha", status: http.StatusUnprocessableEntity, body: `{"message":"Invalid request.\n\n\"sha\" wasn't supplied."}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/repos/acme/alpha/contents/LICENCE", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(testCase.status)
				_, _ = w.Write([]byte(testCase.body))
			})

			_, err := newTestGitHub(t, mux).PutFile(context.Background(), testOrganisation, testRepository, types.WriteRequest{
				Path:    "LICENCE",
				Content: []byte("x"),
				Message: "m",
				Sha:     "abc",
			})
			var conflictErr *util.ConflictError
			require.ErrorAs(t, err, &conflictErr)
			require.Equal(t, testCase.status, conflictErr.StatusCode)
			require.Equal(t, "LICENCE", conflictErr.Path)
		})
	}
}

func TestDeleteFile(t *testing.T) {
	var received contentWrite
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/alpha/contents/LICENSE", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"content":null,"commit":{"sha":"c1"}}`))
	})

	err := newTestGitHub(t, mux).DeleteFile(context.Background(), testOrganisation, testRepository, "LICENSE", "license-sha", "Rename LICENSE to LICENCE")
	require.NoError(t, err)
	require.Equal(t, "license-sha", received.SHA)
	require.Equal(t, "Rename LICENSE to LICENCE", received.Message)
}

func TestDeleteFileConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/alpha/contents/LICENSE", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"LICENSE does not match license-sha"}`))
	})

	err := newTestGitHub(t, mux).DeleteFile(context.Background(), testOrganisation, testRepository, "LICENSE", "license-sha", "m")
	var conflictErr *util.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Equal(t, "LICENSE", conflictErr.Path)
}

func TestTriggerWorkflow(t *testing.T) {
	var ref string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/alpha/actions/workflows/release.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var payload struct {
			Ref string `json:"ref"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		ref = payload.Ref
		w.WriteHeader(http.StatusNoContent)
	})

	err := newTestGitHub(t, mux).TriggerWorkflow(context.Background(), testOrganisation, testRepository, "release.yml", "main")
	require.NoError(t, err)
	require.Equal(t, "main", ref)
}

func TestTriggerWorkflowMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/alpha/actions/workflows/release.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	err := newTestGitHub(t, mux).TriggerWorkflow(context.Background(), testOrganisation, testRepository, "release.yml", "main")
	require.True(t, util.IsNotFound(err))
}

func TestUnreachableHostIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := util.NewGitHubClient(context.Background(), testToken, server.URL, time.Second)
	require.NoError(t, err)

	_, err = util.NewGitHub(client).ListRepositories(context.Background(), testOrganisation, 100)
	var networkErr *util.NetworkError
	require.ErrorAs(t, err, &networkErr)
	require.False(t, errors.Is(err, context.Canceled))
}

func TestDecodeContent(t *testing.T) {
	wrapped := "QXBhY2hl\nIExpY2Vu\nc2U=\n"
	decoded, err := util.DecodeContent(&types.FileRecord{Path: "LICENSE", Content: wrapped, Encoding: "base64"})
	require.NoError(t, err)
	require.Equal(t, "Apache License", string(decoded))

	_, err = util.DecodeContent(&types.FileRecord{Path: "LICENSE", Encoding: "none"})
	require.ErrorContains(t, err, "unsupported content encoding")

	plain, err := util.DecodeContent(&types.FileRecord{Path: "LICENSE", Content: "Apache License"})
	require.NoError(t, err)
	require.Equal(t, "Apache License", string(plain))
}
