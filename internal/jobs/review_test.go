package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	ghapi "github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/codecritic/codecritic/internal/config"
	gh "github.com/codecritic/codecritic/internal/github"
	"github.com/codecritic/codecritic/internal/llm"
	"github.com/codecritic/codecritic/internal/review"
	"github.com/codecritic/codecritic/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
		GitHub: config.GitHubConfig{
			Token:    "ghp_test",
			Owner:    "acme",
			Repo:     "widgets",
			PRNumber: 1,
			BotLogin: config.DefaultBotLogin,
		},
		OpenAI: config.OpenAIConfig{
			APIKey:      "sk-test",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.5,
			MaxTokens:   2048,
		},
		Files: []string{"*.ts"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPromptBuilder(t *testing.T) *review.PromptBuilder {
	t.Helper()
	pm, err := llm.NewPromptManager()
	require.NoError(t, err)
	return review.NewPromptBuilder(pm, nil)
}

func TestReviewJob_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	ghClient := mocks.NewMockClient(ctrl)
	llmClient := mocks.NewMockLLMClient(ctrl)
	cfg := testConfig()

	pr := &ghapi.PullRequest{Title: ghapi.Ptr("add app")}
	ghClient.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 1).Return(pr, nil)
	ghClient.EXPECT().ListCommits(gomock.Any(), "acme", "widgets", 1).Return([]string{"c1"}, nil)
	ghClient.EXPECT().GetCommitFiles(gomock.Any(), "acme", "widgets", "c1").Return([]gh.CommitFile{
		{Filename: "app.ts", Status: "added", Patch: "@@ -0,0 +1,10 @@"},
	}, nil)
	ghClient.EXPECT().GetFileContent(gomock.Any(), "acme", "widgets", "app.ts", "c1").Return("const x = 1;", nil)

	llmClient.EXPECT().ChatCompletion(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req llm.ChatRequest) (string, error) {
			assert.Equal(t, "gpt-3.5-turbo", req.Model)
			assert.Equal(t, 0.5, req.Temperature)
			assert.Equal(t, 2048, req.MaxTokens)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "user", req.Messages[0].Role)
			assert.Contains(t, req.Messages[0].Content, "TypeScript code")
			assert.Contains(t, req.Messages[0].Content, "const x = 1;")
			return "consider a const assertion", nil
		})

	ghClient.EXPECT().CreateReview(gomock.Any(), "acme", "widgets", 1, "**ChatGPT code review**", gomock.Any()).DoAndReturn(
		func(_ context.Context, _, _ string, _ int, _ string, comments []gh.DraftReviewComment) error {
			require.Len(t, comments, 1)
			assert.Equal(t, "app.ts", comments[0].Path)
			assert.Equal(t, 1, comments[0].Line)
			assert.True(t, strings.HasPrefix(comments[0].Body, "*ChatGPT review for app.ts:*\n"))
			assert.Contains(t, comments[0].Body, "consider a const assertion")
			return nil
		})

	job := NewReviewJob(cfg, ghClient, llmClient, testPromptBuilder(t), testLogger())
	require.NoError(t, job.Run(context.Background()))
}

func TestReviewJob_SkipsEmptyContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	ghClient := mocks.NewMockClient(ctrl)
	llmClient := mocks.NewMockLLMClient(ctrl)
	cfg := testConfig()

	ghClient.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 1).Return(&ghapi.PullRequest{}, nil)
	ghClient.EXPECT().ListCommits(gomock.Any(), "acme", "widgets", 1).Return([]string{"c1"}, nil)
	ghClient.EXPECT().GetCommitFiles(gomock.Any(), "acme", "widgets", "c1").Return([]gh.CommitFile{
		{Filename: "empty.ts", Status: "added", Patch: "@@ -0,0 +1,0 @@"},
	}, nil)
	ghClient.EXPECT().GetFileContent(gomock.Any(), "acme", "widgets", "empty.ts", "c1").Return("", nil)

	// No completion call and no review for an empty file.

	job := NewReviewJob(cfg, ghClient, llmClient, testPromptBuilder(t), testLogger())
	require.NoError(t, job.Run(context.Background()))
}

func TestReviewJob_NoMatchingFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	ghClient := mocks.NewMockClient(ctrl)
	llmClient := mocks.NewMockLLMClient(ctrl)
	cfg := testConfig()

	ghClient.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 1).Return(&ghapi.PullRequest{}, nil)
	ghClient.EXPECT().ListCommits(gomock.Any(), "acme", "widgets", 1).Return([]string{"c1"}, nil)
	ghClient.EXPECT().GetCommitFiles(gomock.Any(), "acme", "widgets", "c1").Return([]gh.CommitFile{
		{Filename: "readme.md", Status: "modified", Patch: "@@ -1,2 +1,2 @@"},
	}, nil)

	job := NewReviewJob(cfg, ghClient, llmClient, testPromptBuilder(t), testLogger())
	require.NoError(t, job.Run(context.Background()))
}

func TestReviewJob_CompletionErrorAbortsRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	ghClient := mocks.NewMockClient(ctrl)
	llmClient := mocks.NewMockLLMClient(ctrl)
	cfg := testConfig()

	ghClient.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 1).Return(&ghapi.PullRequest{}, nil)
	ghClient.EXPECT().ListCommits(gomock.Any(), "acme", "widgets", 1).Return([]string{"c1"}, nil)
	ghClient.EXPECT().GetCommitFiles(gomock.Any(), "acme", "widgets", "c1").Return([]gh.CommitFile{
		{Filename: "app.ts", Status: "added", Patch: "@@ -0,0 +1,10 @@"},
	}, nil)
	ghClient.EXPECT().GetFileContent(gomock.Any(), "acme", "widgets", "app.ts", "c1").Return("const x = 1;", nil)

	llmClient.EXPECT().ChatCompletion(gomock.Any(), gomock.Any()).Return("", errors.New("model overloaded"))

	job := NewReviewJob(cfg, ghClient, llmClient, testPromptBuilder(t), testLogger())
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.ts")
}
