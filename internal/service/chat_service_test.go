package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buildingassets/buildingchat/internal/ai"
	"github.com/buildingassets/buildingchat/internal/invoke"
	"github.com/buildingassets/buildingchat/internal/model"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
	"github.com/buildingassets/buildingchat/internal/usage"
)

func newChatFixture(classifyChat, generateChat *fakeChat, buildings *fakeBuildings, store *fakeStore) *ChatService {
	return newChatFixtureWithFiles(classifyChat, generateChat, buildings, store, newFakeFiles(), invoke.NewInvoker())
}

func newChatFixtureWithFiles(classifyChat, generateChat *fakeChat, buildings *fakeBuildings, store *fakeStore, files *fakeFiles, invoker *invoke.Invoker) *ChatService {
	resolver := NewResolver(buildings, &fakeOrgs{}, store, NewEmbedder(&fakeEmbed{}, "text-embedding-3-small", 32))
	return NewChatService(
		NewClassifier(classifyChat, "gpt-4o-mini"),
		resolver,
		NewGenerator(generateChat, "gpt-4o-mini"),
		buildings,
		files,
		invoker,
		usage.NewMonitor(1, 10),
	)
}

func harborview() *fakeBuildings {
	return &fakeBuildings{
		building: &model.Building{ID: 7, OrgID: 3, Name: "Harborview Tower"},
		readings: []model.EnergyReading{
			{StartDate: "2026-08-01", UsageQuantity: sql.NullFloat64{Float64: 1200, Valid: true}, UsageUnits: sql.NullString{String: "kWh", Valid: true}},
		},
	}
}

func TestChat_EnergyTrendScenario(t *testing.T) {
	classify := &fakeChat{replies: []ai.ChatResult{{
		Content: `{"context_type": "building_context", "confidence": 0.92, "reason": "asks about energy"}`,
		Usage:   ai.Usage{PromptTokens: 100, CompletionTokens: 30, TotalTokens: 130},
	}}}
	generate := &fakeChat{replies: []ai.ChatResult{{
		Content: "My usage in August 2026 was 1200 kWh, trending down.",
		Usage:   ai.Usage{PromptTokens: 800, CompletionTokens: 120, TotalTokens: 920},
	}}}
	svc := newChatFixture(classify, generate, harborview(), &fakeStore{})

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{
		Message:    "What's my energy usage trend?",
		OrgID:      3,
		BuildingID: 7,
	})
	require.NoError(t, err)
	require.Contains(t, resp.Response, "1200 kWh")
	require.Equal(t, model.ContextBuilding, resp.Metadata.ContextType)
	require.InDelta(t, 0.92, resp.Metadata.Confidence, 1e-9)
	require.True(t, resp.Metadata.ContextUsed)
	require.Equal(t, "gpt-4o-mini", resp.Metadata.ModelUsed)
	require.Equal(t, 130+920, resp.Metadata.TokensUsed)
	require.Greater(t, resp.Metadata.CostSummary["total_cost"], 0.0)
	require.NotEmpty(t, resp.RequestID)

	// generation prompt carries the building's readings
	genMsgs := generate.calls[0]
	require.Equal(t, model.RoleSystem, genMsgs[0].Role)
	require.Contains(t, genMsgs[0].Content, "2026-08-01: 1200 kWh")
	require.Equal(t, "What's my energy usage trend?", genMsgs[len(genMsgs)-1].Content)
}

func TestChat_FileContextWithoutIDsStillAnswers(t *testing.T) {
	classify := &fakeChat{replies: []ai.ChatResult{{
		Content: `{"context_type": "file_context", "confidence": 0.8, "reason": "mentions a file"}`,
	}}}
	generate := &fakeChat{replies: []ai.ChatResult{{
		Content: "I don't have that file yet, but here is what I can do.",
		Usage:   ai.Usage{TotalTokens: 50},
	}}}
	svc := newChatFixture(classify, generate, harborview(), &fakeStore{})

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{
		Message:    "what does the uploaded report say",
		OrgID:      3,
		BuildingID: 7,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Response)
	require.False(t, resp.Metadata.ContextUsed)
	// no file ids means the file strategy degrades, never crashes
	require.Contains(t, generate.calls[0][0].Content, "No file content available")
}

func TestChat_GenerationFailureIsFatal(t *testing.T) {
	classify := &fakeChat{replies: []ai.ChatResult{{
		Content: `{"context_type": "general", "confidence": 0.9, "reason": "greeting"}`,
	}}}
	generate := &fakeChat{errs: []error{errors.New("completion backend down")}}
	svc := newChatFixture(classify, generate, harborview(), &fakeStore{})

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{
		Message: "hello",
		OrgID:   3,
	})
	require.ErrorIs(t, err, appErr.ErrGeneration)
	require.NotNil(t, resp)
	require.Contains(t, resp.Response, "I apologize")
	require.NotNil(t, resp.Metadata.CostSummary)
	require.NotEmpty(t, resp.RequestID)
}

func TestChat_IngestionTriggerSkipsProcessedFiles(t *testing.T) {
	classify := &fakeChat{replies: []ai.ChatResult{{
		Content: `{"context_type": "file_context", "confidence": 0.9, "reason": "file question", "requires_file_processing": true}`,
	}}}
	generate := &fakeChat{replies: []ai.ChatResult{{Content: "summary"}}}
	files := newFakeFiles(
		&model.Document{ID: 41, OrgID: 3, BuildingID: 7, FileName: "done.txt", Status: model.DocumentStatusProcessed},
		&model.Document{ID: 42, OrgID: 3, BuildingID: 7, FileName: "failed.txt", Status: model.DocumentStatusError},
	)
	invoker := invoke.NewInvoker()
	invoked := make(chan int64, 4)
	invoker.Register(IngestTarget, func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var ing IngestRequest
		if err := json.Unmarshal(payload, &ing); err != nil {
			return nil, err
		}
		invoked <- ing.FileID
		return json.Marshal(&model.IngestStats{})
	})
	svc := newChatFixtureWithFiles(classify, generate, harborview(), &fakeStore{}, files, invoker)

	_, err := svc.Chat(context.Background(), &model.ChatRequest{
		Message:    "summarize this file",
		OrgID:      3,
		BuildingID: 7,
		FileIDs:    []int64{41, 42},
	})
	require.NoError(t, err)

	select {
	case id := <-invoked:
		require.EqualValues(t, 42, id)
	case <-time.After(time.Second):
		t.Fatal("expected ingestion for the failed file")
	}
	// the processed file must never be re-embedded
	select {
	case id := <-invoked:
		t.Fatalf("unexpected ingestion for file %d", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChat_RepeatedTurnsNeverReingestProcessedFile(t *testing.T) {
	files := newFakeFiles(
		&model.Document{ID: 9, OrgID: 3, BuildingID: 7, FileName: "report.txt", Status: model.DocumentStatusProcessed},
	)
	invoker := invoke.NewInvoker()
	var invocations atomic.Int64
	invoker.Register(IngestTarget, func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		invocations.Add(1)
		return json.Marshal(&model.IngestStats{})
	})
	// classifier outage: every turn takes the keyword fallback, which
	// flags file work for messages like this one
	classify := &fakeChat{errs: []error{errors.New("down"), errors.New("down"), errors.New("down")}}
	generate := &fakeChat{}
	svc := newChatFixtureWithFiles(classify, generate, harborview(), &fakeStore{}, files, invoker)

	for i := 0; i < 3; i++ {
		_, err := svc.Chat(context.Background(), &model.ChatRequest{
			Message:    "summarize this file",
			OrgID:      3,
			BuildingID: 7,
			FileIDs:    []int64{9},
		})
		require.NoError(t, err)
	}
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 0, invocations.Load())
}

func TestChat_UsesFallbackPromptWhenAssemblyEmpty(t *testing.T) {
	orig := buildPrompt
	buildPrompt = func(string, model.ContextBundle, []model.ChatMessage) model.PromptSpec {
		return model.PromptSpec{}
	}
	defer func() { buildPrompt = orig }()

	classify := &fakeChat{replies: []ai.ChatResult{{
		Content: `{"context_type": "general", "confidence": 0.9, "reason": "greeting"}`,
	}}}
	generate := &fakeChat{replies: []ai.ChatResult{{Content: "hello there"}}}
	svc := newChatFixture(classify, generate, harborview(), &fakeStore{})

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{
		Message:    "hello",
		OrgID:      3,
		BuildingID: 7,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Response)
	sys := generate.calls[0][0].Content
	require.Contains(t, sys, "technical difficulties accessing my detailed data")
	require.Contains(t, sys, "Harborview Tower")
}

func TestChat_ClassifierOutageStillAnswers(t *testing.T) {
	classify := &fakeChat{errs: []error{errors.New("classifier timeout")}}
	generate := &fakeChat{replies: []ai.ChatResult{{
		Content: "Here is my building data.",
		Usage:   ai.Usage{TotalTokens: 40},
	}}}
	svc := newChatFixture(classify, generate, harborview(), &fakeStore{})

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{
		Message:    "tell me about my building energy bills",
		OrgID:      3,
		BuildingID: 7,
	})
	require.NoError(t, err)
	require.Equal(t, model.ContextBuilding, resp.Metadata.ContextType)
	require.Contains(t, resp.Metadata.Reason, "Fallback")
}
