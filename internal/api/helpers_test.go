package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/npezzotti/studyroom/internal/config"
	"github.com/npezzotti/studyroom/internal/llm"
	"github.com/npezzotti/studyroom/internal/server"
	"github.com/npezzotti/studyroom/internal/stats"
	"github.com/npezzotti/studyroom/internal/testutil"
	"github.com/npezzotti/studyroom/internal/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

type MockRoomDirectory struct {
	mock.Mock
}

func (m *MockRoomDirectory) ListRooms(ctx context.Context) ([]types.RoomSummary, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]types.RoomSummary)
	return items, args.Error(1)
}

func (m *MockRoomDirectory) CreateRoom(ctx context.Context, params server.CreateRoomParams) (types.RoomMetadata, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(types.RoomMetadata), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		ServerAddr:     "localhost:4000",
		AllowedOrigins: []string{"http://localhost:3000"},
		OpenAIModel:    llm.DefaultModel,
		LLMTimeout:     time.Second,
	}
}

// newRunningChatServer starts a chat server that is shut down with the test.
func newRunningChatServer(t *testing.T) *server.ChatServer {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return()
	su.On("Incr", mock.Anything).Return().Maybe()
	su.On("Decr", mock.Anything).Return().Maybe()

	cs, err := server.NewChatServer(testutil.TestLogger(t), server.NewRegistry(), su)
	require.NoError(t, err)
	go cs.Run()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		cs.Shutdown(ctx)
	})
	return cs
}

// newTestApp wires the app on a fresh mux and returns its full handler chain.
func newTestApp(t *testing.T, cs *server.ChatServer, completer ChatCompleter) (*StudyRoomApp, http.Handler) {
	app := NewStudyRoomApp(http.NewServeMux(), testutil.TestLogger(t), cs, completer, testConfig())
	return app, app.mux.Handler
}
