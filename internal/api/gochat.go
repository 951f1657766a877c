package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/studyroom/internal/config"
	"github.com/npezzotti/studyroom/internal/llm"
	"github.com/npezzotti/studyroom/internal/server"
	"github.com/npezzotti/studyroom/internal/types"
	"github.com/rs/zerolog"
)

// RoomDirectory lists and creates rooms.
type RoomDirectory interface {
	ListRooms(ctx context.Context) ([]types.RoomSummary, error)
	CreateRoom(ctx context.Context, params server.CreateRoomParams) (types.RoomMetadata, error)
}

// ChatCompleter answers a conversation with a single reply.
type ChatCompleter interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

type StudyRoomApp struct {
	log            zerolog.Logger
	mux            *http.Server
	cs             *server.ChatServer
	rooms          RoomDirectory
	llm            ChatCompleter
	allowedOrigins []string
}

func NewStudyRoomApp(mux *http.ServeMux, logger zerolog.Logger, cs *server.ChatServer, completer ChatCompleter, cfg *config.Config) *StudyRoomApp {
	s := &StudyRoomApp{
		log:            logger,
		cs:             cs,
		llm:            completer,
		allowedOrigins: cfg.AllowedOrigins,
	}
	if cs != nil {
		s.rooms = cs
	}

	mux.HandleFunc("GET /health", s.healthCheck)
	mux.HandleFunc("GET /api/rooms", s.listRooms)
	mux.HandleFunc("POST /api/rooms", s.createRoom)
	mux.HandleFunc("POST /api/llm/chat", s.llmChat)
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mux = srv
	return s
}

func (s *StudyRoomApp) Start() error {
	s.log.Info().Str("addr", s.mux.Addr).Msg("starting server")
	return s.mux.ListenAndServe()
}

func (s *StudyRoomApp) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
