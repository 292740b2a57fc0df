package server

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/victorvelazquez/dev-orchestrator/internals/agents"
	"github.com/victorvelazquez/dev-orchestrator/internals/assert"
	"github.com/victorvelazquez/dev-orchestrator/internals/executor"
	"github.com/victorvelazquez/dev-orchestrator/internals/logbuf"
	"github.com/victorvelazquez/dev-orchestrator/internals/orchestrator"
	"github.com/victorvelazquez/dev-orchestrator/internals/remote"
	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
	"github.com/victorvelazquez/dev-orchestrator/internals/taskstore"
	"github.com/victorvelazquez/dev-orchestrator/internals/workers"
	"github.com/victorvelazquez/dev-orchestrator/internals/workspace"
	"github.com/victorvelazquez/dev-orchestrator/orchd/core"
	"github.com/victorvelazquez/dev-orchestrator/sdk"
)

// Controller is the slice of the orchestrator the HTTP layer consumes.
type Controller interface {
	HandleEvent(ctx context.Context, req schemas.EventRequest) (*schemas.Decision, error)
	Approve(ctx context.Context, taskID string) (*schemas.Decision, error)
	GetTask(ctx context.Context, taskID string) (*schemas.Task, error)
	ListTasks(ctx context.Context, userID int64) ([]schemas.TaskSummary, error)
	Abort(ctx context.Context, userID int64) (*schemas.Decision, error)
}

type Server struct {
	Base       *core.BaseServer
	Logbuf     *logbuf.Logger
	Controller Controller

	store      *taskstore.Store
	pool       *workers.Pool
	httpServer *http.Server
	runner     *agents.GeminiRunner
}

func New() *Server {
	base := core.New()
	buffer := logbuf.New(
		slog.String("version", base.Config.Version),
		slog.Int("port", base.Env.PORT),
	)

	storePath := filepath.Join(base.Config.Server.DataDir, "tasks", "tasks.db")
	err := os.MkdirAll(filepath.Dir(storePath), 0o755)
	assert.AssertNil(err, "[SERVER] Failed to create data directory")
	store, err := taskstore.Open(storePath)
	assert.AssertNil(err, "[SERVER] Failed to initialize task store")

	err = os.MkdirAll(base.Config.Workspace.Dir, 0o755)
	assert.AssertNil(err, "[SERVER] Failed to create workspace root")
	host := workspace.NewLocalHost(base.Config.Workspace.Dir)

	repos := remote.New(
		base.Env.GITHUB_TOKEN,
		base.Config.Workspace.Dir,
		base.Config.Git.ProtectedBranches,
		base.Config.Git.DefaultBaseBranch,
	)

	classifier := agents.NewAnthropicClassifier(base.Env.ANTHROPIC_API_KEY, base.Config.Agents.ClassifierModel, base.Logger)
	planner := agents.NewAnthropicPlanner(base.Env.ANTHROPIC_API_KEY, base.Config.Agents.PlannerModel, base.Logger)
	runner, err := agents.NewGeminiRunner(context.Background(), base.Env.GOOGLE_AI_API_KEY, base.Config.Agents.ExecutorModel)
	assert.AssertNil(err, "[SERVER] Failed to initialize step runner")

	exec := executor.New(runner, host, repos, base.Config.StepTimeoutDuration(), base.Logger)
	controller := orchestrator.New(store, classifier, planner, exec, base.Config, base.Logger)

	return &Server{
		Base:       base,
		Logbuf:     buffer,
		Controller: controller,
		store:      store,
		pool:       workers.NewPool(base.Config.Tasks.WorkerLimit),
		runner:     runner,
	}
}

func (s *Server) SafeStart() error {
	if sdk.IsRunning(s.Base.Env.BASE_URL) {
		return nil
	}

	go func() {
		s.Base.Logger.Info("starting server")
		err := s.Start()
		if err != nil {
			log.Fatal("[Orchestrator] Failed to start server: " + err.Error())
		}
	}()

	if sdk.WaitForStart(s.Base.Env.BASE_URL, s.Base.Logger) {
		return nil
	}

	return errors.New("Couldn't start server")
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Base.Env.LISTEN_ADDR)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler: s.Router(),
	}
	s.httpServer = server
	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	if s.httpServer != nil {
		shutdownErr = s.httpServer.Shutdown(ctx)
	}
	if s.runner != nil {
		_ = s.runner.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	s.Base.Close()
	return shutdownErr
}
