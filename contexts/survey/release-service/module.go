package releaseservice

import (
	"log/slog"

	httpadapter "pollsmith/contexts/survey/release-service/adapters/http"
	"pollsmith/contexts/survey/release-service/adapters/memory"
	"pollsmith/contexts/survey/release-service/application/commands"
	"pollsmith/contexts/survey/release-service/application/queries"
	"pollsmith/contexts/survey/release-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Snapshots ports.SnapshotRepository
	Polls     ports.PollSource
	Clock     ports.Clock
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	snapshotUseCase := commands.SnapshotUseCase{
		Snapshots: deps.Snapshots,
		Polls:     deps.Polls,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	queryUseCase := queries.SnapshotQueryUseCase{
		Snapshots: deps.Snapshots,
	}
	return Module{
		Handler: httpadapter.Handler{
			Snapshots: snapshotUseCase,
			Queries:   queryUseCase,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Snapshots: store,
		Polls:     store,
		Clock:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
