package votingservice

import (
	"log/slog"

	httpadapter "pollsmith/contexts/survey/voting-service/adapters/http"
	"pollsmith/contexts/survey/voting-service/adapters/memory"
	"pollsmith/contexts/survey/voting-service/application/commands"
	"pollsmith/contexts/survey/voting-service/application/queries"
	"pollsmith/contexts/survey/voting-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Drafts  commands.DraftUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Drafts ports.DraftRepository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	draftUseCase := commands.DraftUseCase{
		Drafts: deps.Drafts,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	queryUseCase := queries.DraftQueryUseCase{
		Drafts: deps.Drafts,
	}
	return Module{
		Handler: httpadapter.Handler{
			Drafts:  draftUseCase,
			Queries: queryUseCase,
			Logger:  deps.Logger,
		},
		Drafts: draftUseCase,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Drafts: store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
