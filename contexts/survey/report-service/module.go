package reportservice

import (
	"log/slog"

	httpadapter "pollsmith/contexts/survey/report-service/adapters/http"
	"pollsmith/contexts/survey/report-service/adapters/memory"
	"pollsmith/contexts/survey/report-service/application/commands"
	"pollsmith/contexts/survey/report-service/application/queries"
	"pollsmith/contexts/survey/report-service/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Aggregates commands.AggregateUseCase
	Store      *memory.Store
}

type Dependencies struct {
	Reports ports.ReportRepository
	Status  ports.VoterStatusWriter
	Clock   ports.Clock
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	aggregateUseCase := commands.AggregateUseCase{
		Reports: deps.Reports,
		Status:  deps.Status,
		Clock:   deps.Clock,
		Logger:  deps.Logger,
	}
	queryUseCase := queries.ReportQueryUseCase{
		Reports: deps.Reports,
	}
	return Module{
		Handler: httpadapter.Handler{
			Aggregates: aggregateUseCase,
			Queries:    queryUseCase,
			Logger:     deps.Logger,
		},
		Aggregates: aggregateUseCase,
	}
}

func NewInMemoryModule(status ports.VoterStatusWriter, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Reports: store,
		Status:  status,
		Clock:   store,
		Logger:  logger,
	})
	module.Store = store
	return module
}
