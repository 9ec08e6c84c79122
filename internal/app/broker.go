package app

import (
	"log/slog"

	"github.com/scieloorg/articlemeta/internal/config"
	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/normalizer"
	"github.com/scieloorg/articlemeta/internal/service/broker"
	"github.com/scieloorg/articlemeta/internal/service/history"
)

// NewBroker wires a broker over store with the configured listing defaults.
func NewBroker(log *slog.Logger, store docstore.Store, cfg config.BrokerConfig) *broker.Service {
	recorder := history.NewRecorder(log, store,
		history.WithDefaultFrom(cfg.HistoryFrom),
		history.WithPageLimit(cfg.PageLimit),
	)
	return broker.NewService(log, store, normalizer.New(), recorder, broker.Config{
		PageLimit:       cfg.PageLimit,
		IdentifiersFrom: cfg.IdentifiersFrom,
	})
}
