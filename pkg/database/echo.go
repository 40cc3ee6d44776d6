package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

// echoHook logs every statement bun executes at info level.
type echoHook struct {
	logger logrus.FieldLogger
}

var _ bun.QueryHook = (*echoHook)(nil)

func newEchoHook(logger logrus.FieldLogger) *echoHook {
	return &echoHook{logger: logger.WithField("component", "sql")}
}

func (h *echoHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *echoHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	entry := h.logger.WithFields(logrus.Fields{
		"operation": event.Operation(),
		"duration":  time.Since(event.StartTime).String(),
	})

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		entry.WithError(event.Err).Warn(event.Query)
		return
	}
	entry.Info(event.Query)
}
