package noop

import (
	"context"

	"github.com/davicafu/todolab/internal/activity/domain"
)

// EventSink descarta los eventos. Se usa cuando no hay ClickHouse configurado;
// el consumidor sigue dejando cada evento en el log.
type EventSink struct{}

func (EventSink) Record(context.Context, []domain.ActivityEvent) error { return nil }

var _ domain.EventSink = EventSink{}
