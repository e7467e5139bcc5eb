package application

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler es un comando o consulta de la capa de aplicación.
type Handler[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Middleware envuelve un Handler. Recibe el nombre del caso de uso para los logs.
type Middleware[Req, Res any] func(name string, next Handler[Req, Res]) Handler[Req, Res]

// DefaultSlowThreshold es el umbral a partir del cual se avisa de un caso de uso lento.
const DefaultSlowThreshold = 500 * time.Millisecond

// Chain compone los middlewares; el primero de la lista es el más externo.
func Chain[Req, Res any](name string, core Handler[Req, Res], mws ...Middleware[Req, Res]) Handler[Req, Res] {
	h := core
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](name, h)
	}
	return h
}

// WithLogging registra inicio y resultado de cada invocación.
func WithLogging[Req, Res any](log *zap.Logger) Middleware[Req, Res] {
	return func(name string, next Handler[Req, Res]) Handler[Req, Res] {
		return func(ctx context.Context, req Req) (Res, error) {
			log.Debug("Processing request", zap.String("request", name))
			res, err := next(ctx, req)
			if err != nil {
				log.Warn("Request failed", zap.String("request", name), zap.Error(err))
			} else {
				log.Debug("Completed request", zap.String("request", name))
			}
			return res, err
		}
	}
}

// WithPerformance avisa cuando la ejecución supera el umbral.
func WithPerformance[Req, Res any](log *zap.Logger, threshold time.Duration) Middleware[Req, Res] {
	if threshold <= 0 {
		threshold = DefaultSlowThreshold
	}
	return func(name string, next Handler[Req, Res]) Handler[Req, Res] {
		return func(ctx context.Context, req Req) (Res, error) {
			start := time.Now()
			res, err := next(ctx, req)
			if elapsed := time.Since(start); elapsed >= threshold {
				log.Warn("🐢 Long running request",
					zap.String("request", name),
					zap.Duration("elapsed", elapsed),
				)
			}
			return res, err
		}
	}
}

// ValidationError envuelve los errores de validator para que la capa HTTP los traduzca a 400.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// WithValidation valida la estructura de la petición con las etiquetas `validate`.
func WithValidation[Req, Res any](v *validator.Validate) Middleware[Req, Res] {
	return func(name string, next Handler[Req, Res]) Handler[Req, Res] {
		return func(ctx context.Context, req Req) (Res, error) {
			if err := v.StructCtx(ctx, req); err != nil {
				var zero Res
				return zero, &ValidationError{Err: err}
			}
			return next(ctx, req)
		}
	}
}

// Standard es la cadena habitual: logging, rendimiento y validación.
func Standard[Req, Res any](name string, core Handler[Req, Res], log *zap.Logger, v *validator.Validate) Handler[Req, Res] {
	return Chain(name, core,
		WithLogging[Req, Res](log),
		WithPerformance[Req, Res](log, DefaultSlowThreshold),
		WithValidation[Req, Res](v),
	)
}
