package utils

import (
	"context"
	"errors"
	"time"
)

// ErrPermanent marca errores que no merece la pena reintentar.
var ErrPermanent = errors.New("permanent error")

// Retry ejecuta fn hasta attempts veces, doblando la espera entre intentos.
// No espera tras el último intento. Un error que envuelva ErrPermanent corta los reintentos.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) || i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
