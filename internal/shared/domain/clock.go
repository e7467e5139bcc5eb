package domain

import "time"

// Clock abstrae la hora actual para poder fijarla en tests.
type Clock interface {
	Now() time.Time
}

// SystemClock devuelve la hora UTC del sistema.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock siempre devuelve el mismo instante.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
