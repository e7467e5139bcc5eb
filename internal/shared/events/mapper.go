package events

import (
	"sync"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
)

// Mapper traduce un evento de dominio a su contrato de integración.
// Debe ser puro y devolver false para los tipos que no reconoce, nunca fallar.
type Mapper interface {
	Map(evt sharedDomain.DomainEvent) (Envelope, bool)
}

// MapperFunc adapta una función al interfaz Mapper.
type MapperFunc func(evt sharedDomain.DomainEvent) (Envelope, bool)

func (f MapperFunc) Map(evt sharedDomain.DomainEvent) (Envelope, bool) { return f(evt) }

// MapperRegistry mantiene los mappers en orden de registro.
// Se asume que a lo sumo un mapper reconoce cada tipo; si hay varios gana el primero.
type MapperRegistry struct {
	mu      sync.RWMutex
	mappers []Mapper
}

func NewMapperRegistry(mappers ...Mapper) *MapperRegistry {
	r := &MapperRegistry{}
	r.Register(mappers...)
	return r
}

// Register añade mappers al final de la cadena.
func (r *MapperRegistry) Register(mappers ...Mapper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range mappers {
		if m != nil {
			r.mappers = append(r.mappers, m)
		}
	}
}

// Map devuelve el primer resultado no nulo. Sin coincidencia devuelve (nil, false).
func (r *MapperRegistry) Map(evt sharedDomain.DomainEvent) (Envelope, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.mappers {
		if out, ok := m.Map(evt); ok && out != nil {
			return out, true
		}
	}
	return nil, false
}
