package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUnknownType   = errors.New("unknown integration event type")
	ErrUndecodable   = errors.New("integration event content cannot be decoded")
	ErrDuplicateType = errors.New("integration event type already registered")
)

// Decoder convierte el contenido JSON en el contrato concreto.
type Decoder func(content []byte) (Envelope, error)

// SchemaRegistry es la tabla explícita nombre -> decodificador que se monta al arrancar.
type SchemaRegistry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{decoders: make(map[string]Decoder)}
}

// Register asocia name con el tipo T. Registrar dos veces el mismo nombre hace panic,
// ya que es un error de programación que debe saltar al arrancar.
func Register[T Envelope](r *SchemaRegistry, name string) {
	r.RegisterDecoder(name, func(content []byte) (Envelope, error) {
		var evt T
		if err := json.Unmarshal(content, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	})
}

func (r *SchemaRegistry) RegisterDecoder(name string, dec Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decoders[name]; exists {
		panic(fmt.Errorf("%w: %s", ErrDuplicateType, name))
	}
	r.decoders[name] = dec
}

// Has indica si el nombre está registrado.
func (r *SchemaRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.decoders[name]
	return ok
}

// Decode resuelve el tipo por nombre y decodifica el contenido.
func (r *SchemaRegistry) Decode(name string, content []byte) (Envelope, error) {
	r.mu.RLock()
	dec, ok := r.decoders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	evt, err := dec(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUndecodable, name, err)
	}
	return evt, nil
}

// Names devuelve los tipos registrados ordenados.
func (r *SchemaRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.decoders))
	for k := range r.decoders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
