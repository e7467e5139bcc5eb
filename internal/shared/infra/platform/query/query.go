package query

// OffsetPagination para paginación clásica
type OffsetPagination struct {
	Limit  int
	Offset int
}

// Normalize aplica el límite por defecto y acota el máximo.
func (p OffsetPagination) Normalize() OffsetPagination {
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Sort indica campo y dirección.
type Sort struct {
	Field string // ej. "created_at", "priority"
	Desc  bool
}
