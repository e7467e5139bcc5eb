package security

import (
	"golang.org/x/crypto/bcrypt"

	userDomain "github.com/davicafu/todolab/internal/user/domain"
)

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher usa bcrypt.DefaultCost si cost queda fuera de rango.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var _ userDomain.PasswordHasher = (*BcryptHasher)(nil)
