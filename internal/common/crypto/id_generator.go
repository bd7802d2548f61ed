package crypto

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator mints session token ids.
type IDGenerator interface {
	NewID() (string, error)
}

// UUIDGenerator hands out version 7 UUIDs, which sort by creation time, so
// jtis in the revocation log read in issue order.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}
	return id.String(), nil
}
