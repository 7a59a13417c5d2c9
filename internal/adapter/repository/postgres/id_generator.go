package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator issues notification ids. Row ids come from BIGSERIAL columns.
type ULIDGenerator struct{}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new lexicographically sortable ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
