package postgres

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based row IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

const referenceSuffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ReferenceNumberGenerator generates human-inspectable reference and
// entry numbers: <prefix><base36 timestamp><4-char random suffix>.
// Uniqueness is probabilistic; the database unique constraint catches the
// rare collision and callers regenerate.
type ReferenceNumberGenerator struct{}

// NewReferenceNumberGenerator creates a new ReferenceNumberGenerator.
func NewReferenceNumberGenerator() *ReferenceNumberGenerator {
	return &ReferenceNumberGenerator{}
}

// Generate produces a reference number with the given type prefix.
func (g *ReferenceNumberGenerator) Generate(prefix string) string {
	var b strings.Builder

	b.WriteString(prefix)
	b.WriteString(strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36)))

	for i := 0; i < 4; i++ {
		b.WriteByte(referenceSuffixAlphabet[rand.Intn(len(referenceSuffixAlphabet))])
	}

	return b.String()
}
