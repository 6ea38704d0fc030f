package flavor

import (
	"fmt"
	"strconv"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idPrefixLength = 10

// IDGenerator issues item identifiers that never repeat within a process.
// Each id is a per-generator random prefix joined with a strictly increasing
// counter, so two ids issued in the same millisecond still differ.
type IDGenerator struct {
	prefix string
	seq    atomic.Uint64
}

// NewIDGenerator builds a generator with a fresh random prefix.
func NewIDGenerator() (*IDGenerator, error) {
	prefix, err := gonanoid.New(idPrefixLength)
	if err != nil {
		return nil, fmt.Errorf("generate id prefix: %w", err)
	}
	return &IDGenerator{prefix: prefix}, nil
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	n := g.seq.Add(1)
	return g.prefix + "-" + strconv.FormatUint(n, 10)
}
