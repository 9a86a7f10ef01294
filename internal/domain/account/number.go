package account

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	numberSuffixMin = 10000000
	numberSuffixMax = 99999999
)

// NumberGenerator produces account numbers of the form PPPP-NNNNNNNN
type NumberGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewNumberGenerator seeds the generator from the clock
func NewNumberGenerator() *NumberGenerator {
	return NewNumberGeneratorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewNumberGeneratorWithSource allows a deterministic source in tests
func NewNumberGeneratorWithSource(src rand.Source) *NumberGenerator {
	return &NumberGenerator{rnd: rand.New(src)}
}

// Generate returns a number whose prefix encodes the product and account type
func (g *NumberGenerator) Generate(productType ProductType, accountType AccountType) string {
	g.mu.Lock()
	suffix := numberSuffixMin + g.rnd.Intn(numberSuffixMax-numberSuffixMin+1)
	g.mu.Unlock()

	return fmt.Sprintf("%s-%d", NumberPrefix(productType, accountType), suffix)
}

// NumberPrefix maps product and account type to the four digit prefix
func NumberPrefix(productType ProductType, accountType AccountType) string {
	if productType == ProductActive {
		return "0300"
	}
	switch accountType {
	case AccountSavings:
		return "0200"
	case AccountCurrent:
		return "0201"
	case AccountFixedTerm:
		return "0202"
	default:
		return "0299"
	}
}
