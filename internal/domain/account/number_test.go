package account

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberGenerator_Generate(t *testing.T) {
	gen := NewNumberGeneratorWithSource(rand.NewSource(42))

	tests := []struct {
		productType ProductType
		accountType AccountType
		prefix      string
	}{
		{ProductActive, "", "0300-"},
		{ProductActive, AccountSavings, "0300-"},
		{ProductPassive, AccountSavings, "0200-"},
		{ProductPassive, AccountCurrent, "0201-"},
		{ProductPassive, AccountFixedTerm, "0202-"},
		{ProductPassive, "", "0299-"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+string(tt.accountType), func(t *testing.T) {
			for i := 0; i < 200; i++ {
				number := gen.Generate(tt.productType, tt.accountType)

				require.True(t, strings.HasPrefix(number, tt.prefix), number)
				suffix, err := strconv.Atoi(strings.TrimPrefix(number, tt.prefix))
				require.NoError(t, err)
				assert.GreaterOrEqual(t, suffix, 10000000)
				assert.LessOrEqual(t, suffix, 99999999)
			}
		})
	}
}

func TestNumberGenerator_DeterministicWithSeed(t *testing.T) {
	a := NewNumberGeneratorWithSource(rand.NewSource(7))
	b := NewNumberGeneratorWithSource(rand.NewSource(7))

	assert.Equal(t, a.Generate(ProductPassive, AccountSavings), b.Generate(ProductPassive, AccountSavings))
}
