package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	c := NewCatalog(
		Product{Name: "JBL Charge 4", Category: "Audio", Price: decimal.NewFromInt(3290)},
		Product{Name: "LG OLED55CX", Category: "TV", Price: decimal.NewFromInt(39990)},
	)

	p, ok := c.Lookup("LG OLED55CX")
	require.True(t, ok)
	assert.Equal(t, "TV", p.Category)
	assert.True(t, decimal.NewFromInt(39990).Equal(p.Price))

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCatalog_Get_NotFound(t *testing.T) {
	c := NewCatalog()

	_, err := c.Get("ghost")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "ghost")
}

func TestCatalog_DuplicateNameReplaces(t *testing.T) {
	c := NewCatalog(
		Product{Name: "A", Price: decimal.NewFromInt(1)},
		Product{Name: "B", Price: decimal.NewFromInt(2)},
		Product{Name: "A", Price: decimal.NewFromInt(3)},
	)

	p, ok := c.Lookup("A")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(3).Equal(p.Price))
	assert.Equal(t, []string{"A", "B"}, c.Names())
}
