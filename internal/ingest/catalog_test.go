package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeGzip(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

const productsCSV = `Product name,Category,Price
JBL Charge 4,Speakers,149.99
LG OLED55CX,TVs,1799.00
Apple iPad Air,Tablets,599.00
`

const transactionsCSV = `Transaction ID,Date,Product name,Quantity
1,1/15/2021,JBL Charge 4,2
1,1/15/2021,Apple iPad Air,1
2,1/16/2021,LG OLED55CX,1
`

// --- Tests ---

func TestReadProducts(t *testing.T) {
	products, err := ReadProducts(strings.NewReader(productsCSV))
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "JBL Charge 4", products[0].Name)
	assert.Equal(t, "Speakers", products[0].Category)
	assert.True(t, d("149.99").Equal(products[0].Price))
	assert.True(t, d("1799").Equal(products[1].Price))
}

func TestReadProducts_HeaderTolerance(t *testing.T) {
	in := "\ufeff Product name , Price ,Category\nJBL Charge 4 , 149.99 ,Speakers\n"

	products, err := ReadProducts(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "JBL Charge 4", products[0].Name)
	assert.True(t, d("149.99").Equal(products[0].Price))
}

func TestReadProducts_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "empty input",
			input:   "",
			wantErr: "header row required",
		},
		{
			name:    "missing column",
			input:   "Product name,Category\nJBL,Speakers\n",
			wantErr: `missing column "Price"`,
		},
		{
			name:    "bad price",
			input:   "Product name,Category,Price\nJBL,Speakers,cheap\n",
			wantErr: "line 2",
		},
		{
			name:    "negative price",
			input:   "Product name,Category,Price\nJBL,Speakers,-1\n",
			wantErr: "negative price",
		},
		{
			name:    "empty name",
			input:   "Product name,Category,Price\n,Speakers,10\n",
			wantErr: "empty product name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadProducts(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadTransactions(t *testing.T) {
	txs, err := ReadTransactions(strings.NewReader(transactionsCSV))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, Transaction{
		OrderID:  "1",
		Date:     time.Date(2021, time.January, 15, 0, 0, 0, 0, time.UTC),
		Product:  "JBL Charge 4",
		Quantity: 2,
	}, txs[0])
	assert.Equal(t, "2", txs[2].OrderID)
}

func TestReadTransactions_CollectsRowErrors(t *testing.T) {
	in := `Transaction ID,Date,Product name,Quantity
1,1/15/2021,JBL Charge 4,0
2,1/15/2021,JBL Charge 4,two
3,15/01/2021,JBL Charge 4,1
4,1/15/2021,JBL Charge 4,1
`
	_, err := ReadTransactions(strings.NewReader(in))
	require.Error(t, err)

	rows := RowErrors(err)
	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[0].Line)
	assert.Contains(t, rows[0].Error(), "greater than 0")
	assert.Equal(t, 3, rows[1].Line)
	assert.Equal(t, 4, rows[2].Line)
}

func TestLoadProducts(t *testing.T) {
	catalog, err := LoadProducts(writeFile(t, "products.csv", productsCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())

	p, ok := catalog.Lookup("LG OLED55CX")
	require.True(t, ok)
	assert.Equal(t, "TVs", p.Category)
}

func TestLoadTransactions_Gzip(t *testing.T) {
	txs, err := LoadTransactions(writeGzip(t, "transactions.csv.gz", transactionsCSV))
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestLoadProducts_MissingFile(t *testing.T) {
	_, err := LoadProducts(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_InvalidGzip(t *testing.T) {
	_, err := Open(writeFile(t, "broken.csv.gz", "not gzip"))
	require.Error(t, err)
}
