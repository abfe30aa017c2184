package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace/internal/domain"
)

type stubInventory struct {
	items []domain.InventoryRecord
	err   error
}

func (s *stubInventory) Upsert(_ context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, rec)
	return &rec, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `seller_id,product_id,quantity,seller_price
1,10,5,12.50
2,10,0,
,,,
1,11,3,`

	repo := &stubInventory{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, 0)

	count, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, repo.items, 3)

	first := repo.items[0]
	assert.Equal(t, int64(1), first.SellerID)
	assert.Equal(t, int64(10), first.ProductID)
	assert.Equal(t, 5, first.Quantity)
	require.NotNil(t, first.SellerPrice)
	assert.Equal(t, "12.5", first.SellerPrice.String())

	assert.Nil(t, repo.items[1].SellerPrice)
	assert.Equal(t, 0, repo.items[1].Quantity)
}

func TestCSVImporter_DefaultSeller(t *testing.T) {
	csvData := "Product_ID, Quantity\n10,4\n11,1\n"

	repo := &stubInventory{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo, 42).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	for _, rec := range repo.items {
		assert.Equal(t, int64(42), rec.SellerID)
	}
}

func TestCSVImporter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		seller  int64
		want    string
		written int
	}{
		{"missing product column", "seller_id,quantity\n1,2\n", 0, "missing product_id column", 0},
		{"missing quantity column", "seller_id,product_id\n1,2\n", 0, "missing quantity column", 0},
		{"seller required", "product_id,quantity\n1,2\n", 0, "line 2: seller_id required", 0},
		{"bad quantity", "seller_id,product_id,quantity\n1,2,3\n1,2,x\n", 0, `line 3: invalid quantity "x"`, 1},
		{"bad price", "seller_id,product_id,quantity,seller_price\n1,2,3,abc\n", 0, `line 2: invalid seller_price "abc"`, 0},
		{"bad product", "seller_id,product_id,quantity\n1,p,3\n", 0, `line 2: invalid product_id "p"`, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubInventory{}
			count, err := NewCSVImporter(strings.NewReader(tc.csv), repo, tc.seller).Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.Equal(t, tc.written, count)
		})
	}
}

func TestCSVImporter_WriterError(t *testing.T) {
	repo := &stubInventory{err: domain.ErrProductUnavailable}
	_, err := NewCSVImporter(strings.NewReader("seller_id,product_id,quantity\n1,2,3\n"), repo, 0).Run(context.Background())
	assert.True(t, errors.Is(err, domain.ErrProductUnavailable))
	assert.Contains(t, err.Error(), "upsert seller 1 product 2")
}

func TestCSVImporter_EmptyInput(t *testing.T) {
	_, err := NewCSVImporter(strings.NewReader(""), &stubInventory{}, 0).Run(context.Background())
	assert.ErrorContains(t, err, "read headers")
}
