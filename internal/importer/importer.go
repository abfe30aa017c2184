package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"marketplace/internal/domain"
)

type InventoryWriter interface {
	Upsert(ctx context.Context, rec domain.InventoryRecord) (*domain.InventoryRecord, error)
}

// CSVImporter reads seller stock sheets (seller_id,product_id,quantity,seller_price)
// and upserts one inventory row per line.
type CSVImporter struct {
	reader        *csv.Reader
	inventory     InventoryWriter
	defaultSeller int64
}

// NewCSVImporter returns an importer. defaultSeller is used for rows whose
// seller_id column is absent or blank; zero means every row must name one.
func NewCSVImporter(r io.Reader, w InventoryWriter, defaultSeller int64) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:        csvr,
		inventory:     w,
		defaultSeller: defaultSeller,
	}
}

// Run upserts every row and returns how many were written. It stops at the
// first invalid row; rows before it stay written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["product_id"]; !ok {
		return 0, errors.New("missing product_id column")
	}
	if _, ok := index["quantity"]; !ok {
		return 0, errors.New("missing quantity column")
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := i.reader.FieldPos(0)

		rec, err := i.parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := i.inventory.Upsert(ctx, rec); err != nil {
			return imported, fmt.Errorf("line %d: upsert seller %d product %d: %w", line, rec.SellerID, rec.ProductID, err)
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) parseRow(record []string, index map[string]int) (domain.InventoryRecord, error) {
	var rec domain.InventoryRecord

	seller := pick(record, index, "seller_id")
	if seller == "" {
		if i.defaultSeller == 0 {
			return rec, errors.New("seller_id required")
		}
		rec.SellerID = i.defaultSeller
	} else {
		id, err := strconv.ParseInt(seller, 10, 64)
		if err != nil {
			return rec, fmt.Errorf("invalid seller_id %q", seller)
		}
		rec.SellerID = id
	}

	product := pick(record, index, "product_id")
	id, err := strconv.ParseInt(product, 10, 64)
	if err != nil {
		return rec, fmt.Errorf("invalid product_id %q", product)
	}
	rec.ProductID = id

	qty := pick(record, index, "quantity")
	n, err := strconv.Atoi(qty)
	if err != nil {
		return rec, fmt.Errorf("invalid quantity %q", qty)
	}
	rec.Quantity = n

	if price := pick(record, index, "seller_price"); price != "" {
		d, err := decimal.NewFromString(price)
		if err != nil {
			return rec, fmt.Errorf("invalid seller_price %q", price)
		}
		rec.SellerPrice = &d
	}
	return rec, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
