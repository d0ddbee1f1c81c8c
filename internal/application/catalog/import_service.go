package catalog

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	catalogdomain "github.com/storecraft/backend/internal/domain/catalog"
	"github.com/storecraft/backend/internal/domain/shared"
	storedomain "github.com/storecraft/backend/internal/domain/store"
)

const (
	// maxImportRows bounds a single import file
	maxImportRows = 5000
	// maxRowErrors caps the number of row errors reported back
	maxRowErrors = 50
)

var requiredImportHeaders = []string{"sku", "name", "price"}

// RowError describes a rejected row in an import file
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarizes the outcome of a catalog import
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors,omitempty"`
}

// ImportService loads store catalogs from CSV files. Rows are keyed by SKU:
// an existing product with the same store-scoped SKU is updated in place,
// anything else is created. Categories are created on demand by name.
type ImportService struct {
	stores     storedomain.Repository
	products   catalogdomain.ProductRepository
	categories catalogdomain.CategoryRepository
	logger     *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	stores storedomain.Repository,
	products catalogdomain.ProductRepository,
	categories catalogdomain.CategoryRepository,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		stores:     stores,
		products:   products,
		categories: categories,
		logger:     logger.Named("catalog-import"),
	}
}

// ImportProducts parses a CSV stream and upserts products into the store's
// catalog. Required columns: sku, name, price. Optional columns:
// description, category, inventory_quantity, images (pipe-separated
// paths), status (active|archived). Invalid rows are skipped and reported;
// they do not abort the import.
func (s *ImportService) ImportProducts(ctx context.Context, storeSlug string, r io.Reader) (*ImportResult, error) {
	st, err := s.stores.FindBySlug(ctx, storeSlug)
	if err != nil {
		return nil, err
	}

	reader, columns, err := newImportReader(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	categoryCache := map[string]uuid.UUID{}

	line := 1 // header is line 1
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.addError(line, "malformed CSV row")
			continue
		}
		if isBlankRecord(record) {
			continue
		}

		rows++
		if rows > maxImportRows {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Import exceeds the maximum of %d rows", maxImportRows))
		}

		if err := s.importRow(ctx, st.ID, columns, record, categoryCache, result); err != nil {
			var rowErr *shared.DomainError
			if errors.As(err, &rowErr) {
				result.Skipped++
				result.addError(line, rowErr.Message)
				continue
			}
			return nil, err
		}
	}

	s.logger.Info("Catalog import finished",
		zap.String("store_slug", storeSlug),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// newImportReader wraps the stream in a CSV reader, strips a UTF-8 BOM if
// present and validates the header row.
func newImportReader(r io.Reader) (*csv.Reader, map[string]int, error) {
	br := bufio.NewReader(r)
	if lead, err := br.Peek(3); err == nil && lead[0] == 0xEF && lead[1] == 0xBB && lead[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, shared.NewDomainError("INVALID_INPUT", "Import file is empty")
	}
	if err != nil {
		return nil, nil, shared.NewDomainError("INVALID_INPUT", "Import file has a malformed header row")
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, h := range requiredImportHeaders {
		if _, ok := columns[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, nil, shared.NewDomainError("INVALID_INPUT",
			"Import file is missing required columns: "+strings.Join(missing, ", "))
	}

	return reader, columns, nil
}

// importRow upserts a single product. Row-level validation failures return a
// *shared.DomainError; anything else is an infrastructure error that aborts
// the import.
func (s *ImportService) importRow(
	ctx context.Context,
	storeID uuid.UUID,
	columns map[string]int,
	record []string,
	categoryCache map[string]uuid.UUID,
	result *ImportResult,
) error {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	sku := field("sku")
	name := field("name")
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "sku is required")
	}
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "name is required")
	}

	price, err := decimal.NewFromString(field("price"))
	if err != nil || price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "price must be a non-negative decimal")
	}

	quantity := 0
	if raw := field("inventory_quantity"); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil || quantity < 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "inventory_quantity must be a non-negative integer")
		}
	}

	status := catalogdomain.ProductStatusActive
	switch raw := strings.ToLower(field("status")); raw {
	case "", "active":
	case "archived":
		status = catalogdomain.ProductStatusArchived
	default:
		return shared.NewDomainError("INVALID_STATUS", "status must be active or archived")
	}

	var categoryID *uuid.UUID
	if categoryName := field("category"); categoryName != "" {
		id, err := s.resolveCategory(ctx, storeID, categoryName, categoryCache)
		if err != nil {
			return err
		}
		categoryID = &id
	}

	images := splitImages(field("images"))

	existing, err := s.products.FindByStoreAndSKU(ctx, storeID, sku)
	switch {
	case err == nil:
		existing.Name = name
		existing.Description = field("description")
		existing.Price = price
		existing.Images = images
		existing.CategoryID = categoryID
		existing.InventoryQuantity = quantity
		existing.Status = status
		existing.UpdatedAt = time.Now()
		existing.IncrementVersion()
		if err := s.products.Save(ctx, existing); err != nil {
			return err
		}
		result.Updated++
	case errors.Is(err, shared.ErrNotFound):
		product, err := catalogdomain.NewProduct(storeID, sku, name, price)
		if err != nil {
			return err
		}
		product.Description = field("description")
		product.Images = images
		product.CategoryID = categoryID
		product.InventoryQuantity = quantity
		product.Status = status
		if err := s.products.Save(ctx, product); err != nil {
			return err
		}
		result.Created++
	default:
		return err
	}

	return nil
}

// resolveCategory finds or creates a category by name within the store
func (s *ImportService) resolveCategory(
	ctx context.Context,
	storeID uuid.UUID,
	name string,
	cache map[string]uuid.UUID,
) (uuid.UUID, error) {
	key := strings.ToLower(name)
	if id, ok := cache[key]; ok {
		return id, nil
	}

	existing, err := s.categories.FindByStoreAndName(ctx, storeID, name)
	if err == nil {
		cache[key] = existing.ID
		return existing.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}

	category, err := catalogdomain.NewCategory(storeID, name)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.categories.Save(ctx, category); err != nil {
		return uuid.Nil, err
	}
	cache[key] = category.ID
	return category.ID, nil
}

func (r *ImportResult) addError(line int, message string) {
	if len(r.Errors) >= maxRowErrors {
		return
	}
	r.Errors = append(r.Errors, RowError{Line: line, Message: message})
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// splitImages parses a pipe-separated list of image paths
func splitImages(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	images := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			images = append(images, p)
		}
	}
	return images
}
