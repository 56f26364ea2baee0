package productcontroller

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// Column order shared by import and export.
var sheetHeaders = []string{
	"ID", "Name", "Description", "Price", "Stock", "Images", "Featured",
	"VendorID", "BrandID", "CategoryIDs", "CreatedAt", "UpdatedAt",
}

const minImportColumns = 5

type importRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type importedRow struct {
	id          uint
	product     models.Product
	categoryIDs []uint
	hasCats     bool
}

// POST /api/admin/products/import (multipart "file")
// Rows with an existing ID update that product; the rest are created, owned by
// VendorID or the importing admin.
func ImportProducts(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			c.Error(apperr.Field("file", "an .xlsx file is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			c.Error(apperr.Internal("open upload", err))
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, header.Size)
		if err != nil {
			c.Error(apperr.Field("file", "is not a valid .xlsx file"))
			return
		}
		if len(xlFile.Sheets) == 0 || len(xlFile.Sheets[0].Rows) < 2 {
			c.Error(apperr.Field("file", "is empty or missing the header row"))
			return
		}

		ctx := c.Request.Context()
		importer := middleware.CurrentUserID(c)
		created, updated := 0, 0
		var skipped []importRowError

		for i, row := range xlFile.Sheets[0].Rows[1:] {
			rowNum := i + 2
			parsed, err := parseRow(row, importer)
			if err != nil {
				skipped = append(skipped, importRowError{Row: rowNum, Error: err.Error()})
				continue
			}
			isUpdate, err := saveImportedRow(c, db, parsed)
			if err != nil {
				skipped = append(skipped, importRowError{Row: rowNum, Error: err.Error()})
				continue
			}
			if isUpdate {
				updated++
			} else {
				created++
			}
		}
		invalidate(ctx, loader)
		slog.InfoContext(ctx, "products imported", "created", created, "updated", updated, "skipped", len(skipped))

		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": created,
			"updated_count": updated,
			"skipped_count": len(skipped),
			"skipped":       skipped,
		})
	}
}

func parseRow(row *xlsx.Row, importer string) (*importedRow, error) {
	get := func(index int) string {
		if index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}
	if len(row.Cells) < minImportColumns || get(1) == "" {
		return nil, fmt.Errorf("name is required")
	}

	out := &importedRow{}
	if raw := get(0); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ID %q", raw)
		}
		out.id = uint(id)
	}
	price, err := decimal.NewFromString(get(3))
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("invalid price %q", get(3))
	}
	stock, err := strconv.Atoi(get(4))
	if err != nil || stock < 0 {
		return nil, fmt.Errorf("invalid stock %q", get(4))
	}
	featured, _ := strconv.ParseBool(get(6))

	vendorID := get(7)
	if vendorID == "" {
		vendorID = importer
	}
	var brandID *uint
	if raw := get(8); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid brand ID %q", raw)
		}
		b := uint(id)
		brandID = &b
	}
	if raw := get(9); raw != "" {
		out.hasCats = true
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid category ID %q", part)
			}
			out.categoryIDs = append(out.categoryIDs, uint(id))
		}
	}

	var images []string
	if raw := get(5); raw != "" {
		images = cleanImages(strings.Split(raw, ","))
	}
	out.product = models.Product{
		Name:        get(1),
		Description: get(2),
		Price:       price.Round(2),
		Stock:       stock,
		Images:      images,
		Featured:    featured,
		VendorID:    vendorID,
		BrandID:     brandID,
	}
	return out, nil
}

func saveImportedRow(c *gin.Context, db *gorm.DB, row *importedRow) (bool, error) {
	ctx := c.Request.Context()
	isUpdate := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkBrand(tx, row.product.BrandID); err != nil {
			return err
		}
		categories, err := loadCategories(tx, row.categoryIDs)
		if err != nil {
			return err
		}

		var existing models.Product
		if row.id != 0 && tx.First(&existing, row.id).Error == nil {
			isUpdate = true
			if existing.Name != row.product.Name {
				if existing.Slug, err = uniqueSlug(ctx, tx, &models.Product{}, row.product.Name, existing.ID); err != nil {
					return err
				}
			}
			existing.Name = row.product.Name
			existing.Description = row.product.Description
			existing.Price = row.product.Price
			existing.Stock = row.product.Stock
			existing.Images = row.product.Images
			existing.Featured = row.product.Featured
			existing.BrandID = row.product.BrandID
			if err := tx.Model(&existing).
				Select("name", "slug", "description", "price", "stock", "images", "featured", "brand_id", "updated_at").
				Updates(&existing).Error; err != nil {
				return err
			}
			if row.hasCats {
				return tx.Model(&existing).Association("Categories").Replace(categories)
			}
			return nil
		}

		var vendor models.User
		if err := tx.First(&vendor, "id = ?", row.product.VendorID).Error; err != nil {
			return fmt.Errorf("unknown vendor %q", row.product.VendorID)
		}
		product := row.product
		product.Categories = categories
		if product.Slug, err = uniqueSlug(ctx, tx, &models.Product{}, product.Name, 0); err != nil {
			return err
		}
		return tx.Omit("Categories.*").Create(&product).Error
	})
	return isUpdate, err
}
