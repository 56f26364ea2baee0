package productcontroller

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// GET /api/admin/products/export
func ExportProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.WithContext(c.Request.Context()).Preload("Categories").Order("id asc").Find(&products).Error; err != nil {
			c.Error(apperr.Internal("load products", err))
			return
		}

		file, err := buildSheet(products)
		if err != nil {
			c.Error(apperr.Internal("build sheet", err))
			return
		}

		filename := fmt.Sprintf("products-%s.xlsx", time.Now().UTC().Format("20060102"))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.Error(apperr.Internal("write sheet", err))
			return
		}
	}
}

func buildSheet(products []models.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, err
	}
	headerRow := sheet.AddRow()
	for _, h := range sheetHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(int(p.ID))
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(strings.Join(p.Images, ","))
		row.AddCell().SetValue(strconv.FormatBool(p.Featured))
		row.AddCell().SetValue(p.VendorID)

		brand := ""
		if p.BrandID != nil {
			brand = strconv.FormatUint(uint64(*p.BrandID), 10)
		}
		row.AddCell().SetValue(brand)

		catIDs := make([]string, 0, len(p.Categories))
		for _, cat := range p.Categories {
			catIDs = append(catIDs, strconv.FormatUint(uint64(cat.ID), 10))
		}
		row.AddCell().SetValue(strings.Join(catIDs, ","))

		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}
