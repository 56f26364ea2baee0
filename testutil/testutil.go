// Package testutil holds shared fixtures for package tests: an in-memory sqlite
// database with the full schema and small record builders.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/junaidrashid-git/market-hub/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// NewDB opens a private in-memory sqlite database and migrates every model.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, seq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

const Password = "password123"

// CreateUser inserts a verified credentials user with Password.
func CreateUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now()
	n := seq.Add(1)
	user := &models.User{
		Email:           fmt.Sprintf("user%d@example.com", n),
		Name:            fmt.Sprintf("User %d", n),
		PasswordHash:    string(hash),
		Role:            role,
		EmailVerifiedAt: &now,
	}
	if role == models.RoleVendor {
		user.StoreName = fmt.Sprintf("Store %d", n)
		user.VendorStatus = models.VendorStatusApproved
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateProduct inserts a product owned by vendor with the given price and stock.
func CreateProduct(t *testing.T, db *gorm.DB, vendor *models.User, name, price string, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:     name,
		Slug:     fmt.Sprintf("%s-%d", strings.ToLower(strings.ReplaceAll(name, " ", "-")), seq.Add(1)),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Images:   []string{"https://img.example.com/" + name + ".jpg"},
		VendorID: vendor.ID,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// AddToCart puts quantity of product into the user's cart, creating the cart.
func AddToCart(t *testing.T, db *gorm.DB, user *models.User, product *models.Product, quantity int) {
	t.Helper()

	cart := models.Cart{UserID: user.ID}
	if err := db.Where(models.Cart{UserID: user.ID}).FirstOrCreate(&cart).Error; err != nil {
		t.Fatalf("create cart: %v", err)
	}
	item := models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: quantity, AddedAt: time.Now()}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("add cart item: %v", err)
	}
}

// CreateOrder records an order for quantity of product in the given status,
// without touching stock.
func CreateOrder(t *testing.T, db *gorm.DB, user *models.User, product *models.Product, quantity int, status models.OrderStatus) *models.Order {
	t.Helper()

	line := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
	order := &models.Order{
		Ref:           fmt.Sprintf("test-%d", seq.Add(1)),
		UserID:        user.ID,
		Subtotal:      line,
		Discount:      decimal.Zero,
		ShippingCost:  decimal.Zero,
		Total:         line,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: models.PaymentMethodCOD,
		Items: []models.OrderItem{{
			ProductID:   product.ID,
			VendorID:    product.VendorID,
			ProductName: product.Name,
			ProductSlug: product.Slug,
			UnitPrice:   product.Price,
			Quantity:    quantity,
			LineTotal:   line,
		}},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}
