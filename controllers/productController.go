package controllers

import (
	"errors"
	"strings"

	"pos-backend/database"
	"pos-backend/middlewares"
	"pos-backend/models"
	"pos-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProductCreateDTO struct {
	Name              string  `json:"name" validate:"required,min=1"`
	Sku               string  `json:"sku" validate:"required,min=1"`
	Barcode           string  `json:"barcode" validate:"omitempty"`
	CategoryId        *string `json:"category_id" validate:"omitempty,uuid4"`
	Description       string  `json:"description" validate:"omitempty"`
	PurchasePrice     float64 `json:"purchase_price" validate:"gte=0"`
	SellingPrice      float64 `json:"selling_price" validate:"gte=0"`
	TaxRate           float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	LowStockThreshold *int    `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

type ProductUpdateDTO struct {
	Name              *string  `json:"name" validate:"omitempty,min=1"`
	Barcode           *string  `json:"barcode" validate:"omitempty"`
	CategoryId        *string  `json:"category_id" validate:"omitempty,uuid4"`
	Description       *string  `json:"description" validate:"omitempty"`
	PurchasePrice     *float64 `json:"purchase_price" validate:"omitempty,gte=0"`
	SellingPrice      *float64 `json:"selling_price" validate:"omitempty,gte=0"`
	TaxRate           *float64 `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	LowStockThreshold *int     `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	Active            *bool    `json:"active" validate:"omitempty"`
}

// POST /api/products
func CreateProduct(c *fiber.Ctx) error {
	var in ProductCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	if in.CategoryId != nil {
		var cat models.Category
		if err := database.DB.First(&cat, "id = ?", *in.CategoryId).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "category not found")
		}
	}

	product := models.Product{
		Name:          in.Name,
		Sku:           in.Sku,
		Barcode:       in.Barcode,
		CategoryId:    in.CategoryId,
		Description:   in.Description,
		PurchasePrice: in.PurchasePrice,
		SellingPrice:  in.SellingPrice,
		TaxRate:       in.TaxRate,
		Active:        true,
	}
	if in.LowStockThreshold != nil {
		product.LowStockThreshold = *in.LowStockThreshold
	}

	if err := database.DB.Create(&product).Error; err != nil {
		return fiber.NewError(fiber.StatusConflict, "could not create product (duplicate sku?)")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// GET /api/products?q=&category_id=&active=&limit=&offset=
func GetProducts(c *fiber.Ctx) error {
	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	q := database.DB.Model(&models.Product{}).Preload("Category")
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + term + "%"
		q = q.Where("name LIKE ? OR sku LIKE ? OR barcode LIKE ?", like, like, like)
	}
	if cid := strings.TrimSpace(c.Query("category_id")); cid != "" {
		q = q.Where("category_id = ?", cid)
	}
	if active := strings.TrimSpace(c.Query("active")); active != "" {
		q = q.Where("active = ?", active == "true")
	}

	var products []models.Product
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"products": products})
}

// GET /api/products/:id
func GetProduct(c *fiber.Ctx) error {
	var product models.Product
	err := database.DB.Preload("Category").First(&product, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(product)
}

// PATCH /api/products/:id
func UpdateProduct(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	var in ProductUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	var existing models.Product
	if err := database.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) == 0 {
		return c.JSON(existing)
	}
	if err := database.DB.Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update product")
	}

	var out models.Product
	if err := database.DB.Preload("Category").First(&out, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload product")
	}
	return c.JSON(out)
}

// DELETE /api/products/:id retires the product; sale history keeps its rows.
func DeactivateProduct(c *fiber.Ctx) error {
	res := database.DB.Model(&models.Product{}).Where("id = ?", c.Params("id")).Update("active", false)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	return c.JSON(fiber.Map{"message": "product deactivated"})
}

type CategoryDTO struct {
	Name        string `json:"name" validate:"required,min=1"`
	Description string `json:"description" validate:"omitempty"`
}

// POST /api/categories
func CreateCategory(c *fiber.Ctx) error {
	var in CategoryDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	category := models.Category{Name: in.Name, Description: in.Description}
	if err := database.DB.Create(&category).Error; err != nil {
		return fiber.NewError(fiber.StatusConflict, "could not create category (duplicate name?)")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// GET /api/categories
func GetCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := database.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"categories": categories})
}
