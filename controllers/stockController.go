package controllers

import (
	"strings"
	"time"

	"pos-backend/ledger"
	"pos-backend/middlewares"
	"pos-backend/models"
	"pos-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type StockAdjustDTO struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,min=1"`
}

// GET /api/stock/:productId
func GetStockLevel(c *fiber.Ctx) error {
	qty, err := L.GetQuantity(c.Params("productId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"product_id": c.Params("productId"),
		"quantity":   qty,
	})
}

// POST /api/stock/:productId/adjust
func AdjustStock(c *fiber.Ctx) error {
	var in StockAdjustDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	stock, err := L.Adjust(c.Params("productId"), in.Delta, strings.TrimSpace(in.Reason), nil)
	if err != nil {
		return err
	}
	return c.JSON(stock)
}

// GET /api/stock/movements?product_id=&type=&from=&to=&limit=&offset=
func GetStockMovements(c *fiber.Ctx) error {
	filter := ledger.MovementFilter{
		ProductId: strings.TrimSpace(c.Query("product_id")),
		Type:      models.MovementType(strings.ToUpper(strings.TrimSpace(c.Query("type")))),
		Limit:     utils.ParseIntDefault(c.Query("limit"), 100),
		Offset:    utils.ParseIntDefault(c.Query("offset"), 0),
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			filter.To = &end
		}
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid movement type filter")
	}

	movements, err := L.ListMovements(filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"movements": movements})
}

// GET /api/stock/low?limit=&offset=
func GetLowStock(c *fiber.Ctx) error {
	items, err := L.ListLowStock(
		utils.ParseIntDefault(c.Query("limit"), 50),
		utils.ParseIntDefault(c.Query("offset"), 0),
	)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}
