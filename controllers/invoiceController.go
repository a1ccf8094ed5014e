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

type InvoiceCreateDTO struct {
	CustomerId *string `json:"customer_id" validate:"omitempty,uuid4"`
	Notes      string  `json:"notes" validate:"omitempty"`
}

type InvoiceItemDTO struct {
	ProductId     string   `json:"product_id" validate:"required,uuid4"`
	Quantity      int      `json:"quantity" validate:"required,gt=0"`
	UnitPrice     *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	DiscountPrice *float64 `json:"discount_price" validate:"omitempty,gte=0"`
}

type ItemQuantityDTO struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type ItemDiscountDTO struct {
	DiscountPrice *float64 `json:"discount_price" validate:"omitempty,gte=0"`
}

type InvoiceVoidDTO struct {
	Reason string `json:"reason" validate:"omitempty"`
}

// POST /api/invoices
func CreateInvoice(c *fiber.Ctx) error {
	var in InvoiceCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	invoice, err := L.CreateInvoice(userID(c), in.CustomerId, strings.TrimSpace(in.Notes))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GET /api/invoices?q=&status=&customer_id=&user_id=&from=&to=&limit=&offset=
func GetInvoices(c *fiber.Ctx) error {
	filter := ledger.InvoiceFilter{
		Term:       strings.TrimSpace(c.Query("q")),
		CustomerId: strings.TrimSpace(c.Query("customer_id")),
		UserId:     strings.TrimSpace(c.Query("user_id")),
		Status:     models.InvoiceStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Limit:      utils.ParseIntDefault(c.Query("limit"), 50),
		Offset:     utils.ParseIntDefault(c.Query("offset"), 0),
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
	if filter.Status != "" && !filter.Status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
	}

	invoices, err := L.Search(filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}

// GET /api/invoices/:id
func GetInvoice(c *fiber.Ctx) error {
	details, err := L.GetInvoiceWithItems(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(details)
}

// POST /api/invoices/:id/items
func AddInvoiceItem(c *fiber.Ctx) error {
	var in InvoiceItemDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	item, err := L.AddItem(c.Params("id"), in.ProductId, in.Quantity, in.UnitPrice, in.DiscountPrice)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// PATCH /api/invoices/items/:itemId/quantity
func UpdateInvoiceItemQuantity(c *fiber.Ctx) error {
	var in ItemQuantityDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	item, err := L.UpdateItemQuantity(c.Params("itemId"), in.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// PATCH /api/invoices/items/:itemId/discount
func UpdateInvoiceItemDiscount(c *fiber.Ctx) error {
	var in ItemDiscountDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	item, err := L.UpdateItemDiscount(c.Params("itemId"), in.DiscountPrice)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// DELETE /api/invoices/items/:itemId
func RemoveInvoiceItem(c *fiber.Ctx) error {
	if err := L.RemoveItem(c.Params("itemId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "item removed"})
}

// POST /api/invoices/:id/finalize
func FinalizeInvoice(c *fiber.Ctx) error {
	invoice, err := L.Finalize(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// POST /api/invoices/:id/void
func VoidInvoice(c *fiber.Ctx) error {
	var in InvoiceVoidDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	invoice, err := L.Void(c.Params("id"), strings.TrimSpace(in.Reason))
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}
