package controllers

import (
	"strings"

	"pos-backend/middlewares"
	"pos-backend/models"

	"github.com/gofiber/fiber/v2"
)

type PaymentCreateDTO struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Method          string  `json:"method" validate:"required"`
	ReferenceNumber string  `json:"reference_number" validate:"omitempty"`
	Notes           string  `json:"notes" validate:"omitempty"`
}

type PaymentVoidDTO struct {
	Reason string `json:"reason" validate:"omitempty"`
}

type ChangeDTO struct {
	TenderedAmount float64 `json:"tendered_amount" validate:"required,gt=0"`
}

// POST /api/invoices/:id/payments
func CreatePayment(c *fiber.Ctx) error {
	var in PaymentCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	method := models.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.Method)))
	if !method.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment method")
	}

	result, err := L.CreatePayment(
		c.Params("id"), userID(c), in.Amount, method,
		strings.TrimSpace(in.ReferenceNumber), strings.TrimSpace(in.Notes),
	)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GET /api/invoices/:id/payments
func GetInvoicePayments(c *fiber.Ctx) error {
	payments, err := L.ListInvoicePayments(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payments": payments})
}

// POST /api/payments/:id/void
func VoidPayment(c *fiber.Ctx) error {
	var in PaymentVoidDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	if err := L.VoidPayment(c.Params("id"), strings.TrimSpace(in.Reason)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "payment voided"})
}

// POST /api/invoices/:id/change
func CalculateChange(c *fiber.Ctx) error {
	var in ChangeDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	result, err := L.CalculateChange(c.Params("id"), in.TenderedAmount)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
