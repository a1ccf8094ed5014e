package controllers

import (
	"strings"

	"pos-backend/ledger"
	"pos-backend/middlewares"
	"pos-backend/models"

	"github.com/gofiber/fiber/v2"
)

type DebtCreateDTO struct {
	CustomerId string  `json:"customer_id" validate:"required,uuid4"`
	InvoiceId  string  `json:"invoice_id" validate:"required,uuid4"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	AmountPaid float64 `json:"amount_paid" validate:"gte=0"`
	Notes      string  `json:"notes" validate:"omitempty"`
}

type DebtPaymentDTO struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required"`
	Notes  string  `json:"notes" validate:"omitempty"`
}

type DebtUpdateDTO struct {
	Amount     *float64 `json:"amount" validate:"omitempty,gt=0"`
	AmountPaid *float64 `json:"amount_paid" validate:"omitempty,gte=0"`
	IsPaid     *bool    `json:"is_paid" validate:"omitempty"`
	Notes      *string  `json:"notes" validate:"omitempty"`
}

// POST /api/debts
func CreateDebt(c *fiber.Ctx) error {
	var in DebtCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	debt, err := L.CreateDebt(in.CustomerId, in.InvoiceId, in.Amount, in.AmountPaid, strings.TrimSpace(in.Notes), userID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(debt)
}

// GET /api/customers/:id/debts?include_paid=
func GetCustomerDebts(c *fiber.Ctx) error {
	includePaid := c.Query("include_paid") == "true"
	debts, err := L.ListCustomerDebts(c.Params("id"), includePaid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"debts": debts})
}

// POST /api/debts/:id/payments
func RecordDebtPayment(c *fiber.Ctx) error {
	var in DebtPaymentDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	method := models.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.Method)))
	if !method.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment method")
	}

	result, err := L.RecordDebtPayment(c.Params("id"), in.Amount, method, userID(c), strings.TrimSpace(in.Notes))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// PATCH /api/debts/:id
func UpdateDebt(c *fiber.Ctx) error {
	var in DebtUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	debt, err := L.UpdateDebt(c.Params("id"), ledger.DebtUpdate{
		Amount:     in.Amount,
		AmountPaid: in.AmountPaid,
		IsPaid:     in.IsPaid,
		Notes:      in.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(debt)
}

// GET /api/debts/summary/age
func GetDebtAgeSummary(c *fiber.Ctx) error {
	summary, err := L.DebtSummaryByAge()
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
