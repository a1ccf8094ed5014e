package controllers

import (
	"errors"
	"strings"

	"pos-backend/database"
	"pos-backend/middlewares"
	"pos-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RegisterDTO struct {
	Username        string `json:"username" validate:"required,min=3,max=64"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	FullName        string `json:"full_name" validate:"required,min=1"`
	Role            string `json:"role" validate:"required"`
}

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/register
func Register(c *fiber.Ctx) error {
	var in RegisterDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	if in.Password != in.PasswordConfirm {
		return fiber.NewError(fiber.StatusBadRequest, "passwords do not match")
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if !models.ValidRole(role) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	var exists models.User
	if err := database.DB.Where("username = ?", username).First(&exists).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	user := models.User{
		Username: username,
		FullName: strings.TrimSpace(in.FullName),
		Role:     role,
	}
	user.SetPassword(in.Password)
	if err := database.DB.Create(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create user")
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// POST /api/auth/login
func Login(c *fiber.Ctx) error {
	var in LoginDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	var user models.User
	err := database.DB.Where("username = ?", strings.ToLower(strings.TrimSpace(in.Username))).First(&user).Error
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "incorrect username or password")
	}
	if err := user.ComparePassword(in.Password); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "incorrect username or password")
	}

	token, err := middlewares.GenerateJWT(user.Id, user.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not sign token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// POST /api/auth/logout
// Bearer tokens are stateless; logout is a client-side discard. Kept for
// API symmetry with the session-based clients.
func Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "logged out"})
}

// GET /api/auth/me
func Me(c *fiber.Ctx) error {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID(c)).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	return c.JSON(user)
}
