package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"universidad_backend/internals/features/billing/recargos/dto"
	"universidad_backend/internals/features/billing/recargos/model"
	"universidad_backend/internals/features/billing/recargos/service"
	helper "universidad_backend/internals/helpers"
)

type PoliticaController struct {
	DB *gorm.DB
}

func NewPoliticaController(db *gorm.DB) *PoliticaController {
	return &PoliticaController{DB: db}
}

// POST /politicas-recargo
// Crear una política activa desactiva la anterior: a lo más una activa.
func (ctrl *PoliticaController) Create(c *fiber.Ctx) error {
	var req dto.CreatePoliticaRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.TasaDiaria.LessThanOrEqual(decimal.Zero) {
		return fiber.NewError(fiber.StatusBadRequest, "La tasa diaria debe ser positiva")
	}
	if req.Minimo != nil && req.Maximo != nil && req.Minimo.GreaterThan(*req.Maximo) {
		return fiber.NewError(fiber.StatusBadRequest, "El mínimo no puede exceder el máximo")
	}

	m := req.ToModel()
	err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		if m.PoliticaRecargoActiva {
			if err := tx.Model(&model.PoliticaRecargoModel{}).
				Where("politica_recargo_activa = ?", true).
				Update("politica_recargo_activa", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonCreated(c, "Política de recargo creada", m)
}

// GET /politicas-recargo
func (ctrl *PoliticaController) List(c *fiber.Ctx) error {
	var politicas []model.PoliticaRecargoModel
	if err := ctrl.DB.Order("created_at DESC").Find(&politicas).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "Políticas de recargo", politicas)
}

// GET /politicas-recargo/activa
func (ctrl *PoliticaController) Activa(c *fiber.Ctx) error {
	p, err := service.PoliticaActiva(ctrl.DB)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	if p == nil {
		return helper.JsonError(c, fiber.StatusNotFound, "No hay política de recargo activa")
	}
	return helper.JsonOK(c, "Política activa", p)
}
