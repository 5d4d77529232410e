package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	becaService "universidad_backend/internals/features/academics/service"
	"universidad_backend/internals/features/billing/plantillas/dto"
	"universidad_backend/internals/features/billing/plantillas/model"
	"universidad_backend/internals/features/billing/plantillas/service"
	helper "universidad_backend/internals/helpers"
)

type PlantillaController struct {
	DB *gorm.DB
}

func NewPlantillaController(db *gorm.DB) *PlantillaController {
	return &PlantillaController{DB: db}
}

/* ===================== CREATE ===================== */
// POST /plantillas
func (ctrl *PlantillaController) Create(c *fiber.Ctx) error {
	var req dto.CreatePlantillaRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	for _, l := range req.Lineas {
		if l.AplicaEn == model.AplicaNumero && l.AplicaEnNumero == nil {
			return fiber.NewError(fiber.StatusBadRequest, "aplica_en=numero requiere aplica_en_numero")
		}
	}

	m := req.ToModel()
	if err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(m).Error
	}); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonCreated(c, "Plantilla creada", dto.FromPlantillaModel(m))
}

/* ===================== READ ===================== */
// GET /plantillas
func (ctrl *PlantillaController) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)

	q := ctrl.DB.Model(&model.PlantillaCobroModel{})
	if s := c.Query("plan_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "plan_id no válido")
		}
		q = q.Where("plantilla_cobro_plan_id = ?", id)
	}
	if c.QueryBool("activas", false) {
		q = q.Where("plantilla_cobro_activa = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	var plantillas []model.PlantillaCobroModel
	if err := q.Preload("Detalles").Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&plantillas).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	out := make([]dto.PlantillaResponse, 0, len(plantillas))
	for i := range plantillas {
		out = append(out, dto.FromPlantillaModel(&plantillas[i]))
	}
	return helper.JsonList(c, "Plantillas", out, helper.BuildPaginationFromPage(total, page, perPage))
}

/* ===================== GENERACIÓN ===================== */
// POST /plantillas/:id/generar
func (ctrl *PlantillaController) Generar(c *fiber.Ctx) error {
	return ctrl.correr(c, false)
}

// POST /plantillas/:id/simular
func (ctrl *PlantillaController) Simular(c *fiber.Ctx) error {
	return ctrl.correr(c, true)
}

func (ctrl *PlantillaController) correr(c *fiber.Ctx, simular bool) error {
	plantillaID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ID de plantilla no válido")
	}
	var req dto.GenerarRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	op := service.OpcionesGeneracion{
		PlantillaID: plantillaID,
		PeriodoID:   req.PeriodoID,
		AlumnoIDs:   req.AlumnoIDs,
		Actor:       helper.GetActorFromToken(c),
	}

	calc := becaService.NuevaCalculadoraBecas()
	var resultado *service.ResultadoGeneracion
	if simular {
		resultado, err = service.SimularGeneracion(c.UserContext(), ctrl.DB, op, calc)
	} else {
		resultado, err = service.GenerarRecibos(c.UserContext(), ctrl.DB, op, calc)
	}
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	mensaje := "Generación completada"
	if simular {
		mensaje = "Simulación completada"
	}
	return helper.JsonOK(c, mensaje, resultado)
}
