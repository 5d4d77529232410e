package controller

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	becaService "universidad_backend/internals/features/academics/service"
	eventosService "universidad_backend/internals/features/billing/eventos/service"
	recargoService "universidad_backend/internals/features/billing/recargos/service"
	"universidad_backend/internals/features/billing/recibos/dto"
	"universidad_backend/internals/features/billing/recibos/model"
	"universidad_backend/internals/features/billing/recibos/service"
	helper "universidad_backend/internals/helpers"
)

type ReciboController struct {
	DB          *gorm.DB
	Despachador *eventosService.Despachador
}

func NewReciboController(db *gorm.DB, d *eventosService.Despachador) *ReciboController {
	return &ReciboController{DB: db, Despachador: d}
}

func (ctrl *ReciboController) drenarEventos() []string {
	if ctrl.Despachador == nil {
		return nil
	}
	return ctrl.Despachador.ProcesarPendientes()
}

/* ===================== CREATE ===================== */
// POST /recibos
func (ctrl *ReciboController) Create(c *fiber.Ctx) error {
	var req dto.CreateReciboRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	actor := helper.GetActorFromToken(c)
	var recibo *model.ReciboModel
	err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		recibo, err = service.EmitirRecibo(tx, req.ToEmision(), becaService.NuevaCalculadoraBecas(), actor)
		return err
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Recibo emitido", dto.FromReciboModel(recibo, nil))
}

/* ===================== READ ===================== */
// GET /recibos
func (ctrl *ReciboController) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)
	if perPage > 100 {
		perPage = 100
	}

	q := ctrl.DB.Model(&model.ReciboModel{})
	if s := c.Query("alumno_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "alumno_id no válido")
		}
		q = q.Where("recibo_alumno_id = ?", id)
	}
	if s := c.Query("aspirante_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "aspirante_id no válido")
		}
		q = q.Where("recibo_aspirante_id = ?", id)
	}
	if s := c.Query("periodo_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "periodo_id no válido")
		}
		q = q.Where("recibo_periodo_id = ?", id)
	}
	if s := c.Query("estatus"); s != "" {
		q = q.Where("recibo_estatus = ?", s)
	}
	if s := c.Query("folio"); s != "" {
		q = q.Where("recibo_folio = ?", s)
	}
	if c.QueryBool("vencidos", false) {
		hoy := time.Now().Format("2006-01-02")
		q = q.Where("recibo_fecha_vencimiento < ? AND recibo_estatus IN ?", hoy,
			[]model.EstatusRecibo{model.ReciboPendiente, model.ReciboParcial})
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	var recibos []model.ReciboModel
	if err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&recibos).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	return helper.JsonList(c, "Recibos", dto.FromReciboModels(recibos),
		helper.BuildPaginationFromPage(total, page, perPage))
}

// GET /recibos/:id
func (ctrl *ReciboController) GetByID(c *fiber.Ctx) error {
	reciboID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ID de recibo no válido")
	}

	var recibo model.ReciboModel
	if err := ctrl.DB.Take(&recibo, "recibo_id = ?", reciboID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return helper.JsonError(c, fiber.StatusNotFound, "Recibo no encontrado")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	var detalles []model.ReciboDetalleModel
	if err := ctrl.DB.Where("recibo_detalle_recibo_id = ?", reciboID).
		Order("recibo_detalle_created_at ASC").
		Find(&detalles).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	lineas, err := service.ProyectarDetalleRecibo(ctrl.DB, &recibo, detalles)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Recibo", dto.FromReciboModel(&recibo, lineas))
}

// GET /recibos/:id/bitacora
func (ctrl *ReciboController) Bitacora(c *fiber.Ctx) error {
	reciboID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ID de recibo no válido")
	}

	var entradas []model.BitacoraReciboModel
	if err := ctrl.DB.Where("bitacora_recibo_recibo_id = ?", reciboID).
		Order("bitacora_recibo_fecha_utc ASC").
		Find(&entradas).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	out := make([]dto.BitacoraResponse, 0, len(entradas))
	for _, e := range entradas {
		var detalle any
		if len(e.BitacoraReciboDetalle) > 0 {
			_ = json.Unmarshal(e.BitacoraReciboDetalle, &detalle)
		}
		out = append(out, dto.BitacoraResponse{
			BitacoraID: e.BitacoraReciboID,
			Actor:      e.BitacoraReciboActor,
			Accion:     e.BitacoraReciboAccion,
			Detalle:    detalle,
			Fecha:      e.BitacoraReciboFechaUTC,
		})
	}
	return helper.JsonOK(c, "Bitácora del recibo", out)
}

/* ===================== MUTATIONS ===================== */
// POST /recibos/:id/cancelar
func (ctrl *ReciboController) Cancelar(c *fiber.Ctx) error {
	return ctrl.conMotivo(c, func(tx *gorm.DB, reciboID uuid.UUID, actor, motivo string) (*model.ReciboModel, error) {
		return service.Cancelar(tx, reciboID, actor, motivo)
	}, "Recibo cancelado")
}

// POST /recibos/:id/revertir
func (ctrl *ReciboController) Revertir(c *fiber.Ctx) error {
	return ctrl.conMotivo(c, func(tx *gorm.DB, reciboID uuid.UUID, actor, motivo string) (*model.ReciboModel, error) {
		return service.Revertir(tx, reciboID, actor, motivo)
	}, "Recibo revertido a pendiente")
}

// POST /recibos/:id/condonar-recargo
func (ctrl *ReciboController) CondonarRecargo(c *fiber.Ctx) error {
	return ctrl.conMotivo(c, func(tx *gorm.DB, reciboID uuid.UUID, actor, motivo string) (*model.ReciboModel, error) {
		return service.CondonarRecargo(tx, reciboID, actor, motivo)
	}, "Recargo condonado")
}

func (ctrl *ReciboController) conMotivo(c *fiber.Ctx, op func(tx *gorm.DB, reciboID uuid.UUID, actor, motivo string) (*model.ReciboModel, error), mensaje string) error {
	reciboID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ID de recibo no válido")
	}
	var req dto.MotivoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	actor := helper.GetActorFromToken(c)
	var recibo *model.ReciboModel
	err = ctrl.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		recibo, err = op(tx, reciboID, actor, req.Motivo)
		return err
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	ctrl.drenarEventos()
	return helper.JsonUpdated(c, mensaje, dto.FromReciboModel(recibo, nil))
}

// PATCH /recibos/:id/detalles/:detalleId
func (ctrl *ReciboController) AjustarDetalle(c *fiber.Ctx) error {
	reciboID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ID de recibo no válido")
	}
	detalleID, err := uuid.Parse(c.Params("detalleId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ID de línea no válido")
	}
	var req dto.AjustarDetalleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	actor := helper.GetActorFromToken(c)
	var recibo *model.ReciboModel
	err = ctrl.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		recibo, err = service.AjustarDetalle(tx, reciboID, detalleID, req.PrecioUnitario, req.Cantidad, actor, req.Motivo)
		return err
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	ctrl.drenarEventos()
	return helper.JsonUpdated(c, "Línea ajustada", dto.FromReciboModel(recibo, nil))
}

// PATCH /recibos/:id/recargo
func (ctrl *ReciboController) AjustarRecargo(c *fiber.Ctx) error {
	reciboID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ID de recibo no válido")
	}
	var req dto.AjustarRecargoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	actor := helper.GetActorFromToken(c)
	var recibo *model.ReciboModel
	err = ctrl.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		recibo, err = service.AjustarRecargo(tx, reciboID, req.Recargo, actor, req.Motivo)
		return err
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	ctrl.drenarEventos()
	return helper.JsonUpdated(c, "Recargo ajustado", dto.FromReciboModel(recibo, nil))
}

// POST /recibos/:id/recargo/recalcular
// Aplica al recibo el recargo que dicta la política activa a la fecha de hoy.
func (ctrl *ReciboController) RecalcularRecargo(c *fiber.Ctx) error {
	reciboID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ID de recibo no válido")
	}

	actor := helper.GetActorFromToken(c)
	var recibo *model.ReciboModel
	err = ctrl.DB.Transaction(func(tx *gorm.DB) error {
		politica, err := recargoService.PoliticaActiva(tx)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		recibo, err = service.ActualizarRecargoVigente(tx, reciboID, time.Now(), politica, actor)
		return err
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Recargo recalculado", dto.FromReciboModel(recibo, nil))
}
