package controller

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	configs "universidad_backend/internals/configs"
	academicsModel "universidad_backend/internals/features/academics/model"
	eventosService "universidad_backend/internals/features/billing/eventos/service"
	"universidad_backend/internals/features/billing/pagos/dto"
	"universidad_backend/internals/features/billing/pagos/model"
	"universidad_backend/internals/features/billing/pagos/service"
	reciboDto "universidad_backend/internals/features/billing/recibos/dto"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
	helper "universidad_backend/internals/helpers"
)

type PagoController struct {
	DB          *gorm.DB
	Despachador *eventosService.Despachador
}

func NewPagoController(db *gorm.DB, d *eventosService.Despachador) *PagoController {
	return &PagoController{DB: db, Despachador: d}
}

func (ctrl *PagoController) drenarEventos() []string {
	if ctrl.Despachador == nil {
		return nil
	}
	return ctrl.Despachador.ProcesarPendientes()
}

/* ===================== CREATE + APLICAR ===================== */
// POST /pagos
func (ctrl *PagoController) Create(c *fiber.Ctx) error {
	var req dto.CreatePagoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if len(req.Aplicaciones) > 0 && len(req.DistribuirEn) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Usa aplicaciones o distribuir_en, no ambos")
	}

	actor := helper.GetActorFromToken(c)
	var pago *model.PagoModel
	var recibos []*reciboModel.ReciboModel
	sinAplicar := decimal.Zero

	err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		pago, err = service.RegistrarPago(tx, req.ToRegistro())
		if err != nil {
			return err
		}
		sinAplicar = pago.PagoMonto

		switch {
		case len(req.Aplicaciones) > 0:
			recibos, err = service.AplicarPago(tx, pago.PagoID, req.Instrucciones(), actor)
			if err != nil {
				return err
			}
			aplicado := decimal.Zero
			for _, a := range req.Aplicaciones {
				aplicado = aplicado.Add(a.Monto)
			}
			sinAplicar = pago.PagoMonto.Sub(aplicado)
		case len(req.DistribuirEn) > 0:
			sinAplicar, recibos, err = service.DistribuirPago(tx, pago.PagoID, req.DistribuirEn, pago.PagoMonto, actor)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	advertencias := ctrl.drenarEventos()
	return helper.JsonCreated(c, "Pago registrado", dto.PagoAplicadoResponse{
		Pago:         dto.FromPagoModel(pago),
		Recibos:      respuestasRecibo(recibos),
		SinAplicar:   sinAplicar,
		Advertencias: advertencias,
	})
}

// POST /pagos/distribuir
func (ctrl *PagoController) Distribuir(c *fiber.Ctx) error {
	var req dto.DistribuirPagoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	actor := helper.GetActorFromToken(c)
	var pago *model.PagoModel
	var recibos []*reciboModel.ReciboModel
	sinAplicar := decimal.Zero

	err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		sinAplicar, recibos, err = service.DistribuirPago(tx, req.PagoID, req.ReciboIDs, req.Monto, actor)
		if err != nil {
			return err
		}
		var p model.PagoModel
		if err := tx.Take(&p, "pago_id = ?", req.PagoID).Error; err != nil {
			return err
		}
		pago = &p
		return nil
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	advertencias := ctrl.drenarEventos()
	return helper.JsonUpdated(c, "Pago distribuido", dto.PagoAplicadoResponse{
		Pago:         dto.FromPagoModel(pago),
		Recibos:      respuestasRecibo(recibos),
		SinAplicar:   sinAplicar,
		Advertencias: advertencias,
	})
}

/* ===================== READS ===================== */
// GET /pagos/:id/comprobante
func (ctrl *PagoController) Comprobante(c *fiber.Ctx) error {
	pagoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ID de pago no válido")
	}
	comprobante, err := service.ComprobantePago(ctrl.DB, pagoID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Comprobante de pago", comprobante)
}

// GET /pagos/corte?desde=YYYY-MM-DD&hasta=YYYY-MM-DD
func (ctrl *PagoController) Corte(c *fiber.Ctx) error {
	desde, err := time.Parse("2006-01-02", c.Query("desde"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Parámetro desde no válido (YYYY-MM-DD)")
	}
	hasta, err := time.Parse("2006-01-02", c.Query("hasta"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Parámetro hasta no válido (YYYY-MM-DD)")
	}
	hasta = hasta.Add(24*time.Hour - time.Nanosecond)

	corte, err := service.CorteCaja(ctrl.DB, desde, hasta)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Corte de caja", corte)
}

/* ===================== PASARELA ===================== */
// POST /pagos/checkout/:folio
func (ctrl *PagoController) Checkout(c *fiber.Ctx) error {
	folio := c.Params("folio")
	if folio == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Folio de recibo requerido")
	}
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	v := validator.New()
	if err := v.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	token, redirectURL, err := service.GenerarCheckout(ctrl.DB, folio, service.ClienteCheckout{
		Nombre:   req.Nombre,
		Apellido: req.Apellido,
		Email:    req.Email,
		Telefono: req.Telefono,
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Checkout creado", fiber.Map{
		"token":        token,
		"redirect_url": redirectURL,
	})
}

// POST /pagos/notificacion
func (ctrl *PagoController) Notificacion(c *fiber.Ctx) error {
	var n service.NotificacionPasarela
	if err := c.BodyParser(&n); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload no válido")
	}
	if !service.VerificarFirma(n, configs.MidtransServerKey) {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Firma de notificación no válida")
	}

	if err := service.ProcesarNotificacion(ctrl.DB, n, ctrl.metodoEnLineaID()); err != nil {
		return helper.FromFiberError(c, err)
	}
	ctrl.drenarEventos()
	return helper.JsonOK(c, "Notificación procesada", nil)
}

func (ctrl *PagoController) metodoEnLineaID() *uuid.UUID {
	var m academicsModel.MetodoPagoModel
	err := ctrl.DB.Take(&m, "metodo_pago_nombre = ?", "En línea").Error
	if err != nil {
		return nil
	}
	id := m.MetodoPagoID
	return &id
}

func respuestasRecibo(recibos []*reciboModel.ReciboModel) []reciboDto.ReciboResponse {
	out := make([]reciboDto.ReciboResponse, 0, len(recibos))
	for _, r := range recibos {
		out = append(out, reciboDto.FromReciboModel(r, nil))
	}
	return out
}
