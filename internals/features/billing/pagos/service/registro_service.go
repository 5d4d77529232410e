package service

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	model "universidad_backend/internals/features/billing/pagos/model"
	reciboService "universidad_backend/internals/features/billing/recibos/service"
	helper "universidad_backend/internals/helpers"
)

// ErrReferenciaDuplicada señala que ya existe un pago con la misma referencia
// externa. El webhook de la pasarela lo trata como repetición, no como falla.
var ErrReferenciaDuplicada = errors.New("ya existe un pago con esa referencia")

type RegistroPago struct {
	Fecha        time.Time
	MetodoPagoID *uuid.UUID
	Monto        decimal.Decimal
	Moneda       string
	Referencia   *string
	Notas        *string
	Cajero       *string
	Estatus      model.EstatusPago
}

// RegistrarPago da de alta el evento de dinero entrante con folio consecutivo
// del año. La aplicación contra recibos es un paso aparte (AplicarPago /
// DistribuirPago) dentro de la misma transacción del llamador.
func RegistrarPago(tx *gorm.DB, r RegistroPago) (*model.PagoModel, error) {
	if r.Monto.LessThanOrEqual(decimal.Zero) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "El monto del pago debe ser positivo")
	}
	if r.Moneda == "" {
		r.Moneda = "MXN"
	}
	if r.Estatus == "" {
		r.Estatus = model.PagoRegistrado
	}
	if r.Fecha.IsZero() {
		r.Fecha = time.Now()
	}

	pago := model.PagoModel{
		PagoFecha:        r.Fecha,
		PagoMetodoPagoID: r.MetodoPagoID,
		PagoMonto:        helper.Round2(r.Monto),
		PagoMoneda:       r.Moneda,
		PagoReferencia:   r.Referencia,
		PagoNotas:        r.Notas,
		PagoEstatus:      r.Estatus,
		PagoCajero:       r.Cajero,
	}

	for intento := 0; ; intento++ {
		folio, err := reciboService.SiguienteFolioPago(tx, r.Fecha.Year())
		if err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		pago.PagoFolio = folio
		err = tx.Create(&pago).Error
		if err == nil {
			break
		}
		if reciboService.EsViolacionUnicidad(err) {
			if r.Referencia != nil && strings.Contains(err.Error(), "referencia") {
				return nil, ErrReferenciaDuplicada
			}
			if intento == 0 {
				pago.PagoID = uuid.Nil
				continue
			}
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return &pago, nil
}
