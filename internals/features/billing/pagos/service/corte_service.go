package service

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	academicsModel "universidad_backend/internals/features/academics/model"
	model "universidad_backend/internals/features/billing/pagos/model"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
)

// Proyecciones de sólo-lectura para caja y comprobantes. No agregan reglas:
// todo lo monetario ya fue calculado por el motor.

type ResumenMetodo struct {
	MetodoPagoID     *uuid.UUID      `json:"metodo_pago_id,omitempty"`
	MetodoPagoNombre string          `json:"metodo_pago_nombre"`
	NumPagos         int             `json:"num_pagos"`
	Total            decimal.Decimal `json:"total"`
}

type CorteCajaResultado struct {
	Desde   time.Time       `json:"desde"`
	Hasta   time.Time       `json:"hasta"`
	Totales []ResumenMetodo `json:"totales"`
	Total   decimal.Decimal `json:"total"`
}

// CorteCaja agrupa los pagos no cancelados del rango por método de pago.
func CorteCaja(db *gorm.DB, desde, hasta time.Time) (*CorteCajaResultado, error) {
	var pagos []model.PagoModel
	err := db.Where("pago_fecha >= ? AND pago_fecha <= ? AND pago_estatus <> ?",
		desde, hasta, model.PagoCancelado).
		Find(&pagos).Error
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var metodos []academicsModel.MetodoPagoModel
	if err := db.Find(&metodos).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	nombres := make(map[uuid.UUID]string, len(metodos))
	for _, m := range metodos {
		nombres[m.MetodoPagoID] = m.MetodoPagoNombre
	}

	porMetodo := map[string]*ResumenMetodo{}
	orden := []string{}
	granTotal := decimal.Zero
	for _, p := range pagos {
		clave := "sin_metodo"
		nombre := "Sin método"
		if p.PagoMetodoPagoID != nil {
			clave = p.PagoMetodoPagoID.String()
			if n, ok := nombres[*p.PagoMetodoPagoID]; ok {
				nombre = n
			} else {
				nombre = "Desconocido"
			}
		}
		res, ok := porMetodo[clave]
		if !ok {
			res = &ResumenMetodo{MetodoPagoID: p.PagoMetodoPagoID, MetodoPagoNombre: nombre}
			porMetodo[clave] = res
			orden = append(orden, clave)
		}
		res.NumPagos++
		res.Total = res.Total.Add(p.PagoMonto)
		granTotal = granTotal.Add(p.PagoMonto)
	}

	resultado := &CorteCajaResultado{Desde: desde, Hasta: hasta, Total: granTotal}
	for _, clave := range orden {
		resultado.Totales = append(resultado.Totales, *porMetodo[clave])
	}
	return resultado, nil
}

type ComprobanteLinea struct {
	ReciboFolio   string          `json:"recibo_folio"`
	Descripcion   string          `json:"descripcion"`
	MontoAplicado decimal.Decimal `json:"monto_aplicado"`
}

type ComprobantePagoResultado struct {
	Pago        model.PagoModel    `json:"pago"`
	Lineas      []ComprobanteLinea `json:"lineas"`
	Aplicado    decimal.Decimal    `json:"aplicado"`
	SinAplicar  decimal.Decimal    `json:"sin_aplicar"`
}

// ComprobantePago arma la proyección para imprimir el comprobante: el pago y
// sus aplicaciones con folio de recibo y descripción de línea.
func ComprobantePago(db *gorm.DB, pagoID uuid.UUID) (*ComprobantePagoResultado, error) {
	pago, err := cargarPagoLectura(db, pagoID)
	if err != nil {
		return nil, err
	}

	var aplicaciones []model.PagoAplicacionModel
	if err := db.Where("pago_aplicacion_pago_id = ?", pagoID).
		Order("pago_aplicacion_created_at ASC").
		Find(&aplicaciones).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	resultado := &ComprobantePagoResultado{Pago: *pago}
	aplicado := decimal.Zero
	for _, a := range aplicaciones {
		var detalle reciboModel.ReciboDetalleModel
		if err := db.Take(&detalle, "recibo_detalle_id = ?", a.PagoAplicacionReciboDetalleID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		var recibo reciboModel.ReciboModel
		if err := db.Take(&recibo, "recibo_id = ?", detalle.ReciboDetalleReciboID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		resultado.Lineas = append(resultado.Lineas, ComprobanteLinea{
			ReciboFolio:   recibo.ReciboFolio,
			Descripcion:   detalle.ReciboDetalleDescripcion,
			MontoAplicado: a.PagoAplicacionMonto,
		})
		aplicado = aplicado.Add(a.PagoAplicacionMonto)
	}
	resultado.Aplicado = aplicado
	resultado.SinAplicar = pago.PagoMonto.Sub(aplicado)
	return resultado, nil
}

func cargarPagoLectura(db *gorm.DB, pagoID uuid.UUID) (*model.PagoModel, error) {
	var p model.PagoModel
	if err := db.Take(&p, "pago_id = ?", pagoID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "Pago no encontrado")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &p, nil
}
