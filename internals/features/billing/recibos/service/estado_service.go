package service

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	eventoModel "universidad_backend/internals/features/billing/eventos/model"
	pagoModel "universidad_backend/internals/features/billing/pagos/model"
	model "universidad_backend/internals/features/billing/recibos/model"
	helper "universidad_backend/internals/helpers"
)

// TotalPagado suma las aplicaciones de pago sobre todas las líneas del recibo.
// La suma se hace en Go con decimal para no depender de la aritmética del motor SQL.
func TotalPagado(tx *gorm.DB, reciboID uuid.UUID) (decimal.Decimal, error) {
	var aplicaciones []pagoModel.PagoAplicacionModel
	err := tx.
		Joins("JOIN recibo_detalles d ON d.recibo_detalle_id = pago_aplicaciones.pago_aplicacion_recibo_detalle_id").
		Where("d.recibo_detalle_recibo_id = ?", reciboID).
		Find(&aplicaciones).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range aplicaciones {
		total = total.Add(a.PagoAplicacionMonto)
	}
	return total, nil
}

// AplicadoPorDetalle regresa lo ya aplicado por línea.
func AplicadoPorDetalle(tx *gorm.DB, detalleIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(detalleIDs))
	if len(detalleIDs) == 0 {
		return out, nil
	}
	var aplicaciones []pagoModel.PagoAplicacionModel
	if err := tx.Where("pago_aplicacion_recibo_detalle_id IN ?", detalleIDs).
		Find(&aplicaciones).Error; err != nil {
		return nil, err
	}
	for _, a := range aplicaciones {
		out[a.PagoAplicacionReciboDetalleID] = out[a.PagoAplicacionReciboDetalleID].Add(a.PagoAplicacionMonto)
	}
	return out, nil
}

// RecalcularEstado es la máquina de estados del recibo. Se invoca después de
// cualquier aplicación, reversa o ajuste manual:
//
//	saldo = subtotal + recargo − descuento − totalPagado, acotado a ≥ 0
//	saldo ≤ 0  → pagado (saldo forzado a 0)
//	pagado > 0 → parcial
//	resto      → pendiente
//
// Cada invocación, incluso sin cambio de estatus, deja entrada en bitácora.
// La escritura usa compare-and-swap sobre recibo_lock_version: dos escritores
// concurrentes sobre el mismo recibo no pueden partir del mismo estado leído.
// La transición a pagado escribe el evento de outbox en la misma transacción.
func RecalcularEstado(tx *gorm.DB, reciboID uuid.UUID, actor string) (*model.ReciboModel, error) {
	var r model.ReciboModel
	if err := tx.Take(&r, "recibo_id = ?", reciboID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "Recibo no encontrado")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if r.ReciboEstatus == model.ReciboCancelado {
		return nil, fiber.NewError(fiber.StatusConflict, "El recibo está cancelado")
	}

	totalPagado, err := TotalPagado(tx, reciboID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	total := helper.Round2(r.ReciboSubtotal.Sub(r.ReciboDescuento).Add(r.ReciboRecargo))
	saldo := helper.Round2(total.Sub(totalPagado))

	estatusAnterior := r.ReciboEstatus
	saldoAnterior := r.ReciboSaldo

	var estatusNuevo model.EstatusRecibo
	switch {
	case saldo.LessThanOrEqual(decimal.Zero):
		saldo = decimal.Zero
		estatusNuevo = model.ReciboPagado
	case totalPagado.GreaterThan(decimal.Zero):
		estatusNuevo = model.ReciboParcial
	default:
		estatusNuevo = model.ReciboPendiente
	}

	res := tx.Model(&model.ReciboModel{}).
		Where("recibo_id = ? AND recibo_lock_version = ?", r.ReciboID, r.ReciboLockVersion).
		Updates(map[string]any{
			"recibo_total":        total,
			"recibo_saldo":        saldo,
			"recibo_estatus":      estatusNuevo,
			"recibo_lock_version": r.ReciboLockVersion + 1,
		})
	if res.Error != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "Modificación concurrente del recibo, reintenta la operación")
	}

	if err := RegistrarBitacora(tx, r.ReciboID, actor, model.BitacoraCambioEstatus, map[string]any{
		"estatus_anterior": estatusAnterior,
		"estatus_nuevo":    estatusNuevo,
		"saldo_anterior":   saldoAnterior.StringFixed(2),
		"saldo_nuevo":      saldo.StringFixed(2),
		"total_pagado":     totalPagado.StringFixed(2),
	}); err != nil {
		return nil, err
	}

	if estatusAnterior != model.ReciboPagado && estatusNuevo == model.ReciboPagado {
		evento := eventoModel.ReciboEventoModel{
			ReciboEventoReciboID: r.ReciboID,
			ReciboEventoTipo:     eventoModel.EventoReciboPagado,
		}
		if err := tx.Create(&evento).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	r.ReciboTotal = total
	r.ReciboSaldo = saldo
	r.ReciboEstatus = estatusNuevo
	r.ReciboLockVersion++
	return &r, nil
}
