package service

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pagoModel "universidad_backend/internals/features/billing/pagos/model"
	model "universidad_backend/internals/features/billing/recibos/model"
	helper "universidad_backend/internals/helpers"
)

func cargarRecibo(tx *gorm.DB, reciboID uuid.UUID) (*model.ReciboModel, error) {
	var r model.ReciboModel
	if err := tx.Take(&r, "recibo_id = ?", reciboID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "Recibo no encontrado")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &r, nil
}

func aplicacionesDelRecibo(tx *gorm.DB, reciboID uuid.UUID) ([]pagoModel.PagoAplicacionModel, error) {
	var aplicaciones []pagoModel.PagoAplicacionModel
	err := tx.
		Joins("JOIN recibo_detalles d ON d.recibo_detalle_id = pago_aplicaciones.pago_aplicacion_recibo_detalle_id").
		Where("d.recibo_detalle_recibo_id = ?", reciboID).
		Find(&aplicaciones).Error
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return aplicaciones, nil
}

// Cancelar anula un recibo sin pagos. Sólo procede con cero aplicaciones en
// todas sus líneas; deja saldo 0, estatus cancelado y bitácora con el estatus
// previo y el motivo del solicitante. Un recibo con pagos se reversa primero.
func Cancelar(tx *gorm.DB, reciboID uuid.UUID, actor, motivo string) (*model.ReciboModel, error) {
	r, err := cargarRecibo(tx, reciboID)
	if err != nil {
		return nil, err
	}
	if r.ReciboEstatus == model.ReciboCancelado {
		return nil, fiber.NewError(fiber.StatusConflict, "El recibo ya está cancelado")
	}

	aplicaciones, err := aplicacionesDelRecibo(tx, reciboID)
	if err != nil {
		return nil, err
	}
	if len(aplicaciones) > 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "El recibo tiene pagos aplicados; reversa antes de cancelar")
	}

	res := tx.Model(&model.ReciboModel{}).
		Where("recibo_id = ? AND recibo_lock_version = ?", r.ReciboID, r.ReciboLockVersion).
		Updates(map[string]any{
			"recibo_saldo":        decimal.Zero,
			"recibo_estatus":      model.ReciboCancelado,
			"recibo_lock_version": r.ReciboLockVersion + 1,
		})
	if res.Error != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "Modificación concurrente del recibo, reintenta la operación")
	}

	if err := RegistrarBitacora(tx, r.ReciboID, actor, model.BitacoraCancelacion, map[string]any{
		"estatus_anterior": r.ReciboEstatus,
		"saldo_anterior":   r.ReciboSaldo.StringFixed(2),
		"motivo":           motivo,
	}); err != nil {
		return nil, err
	}

	r.ReciboSaldo = decimal.Zero
	r.ReciboEstatus = model.ReciboCancelado
	r.ReciboLockVersion++
	return r, nil
}

// Revertir deshace todas las aplicaciones del recibo y lo regresa a pendiente
// como si nunca se hubiera pagado: saldo = subtotal + recargo − descuento.
// Sin aplicaciones es un reinicio válido (no-op si ya estaba ahí) — repetir la
// reversa no es error. Los pagos jamás se tocan: pueden quedar sin aplicar.
func Revertir(tx *gorm.DB, reciboID uuid.UUID, actor, motivo string) (*model.ReciboModel, error) {
	r, err := cargarRecibo(tx, reciboID)
	if err != nil {
		return nil, err
	}
	if r.ReciboEstatus == model.ReciboCancelado {
		return nil, fiber.NewError(fiber.StatusConflict, "No se puede revertir un recibo cancelado")
	}

	aplicaciones, err := aplicacionesDelRecibo(tx, reciboID)
	if err != nil {
		return nil, err
	}

	totalRevertido := decimal.Zero
	porPago := map[uuid.UUID]decimal.Decimal{}
	for _, a := range aplicaciones {
		porPago[a.PagoAplicacionPagoID] = porPago[a.PagoAplicacionPagoID].Add(a.PagoAplicacionMonto)
		totalRevertido = totalRevertido.Add(a.PagoAplicacionMonto)
	}

	if len(aplicaciones) > 0 {
		ids := make([]uuid.UUID, 0, len(aplicaciones))
		for _, a := range aplicaciones {
			ids = append(ids, a.PagoAplicacionID)
		}
		if err := tx.Where("pago_aplicacion_id IN ?", ids).
			Delete(&pagoModel.PagoAplicacionModel{}).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		// una entrada por pago afectado, con el monto que se le revirtió
		for pagoID, monto := range porPago {
			if err := RegistrarBitacora(tx, r.ReciboID, actor, model.BitacoraReversaPago, map[string]any{
				"pago_id":          pagoID,
				"monto_revertido":  monto.StringFixed(2),
			}); err != nil {
				return nil, err
			}
		}
	}

	saldo := helper.Round2(r.ReciboSubtotal.Add(r.ReciboRecargo).Sub(r.ReciboDescuento))
	if saldo.LessThan(decimal.Zero) {
		saldo = decimal.Zero
	}

	res := tx.Model(&model.ReciboModel{}).
		Where("recibo_id = ? AND recibo_lock_version = ?", r.ReciboID, r.ReciboLockVersion).
		Updates(map[string]any{
			"recibo_saldo":        saldo,
			"recibo_estatus":      model.ReciboPendiente,
			"recibo_lock_version": r.ReciboLockVersion + 1,
		})
	if res.Error != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "Modificación concurrente del recibo, reintenta la operación")
	}

	if err := RegistrarBitacora(tx, r.ReciboID, actor, model.BitacoraReversa, map[string]any{
		"estatus_anterior": r.ReciboEstatus,
		"saldo_anterior":   r.ReciboSaldo.StringFixed(2),
		"saldo_nuevo":      saldo.StringFixed(2),
		"total_revertido":  totalRevertido.StringFixed(2),
		"motivo":           motivo,
	}); err != nil {
		return nil, err
	}

	r.ReciboSaldo = saldo
	r.ReciboEstatus = model.ReciboPendiente
	r.ReciboLockVersion++
	return r, nil
}
