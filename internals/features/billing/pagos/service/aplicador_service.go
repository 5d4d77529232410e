package service

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	model "universidad_backend/internals/features/billing/pagos/model"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
	reciboService "universidad_backend/internals/features/billing/recibos/service"
	helper "universidad_backend/internals/helpers"
)

type InstruccionAplicacion struct {
	ReciboDetalleID uuid.UUID
	Monto           decimal.Decimal
}

const descripcionLineaRecargo = "Recargo por pago extemporáneo"

func cargarPago(tx *gorm.DB, pagoID uuid.UUID) (*model.PagoModel, error) {
	var p model.PagoModel
	if err := tx.Take(&p, "pago_id = ?", pagoID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "Pago no encontrado")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if p.PagoEstatus == model.PagoCancelado {
		return nil, fiber.NewError(fiber.StatusConflict, "El pago está cancelado")
	}
	return &p, nil
}

func montoAplicadoDelPago(tx *gorm.DB, pagoID uuid.UUID) (decimal.Decimal, error) {
	var aplicaciones []model.PagoAplicacionModel
	if err := tx.Where("pago_aplicacion_pago_id = ?", pagoID).Find(&aplicaciones).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range aplicaciones {
		total = total.Add(a.PagoAplicacionMonto)
	}
	return total, nil
}

// AplicarPago aplica un pago con instrucciones explícitas (línea, monto).
// Mantiene los dos invariantes de conservación: por línea Σ ≤ importe y por
// pago Σ ≤ monto. Al final corre la máquina de estados una vez por recibo
// afectado y regresa los recibos actualizados.
func AplicarPago(tx *gorm.DB, pagoID uuid.UUID, instrucciones []InstruccionAplicacion, actor string) ([]*reciboModel.ReciboModel, error) {
	if len(instrucciones) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No hay instrucciones de aplicación")
	}
	pago, err := cargarPago(tx, pagoID)
	if err != nil {
		return nil, err
	}

	nuevoTotal := decimal.Zero
	for _, ins := range instrucciones {
		if ins.Monto.LessThanOrEqual(decimal.Zero) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "El monto a aplicar debe ser positivo")
		}
		nuevoTotal = nuevoTotal.Add(ins.Monto)
	}

	yaAplicado, err := montoAplicadoDelPago(tx, pagoID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if yaAplicado.Add(nuevoTotal).GreaterThan(pago.PagoMonto) {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, "La aplicación excede el monto del pago")
	}

	recibosAfectados := map[uuid.UUID]bool{}
	for _, ins := range instrucciones {
		var detalle reciboModel.ReciboDetalleModel
		if err := tx.Take(&detalle, "recibo_detalle_id = ?", ins.ReciboDetalleID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fiber.NewError(fiber.StatusNotFound, "Línea de recibo no encontrada")
			}
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		var recibo reciboModel.ReciboModel
		if err := tx.Take(&recibo, "recibo_id = ?", detalle.ReciboDetalleReciboID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if recibo.ReciboEstatus == reciboModel.ReciboCancelado {
			return nil, fiber.NewError(fiber.StatusConflict, "No se puede aplicar a un recibo cancelado")
		}

		aplicado, err := reciboService.AplicadoPorDetalle(tx, []uuid.UUID{detalle.ReciboDetalleID})
		if err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		pendiente := detalle.ReciboDetalleImporte.Sub(aplicado[detalle.ReciboDetalleID])
		if ins.Monto.GreaterThan(pendiente) {
			return nil, fiber.NewError(fiber.StatusUnprocessableEntity, "La aplicación excede el pendiente de la línea")
		}

		aplicacion := model.PagoAplicacionModel{
			PagoAplicacionPagoID:          pagoID,
			PagoAplicacionReciboDetalleID: detalle.ReciboDetalleID,
			PagoAplicacionMonto:           helper.Round2(ins.Monto),
		}
		if err := tx.Create(&aplicacion).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		recibosAfectados[recibo.ReciboID] = true
	}

	return recalcularAfectados(tx, recibosAfectados, actor)
}

// DistribuirPago reparte un monto objetivo del pago entre los recibos dados,
// en el orden que indicó el cajero; dentro de cada recibo las líneas van en
// orden estable de creación. Cubiertas las líneas normales, si queda monto y
// el recibo arrastra recargo sin línea dedicada, se sintetiza una línea de
// recargo y se le aplica el resto (topado al recargo). El sobrante queda sin
// aplicar en el pago: nunca se descarta ni se reembolsa en automático.
func DistribuirPago(tx *gorm.DB, pagoID uuid.UUID, reciboIDs []uuid.UUID, montoObjetivo decimal.Decimal, actor string) (decimal.Decimal, []*reciboModel.ReciboModel, error) {
	if len(reciboIDs) == 0 {
		return decimal.Zero, nil, fiber.NewError(fiber.StatusBadRequest, "No hay recibos destino")
	}
	if montoObjetivo.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil, fiber.NewError(fiber.StatusBadRequest, "El monto a distribuir debe ser positivo")
	}
	pago, err := cargarPago(tx, pagoID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	yaAplicado, err := montoAplicadoDelPago(tx, pagoID)
	if err != nil {
		return decimal.Zero, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if yaAplicado.Add(montoObjetivo).GreaterThan(pago.PagoMonto) {
		return decimal.Zero, nil, fiber.NewError(fiber.StatusUnprocessableEntity, "El monto a distribuir excede lo disponible del pago")
	}

	restante := montoObjetivo
	recibosAfectados := map[uuid.UUID]bool{}

	for _, reciboID := range reciboIDs {
		if restante.LessThanOrEqual(decimal.Zero) {
			break
		}

		var recibo reciboModel.ReciboModel
		if err := tx.Take(&recibo, "recibo_id = ?", reciboID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return decimal.Zero, nil, fiber.NewError(fiber.StatusNotFound, "Recibo no encontrado")
			}
			return decimal.Zero, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if recibo.ReciboEstatus == reciboModel.ReciboCancelado {
			return decimal.Zero, nil, fiber.NewError(fiber.StatusConflict, "No se puede aplicar a un recibo cancelado")
		}

		// líneas normales primero, luego las de recargo ya existentes
		var detalles []reciboModel.ReciboDetalleModel
		if err := tx.Where("recibo_detalle_recibo_id = ?", reciboID).
			Order("recibo_detalle_es_recargo ASC, recibo_detalle_created_at ASC, recibo_detalle_id ASC").
			Find(&detalles).Error; err != nil {
			return decimal.Zero, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		ids := make([]uuid.UUID, len(detalles))
		for i, d := range detalles {
			ids[i] = d.ReciboDetalleID
		}
		aplicado, err := reciboService.AplicadoPorDetalle(tx, ids)
		if err != nil {
			return decimal.Zero, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		importeLineasRecargo := decimal.Zero
		for _, d := range detalles {
			if d.ReciboDetalleEsRecargo {
				importeLineasRecargo = importeLineasRecargo.Add(d.ReciboDetalleImporte)
			}
		}

		for _, d := range detalles {
			if restante.LessThanOrEqual(decimal.Zero) {
				break
			}
			pendiente := d.ReciboDetalleImporte.Sub(aplicado[d.ReciboDetalleID])
			if pendiente.LessThanOrEqual(decimal.Zero) {
				continue
			}
			monto := decimal.Min(restante, pendiente)
			aplicacion := model.PagoAplicacionModel{
				PagoAplicacionPagoID:          pagoID,
				PagoAplicacionReciboDetalleID: d.ReciboDetalleID,
				PagoAplicacionMonto:           helper.Round2(monto),
			}
			if err := tx.Create(&aplicacion).Error; err != nil {
				return decimal.Zero, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			restante = restante.Sub(monto)
			recibosAfectados[reciboID] = true
		}

		// recargo pendiente sin línea dedicada → línea sintetizada sobre demanda
		recargoSinLinea := recibo.ReciboRecargo.Sub(importeLineasRecargo)
		if restante.GreaterThan(decimal.Zero) && recargoSinLinea.GreaterThan(decimal.Zero) {
			linea := reciboModel.ReciboDetalleModel{
				ReciboDetalleReciboID:       reciboID,
				ReciboDetalleDescripcion:    descripcionLineaRecargo,
				ReciboDetalleCantidad:       1,
				ReciboDetallePrecioUnitario: recargoSinLinea,
				ReciboDetalleImporte:        recargoSinLinea,
				ReciboDetalleEsRecargo:      true,
			}
			if err := tx.Create(&linea).Error; err != nil {
				return decimal.Zero, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			monto := decimal.Min(restante, recargoSinLinea)
			aplicacion := model.PagoAplicacionModel{
				PagoAplicacionPagoID:          pagoID,
				PagoAplicacionReciboDetalleID: linea.ReciboDetalleID,
				PagoAplicacionMonto:           helper.Round2(monto),
			}
			if err := tx.Create(&aplicacion).Error; err != nil {
				return decimal.Zero, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			restante = restante.Sub(monto)
			recibosAfectados[reciboID] = true
		}
	}

	recibos, err := recalcularAfectados(tx, recibosAfectados, actor)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return restante, recibos, nil
}

func recalcularAfectados(tx *gorm.DB, afectados map[uuid.UUID]bool, actor string) ([]*reciboModel.ReciboModel, error) {
	recibos := make([]*reciboModel.ReciboModel, 0, len(afectados))
	for reciboID := range afectados {
		r, err := reciboService.RecalcularEstado(tx, reciboID, actor)
		if err != nil {
			return nil, err
		}
		recibos = append(recibos, r)
	}
	return recibos, nil
}
