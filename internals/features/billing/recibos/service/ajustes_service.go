package service

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	recargoModel "universidad_backend/internals/features/billing/recargos/model"
	recargoService "universidad_backend/internals/features/billing/recargos/service"
	model "universidad_backend/internals/features/billing/recibos/model"
	helper "universidad_backend/internals/helpers"
)

// Los ajustes manuales (precio de línea, recargo, condonación) sólo proceden
// mientras el recibo no esté pagado, exigen motivo y dejan en bitácora los
// valores monetarios antes/después. Cada ajuste recalcula subtotal/total/saldo
// con la misma regla de acotar-y-clasificar de la máquina de estados.

func validarAjustable(r *model.ReciboModel, motivo string) error {
	if strings.TrimSpace(motivo) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "El motivo del ajuste es obligatorio")
	}
	if r.ReciboEstatus == model.ReciboPagado {
		return fiber.NewError(fiber.StatusConflict, "No se puede ajustar un recibo pagado")
	}
	if r.ReciboEstatus == model.ReciboCancelado {
		return fiber.NewError(fiber.StatusConflict, "No se puede ajustar un recibo cancelado")
	}
	return nil
}

// subtotalDeDetalles suma los importes de las líneas vivas, excluyendo las
// líneas sintetizadas de recargo (ésas se cobran vía el campo recargo).
func subtotalDeDetalles(tx *gorm.DB, reciboID uuid.UUID) (decimal.Decimal, error) {
	var detalles []model.ReciboDetalleModel
	if err := tx.Where("recibo_detalle_recibo_id = ? AND recibo_detalle_es_recargo = ?", reciboID, false).
		Find(&detalles).Error; err != nil {
		return decimal.Zero, err
	}
	subtotal := decimal.Zero
	for _, d := range detalles {
		subtotal = subtotal.Add(d.ReciboDetalleImporte)
	}
	return subtotal, nil
}

// AjustarDetalle cambia precio unitario y/o cantidad de una línea y recalcula.
func AjustarDetalle(tx *gorm.DB, reciboID, detalleID uuid.UUID, nuevoPrecio decimal.Decimal, nuevaCantidad int, actor, motivo string) (*model.ReciboModel, error) {
	r, err := cargarRecibo(tx, reciboID)
	if err != nil {
		return nil, err
	}
	if err := validarAjustable(r, motivo); err != nil {
		return nil, err
	}
	if nuevoPrecio.IsNegative() || nuevaCantidad <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Precio o cantidad no válidos")
	}

	var d model.ReciboDetalleModel
	if err := tx.Take(&d, "recibo_detalle_id = ? AND recibo_detalle_recibo_id = ?", detalleID, reciboID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "Línea de recibo no encontrada")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if d.ReciboDetalleEsRecargo {
		return nil, fiber.NewError(fiber.StatusConflict, "La línea de recargo se ajusta con el ajuste de recargo")
	}

	nuevoImporte := helper.Round2(nuevoPrecio.Mul(decimal.NewFromInt(int64(nuevaCantidad))))

	// El importe no puede quedar por debajo de lo ya aplicado a la línea.
	aplicado, err := AplicadoPorDetalle(tx, []uuid.UUID{d.ReciboDetalleID})
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if nuevoImporte.LessThan(aplicado[d.ReciboDetalleID]) {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, "El nuevo importe es menor a lo ya pagado en la línea")
	}

	importeAnterior := d.ReciboDetalleImporte
	precioAnterior := d.ReciboDetallePrecioUnitario

	if err := tx.Model(&model.ReciboDetalleModel{}).
		Where("recibo_detalle_id = ?", d.ReciboDetalleID).
		Updates(map[string]any{
			"recibo_detalle_precio_unitario": nuevoPrecio,
			"recibo_detalle_cantidad":        nuevaCantidad,
			"recibo_detalle_importe":         nuevoImporte,
		}).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	subtotal, err := subtotalDeDetalles(tx, reciboID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	// Sin saldos a favor: el descuento no puede exceder subtotal + recargo.
	if r.ReciboDescuento.GreaterThan(subtotal.Add(r.ReciboRecargo)) {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, "El ajuste dejaría el descuento por encima del total")
	}

	if err := tx.Model(&model.ReciboModel{}).
		Where("recibo_id = ?", reciboID).
		Update("recibo_subtotal", subtotal).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if err := RegistrarBitacora(tx, reciboID, actor, model.BitacoraAjusteDetalle, map[string]any{
		"detalle_id":       d.ReciboDetalleID,
		"precio_anterior":  precioAnterior.StringFixed(2),
		"precio_nuevo":     nuevoPrecio.StringFixed(2),
		"importe_anterior": importeAnterior.StringFixed(2),
		"importe_nuevo":    nuevoImporte.StringFixed(2),
		"motivo":           motivo,
	}); err != nil {
		return nil, err
	}

	return RecalcularEstado(tx, reciboID, actor)
}

// AjustarRecargo fija manualmente el recargo del recibo. Rearma el cómputo por
// política: retira el marcador de condonación si lo había.
func AjustarRecargo(tx *gorm.DB, reciboID uuid.UUID, nuevoRecargo decimal.Decimal, actor, motivo string) (*model.ReciboModel, error) {
	r, err := cargarRecibo(tx, reciboID)
	if err != nil {
		return nil, err
	}
	if err := validarAjustable(r, motivo); err != nil {
		return nil, err
	}
	if nuevoRecargo.IsNegative() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "El recargo no puede ser negativo")
	}
	nuevoRecargo = helper.Round2(nuevoRecargo)

	if r.ReciboDescuento.GreaterThan(r.ReciboSubtotal.Add(nuevoRecargo)) {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, "El ajuste dejaría el descuento por encima del total")
	}

	cambios := map[string]any{"recibo_recargo": nuevoRecargo}
	if r.ReciboObservaciones != nil && strings.Contains(*r.ReciboObservaciones, model.MarcadorRecargoCondonado) {
		limpio := strings.TrimSpace(strings.ReplaceAll(*r.ReciboObservaciones, model.MarcadorRecargoCondonado, ""))
		cambios["recibo_observaciones"] = limpio
	}
	if err := tx.Model(&model.ReciboModel{}).
		Where("recibo_id = ?", reciboID).
		Updates(cambios).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if err := RegistrarBitacora(tx, reciboID, actor, model.BitacoraAjusteRecargo, map[string]any{
		"recargo_anterior": r.ReciboRecargo.StringFixed(2),
		"recargo_nuevo":    nuevoRecargo.StringFixed(2),
		"motivo":           motivo,
	}); err != nil {
		return nil, err
	}

	return RecalcularEstado(tx, reciboID, actor)
}

// CondonarRecargo perdona el recargo vigente: recargo a 0, marcador en
// observaciones y entrada de bitácora. De una sola vía hasta el próximo
// ajuste manual de recargo.
func CondonarRecargo(tx *gorm.DB, reciboID uuid.UUID, actor, motivo string) (*model.ReciboModel, error) {
	r, err := cargarRecibo(tx, reciboID)
	if err != nil {
		return nil, err
	}
	if err := validarAjustable(r, motivo); err != nil {
		return nil, err
	}

	// Si hay línea de recargo sintetizada con pagos encima, primero reversa.
	var lineasRecargo []model.ReciboDetalleModel
	if err := tx.Where("recibo_detalle_recibo_id = ? AND recibo_detalle_es_recargo = ?", reciboID, true).
		Find(&lineasRecargo).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if len(lineasRecargo) > 0 {
		ids := make([]uuid.UUID, 0, len(lineasRecargo))
		for _, l := range lineasRecargo {
			ids = append(ids, l.ReciboDetalleID)
		}
		aplicado, err := AplicadoPorDetalle(tx, ids)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		for _, monto := range aplicado {
			if monto.GreaterThan(decimal.Zero) {
				return nil, fiber.NewError(fiber.StatusConflict, "El recargo ya tiene pagos aplicados; reversa antes de condonar")
			}
		}
		if err := tx.Where("recibo_detalle_id IN ?", ids).
			Delete(&model.ReciboDetalleModel{}).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	obs := model.MarcadorRecargoCondonado
	if r.ReciboObservaciones != nil && strings.TrimSpace(*r.ReciboObservaciones) != "" {
		obs = strings.TrimSpace(*r.ReciboObservaciones) + " " + model.MarcadorRecargoCondonado
	}
	if err := tx.Model(&model.ReciboModel{}).
		Where("recibo_id = ?", reciboID).
		Updates(map[string]any{
			"recibo_recargo":       decimal.Zero,
			"recibo_observaciones": obs,
		}).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if err := RegistrarBitacora(tx, reciboID, actor, model.BitacoraRecargoCondonado, map[string]any{
		"recargo_anterior": r.ReciboRecargo.StringFixed(2),
		"motivo":           motivo,
	}); err != nil {
		return nil, err
	}

	return RecalcularEstado(tx, reciboID, actor)
}

// ActualizarRecargoVigente aplica al recibo el recargo que la política activa
// dicta hoy. Un recargo condonado no se recalcula hacia arriba.
func ActualizarRecargoVigente(tx *gorm.DB, reciboID uuid.UUID, hoy time.Time, politica *recargoModel.PoliticaRecargoModel, actor string) (*model.ReciboModel, error) {
	r, err := cargarRecibo(tx, reciboID)
	if err != nil {
		return nil, err
	}
	if r.ReciboEstatus == model.ReciboPagado || r.ReciboEstatus == model.ReciboCancelado {
		return r, nil
	}

	condonado, err := recargoService.RecargoCondonado(tx, r)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if condonado {
		return r, nil
	}

	recargo := recargoService.CalcularRecargo(r, hoy, politica, false)
	if recargo.Equal(r.ReciboRecargo) {
		return r, nil
	}

	if err := tx.Model(&model.ReciboModel{}).
		Where("recibo_id = ?", reciboID).
		Update("recibo_recargo", recargo).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if err := RegistrarBitacora(tx, reciboID, actor, model.BitacoraAjusteRecargo, map[string]any{
		"recargo_anterior": r.ReciboRecargo.StringFixed(2),
		"recargo_nuevo":    recargo.StringFixed(2),
		"motivo":           "recargo por política vigente",
	}); err != nil {
		return nil, err
	}

	return RecalcularEstado(tx, reciboID, actor)
}
