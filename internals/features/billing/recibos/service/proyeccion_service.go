package service

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	model "universidad_backend/internals/features/billing/recibos/model"
)

// LineaReciboProyeccion es el desglose de lectura de una línea con el
// descuento prorrateado. El prorrateo es informativo: el valor normativo es
// el descuento agregado del recibo.
type LineaReciboProyeccion struct {
	ReciboDetalleID      uuid.UUID       `json:"recibo_detalle_id"`
	Descripcion          string          `json:"descripcion"`
	Cantidad             int             `json:"cantidad"`
	PrecioUnitario       decimal.Decimal `json:"precio_unitario"`
	Importe              decimal.Decimal `json:"importe"`
	DescuentoProrrateado decimal.Decimal `json:"descuento_prorrateado"`
	ImporteNeto          decimal.Decimal `json:"importe_neto"`
	Aplicado             decimal.Decimal `json:"aplicado"`
	EsRecargo            bool            `json:"es_recargo"`
}

func ProyectarDetalleRecibo(db *gorm.DB, recibo *model.ReciboModel, detalles []model.ReciboDetalleModel) ([]LineaReciboProyeccion, error) {
	ids := make([]uuid.UUID, len(detalles))
	for i, d := range detalles {
		ids[i] = d.ReciboDetalleID
	}
	aplicado, err := AplicadoPorDetalle(db, ids)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	lineas := make([]LineaReciboProyeccion, 0, len(detalles))
	for _, d := range detalles {
		prorrateado := decimal.Zero
		if !d.ReciboDetalleEsRecargo {
			prorrateado = ProrratearDescuento(d.ReciboDetalleImporte, recibo.ReciboDescuento, recibo.ReciboSubtotal)
		}
		lineas = append(lineas, LineaReciboProyeccion{
			ReciboDetalleID:      d.ReciboDetalleID,
			Descripcion:          d.ReciboDetalleDescripcion,
			Cantidad:             d.ReciboDetalleCantidad,
			PrecioUnitario:       d.ReciboDetallePrecioUnitario,
			Importe:              d.ReciboDetalleImporte,
			DescuentoProrrateado: prorrateado,
			ImporteNeto:          d.ReciboDetalleImporte.Sub(prorrateado),
			Aplicado:             aplicado[d.ReciboDetalleID],
			EsRecargo:            d.ReciboDetalleEsRecargo,
		})
	}
	return lineas, nil
}
