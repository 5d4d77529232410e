package service

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	becaService "universidad_backend/internals/features/academics/service"
	model "universidad_backend/internals/features/billing/recibos/model"
	helper "universidad_backend/internals/helpers"
)

type LineaEmision struct {
	ConceptoID     *uuid.UUID
	Descripcion    string
	Cantidad       int
	PrecioUnitario decimal.Decimal
}

type EmisionRecibo struct {
	AlumnoID         *uuid.UUID
	AspiranteID      *uuid.UUID
	PeriodoID        *uuid.UUID
	PlantillaID      *uuid.UUID
	FechaEmision     time.Time
	FechaVencimiento time.Time
	Observaciones    *string
	Lineas           []LineaEmision

	// Referencias de plantilla por línea (misma longitud que Lineas o nil).
	PlantillaDetalleIDs []*uuid.UUID
}

// EmitirRecibo es la vía de emisión directa de un solo recibo (el generador
// por plantilla pasa por aquí también). Crea recibo y líneas en la misma
// transacción, calcula el descuento por línea vía el colaborador de becas y
// deja la entrada de emisión en bitácora.
func EmitirRecibo(tx *gorm.DB, e EmisionRecibo, calc becaService.CalculadoraBeca, actor string) (*model.ReciboModel, error) {
	if (e.AlumnoID == nil) == (e.AspiranteID == nil) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "El recibo debe tener exactamente un pagador: alumno o aspirante")
	}
	if len(e.Lineas) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "El recibo requiere al menos una línea")
	}
	for _, l := range e.Lineas {
		if l.Cantidad <= 0 || l.PrecioUnitario.IsNegative() {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Cantidad o precio unitario no válidos")
		}
	}
	if calc == nil {
		calc = becaService.SinBeca{}
	}

	subtotal := decimal.Zero
	descuento := decimal.Zero
	importes := make([]decimal.Decimal, len(e.Lineas))
	for i, l := range e.Lineas {
		importes[i] = helper.Round2(l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad))))
		subtotal = subtotal.Add(importes[i])

		if e.AlumnoID != nil {
			d, err := calc.DescuentoPara(tx, *e.AlumnoID, l.ConceptoID, importes[i], e.FechaVencimiento)
			if err != nil {
				return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			descuento = descuento.Add(d)
		}
	}
	total := helper.Round2(subtotal.Sub(descuento))
	if total.IsNegative() {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, "El descuento excede el subtotal del recibo")
	}

	recibo := model.ReciboModel{
		ReciboAlumnoID:         e.AlumnoID,
		ReciboAspiranteID:      e.AspiranteID,
		ReciboPeriodoID:        e.PeriodoID,
		ReciboPlantillaID:      e.PlantillaID,
		ReciboFechaEmision:     e.FechaEmision,
		ReciboFechaVencimiento: e.FechaVencimiento,
		ReciboSubtotal:         subtotal,
		ReciboDescuento:        descuento,
		ReciboRecargo:          decimal.Zero,
		ReciboTotal:            total,
		ReciboSaldo:            total,
		ReciboEstatus:          model.ReciboPendiente,
		ReciboObservaciones:    e.Observaciones,
	}

	// Dos intentos: el folio se deriva por consulta, otro emisor pudo ganarnos.
	for intento := 0; ; intento++ {
		folio, err := SiguienteFolioRecibo(tx, e.FechaEmision.Year())
		if err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		recibo.ReciboFolio = folio
		err = tx.Create(&recibo).Error
		if err == nil {
			break
		}
		if EsViolacionUnicidad(err) && intento == 0 {
			recibo.ReciboID = uuid.Nil
			continue
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	for i, l := range e.Lineas {
		detalle := model.ReciboDetalleModel{
			ReciboDetalleReciboID:       recibo.ReciboID,
			ReciboDetalleConceptoID:     l.ConceptoID,
			ReciboDetalleDescripcion:    l.Descripcion,
			ReciboDetalleCantidad:       l.Cantidad,
			ReciboDetallePrecioUnitario: l.PrecioUnitario,
			ReciboDetalleImporte:        importes[i],
		}
		if e.PlantillaDetalleIDs != nil && i < len(e.PlantillaDetalleIDs) {
			detalle.ReciboDetallePlantillaDetalleID = e.PlantillaDetalleIDs[i]
		}
		if err := tx.Create(&detalle).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	if err := RegistrarBitacora(tx, recibo.ReciboID, actor, model.BitacoraEmision, map[string]any{
		"folio":     recibo.ReciboFolio,
		"subtotal":  subtotal.StringFixed(2),
		"descuento": descuento.StringFixed(2),
		"total":     total.StringFixed(2),
	}); err != nil {
		return nil, err
	}

	return &recibo, nil
}
