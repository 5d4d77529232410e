package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	model "universidad_backend/internals/features/billing/recibos/model"
	service "universidad_backend/internals/features/billing/recibos/service"
)

/* =======================================================
   Requests
======================================================= */

type LineaReciboRequest struct {
	ConceptoID     *uuid.UUID      `json:"concepto_id,omitempty"`
	Descripcion    string          `json:"descripcion" validate:"required,min=3"`
	Cantidad       int             `json:"cantidad" validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required"`
}

type CreateReciboRequest struct {
	AlumnoID         *uuid.UUID           `json:"alumno_id,omitempty"`
	AspiranteID      *uuid.UUID           `json:"aspirante_id,omitempty"`
	PeriodoID        *uuid.UUID           `json:"periodo_id,omitempty"`
	FechaEmision     *time.Time           `json:"fecha_emision,omitempty"`
	FechaVencimiento time.Time            `json:"fecha_vencimiento" validate:"required"`
	Observaciones    *string              `json:"observaciones,omitempty"`
	Lineas           []LineaReciboRequest `json:"lineas" validate:"required,min=1,dive"`
}

func (r CreateReciboRequest) ToEmision() service.EmisionRecibo {
	emision := time.Now()
	if r.FechaEmision != nil {
		emision = *r.FechaEmision
	}
	e := service.EmisionRecibo{
		AlumnoID:         r.AlumnoID,
		AspiranteID:      r.AspiranteID,
		PeriodoID:        r.PeriodoID,
		FechaEmision:     emision,
		FechaVencimiento: r.FechaVencimiento,
		Observaciones:    r.Observaciones,
	}
	for _, l := range r.Lineas {
		e.Lineas = append(e.Lineas, service.LineaEmision{
			ConceptoID:     l.ConceptoID,
			Descripcion:    l.Descripcion,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
		})
	}
	return e
}

type AjustarDetalleRequest struct {
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required"`
	Cantidad       int             `json:"cantidad" validate:"required,min=1"`
	Motivo         string          `json:"motivo" validate:"required,min=5"`
}

type AjustarRecargoRequest struct {
	Recargo decimal.Decimal `json:"recargo"`
	Motivo  string          `json:"motivo" validate:"required,min=5"`
}

type MotivoRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

/* =======================================================
   Responses
======================================================= */

type ReciboResponse struct {
	ReciboID         uuid.UUID                       `json:"recibo_id"`
	Folio            string                          `json:"folio"`
	AlumnoID         *uuid.UUID                      `json:"alumno_id,omitempty"`
	AspiranteID      *uuid.UUID                      `json:"aspirante_id,omitempty"`
	PeriodoID        *uuid.UUID                      `json:"periodo_id,omitempty"`
	PlantillaID      *uuid.UUID                      `json:"plantilla_id,omitempty"`
	FechaEmision     time.Time                       `json:"fecha_emision"`
	FechaVencimiento time.Time                       `json:"fecha_vencimiento"`
	Subtotal         decimal.Decimal                 `json:"subtotal"`
	Descuento        decimal.Decimal                 `json:"descuento"`
	Recargo          decimal.Decimal                 `json:"recargo"`
	Total            decimal.Decimal                 `json:"total"`
	Saldo            decimal.Decimal                 `json:"saldo"`
	Estatus          model.EstatusRecibo             `json:"estatus"`
	Vencido          bool                            `json:"vencido"`
	Observaciones    *string                         `json:"observaciones,omitempty"`
	Lineas           []service.LineaReciboProyeccion `json:"lineas,omitempty"`
	CreatedAt        time.Time                       `json:"created_at"`
}

func FromReciboModel(m *model.ReciboModel, lineas []service.LineaReciboProyeccion) ReciboResponse {
	return ReciboResponse{
		ReciboID:         m.ReciboID,
		Folio:            m.ReciboFolio,
		AlumnoID:         m.ReciboAlumnoID,
		AspiranteID:      m.ReciboAspiranteID,
		PeriodoID:        m.ReciboPeriodoID,
		PlantillaID:      m.ReciboPlantillaID,
		FechaEmision:     m.ReciboFechaEmision,
		FechaVencimiento: m.ReciboFechaVencimiento,
		Subtotal:         m.ReciboSubtotal,
		Descuento:        m.ReciboDescuento,
		Recargo:          m.ReciboRecargo,
		Total:            m.ReciboTotal,
		Saldo:            m.ReciboSaldo,
		Estatus:          m.ReciboEstatus,
		Vencido:          m.EstaVencido(time.Now()),
		Observaciones:    m.ReciboObservaciones,
		Lineas:           lineas,
		CreatedAt:        m.CreatedAt,
	}
}

func FromReciboModels(ms []model.ReciboModel) []ReciboResponse {
	out := make([]ReciboResponse, 0, len(ms))
	for i := range ms {
		out = append(out, FromReciboModel(&ms[i], nil))
	}
	return out
}

type BitacoraResponse struct {
	BitacoraID uuid.UUID `json:"bitacora_id"`
	Actor      string    `json:"actor"`
	Accion     string    `json:"accion"`
	Detalle    any       `json:"detalle,omitempty"`
	Fecha      time.Time `json:"fecha"`
}
