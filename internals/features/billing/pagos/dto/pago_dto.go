package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	model "universidad_backend/internals/features/billing/pagos/model"
	service "universidad_backend/internals/features/billing/pagos/service"
	reciboDto "universidad_backend/internals/features/billing/recibos/dto"
)

type AplicacionRequest struct {
	ReciboDetalleID uuid.UUID       `json:"recibo_detalle_id" validate:"required"`
	Monto           decimal.Decimal `json:"monto" validate:"required"`
}

// CreatePagoRequest registra el pago y, opcionalmente, lo aplica en el mismo
// viaje: con Aplicaciones (modo explícito) o con DistribuirEn (modo
// automático, en el orden dado).
type CreatePagoRequest struct {
	Fecha        *time.Time      `json:"fecha,omitempty"`
	MetodoPagoID *uuid.UUID      `json:"metodo_pago_id,omitempty"`
	Monto        decimal.Decimal `json:"monto" validate:"required"`
	Moneda       string          `json:"moneda,omitempty"`
	Referencia   *string         `json:"referencia,omitempty"`
	Notas        *string         `json:"notas,omitempty"`
	Cajero       *string         `json:"cajero,omitempty"`

	Aplicaciones []AplicacionRequest `json:"aplicaciones,omitempty" validate:"omitempty,dive"`
	DistribuirEn []uuid.UUID         `json:"distribuir_en,omitempty"`
}

func (r CreatePagoRequest) ToRegistro() service.RegistroPago {
	fecha := time.Now()
	if r.Fecha != nil {
		fecha = *r.Fecha
	}
	return service.RegistroPago{
		Fecha:        fecha,
		MetodoPagoID: r.MetodoPagoID,
		Monto:        r.Monto,
		Moneda:       r.Moneda,
		Referencia:   r.Referencia,
		Notas:        r.Notas,
		Cajero:       r.Cajero,
		Estatus:      model.PagoConfirmado,
	}
}

func (r CreatePagoRequest) Instrucciones() []service.InstruccionAplicacion {
	out := make([]service.InstruccionAplicacion, 0, len(r.Aplicaciones))
	for _, a := range r.Aplicaciones {
		out = append(out, service.InstruccionAplicacion{
			ReciboDetalleID: a.ReciboDetalleID,
			Monto:           a.Monto,
		})
	}
	return out
}

type DistribuirPagoRequest struct {
	PagoID    uuid.UUID       `json:"pago_id" validate:"required"`
	ReciboIDs []uuid.UUID     `json:"recibo_ids" validate:"required,min=1"`
	Monto     decimal.Decimal `json:"monto" validate:"required"`
}

type CheckoutRequest struct {
	Nombre   string `json:"nombre" validate:"required"`
	Apellido string `json:"apellido,omitempty"`
	Email    string `json:"email" validate:"required,email"`
	Telefono string `json:"telefono,omitempty"`
}

/* =======================================================
   Responses
======================================================= */

type PagoResponse struct {
	PagoID       uuid.UUID         `json:"pago_id"`
	Folio        string            `json:"folio"`
	Fecha        time.Time         `json:"fecha"`
	MetodoPagoID *uuid.UUID        `json:"metodo_pago_id,omitempty"`
	Monto        decimal.Decimal   `json:"monto"`
	Moneda       string            `json:"moneda"`
	Referencia   *string           `json:"referencia,omitempty"`
	Notas        *string           `json:"notas,omitempty"`
	Estatus      model.EstatusPago `json:"estatus"`
	Cajero       *string           `json:"cajero,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

func FromPagoModel(m *model.PagoModel) PagoResponse {
	return PagoResponse{
		PagoID:       m.PagoID,
		Folio:        m.PagoFolio,
		Fecha:        m.PagoFecha,
		MetodoPagoID: m.PagoMetodoPagoID,
		Monto:        m.PagoMonto,
		Moneda:       m.PagoMoneda,
		Referencia:   m.PagoReferencia,
		Notas:        m.PagoNotas,
		Estatus:      m.PagoEstatus,
		Cajero:       m.PagoCajero,
		CreatedAt:    m.CreatedAt,
	}
}

type PagoAplicadoResponse struct {
	Pago         PagoResponse              `json:"pago"`
	Recibos      []reciboDto.ReciboResponse `json:"recibos,omitempty"`
	SinAplicar   decimal.Decimal           `json:"sin_aplicar"`
	Advertencias []string                  `json:"advertencias,omitempty"`
}
