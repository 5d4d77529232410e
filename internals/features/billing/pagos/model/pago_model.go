package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EstatusPago string

const (
	PagoRegistrado EstatusPago = "registrado"
	PagoConfirmado EstatusPago = "confirmado"
	PagoCancelado  EstatusPago = "cancelado"
)

// PagoModel es un evento de dinero entrante (efectivo/tarjeta/transferencia).
// Inmutable una vez que existen aplicaciones en su contra, salvo reversa explícita.
type PagoModel struct {
	PagoID    uuid.UUID `gorm:"column:pago_id;type:uuid;primaryKey" json:"pago_id"`
	PagoFolio string    `gorm:"column:pago_folio;type:varchar(20);not null;uniqueIndex" json:"pago_folio"`

	PagoFecha        time.Time  `gorm:"column:pago_fecha;type:date;not null" json:"pago_fecha"`
	PagoMetodoPagoID *uuid.UUID `gorm:"column:pago_metodo_pago_id;type:uuid;index:idx_pagos_metodo" json:"pago_metodo_pago_id,omitempty"`

	PagoMonto  decimal.Decimal `gorm:"column:pago_monto;type:decimal(12,2);not null" json:"pago_monto"`
	PagoMoneda string          `gorm:"column:pago_moneda;type:varchar(3);not null;default:MXN" json:"pago_moneda"`

	// Referencia externa (transaction_id de la pasarela). Única cuando existe:
	// la idempotencia del webhook descansa en este índice.
	PagoReferencia *string `gorm:"column:pago_referencia;type:text;uniqueIndex" json:"pago_referencia,omitempty"`
	PagoNotas      *string `gorm:"column:pago_notas;type:text" json:"pago_notas,omitempty"`

	PagoEstatus EstatusPago `gorm:"column:pago_estatus;type:varchar(20);not null;default:registrado" json:"pago_estatus"`
	PagoCajero  *string     `gorm:"column:pago_cajero;type:varchar(80)" json:"pago_cajero,omitempty"`

	CreatedAt time.Time      `gorm:"column:pago_created_at;autoCreateTime" json:"pago_created_at"`
	UpdatedAt *time.Time     `gorm:"column:pago_updated_at;autoUpdateTime" json:"pago_updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"column:pago_deleted_at;index" json:"-"`
}

func (PagoModel) TableName() string { return "pagos" }

func (m *PagoModel) BeforeCreate(tx *gorm.DB) error {
	if m.PagoID == uuid.Nil {
		m.PagoID = uuid.New()
	}
	return nil
}

// PagoAplicacionModel es el único dueño de la relación N:M pago↔línea de recibo.
// Invariantes: por línea Σ aplicaciones ≤ importe; por pago Σ aplicaciones ≤ monto.
type PagoAplicacionModel struct {
	PagoAplicacionID              uuid.UUID       `gorm:"column:pago_aplicacion_id;type:uuid;primaryKey" json:"pago_aplicacion_id"`
	PagoAplicacionPagoID          uuid.UUID       `gorm:"column:pago_aplicacion_pago_id;type:uuid;not null;index:idx_pago_aplicaciones_pago" json:"pago_aplicacion_pago_id"`
	PagoAplicacionReciboDetalleID uuid.UUID       `gorm:"column:pago_aplicacion_recibo_detalle_id;type:uuid;not null;index:idx_pago_aplicaciones_detalle" json:"pago_aplicacion_recibo_detalle_id"`
	PagoAplicacionMonto           decimal.Decimal `gorm:"column:pago_aplicacion_monto;type:decimal(12,2);not null" json:"pago_aplicacion_monto"`
	CreatedAt                     time.Time       `gorm:"column:pago_aplicacion_created_at;autoCreateTime" json:"pago_aplicacion_created_at"`
}

func (PagoAplicacionModel) TableName() string { return "pago_aplicaciones" }

func (m *PagoAplicacionModel) BeforeCreate(tx *gorm.DB) error {
	if m.PagoAplicacionID == uuid.Nil {
		m.PagoAplicacionID = uuid.New()
	}
	return nil
}
