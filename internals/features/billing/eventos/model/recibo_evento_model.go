package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const EventoReciboPagado = "recibo_pagado"

// ReciboEventoModel es el outbox de efectos en cascada: la transición a
// "pagado" escribe el evento en la misma transacción y el despachador lo
// procesa después del commit. Su falla nunca revierte el cobro.
type ReciboEventoModel struct {
	ReciboEventoID        uuid.UUID  `gorm:"column:recibo_evento_id;type:uuid;primaryKey" json:"recibo_evento_id"`
	ReciboEventoReciboID  uuid.UUID  `gorm:"column:recibo_evento_recibo_id;type:uuid;not null;index:idx_recibo_eventos_recibo" json:"recibo_evento_recibo_id"`
	ReciboEventoTipo      string     `gorm:"column:recibo_evento_tipo;type:varchar(40);not null" json:"recibo_evento_tipo"`
	ReciboEventoProcesado bool       `gorm:"column:recibo_evento_procesado;not null;default:false;index:idx_recibo_eventos_pendientes" json:"recibo_evento_procesado"`
	ReciboEventoError     *string    `gorm:"column:recibo_evento_error;type:text" json:"recibo_evento_error,omitempty"`
	CreatedAt             time.Time  `gorm:"column:recibo_evento_created_at;autoCreateTime" json:"recibo_evento_created_at"`
	ProcesadoAt           *time.Time `gorm:"column:recibo_evento_procesado_at" json:"recibo_evento_procesado_at,omitempty"`
}

func (ReciboEventoModel) TableName() string { return "recibo_eventos" }

func (m *ReciboEventoModel) BeforeCreate(tx *gorm.DB) error {
	if m.ReciboEventoID == uuid.Nil {
		m.ReciboEventoID = uuid.New()
	}
	return nil
}
