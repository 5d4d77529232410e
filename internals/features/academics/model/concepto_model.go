package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Catálogo de conceptos de cobro (colegiatura, inscripción, titulación, ...).
type ConceptoModel struct {
	ConceptoID     uuid.UUID      `gorm:"column:concepto_id;type:uuid;primaryKey" json:"concepto_id"`
	ConceptoClave  string         `gorm:"column:concepto_clave;type:varchar(20);not null;uniqueIndex" json:"concepto_clave"`
	ConceptoNombre string         `gorm:"column:concepto_nombre;type:text;not null" json:"concepto_nombre"`
	ConceptoActivo bool           `gorm:"column:concepto_activo;not null;default:true" json:"concepto_activo"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (ConceptoModel) TableName() string { return "conceptos" }

func (m *ConceptoModel) BeforeCreate(tx *gorm.DB) error {
	if m.ConceptoID == uuid.Nil {
		m.ConceptoID = uuid.New()
	}
	return nil
}

type MetodoPagoModel struct {
	MetodoPagoID     uuid.UUID      `gorm:"column:metodo_pago_id;type:uuid;primaryKey" json:"metodo_pago_id"`
	MetodoPagoNombre string         `gorm:"column:metodo_pago_nombre;type:varchar(40);not null;uniqueIndex" json:"metodo_pago_nombre"` // efectivo | tarjeta | transferencia | en_linea
	MetodoPagoActivo bool           `gorm:"column:metodo_pago_activo;not null;default:true" json:"metodo_pago_activo"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt        gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (MetodoPagoModel) TableName() string { return "metodos_pago" }

func (m *MetodoPagoModel) BeforeCreate(tx *gorm.DB) error {
	if m.MetodoPagoID == uuid.Nil {
		m.MetodoPagoID = uuid.New()
	}
	return nil
}
