package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BecaModel respalda la implementación por defecto de la calculadora de
// descuentos. Las reglas de elegibilidad viven fuera del motor de cobranza;
// aquí sólo se guarda el porcentaje ya decidido.
type BecaModel struct {
	BecaID         uuid.UUID       `gorm:"column:beca_id;type:uuid;primaryKey" json:"beca_id"`
	BecaAlumnoID   uuid.UUID       `gorm:"column:beca_alumno_id;type:uuid;not null;index:idx_becas_alumno" json:"beca_alumno_id"`
	BecaConceptoID *uuid.UUID      `gorm:"column:beca_concepto_id;type:uuid" json:"beca_concepto_id,omitempty"` // nil = aplica a todo concepto
	BecaPorcentaje decimal.Decimal `gorm:"column:beca_porcentaje;type:decimal(5,2);not null" json:"beca_porcentaje"`
	BecaActiva     bool            `gorm:"column:beca_activa;not null;default:true" json:"beca_activa"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"column:deleted_at;index" json:"-"`
}

func (BecaModel) TableName() string { return "becas" }

func (m *BecaModel) BeforeCreate(tx *gorm.DB) error {
	if m.BecaID == uuid.Nil {
		m.BecaID = uuid.New()
	}
	return nil
}
