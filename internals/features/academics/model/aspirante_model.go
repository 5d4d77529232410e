package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Catálogo de estatus de aspirante. El despachador de efectos busca por
// descripción ("Pagado", con respaldo en "Admitido").
type AspiranteEstatusModel struct {
	AspiranteEstatusID          uuid.UUID      `gorm:"column:aspirante_estatus_id;type:uuid;primaryKey" json:"aspirante_estatus_id"`
	AspiranteEstatusDescripcion string         `gorm:"column:aspirante_estatus_descripcion;type:varchar(60);not null" json:"aspirante_estatus_descripcion"`
	AspiranteEstatusActivo      bool           `gorm:"column:aspirante_estatus_activo;not null;default:true" json:"aspirante_estatus_activo"`
	CreatedAt                   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt                   gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (AspiranteEstatusModel) TableName() string { return "aspirante_estatus" }

func (m *AspiranteEstatusModel) BeforeCreate(tx *gorm.DB) error {
	if m.AspiranteEstatusID == uuid.Nil {
		m.AspiranteEstatusID = uuid.New()
	}
	return nil
}

type AspiranteModel struct {
	AspiranteID        uuid.UUID      `gorm:"column:aspirante_id;type:uuid;primaryKey" json:"aspirante_id"`
	AspiranteNombre    string         `gorm:"column:aspirante_nombre;type:text;not null" json:"aspirante_nombre"`
	AspiranteEstatusID *uuid.UUID     `gorm:"column:aspirante_estatus_id_ref;type:uuid" json:"aspirante_estatus_id,omitempty"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          *time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at,omitempty"`
	DeletedAt          gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (AspiranteModel) TableName() string { return "aspirantes" }

func (m *AspiranteModel) BeforeCreate(tx *gorm.DB) error {
	if m.AspiranteID == uuid.Nil {
		m.AspiranteID = uuid.New()
	}
	return nil
}
