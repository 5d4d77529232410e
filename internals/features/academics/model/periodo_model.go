package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PeriodoModel struct {
	PeriodoID          uuid.UUID      `gorm:"column:periodo_id;type:uuid;primaryKey" json:"periodo_id"`
	PeriodoNombre      string         `gorm:"column:periodo_nombre;type:text;not null" json:"periodo_nombre"` // ej. "Sep-Dic 2026"
	PeriodoFechaInicio time.Time      `gorm:"column:periodo_fecha_inicio;type:date;not null" json:"periodo_fecha_inicio"`
	PeriodoFechaFin    time.Time      `gorm:"column:periodo_fecha_fin;type:date;not null" json:"periodo_fecha_fin"`
	PeriodoActivo      bool           `gorm:"column:periodo_activo;not null;default:false" json:"periodo_activo"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt          gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (PeriodoModel) TableName() string { return "periodos_academicos" }

func (m *PeriodoModel) BeforeCreate(tx *gorm.DB) error {
	if m.PeriodoID == uuid.Nil {
		m.PeriodoID = uuid.New()
	}
	return nil
}
