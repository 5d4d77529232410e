package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanEstudioModel struct {
	PlanEstudioID     uuid.UUID      `gorm:"column:plan_estudio_id;type:uuid;primaryKey" json:"plan_estudio_id"`
	PlanEstudioClave  string         `gorm:"column:plan_estudio_clave;type:varchar(20);not null;uniqueIndex" json:"plan_estudio_clave"`
	PlanEstudioNombre string         `gorm:"column:plan_estudio_nombre;type:text;not null" json:"plan_estudio_nombre"`
	PlanEstudioActivo bool           `gorm:"column:plan_estudio_activo;not null;default:true" json:"plan_estudio_activo"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt         gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (PlanEstudioModel) TableName() string { return "planes_estudio" }

func (m *PlanEstudioModel) BeforeCreate(tx *gorm.DB) error {
	if m.PlanEstudioID == uuid.Nil {
		m.PlanEstudioID = uuid.New()
	}
	return nil
}
