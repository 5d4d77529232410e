package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlumnoModel struct {
	AlumnoID        uuid.UUID      `gorm:"column:alumno_id;type:uuid;primaryKey" json:"alumno_id"`
	AlumnoMatricula string         `gorm:"column:alumno_matricula;type:varchar(20);not null;uniqueIndex" json:"alumno_matricula"`
	AlumnoNombre    string         `gorm:"column:alumno_nombre;type:text;not null" json:"alumno_nombre"`
	AlumnoActivo    bool           `gorm:"column:alumno_activo;not null;default:true" json:"alumno_activo"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       *time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at,omitempty"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (AlumnoModel) TableName() string { return "alumnos" }

func (m *AlumnoModel) BeforeCreate(tx *gorm.DB) error {
	if m.AlumnoID == uuid.Nil {
		m.AlumnoID = uuid.New()
	}
	return nil
}

// InscripcionModel ata a un alumno con un plan/cuatrimestre dentro de un periodo.
// El generador de recibos deriva su elegibilidad de aquí.
type InscripcionModel struct {
	InscripcionID           uuid.UUID      `gorm:"column:inscripcion_id;type:uuid;primaryKey" json:"inscripcion_id"`
	InscripcionAlumnoID     uuid.UUID      `gorm:"column:inscripcion_alumno_id;type:uuid;not null;index:idx_inscripciones_alumno" json:"inscripcion_alumno_id"`
	InscripcionPlanID       uuid.UUID      `gorm:"column:inscripcion_plan_id;type:uuid;not null;index:idx_inscripciones_plan" json:"inscripcion_plan_id"`
	InscripcionPeriodoID    uuid.UUID      `gorm:"column:inscripcion_periodo_id;type:uuid;not null;index:idx_inscripciones_periodo" json:"inscripcion_periodo_id"`
	InscripcionCuatrimestre int            `gorm:"column:inscripcion_cuatrimestre;not null" json:"inscripcion_cuatrimestre"`
	InscripcionTurno        *string        `gorm:"column:inscripcion_turno;type:varchar(20)" json:"inscripcion_turno,omitempty"` // matutino | vespertino | sabatino
	InscripcionActiva       bool           `gorm:"column:inscripcion_activa;not null;default:true" json:"inscripcion_activa"`
	CreatedAt               time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt               gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (InscripcionModel) TableName() string { return "inscripciones" }

func (m *InscripcionModel) BeforeCreate(tx *gorm.DB) error {
	if m.InscripcionID == uuid.Nil {
		m.InscripcionID = uuid.New()
	}
	return nil
}
