package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PoliticaRecargoModel: a lo más un registro activo. El evaluador la recibe
// como parámetro explícito; nadie la lee como estado global.
type PoliticaRecargoModel struct {
	PoliticaRecargoID uuid.UUID `gorm:"column:politica_recargo_id;type:uuid;primaryKey" json:"politica_recargo_id"`

	// Tasa diaria sobre el saldo (0.01 = 1%).
	PoliticaRecargoTasaDiaria decimal.Decimal `gorm:"column:politica_recargo_tasa_diaria;type:decimal(6,4);not null;default:0.01" json:"politica_recargo_tasa_diaria"`

	PoliticaRecargoMinimo *decimal.Decimal `gorm:"column:politica_recargo_minimo;type:decimal(12,2)" json:"politica_recargo_minimo,omitempty"`
	PoliticaRecargoMaximo *decimal.Decimal `gorm:"column:politica_recargo_maximo;type:decimal(12,2)" json:"politica_recargo_maximo,omitempty"`

	// Día del mes hasta el cual no corre recargo (ventana de gracia).
	PoliticaRecargoDiaGracia int `gorm:"column:politica_recargo_dia_gracia;not null;default:0" json:"politica_recargo_dia_gracia"`

	// Tope de días de atraso contabilizados.
	PoliticaRecargoMaxDias *int `gorm:"column:politica_recargo_max_dias" json:"politica_recargo_max_dias,omitempty"`

	PoliticaRecargoActiva bool `gorm:"column:politica_recargo_activa;not null;default:false;index" json:"politica_recargo_activa"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (PoliticaRecargoModel) TableName() string { return "politicas_recargo" }

func (m *PoliticaRecargoModel) BeforeCreate(tx *gorm.DB) error {
	if m.PoliticaRecargoID == uuid.Nil {
		m.PoliticaRecargoID = uuid.New()
	}
	return nil
}
