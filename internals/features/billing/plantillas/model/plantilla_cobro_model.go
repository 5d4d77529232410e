package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EstrategiaEmision string

const (
	EmisionPorRecibo EstrategiaEmision = "por_recibo" // un recibo por mes, num_recibos en total
	EmisionUnica     EstrategiaEmision = "unico"      // un solo recibo con todas las líneas
)

// Selector "aplica en" de una línea de plantilla.
type AplicaEn string

const (
	AplicaTodos   AplicaEn = "todos"
	AplicaPrimero AplicaEn = "primero"
	AplicaUltimo  AplicaEn = "ultimo"
	AplicaNumero  AplicaEn = "numero" // requiere aplica_en_numero
)

// PlantillaCobroModel es el plano de cobro por plan/cuatrimestre (con alcance
// opcional de periodo/turno/modalidad) que el generador expande en recibos.
type PlantillaCobroModel struct {
	PlantillaCobroID     uuid.UUID `gorm:"column:plantilla_cobro_id;type:uuid;primaryKey" json:"plantilla_cobro_id"`
	PlantillaCobroNombre string    `gorm:"column:plantilla_cobro_nombre;type:text;not null" json:"plantilla_cobro_nombre"`

	PlantillaCobroPlanID       uuid.UUID  `gorm:"column:plantilla_cobro_plan_id;type:uuid;not null;index:idx_plantillas_cobro_plan" json:"plantilla_cobro_plan_id"`
	PlantillaCobroCuatrimestre int        `gorm:"column:plantilla_cobro_cuatrimestre;not null" json:"plantilla_cobro_cuatrimestre"`
	PlantillaCobroPeriodoID    *uuid.UUID `gorm:"column:plantilla_cobro_periodo_id;type:uuid" json:"plantilla_cobro_periodo_id,omitempty"`
	PlantillaCobroTurno        *string    `gorm:"column:plantilla_cobro_turno;type:varchar(20)" json:"plantilla_cobro_turno,omitempty"`
	PlantillaCobroModalidad    *string    `gorm:"column:plantilla_cobro_modalidad;type:varchar(20)" json:"plantilla_cobro_modalidad,omitempty"`

	PlantillaCobroNumRecibos     int               `gorm:"column:plantilla_cobro_num_recibos;not null;default:1" json:"plantilla_cobro_num_recibos"`
	PlantillaCobroEstrategia     EstrategiaEmision `gorm:"column:plantilla_cobro_estrategia;type:varchar(20);not null;default:por_recibo" json:"plantilla_cobro_estrategia"`
	PlantillaCobroDiaVencimiento int               `gorm:"column:plantilla_cobro_dia_vencimiento;not null;default:10" json:"plantilla_cobro_dia_vencimiento"`

	PlantillaCobroActiva bool `gorm:"column:plantilla_cobro_activa;not null;default:true" json:"plantilla_cobro_activa"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`

	Detalles []PlantillaCobroDetalleModel `gorm:"foreignKey:PlantillaCobroDetallePlantillaID;references:PlantillaCobroID" json:"detalles,omitempty"`
}

func (PlantillaCobroModel) TableName() string { return "plantillas_cobro" }

func (m *PlantillaCobroModel) BeforeCreate(tx *gorm.DB) error {
	if m.PlantillaCobroID == uuid.Nil {
		m.PlantillaCobroID = uuid.New()
	}
	return nil
}

type PlantillaCobroDetalleModel struct {
	PlantillaCobroDetalleID          uuid.UUID `gorm:"column:plantilla_cobro_detalle_id;type:uuid;primaryKey" json:"plantilla_cobro_detalle_id"`
	PlantillaCobroDetallePlantillaID uuid.UUID `gorm:"column:plantilla_cobro_detalle_plantilla_id;type:uuid;not null;index:idx_plantilla_detalles_plantilla" json:"plantilla_cobro_detalle_plantilla_id"`

	PlantillaCobroDetalleConceptoID uuid.UUID `gorm:"column:plantilla_cobro_detalle_concepto_id;type:uuid;not null" json:"plantilla_cobro_detalle_concepto_id"`

	// La descripción admite marcadores {mes} {mes_anio} {num_mes} {anio},
	// sustituidos con la fecha de vencimiento calculada.
	PlantillaCobroDetalleDescripcion    string          `gorm:"column:plantilla_cobro_detalle_descripcion;type:text;not null" json:"plantilla_cobro_detalle_descripcion"`
	PlantillaCobroDetalleCantidad       int             `gorm:"column:plantilla_cobro_detalle_cantidad;not null;default:1" json:"plantilla_cobro_detalle_cantidad"`
	PlantillaCobroDetallePrecioUnitario decimal.Decimal `gorm:"column:plantilla_cobro_detalle_precio_unitario;type:decimal(12,2);not null" json:"plantilla_cobro_detalle_precio_unitario"`

	PlantillaCobroDetalleAplicaEn       AplicaEn `gorm:"column:plantilla_cobro_detalle_aplica_en;type:varchar(10);not null;default:todos" json:"plantilla_cobro_detalle_aplica_en"`
	PlantillaCobroDetalleAplicaEnNumero *int     `gorm:"column:plantilla_cobro_detalle_aplica_en_numero" json:"plantilla_cobro_detalle_aplica_en_numero,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (PlantillaCobroDetalleModel) TableName() string { return "plantilla_cobro_detalles" }

func (m *PlantillaCobroDetalleModel) BeforeCreate(tx *gorm.DB) error {
	if m.PlantillaCobroDetalleID == uuid.Nil {
		m.PlantillaCobroDetalleID = uuid.New()
	}
	return nil
}
