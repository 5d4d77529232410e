package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EstatusRecibo string

const (
	ReciboPendiente EstatusRecibo = "pendiente"
	ReciboParcial   EstatusRecibo = "parcial"
	ReciboPagado    EstatusRecibo = "pagado"
	ReciboCancelado EstatusRecibo = "cancelado"
)

// Marcador en observaciones que condona el recargo (ver evaluador de recargos).
const MarcadorRecargoCondonado = "[RECARGO CONDONADO]"

// ReciboModel es una obligación de cobro de exactamente un pagador:
// alumno inscrito o aspirante, nunca ambos.
// Invariantes: saldo ∈ [0, total]; total = subtotal − descuento + recargo,
// siempre recalculado a partir de sus componentes.
type ReciboModel struct {
	ReciboID uuid.UUID `gorm:"column:recibo_id;type:uuid;primaryKey" json:"recibo_id"`

	ReciboFolio string `gorm:"column:recibo_folio;type:varchar(20);not null;uniqueIndex" json:"recibo_folio"`

	// Pagador (XOR): alumno o aspirante
	ReciboAlumnoID    *uuid.UUID `gorm:"column:recibo_alumno_id;type:uuid;index:idx_recibos_alumno" json:"recibo_alumno_id,omitempty"`
	ReciboAspiranteID *uuid.UUID `gorm:"column:recibo_aspirante_id;type:uuid;index:idx_recibos_aspirante" json:"recibo_aspirante_id,omitempty"`

	ReciboPeriodoID   *uuid.UUID `gorm:"column:recibo_periodo_id;type:uuid;index:idx_recibos_periodo" json:"recibo_periodo_id,omitempty"`
	ReciboPlantillaID *uuid.UUID `gorm:"column:recibo_plantilla_id;type:uuid;index:idx_recibos_plantilla" json:"recibo_plantilla_id,omitempty"`

	ReciboFechaEmision     time.Time `gorm:"column:recibo_fecha_emision;type:date;not null" json:"recibo_fecha_emision"`
	ReciboFechaVencimiento time.Time `gorm:"column:recibo_fecha_vencimiento;type:date;not null" json:"recibo_fecha_vencimiento"`

	ReciboSubtotal  decimal.Decimal `gorm:"column:recibo_subtotal;type:decimal(12,2);not null" json:"recibo_subtotal"`
	ReciboDescuento decimal.Decimal `gorm:"column:recibo_descuento;type:decimal(12,2);not null" json:"recibo_descuento"`
	ReciboRecargo   decimal.Decimal `gorm:"column:recibo_recargo;type:decimal(12,2);not null" json:"recibo_recargo"`
	ReciboTotal     decimal.Decimal `gorm:"column:recibo_total;type:decimal(12,2);not null" json:"recibo_total"`
	ReciboSaldo     decimal.Decimal `gorm:"column:recibo_saldo;type:decimal(12,2);not null" json:"recibo_saldo"`

	ReciboEstatus EstatusRecibo `gorm:"column:recibo_estatus;type:varchar(20);not null;default:pendiente" json:"recibo_estatus"`

	// Texto libre, meramente informativo; lo normativo vive en la bitácora.
	ReciboObservaciones *string `gorm:"column:recibo_observaciones;type:text" json:"recibo_observaciones,omitempty"`

	// Candado optimista: un escritor lógico por recibo a la vez.
	ReciboLockVersion int `gorm:"column:recibo_lock_version;not null;default:0" json:"-"`

	CreatedAt time.Time      `gorm:"column:recibo_created_at;autoCreateTime" json:"recibo_created_at"`
	UpdatedAt *time.Time     `gorm:"column:recibo_updated_at;autoUpdateTime" json:"recibo_updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"column:recibo_deleted_at;index" json:"-"`

	Detalles []ReciboDetalleModel `gorm:"foreignKey:ReciboDetalleReciboID;references:ReciboID" json:"detalles,omitempty"`
}

func (ReciboModel) TableName() string { return "recibos" }

func (m *ReciboModel) BeforeCreate(tx *gorm.DB) error {
	if m.ReciboID == uuid.Nil {
		m.ReciboID = uuid.New()
	}
	return nil
}

// EstaVencido es un predicado de lectura: "vencido" nunca se persiste como estatus.
func (m *ReciboModel) EstaVencido(hoy time.Time) bool {
	if m.ReciboEstatus == ReciboPagado || m.ReciboEstatus == ReciboCancelado {
		return false
	}
	v := m.ReciboFechaVencimiento
	hoyDia := time.Date(hoy.Year(), hoy.Month(), hoy.Day(), 0, 0, 0, 0, hoy.Location())
	venc := time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, hoy.Location())
	return venc.Before(hoyDia)
}

type ReciboDetalleModel struct {
	ReciboDetalleID       uuid.UUID `gorm:"column:recibo_detalle_id;type:uuid;primaryKey" json:"recibo_detalle_id"`
	ReciboDetalleReciboID uuid.UUID `gorm:"column:recibo_detalle_recibo_id;type:uuid;not null;index:idx_recibo_detalles_recibo" json:"recibo_detalle_recibo_id"`

	ReciboDetalleConceptoID *uuid.UUID `gorm:"column:recibo_detalle_concepto_id;type:uuid" json:"recibo_detalle_concepto_id,omitempty"`

	ReciboDetalleDescripcion    string          `gorm:"column:recibo_detalle_descripcion;type:text;not null" json:"recibo_detalle_descripcion"`
	ReciboDetalleCantidad       int             `gorm:"column:recibo_detalle_cantidad;not null;default:1" json:"recibo_detalle_cantidad"`
	ReciboDetallePrecioUnitario decimal.Decimal `gorm:"column:recibo_detalle_precio_unitario;type:decimal(12,2);not null" json:"recibo_detalle_precio_unitario"`
	ReciboDetalleImporte        decimal.Decimal `gorm:"column:recibo_detalle_importe;type:decimal(12,2);not null" json:"recibo_detalle_importe"`

	// Referencia a la línea de plantilla que la generó (deduplicación).
	ReciboDetallePlantillaDetalleID *uuid.UUID `gorm:"column:recibo_detalle_plantilla_detalle_id;type:uuid;index:idx_recibo_detalles_plantilla_det" json:"recibo_detalle_plantilla_detalle_id,omitempty"`

	// Línea sintetizada para cobrar recargo cuando no existe una dedicada.
	ReciboDetalleEsRecargo bool `gorm:"column:recibo_detalle_es_recargo;not null;default:false" json:"recibo_detalle_es_recargo"`

	CreatedAt time.Time      `gorm:"column:recibo_detalle_created_at;autoCreateTime" json:"recibo_detalle_created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:recibo_detalle_deleted_at;index" json:"-"`
}

func (ReciboDetalleModel) TableName() string { return "recibo_detalles" }

func (m *ReciboDetalleModel) BeforeCreate(tx *gorm.DB) error {
	if m.ReciboDetalleID == uuid.Nil {
		m.ReciboDetalleID = uuid.New()
	}
	return nil
}
