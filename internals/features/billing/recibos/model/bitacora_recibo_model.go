package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Acciones registradas en bitácora.
const (
	BitacoraEmision          = "emision"
	BitacoraCambioEstatus    = "cambio_estatus"
	BitacoraReversa          = "reversa"
	BitacoraReversaPago      = "reversa_pago"
	BitacoraCancelacion      = "cancelacion"
	BitacoraAjusteDetalle    = "ajuste_detalle"
	BitacoraAjusteRecargo    = "ajuste_recargo"
	BitacoraRecargoCondonado = "recargo_condonado"
)

// BitacoraReciboModel es el rastro auditable del recibo: sólo se agrega,
// nunca se modifica ni se borra.
type BitacoraReciboModel struct {
	BitacoraReciboID       uuid.UUID      `gorm:"column:bitacora_recibo_id;type:uuid;primaryKey" json:"bitacora_recibo_id"`
	BitacoraReciboReciboID uuid.UUID      `gorm:"column:bitacora_recibo_recibo_id;type:uuid;not null;index:idx_bitacora_recibos_recibo" json:"bitacora_recibo_recibo_id"`
	BitacoraReciboActor    string         `gorm:"column:bitacora_recibo_actor;type:varchar(80);not null" json:"bitacora_recibo_actor"`
	BitacoraReciboAccion   string         `gorm:"column:bitacora_recibo_accion;type:varchar(40);not null;index:idx_bitacora_recibos_accion" json:"bitacora_recibo_accion"`
	BitacoraReciboDetalle  datatypes.JSON `gorm:"column:bitacora_recibo_detalle;type:jsonb" json:"bitacora_recibo_detalle,omitempty"`
	BitacoraReciboFechaUTC time.Time      `gorm:"column:bitacora_recibo_fecha_utc;not null" json:"bitacora_recibo_fecha_utc"`
}

func (BitacoraReciboModel) TableName() string { return "bitacora_recibos" }

func (m *BitacoraReciboModel) BeforeCreate(tx *gorm.DB) error {
	if m.BitacoraReciboID == uuid.Nil {
		m.BitacoraReciboID = uuid.New()
	}
	if m.BitacoraReciboFechaUTC.IsZero() {
		m.BitacoraReciboFechaUTC = time.Now().UTC()
	}
	return nil
}
