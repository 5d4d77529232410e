package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	model "universidad_backend/internals/features/billing/plantillas/model"
)

type LineaPlantillaRequest struct {
	ConceptoID     uuid.UUID       `json:"concepto_id" validate:"required"`
	Descripcion    string          `json:"descripcion" validate:"required,min=3"`
	Cantidad       int             `json:"cantidad" validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required"`
	AplicaEn       model.AplicaEn  `json:"aplica_en" validate:"omitempty,oneof=todos primero ultimo numero"`
	AplicaEnNumero *int            `json:"aplica_en_numero,omitempty" validate:"omitempty,min=1"`
}

type CreatePlantillaRequest struct {
	Nombre         string                  `json:"nombre" validate:"required,min=3"`
	PlanID         uuid.UUID               `json:"plan_id" validate:"required"`
	Cuatrimestre   int                     `json:"cuatrimestre" validate:"required,min=1,max=10"`
	PeriodoID      *uuid.UUID              `json:"periodo_id,omitempty"`
	Turno          *string                 `json:"turno,omitempty"`
	Modalidad      *string                 `json:"modalidad,omitempty"`
	NumRecibos     int                     `json:"num_recibos" validate:"required,min=1,max=12"`
	Estrategia     model.EstrategiaEmision `json:"estrategia" validate:"omitempty,oneof=por_recibo unico"`
	DiaVencimiento int                     `json:"dia_vencimiento" validate:"omitempty,min=1,max=31"`
	Lineas         []LineaPlantillaRequest `json:"lineas" validate:"required,min=1,dive"`
}

func (r CreatePlantillaRequest) ToModel() *model.PlantillaCobroModel {
	estrategia := r.Estrategia
	if estrategia == "" {
		estrategia = model.EmisionPorRecibo
	}
	dia := r.DiaVencimiento
	if dia == 0 {
		dia = 10
	}
	m := &model.PlantillaCobroModel{
		PlantillaCobroNombre:         r.Nombre,
		PlantillaCobroPlanID:         r.PlanID,
		PlantillaCobroCuatrimestre:   r.Cuatrimestre,
		PlantillaCobroPeriodoID:      r.PeriodoID,
		PlantillaCobroTurno:          r.Turno,
		PlantillaCobroModalidad:      r.Modalidad,
		PlantillaCobroNumRecibos:     r.NumRecibos,
		PlantillaCobroEstrategia:     estrategia,
		PlantillaCobroDiaVencimiento: dia,
		PlantillaCobroActiva:         true,
	}
	for _, l := range r.Lineas {
		aplicaEn := l.AplicaEn
		if aplicaEn == "" {
			aplicaEn = model.AplicaTodos
		}
		m.Detalles = append(m.Detalles, model.PlantillaCobroDetalleModel{
			PlantillaCobroDetalleConceptoID:     l.ConceptoID,
			PlantillaCobroDetalleDescripcion:    l.Descripcion,
			PlantillaCobroDetalleCantidad:       l.Cantidad,
			PlantillaCobroDetallePrecioUnitario: l.PrecioUnitario,
			PlantillaCobroDetalleAplicaEn:       aplicaEn,
			PlantillaCobroDetalleAplicaEnNumero: l.AplicaEnNumero,
		})
	}
	return m
}

type GenerarRequest struct {
	PeriodoID uuid.UUID   `json:"periodo_id" validate:"required"`
	AlumnoIDs []uuid.UUID `json:"alumno_ids,omitempty"`
}

type PlantillaResponse struct {
	PlantillaID    uuid.UUID                          `json:"plantilla_id"`
	Nombre         string                             `json:"nombre"`
	PlanID         uuid.UUID                          `json:"plan_id"`
	Cuatrimestre   int                                `json:"cuatrimestre"`
	PeriodoID      *uuid.UUID                         `json:"periodo_id,omitempty"`
	Turno          *string                            `json:"turno,omitempty"`
	Modalidad      *string                            `json:"modalidad,omitempty"`
	NumRecibos     int                                `json:"num_recibos"`
	Estrategia     model.EstrategiaEmision            `json:"estrategia"`
	DiaVencimiento int                                `json:"dia_vencimiento"`
	Activa         bool                               `json:"activa"`
	Lineas         []model.PlantillaCobroDetalleModel `json:"lineas,omitempty"`
	CreatedAt      time.Time                          `json:"created_at"`
}

func FromPlantillaModel(m *model.PlantillaCobroModel) PlantillaResponse {
	return PlantillaResponse{
		PlantillaID:    m.PlantillaCobroID,
		Nombre:         m.PlantillaCobroNombre,
		PlanID:         m.PlantillaCobroPlanID,
		Cuatrimestre:   m.PlantillaCobroCuatrimestre,
		PeriodoID:      m.PlantillaCobroPeriodoID,
		Turno:          m.PlantillaCobroTurno,
		Modalidad:      m.PlantillaCobroModalidad,
		NumRecibos:     m.PlantillaCobroNumRecibos,
		Estrategia:     m.PlantillaCobroEstrategia,
		DiaVencimiento: m.PlantillaCobroDiaVencimiento,
		Activa:         m.PlantillaCobroActiva,
		Lineas:         m.Detalles,
		CreatedAt:      m.CreatedAt,
	}
}
