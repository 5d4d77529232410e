package dto

import (
	"github.com/shopspring/decimal"

	model "universidad_backend/internals/features/billing/recargos/model"
)

type CreatePoliticaRequest struct {
	TasaDiaria decimal.Decimal  `json:"tasa_diaria" validate:"required"`
	Minimo     *decimal.Decimal `json:"minimo,omitempty"`
	Maximo     *decimal.Decimal `json:"maximo,omitempty"`
	DiaGracia  int              `json:"dia_gracia" validate:"min=0,max=28"`
	MaxDias    *int             `json:"max_dias,omitempty" validate:"omitempty,min=1"`
	Activa     bool             `json:"activa"`
}

func (r CreatePoliticaRequest) ToModel() *model.PoliticaRecargoModel {
	return &model.PoliticaRecargoModel{
		PoliticaRecargoTasaDiaria: r.TasaDiaria,
		PoliticaRecargoMinimo:     r.Minimo,
		PoliticaRecargoMaximo:     r.Maximo,
		PoliticaRecargoDiaGracia:  r.DiaGracia,
		PoliticaRecargoMaxDias:    r.MaxDias,
		PoliticaRecargoActiva:     r.Activa,
	}
}
