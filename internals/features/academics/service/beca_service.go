package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	model "universidad_backend/internals/features/academics/model"
	helper "universidad_backend/internals/helpers"
)

// CalculadoraBeca es el colaborador que decide el descuento de una línea.
// El motor de cobranza sólo consume el monto; las reglas de elegibilidad
// (becas, convenios) viven detrás de esta interfaz. Debe ser determinista
// para un mismo estado de datos.
type CalculadoraBeca interface {
	DescuentoPara(tx *gorm.DB, alumnoID uuid.UUID, conceptoID *uuid.UUID, importe decimal.Decimal, fecha time.Time) (decimal.Decimal, error)
}

// BecaPorcentaje es la implementación por defecto: porcentaje registrado en
// la tabla becas, por alumno y concepto (o comodín sin concepto).
type BecaPorcentaje struct{}

func NuevaCalculadoraBecas() CalculadoraBeca { return BecaPorcentaje{} }

func (BecaPorcentaje) DescuentoPara(tx *gorm.DB, alumnoID uuid.UUID, conceptoID *uuid.UUID, importe decimal.Decimal, fecha time.Time) (decimal.Decimal, error) {
	if importe.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	var becas []model.BecaModel
	q := tx.Where("beca_alumno_id = ? AND beca_activa = ?", alumnoID, true)
	if err := q.Find(&becas).Error; err != nil {
		return decimal.Zero, err
	}

	// Preferencia: beca del concepto exacto; si no hay, la de comodín.
	var elegida *model.BecaModel
	for i := range becas {
		b := &becas[i]
		if conceptoID != nil && b.BecaConceptoID != nil && *b.BecaConceptoID == *conceptoID {
			elegida = b
			break
		}
		if b.BecaConceptoID == nil && elegida == nil {
			elegida = b
		}
	}
	if elegida == nil {
		return decimal.Zero, nil
	}

	descuento := importe.Mul(elegida.BecaPorcentaje).Div(decimal.NewFromInt(100))
	if descuento.GreaterThan(importe) {
		descuento = importe
	}
	return helper.Round2(descuento), nil
}

// SinBeca es el colaborador nulo (aspirantes, emisiones sin descuento).
type SinBeca struct{}

func (SinBeca) DescuentoPara(_ *gorm.DB, _ uuid.UUID, _ *uuid.UUID, _ decimal.Decimal, _ time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
