package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	recargoModel "universidad_backend/internals/features/billing/recargos/model"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
	helper "universidad_backend/internals/helpers"
)

// DiasAtraso cuenta días de atraso por número de día del mes, en el calendario
// local de la institución, con tope opcional de la política.
func DiasAtraso(fechaVencimiento, hoy time.Time, p *recargoModel.PoliticaRecargoModel) int {
	dias := hoy.Day() - fechaVencimiento.Day()
	if dias < 0 {
		dias = 0
	}
	if p != nil && p.PoliticaRecargoMaxDias != nil && dias > *p.PoliticaRecargoMaxDias {
		dias = *p.PoliticaRecargoMaxDias
	}
	return dias
}

// CalcularRecargo calcula el recargo moratorio vigente de un recibo.
//
//   - Si el día de vencimiento cae dentro de la ventana de gracia, no corre recargo.
//   - recargo = saldo × tasa_diaria × diasAtraso, acotado a [mínimo, máximo] si
//     la política los define, redondeado a centavos.
//   - Un recargo condonado vale 0 y no se recalcula hacia arriba.
func CalcularRecargo(recibo *reciboModel.ReciboModel, hoy time.Time, p *recargoModel.PoliticaRecargoModel, condonado bool) decimal.Decimal {
	if p == nil || condonado {
		return decimal.Zero
	}
	if recibo.ReciboSaldo.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if recibo.ReciboFechaVencimiento.Day() <= p.PoliticaRecargoDiaGracia {
		return decimal.Zero
	}

	dias := DiasAtraso(recibo.ReciboFechaVencimiento, hoy, p)
	if dias == 0 {
		return decimal.Zero
	}

	recargo := recibo.ReciboSaldo.
		Mul(p.PoliticaRecargoTasaDiaria).
		Mul(decimal.NewFromInt(int64(dias)))
	recargo = helper.ClampDecimal(recargo, p.PoliticaRecargoMinimo, p.PoliticaRecargoMaximo)
	return helper.Round2(recargo)
}

// PoliticaActiva resuelve la política vigente una vez por operación; el
// evaluador la recibe como parámetro, nunca como estado ambiental.
func PoliticaActiva(db *gorm.DB) (*recargoModel.PoliticaRecargoModel, error) {
	var p recargoModel.PoliticaRecargoModel
	err := db.Where("politica_recargo_activa = ?", true).
		Order("created_at DESC").
		Take(&p).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RecargoCondonado revisa si el recargo del recibo fue condonado: existe una
// entrada de bitácora "recargo_condonado" posterior al último ajuste manual de
// recargo, o las observaciones llevan el marcador. La condonación es de una
// sola vía hasta el siguiente ajuste manual.
func RecargoCondonado(db *gorm.DB, recibo *reciboModel.ReciboModel) (bool, error) {
	if recibo.ReciboObservaciones != nil &&
		strings.Contains(*recibo.ReciboObservaciones, reciboModel.MarcadorRecargoCondonado) {
		return true, nil
	}

	var ultima reciboModel.BitacoraReciboModel
	err := db.Where("bitacora_recibo_recibo_id = ? AND bitacora_recibo_accion IN ?",
		recibo.ReciboID,
		[]string{reciboModel.BitacoraRecargoCondonado, reciboModel.BitacoraAjusteRecargo}).
		Order("bitacora_recibo_fecha_utc DESC").
		Limit(1).
		Take(&ultima).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ultima.BitacoraReciboAccion == reciboModel.BitacoraRecargoCondonado, nil
}
