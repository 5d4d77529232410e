package helper

import "github.com/shopspring/decimal"

// Round2 redondea a 2 decimales (centavos). Todo importe que sale del motor
// de cobranza pasa por aquí; los cálculos intermedios se hacen sin redondear.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ClampDecimal acota d al rango [min, max]; min/max en nil se ignoran.
func ClampDecimal(d decimal.Decimal, min, max *decimal.Decimal) decimal.Decimal {
	if min != nil && d.LessThan(*min) {
		return *min
	}
	if max != nil && d.GreaterThan(*max) {
		return *max
	}
	return d
}
