package service

import (
	"github.com/shopspring/decimal"

	helper "universidad_backend/internals/helpers"
)

// ProrratearDescuento reparte el descuento agregado del recibo entre sus
// líneas, proporcional al peso de cada importe en el subtotal. Es sólo para
// desgloses de lectura (detalle de recibo, comprobantes); el descuento
// normativo vive a nivel recibo.
func ProrratearDescuento(importe, descuento, subtotal decimal.Decimal) decimal.Decimal {
	if descuento.LessThanOrEqual(decimal.Zero) || subtotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return helper.Round2(importe.Mul(descuento).Div(subtotal))
}

// ImporteNeto es el importe de línea menos su descuento prorrateado.
func ImporteNeto(importe, descuento, subtotal decimal.Decimal) decimal.Decimal {
	return importe.Sub(ProrratearDescuento(importe, descuento, subtotal))
}
