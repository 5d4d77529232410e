package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pagoModel "universidad_backend/internals/features/billing/pagos/model"
	model "universidad_backend/internals/features/billing/recibos/model"
)

func TestCancelarSinAplicaciones(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "700.00")

	var cancelado *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		cancelado, err = Cancelar(tx, recibo.ReciboID, "control", "emitido por error")
		return err
	}))
	assert.Equal(t, model.ReciboCancelado, cancelado.ReciboEstatus)
	assert.True(t, cancelado.ReciboSaldo.IsZero())

	// Cancelar dos veces es conflicto.
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := Cancelar(tx, recibo.ReciboID, "control", "de nuevo")
		return err
	})
	requiereStatus(t, err, 409)

	var entradas []model.BitacoraReciboModel
	require.NoError(t, db.Where("bitacora_recibo_recibo_id = ? AND bitacora_recibo_accion = ?",
		recibo.ReciboID, model.BitacoraCancelacion).Find(&entradas).Error)
	assert.Len(t, entradas, 1)
}

func TestCancelarConAplicaciones(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "700.00")
	detalle := detalleDelRecibo(t, db, recibo)
	aplicarPagoDirecto(t, db, detalle.ReciboDetalleID, "200.00")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := Cancelar(tx, recibo.ReciboID, "control", "emitido por error")
		return err
	})
	requiereStatus(t, err, 409)
}

func TestRevertirConPagos(t *testing.T) {
	// Recibo de 300 con 100 + 50 aplicados de dos pagos distintos: la reversa
	// borra las aplicaciones, regresa a pendiente con saldo 300 y no toca los
	// pagos.
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "300.00")
	detalle := detalleDelRecibo(t, db, recibo)

	pago1 := aplicarPagoDirecto(t, db, detalle.ReciboDetalleID, "100.00")
	pago2 := aplicarPagoDirecto(t, db, detalle.ReciboDetalleID, "50.00")
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := RecalcularEstado(tx, recibo.ReciboID, "pruebas")
		return err
	}))

	var revertido *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		revertido, err = Revertir(tx, recibo.ReciboID, "control", "pago aplicado al recibo equivocado")
		return err
	}))

	assert.Equal(t, model.ReciboPendiente, revertido.ReciboEstatus)
	assert.True(t, revertido.ReciboSaldo.Equal(decimal.RequireFromString("300.00")))

	var aplicaciones int64
	require.NoError(t, db.Model(&pagoModel.PagoAplicacionModel{}).
		Where("pago_aplicacion_recibo_detalle_id = ?", detalle.ReciboDetalleID).
		Count(&aplicaciones).Error)
	assert.Zero(t, aplicaciones)

	// Los pagos sobreviven intactos, quedan sin aplicar.
	for _, id := range []interface{}{pago1.PagoID, pago2.PagoID} {
		var p pagoModel.PagoModel
		require.NoError(t, db.Take(&p, "pago_id = ?", id).Error)
		assert.Equal(t, pagoModel.PagoConfirmado, p.PagoEstatus)
	}

	// Una entrada de reversa por pago afectado más la de resumen.
	var porPago []model.BitacoraReciboModel
	require.NoError(t, db.Where("bitacora_recibo_recibo_id = ? AND bitacora_recibo_accion = ?",
		recibo.ReciboID, model.BitacoraReversaPago).Find(&porPago).Error)
	assert.Len(t, porPago, 2)

	var resumen []model.BitacoraReciboModel
	require.NoError(t, db.Where("bitacora_recibo_recibo_id = ? AND bitacora_recibo_accion = ?",
		recibo.ReciboID, model.BitacoraReversa).Find(&resumen).Error)
	assert.Len(t, resumen, 1)
}

func TestRevertirSinPagosEsNoOp(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "450.00")

	var revertido *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		revertido, err = Revertir(tx, recibo.ReciboID, "control", "verificación")
		return err
	}))
	assert.Equal(t, model.ReciboPendiente, revertido.ReciboEstatus)
	assert.True(t, revertido.ReciboSaldo.Equal(decimal.RequireFromString("450.00")))
}

func TestRevertirCancelado(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "450.00")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := Cancelar(tx, recibo.ReciboID, "control", "duplicado")
		return err
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := Revertir(tx, recibo.ReciboID, "control", "intento sobre cancelado")
		return err
	})
	requiereStatus(t, err, 409)
}
