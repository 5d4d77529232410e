package service

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "universidad_backend/internals/features/billing/pagos/model"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
)

func firmar(n NotificacionPasarela, serverKey string) string {
	h := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

func TestVerificarFirma(t *testing.T) {
	n := NotificacionPasarela{
		OrderID:     "REC2026-000001",
		StatusCode:  "200",
		GrossAmount: "1000.00",
	}
	n.SignatureKey = firmar(n, "llave-secreta")

	assert.True(t, VerificarFirma(n, "llave-secreta"))
	assert.False(t, VerificarFirma(n, "otra-llave"))
}

func TestProcesarNotificacionLiquidada(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "1000.00")

	n := NotificacionPasarela{
		OrderID:           recibo.ReciboFolio,
		StatusCode:        "200",
		GrossAmount:       "1000.00",
		TransactionStatus: "settlement",
		TransactionID:     "trx-0001",
		PaymentType:       "bank_transfer",
	}
	require.NoError(t, ProcesarNotificacion(db, n, nil))

	var final reciboModel.ReciboModel
	require.NoError(t, db.Take(&final, "recibo_id = ?", recibo.ReciboID).Error)
	assert.Equal(t, reciboModel.ReciboPagado, final.ReciboEstatus)

	var pagos []model.PagoModel
	require.NoError(t, db.Find(&pagos).Error)
	require.Len(t, pagos, 1)
	assert.Equal(t, model.PagoConfirmado, pagos[0].PagoEstatus)
	require.NotNil(t, pagos[0].PagoReferencia)
	assert.Equal(t, "trx-0001", *pagos[0].PagoReferencia)

	// La notificación repetida es idempotente por referencia.
	require.NoError(t, ProcesarNotificacion(db, n, nil))
	require.NoError(t, db.Find(&pagos).Error)
	assert.Len(t, pagos, 1)
}

func TestProcesarNotificacionNoLiquidadaSeIgnora(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "1000.00")

	n := NotificacionPasarela{
		OrderID:           recibo.ReciboFolio,
		StatusCode:        "201",
		GrossAmount:       "1000.00",
		TransactionStatus: "pending",
		TransactionID:     "trx-0002",
	}
	require.NoError(t, ProcesarNotificacion(db, n, nil))

	var pagos int64
	require.NoError(t, db.Model(&model.PagoModel{}).Count(&pagos).Error)
	assert.Zero(t, pagos)
}
