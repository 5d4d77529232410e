package service

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	recargoModel "universidad_backend/internals/features/billing/recargos/model"
	model "universidad_backend/internals/features/billing/recibos/model"
)

func TestAjustarDetalleRecalcula(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "1200.00")
	detalle := detalleDelRecibo(t, db, recibo)

	var ajustado *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		ajustado, err = AjustarDetalle(tx, recibo.ReciboID, detalle.ReciboDetalleID,
			decimal.RequireFromString("900.00"), 1, "control", "beca deportiva autorizada tarde")
		return err
	}))

	assert.True(t, ajustado.ReciboSubtotal.Equal(decimal.RequireFromString("900.00")))
	assert.True(t, ajustado.ReciboTotal.Equal(decimal.RequireFromString("900.00")))
	assert.True(t, ajustado.ReciboSaldo.Equal(decimal.RequireFromString("900.00")))
	assert.Equal(t, model.ReciboPendiente, ajustado.ReciboEstatus)

	var entradas []model.BitacoraReciboModel
	require.NoError(t, db.Where("bitacora_recibo_recibo_id = ? AND bitacora_recibo_accion = ?",
		recibo.ReciboID, model.BitacoraAjusteDetalle).Find(&entradas).Error)
	assert.Len(t, entradas, 1)
}

func TestAjustarDetalleSinMotivo(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "1200.00")
	detalle := detalleDelRecibo(t, db, recibo)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AjustarDetalle(tx, recibo.ReciboID, detalle.ReciboDetalleID,
			decimal.RequireFromString("900.00"), 1, "control", "   ")
		return err
	})
	requiereStatus(t, err, 400)
}

func TestAjustarDetalleDebajoDeLoAplicado(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "1000.00")
	detalle := detalleDelRecibo(t, db, recibo)
	aplicarPagoDirecto(t, db, detalle.ReciboDetalleID, "600.00")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AjustarDetalle(tx, recibo.ReciboID, detalle.ReciboDetalleID,
			decimal.RequireFromString("500.00"), 1, "control", "precio mal capturado")
		return err
	})
	requiereStatus(t, err, 422)
}

func TestAjustarReciboPagado(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "400.00")
	detalle := detalleDelRecibo(t, db, recibo)
	aplicarPagoDirecto(t, db, detalle.ReciboDetalleID, "400.00")
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := RecalcularEstado(tx, recibo.ReciboID, "pruebas")
		return err
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AjustarRecargo(tx, recibo.ReciboID, decimal.RequireFromString("50.00"), "control", "atraso detectado")
		return err
	})
	requiereStatus(t, err, 409)
}

func TestAjustarYCondonarRecargo(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "1000.00")

	var conRecargo *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		conRecargo, err = AjustarRecargo(tx, recibo.ReciboID, decimal.RequireFromString("100.00"), "control", "10 días de atraso")
		return err
	}))
	assert.True(t, conRecargo.ReciboTotal.Equal(decimal.RequireFromString("1100.00")))
	assert.True(t, conRecargo.ReciboSaldo.Equal(decimal.RequireFromString("1100.00")))

	var condonadoRec *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		condonadoRec, err = CondonarRecargo(tx, recibo.ReciboID, "direccion", "convenio con el alumno")
		return err
	}))
	assert.True(t, condonadoRec.ReciboRecargo.IsZero())
	assert.True(t, condonadoRec.ReciboTotal.Equal(decimal.RequireFromString("1000.00")))
	require.NotNil(t, condonadoRec.ReciboObservaciones)
	assert.True(t, strings.Contains(*condonadoRec.ReciboObservaciones, model.MarcadorRecargoCondonado))

	// La política vigente no resucita un recargo condonado.
	politica := &recargoModel.PoliticaRecargoModel{
		PoliticaRecargoTasaDiaria: decimal.RequireFromString("0.01"),
		PoliticaRecargoActiva:     true,
	}
	require.NoError(t, db.Create(politica).Error)

	var trasPolitica *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		trasPolitica, err = ActualizarRecargoVigente(tx, recibo.ReciboID,
			time.Date(2026, 9, 25, 0, 0, 0, 0, time.UTC), politica, "sistema")
		return err
	}))
	assert.True(t, trasPolitica.ReciboRecargo.IsZero())

	// Un ajuste manual posterior sí reactiva el recargo y retira el marcador.
	var reactivado *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		reactivado, err = AjustarRecargo(tx, recibo.ReciboID, decimal.RequireFromString("80.00"), "control", "condonación revocada")
		return err
	}))
	assert.True(t, reactivado.ReciboRecargo.Equal(decimal.RequireFromString("80.00")))

	var recargado model.ReciboModel
	require.NoError(t, db.Take(&recargado, "recibo_id = ?", recibo.ReciboID).Error)
	if recargado.ReciboObservaciones != nil {
		assert.False(t, strings.Contains(*recargado.ReciboObservaciones, model.MarcadorRecargoCondonado))
	}
}

func TestCondonarConPagosSobreLineaDeRecargo(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirReciboPrueba(t, db, alumno.AlumnoID, "1000.00")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := AjustarRecargo(tx, recibo.ReciboID, decimal.RequireFromString("100.00"), "control", "atraso")
		return err
	}))

	linea := model.ReciboDetalleModel{
		ReciboDetalleReciboID:       recibo.ReciboID,
		ReciboDetalleDescripcion:    "Recargo por pago extemporáneo",
		ReciboDetalleCantidad:       1,
		ReciboDetallePrecioUnitario: decimal.RequireFromString("100.00"),
		ReciboDetalleImporte:        decimal.RequireFromString("100.00"),
		ReciboDetalleEsRecargo:      true,
	}
	require.NoError(t, db.Create(&linea).Error)
	aplicarPagoDirecto(t, db, linea.ReciboDetalleID, "100.00")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := CondonarRecargo(tx, recibo.ReciboID, "direccion", "convenio")
		return err
	})
	requiereStatus(t, err, 409)
}
