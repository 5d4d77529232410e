package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	academicsModel "universidad_backend/internals/features/academics/model"
	becaService "universidad_backend/internals/features/academics/service"
	model "universidad_backend/internals/features/billing/recibos/model"
)

func TestEmitirReciboFolioSecuencial(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)

	primero := emitirReciboPrueba(t, db, alumno.AlumnoID, "100.00")
	segundo := emitirReciboPrueba(t, db, alumno.AlumnoID, "200.00")

	assert.Equal(t, "REC2026-000001", primero.ReciboFolio)
	assert.Equal(t, "REC2026-000002", segundo.ReciboFolio)
}

func TestEmitirReciboFolioToleraHuecos(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)

	primero := emitirReciboPrueba(t, db, alumno.AlumnoID, "100.00")
	require.NoError(t, db.Unscoped().Delete(&model.ReciboDetalleModel{},
		"recibo_detalle_recibo_id = ?", primero.ReciboID).Error)
	require.NoError(t, db.Unscoped().Delete(&model.ReciboModel{},
		"recibo_id = ?", primero.ReciboID).Error)

	// El folio borrado no se reutiliza consultando al azar: simplemente el
	// máximo vigente baja y el consecutivo sigue de ahí.
	segundo := emitirReciboPrueba(t, db, alumno.AlumnoID, "200.00")
	assert.Equal(t, "REC2026-000001", segundo.ReciboFolio)
}

func TestEmitirReciboPagadorExclusivo(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	aspirante := &academicsModel.AspiranteModel{AspiranteNombre: "Aspirante de Prueba"}
	require.NoError(t, db.Create(aspirante).Error)

	linea := []LineaEmision{{
		Descripcion:    "Ficha de admisión",
		Cantidad:       1,
		PrecioUnitario: decimal.RequireFromString("350.00"),
	}}
	fecha := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := EmitirRecibo(tx, EmisionRecibo{
			FechaEmision:     fecha,
			FechaVencimiento: fecha,
			Lineas:           linea,
		}, becaService.SinBeca{}, "pruebas")
		return err
	})
	requiereStatus(t, err, 400)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := EmitirRecibo(tx, EmisionRecibo{
			AlumnoID:         &alumno.AlumnoID,
			AspiranteID:      &aspirante.AspiranteID,
			FechaEmision:     fecha,
			FechaVencimiento: fecha,
			Lineas:           linea,
		}, becaService.SinBeca{}, "pruebas")
		return err
	})
	requiereStatus(t, err, 400)

	// Con sólo aspirante sí procede.
	var recibo *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		recibo, err = EmitirRecibo(tx, EmisionRecibo{
			AspiranteID:      &aspirante.AspiranteID,
			FechaEmision:     fecha,
			FechaVencimiento: fecha,
			Lineas:           linea,
		}, becaService.SinBeca{}, "pruebas")
		return err
	}))
	assert.Equal(t, model.ReciboPendiente, recibo.ReciboEstatus)
	assert.True(t, recibo.ReciboTotal.Equal(decimal.RequireFromString("350.00")))
}

func TestEmitirReciboConBeca(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)

	require.NoError(t, db.Create(&academicsModel.BecaModel{
		BecaAlumnoID:   alumno.AlumnoID,
		BecaPorcentaje: decimal.RequireFromString("50.00"),
		BecaActiva:     true,
	}).Error)

	var recibo *model.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		recibo, err = EmitirRecibo(tx, EmisionRecibo{
			AlumnoID:         &alumno.AlumnoID,
			FechaEmision:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			FechaVencimiento: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
			Lineas: []LineaEmision{
				{Descripcion: "Colegiatura", Cantidad: 1, PrecioUnitario: decimal.RequireFromString("1000.00")},
				{Descripcion: "Seguro escolar", Cantidad: 1, PrecioUnitario: decimal.RequireFromString("200.00")},
			},
		}, becaService.NuevaCalculadoraBecas(), "pruebas")
		return err
	}))

	assert.True(t, recibo.ReciboSubtotal.Equal(decimal.RequireFromString("1200.00")))
	assert.True(t, recibo.ReciboDescuento.Equal(decimal.RequireFromString("600.00")))
	assert.True(t, recibo.ReciboTotal.Equal(decimal.RequireFromString("600.00")))
	assert.True(t, recibo.ReciboSaldo.Equal(recibo.ReciboTotal))
}

type becaExcesiva struct{}

func (becaExcesiva) DescuentoPara(_ *gorm.DB, _ uuid.UUID, _ *uuid.UUID, importe decimal.Decimal, _ time.Time) (decimal.Decimal, error) {
	return importe.Mul(decimal.NewFromInt(2)), nil
}

func TestEmitirReciboDescuentoExcedeSubtotal(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := EmitirRecibo(tx, EmisionRecibo{
			AlumnoID:         &alumno.AlumnoID,
			FechaEmision:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			FechaVencimiento: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
			Lineas: []LineaEmision{{
				Descripcion:    "Colegiatura",
				Cantidad:       1,
				PrecioUnitario: decimal.RequireFromString("1000.00"),
			}},
		}, becaExcesiva{}, "pruebas")
		return err
	})
	requiereStatus(t, err, 422)
}

func TestProrratearDescuento(t *testing.T) {
	subtotal := decimal.RequireFromString("1200.00")
	descuento := decimal.RequireFromString("600.00")

	casos := []struct {
		importe, esperado string
	}{
		{"1000.00", "500.00"},
		{"200.00", "100.00"},
		{"0.01", "0.01"},
	}
	for _, c := range casos {
		got := ProrratearDescuento(decimal.RequireFromString(c.importe), descuento, subtotal)
		assert.True(t, got.Equal(decimal.RequireFromString(c.esperado)),
			fmt.Sprintf("importe %s: %s", c.importe, got))
	}

	assert.True(t, ProrratearDescuento(decimal.RequireFromString("100.00"), decimal.Zero, subtotal).IsZero())
	assert.True(t, ProrratearDescuento(decimal.RequireFromString("100.00"), descuento, decimal.Zero).IsZero())
}
