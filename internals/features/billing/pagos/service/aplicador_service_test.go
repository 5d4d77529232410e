package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "universidad_backend/internals/databases"
	academicsModel "universidad_backend/internals/features/academics/model"
	becaService "universidad_backend/internals/features/academics/service"
	model "universidad_backend/internals/features/billing/pagos/model"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
	reciboService "universidad_backend/internals/features/billing/recibos/service"
)

var contadorBD atomic.Int64

func abrirBD(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:pagos_%d?mode=memory&cache=shared", contadorBD.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.ModelosRegistrados()...))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func crearAlumno(t *testing.T, db *gorm.DB) *academicsModel.AlumnoModel {
	t.Helper()
	a := &academicsModel.AlumnoModel{
		AlumnoMatricula: fmt.Sprintf("UT%06d", contadorBD.Add(1)),
		AlumnoNombre:    "Alumno de Prueba",
		AlumnoActivo:    true,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func emitirRecibo(t *testing.T, db *gorm.DB, alumnoID uuid.UUID, importes ...string) *reciboModel.ReciboModel {
	t.Helper()
	lineas := make([]reciboService.LineaEmision, 0, len(importes))
	for i, imp := range importes {
		lineas = append(lineas, reciboService.LineaEmision{
			Descripcion:    fmt.Sprintf("Concepto %d", i+1),
			Cantidad:       1,
			PrecioUnitario: decimal.RequireFromString(imp),
		})
	}
	var recibo *reciboModel.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		recibo, err = reciboService.EmitirRecibo(tx, reciboService.EmisionRecibo{
			AlumnoID:         &alumnoID,
			FechaEmision:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			FechaVencimiento: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
			Lineas:           lineas,
		}, becaService.SinBeca{}, "pruebas")
		return err
	}))
	return recibo
}

func registrarPago(t *testing.T, db *gorm.DB, monto string) *model.PagoModel {
	t.Helper()
	var pago *model.PagoModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		pago, err = RegistrarPago(tx, RegistroPago{
			Fecha:   time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC),
			Monto:   decimal.RequireFromString(monto),
			Estatus: model.PagoConfirmado,
		})
		return err
	}))
	return pago
}

func detallesDelRecibo(t *testing.T, db *gorm.DB, reciboID uuid.UUID) []reciboModel.ReciboDetalleModel {
	t.Helper()
	var detalles []reciboModel.ReciboDetalleModel
	require.NoError(t, db.Where("recibo_detalle_recibo_id = ?", reciboID).
		Order("recibo_detalle_created_at ASC, recibo_detalle_id ASC").
		Find(&detalles).Error)
	return detalles
}

func requiereStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	fe, ok := err.(*fiber.Error)
	require.True(t, ok, "se esperaba *fiber.Error, llegó %T: %v", err, err)
	assert.Equal(t, status, fe.Code, "mensaje: %s", fe.Message)
}

func TestAplicarPagoExplicito(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "1000.00", "500.00")
	detalles := detallesDelRecibo(t, db, recibo.ReciboID)
	pago := registrarPago(t, db, "1500.00")

	var recibos []*reciboModel.ReciboModel
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		recibos, err = AplicarPago(tx, pago.PagoID, []InstruccionAplicacion{
			{ReciboDetalleID: detalles[0].ReciboDetalleID, Monto: decimal.RequireFromString("1000.00")},
			{ReciboDetalleID: detalles[1].ReciboDetalleID, Monto: decimal.RequireFromString("500.00")},
		}, "caja1")
		return err
	}))

	require.Len(t, recibos, 1)
	assert.Equal(t, reciboModel.ReciboPagado, recibos[0].ReciboEstatus)
	assert.True(t, recibos[0].ReciboSaldo.IsZero())
}

func TestAplicarPagoConservacionPorPago(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "1000.00")
	detalles := detallesDelRecibo(t, db, recibo.ReciboID)
	pago := registrarPago(t, db, "300.00")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AplicarPago(tx, pago.PagoID, []InstruccionAplicacion{
			{ReciboDetalleID: detalles[0].ReciboDetalleID, Monto: decimal.RequireFromString("400.00")},
		}, "caja1")
		return err
	})
	requiereStatus(t, err, 422)
}

func TestAplicarPagoConservacionPorLinea(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "200.00")
	detalles := detallesDelRecibo(t, db, recibo.ReciboID)
	pago := registrarPago(t, db, "1000.00")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AplicarPago(tx, pago.PagoID, []InstruccionAplicacion{
			{ReciboDetalleID: detalles[0].ReciboDetalleID, Monto: decimal.RequireFromString("250.00")},
		}, "caja1")
		return err
	})
	requiereStatus(t, err, 422)
}

func TestAplicarPagoMontoNoPositivo(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "200.00")
	detalles := detallesDelRecibo(t, db, recibo.ReciboID)
	pago := registrarPago(t, db, "1000.00")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AplicarPago(tx, pago.PagoID, []InstruccionAplicacion{
			{ReciboDetalleID: detalles[0].ReciboDetalleID, Monto: decimal.Zero},
		}, "caja1")
		return err
	})
	requiereStatus(t, err, 400)
}

func TestAplicarPagoReciboCancelado(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "200.00")
	detalles := detallesDelRecibo(t, db, recibo.ReciboID)
	pago := registrarPago(t, db, "200.00")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := reciboService.Cancelar(tx, recibo.ReciboID, "control", "duplicado")
		return err
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AplicarPago(tx, pago.PagoID, []InstruccionAplicacion{
			{ReciboDetalleID: detalles[0].ReciboDetalleID, Monto: decimal.RequireFromString("200.00")},
		}, "caja1")
		return err
	})
	requiereStatus(t, err, 409)
}

func TestDistribuirPagoEnOrden(t *testing.T) {
	// Dos recibos en el orden del cajero; el monto cubre el primero completo y
	// el segundo a medias, el sobrante queda sin aplicar.
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	r1 := emitirRecibo(t, db, alumno.AlumnoID, "600.00")
	r2 := emitirRecibo(t, db, alumno.AlumnoID, "500.00")
	pago := registrarPago(t, db, "1200.00")

	var sobrante decimal.Decimal
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		sobrante, _, err = DistribuirPago(tx, pago.PagoID,
			[]uuid.UUID{r1.ReciboID, r2.ReciboID}, decimal.RequireFromString("1200.00"), "caja1")
		return err
	}))

	assert.True(t, sobrante.Equal(decimal.RequireFromString("100.00")), "sobrante = %s", sobrante)

	var recargado1, recargado2 reciboModel.ReciboModel
	require.NoError(t, db.Take(&recargado1, "recibo_id = ?", r1.ReciboID).Error)
	require.NoError(t, db.Take(&recargado2, "recibo_id = ?", r2.ReciboID).Error)
	assert.Equal(t, reciboModel.ReciboPagado, recargado1.ReciboEstatus)
	assert.Equal(t, reciboModel.ReciboPagado, recargado2.ReciboEstatus)
}

func TestDistribuirPagoParcial(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	r1 := emitirRecibo(t, db, alumno.AlumnoID, "600.00")
	r2 := emitirRecibo(t, db, alumno.AlumnoID, "500.00")
	pago := registrarPago(t, db, "800.00")

	var sobrante decimal.Decimal
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		sobrante, _, err = DistribuirPago(tx, pago.PagoID,
			[]uuid.UUID{r1.ReciboID, r2.ReciboID}, decimal.RequireFromString("800.00"), "caja1")
		return err
	}))

	assert.True(t, sobrante.IsZero())

	var recargado1, recargado2 reciboModel.ReciboModel
	require.NoError(t, db.Take(&recargado1, "recibo_id = ?", r1.ReciboID).Error)
	require.NoError(t, db.Take(&recargado2, "recibo_id = ?", r2.ReciboID).Error)
	assert.Equal(t, reciboModel.ReciboPagado, recargado1.ReciboEstatus)
	assert.Equal(t, reciboModel.ReciboParcial, recargado2.ReciboEstatus)
	assert.True(t, recargado2.ReciboSaldo.Equal(decimal.RequireFromString("300.00")))
}

func TestDistribuirPagoSintetizaLineaDeRecargo(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "1000.00")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := reciboService.AjustarRecargo(tx, recibo.ReciboID,
			decimal.RequireFromString("100.00"), "control", "10 días de atraso")
		return err
	}))

	pago := registrarPago(t, db, "1100.00")

	var sobrante decimal.Decimal
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		sobrante, _, err = DistribuirPago(tx, pago.PagoID,
			[]uuid.UUID{recibo.ReciboID}, decimal.RequireFromString("1100.00"), "caja1")
		return err
	}))
	assert.True(t, sobrante.IsZero())

	detalles := detallesDelRecibo(t, db, recibo.ReciboID)
	require.Len(t, detalles, 2)
	var lineaRecargo *reciboModel.ReciboDetalleModel
	for i := range detalles {
		if detalles[i].ReciboDetalleEsRecargo {
			lineaRecargo = &detalles[i]
		}
	}
	require.NotNil(t, lineaRecargo, "se esperaba línea de recargo sintetizada")
	assert.True(t, lineaRecargo.ReciboDetalleImporte.Equal(decimal.RequireFromString("100.00")))

	var final reciboModel.ReciboModel
	require.NoError(t, db.Take(&final, "recibo_id = ?", recibo.ReciboID).Error)
	assert.Equal(t, reciboModel.ReciboPagado, final.ReciboEstatus)
	assert.True(t, final.ReciboSaldo.IsZero())
}

func TestDistribuirPagoExcedeDisponible(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "1000.00")
	pago := registrarPago(t, db, "500.00")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, _, err := DistribuirPago(tx, pago.PagoID,
			[]uuid.UUID{recibo.ReciboID}, decimal.RequireFromString("600.00"), "caja1")
		return err
	})
	requiereStatus(t, err, 422)
}

func TestRegistrarPagoFolioYValidacion(t *testing.T) {
	db := abrirBD(t)

	p1 := registrarPago(t, db, "100.00")
	p2 := registrarPago(t, db, "200.00")
	assert.Equal(t, "PAG2026-000001", p1.PagoFolio)
	assert.Equal(t, "PAG2026-000002", p2.PagoFolio)
	assert.Equal(t, "MXN", p1.PagoMoneda)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := RegistrarPago(tx, RegistroPago{Monto: decimal.Zero})
		return err
	})
	requiereStatus(t, err, 400)
}

func TestRegistrarPagoReferenciaUnica(t *testing.T) {
	db := abrirBD(t)

	referencia := "orden-midtrans-123"
	_, err := RegistrarPago(db, RegistroPago{
		Monto:      decimal.RequireFromString("500.00"),
		Referencia: &referencia,
		Estatus:    model.PagoConfirmado,
	})
	require.NoError(t, err)

	// El índice único sobre la referencia detiene al segundo escritor aunque
	// su lectura previa no haya visto nada.
	_, err = RegistrarPago(db, RegistroPago{
		Monto:      decimal.RequireFromString("500.00"),
		Referencia: &referencia,
		Estatus:    model.PagoConfirmado,
	})
	require.ErrorIs(t, err, ErrReferenciaDuplicada)

	var n int64
	require.NoError(t, db.Model(&model.PagoModel{}).
		Where("pago_referencia = ?", referencia).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	// Pagos sin referencia no chocan entre sí.
	_, err = RegistrarPago(db, RegistroPago{Monto: decimal.RequireFromString("100.00")})
	require.NoError(t, err)
	_, err = RegistrarPago(db, RegistroPago{Monto: decimal.RequireFromString("100.00")})
	require.NoError(t, err)
}

func TestCorteCajaAgrupaPorMetodo(t *testing.T) {
	db := abrirBD(t)

	efectivo := &academicsModel.MetodoPagoModel{MetodoPagoNombre: "Efectivo"}
	tarjeta := &academicsModel.MetodoPagoModel{MetodoPagoNombre: "Tarjeta"}
	require.NoError(t, db.Create(efectivo).Error)
	require.NoError(t, db.Create(tarjeta).Error)

	crear := func(metodoID *uuid.UUID, monto string, estatus model.EstatusPago) {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			p, err := RegistrarPago(tx, RegistroPago{
				Fecha:        time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
				MetodoPagoID: metodoID,
				Monto:        decimal.RequireFromString(monto),
				Estatus:      model.PagoConfirmado,
			})
			if err != nil {
				return err
			}
			if estatus == model.PagoCancelado {
				return tx.Model(&model.PagoModel{}).
					Where("pago_id = ?", p.PagoID).
					Update("pago_estatus", model.PagoCancelado).Error
			}
			return nil
		}))
	}

	crear(&efectivo.MetodoPagoID, "100.00", model.PagoConfirmado)
	crear(&efectivo.MetodoPagoID, "250.00", model.PagoConfirmado)
	crear(&tarjeta.MetodoPagoID, "400.00", model.PagoConfirmado)
	crear(&tarjeta.MetodoPagoID, "999.00", model.PagoCancelado)

	corte, err := CorteCaja(db,
		time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 15, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, corte.Total.Equal(decimal.RequireFromString("750.00")), "total = %s", corte.Total)
	require.Len(t, corte.Totales, 2)
	porNombre := map[string]ResumenMetodo{}
	for _, r := range corte.Totales {
		porNombre[r.MetodoPagoNombre] = r
	}
	assert.Equal(t, 2, porNombre["Efectivo"].NumPagos)
	assert.True(t, porNombre["Efectivo"].Total.Equal(decimal.RequireFromString("350.00")))
	assert.Equal(t, 1, porNombre["Tarjeta"].NumPagos)
	assert.True(t, porNombre["Tarjeta"].Total.Equal(decimal.RequireFromString("400.00")))
}

func TestComprobantePago(t *testing.T) {
	db := abrirBD(t)
	alumno := crearAlumno(t, db)
	recibo := emitirRecibo(t, db, alumno.AlumnoID, "600.00")
	pago := registrarPago(t, db, "1000.00")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, _, err := DistribuirPago(tx, pago.PagoID,
			[]uuid.UUID{recibo.ReciboID}, decimal.RequireFromString("600.00"), "caja1")
		return err
	}))

	comprobante, err := ComprobantePago(db, pago.PagoID)
	require.NoError(t, err)
	require.Len(t, comprobante.Lineas, 1)
	assert.Equal(t, recibo.ReciboFolio, comprobante.Lineas[0].ReciboFolio)
	assert.True(t, comprobante.Aplicado.Equal(decimal.RequireFromString("600.00")))
	assert.True(t, comprobante.SinAplicar.Equal(decimal.RequireFromString("400.00")))
}
