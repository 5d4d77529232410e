package service

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "universidad_backend/internals/databases"
	academicsModel "universidad_backend/internals/features/academics/model"
	model "universidad_backend/internals/features/billing/eventos/model"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
)

var contadorBD atomic.Int64

func abrirBD(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:eventos_%d?mode=memory&cache=shared", contadorBD.Add(1))
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

func crearAspirante(t *testing.T, db *gorm.DB) *academicsModel.AspiranteModel {
	t.Helper()
	a := &academicsModel.AspiranteModel{AspiranteNombre: "Aspirante de Prueba"}
	require.NoError(t, db.Create(a).Error)
	return a
}

func crearEstatus(t *testing.T, db *gorm.DB, descripcion string) *academicsModel.AspiranteEstatusModel {
	t.Helper()
	e := &academicsModel.AspiranteEstatusModel{
		AspiranteEstatusDescripcion: descripcion,
		AspiranteEstatusActivo:      true,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

func crearReciboAspirante(t *testing.T, db *gorm.DB, aspiranteID uuid.UUID, estatus reciboModel.EstatusRecibo) *reciboModel.ReciboModel {
	t.Helper()
	r := &reciboModel.ReciboModel{
		ReciboFolio:            fmt.Sprintf("REC2026-%06d", contadorBD.Add(1)),
		ReciboAspiranteID:      &aspiranteID,
		ReciboFechaEmision:     time.Now(),
		ReciboFechaVencimiento: time.Now(),
		ReciboEstatus:          estatus,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func encolarEvento(t *testing.T, db *gorm.DB, reciboID uuid.UUID) *model.ReciboEventoModel {
	t.Helper()
	ev := &model.ReciboEventoModel{
		ReciboEventoReciboID: reciboID,
		ReciboEventoTipo:     model.EventoReciboPagado,
	}
	require.NoError(t, db.Create(ev).Error)
	return ev
}

func cargarEvento(t *testing.T, db *gorm.DB, id uuid.UUID) *model.ReciboEventoModel {
	t.Helper()
	var ev model.ReciboEventoModel
	require.NoError(t, db.Take(&ev, "recibo_evento_id = ?", id).Error)
	return &ev
}

type notificadorContador struct {
	llamadas int
	fallar   bool
}

func (n *notificadorContador) NotificarPago(uuid.UUID) error {
	n.llamadas++
	if n.fallar {
		return errors.New("servicio de documentos caído")
	}
	return nil
}

func TestDespachadorActualizaAspirantePagado(t *testing.T) {
	db := abrirBD(t)
	pagado := crearEstatus(t, db, "Pagado")
	crearEstatus(t, db, "Admitido")
	aspirante := crearAspirante(t, db)
	recibo := crearReciboAspirante(t, db, aspirante.AspiranteID, reciboModel.ReciboPagado)
	ev := encolarEvento(t, db, recibo.ReciboID)

	notificador := &notificadorContador{}
	advertencias := NuevoDespachador(db, notificador).ProcesarPendientes()
	assert.Empty(t, advertencias)
	assert.Equal(t, 1, notificador.llamadas)

	var final academicsModel.AspiranteModel
	require.NoError(t, db.Take(&final, "aspirante_id = ?", aspirante.AspiranteID).Error)
	require.NotNil(t, final.AspiranteEstatusID)
	assert.Equal(t, pagado.AspiranteEstatusID, *final.AspiranteEstatusID)

	procesado := cargarEvento(t, db, ev.ReciboEventoID)
	assert.True(t, procesado.ReciboEventoProcesado)
	assert.NotNil(t, procesado.ProcesadoAt)
	assert.Nil(t, procesado.ReciboEventoError)

	// Una segunda corrida no tiene nada que hacer.
	assert.Empty(t, NuevoDespachador(db, notificador).ProcesarPendientes())
	assert.Equal(t, 1, notificador.llamadas)
}

func TestDespachadorRespaldoAdmitido(t *testing.T) {
	db := abrirBD(t)
	admitido := crearEstatus(t, db, "Admitido")
	aspirante := crearAspirante(t, db)
	recibo := crearReciboAspirante(t, db, aspirante.AspiranteID, reciboModel.ReciboPagado)
	encolarEvento(t, db, recibo.ReciboID)

	assert.Empty(t, NuevoDespachador(db, nil).ProcesarPendientes())

	var final academicsModel.AspiranteModel
	require.NoError(t, db.Take(&final, "aspirante_id = ?", aspirante.AspiranteID).Error)
	require.NotNil(t, final.AspiranteEstatusID)
	assert.Equal(t, admitido.AspiranteEstatusID, *final.AspiranteEstatusID)
}

func TestDespachadorSinCatalogoSoloAdvierte(t *testing.T) {
	db := abrirBD(t)
	aspirante := crearAspirante(t, db)
	recibo := crearReciboAspirante(t, db, aspirante.AspiranteID, reciboModel.ReciboPagado)
	ev := encolarEvento(t, db, recibo.ReciboID)

	assert.Empty(t, NuevoDespachador(db, nil).ProcesarPendientes())

	var final academicsModel.AspiranteModel
	require.NoError(t, db.Take(&final, "aspirante_id = ?", aspirante.AspiranteID).Error)
	assert.Nil(t, final.AspiranteEstatusID)

	// El evento queda procesado de todos modos.
	assert.True(t, cargarEvento(t, db, ev.ReciboEventoID).ReciboEventoProcesado)
}

func TestDespachadorConReciboHermanoPendiente(t *testing.T) {
	db := abrirBD(t)
	crearEstatus(t, db, "Pagado")
	aspirante := crearAspirante(t, db)
	recibo := crearReciboAspirante(t, db, aspirante.AspiranteID, reciboModel.ReciboPagado)
	crearReciboAspirante(t, db, aspirante.AspiranteID, reciboModel.ReciboPendiente)
	encolarEvento(t, db, recibo.ReciboID)

	assert.Empty(t, NuevoDespachador(db, nil).ProcesarPendientes())

	var final academicsModel.AspiranteModel
	require.NoError(t, db.Take(&final, "aspirante_id = ?", aspirante.AspiranteID).Error)
	assert.Nil(t, final.AspiranteEstatusID)
}

func TestDespachadorNotificadorFallaQuedaRegistrada(t *testing.T) {
	db := abrirBD(t)
	crearEstatus(t, db, "Pagado")
	aspirante := crearAspirante(t, db)
	recibo := crearReciboAspirante(t, db, aspirante.AspiranteID, reciboModel.ReciboPagado)
	ev := encolarEvento(t, db, recibo.ReciboID)

	notificador := &notificadorContador{fallar: true}
	advertencias := NuevoDespachador(db, notificador).ProcesarPendientes()
	require.Len(t, advertencias, 1)
	assert.Contains(t, advertencias[0], "documentos")

	procesado := cargarEvento(t, db, ev.ReciboEventoID)
	assert.True(t, procesado.ReciboEventoProcesado)
	require.NotNil(t, procesado.ReciboEventoError)
	assert.Contains(t, *procesado.ReciboEventoError, "documentos")
}

func TestDespachadorReciboDeAlumno(t *testing.T) {
	db := abrirBD(t)
	crearEstatus(t, db, "Pagado")

	alumno := &academicsModel.AlumnoModel{
		AlumnoMatricula: "GT000900",
		AlumnoNombre:    "Alumno de Prueba",
		AlumnoActivo:    true,
	}
	require.NoError(t, db.Create(alumno).Error)

	recibo := &reciboModel.ReciboModel{
		ReciboFolio:            "REC2026-000901",
		ReciboAlumnoID:         &alumno.AlumnoID,
		ReciboFechaEmision:     time.Now(),
		ReciboFechaVencimiento: time.Now(),
		ReciboEstatus:          reciboModel.ReciboPagado,
	}
	require.NoError(t, db.Create(recibo).Error)
	ev := encolarEvento(t, db, recibo.ReciboID)

	notificador := &notificadorContador{}
	assert.Empty(t, NuevoDespachador(db, notificador).ProcesarPendientes())
	assert.Equal(t, 1, notificador.llamadas)
	assert.True(t, cargarEvento(t, db, ev.ReciboEventoID).ReciboEventoProcesado)
}
