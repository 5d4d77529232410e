package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	academicsModel "universidad_backend/internals/features/academics/model"
	becaService "universidad_backend/internals/features/academics/service"
	model "universidad_backend/internals/features/billing/plantillas/model"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
	reciboService "universidad_backend/internals/features/billing/recibos/service"
	helper "universidad_backend/internals/helpers"
)

var mesesEs = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

const (
	OmisionReciboDePlantilla = "ya tiene recibos de esta plantilla en el periodo"
	OmisionReciboEnPeriodo   = "ya tiene recibos activos en el periodo"
)

type OpcionesGeneracion struct {
	PlantillaID uuid.UUID
	PeriodoID   uuid.UUID

	// AlumnoIDs acota la corrida a una lista explícita; vacío = todos los
	// inscritos elegibles del plan/cuatrimestre en el periodo.
	AlumnoIDs []uuid.UUID

	Actor string
}

type ReciboProyectado struct {
	Folio            string          `json:"folio,omitempty"`
	FechaVencimiento time.Time       `json:"fecha_vencimiento"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Descuento        decimal.Decimal `json:"descuento"`
	Total            decimal.Decimal `json:"total"`
	NumLineas        int             `json:"num_lineas"`
}

type ResultadoAlumno struct {
	AlumnoID uuid.UUID          `json:"alumno_id"`
	Recibos  []ReciboProyectado `json:"recibos,omitempty"`
	Total    decimal.Decimal    `json:"total"`
	Omitido  *string            `json:"omitido,omitempty"`
	Error    *string            `json:"error,omitempty"`
}

type ResultadoGeneracion struct {
	PlantillaID uuid.UUID         `json:"plantilla_id"`
	PeriodoID   uuid.UUID         `json:"periodo_id"`
	Simulacion  bool              `json:"simulacion"`
	Generados   int               `json:"generados"`
	Omitidos    int               `json:"omitidos"`
	Fallidos    int               `json:"fallidos"`
	Alumnos     []ResultadoAlumno `json:"alumnos"`
}

// GenerarRecibos expande la plantilla en recibos para todos los alumnos
// elegibles del periodo. Cada alumno va en su propia transacción: el fallo de
// uno se registra en el resultado y la corrida sigue. El contexto se revisa en
// cada frontera de alumno; al cancelarse regresa el avance parcial.
func GenerarRecibos(ctx context.Context, db *gorm.DB, op OpcionesGeneracion, calc becaService.CalculadoraBeca) (*ResultadoGeneracion, error) {
	return correr(ctx, db, op, calc, false)
}

// SimularGeneracion corre elegibilidad, selectores y descuentos sin persistir
// nada: regresa los totales proyectados por alumno.
func SimularGeneracion(ctx context.Context, db *gorm.DB, op OpcionesGeneracion, calc becaService.CalculadoraBeca) (*ResultadoGeneracion, error) {
	return correr(ctx, db, op, calc, true)
}

func correr(ctx context.Context, db *gorm.DB, op OpcionesGeneracion, calc becaService.CalculadoraBeca, simular bool) (*ResultadoGeneracion, error) {
	plantilla, periodo, err := cargarPlantillaYPeriodo(db, op.PlantillaID, op.PeriodoID)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		calc = becaService.NuevaCalculadoraBecas()
	}

	alumnos, err := alumnosElegibles(db, plantilla, op.PeriodoID, op.AlumnoIDs)
	if err != nil {
		return nil, err
	}

	resultado := &ResultadoGeneracion{
		PlantillaID: op.PlantillaID,
		PeriodoID:   op.PeriodoID,
		Simulacion:  simular,
	}

	for _, alumnoID := range alumnos {
		select {
		case <-ctx.Done():
			return resultado, ctx.Err()
		default:
		}

		ra := ResultadoAlumno{AlumnoID: alumnoID, Total: decimal.Zero}

		razon, err := razonOmision(db, alumnoID, plantilla.PlantillaCobroID, op.PeriodoID)
		if err != nil {
			msg := err.Error()
			ra.Error = &msg
			resultado.Fallidos++
			resultado.Alumnos = append(resultado.Alumnos, ra)
			continue
		}
		if razon != nil {
			ra.Omitido = razon
			resultado.Omitidos++
			resultado.Alumnos = append(resultado.Alumnos, ra)
			continue
		}

		if simular {
			err = proyectarAlumno(db, plantilla, periodo, alumnoID, calc, &ra)
		} else {
			err = db.Transaction(func(tx *gorm.DB) error {
				return emitirParaAlumno(tx, plantilla, periodo, alumnoID, calc, op.Actor, &ra)
			})
		}
		if err != nil {
			msg := err.Error()
			ra.Error = &msg
			ra.Recibos = nil
			ra.Total = decimal.Zero
			resultado.Fallidos++
			log.Printf("[GENERADOR] alumno %s falló: %v", alumnoID, err)
		} else {
			resultado.Generados += len(ra.Recibos)
		}
		resultado.Alumnos = append(resultado.Alumnos, ra)
	}

	return resultado, nil
}

func cargarPlantillaYPeriodo(db *gorm.DB, plantillaID, periodoID uuid.UUID) (*model.PlantillaCobroModel, *academicsModel.PeriodoModel, error) {
	var plantilla model.PlantillaCobroModel
	if err := db.Preload("Detalles").Take(&plantilla, "plantilla_cobro_id = ?", plantillaID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fiber.NewError(fiber.StatusNotFound, "Plantilla no encontrada")
		}
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !plantilla.PlantillaCobroActiva {
		return nil, nil, fiber.NewError(fiber.StatusConflict, "La plantilla está inactiva")
	}
	if len(plantilla.Detalles) == 0 {
		return nil, nil, fiber.NewError(fiber.StatusUnprocessableEntity, "La plantilla no tiene líneas")
	}
	if plantilla.PlantillaCobroPeriodoID != nil && *plantilla.PlantillaCobroPeriodoID != periodoID {
		return nil, nil, fiber.NewError(fiber.StatusUnprocessableEntity, "La plantilla está acotada a otro periodo")
	}

	var periodo academicsModel.PeriodoModel
	if err := db.Take(&periodo, "periodo_id = ?", periodoID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fiber.NewError(fiber.StatusNotFound, "Periodo no encontrado")
		}
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &plantilla, &periodo, nil
}

func alumnosElegibles(db *gorm.DB, p *model.PlantillaCobroModel, periodoID uuid.UUID, explicitos []uuid.UUID) ([]uuid.UUID, error) {
	q := db.Model(&academicsModel.InscripcionModel{}).
		Where("inscripcion_plan_id = ? AND inscripcion_cuatrimestre = ? AND inscripcion_periodo_id = ? AND inscripcion_activa = ?",
			p.PlantillaCobroPlanID, p.PlantillaCobroCuatrimestre, periodoID, true)
	if p.PlantillaCobroTurno != nil {
		q = q.Where("inscripcion_turno = ?", *p.PlantillaCobroTurno)
	}
	if len(explicitos) > 0 {
		q = q.Where("inscripcion_alumno_id IN ?", explicitos)
	}

	var inscripciones []academicsModel.InscripcionModel
	if err := q.Order("created_at ASC").Find(&inscripciones).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	vistos := map[uuid.UUID]bool{}
	alumnos := make([]uuid.UUID, 0, len(inscripciones))
	for _, i := range inscripciones {
		if !vistos[i.InscripcionAlumnoID] {
			vistos[i.InscripcionAlumnoID] = true
			alumnos = append(alumnos, i.InscripcionAlumnoID)
		}
	}
	return alumnos, nil
}

// razonOmision decide si el alumno ya está cubierto en el periodo: primero por
// recibos de esta misma plantilla, después por cualquier recibo activo.
func razonOmision(db *gorm.DB, alumnoID, plantillaID, periodoID uuid.UUID) (*string, error) {
	var n int64
	err := db.Model(&reciboModel.ReciboModel{}).
		Where("recibo_alumno_id = ? AND recibo_periodo_id = ? AND recibo_plantilla_id = ? AND recibo_estatus <> ?",
			alumnoID, periodoID, plantillaID, reciboModel.ReciboCancelado).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n > 0 {
		razon := OmisionReciboDePlantilla
		return &razon, nil
	}

	err = db.Model(&reciboModel.ReciboModel{}).
		Where("recibo_alumno_id = ? AND recibo_periodo_id = ? AND recibo_estatus <> ?",
			alumnoID, periodoID, reciboModel.ReciboCancelado).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n > 0 {
		razon := OmisionReciboEnPeriodo
		return &razon, nil
	}
	return nil, nil
}

// lineasParaOrdinal aplica el selector de cada línea al recibo n de numRecibos.
func lineasParaOrdinal(detalles []model.PlantillaCobroDetalleModel, n, numRecibos int) []model.PlantillaCobroDetalleModel {
	var lineas []model.PlantillaCobroDetalleModel
	for _, d := range detalles {
		switch d.PlantillaCobroDetalleAplicaEn {
		case model.AplicaTodos:
			lineas = append(lineas, d)
		case model.AplicaPrimero:
			if n == 1 {
				lineas = append(lineas, d)
			}
		case model.AplicaUltimo:
			if n == numRecibos {
				lineas = append(lineas, d)
			}
		case model.AplicaNumero:
			if d.PlantillaCobroDetalleAplicaEnNumero != nil && n == *d.PlantillaCobroDetalleAplicaEnNumero {
				lineas = append(lineas, d)
			}
		}
	}
	return lineas
}

// FechaVencimientoOrdinal calcula el vencimiento del recibo n: inicio del
// periodo más (n−1) meses, con el día de corte ajustado al último día del mes
// cuando no existe (31 de febrero → 28/29).
func FechaVencimientoOrdinal(inicioPeriodo time.Time, diaVencimiento, n int) time.Time {
	base := time.Date(inicioPeriodo.Year(), inicioPeriodo.Month(), 1, 0, 0, 0, 0, time.UTC)
	mes := base.AddDate(0, n-1, 0)
	ultimo := mes.AddDate(0, 1, -1).Day()
	dia := diaVencimiento
	if dia > ultimo {
		dia = ultimo
	}
	if dia < 1 {
		dia = 1
	}
	return time.Date(mes.Year(), mes.Month(), dia, 0, 0, 0, 0, time.UTC)
}

// SustituirMarcadores reemplaza {mes} {mes_anio} {num_mes} {anio} con la fecha
// de vencimiento calculada, en español.
func SustituirMarcadores(descripcion string, fecha time.Time) string {
	mes := mesesEs[int(fecha.Month())-1]
	r := strings.NewReplacer(
		"{mes_anio}", fmt.Sprintf("%s %d", mes, fecha.Year()),
		"{mes}", mes,
		"{num_mes}", fmt.Sprintf("%02d", int(fecha.Month())),
		"{anio}", fmt.Sprintf("%d", fecha.Year()),
	)
	return r.Replace(descripcion)
}

type emisionPlaneada struct {
	fechaVencimiento time.Time
	lineas           []reciboService.LineaEmision
	plantillaDetalle []*uuid.UUID
}

func planearEmisiones(p *model.PlantillaCobroModel, periodo *academicsModel.PeriodoModel) []emisionPlaneada {
	numRecibos := p.PlantillaCobroNumRecibos
	if p.PlantillaCobroEstrategia == model.EmisionUnica {
		numRecibos = 1
	}

	var plan []emisionPlaneada
	for n := 1; n <= numRecibos; n++ {
		var detalles []model.PlantillaCobroDetalleModel
		if p.PlantillaCobroEstrategia == model.EmisionUnica {
			detalles = p.Detalles
		} else {
			detalles = lineasParaOrdinal(p.Detalles, n, numRecibos)
		}
		if len(detalles) == 0 {
			continue
		}

		venc := FechaVencimientoOrdinal(periodo.PeriodoFechaInicio, p.PlantillaCobroDiaVencimiento, n)
		e := emisionPlaneada{fechaVencimiento: venc}
		for _, d := range detalles {
			conceptoID := d.PlantillaCobroDetalleConceptoID
			detalleID := d.PlantillaCobroDetalleID
			e.lineas = append(e.lineas, reciboService.LineaEmision{
				ConceptoID:     &conceptoID,
				Descripcion:    SustituirMarcadores(d.PlantillaCobroDetalleDescripcion, venc),
				Cantidad:       d.PlantillaCobroDetalleCantidad,
				PrecioUnitario: d.PlantillaCobroDetallePrecioUnitario,
			})
			e.plantillaDetalle = append(e.plantillaDetalle, &detalleID)
		}
		plan = append(plan, e)
	}
	return plan
}

func emitirParaAlumno(tx *gorm.DB, p *model.PlantillaCobroModel, periodo *academicsModel.PeriodoModel, alumnoID uuid.UUID, calc becaService.CalculadoraBeca, actor string, ra *ResultadoAlumno) error {
	alumno := alumnoID
	periodoID := periodo.PeriodoID
	plantillaID := p.PlantillaCobroID

	for _, e := range planearEmisiones(p, periodo) {
		recibo, err := reciboService.EmitirRecibo(tx, reciboService.EmisionRecibo{
			AlumnoID:            &alumno,
			PeriodoID:           &periodoID,
			PlantillaID:         &plantillaID,
			FechaEmision:        time.Now(),
			FechaVencimiento:    e.fechaVencimiento,
			Lineas:              e.lineas,
			PlantillaDetalleIDs: e.plantillaDetalle,
		}, calc, actor)
		if err != nil {
			return err
		}
		ra.Recibos = append(ra.Recibos, ReciboProyectado{
			Folio:            recibo.ReciboFolio,
			FechaVencimiento: recibo.ReciboFechaVencimiento,
			Subtotal:         recibo.ReciboSubtotal,
			Descuento:        recibo.ReciboDescuento,
			Total:            recibo.ReciboTotal,
			NumLineas:        len(e.lineas),
		})
		ra.Total = ra.Total.Add(recibo.ReciboTotal)
	}
	return nil
}

func proyectarAlumno(db *gorm.DB, p *model.PlantillaCobroModel, periodo *academicsModel.PeriodoModel, alumnoID uuid.UUID, calc becaService.CalculadoraBeca, ra *ResultadoAlumno) error {
	for _, e := range planearEmisiones(p, periodo) {
		subtotal := decimal.Zero
		descuento := decimal.Zero
		for _, l := range e.lineas {
			importe := helper.Round2(l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad))))
			subtotal = subtotal.Add(importe)
			d, err := calc.DescuentoPara(db, alumnoID, l.ConceptoID, importe, e.fechaVencimiento)
			if err != nil {
				return err
			}
			descuento = descuento.Add(d)
		}
		total := helper.Round2(subtotal.Sub(descuento))
		ra.Recibos = append(ra.Recibos, ReciboProyectado{
			FechaVencimiento: e.fechaVencimiento,
			Subtotal:         subtotal,
			Descuento:        descuento,
			Total:            total,
			NumLineas:        len(e.lineas),
		})
		ra.Total = ra.Total.Add(total)
	}
	return nil
}
