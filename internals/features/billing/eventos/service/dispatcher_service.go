package service

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	academicsModel "universidad_backend/internals/features/academics/model"
	model "universidad_backend/internals/features/billing/eventos/model"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
)

// NotificadorDocumentos desbloquea solicitudes de documentos condicionadas al
// pago. El módulo real de documentos vive fuera de este servicio; el default
// sólo deja constancia en el log.
type NotificadorDocumentos interface {
	NotificarPago(reciboID uuid.UUID) error
}

type notificadorLog struct{}

func (notificadorLog) NotificarPago(reciboID uuid.UUID) error {
	log.Printf("[CASCADA] recibo %s pagado; documentos notificados", reciboID)
	return nil
}

func NuevoNotificadorLog() NotificadorDocumentos { return notificadorLog{} }

// Despachador drena el outbox de recibo_eventos después del commit del cobro.
// Todo aquí es best-effort: las fallas se guardan en el evento, se loguean y
// se regresan como advertencias, nunca revierten nada.
type Despachador struct {
	DB          *gorm.DB
	Notificador NotificadorDocumentos
}

func NuevoDespachador(db *gorm.DB, n NotificadorDocumentos) *Despachador {
	if n == nil {
		n = notificadorLog{}
	}
	return &Despachador{DB: db, Notificador: n}
}

// ProcesarPendientes toma los eventos no procesados en orden de llegada y
// ejecuta los efectos de cada uno. Regresa las advertencias acumuladas.
func (d *Despachador) ProcesarPendientes() []string {
	var eventos []model.ReciboEventoModel
	if err := d.DB.Where("recibo_evento_procesado = ?", false).
		Order("recibo_evento_created_at ASC").
		Find(&eventos).Error; err != nil {
		log.Printf("[CASCADA] no se pudo leer el outbox: %v", err)
		return []string{"no se pudo leer el outbox: " + err.Error()}
	}

	var advertencias []string
	for _, ev := range eventos {
		adv := d.procesarEvento(&ev)
		advertencias = append(advertencias, adv...)
	}
	return advertencias
}

func (d *Despachador) procesarEvento(ev *model.ReciboEventoModel) []string {
	var advertencias []string

	if ev.ReciboEventoTipo == model.EventoReciboPagado {
		if err := d.actualizarAspirante(ev.ReciboEventoReciboID); err != nil {
			advertencias = append(advertencias, err.Error())
			log.Printf("[CASCADA] evento %s: %v", ev.ReciboEventoID, err)
		}
		if err := d.Notificador.NotificarPago(ev.ReciboEventoReciboID); err != nil {
			advertencias = append(advertencias, "notificación de documentos: "+err.Error())
			log.Printf("[CASCADA] evento %s notificación: %v", ev.ReciboEventoID, err)
		}
	}

	ahora := time.Now()
	actualiza := map[string]any{
		"recibo_evento_procesado":    true,
		"recibo_evento_procesado_at": ahora,
	}
	if len(advertencias) > 0 {
		detalle := advertencias[0]
		for _, a := range advertencias[1:] {
			detalle += "; " + a
		}
		actualiza["recibo_evento_error"] = detalle
	}
	if err := d.DB.Model(&model.ReciboEventoModel{}).
		Where("recibo_evento_id = ?", ev.ReciboEventoID).
		Updates(actualiza).Error; err != nil {
		log.Printf("[CASCADA] no se pudo marcar el evento %s: %v", ev.ReciboEventoID, err)
		advertencias = append(advertencias, "no se pudo marcar el evento: "+err.Error())
	}
	return advertencias
}

// actualizarAspirante mueve el estatus del aspirante cuando todos sus recibos
// activos quedaron pagados. El catálogo se busca por descripción "Pagado" y,
// si no existe, "Admitido"; sin ninguno de los dos sólo se advierte.
func (d *Despachador) actualizarAspirante(reciboID uuid.UUID) error {
	var recibo reciboModel.ReciboModel
	if err := d.DB.Take(&recibo, "recibo_id = ?", reciboID).Error; err != nil {
		return err
	}
	if recibo.ReciboAspiranteID == nil {
		return nil
	}

	var pendientes int64
	err := d.DB.Model(&reciboModel.ReciboModel{}).
		Where("recibo_aspirante_id = ? AND recibo_estatus NOT IN ?",
			*recibo.ReciboAspiranteID,
			[]reciboModel.EstatusRecibo{reciboModel.ReciboPagado, reciboModel.ReciboCancelado}).
		Count(&pendientes).Error
	if err != nil {
		return err
	}
	if pendientes > 0 {
		return nil
	}

	estatusID, err := d.estatusPorDescripcion("Pagado", "Admitido")
	if err != nil {
		return err
	}
	if estatusID == nil {
		log.Printf("[CASCADA] sin estatus 'Pagado' ni 'Admitido' en catálogo; aspirante %s sin actualizar", *recibo.ReciboAspiranteID)
		return nil
	}

	return d.DB.Model(&academicsModel.AspiranteModel{}).
		Where("aspirante_id = ?", *recibo.ReciboAspiranteID).
		Update("aspirante_estatus_id_ref", *estatusID).Error
}

func (d *Despachador) estatusPorDescripcion(descripciones ...string) (*uuid.UUID, error) {
	for _, desc := range descripciones {
		var e academicsModel.AspiranteEstatusModel
		err := d.DB.Take(&e, "aspirante_estatus_descripcion = ? AND aspirante_estatus_activo = ?", desc, true).Error
		if err == nil {
			id := e.AspiranteEstatusID
			return &id, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}
	return nil, nil
}
