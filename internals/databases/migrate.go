package database

import (
	"log"

	"gorm.io/gorm"

	academicsModel "universidad_backend/internals/features/academics/model"
	eventosModel "universidad_backend/internals/features/billing/eventos/model"
	pagosModel "universidad_backend/internals/features/billing/pagos/model"
	plantillasModel "universidad_backend/internals/features/billing/plantillas/model"
	recargosModel "universidad_backend/internals/features/billing/recargos/model"
	recibosModel "universidad_backend/internals/features/billing/recibos/model"
)

// ModelosRegistrados enumera todos los modelos del esquema en orden de
// dependencia (catálogos primero).
func ModelosRegistrados() []any {
	return []any{
		&academicsModel.PlanEstudioModel{},
		&academicsModel.PeriodoModel{},
		&academicsModel.ConceptoModel{},
		&academicsModel.MetodoPagoModel{},
		&academicsModel.AlumnoModel{},
		&academicsModel.InscripcionModel{},
		&academicsModel.AspiranteEstatusModel{},
		&academicsModel.AspiranteModel{},
		&academicsModel.BecaModel{},
		&plantillasModel.PlantillaCobroModel{},
		&plantillasModel.PlantillaCobroDetalleModel{},
		&recargosModel.PoliticaRecargoModel{},
		&recibosModel.ReciboModel{},
		&recibosModel.ReciboDetalleModel{},
		&recibosModel.BitacoraReciboModel{},
		&pagosModel.PagoModel{},
		&pagosModel.PagoAplicacionModel{},
		&eventosModel.ReciboEventoModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	log.Println("🧱 Ejecutando migraciones...")
	if err := db.AutoMigrate(ModelosRegistrados()...); err != nil {
		return err
	}
	log.Println("✅ Migraciones listas.")
	return nil
}
