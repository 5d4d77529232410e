package service

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	model "universidad_backend/internals/features/billing/recibos/model"
)

// RegistrarBitacora agrega una entrada de auditoría del recibo. La bitácora es
// sólo-agregar: ninguna ruta del motor la modifica ni la borra.
func RegistrarBitacora(tx *gorm.DB, reciboID uuid.UUID, actor, accion string, detalle map[string]any) error {
	entrada := model.BitacoraReciboModel{
		BitacoraReciboReciboID: reciboID,
		BitacoraReciboActor:    actor,
		BitacoraReciboAccion:   accion,
	}
	if detalle != nil {
		raw, err := json.Marshal(detalle)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo serializar el detalle de bitácora")
		}
		entrada.BitacoraReciboDetalle = raw
	}
	if err := tx.Create(&entrada).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return nil
}
