package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	eventosService "universidad_backend/internals/features/billing/eventos/service"
	"universidad_backend/internals/features/billing/recibos/controller"
)

func ReciboAdminRoutes(r fiber.Router, db *gorm.DB, d *eventosService.Despachador) {
	ctrl := controller.NewReciboController(db, d)

	g := r.Group("/recibos")
	g.Post("/", ctrl.Create)
	g.Get("/", ctrl.List)
	g.Get("/:id", ctrl.GetByID)
	g.Get("/:id/bitacora", ctrl.Bitacora)
	g.Post("/:id/cancelar", ctrl.Cancelar)
	g.Post("/:id/revertir", ctrl.Revertir)
	g.Post("/:id/condonar-recargo", ctrl.CondonarRecargo)
	g.Post("/:id/recargo/recalcular", ctrl.RecalcularRecargo)
	g.Patch("/:id/recargo", ctrl.AjustarRecargo)
	g.Patch("/:id/detalles/:detalleId", ctrl.AjustarDetalle)
}
