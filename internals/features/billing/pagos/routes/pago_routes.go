package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	eventosService "universidad_backend/internals/features/billing/eventos/service"
	"universidad_backend/internals/features/billing/pagos/controller"
	"universidad_backend/internals/middlewares"
)

func PagoAdminRoutes(r fiber.Router, db *gorm.DB, d *eventosService.Despachador) {
	ctrl := controller.NewPagoController(db, d)

	g := r.Group("/pagos")
	g.Post("/", ctrl.Create)
	g.Post("/distribuir", ctrl.Distribuir)
	g.Get("/corte", ctrl.Corte)
	g.Get("/:id/comprobante", ctrl.Comprobante)
}

// Rutas públicas de la pasarela: checkout por folio y webhook de notificación.
func PagoPublicRoutes(r fiber.Router, db *gorm.DB, d *eventosService.Despachador) {
	ctrl := controller.NewPagoController(db, d)

	g := r.Group("/pagos")
	g.Post("/checkout/:folio", ctrl.Checkout)
	g.Post("/notificacion", middlewares.WebhookRateLimiter(), ctrl.Notificacion)
}
