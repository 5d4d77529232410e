package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"universidad_backend/internals/features/billing/recargos/controller"
)

func PoliticaAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctrl := controller.NewPoliticaController(db)

	g := r.Group("/politicas-recargo")
	g.Post("/", ctrl.Create)
	g.Get("/", ctrl.List)
	g.Get("/activa", ctrl.Activa)
}
