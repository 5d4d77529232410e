package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"universidad_backend/internals/features/billing/plantillas/controller"
)

func PlantillaAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctrl := controller.NewPlantillaController(db)

	g := r.Group("/plantillas")
	g.Post("/", ctrl.Create)
	g.Get("/", ctrl.List)
	g.Post("/:id/generar", ctrl.Generar)
	g.Post("/:id/simular", ctrl.Simular)
}
