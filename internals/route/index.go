package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"universidad_backend/internals/configs"
	eventosService "universidad_backend/internals/features/billing/eventos/service"
	pagosRoutes "universidad_backend/internals/features/billing/pagos/routes"
	plantillasRoutes "universidad_backend/internals/features/billing/plantillas/routes"
	recargosRoutes "universidad_backend/internals/features/billing/recargos/routes"
	recibosRoutes "universidad_backend/internals/features/billing/recibos/routes"
	"universidad_backend/internals/middlewares"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	despachador := eventosService.NuevoDespachador(db, eventosService.NuevoNotificadorLog())

	api := app.Group("/api")

	// 🔒 Grupo administrativo: caja, control escolar
	admin := api.Group("/a", middlewares.AuthJWT(middlewares.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		AllowCookieFallback: true,
	}))
	recibosRoutes.ReciboAdminRoutes(admin, db, despachador)
	pagosRoutes.PagoAdminRoutes(admin, db, despachador)
	plantillasRoutes.PlantillaAdminRoutes(admin, db)
	recargosRoutes.PoliticaAdminRoutes(admin, db)

	// 🌐 Grupo público: checkout y webhook de la pasarela
	public := api.Group("/public")
	pagosRoutes.PagoPublicRoutes(public, db, despachador)
}
