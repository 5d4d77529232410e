package configs

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	JWTSecret          string
	MidtransServerKey  string
	MidtransUseProd    bool
	FolioPrefijoRecibo string
	FolioPrefijoPago   string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ No se encontró archivo .env, usando ENV del sistema")
		} else {
			log.Println("✅ Archivo .env cargado")
		}
	} else {
		log.Println("🚀 Corriendo en Railway, usando ENV del sistema")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	MidtransServerKey = GetEnv("MIDTRANS_SERVER_KEY")
	MidtransUseProd = GetEnv("MIDTRANS_USE_PROD", "false") == "true"

	// Prefijos de folio (por año); el consecutivo se deriva de la tabla, no de una secuencia aparte.
	FolioPrefijoRecibo = GetEnv("FOLIO_PREFIJO_RECIBO", "REC")
	FolioPrefijoPago = GetEnv("FOLIO_PREFIJO_PAGO", "PAG")

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET no está configurado!")
	}
	if MidtransServerKey == "" {
		log.Println("⚠️ MIDTRANS_SERVER_KEY no configurado; pagos en línea deshabilitados")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}
