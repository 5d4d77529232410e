package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	configs "universidad_backend/internals/configs"
)

// SiguienteFolioRecibo deriva el folio consecutivo del año: máximo existente
// + 1, con formato REC<año>-NNNNNN. Tolerante a huecos — herramientas de
// importación pueden insertar folios fuera de banda, por eso el consecutivo se
// consulta de la tabla y no de una secuencia aparte.
func SiguienteFolioRecibo(tx *gorm.DB, anio int) (string, error) {
	return siguienteFolio(tx, "recibos", "recibo_folio", configs.FolioPrefijoRecibo, anio)
}

func SiguienteFolioPago(tx *gorm.DB, anio int) (string, error) {
	return siguienteFolio(tx, "pagos", "pago_folio", configs.FolioPrefijoPago, anio)
}

func siguienteFolio(tx *gorm.DB, tabla, columna, prefijo string, anio int) (string, error) {
	if prefijo == "" {
		prefijo = "REC"
	}
	base := fmt.Sprintf("%s%d-", prefijo, anio)

	// El sufijo va con ceros a la izquierda, así que el orden lexicográfico
	// coincide con el numérico. Incluye soft-deleted: un folio nunca se reusa.
	var ultimos []string
	err := tx.Unscoped().
		Table(tabla).
		Where(columna+" LIKE ?", base+"%").
		Order(columna + " DESC").
		Limit(1).
		Pluck(columna, &ultimos).Error
	if err != nil {
		return "", err
	}

	consecutivo := 1
	if len(ultimos) > 0 {
		if n, err := strconv.Atoi(strings.TrimPrefix(ultimos[0], base)); err == nil {
			consecutivo = n + 1
		}
	}
	return fmt.Sprintf("%s%06d", base, consecutivo), nil
}

// EsViolacionUnicidad detecta el choque de folio (23505) para reintentar la
// emisión con el siguiente consecutivo.
func EsViolacionUnicidad(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
