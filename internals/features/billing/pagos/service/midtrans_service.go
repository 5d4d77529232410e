package service

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	model "universidad_backend/internals/features/billing/pagos/model"
	reciboModel "universidad_backend/internals/features/billing/recibos/model"
)

var SnapClient snap.Client

// InitMidtrans debe llamarse en el bootstrap de la app.
func InitMidtrans(serverKey string, usarProduccion bool) {
	if usarProduccion {
		SnapClient.New(serverKey, midtrans.Production)
	} else {
		SnapClient.New(serverKey, midtrans.Sandbox)
	}
}

type ClienteCheckout struct {
	Nombre   string
	Apellido string
	Email    string
	Telefono string
}

// GenerarCheckout crea la transacción Snap para pagar un recibo en línea.
// El order_id es el folio del recibo: el webhook lo usa para localizarlo.
func GenerarCheckout(db *gorm.DB, folioRecibo string, cliente ClienteCheckout) (string, string, error) {
	var recibo reciboModel.ReciboModel
	if err := db.Take(&recibo, "recibo_folio = ?", folioRecibo).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", "", fiber.NewError(fiber.StatusNotFound, "Recibo no encontrado")
		}
		return "", "", fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if recibo.ReciboEstatus == reciboModel.ReciboCancelado {
		return "", "", fiber.NewError(fiber.StatusConflict, "El recibo está cancelado")
	}
	if recibo.ReciboSaldo.LessThanOrEqual(decimal.Zero) {
		return "", "", fiber.NewError(fiber.StatusConflict, "El recibo no tiene saldo pendiente")
	}

	monto := recibo.ReciboSaldo.Round(0).IntPart()
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  recibo.ReciboFolio,
			GrossAmt: monto,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: cliente.Nombre,
			LName: cliente.Apellido,
			Email: cliente.Email,
			Phone: cliente.Telefono,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    recibo.ReciboFolio,
				Price: monto,
				Qty:   1,
				Name:  "Pago de recibo " + recibo.ReciboFolio,
			},
		},
	}

	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return "", "", fiber.NewError(fiber.StatusBadGateway, "No se pudo crear la transacción en la pasarela")
	}
	return resp.Token, resp.RedirectURL, nil
}

type NotificacionPasarela struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
}

// VerificarFirma valida signature_key = sha512(order_id + status_code +
// gross_amount + server_key) según la documentación de la pasarela.
func VerificarFirma(n NotificacionPasarela, serverKey string) bool {
	h := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	return hex.EncodeToString(h[:]) == n.SignatureKey
}

// ProcesarNotificacion atiende el webhook de la pasarela. Sólo settlement (o
// capture sin fraude) genera pago: se registra confirmado con método en línea
// y se distribuye sobre el recibo del folio. La notificación repetida de una
// misma transacción es idempotente por la referencia.
func ProcesarNotificacion(db *gorm.DB, n NotificacionPasarela, metodoEnLineaID *uuid.UUID) error {
	liquidado := n.TransactionStatus == "settlement" ||
		(n.TransactionStatus == "capture" && n.FraudStatus == "accept")
	if !liquidado {
		log.Printf("[PASARELA] notificación %s ignorada (estatus %s)", n.OrderID, n.TransactionStatus)
		return nil
	}

	monto, err := decimal.NewFromString(n.GrossAmount)
	if err != nil || monto.LessThanOrEqual(decimal.Zero) {
		return fiber.NewError(fiber.StatusBadRequest, "Monto de la notificación no válido")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var previo model.PagoModel
		err := tx.Take(&previo, "pago_referencia = ?", n.TransactionID).Error
		if err == nil {
			log.Printf("[PASARELA] transacción %s ya registrada como %s", n.TransactionID, previo.PagoFolio)
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		var recibo reciboModel.ReciboModel
		if err := tx.Take(&recibo, "recibo_folio = ?", n.OrderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusNotFound, "Recibo de la notificación no encontrado")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		referencia := n.TransactionID
		notas := "Pago en línea (" + n.PaymentType + ")"
		pago, err := RegistrarPago(tx, RegistroPago{
			Fecha:        time.Now(),
			MetodoPagoID: metodoEnLineaID,
			Monto:        monto,
			Referencia:   &referencia,
			Notas:        &notas,
			Estatus:      model.PagoConfirmado,
		})
		if err != nil {
			return err
		}

		sobrante, _, err := DistribuirPago(tx, pago.PagoID, []uuid.UUID{recibo.ReciboID}, monto, "pasarela")
		if err != nil {
			return err
		}
		if sobrante.GreaterThan(decimal.Zero) {
			log.Printf("[PASARELA] pago %s dejó %s sin aplicar sobre %s", pago.PagoFolio, sobrante.StringFixed(2), recibo.ReciboFolio)
		}
		return nil
	})
	// Dos notificaciones simultáneas de la misma transacción pasan ambas la
	// lectura previa; el índice único de la referencia detiene a la segunda y
	// aquí se degrada a repetición.
	if errors.Is(err, ErrReferenciaDuplicada) {
		log.Printf("[PASARELA] transacción %s ya registrada; notificación repetida", n.TransactionID)
		return nil
	}
	return err
}
