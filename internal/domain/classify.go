package domain

import (
	"strings"

	"github.com/dvloznov/barik-insights/internal/textnorm"
)

// TxKind is the coarse meaning of a transaction label.
type TxKind string

const (
	TxRecharge TxKind = "recharge"
	TxEntry    TxKind = "entry"
	TxExit     TxKind = "exit"
	TxSingle   TxKind = "single"
	TxUnknown  TxKind = "unknown"
)

// IsRide reports whether the kind is any validation on transit hardware.
func (k TxKind) IsRide() bool {
	return k == TxEntry || k == TxExit || k == TxSingle
}

// ClassifyTransaction maps a free-text transaction label to a TxKind.
func ClassifyTransaction(text string) TxKind {
	k := textnorm.Key(text)
	switch {
	case k == "":
		return TxUnknown
	case containsAny(k, "RECARGA", "VENTA", "CARGA", "COMPRA"):
		return TxRecharge
	case strings.Contains(k, "SALIDA"):
		return TxExit
	case strings.Contains(k, "ENTRADA"):
		return TxEntry
	case containsAny(k, "VALIDACION", "VIAJE", "TRANSBORDO", "PASO"):
		return TxSingle
	default:
		return TxUnknown
	}
}

// IsWalletRechargeText reports whether a recharge label refers to the purse.
func IsWalletRechargeText(text string) bool {
	k := textnorm.Key(text)
	return ClassifyTransaction(text) == TxRecharge && containsAny(k, "MONEDERO", "SALDO")
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
