package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Identity computes the dedup key of a transaction.
//
// Each input is canonicalized before hashing: the entry time as a UTC instant,
// the amount as its normalized decimal value (100.5 == 100.50). Fields are
// length-prefixed so no two distinct tuples share an encoding.
func Identity(accountNumber string, entryTime time.Time, partner string, amount decimal.Decimal, bankTransactionID string) string {
	parts := []string{
		accountNumber,
		entryTime.UTC().Format(time.RFC3339Nano),
		partner,
		amount.String(),
		bankTransactionID,
	}
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
