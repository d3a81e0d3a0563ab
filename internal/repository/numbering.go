package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document number prefixes
const (
	PrefixSales      = "SO"
	PrefixReceivable = "AR"
	PrefixPayable    = "AP"
	PrefixExpense    = "EX"
)

// DocumentNumber formats a document number such as SO-20240131-0042
func DocumentNumber(prefix string, date time.Time, id uint) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("20060102"), id)
}

// pendingNumber is stored until the row id is known
func pendingNumber() string {
	return "PENDING-" + uuid.NewString()
}

// likePattern escapes s for use inside an ILIKE pattern
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}
