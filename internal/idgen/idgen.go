// Package idgen produces user, ticket and payment identifiers.
//
// Generated ids are only candidates: the storage layer enforces uniqueness
// with constraints, and callers retry on collisions.
package idgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
)

const (
	userPrefix    = "U"
	ticketPrefix  = "TKT-"
	paymentPrefix = "PAY-"

	FirstUserID = "U001"
)

// NextUserID returns the id that follows last, e.g. U004 -> U005.
// An empty or malformed last id yields FirstUserID.
func NextUserID(last string) string {
	digits, ok := strings.CutPrefix(strings.TrimSpace(last), userPrefix)
	if !ok || digits == "" {
		return FirstUserID
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return FirstUserID
	}
	return fmt.Sprintf("%s%03d", userPrefix, n+1)
}

// IsUserID reports whether id has the U<digits> shape.
func IsUserID(id string) bool {
	digits, ok := strings.CutPrefix(id, userPrefix)
	if !ok || digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type Generator struct {
	now func() time.Time
}

func New() *Generator {
	return &Generator{now: time.Now}
}

// NewTicketID returns TKT-<unix millis>-<random suffix>.
func (g *Generator) NewTicketID() string {
	suffix := shortuuid.New()
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s%d-%s", ticketPrefix, g.now().UnixMilli(), suffix)
}

// NewPaymentID returns PAY-<uuid v7>; v7 ids sort by creation time.
func (g *Generator) NewPaymentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return paymentPrefix + id.String()
}
