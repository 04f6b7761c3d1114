package workflow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

// invoiceSequence hands out INV-<year>-<NNNN> ids, one counter per year
type invoiceSequence map[int]int

func newInvoiceSequence(invoices []*entity.Invoice) invoiceSequence {
	seq := make(invoiceSequence)
	for _, inv := range invoices {
		seq.observe(inv.ID)
	}
	return seq
}

// observe advances the counter past an existing id
func (s invoiceSequence) observe(id string) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[0] != "INV" {
		return
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return
	}
	if n > s[year] {
		s[year] = n
	}
}

// maxInvoiceNumber is the last number that fits the four digit suffix
const maxInvoiceNumber = 9999

// ErrSequenceExhausted means a year has used every four digit invoice number
var ErrSequenceExhausted = errors.New("invoice numbers exhausted for year")

func (s invoiceSequence) next(year int) (string, error) {
	if s[year] >= maxInvoiceNumber {
		return "", fmt.Errorf("%w %d", ErrSequenceExhausted, year)
	}
	s[year]++
	return fmt.Sprintf("INV-%d-%04d", year, s[year]), nil
}

func (s invoiceSequence) clone() invoiceSequence {
	out := make(invoiceSequence, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// signatureToken returns an opaque approval token. It is not a signature.
func signatureToken(role entity.Role) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("sig_%s_%s", strings.ToLower(role.String()), raw[:9])
}
