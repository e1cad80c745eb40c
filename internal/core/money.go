// AngelaMos | 2026
// money.go

package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CentPlaces matches the NUMERIC(14,2) money columns.
const CentPlaces = 2

// CheckCents rejects amounts that the money columns would silently round.
func CheckCents(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(CentPlaces)) {
		return InvalidInputError(
			fmt.Sprintf("%s cannot have more than %d decimal places", field, CentPlaces),
		)
	}
	return nil
}
