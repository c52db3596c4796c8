package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

const pgErrUniqueViolation = "23505"

// decimalToNumeric builds the numeric directly from the decimal's
// coefficient and exponent, so there is no parse step that can fail.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// inflowKinds lists the kinds that carry a positive sign, for SQL that
// applies signs in the database.
func inflowKinds() []string {
	kinds := make([]string, 0, 3)
	for _, k := range domain.AllEntryKinds() {
		if k.IsInflow() {
			kinds = append(kinds, string(k))
		}
	}
	return kinds
}

func kindStrings(kinds []domain.EntryKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
