package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const entryColumns = `id, document_number, kind, account_id, actor, description, category, reference,
	amount, account_previous_balance, account_current_balance, account_version, occurred_at`

// signedAmount applies the kind's sign in SQL; $1 is the list of inflow kinds.
const signedAmount = `CASE WHEN kind = ANY($1) THEN amount ELSE -amount END`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create appends an entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	_, err := txDB(tx).Exec(ctx, `
		INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID,
		entry.DocumentNumber,
		string(entry.Kind),
		entry.AccountID,
		entry.Actor,
		entry.Description,
		entry.Category,
		entry.Reference,
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.AccountPreviousBalance),
		decimalToNumeric(entry.AccountCurrentBalance),
		entry.AccountVersion,
		entry.OccurredAt,
	)

	return err
}

// entryWhere renders the account, kind and window conditions, numbering
// placeholders after the arguments already in args.
func entryWhere(accountID string, filter domain.EntryFilter, args []any) (string, []any) {
	args = append(args, accountID)
	conds := []string{fmt.Sprintf("account_id = $%d", len(args))}

	if len(filter.Kinds) > 0 {
		args = append(args, kindStrings(filter.Kinds))
		conds = append(conds, fmt.Sprintf("kind = ANY($%d)", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("occurred_at < $%d", len(args)))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListByAccount returns matching entries, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, filter domain.EntryFilter) ([]*domain.Entry, error) {
	where, args := entryWhere(accountID, filter, nil)

	query := `SELECT ` + entryColumns + ` FROM ledger_entries` + where + ` ORDER BY occurred_at DESC, account_version DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.query(ctx, query, args...)
}

// ListByReference returns the entries created for one business document.
func (r *EntryRepository) ListByReference(ctx context.Context, reference string) ([]*domain.Entry, error) {
	return r.query(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE reference = $1
		ORDER BY occurred_at, id`, reference)
}

func (r *EntryRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// SumSigned returns the signed sum of every entry of the account.
func (r *EntryRepository) SumSigned(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(`+signedAmount+`), 0)
		FROM ledger_entries
		WHERE account_id = $2`, inflowKinds(), accountID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

const totalsColumns = `
	COALESCE(SUM(CASE WHEN kind = ANY($1) THEN amount ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN kind = ANY($1) THEN 0 ELSE amount END), 0),
	COUNT(*)`

// Totals sums inflows and outflows of the matching entries.
func (r *EntryRepository) Totals(ctx context.Context, accountID string, filter domain.EntryFilter) (domain.Totals, error) {
	where, args := entryWhere(accountID, filter, []any{inflowKinds()})

	var (
		inflow, outflow pgtype.Numeric
		totals          domain.Totals
	)
	err := r.db.QueryRow(ctx, `SELECT `+totalsColumns+` FROM ledger_entries`+where, args...).
		Scan(&inflow, &outflow, &totals.Count)
	if err != nil {
		return domain.Totals{}, err
	}

	totals.Inflow = numericToDecimal(inflow)
	totals.Outflow = numericToDecimal(outflow)
	totals.Net = totals.Inflow.Sub(totals.Outflow)

	return totals, nil
}

// PeriodTotals groups the matching entries into UTC calendar buckets.
func (r *EntryRepository) PeriodTotals(ctx context.Context, accountID string, filter domain.EntryFilter, granularity domain.Granularity) ([]domain.PeriodTotals, error) {
	where, args := entryWhere(accountID, filter, []any{inflowKinds()})
	args = append(args, string(granularity))
	bucket := fmt.Sprintf("date_trunc($%d, occurred_at AT TIME ZONE 'UTC')", len(args))

	rows, err := r.db.Query(ctx, `
		SELECT `+bucket+` AS bucket,`+totalsColumns+`
		FROM ledger_entries`+where+`
		GROUP BY bucket
		ORDER BY bucket`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := make([]domain.PeriodTotals, 0)
	for rows.Next() {
		var (
			p               domain.PeriodTotals
			inflow, outflow pgtype.Numeric
		)
		if err := rows.Scan(&p.Start, &inflow, &outflow, &p.Count); err != nil {
			return nil, err
		}

		p.Start = granularity.PeriodStart(p.Start)
		p.End = granularity.Next(p.Start)
		p.Inflow = numericToDecimal(inflow)
		p.Outflow = numericToDecimal(outflow)
		p.Net = p.Inflow.Sub(p.Outflow)
		periods = append(periods, p)
	}

	return periods, rows.Err()
}

// CategoryTotals returns per-category subtotals, largest first. Entries
// without a category are grouped under "uncategorized".
func (r *EntryRepository) CategoryTotals(ctx context.Context, accountID string, filter domain.EntryFilter) ([]domain.CategoryTotal, error) {
	where, args := entryWhere(accountID, filter, nil)

	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(NULLIF(category, ''), 'uncategorized') AS cat, SUM(amount), COUNT(*)
		FROM ledger_entries`+where+`
		GROUP BY cat
		ORDER BY SUM(amount) DESC, cat`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.CategoryTotal, 0)
	for rows.Next() {
		var (
			c      domain.CategoryTotal
			amount pgtype.Numeric
		)
		if err := rows.Scan(&c.Category, &amount, &c.Count); err != nil {
			return nil, err
		}
		c.Amount = numericToDecimal(amount)
		totals = append(totals, c)
	}

	return totals, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		e                       domain.Entry
		kind                    string
		amount, previous, after pgtype.Numeric
	)

	err := row.Scan(
		&e.ID,
		&e.DocumentNumber,
		&kind,
		&e.AccountID,
		&e.Actor,
		&e.Description,
		&e.Category,
		&e.Reference,
		&amount,
		&previous,
		&after,
		&e.AccountVersion,
		&e.OccurredAt,
	)
	if err != nil {
		return nil, err
	}

	e.Kind = domain.EntryKind(kind)
	e.Amount = numericToDecimal(amount)
	e.AccountPreviousBalance = numericToDecimal(previous)
	e.AccountCurrentBalance = numericToDecimal(after)

	return &e, nil
}
