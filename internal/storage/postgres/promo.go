package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/promo"
)

const (
	getPromoByCodeSQL = `SELECT code, discount_type, value, min_items, description,
		valid_from, valid_until, max_uses, uses, max_discount
		FROM promo_codes WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	// The usage limit is re-checked in the UPDATE so concurrent redemptions
	// cannot overshoot it.
	incrementPromoUsesSQL = `UPDATE promo_codes SET uses = uses + 1
		WHERE UPPER(code) = UPPER($1) AND (max_uses = 0 OR uses < max_uses)`

	upsertPromoSQL = `INSERT INTO promo_codes
		(code, discount_type, value, min_items, description, valid_from, valid_until, max_uses, max_discount, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			min_items = EXCLUDED.min_items,
			description = EXCLUDED.description,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			max_uses = EXCLUDED.max_uses,
			max_discount = EXCLUDED.max_discount,
			active = TRUE`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up an active promo code (case-insensitive).
// Returns promo.ErrInvalidPromo when no matching active code exists.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "find promo %q", code)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanPromoRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrInvalidPromo
		}
		return nil, errors.Wrapf(err, "find promo %q", code)
	}
	return &rule, nil
}

// IncrementUses atomically consumes one use of code.
func (r *PromoRepository) IncrementUses(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, incrementPromoUsesSQL, code)
	if err != nil {
		return errors.Wrapf(err, "increment uses for promo %q", code)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrUsageLimitReached
	}
	return nil
}

// Upsert inserts or replaces rules in batches of batchSize. The usage
// counters of existing codes are kept.
func (r *PromoRepository) Upsert(ctx context.Context, rules []promo.Rule, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	for start := 0; start < len(rules); start += batchSize {
		end := min(start+batchSize, len(rules))

		batch := &pgx.Batch{}
		for _, rule := range rules[start:end] {
			batch.Queue(upsertPromoSQL,
				promo.NormalizeCode(rule.Code), string(rule.DiscountType), rule.Value, rule.MinItems,
				rule.Description, rule.ValidFrom, rule.ValidUntil, rule.MaxUses, rule.MaxDiscount,
			)
		}
		if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrapf(err, "upsert promo batch at %d", start)
		}
	}
	return nil
}

func scanPromoRule(row pgx.CollectableRow) (promo.Rule, error) {
	var (
		rule         promo.Rule
		discountType string
		minItems     int32
		validFrom    *time.Time
		validUntil   *time.Time
		maxUses      int32
		uses         int32
	)
	err := row.Scan(
		&rule.Code, &discountType, &rule.Value, &minItems, &rule.Description,
		&validFrom, &validUntil, &maxUses, &uses, &rule.MaxDiscount,
	)
	rule.DiscountType = promo.DiscountType(discountType)
	rule.MinItems = int(minItems)
	rule.ValidFrom = validFrom
	rule.ValidUntil = validUntil
	rule.MaxUses = int(maxUses)
	rule.Uses = int(uses)
	return rule, err
}
