// Package usage prices completed generations and keeps the per-user billing
// log that backs the usage dashboard.
package usage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"backdrop/internal/domain"
	"backdrop/internal/infra"
	"backdrop/internal/sqlinline"
)

// Flat per-image prices in USD. The 4K tier runs on a more expensive model
// configuration; 1K and 2K share the standard rate.
const (
	costStandard = 0.67
	costHigh     = 1.20
)

// Cost returns the price of one generated image at the given tier.
func Cost(res domain.Resolution) float64 {
	if res == domain.Resolution4K {
		return costHigh
	}
	return costStandard
}

// Accountant writes and reads the usage_logs table.
type Accountant struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
}

func NewAccountant(sql infra.SQLExecutor, logger zerolog.Logger) *Accountant {
	return &Accountant{sql: sql, logger: logger}
}

// Record appends one priced row for a completed generation.
func (a *Accountant) Record(ctx context.Context, userID string, action domain.UsageAction, res domain.Resolution, tokensIn, tokensOut int, country string) error {
	_, err := a.sql.Exec(ctx, sqlinline.QInsertUsageLog,
		uuid.NewString(), userID, string(action), string(res), tokensIn, tokensOut, Cost(res), country)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

// Logs returns the user's rows, newest first.
func (a *Accountant) Logs(ctx context.Context, userID string) ([]domain.UsageRecord, error) {
	rows, err := a.sql.Query(ctx, sqlinline.QSelectUsageLogsByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("select usage logs: %w", err)
	}
	defer rows.Close()

	var out []domain.UsageRecord
	for rows.Next() {
		var r domain.UsageRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Action, &r.Resolution, &r.TokensInput, &r.TokensOutput, &r.Cost, &r.Country, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage log: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage logs: %w", err)
	}
	return out, nil
}

// Summarize folds the user's full history into one aggregate.
func (a *Accountant) Summarize(ctx context.Context, userID string) (domain.UsageSummary, error) {
	logs, err := a.Logs(ctx, userID)
	if err != nil {
		return domain.UsageSummary{}, err
	}

	sum := domain.UsageSummary{UserID: userID}
	for _, r := range logs {
		switch r.Action {
		case domain.ActionRefine:
			sum.Refinements++
		default:
			sum.Generations++
		}
		sum.TokensInput += r.TokensInput
		sum.TokensOutput += r.TokensOutput
		sum.TotalCost += r.Cost
	}
	sum.TotalImages = sum.Generations + sum.Refinements
	sum.TokensTotal = sum.TokensInput + sum.TokensOutput
	return sum, nil
}

// Reset deletes the user's rows. The profile counter is reset separately.
func (a *Accountant) Reset(ctx context.Context, userID string) error {
	tag, err := a.sql.Exec(ctx, sqlinline.QDeleteUsageLogsByUser, userID)
	if err != nil {
		return fmt.Errorf("delete usage logs: %w", err)
	}
	a.logger.Info().Str("user_id", userID).Int64("rows", tag.RowsAffected()).Msg("usage: history reset")
	return nil
}
