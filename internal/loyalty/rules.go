package loyalty

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ooprato/ooprato-backend/pkg/config"
	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// Rules holds the earning configuration. Thresholds are lifetime points.
type Rules struct {
	PointsPerUnit    decimal.Decimal
	SilverThreshold  int
	GoldThreshold    int
	DiamondThreshold int
	Multipliers      map[enums.LoyaltyTier]decimal.Decimal
	ReferralMinOrder decimal.Decimal
	ReferralReward   int
}

// RulesFromConfig parses the decimal settings of cfg.
func RulesFromConfig(cfg config.LoyaltyConfig) (Rules, error) {
	parse := func(name, raw string) (decimal.Decimal, error) {
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return decimal.Zero, fmt.Errorf("loyalty %s: %w", name, err)
		}
		return value, nil
	}

	rules := Rules{
		SilverThreshold:  cfg.SilverThreshold,
		GoldThreshold:    cfg.GoldThreshold,
		DiamondThreshold: cfg.DiamondThreshold,
		ReferralReward:   cfg.ReferralRewardPoints,
		Multipliers:      make(map[enums.LoyaltyTier]decimal.Decimal, 4),
	}
	var err error
	if rules.PointsPerUnit, err = parse("points per unit", cfg.PointsPerCurrencyUnit); err != nil {
		return Rules{}, err
	}
	if rules.ReferralMinOrder, err = parse("referral min order", cfg.ReferralMinOrderValue); err != nil {
		return Rules{}, err
	}
	for tier, raw := range map[enums.LoyaltyTier]string{
		enums.LoyaltyTierBronze:  cfg.BronzeMultiplier,
		enums.LoyaltyTierSilver:  cfg.SilverMultiplier,
		enums.LoyaltyTierGold:    cfg.GoldMultiplier,
		enums.LoyaltyTierDiamond: cfg.DiamondMultiplier,
	} {
		value, err := parse(string(tier)+" multiplier", raw)
		if err != nil {
			return Rules{}, err
		}
		rules.Multipliers[tier] = value
	}
	return rules, nil
}

// TierFor maps lifetime points to a tier.
func (r Rules) TierFor(lifetime int) enums.LoyaltyTier {
	switch {
	case lifetime >= r.DiamondThreshold:
		return enums.LoyaltyTierDiamond
	case lifetime >= r.GoldThreshold:
		return enums.LoyaltyTierGold
	case lifetime >= r.SilverThreshold:
		return enums.LoyaltyTierSilver
	default:
		return enums.LoyaltyTierBronze
	}
}

// PointsFor returns floor(total * points per unit * tier multiplier).
// Unknown tiers earn at the bronze rate.
func (r Rules) PointsFor(total decimal.Decimal, tier enums.LoyaltyTier) int {
	if !total.IsPositive() {
		return 0
	}
	multiplier, ok := r.Multipliers[tier]
	if !ok {
		multiplier, ok = r.Multipliers[enums.LoyaltyTierBronze]
	}
	if !ok {
		multiplier = decimal.NewFromInt(1)
	}
	return int(total.Mul(r.PointsPerUnit).Mul(multiplier).Floor().IntPart())
}
