package enums

import "fmt"

// LoyaltyEntryType classifies loyalty_points_history rows.
type LoyaltyEntryType string

const (
	LoyaltyEntryEarn   LoyaltyEntryType = "earn"
	LoyaltyEntryRedeem LoyaltyEntryType = "redeem"
	LoyaltyEntryRevert LoyaltyEntryType = "revert"
)

var validLoyaltyEntryTypes = []LoyaltyEntryType{
	LoyaltyEntryEarn,
	LoyaltyEntryRedeem,
	LoyaltyEntryRevert,
}

// IsValid reports whether the value is a known LoyaltyEntryType.
func (t LoyaltyEntryType) IsValid() bool {
	for _, candidate := range validLoyaltyEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLoyaltyEntryType converts raw input into a LoyaltyEntryType.
func ParseLoyaltyEntryType(value string) (LoyaltyEntryType, error) {
	for _, candidate := range validLoyaltyEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loyalty entry type %q", value)
}

// LoyaltyTier is derived from lifetime earned points.
type LoyaltyTier string

const (
	LoyaltyTierBronze  LoyaltyTier = "bronze"
	LoyaltyTierSilver  LoyaltyTier = "silver"
	LoyaltyTierGold    LoyaltyTier = "gold"
	LoyaltyTierDiamond LoyaltyTier = "diamond"
)

var validLoyaltyTiers = []LoyaltyTier{
	LoyaltyTierBronze,
	LoyaltyTierSilver,
	LoyaltyTierGold,
	LoyaltyTierDiamond,
}

// IsValid reports whether the value is a known LoyaltyTier.
func (t LoyaltyTier) IsValid() bool {
	for _, candidate := range validLoyaltyTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ReferralStatus tracks a referral from invitation to payout.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusExpired   ReferralStatus = "expired"
)
