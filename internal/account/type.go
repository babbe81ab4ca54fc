package account

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Account type errors
var (
	ErrInvalidTypeFormat = errors.New("invalid account type format, use 'company:account_type'")
	ErrUnknownCompany    = errors.New("unknown company")
	ErrUnknownTier       = errors.New("unknown account tier")
)

// Company identifies a program family.
type Company string

// Supported companies
const (
	CompanyFTT     Company = "ftt"     // drawdown family
	CompanyTopstep Company = "topstep" // evaluation family
)

// Type is a tagged account selector: a company and one of its tiers.
// It carries no behavior; New turns it into an initialized engine.
type Type struct {
	Company Company
	Tier    string // lower-case tier key
}

func (t Type) String() string {
	return string(t.Company) + ":" + t.Tier
}

// Drawdown family tiers, keyed by lower-case name.
var DrawdownTiers = map[string]DrawdownTier{
	"rally": {
		Name: "Rally", Cost: 179, Drawdown: 1_250,
		PayoutCapFirst8: 1_500, PayoutCapLater: 3_000,
		QualifyingLoss: -62.5, QualifyingWin: 62.5,
		MinBalanceFirstPayout: 1_500, MinBalanceLaterPayouts: 1_500, MinBalanceAfterWithdrawal: 1_250,
	},
	"daytona": {
		Name: "Daytona", Cost: 449, Drawdown: 2_500,
		PayoutCapFirst8: 2_000, PayoutCapLater: 4_000,
		QualifyingLoss: -125, QualifyingWin: 125,
		MinBalanceFirstPayout: 2_750, MinBalanceLaterPayouts: 2_750, MinBalanceAfterWithdrawal: 2_500,
	},
	"gt": {
		Name: "GT", Cost: 599, Drawdown: 7_500,
		PayoutCapFirst8: 3_000, PayoutCapLater: 6_000,
		QualifyingLoss: -187.5, QualifyingWin: 375,
		MinBalanceFirstPayout: 7_500, MinBalanceLaterPayouts: 4_750, MinBalanceAfterWithdrawal: 4_500,
	},
	"lemans": {
		Name: "LeMans", Cost: 799, Drawdown: 15_000,
		PayoutCapFirst8: 4_000, PayoutCapLater: 8_000,
		QualifyingLoss: -300, QualifyingWin: 600,
		MinBalanceFirstPayout: 15_000, MinBalanceLaterPayouts: 11_250, MinBalanceAfterWithdrawal: 11_000,
	},
}

// Evaluation family tiers, keyed by lower-case name.
var EvaluationTiers = map[string]EvaluationTier{
	"fifty":      {Name: "Fifty", Cost: 49, Drawdown: 2_000, ProfitTarget: 3_000},
	"onehundred": {Name: "OneHundred", Cost: 99, Drawdown: 3_000, ProfitTarget: 6_000},
	"onefifty":   {Name: "OneFifty", Cost: 149, Drawdown: 4_500, ProfitTarget: 9_000},
}

// ParseType parses a "company:tier" selector, case-insensitively.
func ParseType(s string) (Type, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Type{}, fmt.Errorf("%w: %q", ErrInvalidTypeFormat, s)
	}

	t := Type{
		Company: Company(strings.ToLower(parts[0])),
		Tier:    strings.ToLower(parts[1]),
	}

	switch t.Company {
	case CompanyFTT:
		if _, ok := DrawdownTiers[t.Tier]; !ok {
			return Type{}, fmt.Errorf("%w: %s", ErrUnknownTier, s)
		}
	case CompanyTopstep:
		if _, ok := EvaluationTiers[t.Tier]; !ok {
			return Type{}, fmt.Errorf("%w: %s", ErrUnknownTier, s)
		}
	default:
		return Type{}, fmt.Errorf("%w: %s", ErrUnknownCompany, parts[0])
	}

	return t, nil
}

// New returns a fully initialized engine for the account type.
func New(t Type) (PropAccount, error) {
	switch t.Company {
	case CompanyFTT:
		tier, ok := DrawdownTiers[t.Tier]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTier, t)
		}
		return NewDrawdownAccount(tier), nil
	case CompanyTopstep:
		tier, ok := EvaluationTiers[t.Tier]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTier, t)
		}
		return NewEvaluationAccount(tier), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompany, t.Company)
	}
}

// Names lists every supported selector, sorted.
func Names() []string {
	names := make([]string, 0, len(DrawdownTiers)+len(EvaluationTiers))
	for k := range DrawdownTiers {
		names = append(names, string(CompanyFTT)+":"+k)
	}
	for k := range EvaluationTiers {
		names = append(names, string(CompanyTopstep)+":"+k)
	}
	sort.Strings(names)
	return names
}
