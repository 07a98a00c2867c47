package core

import (
	"fmt"
	"time"
)

const (
	Bronze   BadgeTier = "bronze"
	Silver   BadgeTier = "silver"
	Gold     BadgeTier = "gold"
	Platinum BadgeTier = "platinum"
	Diamond  BadgeTier = "diamond"
)

// DefaultCooldownMonths is the minimum spacing between two badges of the same tier.
const DefaultCooldownMonths = 3

// SilverStreak is the number of consecutive positive months that earns Silver.
const SilverStreak = 3

type BadgeTier string

// Badge is an achievement issued to a group. Badges are never updated.
type Badge struct {
	ID          string
	GroupID     string
	Tier        BadgeTier
	Description string
	IssuedAt    time.Time
}

var tierRank = map[BadgeTier]int{
	Bronze:   1,
	Silver:   2,
	Gold:     3,
	Platinum: 4,
	Diamond:  5,
}

func (t BadgeTier) Validate() error {
	if _, ok := tierRank[t]; !ok {
		return fmt.Errorf("unknown badge tier %q", t)
	}
	return nil
}

// Rank orders tiers bronze < silver < gold < platinum < diamond. Unknown tiers rank 0.
func (t BadgeTier) Rank() int {
	return tierRank[t]
}

// CooldownCutoff returns the instant after which an issued badge blocks a new
// one of the same tier.
func CooldownCutoff(now time.Time, months int) time.Time {
	return AddMonths(now.UTC(), -months)
}

// GrantIfEligible returns a new badge of tier for group unless existing holds a
// badge of that tier issued strictly after now minus cooldownMonths.
func GrantIfEligible(existing []Badge, groupID string, tier BadgeTier, description string, now time.Time, cooldownMonths int) (Badge, bool) {
	cutoff := CooldownCutoff(now, cooldownMonths)
	for _, b := range existing {
		if b.Tier == tier && b.IssuedAt.After(cutoff) {
			return Badge{}, false
		}
	}
	return Badge{
		GroupID:     groupID,
		Tier:        tier,
		Description: description,
		IssuedAt:    now.UTC(),
	}, true
}

// GoalTier pairs a value tier with the minimum goal target that earns it.
type GoalTier struct {
	Tier    BadgeTier
	Minimum Money
}

// goalTiers is ordered highest first; the first match wins.
var goalTiers = []GoalTier{
	{Tier: Diamond, Minimum: MoneyFromInt(1_000_000)},
	{Tier: Platinum, Minimum: MoneyFromInt(100_000)},
	{Tier: Gold, Minimum: MoneyFromInt(10_000)},
}

// GoalTiers returns a copy of the ordered value-tier table.
func GoalTiers() []GoalTier {
	out := make([]GoalTier, len(goalTiers))
	copy(out, goalTiers)
	return out
}

// GoalTierFor returns the highest tier whose minimum the target reaches.
// Targets under the lowest threshold earn nothing.
func GoalTierFor(target Money) (BadgeTier, bool) {
	for _, gt := range goalTiers {
		if target.GreaterThanOrEqual(gt.Minimum) {
			return gt.Tier, true
		}
	}
	return "", false
}

// GoalBadgeDescription is the text stored on value-tier badges.
func GoalBadgeDescription(g Goal) string {
	return fmt.Sprintf("Goal %q completed with %s saved", g.Title, g.Target.String())
}

// GroupState is the per-group evaluation state carried between monthly runs.
type GroupState struct {
	GroupID                   string
	ConsecutivePositiveMonths int
	LastEvaluatedMonth        Month // zero when the group was never evaluated
}

// MonthlyOutcome is the result of evaluating one group for one month.
type MonthlyOutcome struct {
	State   GroupState
	Badges  []Badge
	Skipped bool // month already evaluated; nothing changed
}

// Awarded reports whether the outcome contains a badge of tier.
func (o MonthlyOutcome) Awarded(tier BadgeTier) bool {
	for _, b := range o.Badges {
		if b.Tier == tier {
			return true
		}
	}
	return false
}

// EvaluateMonth applies one month of results to a group's state.
//
// A positive net increments the streak and earns Bronze; reaching the Silver
// streak (after incrementing) earns Silver and restarts the streak. A net of
// zero or below restarts the streak. Either grant is withheld while a badge of
// the same tier sits inside the cooldown. Months at or before the state's last
// evaluated month are skipped.
func EvaluateMonth(state GroupState, month Month, net Money, recent []Badge, now time.Time, cooldownMonths int) MonthlyOutcome {
	if !state.LastEvaluatedMonth.IsZero() && !state.LastEvaluatedMonth.Before(month) {
		return MonthlyOutcome{State: state, Skipped: true}
	}

	next := state
	next.LastEvaluatedMonth = month
	out := MonthlyOutcome{State: next}

	if !net.IsPositive() {
		out.State.ConsecutivePositiveMonths = 0
		return out
	}

	out.State.ConsecutivePositiveMonths++

	bronzeText := fmt.Sprintf("Finished %s with a positive balance", month.Label())
	if b, ok := GrantIfEligible(recent, state.GroupID, Bronze, bronzeText, now, cooldownMonths); ok {
		out.Badges = append(out.Badges, b)
	}

	if out.State.ConsecutivePositiveMonths >= SilverStreak {
		silverText := fmt.Sprintf("%d consecutive months with a positive balance", SilverStreak)
		if b, ok := GrantIfEligible(recent, state.GroupID, Silver, silverText, now, cooldownMonths); ok {
			out.Badges = append(out.Badges, b)
			out.State.ConsecutivePositiveMonths = 0
		}
	}
	return out
}
