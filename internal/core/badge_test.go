package core

import (
	"testing"
	"time"
)

func TestGrantIfEligible(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		existing []Badge
		tier     BadgeTier
		want     bool
	}{
		{"no badges", nil, Bronze, true},
		{"same tier inside cooldown", []Badge{{Tier: Bronze, IssuedAt: now.AddDate(0, -2, 0)}}, Bronze, false},
		{"same tier exactly at cutoff", []Badge{{Tier: Bronze, IssuedAt: now.AddDate(0, -3, 0)}}, Bronze, true},
		{"same tier outside cooldown", []Badge{{Tier: Bronze, IssuedAt: now.AddDate(0, -4, 0)}}, Bronze, true},
		{"other tier inside cooldown", []Badge{{Tier: Silver, IssuedAt: now.AddDate(0, 0, -1)}}, Bronze, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := GrantIfEligible(tt.existing, "g1", tt.tier, "desc", now, DefaultCooldownMonths)
			if ok != tt.want {
				t.Fatalf("expected granted=%v, got %v", tt.want, ok)
			}
			if ok && (b.Tier != tt.tier || b.GroupID != "g1" || !b.IssuedAt.Equal(now)) {
				t.Fatalf("unexpected badge %+v", b)
			}
		})
	}
}

func TestCooldownCutoffClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"31 May leap year", time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)},
		{"31 May common year", time.Date(2023, 5, 31, 12, 0, 0, 0, time.UTC), time.Date(2023, 2, 28, 12, 0, 0, 0, time.UTC)},
		{"31 Mar leap year", time.Date(2024, 3, 31, 8, 30, 0, 0, time.UTC), time.Date(2023, 12, 31, 8, 30, 0, 0, time.UTC)},
		{"31 Mar common year", time.Date(2023, 3, 31, 8, 30, 0, 0, time.UTC), time.Date(2022, 12, 31, 8, 30, 0, 0, time.UTC)},
		{"31 Aug", time.Date(2023, 8, 31, 0, 0, 0, 0, time.UTC), time.Date(2023, 5, 31, 0, 0, 0, 0, time.UTC)},
		{"30 Nov", time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), time.Date(2023, 8, 30, 0, 0, 0, 0, time.UTC)},
		{"first of month", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CooldownCutoff(tt.now, DefaultCooldownMonths); !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGrantIfEligibleAtMonthEnd(t *testing.T) {
	now := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	existing := []Badge{{Tier: Gold, IssuedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}}

	if _, ok := GrantIfEligible(existing, "g1", Gold, "desc", now, DefaultCooldownMonths); ok {
		t.Fatal("gold issued on 1 March must still block a grant on 31 May")
	}
}

func TestGoalTierFor(t *testing.T) {
	tests := []struct {
		target int64
		want   BadgeTier
		ok     bool
	}{
		{9_999, "", false},
		{10_000, Gold, true},
		{99_999, Gold, true},
		{150_000, Platinum, true},
		{1_000_000, Diamond, true},
		{5_000_000, Diamond, true},
	}
	for _, tt := range tests {
		got, ok := GoalTierFor(MoneyFromInt(tt.target))
		if got != tt.want || ok != tt.ok {
			t.Fatalf("target %d: expected %q/%v, got %q/%v", tt.target, tt.want, tt.ok, got, ok)
		}
	}
	if tiers := GoalTiers(); len(tiers) != 3 || tiers[0].Tier != Diamond {
		t.Fatalf("tiers should be ordered highest first: %+v", tiers)
	}
}

func TestTierRank(t *testing.T) {
	order := []BadgeTier{Bronze, Silver, Gold, Platinum, Diamond}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Fatalf("%s should rank below %s", order[i-1], order[i])
		}
	}
	if err := BadgeTier("wood").Validate(); err == nil {
		t.Fatal("unknown tier should not validate")
	}
}

// runMonths feeds consecutive months through EvaluateMonth the way the
// batch does, evaluating each month on the first day of the next one.
func runMonths(start Month, nets []int64) (GroupState, []Badge) {
	state := GroupState{GroupID: "g1"}
	var issued []Badge
	m := start
	for _, n := range nets {
		now := m.Next().First().Time
		out := EvaluateMonth(state, m, MoneyFromInt(n), issued, now, DefaultCooldownMonths)
		state = out.State
		issued = append(issued, out.Badges...)
		m = m.Next()
	}
	return state, issued
}

func countTier(badges []Badge, tier BadgeTier) int {
	n := 0
	for _, b := range badges {
		if b.Tier == tier {
			n++
		}
	}
	return n
}

func TestEvaluateMonthThreePositiveMonths(t *testing.T) {
	state, issued := runMonths(Month{2024, time.April}, []int64{100, 200, 50})

	if countTier(issued, Bronze) != 1 {
		t.Fatalf("expected a single bronze, got %d", countTier(issued, Bronze))
	}
	if countTier(issued, Silver) != 1 {
		t.Fatalf("expected a single silver, got %d", countTier(issued, Silver))
	}
	if state.ConsecutivePositiveMonths != 0 {
		t.Fatalf("silver should reset the streak, got %d", state.ConsecutivePositiveMonths)
	}
	if issued[0].Description != "Finished April 2024 with a positive balance" {
		t.Fatalf("unexpected bronze description %q", issued[0].Description)
	}
}

func TestEvaluateMonthNonPositiveResets(t *testing.T) {
	for _, net := range []int64{0, -10} {
		state := GroupState{GroupID: "g1", ConsecutivePositiveMonths: 2}
		out := EvaluateMonth(state, Month{2024, time.June}, MoneyFromInt(net), nil, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 3)
		if out.State.ConsecutivePositiveMonths != 0 || len(out.Badges) != 0 {
			t.Fatalf("net %d: expected reset without badges, got %+v", net, out)
		}
		if out.State.LastEvaluatedMonth != (Month{2024, time.June}) {
			t.Fatalf("net %d: month stamp not recorded", net)
		}
	}
}

func TestEvaluateMonthSilverInCooldownKeepsCounting(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	recent := []Badge{{Tier: Silver, IssuedAt: now.AddDate(0, -1, 0)}, {Tier: Bronze, IssuedAt: now.AddDate(0, -1, 0)}}
	state := GroupState{GroupID: "g1", ConsecutivePositiveMonths: 4}

	out := EvaluateMonth(state, Month{2024, time.June}, MoneyFromInt(1), recent, now, 3)
	if len(out.Badges) != 0 {
		t.Fatalf("both tiers are cooling down, got %+v", out.Badges)
	}
	if out.State.ConsecutivePositiveMonths != 5 {
		t.Fatalf("streak should keep growing while silver cools down, got %d", out.State.ConsecutivePositiveMonths)
	}
}

func TestEvaluateMonthSkipsEvaluatedMonths(t *testing.T) {
	june := Month{2024, time.June}
	state := GroupState{GroupID: "g1", ConsecutivePositiveMonths: 1, LastEvaluatedMonth: june}
	now := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)

	for _, m := range []Month{june, {2024, time.May}} {
		out := EvaluateMonth(state, m, MoneyFromInt(100), nil, now, 3)
		if !out.Skipped || out.State != state || len(out.Badges) != 0 {
			t.Fatalf("month %s should be skipped, got %+v", m, out)
		}
	}
}
