package domain

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree UserPlan = "free"
	UserPlanPro  UserPlan = "pro"
)

// Daily generation ceilings per plan.
const (
	FreeDailyGenerations = 3
	ProDailyGenerations  = 20
)

// DailyLimit returns the generation ceiling for the plan. Unknown plans are
// treated as free.
func (p UserPlan) DailyLimit() int {
	if p == UserPlanPro {
		return ProDailyGenerations
	}
	return FreeDailyGenerations
}

// IsFree reports whether the plan is the free tier.
func (p UserPlan) IsFree() bool {
	return p != UserPlanPro
}

// UserQuota is the per-user generation quota record. Timestamps are carried
// as raw ISO-8601 strings exactly as stored; parsing and window arithmetic
// live in the quota package. New writes always store UTC RFC 3339, but
// records written by earlier versions of the service may hold naive or
// zone-offset strings, so readers must tolerate both.
type UserQuota struct {
	UserID              string
	Email               string
	Plan                UserPlan
	MaxDailyGenerations int
	DailyGenerations    int
	FirstGenerationDate string
	LastGenerationDate  string
	PlanExpiry          string
}

// Remaining returns the generations left in the current window, never
// negative.
func (u *UserQuota) Remaining() int {
	r := u.MaxDailyGenerations - u.DailyGenerations
	if r < 0 {
		return 0
	}
	return r
}
