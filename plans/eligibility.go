package plans

// IsEligible decides whether a candidate with the declared experience may
// register for the plan. Pure; the UI re-evaluates it on every edit and the
// server re-checks it at submission.
//
// Bounds are inclusive on both ends. The Público tier is open to everyone —
// its gate is documentary, not numeric — but a plan closed for registration
// is ineligible no matter what.
func IsEligible(plan *Plan, experienceYears int, isStudent bool) bool {
	if plan == nil || !plan.IsAvailableForRegistration {
		return false
	}
	if plan.Tier() == TierPublico {
		return true
	}
	if experienceYears < plan.MinExperienceYears {
		return false
	}
	if plan.MaxExperienceYears != nil && experienceYears > *plan.MaxExperienceYears {
		return false
	}
	return true
}
