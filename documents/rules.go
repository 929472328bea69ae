package documents

import (
	"fmt"

	"aneti-backend/plans"
)

// Requirement bounds how many documents of a type an application must carry.
type Requirement struct {
	Type string
	Min  int
	Max  int
}

// RequiredFor returns the document set a complete application needs.
// Identity is always exactly one. Experience proof is 1..5 for every tier,
// Público included (there it proves study or work instead of seniority).
// Student proof is exactly one iff the candidate declared being a student.
func RequiredFor(tier plans.Tier, isStudent bool) []Requirement {
	_ = tier // every current tier shares the same baseline set
	reqs := []Requirement{
		{Type: TypeIdentity, Min: 1, Max: 1},
		{Type: TypeExperience, Min: 1, Max: 5},
	}
	if isStudent {
		reqs = append(reqs, Requirement{Type: TypeStudent, Min: 1, Max: 1})
	}
	return reqs
}

// Satisfied checks attached document counts against the required set and
// returns a user-facing message on the first violation.
func Satisfied(counts map[string]int, tier plans.Tier, isStudent bool) (bool, string) {
	for _, req := range RequiredFor(tier, isStudent) {
		n := counts[req.Type]
		if n < req.Min {
			switch req.Type {
			case TypeIdentity:
				return false, "Documento de identidade obrigatório"
			case TypeExperience:
				return false, "Anexe ao menos um comprovante de experiência"
			case TypeStudent:
				return false, "Comprovante de matrícula obrigatório para estudantes"
			}
		}
		if req.Max > 0 && n > req.Max {
			return false, fmt.Sprintf("Máximo de %d documento(s) do tipo %s", req.Max, req.Type)
		}
	}
	return true, ""
}
