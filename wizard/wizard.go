// Package wizard models the registration flow as a pure state machine so the
// server can re-validate a submission with the exact rules the clients apply
// step by step.
package wizard

import (
	"errors"
	"strings"

	"aneti-backend/plans"
)

type Step int

const (
	StepPersonalData Step = iota + 1
	StepPlanSelection
	StepDocuments
	StepPaymentOrTerms
	StepTerms // only reached on paid plans; free plans accept terms on step 4
	StepSubmitted
)

var ErrCannotAdvance = errors.New("etapa atual incompleta")

// State carries everything the candidate entered so far. Backward navigation
// never clears it.
type State struct {
	Step Step

	FullName string
	Phone    string
	UF       string
	City     string
	Area     string

	Plan            *plans.Plan
	ExperienceYears int
	IsStudent       bool

	ExperienceDocs int
	HasIdentityDoc bool
	HasStudentDoc  bool

	AcceptTerms bool

	submitting bool
}

func New() *State {
	return &State{Step: StepPersonalData}
}

// LastStep is the final form step for the chosen plan: paid plans get the
// extra terms step after the payment confirmation.
func (s *State) LastStep() Step {
	if s.Plan != nil && s.Plan.RequiresPayment {
		return StepTerms
	}
	return StepPaymentOrTerms
}

// CanAdvance reports whether the current step's guard passes, with a
// user-facing message when it doesn't.
func (s *State) CanAdvance() (bool, string) {
	switch s.Step {
	case StepPersonalData:
		for _, f := range []string{s.FullName, s.Phone, s.UF, s.City, s.Area} {
			if strings.TrimSpace(f) == "" {
				return false, "Preencha todos os dados pessoais"
			}
		}
		return true, ""
	case StepPlanSelection:
		if s.Plan == nil {
			return false, "Selecione um plano"
		}
		if !plans.IsEligible(s.Plan, s.ExperienceYears, s.IsStudent) {
			return false, "Você não atende aos requisitos do plano selecionado"
		}
		return true, ""
	case StepDocuments:
		if s.ExperienceDocs < 1 {
			return false, "Anexe ao menos um comprovante de experiência"
		}
		if s.IsStudent && !s.HasStudentDoc {
			return false, "Anexe o comprovante de matrícula"
		}
		return true, ""
	case StepPaymentOrTerms:
		if s.Plan != nil && s.Plan.RequiresPayment {
			// Informational only; the real gate is the payment intent
			// confirmation handled before submission.
			return true, ""
		}
		if !s.AcceptTerms {
			return false, "Aceite os termos para continuar"
		}
		return true, ""
	case StepTerms:
		if !s.AcceptTerms {
			return false, "Aceite os termos para continuar"
		}
		return true, ""
	}
	return false, "Etapa inválida"
}

// Advance moves forward one step when the guard passes.
func (s *State) Advance() error {
	if s.Step >= s.LastStep() {
		return ErrCannotAdvance
	}
	if ok, _ := s.CanAdvance(); !ok {
		return ErrCannotAdvance
	}
	s.Step++
	return nil
}

// Back always succeeds and keeps entered data intact.
func (s *State) Back() {
	if s.Step > StepPersonalData {
		s.Step--
	}
}

// CanSubmit: on the last applicable step, terms accepted, not mid-submission.
func (s *State) CanSubmit() bool {
	return s.Step == s.LastStep() && s.AcceptTerms && !s.submitting
}

// BeginSubmit claims the single in-flight submission slot. Returns false when
// a submission is already running.
func (s *State) BeginSubmit() bool {
	if !s.CanSubmit() {
		return false
	}
	s.submitting = true
	return true
}

// EndSubmit releases the slot after a failed attempt; on success the state
// moves to StepSubmitted instead.
func (s *State) EndSubmit(succeeded bool) {
	s.submitting = false
	if succeeded {
		s.Step = StepSubmitted
	}
}

// Validate runs every guard up to the last step, for the server-side second
// line of defense on submission payloads.
func (s *State) Validate() (bool, string) {
	saved := s.Step
	defer func() { s.Step = saved }()
	for step := StepPersonalData; step <= s.LastStep(); step++ {
		s.Step = step
		if ok, msg := s.CanAdvance(); !ok {
			return false, msg
		}
	}
	return true, ""
}
