package wizard

import (
	"testing"

	"aneti-backend/plans"
)

func intPtr(n int) *int { return &n }

func paidPlan() *plans.Plan {
	return &plans.Plan{ID: 2, Name: "Júnior", Price: 9900, MaxExperienceYears: intPtr(3),
		RequiresPayment: true, IsActive: true, IsAvailableForRegistration: true}
}

func freePlan() *plans.Plan {
	return &plans.Plan{ID: 1, Name: "Público", IsActive: true, IsAvailableForRegistration: true}
}

func filledPersonalData(s *State) {
	s.FullName = "Maria da Silva"
	s.Phone = "+55 11 99999-0000"
	s.UF = "SP"
	s.City = "São Paulo"
	s.Area = "Desenvolvimento"
}

func TestStepOneRequiresAllFields(t *testing.T) {
	s := New()
	if ok, _ := s.CanAdvance(); ok {
		t.Fatal("passo 1 vazio não pode avançar")
	}
	// Preenche um campo por vez; só o último libera o avanço
	fields := []*string{&s.FullName, &s.Phone, &s.UF, &s.City, &s.Area}
	values := []string{"Maria da Silva", "+55 11 99999-0000", "SP", "São Paulo", "Desenvolvimento"}
	for i, f := range fields {
		*f = values[i]
		ok, _ := s.CanAdvance()
		if i < len(fields)-1 && ok {
			t.Errorf("passo 1 liberou com apenas %d campo(s)", i+1)
		}
		if i == len(fields)-1 && !ok {
			t.Error("passo 1 deve liberar assim que o último campo é preenchido")
		}
	}
	// Espaços em branco não contam
	s.City = "   "
	if ok, _ := s.CanAdvance(); ok {
		t.Error("campo só com espaços deve bloquear o avanço")
	}
}

func TestPlanSelectionGuard(t *testing.T) {
	s := New()
	filledPersonalData(s)
	if err := s.Advance(); err != nil {
		t.Fatalf("avanço do passo 1: %v", err)
	}
	if ok, _ := s.CanAdvance(); ok {
		t.Error("passo 2 sem plano selecionado não pode avançar")
	}
	// Sênior exige 8 anos; candidato tem 3 -> plano não selecionável
	s.Plan = &plans.Plan{Name: "Sênior", MinExperienceYears: 8, RequiresPayment: true,
		IsActive: true, IsAvailableForRegistration: true}
	s.ExperienceYears = 3
	if ok, _ := s.CanAdvance(); ok {
		t.Error("plano inelegível deve bloquear o passo 2")
	}
	s.Plan = paidPlan()
	if ok, msg := s.CanAdvance(); !ok {
		t.Errorf("plano elegível deveria liberar: %s", msg)
	}
}

func TestDocumentsGuard(t *testing.T) {
	s := New()
	filledPersonalData(s)
	s.Plan = freePlan()
	s.Step = StepDocuments
	if ok, _ := s.CanAdvance(); ok {
		t.Error("passo 3 sem comprovante de experiência não pode avançar")
	}
	s.ExperienceDocs = 1
	if ok, _ := s.CanAdvance(); !ok {
		t.Error("um comprovante de experiência deve bastar para não estudante")
	}
	s.IsStudent = true
	if ok, _ := s.CanAdvance(); ok {
		t.Error("estudante sem comprovante de matrícula deve ser bloqueado")
	}
	s.HasStudentDoc = true
	if ok, _ := s.CanAdvance(); !ok {
		t.Error("estudante com comprovante deve avançar")
	}
}

func TestLastStepDependsOnPlan(t *testing.T) {
	s := New()
	s.Plan = freePlan()
	if s.LastStep() != StepPaymentOrTerms {
		t.Error("plano gratuito termina no passo 4")
	}
	s.Plan = paidPlan()
	if s.LastStep() != StepTerms {
		t.Error("plano pago tem o passo 5 de termos")
	}
}

func TestPaymentStepIsInformationalForPaidPlans(t *testing.T) {
	s := New()
	filledPersonalData(s)
	s.Plan = paidPlan()
	s.ExperienceYears = 2
	s.ExperienceDocs = 1
	s.Step = StepPaymentOrTerms
	if ok, _ := s.CanAdvance(); !ok {
		t.Error("passo 4 de plano pago é informativo e sempre passa")
	}
	// Plano gratuito exige termos já no passo 4
	s.Plan = freePlan()
	if ok, _ := s.CanAdvance(); ok {
		t.Error("plano gratuito sem aceitar termos não pode concluir o passo 4")
	}
	s.AcceptTerms = true
	if ok, _ := s.CanAdvance(); !ok {
		t.Error("plano gratuito com termos aceitos deve passar")
	}
}

func TestBackNeverClearsData(t *testing.T) {
	s := New()
	filledPersonalData(s)
	s.Plan = freePlan()
	s.ExperienceDocs = 2
	s.Step = StepDocuments
	s.Back()
	if s.Step != StepPlanSelection {
		t.Errorf("Back deveria voltar ao passo 2, ficou em %d", s.Step)
	}
	if s.FullName == "" || s.ExperienceDocs != 2 || s.Plan == nil {
		t.Error("Back não pode limpar dados já informados")
	}
	// Back no primeiro passo é no-op
	s.Step = StepPersonalData
	s.Back()
	if s.Step != StepPersonalData {
		t.Error("Back no passo 1 deve permanecer no passo 1")
	}
}

func TestSingleFlightSubmission(t *testing.T) {
	s := New()
	filledPersonalData(s)
	s.Plan = freePlan()
	s.ExperienceDocs = 1
	s.Step = s.LastStep()
	s.AcceptTerms = true

	if !s.BeginSubmit() {
		t.Fatal("primeira submissão deve ser aceita")
	}
	if s.BeginSubmit() {
		t.Error("submissão duplicada em andamento deve ser recusada")
	}
	s.EndSubmit(false)
	if !s.BeginSubmit() {
		t.Error("após falha a submissão pode ser repetida")
	}
	s.EndSubmit(true)
	if s.Step != StepSubmitted {
		t.Error("sucesso deve mover o estado para Submitted")
	}
	if s.BeginSubmit() {
		t.Error("estado submetido não aceita nova submissão")
	}
}

func TestValidateRunsAllGuards(t *testing.T) {
	s := New()
	filledPersonalData(s)
	s.Plan = paidPlan()
	s.ExperienceYears = 2
	s.ExperienceDocs = 1
	s.AcceptTerms = true
	if ok, msg := s.Validate(); !ok {
		t.Errorf("estado completo deveria validar: %s", msg)
	}
	s.City = ""
	if ok, _ := s.Validate(); ok {
		t.Error("Validate deve reprovar dados pessoais incompletos")
	}
}
