package applications

import "testing"

func TestStatusMachine(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusDraft, StatusPending, true},
		{StatusDraft, StatusApproved, false},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusDocumentsRequested, true},
		{StatusDocumentsRequested, StatusPending, true},
		// Re-análise explícita obrigatória: nada de aprovar direto
		{StatusDocumentsRequested, StatusApproved, false},
		// Terminais para ações de admin
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		// Recurso re-enfileira
		{StatusRejected, StatusPending, true},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
