package applications

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestHasOpenApplication(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Apenas pending/documents_requested bloqueiam; rascunhos são substituídos
	// na próxima inscrição, não contam como abertos
	openStatuses := regexp.QuoteMeta(`status IN ('pending','documents_requested')`)

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM applications WHERE user_id = \? AND ` + openStatuses).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	open, err := repo.HasOpenApplication(7)
	if err != nil {
		t.Fatalf("HasOpenApplication: %v", err)
	}
	if !open {
		t.Error("usuário com inscrição pendente deveria contar como aberta")
	}

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM applications WHERE user_id = \? AND ` + openStatuses).
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	open, err = repo.HasOpenApplication(8)
	if err != nil {
		t.Fatalf("HasOpenApplication: %v", err)
	}
	if open {
		t.Error("usuário sem inscrições não deveria contar como aberta")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDeleteDraftGuardsStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM applications WHERE id = ? AND status = 'draft'`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.DeleteDraft(5); err != nil {
		t.Fatalf("DeleteDraft: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDecideRecordsReviewer(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE applications SET status = ?, reviewed_by = ?, reviewed_at = NOW()`)).
		WithArgs(StatusApproved, 3, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Decide(42, StatusApproved, 3, ""); err != nil {
		t.Fatalf("Decide sem nota: %v", err)
	}

	// Com nota a atualização também faz o append em admin_notes
	mock.ExpectExec(`(?s)UPDATE applications SET status = .+admin_notes = CONCAT`).
		WithArgs(StatusDocumentsRequested, 3, "Envie o diploma", 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Decide(42, StatusDocumentsRequested, 3, "Envie o diploma"); err != nil {
		t.Fatalf("Decide com nota: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSetPaymentStatusBySubscription(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id FROM applications WHERE stripe_subscription_id`).
		WithArgs("sub_123").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(`UPDATE applications SET payment_status`).
		WithArgs(PaymentPaid, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.SetPaymentStatusBySubscription("sub_123", PaymentPaid)
	if err != nil {
		t.Fatalf("SetPaymentStatusBySubscription: %v", err)
	}
	if id != 9 {
		t.Errorf("esperava application 9, veio %d", id)
	}

	// Evento sem inscrição correspondente: (0, nil) para o caller logar e descartar
	mock.ExpectQuery(`SELECT id FROM applications WHERE stripe_subscription_id`).
		WithArgs("sub_desconhecida").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	id, err = repo.SetPaymentStatusBySubscription("sub_desconhecida", PaymentPaid)
	if err != nil {
		t.Fatalf("sem correspondência não é erro: %v", err)
	}
	if id != 0 {
		t.Errorf("sem correspondência deve retornar 0, veio %d", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSetStatusPreservesEverythingElse(t *testing.T) {
	repo, mock := newMockRepo(t)

	// documents_requested -> pending não toca em documentos nem em reviewed_*
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE applications SET status = ?, updated_at = NOW() WHERE id = ?`)).
		WithArgs(StatusPending, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SetStatus(5, StatusPending); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
