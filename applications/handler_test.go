package applications

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"aneti-backend/documents"
	"aneti-backend/login"
	"aneti-backend/migrations"
	"aneti-backend/notifications"
	"aneti-backend/plans"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

var userCols = []string{"id", "first_name", "last_name", "email", "password", "phone", "state", "city", "area",
	"plan_name", "role", "is_approved", "is_active", "subscription_status", "created_at", "updated_at"}

var planCols = []string{"id", "name", "price", "min_experience_years", "max_experience_years", "requires_payment",
	"is_recurring", "billing_period", "is_active", "is_available_for_registration", "priority",
	"stripe_product_id", "stripe_price_id"}

var appCols = []string{"id", "user_id", "plan_id", "name", "status", "payment_status", "experience_years",
	"is_student", "admin_notes", "reviewed_by", "reviewed_at", "stripe_customer_id", "stripe_subscription_id",
	"created_at", "updated_at"}

func userRow(t *testing.T, id int, role string) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(id, "Maria", "Silva", "maria@example.com", "$2a$10$hash", "+55 11 99999-0000", "SP", "São Paulo",
			"Desenvolvimento", "", role, role == "admin", true, nil, now, now)
}

func juniorRow() *sqlmock.Rows {
	return sqlmock.NewRows(planCols).
		AddRow(2, "Júnior", 9900, 0, 3, true, true, "yearly", true, true, 2, nil, nil)
}

func applicationRow(id, userID int, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(appCols).
		AddRow(id, userID, 2, "Júnior", status, PaymentPaid, 2, false, nil, nil, nil, "cus_1", "sub_1", now, now)
}

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("SESSION_SECRET", "segredo-de-teste")

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	migrations.Init(db)

	h := NewHandler(NewRepository(db), plans.NewRepository(db), documents.NewRepository(db),
		notifications.NewService(db, nil))
	r := gin.New()
	h.RegisterRoutes(r)
	h.RegisterAdminRoutes(r)
	return r, mock
}

func signedToken(t *testing.T, id int, role, audience string) string {
	t.Helper()
	user := &migrations.User{ID: id, Email: "maria@example.com", Role: role, IsActive: true}
	token, _, err := login.SignToken(user, audience, false)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	return token
}

func postJSON(r *gin.Engine, token, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func expectMemberAuth(mock sqlmock.Sqlmock, t *testing.T, id int) {
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).WithArgs(id).WillReturnRows(userRow(t, id, "member"))
}

func expectAdminAuth(mock sqlmock.Sqlmock, t *testing.T, id int) {
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).WithArgs(id).WillReturnRows(userRow(t, id, "admin"))
}

func TestCreateApplicationOpensDraft(t *testing.T) {
	r, mock := newTestRouter(t)
	token := signedToken(t, 7, "member", login.AudienceMember)

	expectMemberAuth(mock, t, 7)
	mock.ExpectQuery(`SELECT .+ FROM membership_plans WHERE id`).WithArgs(2).WillReturnRows(juniorRow())
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM applications`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`(?s)SELECT a\.id, a\.user_id.+a\.status = 'draft'`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows(appCols))
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(7, 2, StatusDraft, PaymentPending, 2, false).
		WillReturnResult(sqlmock.NewResult(11, 1))

	w := postJSON(r, token, "/member-applications", `{"plan_id":2,"experience_years":2,"is_student":false}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("esperava 201, veio %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"status":"draft"`) {
		t.Errorf("a inscrição deve nascer como rascunho: %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateApplicationSupersedesStaleDraft(t *testing.T) {
	r, mock := newTestRouter(t)
	token := signedToken(t, 7, "member", login.AudienceMember)

	expectMemberAuth(mock, t, 7)
	mock.ExpectQuery(`SELECT .+ FROM membership_plans WHERE id`).WithArgs(2).WillReturnRows(juniorRow())
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM applications`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// Rascunho abandonado: é removido e a nova inscrição o substitui
	mock.ExpectQuery(`(?s)SELECT a\.id, a\.user_id.+a\.status = 'draft'`).WithArgs(7).
		WillReturnRows(applicationRow(5, 7, StatusDraft))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM applications WHERE id = ? AND status = 'draft'`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(7, 2, StatusDraft, PaymentPending, 2, false).
		WillReturnResult(sqlmock.NewResult(12, 1))

	w := postJSON(r, token, "/member-applications", `{"plan_id":2,"experience_years":2,"is_student":false}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("rascunho antigo deveria ser substituído, veio %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateApplicationBlocksDuplicate(t *testing.T) {
	r, mock := newTestRouter(t)
	token := signedToken(t, 7, "member", login.AudienceMember)

	expectMemberAuth(mock, t, 7)
	mock.ExpectQuery(`SELECT .+ FROM membership_plans WHERE id`).WithArgs(2).WillReturnRows(juniorRow())
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM applications`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := postJSON(r, token, "/member-applications", `{"plan_id":2,"experience_years":2,"is_student":false}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("inscrição em análise deve retornar 409, veio %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "inscrição em andamento") {
		t.Errorf("mensagem de duplicidade ausente: %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateApplicationEnforcesEligibility(t *testing.T) {
	r, mock := newTestRouter(t)
	token := signedToken(t, 7, "member", login.AudienceMember)

	expectMemberAuth(mock, t, 7)
	// Júnior aceita no máximo 3 anos; candidato declara 10
	mock.ExpectQuery(`SELECT .+ FROM membership_plans WHERE id`).WithArgs(2).WillReturnRows(juniorRow())

	w := postJSON(r, token, "/member-applications", `{"plan_id":2,"experience_years":10,"is_student":false}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("candidato inelegível deve receber 422, veio %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateApplicationRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/member-applications", strings.NewReader(`{"plan_id":2}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("sem token deve retornar 401, veio %d", w.Code)
	}
}

func TestAdminApproveFlipsUserFlag(t *testing.T) {
	r, mock := newTestRouter(t)
	token := signedToken(t, 3, "admin", login.AudienceAdmin)

	expectAdminAuth(mock, t, 3)
	mock.ExpectQuery(`(?s)SELECT a\.id, a\.user_id.+WHERE a\.id`).WithArgs(42).
		WillReturnRows(applicationRow(42, 12, StatusPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE applications SET status = ?, reviewed_by = ?, reviewed_at = NOW()`)).
		WithArgs(StatusApproved, 3, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// O único caminho que liga is_approved
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET is_approved = 1, updated_at = NOW() WHERE id = ?`)).
		WithArgs(12).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET plan_name = ?, updated_at = NOW() WHERE id = ?`)).
		WithArgs("Júnior", 12).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).WithArgs(12).WillReturnRows(userRow(t, 12, "member"))
	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(12, "Inscrição aprovada", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := postJSON(r, token, "/admin/applications/42/approve", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("aprovação deveria responder 200, veio %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), StatusApproved) {
		t.Errorf("resposta deve refletir o novo status: %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAdminRejectRequestingDocuments(t *testing.T) {
	r, mock := newTestRouter(t)
	token := signedToken(t, 3, "admin", login.AudienceAdmin)

	expectAdminAuth(mock, t, 3)
	mock.ExpectQuery(`(?s)SELECT a\.id, a\.user_id.+WHERE a\.id`).WithArgs(42).
		WillReturnRows(applicationRow(42, 12, StatusPending))
	// Registra revisor, hora e nota; is_approved do usuário não é tocado
	mock.ExpectExec(`(?s)UPDATE applications SET status = .+admin_notes = CONCAT`).
		WithArgs(StatusDocumentsRequested, 3, "Envie o diploma", 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).WithArgs(12).WillReturnRows(userRow(t, 12, "member"))
	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(12, "Documentos solicitados", "Envie o diploma").
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := postJSON(r, token, "/admin/applications/42/reject", `{"reason":"Envie o diploma","request_documents":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("solicitação de documentos deveria responder 200, veio %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), StatusDocumentsRequested) {
		t.Errorf("resposta deve refletir documents_requested: %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAdminRoutesRejectMemberToken(t *testing.T) {
	r, _ := newTestRouter(t)
	token := signedToken(t, 7, "member", login.AudienceMember)

	w := postJSON(r, token, "/admin/applications/42/approve", `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("token de membro em rota de admin deve receber 401, veio %d", w.Code)
	}
}
