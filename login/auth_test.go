package login

import (
	"testing"

	"aneti-backend/migrations"
)

func testUser() *migrations.User {
	return &migrations.User{ID: 12, Email: "maria@example.com", Role: "member", IsActive: true}
}

func TestTokenRoundtrip(t *testing.T) {
	t.Setenv("SESSION_SECRET", "segredo-de-teste")

	signed, exp, err := SignToken(testUser(), AudienceMember, false)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if exp == 0 {
		t.Error("expiração deve ser informada junto com o token")
	}
	ident, err := ParseToken(signed, AudienceMember)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if ident.UserID != 12 || ident.Email != "maria@example.com" || ident.Role != "member" {
		t.Errorf("identidade incorreta: %+v", ident)
	}
}

func TestAudienceSeparation(t *testing.T) {
	t.Setenv("SESSION_SECRET", "segredo-de-teste")
	t.Setenv("ADMIN_SESSION_SECRET", "segredo-admin")

	member, _, err := SignToken(testUser(), AudienceMember, false)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	// Token de membro nunca abre rota de admin
	if _, err := ParseToken(member, AudienceAdmin); err == nil {
		t.Error("token de membro foi aceito como admin")
	}

	admin := testUser()
	admin.Role = "admin"
	adminToken, _, err := SignToken(admin, AudienceAdmin, false)
	if err != nil {
		t.Fatalf("SignToken admin: %v", err)
	}
	if _, err := ParseToken(adminToken, AudienceMember); err == nil {
		t.Error("token de admin foi aceito em rota de membro")
	}
	if _, err := ParseToken(adminToken, AudienceAdmin); err != nil {
		t.Errorf("token de admin rejeitado na própria audiência: %v", err)
	}
}

func TestAudienceSeparationWithSharedSecret(t *testing.T) {
	// Mesmo sem ADMIN_SESSION_SECRET configurado, a audiência basta
	t.Setenv("SESSION_SECRET", "segredo-unico")
	t.Setenv("ADMIN_SESSION_SECRET", "")

	member, _, err := SignToken(testUser(), AudienceMember, false)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if _, err := ParseToken(member, AudienceAdmin); err == nil {
		t.Error("audiência member não pode passar como admin com segredo compartilhado")
	}
}

func TestRevokedTokenRejected(t *testing.T) {
	t.Setenv("SESSION_SECRET", "segredo-de-teste")

	signed, _, err := SignToken(testUser(), AudienceMember, false)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if _, err := ParseToken(signed, AudienceMember); err != nil {
		t.Fatalf("token recém-emitido rejeitado: %v", err)
	}
	revoke(signed)
	if _, err := ParseToken(signed, AudienceMember); err == nil {
		t.Error("token revogado no logout continua aceito")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	t.Setenv("SESSION_SECRET", "segredo-de-teste")
	if _, err := ParseToken("nao-e-um-jwt", AudienceMember); err == nil {
		t.Error("string arbitrária aceita como token")
	}
}

func TestRememberExtendsExpiry(t *testing.T) {
	t.Setenv("SESSION_SECRET", "segredo-de-teste")

	_, short, err := SignToken(testUser(), AudienceMember, false)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	_, long, err := SignToken(testUser(), AudienceMember, true)
	if err != nil {
		t.Fatalf("SignToken remember: %v", err)
	}
	if long <= short {
		t.Error("remember me deve estender a validade da sessão")
	}
}
