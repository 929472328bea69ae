package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

func send(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}
	if host == "" || port == "" || user == "" || pass == "" || from == "" {
		return fmt.Errorf("SMTP environment variables missing")
	}
	addr := fmt.Sprintf("%s:%s", host, port)
	auth := smtp.PlainAuth("", user, pass, host)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s", from, to, subject, body))
	return smtp.SendMail(addr, auth, from, []string{to}, msg)
}

// SendApplicationReceived confirma o recebimento da inscrição.
func SendApplicationReceived(to, planName string) error {
	subject := "Inscrição recebida - ANETI"
	body := fmt.Sprintf(`Olá,

Recebemos a sua inscrição para o plano %s.

Nossa equipe vai analisar os seus documentos e você receberá um e-mail assim que houver uma decisão.

Abraços,
Equipe ANETI`, planName)
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] application received notice sent to %s", to)
	return nil
}

// SendApplicationApproved avisa que a inscrição foi aprovada.
func SendApplicationApproved(to, planName string) error {
	subject := "Inscrição aprovada - ANETI"
	body := fmt.Sprintf(`Parabéns!

Sua inscrição no plano %s foi aprovada. Sua conta já está liberada com acesso completo à plataforma.

Seja bem-vindo(a) à ANETI!`, planName)
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] approval notice sent to %s", to)
	return nil
}

// SendApplicationRejected comunica a recusa com o motivo informado pelo admin.
func SendApplicationRejected(to, reason string) error {
	subject := "Inscrição não aprovada - ANETI"
	body := fmt.Sprintf(`Olá,

Infelizmente sua inscrição não foi aprovada.

Motivo: %s

Você pode entrar com recurso pela plataforma caso discorde da decisão.

Equipe ANETI`, reason)
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] rejection notice sent to %s", to)
	return nil
}

// SendDocumentsRequested pede documentos adicionais ao candidato.
func SendDocumentsRequested(to, note string) error {
	subject := "Documentos adicionais necessários - ANETI"
	body := fmt.Sprintf(`Olá,

Para concluir a análise da sua inscrição precisamos de documentos adicionais:

%s

Anexe os documentos pela plataforma e reenvie a inscrição para nova análise.

Equipe ANETI`, note)
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] documents request sent to %s", to)
	return nil
}

// SendPasswordChanged confirma a troca de senha.
func SendPasswordChanged(to string) error {
	subject := "Senha atualizada - ANETI"
	body := "Sua senha foi alterada com sucesso. Se não foi você, entre em contato com o suporte."
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] password change notification sent to %s", to)
	return nil
}
