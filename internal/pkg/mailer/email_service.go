// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendCatalogRefreshAlert(toEmail, detail string) error
	SendPolicyReloadAlert(toEmail, path, detail string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendCatalogRefreshAlert(toEmail, detail string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "[DeskMate] Prototype catalog refresh failed")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Prototype catalog refresh failed</h2>
			<p>The background refresh could not rebuild the routing catalog. The router keeps serving the last good snapshot, but new or edited prototypes are not live.</p>
			<pre style="background-color: #f5f5f5; padding: 10px; border-radius: 5px;">%s</pre>
			<p>Reported at %s.</p>
		</div>
	`, detail, time.Now().Format(time.RFC3339))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send catalog alert to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Catalog refresh alert sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendPolicyReloadAlert(toEmail, path, detail string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "[DeskMate] Routing policy reload rejected")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Routing policy reload rejected</h2>
			<p>An update to <code>%s</code> failed validation and was not applied. The previous policy stays active until the file is fixed.</p>
			<pre style="background-color: #f5f5f5; padding: 10px; border-radius: 5px;">%s</pre>
			<p>Reported at %s.</p>
		</div>
	`, path, detail, time.Now().Format(time.RFC3339))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send policy alert to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Policy reload alert sent to %s\n", toEmail)
	return nil
}
