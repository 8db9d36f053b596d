package mailer

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendLowEnergyAlert(toEmail string, balance, threshold int64) error
	SendPurchaseReceipt(toEmail string, packageName string, credits, bonus, newBalance int64) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	frontendURL string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	frontendURL := os.Getenv("FRONTEND_URL")

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
		frontendURL: frontendURL,
	}
}

func (s *emailService) SendLowEnergyAlert(toEmail string, balance, threshold int64) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your energy is running low")

	topUpLink := fmt.Sprintf("%s/packages", s.frontendURL)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Running on fumes!</h2>
			<p>Your energy balance dropped to <strong>%d</strong> (alert threshold: %d).</p>
			<p>Top up to keep using your AI tools:</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View Packages</a>
		</div>
	`, balance, threshold, topUpLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send low-energy alert to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Low-energy alert sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendPurchaseReceipt(toEmail string, packageName string, credits, bonus, newBalance int64) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Energy purchase confirmed")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Thanks for your purchase!</h2>
			<p>Package: <strong>%s</strong></p>
			<p>Credits added: %d (+%d bonus)</p>
			<p>New balance: <strong>%d</strong></p>
		</div>
	`, packageName, credits, bonus, newBalance)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send receipt to %s: %v\n", toEmail, err)
		return err
	}
	return nil
}
