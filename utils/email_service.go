// utils/email_service.go
package utils

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/gomail.v2"
)

// SendMonthlySalarySummary emails the operators the outcome of a monthly
// salary batch. Failures are logged, never propagated; the batch itself has
// already committed.
func SendMonthlySalarySummary(month string, checked, eligible, created int) {
	recipients := strings.Split(os.Getenv("ADMIN_EMAILS"), ",")
	if len(recipients) == 0 || recipients[0] == "" {
		return
	}

	subject := fmt.Sprintf("Salary batch for %s", month)
	body := fmt.Sprintf(
		"Monthly salary processing for %s is complete.\n\nUsers checked: %d\nEligible users: %d\nNew requests created: %d\n\nPending requests are waiting for approval in the admin console.",
		month, checked, eligible, created)

	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}
	if smtpHost == "" {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send salary summary email: %v", err)
	}
}
