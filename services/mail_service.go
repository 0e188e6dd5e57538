package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"gorm.io/gorm"
)

const (
	RegisterSubject = "Welcome to CleanPro!"
	ConfirmSubject  = "Email confirmation | CleanPro"
	OrderSubject    = "Your cleaning is booked | CleanPro"
)

type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends plain text mail. Auth is used only when a user is set.
type SMTPSender struct {
	addr string
	host string
	user string
	pass string
	from string
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", strings.TrimSpace(host), port),
		host: strings.TrimSpace(host),
		user: user,
		pass: pass,
		from: strings.TrimSpace(from),
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	return smtp.SendMail(s.addr, auth, s.from, []string{to}, []byte(buildMessage(s.from, to, subject, body)))
}

func buildMessage(from, to, subject, body string) string {
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		body,
	)
}

// LogSender writes mail to the info log instead of sending it.
type LogSender struct{}

func (LogSender) Send(to, subject, body string) error {
	utils.InfoLogger.Printf("Mail to %s: %s\n%s", to, subject, body)
	return nil
}

// MailService sends mail and keeps a Notification row per message.
type MailService struct {
	DB     *gorm.DB
	Sender Sender
	From   string
}

func NewMailService(db *gorm.DB, sender Sender, from string) *MailService {
	return &MailService{DB: db, Sender: sender, From: from}
}

// Notify sends one message. The delivery result is recorded even when the
// send fails; only a failed insert is returned.
func (m *MailService) Notify(ctx context.Context, userID *uint, to, subject, body string) error {
	n := models.Notification{
		UserID:    userID,
		Recipient: to,
		Title:     subject,
		Message:   body,
	}
	if err := m.Sender.Send(to, subject, body); err != nil {
		utils.ErrorLogger.Printf("Failed to send %q to %s: %v", subject, to, err)
		n.Error = err.Error()
	} else {
		n.Delivered = true
	}
	if err := m.DB.WithContext(ctx).Omit("User").Create(&n).Error; err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// NotifyAsync runs Notify in the background.
func (m *MailService) NotifyAsync(userID *uint, to, subject, body string) {
	go func() {
		if err := m.Notify(context.Background(), userID, to, subject, body); err != nil {
			utils.ErrorLogger.Println(err)
		}
	}()
}

func RegisterText(from string) string {
	return "Hello there!\n\n" +
		"Welcome to CleanPro! We are thrilled to have you as part of our community.\n\n" +
		"If you have any questions or need further assistance, do not hesitate to reach out to us at " + from + ".\n\n" +
		"Best regards,\nThe CleanPro Team"
}

func ConfirmText(code string) string {
	return "Welcome to CleanPro!\n\n" +
		"To confirm your email please enter the code below on the website:\n\n" +
		code + "\n\n" +
		"Best regards,\nThe CleanPro Team"
}

func OrderText(order *models.Order) string {
	return fmt.Sprintf("Your order #%d is booked for %s at %s.\nTotal: %s.\n\nBest regards,\nThe CleanPro Team",
		order.ID, order.CleaningDate, order.CleaningTime, utils.FormatRubles(order.TotalSum))
}
