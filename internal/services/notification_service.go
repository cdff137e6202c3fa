// internal/services/notification_service.go
package services

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tphpa/portal-backend/internal/config"
	"github.com/tphpa/portal-backend/internal/models"
)

// NotificationService delivers email best-effort. Delivery failures never
// propagate as errors; undeliverable messages are appended to the
// notification log so an operator can replay them.
type NotificationService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	return &NotificationService{db: db, cfg: cfg}
}

// Send attempts SMTP delivery and reports whether the message left the
// building. On any failure it records a fallback row and returns false.
func (s *NotificationService) Send(to, subject, textBody, htmlBody string) bool {
	if s.cfg.Email.SMTPHost == "" {
		s.recordFallback(to, subject, textBody, htmlBody, "smtp not configured")
		return false
	}

	if err := s.sendSMTP(to, subject, textBody, htmlBody); err != nil {
		logrus.WithError(err).WithField("recipient", to).Warn("Email delivery failed")
		s.recordFallback(to, subject, textBody, htmlBody, err.Error())
		return false
	}

	logrus.WithFields(logrus.Fields{
		"recipient": to,
		"subject":   subject,
	}).Info("Email sent")
	return true
}

func (s *NotificationService) sendSMTP(to, subject, textBody, htmlBody string) error {
	addr := net.JoinHostPort(s.cfg.Email.SMTPHost, s.cfg.Email.SMTPPort)
	timeout := time.Duration(s.cfg.Email.SendTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	// One deadline for the whole exchange so a stalled server cannot hold
	// the caller hostage.
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return err
	}

	client, err := smtp.NewClient(conn, s.cfg.Email.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if s.cfg.Email.SMTPUsername != "" {
		auth := smtp.PlainAuth("", s.cfg.Email.SMTPUsername, s.cfg.Email.SMTPPassword, s.cfg.Email.SMTPHost)
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(s.cfg.Email.FromEmail); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(s.buildMessage(to, subject, textBody, htmlBody)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *NotificationService) buildMessage(to, subject, textBody, htmlBody string) []byte {
	var msg strings.Builder
	from := fmt.Sprintf("%s <%s>", s.cfg.Email.FromName, s.cfg.Email.FromEmail)

	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")

	if htmlBody != "" {
		boundary := "portal-mixed-boundary"
		msg.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")
		msg.WriteString("--" + boundary + "\r\n")
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(textBody + "\r\n")
		msg.WriteString("--" + boundary + "\r\n")
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		msg.WriteString(htmlBody + "\r\n")
		msg.WriteString("--" + boundary + "--\r\n")
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(textBody + "\r\n")
	}

	return []byte(msg.String())
}

func (s *NotificationService) recordFallback(to, subject, textBody, htmlBody, reason string) {
	entry := &models.NotificationLog{
		Recipient: to,
		Subject:   subject,
		TextBody:  textBody,
		HTMLBody:  htmlBody,
		Delivered: false,
		Reason:    reason,
	}
	if err := s.db.Create(entry).Error; err != nil {
		logrus.WithError(err).Error("Failed to record undelivered notification")
	}
}

// SendApprovalRequest emails the approver a single-use decision link. The
// raw token lives only inside the link; it is never logged.
func (s *NotificationService) SendApprovalRequest(req *models.ApprovalRequest, requestorName, link string) bool {
	formRef := req.FormTypeCode
	if req.InstanceID != nil {
		formRef = fmt.Sprintf("#%d", *req.InstanceID)
	}
	if requestorName == "" {
		requestorName = "A staff member"
	}

	subject := fmt.Sprintf("Approval requested: form %s", formRef)
	textBody := fmt.Sprintf(
		"%s has requested your approval on form %s (field: %s).\n\n"+
			"Review and decide here:\n%s\n\n"+
			"This link can be used once and expires on %s.",
		requestorName, formRef, req.FieldName, link,
		req.TokenExpiresAt.Format("02 Jan 2006 15:04 MST"))
	htmlBody := fmt.Sprintf(
		"<p>%s has requested your approval on form <strong>%s</strong> (field: %s).</p>"+
			"<p><a href=\"%s\">Review and decide</a></p>"+
			"<p>This link can be used once and expires on %s.</p>",
		requestorName, formRef, req.FieldName, link,
		req.TokenExpiresAt.Format("02 Jan 2006 15:04 MST"))

	return s.Send(req.ApproverEmail, subject, textBody, htmlBody)
}

// SendDecisionNotice tells the requestor how their approval request ended.
func (s *NotificationService) SendDecisionNotice(req *models.ApprovalRequest, requestorEmail string) bool {
	formRef := req.FormTypeCode
	if req.InstanceID != nil {
		formRef = fmt.Sprintf("#%d", *req.InstanceID)
	}

	subject := fmt.Sprintf("Your approval request was %s", req.Status)
	textBody := fmt.Sprintf(
		"Your approval request on form %s (field: %s) was %s.",
		formRef, req.FieldName, req.Status)
	if req.DecisionComment != "" {
		textBody += "\n\nComment: " + req.DecisionComment
	}
	htmlBody := fmt.Sprintf(
		"<p>Your approval request on form <strong>%s</strong> (field: %s) was <strong>%s</strong>.</p>",
		formRef, req.FieldName, req.Status)
	if req.DecisionComment != "" {
		htmlBody += fmt.Sprintf("<p>Comment: %s</p>", req.DecisionComment)
	}

	return s.Send(requestorEmail, subject, textBody, htmlBody)
}
