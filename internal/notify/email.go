package notify

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/spec-kit/helpdesk/internal/config"
)

// EmailKind selects the template for an outbound ticket email.
type EmailKind string

const (
	EmailTicketCreated  EmailKind = "ticket-created"
	EmailTicketAssigned EmailKind = "ticket-assigned"
	EmailTicketUpdated  EmailKind = "ticket-updated"
	EmailTicketResolved EmailKind = "ticket-resolved"
)

// TicketEmail carries the fields the templates interpolate.
type TicketEmail struct {
	TicketID       string
	TicketTitle    string
	RecipientEmail string
	RecipientName  string
	UpdaterName    string
	Comment        string
}

// EmailSender delivers templated ticket notifications.
type EmailSender interface {
	SendTicketEmail(kind EmailKind, email TicketEmail) error
}

// SMTPEmailSender sends via SMTP using gomail.
type SMTPEmailSender struct {
	cfg     config.SMTPConfig
	baseURL string
	dialer  *gomail.Dialer
}

// NewSMTPEmailSender builds a sender; baseURL is used for ticket links.
func NewSMTPEmailSender(cfg config.SMTPConfig, baseURL string) *SMTPEmailSender {
	return &SMTPEmailSender{
		cfg:     cfg,
		baseURL: baseURL,
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendTicketEmail renders the template for kind and delivers it.
func (s *SMTPEmailSender) SendTicketEmail(kind EmailKind, email TicketEmail) error {
	if s.cfg.Host == "" {
		return errors.New("smtp not configured")
	}
	subject, htmlBody := s.render(kind, email)

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	msg.SetHeader("To", email.RecipientEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return s.dialer.DialAndSend(msg)
}

func (s *SMTPEmailSender) render(kind EmailKind, email TicketEmail) (string, string) {
	name := email.RecipientName
	if name == "" {
		name = "there"
	}
	link := fmt.Sprintf("%s/tickets/%s", s.baseURL, email.TicketID)
	button := fmt.Sprintf(`<a href="%s" style="display:inline-block;background-color:#0070f3;color:white;padding:12px 20px;text-decoration:none;border-radius:5px;margin-top:10px;">View Ticket</a>`, link)

	switch kind {
	case EmailTicketCreated:
		return fmt.Sprintf("Ticket #%s - Received", email.TicketID), fmt.Sprintf(`
			<h2>Ticket Received</h2>
			<p>Hello %s,</p>
			<p>We have received your ticket: "%s"</p>
			<p>Our team will review it and get back to you shortly.</p>
			%s`, name, email.TicketTitle, button)
	case EmailTicketAssigned:
		return fmt.Sprintf("Ticket #%s - Assigned", email.TicketID), fmt.Sprintf(`
			<h2>Ticket Assigned</h2>
			<p>Hello %s,</p>
			<p>You have been assigned to ticket: "%s"</p>
			<p>Please review and take necessary action.</p>
			%s`, name, email.TicketTitle, button)
	case EmailTicketResolved:
		return fmt.Sprintf("Ticket #%s - Resolved", email.TicketID), fmt.Sprintf(`
			<h2>Ticket Resolved</h2>
			<p>Hello %s,</p>
			<p>Your ticket "%s" has been resolved.</p>
			<p>If you feel it was not fully resolved, you can create a new ticket referencing this one.</p>
			%s`, name, email.TicketTitle, button)
	default:
		updater := ""
		if email.UpdaterName != "" {
			updater = fmt.Sprintf("<p>%s has made an update:</p>", email.UpdaterName)
		}
		comment := ""
		if email.Comment != "" {
			comment = fmt.Sprintf(`<blockquote style="margin:10px 0;padding:10px;border-left:4px solid #0070f3;background-color:#f5f5f5;">%s</blockquote>`, email.Comment)
		}
		return fmt.Sprintf("Ticket #%s - New Update", email.TicketID), fmt.Sprintf(`
			<h2>Ticket Updated</h2>
			<p>Hello %s,</p>
			<p>There has been an update to your ticket: "%s"</p>
			%s%s%s`, name, email.TicketTitle, updater, comment, button)
	}
}
