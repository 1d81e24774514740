// Package notify mails finished reports back to the requester.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"eflyt-phone-lookup/internal/common/config"
	"eflyt-phone-lookup/internal/common/errors"
	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Transport delivers a composed message.
type Transport interface {
	Name() string
	Send(ctx context.Context, from string, to []string, msg *gomail.Message) error
}

type Options struct {
	Sender  string
	Subject string
	Body    string
}

func OptionsFrom(cfg config.NotificationConfig) Options {
	return Options{Sender: cfg.Sender, Subject: cfg.Subject, Body: cfg.Body}
}

type Notifier struct {
	transport Transport
	opts      Options
	logger    logger.Logger
}

func New(transport Transport, opts Options, log logger.Logger) *Notifier {
	return &Notifier{transport: transport, opts: opts, logger: log.Named("notify")}
}

// Notify sends exactly one message with the report attached. The attachment
// bytes are the report content unchanged.
func (n *Notifier) Notify(ctx context.Context, rep *report.Report, recipient string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return errors.NewMissingRequesterError("recipient is empty")
	}
	if rep == nil {
		return errors.NewNotificationSendError(n.transport.Name(), fmt.Errorf("no report to send"))
	}

	msg := n.compose(rep, recipient)
	if err := n.transport.Send(ctx, n.opts.Sender, []string{recipient}, msg); err != nil {
		return errors.NewNotificationSendError(n.transport.Name(), err)
	}

	n.logger.Info("Report sent", map[string]interface{}{
		"recipient": recipient,
		"transport": n.transport.Name(),
		"rows":      len(rep.Rows),
		"filename":  rep.Filename,
	})
	return nil
}

func (n *Notifier) compose(rep *report.Report, recipient string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.opts.Sender)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", n.opts.Subject)
	m.SetBody("text/plain", n.opts.Body)

	content := rep.Content
	m.Attach(rep.Filename,
		gomail.SetHeader(map[string][]string{"Content-Type": {xlsxContentType}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(content))
			return err
		}),
	)
	return m
}

// SMTPTransport sends through a plain SMTP relay.
type SMTPTransport struct {
	dialer interface {
		DialAndSend(m ...*gomail.Message) error
	}
}

func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPTransport{dialer: d}
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, from string, to []string, msg *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.dialer.DialAndSend(msg)
}

// RawSender is implemented by the SES client.
type RawSender interface {
	SendRaw(ctx context.Context, from string, to []string, raw []byte) (string, error)
}

// SESTransport sends the serialized MIME message through SES.
type SESTransport struct {
	client RawSender
	logger logger.Logger
}

func NewSESTransport(client RawSender, log logger.Logger) *SESTransport {
	return &SESTransport{client: client, logger: log}
}

func (t *SESTransport) Name() string { return "ses" }

func (t *SESTransport) Send(ctx context.Context, from string, to []string, msg *gomail.Message) error {
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return fmt.Errorf("serialize message: %w", err)
	}
	id, err := t.client.SendRaw(ctx, from, to, buf.Bytes())
	if err != nil {
		return err
	}
	t.logger.Debug("SES accepted message", map[string]interface{}{"messageId": id})
	return nil
}
