// Package email delivers reports over SMTP as text or text+HTML messages.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/metrics"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/retry"
)

var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks the address shape only; it does not look up MX records.
func ValidateEmail(address string) bool {
	return addressPattern.MatchString(strings.TrimSpace(address))
}

// DefaultSubject is the subject used for report emails about subject.
func DefaultSubject(subject string, at time.Time) string {
	return fmt.Sprintf("Relatório de Notícias sobre %s - %s", subject, at.Format("02/01/2006"))
}

type Config struct {
	Server   string
	Port     int
	Username string
	Password string
	UseTLS   bool
	// From defaults to Username.
	From          string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// sendFunc delivers one raw message; swapped in tests.
type sendFunc func(ctx context.Context, from string, to []string, msg []byte) error

type Sender struct {
	cfg     Config
	send    sendFunc
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewSender(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Sender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sender{cfg: cfg, metrics: m, log: logger.With("component", "email"), now: time.Now}
	s.send = s.smtpSend
	return s
}

// SendReport sends a plain-text message.
func (s *Sender) SendReport(ctx context.Context, to, subject, text string) error {
	return s.deliver(ctx, to, subject, text, "")
}

// SendHTMLReport sends a multipart/alternative message with both renderings.
func (s *Sender) SendHTMLReport(ctx context.Context, to, subject, text, html string) error {
	return s.deliver(ctx, to, subject, text, html)
}

func (s *Sender) deliver(ctx context.Context, to, subject, text, html string) error {
	to = strings.TrimSpace(to)
	if !ValidateEmail(to) {
		return fmt.Errorf("invalid recipient address %q", to)
	}
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("SMTP credentials are not configured")
	}

	msg, err := buildMessage(s.cfg.From, to, subject, text, html, s.now())
	if err != nil {
		return err
	}

	err = retry.WithRetry(ctx, retry.RetryConfig{MaxAttempts: s.cfg.RetryAttempts, Delay: s.cfg.RetryDelay, Backoff: true}, func() error {
		if err := s.send(ctx, s.cfg.From, []string{to}, msg); err != nil {
			s.log.Warn("send attempt failed", "to", to, "error", err)
			if isAuthError(err) {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	s.metrics.IncrementEmailsSent()
	s.log.Info("email sent", "to", to, "subject", subject)
	return nil
}

// TestConnection dials the server, upgrades to TLS when configured and
// authenticates, without sending anything.
func (s *Sender) TestConnection(ctx context.Context) error {
	c, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Quit()
}

func (s *Sender) addr() string {
	return net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
}

func (s *Sender) dial(ctx context.Context) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.addr(), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(s.cfg.Timeout))
	}

	c, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}
	if s.cfg.UseTLS {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Server}); err != nil {
			c.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)
		if err := c.Auth(auth); err != nil {
			c.Close()
			return nil, &authError{err: err}
		}
	}
	return c, nil
}

func (s *Sender) smtpSend(ctx context.Context, from string, to []string, msg []byte) error {
	c, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	return c.Quit()
}

type authError struct{ err error }

func (e *authError) Error() string { return "smtp auth: " + e.err.Error() }
func (e *authError) Unwrap() error { return e.err }

func isAuthError(err error) bool {
	_, ok := err.(*authError)
	return ok
}

// buildMessage renders RFC 5322 headers and a quoted-printable body; with
// html it becomes multipart/alternative, text first.
func buildMessage(from, to, subject, text, html string, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	header("From", from)
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if html == "" {
		header("Content-Type", "text/plain; charset=UTF-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, text); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=UTF-8", text},
		{"text/html; charset=UTF-8", html},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		if err := writeQP(w, part.body); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), nil
}

func writeQP(w interface{ Write([]byte) (int, error) }, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	return qp.Close()
}
