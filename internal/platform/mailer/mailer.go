package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"bauflow/internal/platform/config"
)

type Mailer struct {
	client      EmailClient
	fromAddress string
	fromName    string
	appBaseURL  string
	apiBaseURL  string
}

func New(cfg config.EmailConfig, authCfg config.AuthConfig) *Mailer {
	var client EmailClient
	switch cfg.Provider {
	case "sendgrid":
		client = NewSendGridClient(cfg.APIKey)
	default:
		client = LogClient{}
	}
	return NewWithClient(client, cfg, authCfg)
}

func NewWithClient(client EmailClient, cfg config.EmailConfig, authCfg config.AuthConfig) *Mailer {
	return &Mailer{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		appBaseURL:  strings.TrimRight(authCfg.AppBaseURL, "/"),
		apiBaseURL:  strings.TrimRight(authCfg.APIBaseURL, "/"),
	}
}

// Dispatch runs fn on its own goroutine with a bounded timeout. Mail delivery
// must never fail the request that triggered it, failures are logged and the
// caller moves on.
func (m *Mailer) Dispatch(what string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Error().Err(err).Str("mail", what).Msg("email dispatch failed")
		}
	}()
}

func (m *Mailer) SendConfirmation(ctx context.Context, to, firstName, code string) error {
	link := fmt.Sprintf("%s/api/v1/auth/callback?code=%s", m.apiBaseURL, code)

	subject := "Bauflow – Bitte bestätigen Sie Ihre E-Mail-Adresse"
	body := fmt.Sprintf(`Hallo %s,

vielen Dank für Ihre Registrierung bei Bauflow.

Bitte bestätigen Sie Ihre E-Mail-Adresse über den folgenden Link:

  %s

Der Link ist 24 Stunden gültig. Falls Sie sich nicht registriert haben,
können Sie diese E-Mail ignorieren.

Ihr Bauflow-Team`, firstName, link)

	return m.client.Send(ctx, m.fromAddress, m.fromName, to, subject, body)
}

func (m *Mailer) SendInvitation(ctx context.Context, to, companyName, token string) error {
	link := fmt.Sprintf("%s/einladung?token=%s", m.appBaseURL, token)

	subject := fmt.Sprintf("Einladung zu %s bei Bauflow", companyName)
	body := fmt.Sprintf(`Guten Tag,

Sie wurden eingeladen, dem Team von %s bei Bauflow beizutreten.

Über den folgenden Link können Sie Ihr Konto anlegen und die Einladung annehmen:

  %s

Die Einladung ist 7 Tage gültig.

Ihr Bauflow-Team`, companyName, link)

	return m.client.Send(ctx, m.fromAddress, m.fromName, to, subject, body)
}

func (m *Mailer) SendAppointmentReminder(ctx context.Context, to, title, location string, startsAt time.Time) error {
	subject := "Bauflow – Terminerinnerung: " + title

	where := location
	if where == "" {
		where = "–"
	}
	body := fmt.Sprintf(`Guten Tag,

zur Erinnerung: Sie haben einen anstehenden Termin.

  Termin : %s
  Ort    : %s
  Beginn : %s

Ihr Bauflow-Team`, title, where, startsAt.Format("02.01.2006 15:04"))

	return m.client.Send(ctx, m.fromAddress, m.fromName, to, subject, body)
}
