// Package workers holds the background loops that run outside the request
// path: retrying invitation emails that never went out and sending
// appointment reminders.
package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"bauflow/internal/platform/mailer"
	"bauflow/internal/platform/repositories"
)

type Worker struct {
	invitationRepo  *repositories.InvitationRepository
	appointmentRepo *repositories.AppointmentRepository
	employeeRepo    *repositories.EmployeeRepository
	companyRepo     *repositories.CompanyRepository
	mailer          *mailer.Mailer
}

func New(invitationRepo *repositories.InvitationRepository, appointmentRepo *repositories.AppointmentRepository, employeeRepo *repositories.EmployeeRepository, companyRepo *repositories.CompanyRepository, m *mailer.Mailer) *Worker {
	return &Worker{
		invitationRepo:  invitationRepo,
		appointmentRepo: appointmentRepo,
		employeeRepo:    employeeRepo,
		companyRepo:     companyRepo,
		mailer:          m,
	}
}

// RetryUnsentInvitationEmails picks up live invitations whose email never
// made it out and tries again. email_sent_at only gets set on success, so a
// failing address is retried every cycle until the invitation expires.
func (w *Worker) RetryUnsentInvitationEmails(ctx context.Context) {
	invitations, err := w.invitationRepo.ListUnsent(time.Now().Unix())
	if err != nil {
		log.Error().Err(err).Msg("listing unsent invitations failed")
		return
	}

	for _, inv := range invitations {
		company, err := w.companyRepo.GetByID(inv.CompanyID)
		if err != nil || company == nil {
			log.Warn().Str("invitation", inv.ID).Msg("skipping invitation without company")
			continue
		}

		if err := w.mailer.SendInvitation(ctx, inv.Email, company.Name, inv.InvitationToken); err != nil {
			log.Error().Err(err).Str("invitation", inv.ID).Msg("invitation email retry failed")
			continue
		}
		if err := w.invitationRepo.MarkEmailSent(inv.ID, time.Now().Unix()); err != nil {
			log.Error().Err(err).Str("invitation", inv.ID).Msg("marking invitation email sent failed")
		}
		log.Info().Str("invitation", inv.ID).Msg("invitation email resent")
	}
}

// SendAppointmentReminders mails employees whose appointments start inside
// the window. The reminder flag is flipped before delivery is confirmed,
// duplicate reminders annoy more than a rare missing one.
func (w *Worker) SendAppointmentReminders(ctx context.Context, window time.Duration) {
	now := time.Now()
	appointments, err := w.appointmentRepo.ListUpcomingUnreminded(now.Unix(), now.Add(window).Unix())
	if err != nil {
		log.Error().Err(err).Msg("listing upcoming appointments failed")
		return
	}

	for _, appt := range appointments {
		if appt.EmployeeID == "" {
			if err := w.appointmentRepo.MarkReminded(appt.ID); err != nil {
				log.Error().Err(err).Str("appointment", appt.ID).Msg("marking appointment reminded failed")
			}
			continue
		}

		employee, err := w.employeeRepo.GetByID(appt.CompanyID, appt.EmployeeID)
		if err != nil {
			log.Error().Err(err).Str("appointment", appt.ID).Msg("employee lookup failed")
			continue
		}
		if employee == nil || employee.Email == "" {
			if err := w.appointmentRepo.MarkReminded(appt.ID); err != nil {
				log.Error().Err(err).Str("appointment", appt.ID).Msg("marking appointment reminded failed")
			}
			continue
		}

		if err := w.appointmentRepo.MarkReminded(appt.ID); err != nil {
			log.Error().Err(err).Str("appointment", appt.ID).Msg("marking appointment reminded failed")
			continue
		}
		if err := w.mailer.SendAppointmentReminder(ctx, employee.Email, appt.Title, appt.Location, time.Unix(appt.StartsAt, 0)); err != nil {
			log.Error().Err(err).Str("appointment", appt.ID).Msg("reminder email failed")
		}
	}
}
