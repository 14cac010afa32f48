package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"muster/internal/access"
	"muster/internal/models"
	"muster/internal/observability"

	"github.com/jonboulle/clockwork"
)

const defaultDeliveryTimeout = 30 * time.Second

// CharterNotice describes one lifecycle transition to notify about. League.User
// must be loaded for the owner to be mailed.
type CharterNotice struct {
	League  *models.League
	Charter *models.Charter
	Actor   access.Actor
}

// DispatcherConfig carries the addresses used by outgoing notifications.
type DispatcherConfig struct {
	OperatorAddress string
	OperatorName    string
	AppURL          string
	Timeout         time.Duration
}

// Dispatcher sends lifecycle notifications in the background. Delivery errors
// are logged and counted, they never reach the caller.
type Dispatcher struct {
	mailer   Mailer
	notifier *Notifier
	cfg      DispatcherConfig
	clock    clockwork.Clock
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. mailer and notifier may be nil.
func NewDispatcher(mailer Mailer, notifier *Notifier, cfg DispatcherConfig, clock clockwork.Clock, logger *slog.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDeliveryTimeout
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{mailer: mailer, notifier: notifier, cfg: cfg, clock: clock, logger: logger}
}

type delivery struct {
	channel string
	send    func(ctx context.Context) error
}

// CharterSubmitted mails the requesting user and the operator mailbox.
func (d *Dispatcher) CharterSubmitted(ctx context.Context, n CharterNotice) {
	if d == nil {
		return
	}
	subject := fmt.Sprintf("Charter %s Submitted for Approval", n.Charter.Name)

	var jobs []delivery
	if n.Actor.Email != "" {
		jobs = append(jobs, d.mail(n, subject, TemplateCharterSubmitted, n.Actor.Email, n.Actor.Name))
	}
	if d.cfg.OperatorAddress != "" {
		jobs = append(jobs, d.mail(n, subject, TemplateCharterSubmitted, d.cfg.OperatorAddress, d.cfg.OperatorName))
	}
	jobs = append(jobs, d.publish(n, EventCharterSubmitted)...)
	d.dispatch(ctx, EventCharterSubmitted, jobs)
}

// CharterApproved mails the league owner, if the league has one.
func (d *Dispatcher) CharterApproved(ctx context.Context, n CharterNotice) {
	if d == nil {
		return
	}
	subject := fmt.Sprintf("Charter %s Approved", n.Charter.Name)
	d.dispatch(ctx, EventCharterApproved, d.ownerJobs(n, subject, TemplateCharterApproved, EventCharterApproved))
}

// CharterRejected mails the league owner, if the league has one.
func (d *Dispatcher) CharterRejected(ctx context.Context, n CharterNotice) {
	if d == nil {
		return
	}
	subject := fmt.Sprintf("Charter %s Could Not Be Approved", n.Charter.Name)
	d.dispatch(ctx, EventCharterRejected, d.ownerJobs(n, subject, TemplateCharterRejected, EventCharterRejected))
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

func (d *Dispatcher) ownerJobs(n CharterNotice, subject, tpl, eventType string) []delivery {
	var jobs []delivery
	if owner := n.League.User; owner != nil && n.League.UserID != nil && owner.Email != "" {
		jobs = append(jobs, d.mail(n, subject, tpl, owner.Email, owner.Name))
	}
	return append(jobs, d.publish(n, eventType)...)
}

func (d *Dispatcher) mail(n CharterNotice, subject, tpl, address, name string) delivery {
	msg := Message{
		ToAddress: address,
		ToName:    name,
		Subject:   subject,
		Template:  tpl,
		Data: MailData{
			Name:        name,
			CharterName: n.Charter.Name,
			LeagueName:  n.League.Name,
			ActiveFrom:  n.Charter.ActiveFrom,
			URL:         d.charterURL(n),
			Sender:      d.cfg.OperatorName,
		},
	}
	return delivery{channel: "mail", send: func(ctx context.Context) error {
		if d.mailer == nil {
			return nil
		}
		return d.mailer.Send(ctx, msg)
	}}
}

func (d *Dispatcher) publish(n CharterNotice, eventType string) []delivery {
	if d.notifier == nil || d.notifier.rdb == nil {
		return nil
	}
	event := Event{
		Type:        eventType,
		League:      n.League.Slug,
		Charter:     n.Charter.Slug,
		CharterName: n.Charter.Name,
		ActorID:     n.Actor.ID,
		URL:         d.charterURL(n),
		At:          d.clock.Now().UTC(),
	}

	jobs := []delivery{{channel: "redis", send: func(ctx context.Context) error {
		return d.notifier.PublishCharters(ctx, event)
	}}}
	if n.League.UserID != nil {
		ownerID := *n.League.UserID
		jobs = append(jobs, delivery{channel: "redis", send: func(ctx context.Context) error {
			return d.notifier.PublishUser(ctx, ownerID, event)
		}})
	}
	return jobs
}

func (d *Dispatcher) charterURL(n CharterNotice) string {
	if d.cfg.AppURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/leagues/%s/charters/%s", d.cfg.AppURL, n.League.Slug, n.Charter.Slug)
}

// dispatch runs jobs in a goroutine detached from the request's cancellation.
func (d *Dispatcher) dispatch(ctx context.Context, event string, jobs []delivery) {
	if len(jobs) == 0 {
		return
	}
	base := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, job := range jobs {
			d.run(base, event, job)
		}
	}()
}

func (d *Dispatcher) run(base context.Context, event string, job delivery) {
	ctx, cancel := context.WithTimeout(base, d.cfg.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			observability.NotificationFailures.WithLabelValues(job.channel).Inc()
			d.logger.ErrorContext(ctx, "panic delivering notification",
				"event", event, "channel", job.channel, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if err := job.send(ctx); err != nil {
		observability.NotificationFailures.WithLabelValues(job.channel).Inc()
		d.logger.WarnContext(ctx, "notification delivery failed",
			"event", event, "channel", job.channel, "error", err)
		return
	}
	observability.NotificationsSent.WithLabelValues(job.channel).Inc()
}
