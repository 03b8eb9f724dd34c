package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tourdesk/internal/events"
	"tourdesk/internal/models"
	console "tourdesk/internal/utils/logger"
)

var ErrCampaignNotSendable = errors.New("only draft or scheduled campaigns can be sent")

// Enqueuer hands delivery to a background worker
type Enqueuer interface {
	EnqueueCampaign(ctx context.Context, emailID uint64) error
}

// Mailer delivers one campaign to one recipient
type Mailer interface {
	Deliver(ctx context.Context, email *models.Email, to *models.Recipient) error
}

// LogMailer pretends to deliver by logging; the sandbox never sends mail
type LogMailer struct {
	log *console.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{log: console.New("MAILER")}
}

func (m *LogMailer) Deliver(ctx context.Context, email *models.Email, to *models.Recipient) error {
	m.log.Info("Delivered %q to %s", email.Subject, to.Address)
	return nil
}

// CampaignService fans a newsletter out to subscribers
type CampaignService struct {
	db     *gorm.DB
	bus    *events.EventBus
	mailer Mailer
	queue  Enqueuer
	now    func() time.Time
	log    *console.Logger
}

type CampaignOption func(*CampaignService)

// WithQueue makes Send enqueue delivery instead of running it inline
func WithQueue(q Enqueuer) CampaignOption {
	return func(s *CampaignService) {
		s.queue = q
	}
}

func WithMailer(m Mailer) CampaignOption {
	return func(s *CampaignService) {
		s.mailer = m
	}
}

func WithBus(bus *events.EventBus) CampaignOption {
	return func(s *CampaignService) {
		s.bus = bus
	}
}

func NewCampaignService(db *gorm.DB, opts ...CampaignOption) *CampaignService {
	s := &CampaignService{
		db:     db,
		bus:    events.Default(),
		mailer: NewLogMailer(),
		now:    time.Now,
		log:    console.New("CAMPAIGNS"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send snapshots the subscribed audience into recipients, marks the campaign
// sending and starts delivery.
func (s *CampaignService) Send(ctx context.Context, emailID uint64) error {
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		email := &models.Email{}
		if err := tx.First(email, emailID).Error; err != nil {
			return err
		}
		if !models.IsEditableCampaignStatus(email.Status) {
			return ErrCampaignNotSendable
		}

		var subscribers []models.Subscriber
		if err := tx.Where("status = ?", models.SubscriberStatusSubscribed).Order("id").Find(&subscribers).Error; err != nil {
			return err
		}
		recipients := make([]models.Recipient, 0, len(subscribers))
		for _, sub := range subscribers {
			recipients = append(recipients, models.Recipient{
				EmailID: email.ID,
				Address: sub.Email,
				Name:    sub.Name,
				Status:  models.RecipientStatusPending,
			})
		}
		if len(recipients) > 0 {
			if err := tx.CreateInBatches(recipients, 100).Error; err != nil {
				return err
			}
		}
		count = len(recipients)
		return tx.Model(&models.Email{}).Where("id = ?", email.ID).
			Update("status", models.CampaignStatusSending).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("Campaign #%d queued for %d recipients", emailID, count)

	if s.queue != nil {
		err := s.queue.EnqueueCampaign(ctx, emailID)
		if err == nil {
			return nil
		}
		s.log.Warn("Enqueue failed, delivering inline: %v", err)
	}
	return s.Deliver(ctx, emailID)
}

// Deliver sends every pending recipient of a campaign and settles its status.
// It is safe to run again after a crash: delivered recipients are skipped.
func (s *CampaignService) Deliver(ctx context.Context, emailID uint64) error {
	db := s.db.WithContext(ctx)
	email := &models.Email{}
	if err := db.First(email, emailID).Error; err != nil {
		return err
	}

	var pending []models.Recipient
	if err := db.Where("email_id = ? AND status = ?", emailID, models.RecipientStatusPending).Order("id").Find(&pending).Error; err != nil {
		return err
	}

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := &pending[i]
		updates := map[string]interface{}{}
		if err := s.mailer.Deliver(ctx, email, r); err != nil {
			updates["status"] = models.RecipientStatusFailed
			updates["error"] = err.Error()
		} else {
			updates["status"] = models.RecipientStatusSent
			updates["sent_at"] = s.now()
		}
		if err := db.Model(&models.Recipient{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update recipient %d: %w", r.ID, err)
		}
	}

	return s.settle(ctx, emailID)
}

func (s *CampaignService) settle(ctx context.Context, emailID uint64) error {
	db := s.db.WithContext(ctx)
	var sent, failed int64
	if err := db.Model(&models.Recipient{}).Where("email_id = ? AND status = ?", emailID, models.RecipientStatusSent).Count(&sent).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Recipient{}).Where("email_id = ? AND status = ?", emailID, models.RecipientStatusFailed).Count(&failed).Error; err != nil {
		return err
	}

	status := models.CampaignStatusSent
	if failed > 0 && sent == 0 {
		status = models.CampaignStatusFailed
	}
	now := s.now()
	if err := db.Model(&models.Email{}).Where("id = ?", emailID).
		Updates(map[string]interface{}{"status": status, "sent_at": now}).Error; err != nil {
		return err
	}

	s.log.Success("Campaign #%d %s: %d delivered, %d failed", emailID, status, sent, failed)
	s.bus.Emit("emails."+string(status), emailID)
	return nil
}

// SendDue starts every scheduled campaign whose time has come
func (s *CampaignService) SendDue(ctx context.Context) (int, error) {
	var due []models.Email
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.CampaignStatusScheduled, s.now()).
		Order("scheduled_at").Find(&due).Error
	if err != nil {
		return 0, err
	}

	started := 0
	for _, e := range due {
		if err := s.Send(ctx, e.ID); err != nil {
			s.log.Warn("Scheduled campaign #%d did not start: %v", e.ID, err)
			continue
		}
		started++
	}
	return started, nil
}
