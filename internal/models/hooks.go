package models

import (
	"fmt"

	"tourdesk/internal/events"

	"gorm.io/gorm"
)

func (b *Boat) AfterFind(tx *gorm.DB) error {
	url, err := signedURL(tx.Statement.Context, b.ImagePath)
	if err != nil {
		return fmt.Errorf("failed to generate signed URL: %w", err)
	}
	b.ImageURL = url
	return nil
}

func (h *Hotel) AfterFind(tx *gorm.DB) error {
	url, err := signedURL(tx.Statement.Context, h.ImagePath)
	if err != nil {
		return fmt.Errorf("failed to generate signed URL: %w", err)
	}
	h.ImageURL = url
	return nil
}

func (e *Email) AfterSave(tx *gorm.DB) error {
	if e.Status == CampaignStatusScheduled {
		events.Emit("emails.scheduled", e)
	}
	return nil
}

func (s *Subscriber) AfterCreate(tx *gorm.DB) error {
	events.Emit("subscribers.created", s)
	return nil
}
