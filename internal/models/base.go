package models

import (
	"time"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. IDs are assigned by the
// database; clients never set or predict them.
type Base struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b Base) GetID() uint64 {
	return b.ID
}

// Record is any backend-owned resource row
type Record interface {
	GetID() uint64
}

type BoatType string

const (
	BoatTypeYacht     BoatType = "yacht"
	BoatTypeCatamaran BoatType = "catamaran"
	BoatTypeSpeedboat BoatType = "speedboat"
	BoatTypeSailboat  BoatType = "sailboat"
	BoatTypeFerry     BoatType = "ferry"
)

type BoatStatus string

const (
	BoatStatusAvailable   BoatStatus = "available"
	BoatStatusMaintenance BoatStatus = "maintenance"
	BoatStatusRetired     BoatStatus = "retired"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleEditor UserRole = "editor"
	UserRoleViewer UserRole = "viewer"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusSent      CampaignStatus = "sent"
	CampaignStatusFailed    CampaignStatus = "failed"
)

type SubscriberStatus string

const (
	SubscriberStatusSubscribed   SubscriberStatus = "subscribed"
	SubscriberStatusUnsubscribed SubscriberStatus = "unsubscribed"
	SubscriberStatusBounced      SubscriberStatus = "bounced"
)

type RecipientStatus string

const (
	RecipientStatusPending RecipientStatus = "pending"
	RecipientStatusSent    RecipientStatus = "sent"
	RecipientStatusFailed  RecipientStatus = "failed"
)
