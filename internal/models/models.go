package models

import (
	"time"

	"gorm.io/datatypes"
)

type Boat struct {
	Base
	Name        string                      `gorm:"not null" json:"name"`
	Type        BoatType                    `gorm:"not null" json:"type"`
	Capacity    int                         `gorm:"not null" json:"capacity"`
	PricePerDay float64                     `json:"price_per_day"`
	Status      BoatStatus                  `gorm:"not null;default:'available'" json:"status"`
	Description string                      `json:"description,omitempty"`
	ImagePath   string                      `json:"image_path,omitempty"`
	ImageURL    string                      `gorm:"-" json:"image_url,omitempty"` // Virtual field
	Features    datatypes.JSONSlice[string] `json:"features,omitempty"`
}

type Hotel struct {
	Base
	Name          string                      `gorm:"not null" json:"name"`
	Location      string                      `gorm:"not null" json:"location"`
	Stars         int                         `json:"stars"`
	PricePerNight float64                     `json:"price_per_night"`
	Email         string                      `json:"email,omitempty"`
	Phone         string                      `json:"phone,omitempty"`
	Website       string                      `json:"website,omitempty"`
	ImagePath     string                      `json:"image_path,omitempty"`
	ImageURL      string                      `gorm:"-" json:"image_url,omitempty"` // Virtual field
	Amenities     datatypes.JSONSlice[string] `json:"amenities,omitempty"`
}

type Customer struct {
	Base
	FirstName string    `gorm:"not null" json:"first_name"`
	LastName  string    `gorm:"not null" json:"last_name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Country   string    `json:"country,omitempty"`
	Bookings  []Booking `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"bookings,omitempty"`
}

func (c Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Booking struct {
	Base
	CustomerID uint64        `gorm:"index;not null" json:"customer_id"`
	TripName   string        `gorm:"not null" json:"trip_name"`
	TravelDate time.Time     `json:"travel_date"`
	Guests     int           `json:"guests"`
	Status     BookingStatus `gorm:"not null;default:'pending'" json:"status"`
	Amount     float64       `json:"amount"`
}

type FAQ struct {
	Base
	Question  string `gorm:"not null" json:"question"`
	Answer    string `gorm:"not null" json:"answer"`
	Category  string `json:"category,omitempty"`
	Position  int    `json:"position"`
	Published bool   `json:"published"`
}

type Testimonial struct {
	Base
	Author    string `gorm:"not null" json:"author"`
	Content   string `gorm:"not null" json:"content"`
	Rating    int    `json:"rating"`
	Location  string `json:"location,omitempty"`
	Published bool   `json:"published"`
}

// Email is a newsletter campaign sent to subscribers
type Email struct {
	Base
	Subject     string         `gorm:"not null" json:"subject"`
	Body        string         `gorm:"not null" json:"body"`
	Status      CampaignStatus `gorm:"not null;default:'draft'" json:"status"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
	Recipients  []Recipient    `gorm:"foreignKey:EmailID;constraint:OnDelete:CASCADE" json:"recipients,omitempty"`
}

type Subscriber struct {
	Base
	Email  string           `gorm:"uniqueIndex;not null" json:"email"`
	Name   string           `json:"name,omitempty"`
	Status SubscriberStatus `gorm:"not null;default:'subscribed'" json:"status"`
	Source string           `json:"source,omitempty"`
}

// Recipient is one delivery of a campaign to one address
type Recipient struct {
	Base
	EmailID uint64          `gorm:"index;not null" json:"email_id"`
	Address string          `gorm:"not null" json:"address"`
	Name    string          `json:"name,omitempty"`
	Status  RecipientStatus `gorm:"not null;default:'pending'" json:"status"`
	SentAt  *time.Time      `json:"sent_at,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// All returns every model the sandbox migrates, in dependency order
func All() []interface{} {
	return []interface{}{
		&Role{}, &User{}, &AuthTransaction{},
		&Boat{}, &Hotel{},
		&Customer{}, &Booking{},
		&FAQ{}, &Testimonial{},
		&Email{}, &Subscriber{}, &Recipient{},
	}
}
