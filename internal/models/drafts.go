package models

import (
	"time"

	"gorm.io/datatypes"
)

// Drafts are the editable subset of each record. The validate tags are the
// schema used by both the console dialogs and the sandbox API.

type BoatDraft struct {
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	Type        string   `json:"type" validate:"required,oneof=yacht catamaran speedboat sailboat ferry"`
	Capacity    int      `json:"capacity" validate:"required,min=1,max=500"`
	PricePerDay float64  `json:"price_per_day" validate:"gte=0"`
	Status      string   `json:"status" validate:"required,oneof=available maintenance retired"`
	Description string   `json:"description" validate:"max=2000"`
	ImagePath   string   `json:"image_path" validate:"omitempty,max=512"`
	Features    []string `json:"features" validate:"omitempty,dive,min=1,max=50"`
}

func BoatDraftFrom(b Boat) BoatDraft {
	return BoatDraft{
		Name:        b.Name,
		Type:        string(b.Type),
		Capacity:    b.Capacity,
		PricePerDay: b.PricePerDay,
		Status:      string(b.Status),
		Description: b.Description,
		ImagePath:   b.ImagePath,
		Features:    []string(b.Features),
	}
}

func (d BoatDraft) Apply(b *Boat) {
	b.Name = d.Name
	b.Type = BoatType(d.Type)
	b.Capacity = d.Capacity
	b.PricePerDay = d.PricePerDay
	b.Status = BoatStatus(d.Status)
	b.Description = d.Description
	b.ImagePath = d.ImagePath
	b.Features = datatypes.NewJSONSlice(d.Features)
}

type HotelDraft struct {
	Name          string   `json:"name" validate:"required,min=2,max=100"`
	Location      string   `json:"location" validate:"required,min=2,max=100"`
	Stars         int      `json:"stars" validate:"required,min=1,max=5"`
	PricePerNight float64  `json:"price_per_night" validate:"gte=0"`
	Email         string   `json:"email" validate:"omitempty,email"`
	Phone         string   `json:"phone" validate:"omitempty,max=30"`
	Website       string   `json:"website" validate:"omitempty,url"`
	ImagePath     string   `json:"image_path" validate:"omitempty,max=512"`
	Amenities     []string `json:"amenities" validate:"omitempty,dive,min=1,max=50"`
}

func HotelDraftFrom(h Hotel) HotelDraft {
	return HotelDraft{
		Name:          h.Name,
		Location:      h.Location,
		Stars:         h.Stars,
		PricePerNight: h.PricePerNight,
		Email:         h.Email,
		Phone:         h.Phone,
		Website:       h.Website,
		ImagePath:     h.ImagePath,
		Amenities:     []string(h.Amenities),
	}
}

func (d HotelDraft) Apply(h *Hotel) {
	h.Name = d.Name
	h.Location = d.Location
	h.Stars = d.Stars
	h.PricePerNight = d.PricePerNight
	h.Email = d.Email
	h.Phone = d.Phone
	h.Website = d.Website
	h.ImagePath = d.ImagePath
	h.Amenities = datatypes.NewJSONSlice(d.Amenities)
}

type CustomerDraft struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	Country   string `json:"country" validate:"omitempty,max=56"`
}

func CustomerDraftFrom(c Customer) CustomerDraft {
	return CustomerDraft{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Country:   c.Country,
	}
}

func (d CustomerDraft) Apply(c *Customer) {
	c.FirstName = d.FirstName
	c.LastName = d.LastName
	c.Email = d.Email
	c.Phone = d.Phone
	c.Country = d.Country
}

type RoleDraft struct {
	Name        string   `json:"name" validate:"required,min=2,max=50"`
	Description string   `json:"description" validate:"max=255"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,permission_scope"`
}

func RoleDraftFrom(r Role) RoleDraft {
	return RoleDraft{
		Name:        r.Name,
		Description: r.Description,
		Permissions: []string(r.Permissions),
	}
}

func (d RoleDraft) Apply(r *Role) {
	r.Name = d.Name
	r.Description = d.Description
	r.Permissions = datatypes.NewJSONSlice(d.Permissions)
}

type UserDraft struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8" form:"secret"`
	Role     string `json:"role" validate:"required,user_role"`
}

// UserDraftFrom never carries the password; leaving it empty keeps the stored one
func UserDraftFrom(u User) UserDraft {
	return UserDraft{
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}

func (d UserDraft) Apply(u *User) {
	u.Name = d.Name
	u.Email = d.Email
	u.Role = UserRole(d.Role)
	if d.Password != "" {
		u.Password = d.Password
	}
}

type FAQDraft struct {
	Question  string `json:"question" validate:"required,min=5,max=255"`
	Answer    string `json:"answer" validate:"required,min=2"`
	Category  string `json:"category" validate:"omitempty,max=50"`
	Position  int    `json:"position" validate:"gte=0"`
	Published bool   `json:"published"`
}

func FAQDraftFrom(f FAQ) FAQDraft {
	return FAQDraft{
		Question:  f.Question,
		Answer:    f.Answer,
		Category:  f.Category,
		Position:  f.Position,
		Published: f.Published,
	}
}

func (d FAQDraft) Apply(f *FAQ) {
	f.Question = d.Question
	f.Answer = d.Answer
	f.Category = d.Category
	f.Position = d.Position
	f.Published = d.Published
}

type TestimonialDraft struct {
	Author    string `json:"author" validate:"required,min=2,max=100"`
	Content   string `json:"content" validate:"required,min=10,max=2000"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Location  string `json:"location" validate:"omitempty,max=100"`
	Published bool   `json:"published"`
}

func TestimonialDraftFrom(t Testimonial) TestimonialDraft {
	return TestimonialDraft{
		Author:    t.Author,
		Content:   t.Content,
		Rating:    t.Rating,
		Location:  t.Location,
		Published: t.Published,
	}
}

func (d TestimonialDraft) Apply(t *Testimonial) {
	t.Author = d.Author
	t.Content = d.Content
	t.Rating = d.Rating
	t.Location = d.Location
	t.Published = d.Published
}

type EmailDraft struct {
	Subject     string     `json:"subject" validate:"required,max=200"`
	Body        string     `json:"body" validate:"required"`
	Status      string     `json:"status" validate:"required,campaign_status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" validate:"required_if=Status scheduled"`
}

func EmailDraftFrom(e Email) EmailDraft {
	return EmailDraft{
		Subject:     e.Subject,
		Body:        e.Body,
		Status:      string(e.Status),
		ScheduledAt: e.ScheduledAt,
	}
}

func (d EmailDraft) Apply(e *Email) {
	e.Subject = d.Subject
	e.Body = d.Body
	e.Status = CampaignStatus(d.Status)
	e.ScheduledAt = d.ScheduledAt
}

type SubscriberDraft struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"omitempty,max=100"`
	Status string `json:"status" validate:"required,oneof=subscribed unsubscribed bounced"`
	Source string `json:"source" validate:"omitempty,max=50"`
}

func SubscriberDraftFrom(s Subscriber) SubscriberDraft {
	return SubscriberDraft{
		Email:  s.Email,
		Name:   s.Name,
		Status: string(s.Status),
		Source: s.Source,
	}
}

func (d SubscriberDraft) Apply(s *Subscriber) {
	s.Email = d.Email
	s.Name = d.Name
	s.Status = SubscriberStatus(d.Status)
	s.Source = d.Source
}

type RecipientDraft struct {
	EmailID uint64 `json:"email_id" validate:"required,gt=0"`
	Address string `json:"address" validate:"required,email"`
	Name    string `json:"name" validate:"omitempty,max=100"`
	Status  string `json:"status" validate:"required,oneof=pending sent failed"`
}

func RecipientDraftFrom(r Recipient) RecipientDraft {
	return RecipientDraft{
		EmailID: r.EmailID,
		Address: r.Address,
		Name:    r.Name,
		Status:  string(r.Status),
	}
}

func (d RecipientDraft) Apply(r *Recipient) {
	r.EmailID = d.EmailID
	r.Address = d.Address
	r.Name = d.Name
	r.Status = RecipientStatus(d.Status)
}
