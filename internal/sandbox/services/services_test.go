package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tourdesk/internal/config"
	"tourdesk/internal/events"
	"tourdesk/internal/models"
	sandboxdb "tourdesk/internal/sandbox/db"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := sandboxdb.Connect(config.DatabaseConfig{Driver: "sqlite", Path: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sandboxdb.Close(db) })
	return db
}

func seedFAQs(t *testing.T, svc BaseService[models.FAQ]) {
	t.Helper()
	for i, q := range []string{"Zebra question", "Apple question", "Mango question"} {
		cat := "general"
		if i == 1 {
			cat = "booking"
		}
		require.NoError(t, svc.Create(context.Background(), &models.FAQ{Question: q, Answer: "Yes", Category: cat, Position: i}))
	}
}

func TestBaseService_CRUD(t *testing.T) {
	db := openTestDB(t)
	bus := events.NewEventBus()
	var (
		mu  sync.Mutex
		got []string
	)
	bus.On("faqs.*", func(event string, _ interface{}) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
	})

	svc := NewBaseService[models.FAQ](db, bus)
	ctx := context.Background()

	faq := &models.FAQ{Question: "Can I bring a dog?", Answer: "Small ones"}
	require.NoError(t, svc.Create(ctx, faq))
	require.NotZero(t, faq.ID)

	loaded, err := svc.Get(ctx, faq.ID)
	require.NoError(t, err)
	assert.Equal(t, "Small ones", loaded.Answer)

	loaded.Published = true
	loaded.Answer = "Any size"
	require.NoError(t, svc.Update(ctx, loaded))

	again, err := svc.Get(ctx, faq.ID)
	require.NoError(t, err)
	assert.True(t, again.Published)
	assert.Equal(t, "Any size", again.Answer)

	require.NoError(t, svc.Delete(ctx, faq.ID))
	_, err = svc.Get(ctx, faq.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, faq.ID), gorm.ErrRecordNotFound)

	// soft deleted rows stay in the table
	var count int64
	require.NoError(t, db.Unscoped().Model(&models.FAQ{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	bus.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"faqs.created", "faqs.updated", "faqs.deleted"}, got)
}

func TestBaseService_List(t *testing.T) {
	db := openTestDB(t)
	svc := NewBaseService[models.FAQ](db, events.NewEventBus())
	seedFAQs(t, svc)
	ctx := context.Background()

	all, total, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)
	assert.Equal(t, "Zebra question", all[0].Question)

	sorted, _, err := svc.List(ctx, ListQuery{Sort: "question", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zebra question", "Mango question", "Apple question"},
		[]string{sorted[0].Question, sorted[1].Question, sorted[2].Question})

	page, total, err := svc.List(ctx, ListQuery{Page: 2, PerPage: 2, Sort: "Question"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Zebra question", page[0].Question)

	filtered, total, err := svc.List(ctx, ListQuery{Filters: map[string]string{"category": "booking"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Apple question", filtered[0].Question)

	_, _, err = svc.List(ctx, ListQuery{Sort: "question; drop table faqs"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, _, err = svc.List(ctx, ListQuery{Filters: map[string]string{"nope": "1"}})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestBaseService_Includes(t *testing.T) {
	db := openTestDB(t)
	svc := NewBaseService[models.Customer](db, events.NewEventBus())
	ctx := context.Background()

	c := &models.Customer{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	require.NoError(t, svc.Create(ctx, c))
	require.NoError(t, db.Create(&models.Booking{CustomerID: c.ID, TripName: "Island hop", Guests: 2, Status: models.BookingStatusConfirmed}).Error)

	list, _, err := svc.List(ctx, ListQuery{Includes: []string{"Bookings"}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Bookings, 1)
	assert.Equal(t, "Island hop", list[0].Bookings[0].TripName)
}

func TestAuthService_LoginAndRevoke(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, models.SeedRoles(db))
	require.NoError(t, db.Create(&models.User{Name: "Vic", Email: "vic@example.com", Password: "correct horse", Role: models.UserRoleViewer}).Error)

	auth := NewAuthService(db, "test-secret", time.Hour)
	ctx := context.Background()

	_, err := auth.Login(ctx, "vic@example.com", "wrong", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "nobody@example.com", "correct horse", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	issued, err := auth.Login(ctx, "vic@example.com", "correct horse", "127.0.0.1", "test")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.NotNil(t, issued.User.LastLoginAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, time.Minute)

	claims, err := auth.ParseJWT(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.User.ID, claims.UserID)
	assert.Equal(t, "viewer", claims.Role)
	assert.Contains(t, claims.Scopes, "*:read")

	other := NewAuthService(db, "another-secret", time.Hour)
	_, err = other.ParseJWT(ctx, issued.Token)
	assert.Error(t, err)

	require.NoError(t, auth.Revoke(ctx, claims))
	_, err = auth.ParseJWT(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

type fakeQueue struct {
	ids []uint64
	err error
}

func (q *fakeQueue) EnqueueCampaign(_ context.Context, id uint64) error {
	q.ids = append(q.ids, id)
	return q.err
}

type flakyMailer struct {
	fail map[string]bool
}

func (m flakyMailer) Deliver(_ context.Context, _ *models.Email, to *models.Recipient) error {
	if m.fail[to.Address] {
		return errors.New("mailbox full")
	}
	return nil
}

func seedAudience(t *testing.T, db *gorm.DB) *models.Email {
	t.Helper()
	require.NoError(t, db.Create(&[]models.Subscriber{
		{Email: "a@example.com", Status: models.SubscriberStatusSubscribed},
		{Email: "b@example.com", Status: models.SubscriberStatusSubscribed},
		{Email: "gone@example.com", Status: models.SubscriberStatusUnsubscribed},
	}).Error)
	email := &models.Email{Subject: "Summer deals", Body: "Boats!", Status: models.CampaignStatusDraft}
	require.NoError(t, db.Create(email).Error)
	return email
}

func recipientsOf(t *testing.T, db *gorm.DB, emailID uint64) []models.Recipient {
	t.Helper()
	var out []models.Recipient
	require.NoError(t, db.Where("email_id = ?", emailID).Order("id").Find(&out).Error)
	return out
}

func TestCampaignService_SendInline(t *testing.T) {
	db := openTestDB(t)
	email := seedAudience(t, db)
	svc := NewCampaignService(db, WithBus(events.NewEventBus()))
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, email.ID))

	recipients := recipientsOf(t, db, email.ID)
	require.Len(t, recipients, 2)
	for _, r := range recipients {
		assert.Equal(t, models.RecipientStatusSent, r.Status)
		assert.NotNil(t, r.SentAt)
	}

	var saved models.Email
	require.NoError(t, db.First(&saved, email.ID).Error)
	assert.Equal(t, models.CampaignStatusSent, saved.Status)
	assert.NotNil(t, saved.SentAt)

	assert.ErrorIs(t, svc.Send(ctx, email.ID), ErrCampaignNotSendable)
}

func TestCampaignService_SendQueued(t *testing.T) {
	db := openTestDB(t)
	email := seedAudience(t, db)
	q := &fakeQueue{}
	svc := NewCampaignService(db, WithQueue(q), WithBus(events.NewEventBus()))
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, email.ID))
	assert.Equal(t, []uint64{email.ID}, q.ids)

	var saved models.Email
	require.NoError(t, db.First(&saved, email.ID).Error)
	assert.Equal(t, models.CampaignStatusSending, saved.Status)
	for _, r := range recipientsOf(t, db, email.ID) {
		assert.Equal(t, models.RecipientStatusPending, r.Status)
	}

	// the worker side
	require.NoError(t, svc.Deliver(ctx, email.ID))
	require.NoError(t, db.First(&saved, email.ID).Error)
	assert.Equal(t, models.CampaignStatusSent, saved.Status)
}

func TestCampaignService_QueueDownFallsBackInline(t *testing.T) {
	db := openTestDB(t)
	email := seedAudience(t, db)
	svc := NewCampaignService(db, WithQueue(&fakeQueue{err: errors.New("redis down")}), WithBus(events.NewEventBus()))

	require.NoError(t, svc.Send(context.Background(), email.ID))

	var saved models.Email
	require.NoError(t, db.First(&saved, email.ID).Error)
	assert.Equal(t, models.CampaignStatusSent, saved.Status)
}

func TestCampaignService_Failures(t *testing.T) {
	db := openTestDB(t)
	email := seedAudience(t, db)
	svc := NewCampaignService(db,
		WithMailer(flakyMailer{fail: map[string]bool{"a@example.com": true, "b@example.com": true}}),
		WithBus(events.NewEventBus()))

	require.NoError(t, svc.Send(context.Background(), email.ID))

	recipients := recipientsOf(t, db, email.ID)
	require.Len(t, recipients, 2)
	assert.Equal(t, models.RecipientStatusFailed, recipients[0].Status)
	assert.Equal(t, "mailbox full", recipients[0].Error)

	var saved models.Email
	require.NoError(t, db.First(&saved, email.ID).Error)
	assert.Equal(t, models.CampaignStatusFailed, saved.Status)
}

func TestCampaignService_SendDue(t *testing.T) {
	db := openTestDB(t)
	seedAudience(t, db)
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)
	due := &models.Email{Subject: "Due", Body: "x", Status: models.CampaignStatusScheduled, ScheduledAt: &past}
	later := &models.Email{Subject: "Later", Body: "x", Status: models.CampaignStatusScheduled, ScheduledAt: &future}
	require.NoError(t, db.Create(due).Error)
	require.NoError(t, db.Create(later).Error)

	svc := NewCampaignService(db, WithBus(events.NewEventBus()))
	n, err := svc.SendDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var saved models.Email
	require.NoError(t, db.First(&saved, due.ID).Error)
	assert.Equal(t, models.CampaignStatusSent, saved.Status)
	var savedLater models.Email
	require.NoError(t, db.First(&savedLater, later.ID).Error)
	assert.Equal(t, "Later", savedLater.Subject)
	assert.Equal(t, models.CampaignStatusScheduled, savedLater.Status)
}

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(context.Background(), config.StorageConfig{Provider: "local", BasePath: dir}, "http://localhost:8080/")
	require.NoError(t, err)

	key, err := s.Put(context.Background(), []byte("hello"), "Photo.JPG", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, ".jpg", filepath.Ext(key))

	data, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	url, err := s.GetSignedURL(context.Background(), key, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/storage/"+key, url)

	_, err = NewStorage(context.Background(), config.StorageConfig{Provider: "ftp"}, "")
	assert.Error(t, err)
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "", endpointURL(config.S3Config{}))
	assert.Equal(t, "http://localhost:9000", endpointURL(config.S3Config{Endpoint: "http://localhost:9000"}))
	assert.Equal(t, "https://eu.r2.example.com", endpointURL(config.S3Config{Endpoint: "r2.example.com", Region: "eu"}))
}
