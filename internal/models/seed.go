package models

import (
	"fmt"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	console "tourdesk/internal/utils/logger"
)

var log = console.New("SEEDER")

var defaultRoles = []Role{
	{Name: string(UserRoleAdmin), Description: "Full access", Permissions: datatypes.NewJSONSlice(RolePermissions[UserRoleAdmin])},
	{Name: string(UserRoleEditor), Description: "Manages content and customers", Permissions: datatypes.NewJSONSlice(RolePermissions[UserRoleEditor])},
	{Name: string(UserRoleViewer), Description: "Read only", Permissions: datatypes.NewJSONSlice(RolePermissions[UserRoleViewer])},
}

// SeedRoles creates the built-in roles if they are missing
func SeedRoles(db *gorm.DB) error {
	for _, role := range defaultRoles {
		r := role
		if err := db.Where(Role{Name: r.Name}).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("failed to create role %s: %v", r.Name, err)
		}
	}
	return nil
}

// CreateAdminFromEnv creates the first admin user from SANDBOX_ADMIN_* variables
func CreateAdminFromEnv(db *gorm.DB) (*User, error) {
	var count int64
	db.Model(&User{}).Where("role = ?", UserRoleAdmin).Count(&count)
	if count > 0 {
		return nil, nil
	}

	email := envOr("SANDBOX_ADMIN_EMAIL", "admin@tourdesk.local")
	password := envOr("SANDBOX_ADMIN_PASSWORD", "changeme123")
	name := envOr("SANDBOX_ADMIN_NAME", "Administrator")

	user := &User{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     UserRoleAdmin,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin user: %v", err)
	}
	log.Success("Created admin user %s", email)
	return user, nil
}

// SeedSampleData fills empty tables with a handful of records so the console
// has something to show against a fresh sandbox.
func SeedSampleData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Boat{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	travel := time.Now().AddDate(0, 1, 0).Truncate(24 * time.Hour)

	return db.Transaction(func(tx *gorm.DB) error {
		boats := []Boat{
			{Name: "Blue Lagoon", Type: BoatTypeCatamaran, Capacity: 24, PricePerDay: 1450, Status: BoatStatusAvailable,
				Features: datatypes.NewJSONSlice([]string{"snorkel gear", "sun deck"})},
			{Name: "Sea Breeze", Type: BoatTypeYacht, Capacity: 12, PricePerDay: 2900, Status: BoatStatusAvailable},
			{Name: "Old Faithful", Type: BoatTypeFerry, Capacity: 120, PricePerDay: 800, Status: BoatStatusMaintenance},
		}
		hotels := []Hotel{
			{Name: "Harbour View", Location: "Split", Stars: 4, PricePerNight: 140, Email: "desk@harbourview.example",
				Amenities: datatypes.NewJSONSlice([]string{"pool", "breakfast"})},
			{Name: "Olive Grove Inn", Location: "Hvar", Stars: 3, PricePerNight: 95},
		}
		customers := []Customer{
			{FirstName: "Ana", LastName: "Kovac", Email: "ana@example.com", Country: "HR", Bookings: []Booking{
				{TripName: "Island hopping", TravelDate: travel, Guests: 2, Status: BookingStatusConfirmed, Amount: 980},
			}},
			{FirstName: "Tom", LastName: "Berg", Email: "tom@example.com", Country: "SE"},
		}
		faqs := []FAQ{
			{Question: "Can I cancel a booking?", Answer: "Yes, up to 14 days before departure.", Category: "bookings", Position: 1, Published: true},
			{Question: "Are pets allowed on board?", Answer: "Only on private charters.", Category: "boats", Position: 2, Published: true},
		}
		testimonials := []Testimonial{
			{Author: "Maria L.", Content: "Best week of our summer, the crew was wonderful.", Rating: 5, Location: "Milan", Published: true},
		}
		subscribers := []Subscriber{
			{Email: "news@example.com", Name: "Newsletter Fan", Status: SubscriberStatusSubscribed, Source: "website"},
		}

		for _, batch := range []interface{}{&boats, &hotels, &customers, &faqs, &testimonials, &subscribers} {
			if err := tx.Create(batch).Error; err != nil {
				return err
			}
		}
		log.Success("Seeded sample data")
		return nil
	})
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
