package resources

import (
	"fmt"
	"sort"
	"strings"

	"tourdesk/internal/admin"
	"tourdesk/internal/client"
	"tourdesk/internal/dispatch"
	"tourdesk/internal/models"
	"tourdesk/internal/table"
)

// Options tune the catalogue for one console session
type Options struct {
	PageSize int
	Deps     admin.Deps
}

// Builder creates one screen against an API client
type Builder func(c *client.Client, opts Options) admin.Screen

type entry struct {
	name  string
	build Builder
}

var catalogue = []entry{
	{"boats", func(c *client.Client, o Options) admin.Screen { return build(c, o, Boats()) }},
	{"hotels", func(c *client.Client, o Options) admin.Screen { return build(c, o, Hotels()) }},
	{"customers", func(c *client.Client, o Options) admin.Screen { return build(c, o, Customers()) }},
	{"faqs", func(c *client.Client, o Options) admin.Screen { return build(c, o, FAQs()) }},
	{"testimonials", func(c *client.Client, o Options) admin.Screen { return build(c, o, Testimonials()) }},
	{"emails", func(c *client.Client, o Options) admin.Screen { return build(c, o, Emails()) }},
	{"subscribers", func(c *client.Client, o Options) admin.Screen { return build(c, o, Subscribers()) }},
	{"recipients", func(c *client.Client, o Options) admin.Screen { return build(c, o, Recipients()) }},
	{"users", func(c *client.Client, o Options) admin.Screen { return build(c, o, Users()) }},
	{"roles", func(c *client.Client, o Options) admin.Screen { return build(c, o, Roles()) }},
}

func build[T any, D any](c *client.Client, o Options, def admin.Definition[T, D]) admin.Screen {
	if o.PageSize > 0 {
		def.PageSize = o.PageSize
	}
	return admin.New(def, client.NewResource[T](c, def.Path), o.Deps)
}

// Names lists every resource in menu order
func Names() []string {
	out := make([]string, 0, len(catalogue))
	for _, e := range catalogue {
		out = append(out, e.name)
	}
	return out
}

// Open builds the screen for a resource name
func Open(name string, c *client.Client, opts Options) (admin.Screen, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range catalogue {
		if e.name == name {
			return e.build(c, opts), nil
		}
	}
	return nil, fmt.Errorf("unknown resource %q (have: %s)", name, strings.Join(Names(), ", "))
}

func idOf[T models.Record](item T) uint64 {
	return item.GetID()
}

func idColumn[T models.Record]() table.Column[T] {
	return table.Column[T]{ID: "id", Header: "ID", Value: func(item T) any { return item.GetID() }, Sortable: true}
}

func Boats() admin.Definition[models.Boat, models.BoatDraft] {
	return admin.Definition[models.Boat, models.BoatDraft]{
		Name:  "boats",
		Title: "Boats",
		Noun:  "Boat",
		Path:  "/boats",
		Columns: []table.Column[models.Boat]{
			idColumn[models.Boat](),
			{ID: "name", Header: "Name", Value: func(b models.Boat) any { return b.Name }, Sortable: true},
			{ID: "type", Header: "Type", Value: func(b models.Boat) any { return string(b.Type) }, Sortable: true},
			{ID: "capacity", Header: "Capacity", Value: func(b models.Boat) any { return b.Capacity }, Sortable: true},
			{ID: "price", Header: "Price/day", Value: func(b models.Boat) any { return b.PricePerDay }, Sortable: true},
			{ID: "status", Header: "Status", Value: func(b models.Boat) any { return string(b.Status) }, Sortable: true},
		},
		ID:       idOf[models.Boat],
		Label:    func(b models.Boat) string { return b.Name },
		NewDraft: func() models.BoatDraft { return models.BoatDraft{Status: string(models.BoatStatusAvailable)} },
		ToDraft:  models.BoatDraftFrom,
		Detail: func(b models.Boat) []string {
			lines := []string{}
			if b.Description != "" {
				lines = append(lines, b.Description)
			}
			if len(b.Features) > 0 {
				lines = append(lines, "Features: "+strings.Join(b.Features, ", "))
			}
			if b.ImageURL != "" {
				lines = append(lines, "Image: "+b.ImageURL)
			}
			return lines
		},
	}
}

func Hotels() admin.Definition[models.Hotel, models.HotelDraft] {
	return admin.Definition[models.Hotel, models.HotelDraft]{
		Name:  "hotels",
		Title: "Hotels",
		Noun:  "Hotel",
		Path:  "/hotels",
		Columns: []table.Column[models.Hotel]{
			idColumn[models.Hotel](),
			{ID: "name", Header: "Name", Value: func(h models.Hotel) any { return h.Name }, Sortable: true},
			{ID: "location", Header: "Location", Value: func(h models.Hotel) any { return h.Location }, Sortable: true},
			{ID: "stars", Header: "Stars", Value: func(h models.Hotel) any { return h.Stars }, Sortable: true,
				Format: func(h models.Hotel) string { return strings.Repeat("*", h.Stars) }},
			{ID: "price", Header: "Price/night", Value: func(h models.Hotel) any { return h.PricePerNight }, Sortable: true},
			{ID: "email", Header: "Email", Value: func(h models.Hotel) any { return h.Email }},
		},
		ID:       idOf[models.Hotel],
		Label:    func(h models.Hotel) string { return h.Name },
		NewDraft: func() models.HotelDraft { return models.HotelDraft{} },
		ToDraft:  models.HotelDraftFrom,
		Detail: func(h models.Hotel) []string {
			lines := []string{}
			if len(h.Amenities) > 0 {
				lines = append(lines, "Amenities: "+strings.Join(h.Amenities, ", "))
			}
			if h.Phone != "" {
				lines = append(lines, "Phone: "+h.Phone)
			}
			if h.Website != "" {
				lines = append(lines, "Web: "+h.Website)
			}
			return lines
		},
	}
}

func Customers() admin.Definition[models.Customer, models.CustomerDraft] {
	return admin.Definition[models.Customer, models.CustomerDraft]{
		Name:  "customers",
		Title: "Customers",
		Noun:  "Customer",
		Path:  "/customers",
		Columns: []table.Column[models.Customer]{
			idColumn[models.Customer](),
			{ID: "name", Header: "Name", Value: func(c models.Customer) any { return c.FullName() }, Sortable: true},
			{ID: "email", Header: "Email", Value: func(c models.Customer) any { return c.Email }, Sortable: true},
			{ID: "country", Header: "Country", Value: func(c models.Customer) any { return c.Country }, Sortable: true},
			{ID: "bookings", Header: "Bookings", Value: func(c models.Customer) any { return len(c.Bookings) }, Sortable: true},
		},
		ID:       idOf[models.Customer],
		Label:    func(c models.Customer) string { return c.FullName() },
		NewDraft: func() models.CustomerDraft { return models.CustomerDraft{} },
		ToDraft:  models.CustomerDraftFrom,
		Detail:   bookingLines,
	}
}

// bookingLines renders a customer's nested bookings, newest trip first
func bookingLines(c models.Customer) []string {
	if len(c.Bookings) == 0 {
		return []string{"No bookings"}
	}
	bookings := append([]models.Booking(nil), c.Bookings...)
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].TravelDate.After(bookings[j].TravelDate)
	})
	lines := make([]string, 0, len(bookings))
	for _, b := range bookings {
		lines = append(lines, fmt.Sprintf("#%d %s  %s  %d guest(s)  %s  %s",
			b.ID, b.TravelDate.Format("2006-01-02"), b.TripName, b.Guests,
			table.FormatValue(b.Amount), b.Status))
	}
	return lines
}

func FAQs() admin.Definition[models.FAQ, models.FAQDraft] {
	return admin.Definition[models.FAQ, models.FAQDraft]{
		Name:  "faqs",
		Title: "FAQs",
		Noun:  "FAQ",
		Path:  "/faqs",
		Columns: []table.Column[models.FAQ]{
			idColumn[models.FAQ](),
			{ID: "position", Header: "#", Value: func(f models.FAQ) any { return f.Position }, Sortable: true},
			{ID: "question", Header: "Question", Value: func(f models.FAQ) any { return f.Question }, Sortable: true},
			{ID: "category", Header: "Category", Value: func(f models.FAQ) any { return f.Category }, Sortable: true},
			{ID: "published", Header: "Published", Value: func(f models.FAQ) any { return f.Published }, Sortable: true},
		},
		ID:       idOf[models.FAQ],
		Label:    func(f models.FAQ) string { return f.Question },
		NewDraft: func() models.FAQDraft { return models.FAQDraft{} },
		ToDraft:  models.FAQDraftFrom,
		Detail:   func(f models.FAQ) []string { return []string{f.Answer} },
	}
}

func Testimonials() admin.Definition[models.Testimonial, models.TestimonialDraft] {
	return admin.Definition[models.Testimonial, models.TestimonialDraft]{
		Name:  "testimonials",
		Title: "Testimonials",
		Noun:  "Testimonial",
		Path:  "/testimonials",
		Columns: []table.Column[models.Testimonial]{
			idColumn[models.Testimonial](),
			{ID: "author", Header: "Author", Value: func(t models.Testimonial) any { return t.Author }, Sortable: true},
			{ID: "rating", Header: "Rating", Value: func(t models.Testimonial) any { return t.Rating }, Sortable: true},
			{ID: "location", Header: "Location", Value: func(t models.Testimonial) any { return t.Location }},
			{ID: "published", Header: "Published", Value: func(t models.Testimonial) any { return t.Published }, Sortable: true},
		},
		ID:       idOf[models.Testimonial],
		Label:    func(t models.Testimonial) string { return t.Author },
		NewDraft: func() models.TestimonialDraft { return models.TestimonialDraft{Rating: 5} },
		ToDraft:  models.TestimonialDraftFrom,
		Detail:   func(t models.Testimonial) []string { return []string{t.Content} },
	}
}

func Emails() admin.Definition[models.Email, models.EmailDraft] {
	return admin.Definition[models.Email, models.EmailDraft]{
		Name:  "emails",
		Title: "Email campaigns",
		Noun:  "Campaign",
		Path:  "/emails",
		Columns: []table.Column[models.Email]{
			idColumn[models.Email](),
			{ID: "subject", Header: "Subject", Value: func(e models.Email) any { return e.Subject }, Sortable: true},
			{ID: "status", Header: "Status", Value: func(e models.Email) any { return string(e.Status) }, Sortable: true},
			{ID: "scheduled", Header: "Scheduled", Value: func(e models.Email) any { return e.ScheduledAt }, Sortable: true},
			{ID: "sent", Header: "Sent", Value: func(e models.Email) any { return e.SentAt }, Sortable: true},
		},
		ID:       idOf[models.Email],
		Label:    func(e models.Email) string { return e.Subject },
		NewDraft: func() models.EmailDraft { return models.EmailDraft{Status: string(models.CampaignStatusDraft)} },
		ToDraft:  models.EmailDraftFrom,
		Detail: func(e models.Email) []string {
			lines := []string{e.Body}
			if n := len(e.Recipients); n > 0 {
				lines = append(lines, fmt.Sprintf("%d recipient(s)", n))
			}
			return lines
		},
		Actions: []dispatch.Action{
			{Name: "send", Label: "Send", Confirm: "Send this campaign to every subscriber now?"},
		},
	}
}

func Subscribers() admin.Definition[models.Subscriber, models.SubscriberDraft] {
	return admin.Definition[models.Subscriber, models.SubscriberDraft]{
		Name:  "subscribers",
		Title: "Subscribers",
		Noun:  "Subscriber",
		Path:  "/subscribers",
		Columns: []table.Column[models.Subscriber]{
			idColumn[models.Subscriber](),
			{ID: "email", Header: "Email", Value: func(s models.Subscriber) any { return s.Email }, Sortable: true},
			{ID: "name", Header: "Name", Value: func(s models.Subscriber) any { return s.Name }, Sortable: true},
			{ID: "status", Header: "Status", Value: func(s models.Subscriber) any { return string(s.Status) }, Sortable: true},
			{ID: "created", Header: "Joined", Value: func(s models.Subscriber) any { return s.CreatedAt }, Sortable: true},
		},
		ID:           idOf[models.Subscriber],
		Label:        func(s models.Subscriber) string { return s.Email },
		NewDraft:     func() models.SubscriberDraft { return models.SubscriberDraft{Status: string(models.SubscriberStatusSubscribed)} },
		ToDraft:      models.SubscriberDraftFrom,
		ServerPaging: true,
	}
}

func Recipients() admin.Definition[models.Recipient, models.RecipientDraft] {
	return admin.Definition[models.Recipient, models.RecipientDraft]{
		Name:  "recipients",
		Title: "Recipients",
		Noun:  "Recipient",
		Path:  "/recipients",
		Columns: []table.Column[models.Recipient]{
			idColumn[models.Recipient](),
			{ID: "email_id", Header: "Campaign", Value: func(r models.Recipient) any { return r.EmailID }, Sortable: true},
			{ID: "address", Header: "Address", Value: func(r models.Recipient) any { return r.Address }, Sortable: true},
			{ID: "status", Header: "Status", Value: func(r models.Recipient) any { return string(r.Status) }, Sortable: true},
			{ID: "sent", Header: "Sent", Value: func(r models.Recipient) any { return r.SentAt }, Sortable: true},
		},
		ID:       idOf[models.Recipient],
		Label:    func(r models.Recipient) string { return r.Address },
		NewDraft: func() models.RecipientDraft { return models.RecipientDraft{Status: string(models.RecipientStatusPending)} },
		ToDraft:  models.RecipientDraftFrom,
		Detail: func(r models.Recipient) []string {
			if r.Error == "" {
				return nil
			}
			return []string{"Error: " + r.Error}
		},
		ServerPaging: true,
	}
}

func Users() admin.Definition[models.User, models.UserDraft] {
	return admin.Definition[models.User, models.UserDraft]{
		Name:  "users",
		Title: "Users",
		Noun:  "User",
		Path:  "/users",
		Columns: []table.Column[models.User]{
			idColumn[models.User](),
			{ID: "name", Header: "Name", Value: func(u models.User) any { return u.Name }, Sortable: true},
			{ID: "email", Header: "Email", Value: func(u models.User) any { return u.Email }, Sortable: true},
			{ID: "role", Header: "Role", Value: func(u models.User) any { return string(u.Role) }, Sortable: true},
			{ID: "last_login", Header: "Last login", Value: func(u models.User) any { return u.LastLoginAt }, Sortable: true},
		},
		ID:       idOf[models.User],
		Label:    func(u models.User) string { return u.Email },
		NewDraft: func() models.UserDraft { return models.UserDraft{Role: string(models.UserRoleViewer)} },
		ToDraft:  models.UserDraftFrom,
	}
}

func Roles() admin.Definition[models.Role, models.RoleDraft] {
	return admin.Definition[models.Role, models.RoleDraft]{
		Name:  "roles",
		Title: "Roles",
		Noun:  "Role",
		Path:  "/roles",
		Columns: []table.Column[models.Role]{
			idColumn[models.Role](),
			{ID: "name", Header: "Name", Value: func(r models.Role) any { return r.Name }, Sortable: true},
			{ID: "description", Header: "Description", Value: func(r models.Role) any { return r.Description }},
			{ID: "permissions", Header: "Permissions", Value: func(r models.Role) any { return len(r.Permissions) }, Sortable: true},
		},
		ID:       idOf[models.Role],
		Label:    func(r models.Role) string { return r.Name },
		NewDraft: func() models.RoleDraft { return models.RoleDraft{} },
		ToDraft:  models.RoleDraftFrom,
		Detail: func(r models.Role) []string {
			return []string{strings.Join(r.Permissions, ", ")}
		},
	}
}
