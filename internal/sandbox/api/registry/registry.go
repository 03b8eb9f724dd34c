package registry

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"tourdesk/internal/events"
	"tourdesk/internal/models"
	"tourdesk/internal/sandbox/api/controllers"
	"tourdesk/internal/sandbox/api/middleware"
	"tourdesk/internal/sandbox/services"
)

func register[T any, D controllers.Draft[T]](g *echo.Group, db *gorm.DB, bus *events.EventBus, path, noun string, toDraft func(T) D, opts ...controllers.Option[T, D]) {
	service := services.NewBaseService[T](db, bus)
	controller := controllers.NewBaseController(service, noun, toDraft, opts...)
	controller.RegisterRoutes(g.Group("/"+path), middleware.RequirePermissions(path))
}

// RegisterCRUDRoutes registers CRUD routes for every console resource - godoc
// @Summary Register CRUD routes for all models
// @Description Every resource answers GET /{resource}, GET /{resource}/{id}, POST, PUT and DELETE.
// @Description Lists are wrapped as {data, total} and paged when ?page= is given.
// @Accept json
// @Produce json
// @Security BearerAuth
func RegisterCRUDRoutes(g *echo.Group, db *gorm.DB, bus *events.EventBus) {
	// @Summary List boats
	// @Success 200 {object} controllers.Envelope{data=[]models.Boat}
	// @Failure 401 {object} map[string]string "Unauthorized"
	// @Failure 403 {object} map[string]string "Forbidden"
	// @Router /api/boats [get]
	register(g, db, bus, "boats", "Boat", models.BoatDraftFrom)
	register(g, db, bus, "hotels", "Hotel", models.HotelDraftFrom)
	// @Summary Get customer with bookings
	// @Param id path int true "Customer ID"
	// @Success 200 {object} controllers.Envelope{data=models.Customer}
	// @Failure 404 {object} map[string]string "Not found"
	// @Router /api/customers/{id} [get]
	register(g, db, bus, "customers", "Customer", models.CustomerDraftFrom,
		controllers.WithIncludes[models.Customer, models.CustomerDraft]("Bookings"))
	register(g, db, bus, "faqs", "FAQ", models.FAQDraftFrom)
	register(g, db, bus, "testimonials", "Testimonial", models.TestimonialDraftFrom)
	// @Summary Create campaign
	// @Param email body models.EmailDraft true "Campaign"
	// @Success 201 {object} controllers.Envelope{data=models.Email}
	// @Failure 422 {object} map[string]interface{} "Validation error"
	// @Router /api/emails [post]
	register(g, db, bus, "emails", "Campaign", models.EmailDraftFrom)
	register(g, db, bus, "subscribers", "Subscriber", models.SubscriberDraftFrom)
	register(g, db, bus, "recipients", "Recipient", models.RecipientDraftFrom)
	register(g, db, bus, "users", "User", models.UserDraftFrom)
	register(g, db, bus, "roles", "Role", models.RoleDraftFrom)
}
