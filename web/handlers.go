package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"rifa/application"
	"rifa/clock"
	"rifa/domain/entities"
	"rifa/domain/interfaces"
	"rifa/domain/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// generationTimeout bounds admin content-generation calls.
const generationTimeout = 60 * time.Second

// Handler holds the dependencies for the HTTP handlers.
type Handler struct {
	ledger        *services.Ledger
	sessions      *application.SessionManager
	draw          *services.DrawService
	generator     interfaces.ContentGenerator
	images        interfaces.ImageGenerator
	clock         clock.Clock
	adminPassword string
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	ledger *services.Ledger,
	sessions *application.SessionManager,
	draw *services.DrawService,
	generator interfaces.ContentGenerator,
	images interfaces.ImageGenerator,
	clk clock.Clock,
	adminPassword string,
) *Handler {
	return &Handler{
		ledger:        ledger,
		sessions:      sessions,
		draw:          draw,
		generator:     generator,
		images:        images,
		clock:         clk,
		adminPassword: adminPassword,
	}
}

// RegisterRoutes registers all the application routes.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	api := router.Group("/api")
	{
		api.GET("/raffle", h.GetRaffle)
		api.GET("/search", h.Search)
		api.POST("/reservations", h.CreateReservation)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.CancelSession)
		api.POST("/sessions/:id/purchase", h.Purchase)
		api.GET("/sessions/:id/history", h.GetHistory)
	}

	admin := router.Group("/api/admin", AdminAuth(h.adminPassword))
	{
		admin.POST("/draw", h.RunDraw)
		admin.DELETE("/winner", h.DismissWinner)
		admin.PUT("/settings", h.UpdateSettings)
		admin.POST("/description", h.RegenerateDescription)
		admin.POST("/image", h.RegenerateImage)
	}
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetRaffle returns the dashboard summary, prize info and one grid page.
func (h *Handler) GetRaffle(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}

	admin := isAdmin(c, h.adminPassword)
	response := gin.H{
		"summary": h.ledger.Summarize(),
		"prize":   h.ledger.Prize(),
		"config":  h.ledger.Config(),
		"page":    page,
		"numbers": h.ledger.StatusPage(page, admin),
	}
	if winner := h.ledger.Winner(); winner != nil {
		response["winner"] = winner
	}
	c.JSON(http.StatusOK, response)
}

// Search resolves a query to a bounded set of numbers with their states.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	numbers := h.ledger.Search(query)
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"numbers": h.ledger.Statuses(numbers, isAdmin(c, h.adminPassword)),
	})
}

type reservationRequest struct {
	Number *int64 `json:"number"`
	Page   int    `json:"page"`
	Count  int    `json:"count"`
}

// CreateReservation opens a purchase session for an explicit number or a
// random batch from a grid page.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "invalid_request_body"})
		return
	}

	var (
		session *application.PurchaseSession
		err     error
	)
	if req.Number != nil {
		session, err = h.sessions.SelectNumber(*req.Number)
	} else if req.Count > 0 {
		session, err = h.sessions.SelectRandom(req.Page, req.Count)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "number or count is required", "code": "invalid_request_body"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.sessionResponse(session))
}

// GetSession returns the session state, including the countdown value.
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse(session))
}

// CancelSession releases the session's reservation.
func (h *Handler) CancelSession(c *gin.Context) {
	if err := h.sessions.Cancel(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type purchaseRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Purchase completes identification and commits the session's numbers.
func (h *Handler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "invalid_request_body"})
		return
	}

	session, err := h.sessions.Submit(c.Request.Context(), c.Param("id"), req.Name, req.Phone, req.Email)
	if err != nil {
		if errors.Is(err, entities.ErrLimitExceeded) {
			cfg := h.ledger.Config()
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Limite de bilhetes por telefone excedido.",
				"code":    "limit_exceeded",
				"current": h.ledger.EntryCount(req.Phone),
				"limit":   cfg.MaxEntriesPerPhone,
			})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.sessionResponse(session))
}

// GetHistory returns the local purchase history of a session.
func (h *Handler) GetHistory(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	history := session.History
	if history == nil {
		history = []entities.Purchase{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// RunDraw performs the raffle draw.
func (h *Handler) RunDraw(c *gin.Context) {
	winner, err := h.draw.Draw(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winner": winner})
}

// DismissWinner clears the current winner record.
func (h *Handler) DismissWinner(c *gin.Context) {
	h.ledger.ClearWinner(c.Request.Context())
	c.Status(http.StatusNoContent)
}

type settingsRequest struct {
	PricePerNumber     float64 `json:"price_per_number"`
	MaxPurchaseLimit   int     `json:"max_purchase_limit"`
	MaxEntriesPerPhone int     `json:"max_entries_per_phone"`
	PrizeName          string  `json:"prize_name"`
	Description        string  `json:"description"`
	ImageData          string  `json:"image_data"`
}

// UpdateSettings applies admin configuration changes.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "invalid_request_body"})
		return
	}

	cfg := h.ledger.UpdateConfig(c.Request.Context(), req.PricePerNumber, req.MaxPurchaseLimit, req.MaxEntriesPerPhone)
	prize := h.ledger.UpdatePrize(c.Request.Context(), req.PrizeName, req.Description, req.ImageData)

	c.JSON(http.StatusOK, gin.H{"config": cfg, "prize": prize})
}

type descriptionRequest struct {
	Instruction string `json:"instruction"`
}

// RegenerateDescription asks the content generator for new promotional text,
// falling back to the default copy when the generator is unavailable. The
// result is returned for review, not applied until the admin saves settings.
func (h *Handler) RegenerateDescription(c *gin.Context) {
	var req descriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "invalid_request_body"})
		return
	}

	ctx, cancel := h.generationContext(c)
	defer cancel()

	prizeName := h.ledger.Prize().Name
	description, err := h.generator.GenerateDescription(ctx, prizeName, req.Instruction)
	generated := err == nil && description != ""
	if !generated {
		if err != nil {
			log.WithError(err).Warn("Description generator failed, using fallback")
		}
		description = entities.FallbackDescription
	}

	c.JSON(http.StatusOK, gin.H{"description": description, "generated": generated})
}

// RegenerateImage asks the image generator for a new prize image. A failed
// generation leaves the existing image unchanged.
func (h *Handler) RegenerateImage(c *gin.Context) {
	ctx, cancel := h.generationContext(c)
	defer cancel()

	prize := h.ledger.Prize()
	imageData, err := h.images.GenerateImage(ctx, prize.Name)
	if err != nil || imageData == "" {
		if err != nil {
			log.WithError(err).Warn("Image generator failed, keeping current image")
		}
		c.JSON(http.StatusOK, gin.H{"prize": prize, "generated": false})
		return
	}

	prize = h.ledger.UpdatePrize(c.Request.Context(), "", "", imageData)
	c.JSON(http.StatusOK, gin.H{"prize": prize, "generated": true})
}

func (h *Handler) generationContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), generationTimeout)
}

func (h *Handler) sessionResponse(session *application.PurchaseSession) gin.H {
	return gin.H{
		"id":                session.ID,
		"numbers":           session.Numbers,
		"state":             session.State,
		"expires_at":        session.ExpiresAt,
		"remaining_seconds": session.RemainingSeconds(h.clock.Now()),
		"history":           session.History,
	}
}

// respondError maps domain errors to HTTP responses. Ledger-mutating errors
// are local and recoverable: prior state is unchanged, the user adjusts and
// retries.
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *entities.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Message, "field": ve.Field, "code": "validation_error"})
	case errors.Is(err, entities.ErrAlreadyTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Número indisponível, escolha outro.", "code": "already_taken"})
	case errors.Is(err, entities.ErrInsufficientAvailability):
		c.JSON(http.StatusConflict, gin.H{"error": "Números insuficientes livres nesta página.", "code": "insufficient_availability"})
	case errors.Is(err, entities.ErrLimitExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "Limite de bilhetes excedido.", "code": "limit_exceeded"})
	case errors.Is(err, entities.ErrNoSoldNumbers):
		c.JSON(http.StatusConflict, gin.H{"error": "Nenhum número vendido.", "code": "no_sold_numbers"})
	case errors.Is(err, entities.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Sessão não encontrada.", "code": "session_not_found"})
	case errors.Is(err, entities.ErrSessionNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": "Sessão não está ativa.", "code": "session_not_active"})
	case errors.Is(err, entities.ErrReservationExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Reserva expirada.", "code": "reservation_expired"})
	default:
		log.WithError(err).Error("Unexpected error handling request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal_error"})
	}
}
