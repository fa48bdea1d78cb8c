package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushihost/backend/internal/middleware"
	"github.com/sushihost/backend/internal/service"
)

// EventMenuHandler exposes the shareable event-menu CRUD. Reads and
// mutations by public token require no session: the token itself is the
// capability.
type EventMenuHandler struct {
	menus *service.EventMenuService
}

func NewEventMenuHandler(menus *service.EventMenuService) *EventMenuHandler {
	return &EventMenuHandler{menus: menus}
}

func (h *EventMenuHandler) Create(c *gin.Context) {
	var input service.CreateEventMenuInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var createdBy *int
	if user := middleware.CurrentUser(c); user != nil {
		createdBy = &user.ID
	}

	menu, err := h.menus.Create(c.Request.Context(), input, createdBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, menu)
}

func (h *EventMenuHandler) Get(c *gin.Context) {
	menu, err := h.menus.GetByToken(c.Request.Context(), c.Param("unique_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

func (h *EventMenuHandler) Update(c *gin.Context) {
	var input service.UpdateEventMenuInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	menu, err := h.menus.Update(c.Request.Context(), c.Param("unique_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

func (h *EventMenuHandler) Delete(c *gin.Context) {
	if err := h.menus.Delete(c.Request.Context(), c.Param("unique_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event menu deleted"})
}

// List returns the caller's menus. Unauthenticated callers get an empty
// list rather than an error.
func (h *EventMenuHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	mineOnly := c.Query("mine") == "true"

	menus, err := h.menus.List(c.Request.Context(), user, mineOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menus)
}
