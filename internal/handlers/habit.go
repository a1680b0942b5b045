package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studytrack-backend/internal/services"
)

type HabitHandler struct {
	habitQuery      services.HabitQueryService
	personalization services.PersonalizationService
}

func NewHabitHandler(habitQuery services.HabitQueryService, personalization services.PersonalizationService) *HabitHandler {
	return &HabitHandler{habitQuery: habitQuery, personalization: personalization}
}

func queryLimit(c *gin.Context, def int) int {
	raw := c.Query("n")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (hh *HabitHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	records := hh.habitQuery.GetHabits(c.Request.Context(), userID)
	RespondOK(c, gin.H{"habits": records})
}

func (hh *HabitHandler) TopHours(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	hours := hh.habitQuery.GetTopHours(c.Request.Context(), userID, queryLimit(c, 3))
	RespondOK(c, gin.H{"top_hours": hours})
}

func (hh *HabitHandler) TopCategories(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	categories := hh.habitQuery.GetTopCategories(c.Request.Context(), userID, queryLimit(c, 3))
	RespondOK(c, gin.H{"top_categories": categories})
}

func (hh *HabitHandler) SuggestionAccuracy(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	accuracy := hh.habitQuery.GetSuggestionAccuracy(c.Request.Context(), userID)
	RespondOK(c, accuracy)
}

func (hh *HabitHandler) PersonalizationContext(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile := hh.personalization.BuildForUser(c.Request.Context(), userID)
	RespondOK(c, gin.H{"context": profile})
}
