package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studytrack-backend/internal/services"
)

type InsightsHandler struct {
	insights services.InsightsService
}

func NewInsightsHandler(insights services.InsightsService) *InsightsHandler {
	return &InsightsHandler{insights: insights}
}

func (ih *InsightsHandler) SuggestTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	suggestions, err := ih.insights.SuggestTasks(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"suggestions": suggestions})
}

func (ih *InsightsHandler) PredictDeadline(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var draft services.TaskDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("invalid request body"))
		return
	}
	prediction, err := ih.insights.PredictDeadline(c.Request.Context(), userID, draft)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, prediction)
}

func (ih *InsightsHandler) OptimizeSchedule(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	schedule, err := ih.insights.OptimizeSchedule(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, schedule)
}

type chatRequest struct {
	Message string                 `json:"message"`
	History []services.ChatMessage `json:"history"`
}

func (ih *InsightsHandler) Chat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("invalid request body"))
		return
	}
	reply, err := ih.insights.Chat(c.Request.Context(), userID, req.Message, req.History)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"response": reply})
}

func (ih *InsightsHandler) LearningSummary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	summary, err := ih.insights.LearningSummary(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}
