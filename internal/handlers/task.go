package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studytrack-backend/internal/requestdata"
	"github.com/yungbote/studytrack-backend/internal/services"
)

type TaskHandler struct {
	taskService services.TaskService
	tracker     services.HabitTrackerService
}

func NewTaskHandler(taskService services.TaskService, tracker services.HabitTrackerService) *TaskHandler {
	return &TaskHandler{taskService: taskService, tracker: tracker}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing authentication"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func (th *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input services.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("invalid request body"))
		return
	}
	task, err := th.taskService.CreateTask(c.Request.Context(), userID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (th *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tasks, err := th.taskService.GetUserTasks(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tasks": tasks})
}

func (th *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input services.UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("invalid request body"))
		return
	}
	task, err := th.taskService.UpdateTask(c.Request.Context(), userID, taskID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, task)
}

func (th *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := th.taskService.DeleteTask(c.Request.Context(), userID, taskID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (th *TaskHandler) Delay(c *gin.Context) {
	th.setback(c, false)
}

func (th *TaskHandler) Skip(c *gin.Context) {
	th.setback(c, true)
}

func (th *TaskHandler) setback(c *gin.Context, skipped bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional; a bare POST records the setback without a reason.
	_ = c.ShouldBindJSON(&req)

	var err error
	if skipped {
		err = th.taskService.SkipTask(c.Request.Context(), userID, taskID, req.Reason)
	} else {
		err = th.taskService.DelayTask(c.Request.Context(), userID, taskID, req.Reason)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (th *TaskHandler) SuggestionFeedback(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	suggestionID := c.Param("id")
	if suggestionID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("missing suggestion id"))
		return
	}
	var req struct {
		Accepted   bool           `json:"accepted"`
		Suggestion map[string]any `json:"suggestion"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("invalid request body"))
		return
	}
	if err := th.tracker.RecordSuggestionFeedback(c.Request.Context(), userID, suggestionID, req.Accepted, req.Suggestion); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
