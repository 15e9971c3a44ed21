package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitkeeper/internal/apperror"
	"habitkeeper/internal/model"
	"habitkeeper/internal/ordering"
	"habitkeeper/internal/stats"
	"habitkeeper/internal/store"
	"habitkeeper/pkg/logger"
)

// recentDays is the length of the strip shown on the detail view.
const recentDays = 7

type HabitHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewHabitHandler(s *store.Store, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{store: s, logger: logger}
}

// habitView is a habit plus the presentation fields list views need.
type habitView struct {
	model.Habit
	UrgencyLabel   string `json:"urgencyLabel"`
	CompletedToday bool   `json:"completedToday"`
}

func (h *HabitHandler) view(habit model.Habit, today string) habitView {
	return habitView{
		Habit:          habit,
		UrgencyLabel:   model.UrgencyLabel(habit.Urgency),
		CompletedToday: ordering.CompletedOn(habit, today),
	}
}

type toggleRequest struct {
	Date string `json:"date"`
}

func (h *HabitHandler) ListHabits(c *gin.Context) {
	cal := h.store.Calendar()
	habits := h.store.List()

	if active, _ := strconv.ParseBool(c.Query("active")); active {
		habits = ordering.ActiveInLastWeek(habits, cal.Current())
	}

	today := cal.Today()
	views := make([]habitView, 0, len(habits))
	for _, habit := range habits {
		views = append(views, h.view(habit, today))
	}
	c.JSON(http.StatusOK, gin.H{"habits": views})
}

func (h *HabitHandler) CreateHabit(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var form model.HabitForm
	if err := c.ShouldBindJSON(&form); err != nil {
		log.Warn("CreateHabit: invalid body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	habit, err := h.store.Create(c.Request.Context(), form)
	if err != nil && !apperror.IsStorage(err) {
		h.writeError(c, err)
		return
	}

	body := gin.H{"habit": h.view(habit, h.store.Calendar().Today())}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(http.StatusCreated, body)
}

func (h *HabitHandler) GetHabit(c *gin.Context) {
	habit, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	today := h.store.Calendar().Today()
	recent, err := ordering.RecentDays(habit, today, recentDays)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"habit":  h.view(habit, today),
		"recent": recent,
	})
}

func (h *HabitHandler) ToggleCompletion(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)
	id := c.Param("id")

	// an empty body, chunked or not, means today
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("ToggleCompletion: invalid body", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var (
		habit model.Habit
		err   error
	)
	if req.Date == "" {
		habit, err = h.store.ToggleCompletionOn(c.Request.Context(), id, h.store.Calendar().Current())
	} else {
		habit, err = h.store.ToggleCompletion(c.Request.Context(), id, req.Date)
	}
	if err != nil && !apperror.IsStorage(err) {
		h.writeError(c, err)
		return
	}

	body := gin.H{"habit": h.view(habit, h.store.Calendar().Today())}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (h *HabitHandler) DeleteHabit(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		// the habit is gone from memory either way
		logger.WithTrace(c.Request.Context(), h.logger).Warn("DeleteHabit: not persisted", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

func (h *HabitHandler) HabitStats(c *gin.Context) {
	habit, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats.ForHabit(habit, h.store.Calendar().Current()))
}

func (h *HabitHandler) OverallStats(c *gin.Context) {
	c.JSON(http.StatusOK, stats.Overall(h.store.Snapshot(), h.store.Calendar().Current()))
}

func (h *HabitHandler) writeError(c *gin.Context, err error) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var appErr *apperror.Error
	msg := err.Error()
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}

	switch {
	case apperror.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	case apperror.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	default:
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
