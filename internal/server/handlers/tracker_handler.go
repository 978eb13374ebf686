package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caloriebalance/tracker/internal/domain/models"
	"github.com/caloriebalance/tracker/internal/metrics"
	"github.com/caloriebalance/tracker/internal/service/tracker"
	"github.com/caloriebalance/tracker/pkg/clients/nutritionix"
)

// UserIDHeader carries the authenticated user id set by the fronting gateway.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// TrackerService is the tracker functionality exposed over HTTP.
type TrackerService interface {
	Today() time.Time
	Profile(ctx context.Context, userID string) (models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (models.Profile, error)
	AddMeals(ctx context.Context, userID string, foods []models.FoodItem, day time.Time) ([]models.Meal, error)
	AddActivity(ctx context.Context, userID string, req models.AddActivityRequest, day time.Time) (models.Activity, error)
	MealsForDay(ctx context.Context, userID string, day time.Time) ([]models.Meal, error)
	DailySummary(ctx context.Context, userID string, day time.Time) (tracker.DailySummary, error)
	RangeSummary(ctx context.Context, userID string, start, end time.Time) (metrics.RangeMetrics, error)
	BodyMetrics(ctx context.Context, userID string) (tracker.BodyMetrics, error)
}

// NutritionLookup parses free-text meals.
type NutritionLookup interface {
	Lookup(ctx context.Context, query string) ([]models.FoodItem, error)
}

// TrackerHandler serves the calorie tracking API.
type TrackerHandler struct {
	svc       TrackerService
	nutrition NutritionLookup
	logger    *zap.Logger
}

// NewTrackerHandler constructs the HTTP handler adapter.
func NewTrackerHandler(svc TrackerService, nutrition NutritionLookup, logger *zap.Logger) *TrackerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackerHandler{svc: svc, nutrition: nutrition, logger: logger}
}

// RequireUser rejects requests that carry no user id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// LookupMeal resolves a free-text meal description without storing anything.
func (h *TrackerHandler) LookupMeal(c *gin.Context) {
	var req models.NutritionLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	foods, err := h.nutrition.Lookup(c.Request.Context(), req.Meal)
	if err != nil {
		h.fail(c, "nutrition lookup failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"foods": foods})
}

// AddMeal stores the submitted food items.
func (h *TrackerHandler) AddMeal(c *gin.Context) {
	var req models.AddMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	day, err := models.ParseDay(req.Date, h.svc.Today())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meals, err := h.svc.AddMeals(c.Request.Context(), c.GetString(userIDKey), req.Foods, day)
	if err != nil {
		h.fail(c, "add meal failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"meals": meals})
}

// AddActivity stores an exercise session.
func (h *TrackerHandler) AddActivity(c *gin.Context) {
	var req models.AddActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	day, err := models.ParseDay(req.Date, h.svc.Today())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	activity, err := h.svc.AddActivity(c.Request.Context(), c.GetString(userIDKey), req, day)
	if err != nil {
		h.fail(c, "add activity failed", err)
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// GetProfile returns the caller's profile.
func (h *TrackerHandler) GetProfile(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.fail(c, "load profile failed", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies a partial profile update.
func (h *TrackerHandler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), c.GetString(userIDKey), update)
	if err != nil {
		h.fail(c, "update profile failed", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// DailySummary returns the balance of ?date= (default today).
func (h *TrackerHandler) DailySummary(c *gin.Context) {
	day, err := models.ParseDay(c.Query("date"), h.svc.Today())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.svc.DailySummary(c.Request.Context(), c.GetString(userIDKey), day)
	if err != nil {
		h.fail(c, "daily summary failed", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RangeSummary returns per-day balances for ?start=&end=, defaulting to the
// current week up to today.
func (h *TrackerHandler) RangeSummary(c *gin.Context) {
	today := h.svc.Today()

	start, err := models.ParseDay(c.Query("start"), tracker.WeekStart(today))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end, err := models.ParseDay(c.Query("end"), today)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rm, err := h.svc.RangeSummary(c.Request.Context(), c.GetString(userIDKey), start, end)
	if err != nil {
		h.fail(c, "range summary failed", err)
		return
	}
	c.JSON(http.StatusOK, rm)
}

// MealsToday lists the meals logged today.
func (h *TrackerHandler) MealsToday(c *gin.Context) {
	meals, err := h.svc.MealsForDay(c.Request.Context(), c.GetString(userIDKey), h.svc.Today())
	if err != nil {
		h.fail(c, "list meals failed", err)
		return
	}
	if meals == nil {
		meals = []models.Meal{}
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// BodyMetrics returns age, BMI and BMR derived from the profile.
func (h *TrackerHandler) BodyMetrics(c *gin.Context) {
	body, err := h.svc.BodyMetrics(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.fail(c, "body metrics failed", err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *TrackerHandler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("user", c.GetString(userIDKey)))
	} else {
		h.logger.Debug(msg, zap.Error(err))
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, nutritionix.ErrEmptyQuery),
		errors.Is(err, models.ErrInvalidProfile),
		errors.Is(err, tracker.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, nutritionix.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
