package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caloriebalance/tracker/internal/domain/models"
	"github.com/caloriebalance/tracker/internal/metrics"
	repo "github.com/caloriebalance/tracker/internal/repository/mongodb"
)

// MaxRangeDays bounds how many days a single range summary may cover.
const MaxRangeDays = 92

// ErrInvalidRange is returned for inverted or oversized date ranges.
var ErrInvalidRange = errors.New("invalid date range")

// Store is the subset of the repository the tracker needs.
type Store interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	SaveProfile(ctx context.Context, profile models.Profile) error
	InsertMeals(ctx context.Context, meals []models.Meal) error
	InsertActivity(ctx context.Context, activity models.Activity) error
	ListMeals(ctx context.Context, userID string, start, end time.Time) ([]models.Meal, error)
	ListActivities(ctx context.Context, userID string, start, end time.Time) ([]models.Activity, error)
}

// DailySummary is a day's balance plus the records behind it.
type DailySummary struct {
	metrics.DailyMetrics
	Meals      []models.Meal     `json:"meals"`
	Activities []models.Activity `json:"activities"`
}

// BodyMetrics holds the profile-derived figures; nil means unavailable.
type BodyMetrics struct {
	Age *int               `json:"age"`
	BMI *metrics.BMIResult `json:"bmi"`
	BMR *float64           `json:"bmr"`
}

// Service loads records for a user and runs them through the metrics engine.
type Service struct {
	store  Store
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewService wires a tracker service. Calendar days are evaluated in loc.
func NewService(store Store, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:  store,
		loc:    loc,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Today returns the current calendar day in the service location.
func (s *Service) Today() time.Time {
	return metrics.DayOf(s.now().In(s.loc))
}

// Profile returns the user's profile, creating an empty one on first access.
func (s *Service) Profile(ctx context.Context, userID string) (models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return models.Profile{}, fmt.Errorf("load profile: %w", err)
	}

	profile = models.Profile{UserID: userID, UpdatedAt: s.now().UTC()}
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return models.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	s.logger.Info("profile created", zap.String("user", userID))
	return profile, nil
}

// UpdateProfile applies a partial update and stores the result.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (models.Profile, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	if err := update.Apply(&profile, s.now().UTC()); err != nil {
		return models.Profile{}, err
	}

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return models.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// AddMeals stores each food item as a meal eaten on day.
func (s *Service) AddMeals(ctx context.Context, userID string, foods []models.FoodItem, day time.Time) ([]models.Meal, error) {
	now := s.now().UTC()
	meals := make([]models.Meal, 0, len(foods))
	for _, f := range foods {
		meals = append(meals, f.ToMeal(s.newID(), userID, day, now))
	}

	if err := s.store.InsertMeals(ctx, meals); err != nil {
		return nil, fmt.Errorf("store meals: %w", err)
	}

	s.logger.Debug("meals added", zap.String("user", userID), zap.Int("count", len(meals)))
	return meals, nil
}

// AddActivity stores an activity performed on day.
func (s *Service) AddActivity(ctx context.Context, userID string, req models.AddActivityRequest, day time.Time) (models.Activity, error) {
	activity := req.ToActivity(s.newID(), userID, day, s.now().UTC())
	if err := s.store.InsertActivity(ctx, activity); err != nil {
		return models.Activity{}, fmt.Errorf("store activity: %w", err)
	}

	s.logger.Debug("activity added", zap.String("user", userID), zap.String("category", string(activity.Category)))
	return activity, nil
}

// MealsForDay lists the meals logged on day.
func (s *Service) MealsForDay(ctx context.Context, userID string, day time.Time) ([]models.Meal, error) {
	meals, err := s.store.ListMeals(ctx, userID, day, day)
	if err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}
	return meals, nil
}

// DailySummary computes the balance of a single day.
func (s *Service) DailySummary(ctx context.Context, userID string, day time.Time) (DailySummary, error) {
	profile, meals, activities, err := s.load(ctx, userID, day, day)
	if err != nil {
		return DailySummary{}, err
	}

	return DailySummary{
		DailyMetrics: metrics.Daily(profile.Snapshot(), models.Events(meals, activities), day),
		Meals:        nonNil(meals),
		Activities:   nonNil(activities),
	}, nil
}

// RangeSummary computes the per-day balance of [start, end].
func (s *Service) RangeSummary(ctx context.Context, userID string, start, end time.Time) (metrics.RangeMetrics, error) {
	if err := validateRange(start, end); err != nil {
		return metrics.RangeMetrics{}, err
	}

	profile, meals, activities, err := s.load(ctx, userID, start, end)
	if err != nil {
		return metrics.RangeMetrics{}, err
	}

	return metrics.Range(profile.Snapshot(), models.Events(meals, activities), start, end), nil
}

// BodyMetrics computes age, BMI and BMR for today.
func (s *Service) BodyMetrics(ctx context.Context, userID string) (BodyMetrics, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return BodyMetrics{}, err
	}

	snap := profile.Snapshot()
	today := s.Today()
	var out BodyMetrics

	if age, ok := snap.AgeAt(today); ok {
		out.Age = &age
	}
	if bmi, ok := snap.BMI(metrics.DetailPlaces); ok {
		out.BMI = &bmi
	}
	if bmr, ok := snap.BMR(today); ok {
		rounded := metrics.Round(bmr, metrics.DetailPlaces)
		out.BMR = &rounded
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, userID string, start, end time.Time) (models.Profile, []models.Meal, []models.Activity, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return models.Profile{}, nil, nil, err
	}

	meals, err := s.store.ListMeals(ctx, userID, start, end)
	if err != nil {
		return models.Profile{}, nil, nil, fmt.Errorf("load meals: %w", err)
	}

	activities, err := s.store.ListActivities(ctx, userID, start, end)
	if err != nil {
		return models.Profile{}, nil, nil, fmt.Errorf("load activities: %w", err)
	}

	return profile, meals, activities, nil
}

func validateRange(start, end time.Time) error {
	first, last := metrics.DayOf(start), metrics.DayOf(end)
	if last.Before(first) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange, last.Format(models.DateLayout), first.Format(models.DateLayout))
	}
	if days := int(last.Sub(first).Hours()/24) + 1; days > MaxRangeDays {
		return fmt.Errorf("%w: %d days exceeds the %d day limit", ErrInvalidRange, days, MaxRangeDays)
	}
	return nil
}

// WeekStart returns the Monday of t's week at midnight UTC.
func WeekStart(t time.Time) time.Time {
	day := metrics.DayOf(t)
	daysSinceMonday := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -daysSinceMonday)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
