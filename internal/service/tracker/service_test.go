package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/caloriebalance/tracker/internal/domain/models"
	"github.com/caloriebalance/tracker/internal/metrics"
	repo "github.com/caloriebalance/tracker/internal/repository/mongodb"
)

type fakeStore struct {
	profiles   map[string]models.Profile
	meals      []models.Meal
	activities []models.Activity
	failList   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[string]models.Profile{}}
}

func (f *fakeStore) GetProfile(_ context.Context, userID string) (models.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return models.Profile{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) SaveProfile(_ context.Context, p models.Profile) error {
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeStore) InsertMeals(_ context.Context, meals []models.Meal) error {
	f.meals = append(f.meals, meals...)
	return nil
}

func (f *fakeStore) InsertActivity(_ context.Context, a models.Activity) error {
	f.activities = append(f.activities, a)
	return nil
}

func inRange(d, start, end time.Time) bool {
	d = metrics.DayOf(d)
	return !d.Before(metrics.DayOf(start)) && !d.After(metrics.DayOf(end))
}

func (f *fakeStore) ListMeals(_ context.Context, userID string, start, end time.Time) ([]models.Meal, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	var out []models.Meal
	for _, m := range f.meals {
		if m.UserID == userID && inRange(m.Date, start, end) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListActivities(_ context.Context, userID string, start, end time.Time) ([]models.Activity, error) {
	var out []models.Activity
	for _, a := range f.activities {
		if a.UserID == userID && inRange(a.Date, start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestService(store Store, now time.Time) *Service {
	svc := NewService(store, time.UTC, nil)
	svc.now = func() time.Time { return now }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc
}

func intPtr(v int) *int { return &v }

func TestProfile_GetOrCreate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC))

	p, err := svc.Profile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if p.UserID != "u1" {
		t.Fatalf("user = %q", p.UserID)
	}
	if _, ok := store.profiles["u1"]; !ok {
		t.Fatalf("profile was not persisted")
	}
}

func TestDailySummary_BalanceIncludesBMR(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)
	ctx := context.Background()

	weight, height, dob, gender := 70.0, 175.0, "1994-01-01", "F"
	if _, err := svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{Weight: &weight, Height: &height, DateOfBirth: &dob, Gender: &gender}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	day := svc.Today()
	if _, err := svc.AddMeals(ctx, "u1", []models.FoodItem{{Name: "oats", Calories: 1200}, {Name: "pasta", Calories: 800}}, day); err != nil {
		t.Fatalf("AddMeals failed: %v", err)
	}
	if _, err := svc.AddActivity(ctx, "u1", models.AddActivityRequest{Activity: "run", Duration: 30, CaloriesBurned: intPtr(300)}, day); err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}
	// another user's meal must not leak in
	_, _ = svc.AddMeals(ctx, "u2", []models.FoodItem{{Name: "cake", Calories: 900}}, day)

	summary, err := svc.DailySummary(ctx, "u1", day)
	if err != nil {
		t.Fatalf("DailySummary failed: %v", err)
	}

	if summary.Eaten != 2000 || summary.Burned != 300 {
		t.Fatalf("totals = %v/%v", summary.Eaten, summary.Burned)
	}
	if !summary.BMRAvailable || metrics.Round(summary.BMR, 2) != 1501 {
		t.Fatalf("bmr = %v", summary.BMR)
	}
	if metrics.Round(summary.Balance, 2) != 199 || summary.Status != metrics.Surplus {
		t.Fatalf("balance = %v %s", summary.Balance, summary.Status)
	}
	if len(summary.Meals) != 2 || len(summary.Activities) != 1 {
		t.Fatalf("records = %d meals, %d activities", len(summary.Meals), len(summary.Activities))
	}
}

func TestDailySummary_EmptyListsAreNotNil(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC))

	summary, err := svc.DailySummary(context.Background(), "u1", svc.Today())
	if err != nil {
		t.Fatalf("DailySummary failed: %v", err)
	}
	if summary.Meals == nil || summary.Activities == nil {
		t.Fatalf("expected empty slices")
	}
	if summary.Status != metrics.Zero {
		t.Fatalf("status = %s", summary.Status)
	}
}

func TestRangeSummary(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, time.May, 8, 0, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)
	ctx := context.Background()

	start := WeekStart(now)
	_, _ = svc.AddMeals(ctx, "u1", []models.FoodItem{{Name: "a", Calories: 500}}, start)
	_, _ = svc.AddMeals(ctx, "u1", []models.FoodItem{{Name: "b", Calories: 700}}, start.AddDate(0, 0, 2))

	rm, err := svc.RangeSummary(ctx, "u1", start, start.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("RangeSummary failed: %v", err)
	}
	if len(rm.Days) != 7 || rm.TotalEaten != 1200 {
		t.Fatalf("range = %d days, %v eaten", len(rm.Days), rm.TotalEaten)
	}
}

func TestRangeSummary_InvalidRange(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Now())
	start := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	if _, err := svc.RangeSummary(context.Background(), "u1", start, start.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("inverted: err = %v", err)
	}
	if _, err := svc.RangeSummary(context.Background(), "u1", start, start.AddDate(0, 0, MaxRangeDays)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("oversized: err = %v", err)
	}
	if _, err := svc.RangeSummary(context.Background(), "u1", start, start.AddDate(0, 0, MaxRangeDays-1)); err != nil {
		t.Fatalf("max range rejected: %v", err)
	}
}

func TestRangeSummary_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failList = errors.New("boom")
	svc := newTestService(store, time.Now())

	if _, err := svc.RangeSummary(context.Background(), "u1", svc.Today(), svc.Today()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBodyMetrics(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	empty, err := svc.BodyMetrics(ctx, "u1")
	if err != nil {
		t.Fatalf("BodyMetrics failed: %v", err)
	}
	if empty.Age != nil || empty.BMI != nil || empty.BMR != nil {
		t.Fatalf("empty profile should have no metrics: %+v", empty)
	}

	weight, height := 70.0, 175.0
	_, _ = svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{Weight: &weight, Height: &height})

	partial, _ := svc.BodyMetrics(ctx, "u1")
	if partial.BMI == nil || partial.BMI.Value != 22.86 || partial.BMI.Category != metrics.NormalWeight {
		t.Fatalf("bmi = %+v", partial.BMI)
	}
	if partial.BMR != nil {
		t.Fatalf("bmr should be unavailable without sex and birth date")
	}
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2025, time.June, 8, 22, 0, 0, 0, time.UTC)
	if got := WeekStart(sunday); !got.Equal(time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("WeekStart(sunday) = %v", got)
	}
	monday := time.Date(2025, time.June, 2, 5, 0, 0, 0, time.UTC)
	if got := WeekStart(monday); !got.Equal(time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("WeekStart(monday) = %v", got)
	}
}
