package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/caloriebalance/tracker/internal/metrics"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want CommandType
		args int
	}{
		{"/meal 450 pasta carbonara", CommandMeal, 3},
		{"Eat 200 apple", CommandMeal, 2},
		{"/activity run 30 300", CommandActivity, 3},
		{"today", CommandToday, 0},
		{"/WEEK", CommandWeek, 0},
		{"/bmi", CommandBMI, 0},
		{"hello there", CommandUnknown, 1},
		{"   ", CommandUnknown, 0},
	}

	for _, tt := range tests {
		got := ParseCommand(tt.in)
		if got.Type != tt.want {
			t.Fatalf("ParseCommand(%q).Type = %s, want %s", tt.in, got.Type, tt.want)
		}
		if len(got.Args) != tt.args {
			t.Fatalf("ParseCommand(%q) args = %v", tt.in, got.Args)
		}
	}
}

func TestProfileSnapshot_NormalizesGender(t *testing.T) {
	w := 62.5
	p := Profile{UserID: "u1", WeightKg: &w, Gender: "f"}
	snap := p.Snapshot()

	if snap.Sex != metrics.SexFemale {
		t.Fatalf("sex = %v, want female", snap.Sex)
	}
	if snap.WeightKg == nil || *snap.WeightKg != 62.5 {
		t.Fatalf("weight not carried over")
	}
	if snap.HeightCm != nil || snap.BirthDate != nil {
		t.Fatalf("missing fields should stay nil")
	}
}

func TestProfileUpdate_Apply(t *testing.T) {
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	weight := 80.0
	dob := "1990-04-02"
	gender := "Female"
	phone := "+48 600-100-200"

	p := Profile{UserID: "u1", FirstName: "Ann"}
	err := ProfileUpdate{Weight: &weight, DateOfBirth: &dob, Gender: &gender, Phone: &phone}.Apply(&p, now)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if p.FirstName != "Ann" {
		t.Fatalf("untouched field changed")
	}
	if p.WeightKg == nil || *p.WeightKg != 80 {
		t.Fatalf("weight = %v", p.WeightKg)
	}
	if p.DateOfBirth == nil || p.DateOfBirth.Format(DateLayout) != dob {
		t.Fatalf("date_of_birth = %v", p.DateOfBirth)
	}
	if p.Gender != "F" {
		t.Fatalf("gender = %q, want F", p.Gender)
	}
	if p.Phone != "48600100200" {
		t.Fatalf("phone = %q", p.Phone)
	}
	if !p.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at not set")
	}
}

func TestProfileUpdate_ApplyRejectsInvalid(t *testing.T) {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	zero := 0.0
	heavy := MaxWeightKg + 1
	tall := 5000.0
	future := "2030-01-01"
	garbage := "01/02/1990"

	cases := map[string]ProfileUpdate{
		"zero weight": {Weight: &zero},
		"zero height": {Height: &zero},
		"too heavy":   {Weight: &heavy},
		"too tall":    {Height: &tall},
		"future dob":  {DateOfBirth: &future},
		"bad dob":     {DateOfBirth: &garbage},
	}

	for name, u := range cases {
		p := Profile{UserID: "u1"}
		if err := u.Apply(&p, now); !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("%s: err = %v, want ErrInvalidProfile", name, err)
		}
		if p.WeightKg != nil || p.HeightCm != nil || p.DateOfBirth != nil {
			t.Fatalf("%s: profile modified on error", name)
		}
	}
}

func TestAddActivityRequest_ToActivity(t *testing.T) {
	burned := 320
	day := time.Date(2025, time.May, 3, 18, 30, 0, 0, time.UTC)
	req := AddActivityRequest{Activity: "Swim", Duration: 40, CaloriesBurned: &burned}

	a := req.ToActivity("a1", "u1", day, day)
	if a.Category != metrics.ActivitySwim {
		t.Fatalf("category = %s, want SWIM", a.Category)
	}
	if !a.Date.Equal(time.Date(2025, time.May, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date not truncated: %v", a.Date)
	}

	ev, ok := a.Event().(metrics.ActivityEvent)
	if !ok || ev.CaloriesBurned != 320 || ev.DurationMin != 40 {
		t.Fatalf("event = %+v", a.Event())
	}
}

func TestParseDay(t *testing.T) {
	fallback := time.Date(2025, time.June, 9, 23, 59, 0, 0, time.UTC)

	got, err := ParseDay("", fallback)
	if err != nil || !got.Equal(time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("fallback day = %v, %v", got, err)
	}

	if _, err := ParseDay("09-06-2025", fallback); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}

func TestNewWeeklyReport(t *testing.T) {
	start := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	rm := metrics.Range(metrics.Profile{}, []metrics.Event{
		metrics.MealEvent{Calories: 1000, Date: start},
	}, start, start.AddDate(0, 0, 6))

	r := NewWeeklyReport("r1", "u1", rm, start)
	if len(r.Days) != 7 || r.TotalEaten != 1000 || r.Status != metrics.Surplus {
		t.Fatalf("report = %+v", r)
	}
}

func TestAddMealRequest_KeepsRawFood(t *testing.T) {
	var req AddMealRequest
	body := `{"foods":[{"food_name":"apple","nf_calories":95,"nf_sugars":19}],"date":"2025-06-05"}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	food := req.Foods[0]
	if food.Name != "apple" || food.Calories != 95 {
		t.Fatalf("food = %+v", food)
	}
	if food.Raw["nf_sugars"] != 19.0 {
		t.Fatalf("raw = %v", food.Raw)
	}

	day := time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)
	if meal := food.ToMeal("m1", "u1", day, day); meal.RawAPIData["food_name"] != "apple" {
		t.Fatalf("meal raw = %v", meal.RawAPIData)
	}
}

func TestWebhookPayload_MessagesAndSenders(t *testing.T) {
	payload := WebhookPayload{Entry: []WebhookEntry{
		{Changes: []WebhookChange{{Value: WebhookValue{Messages: []InboundMessage{{From: "1", ID: "a"}, {From: "2", ID: "b"}}}}}},
		{Changes: []WebhookChange{{Value: WebhookValue{Messages: []InboundMessage{{From: "1", ID: "c"}}}}}},
	}}

	if got := len(payload.Messages()); got != 3 {
		t.Fatalf("messages = %d, want 3", got)
	}
	senders := payload.Senders()
	if len(senders) != 2 || senders[0] != "1" || senders[1] != "2" {
		t.Fatalf("senders = %v", senders)
	}
}
