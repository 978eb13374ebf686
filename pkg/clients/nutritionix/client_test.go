package nutritionix

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caloriebalance/tracker/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.NutritionixConfig{
		AppID:   "app-id",
		AppKey:  "app-key",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	})
}

func TestLookup_ParsesFoods(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != naturalNutrientsPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-app-id") != "app-id" || r.Header.Get("x-app-key") != "app-key" {
			t.Errorf("missing credentials headers")
		}

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["query"] != "2 eggs and toast" {
			t.Errorf("query = %q", body["query"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"foods":[
			{"food_name":"eggs","serving_qty":2,"serving_unit":"large","nf_calories":143,"nf_protein":12.6,"nf_total_carbohydrate":0.7,"nf_total_fat":9.5,"photo":{"thumb":"x"}},
			{"food_name":"toast","serving_qty":1,"serving_unit":"slice","nf_calories":64,"nf_protein":2.7,"nf_total_carbohydrate":11.9,"nf_total_fat":0.8}
		]}`))
	})

	items, err := client.Lookup(context.Background(), " 2 eggs and toast ")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	eggs := items[0]
	if eggs.Name != "eggs" || eggs.Calories != 143 || eggs.Protein != 12.6 || eggs.ServingUnit != "large" {
		t.Fatalf("eggs = %+v", eggs)
	}
	if _, ok := eggs.Raw["photo"]; !ok {
		t.Fatalf("raw payload not kept")
	}
}

func TestLookup_UpstreamErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"unauthorized"}`))
	})

	_, err := client.Lookup(context.Background(), "apple")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestLookup_UnreachableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(config.NutritionixConfig{BaseURL: url, Timeout: time.Second})
	if _, err := client.Lookup(context.Background(), "apple"); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestLookup_EmptyQuery(t *testing.T) {
	client := NewClient(config.NutritionixConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	if _, err := client.Lookup(context.Background(), "  "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("err = %v, want ErrEmptyQuery", err)
	}
}
