package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/caloriebalance/tracker/internal/domain/models"
	"github.com/caloriebalance/tracker/internal/metrics"
	repo "github.com/caloriebalance/tracker/internal/repository/mongodb"
	"github.com/caloriebalance/tracker/internal/service/reporting"
	"github.com/caloriebalance/tracker/internal/service/tracker"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrUnknownSender indicates no profile is registered for the sender's phone.
var ErrUnknownSender = errors.New("unknown sender")

// HelpText lists the supported chat commands.
const HelpText = `Commands:
/meal <kcal> <name> - log a meal (or /meal <description> to look it up)
/activity <run|swim|cycle|gym|other> <minutes> <kcal> - log exercise
/today - today's balance
/week - this week's balance
/bmi - your body mass index`

// Tracker is the tracker functionality the dispatcher drives.
type Tracker interface {
	Today() time.Time
	Profile(ctx context.Context, userID string) (models.Profile, error)
	AddMeals(ctx context.Context, userID string, foods []models.FoodItem, day time.Time) ([]models.Meal, error)
	AddActivity(ctx context.Context, userID string, req models.AddActivityRequest, day time.Time) (models.Activity, error)
	DailySummary(ctx context.Context, userID string, day time.Time) (tracker.DailySummary, error)
	RangeSummary(ctx context.Context, userID string, start, end time.Time) (metrics.RangeMetrics, error)
}

// ProfileFinder resolves chat senders to users.
type ProfileFinder interface {
	FindProfileByPhone(ctx context.Context, phone string) (models.Profile, error)
}

// NutritionLookup resolves a meal description into food items.
type NutritionLookup interface {
	Lookup(ctx context.Context, query string) ([]models.FoodItem, error)
}

// Dispatcher executes parsed commands on behalf of a chat sender.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	tracker   Tracker
	profiles  ProfileFinder
	nutrition NutritionLookup
	logger    *zap.Logger
}

// NewService constructs a command dispatcher. nutrition may be nil, in which
// case meals must be logged with an explicit calorie count.
func NewService(tracker Tracker, profiles ProfileFinder, nutrition NutritionLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tracker:   tracker,
		profiles:  profiles,
		nutrition: nutrition,
		logger:    logger,
	}
}

// HandleCommand runs cmd for the user registered under sender and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Any("args", cmd.Args))

	if cmd.Type == models.CommandHelp {
		return HelpText, nil
	}
	if cmd.Type == models.CommandUnknown {
		return "", ErrUnsupportedCommand
	}

	profile, err := s.profiles.FindProfileByPhone(ctx, sender)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrUnknownSender
	}
	if err != nil {
		return "", fmt.Errorf("resolve sender: %w", err)
	}
	userID := profile.UserID
	today := s.tracker.Today()

	switch cmd.Type {
	case models.CommandMeal:
		foods, err := s.buildFoods(ctx, cmd)
		if err != nil {
			return "", err
		}
		meals, err := s.tracker.AddMeals(ctx, userID, foods, today)
		if err != nil {
			return "", err
		}
		var total float64
		names := make([]string, 0, len(meals))
		for _, m := range meals {
			total += m.Calories
			names = append(names, m.Name)
		}
		message := fmt.Sprintf("Meal saved for %s: %s (%.0f kcal).", today.Format(models.DateLayout), strings.Join(names, ", "), total)
		return s.withDaySummary(ctx, userID, today, message), nil
	case models.CommandActivity:
		req, err := buildActivityRequest(cmd)
		if err != nil {
			return "", err
		}
		activity, err := s.tracker.AddActivity(ctx, userID, req, today)
		if err != nil {
			return "", err
		}
		message := fmt.Sprintf("Activity saved for %s: %s %d min, %d kcal burned.", today.Format(models.DateLayout), strings.ToLower(string(activity.Category)), activity.DurationMin, activity.CaloriesBurned)
		return s.withDaySummary(ctx, userID, today, message), nil
	case models.CommandToday:
		summary, err := s.tracker.DailySummary(ctx, userID, today)
		if err != nil {
			return "", err
		}
		return reporting.FormatDay(summary.DailyMetrics), nil
	case models.CommandWeek:
		rm, err := s.tracker.RangeSummary(ctx, userID, tracker.WeekStart(today), today)
		if err != nil {
			return "", err
		}
		return reporting.FormatRange(rm), nil
	case models.CommandBMI:
		current, err := s.tracker.Profile(ctx, userID)
		if err != nil {
			return "", err
		}
		return reporting.FormatBMI(current.Snapshot().BMI(metrics.DetailPlaces)), nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) buildFoods(ctx context.Context, cmd models.Command) ([]models.FoodItem, error) {
	if len(cmd.Args) == 0 {
		return nil, ErrInvalidArguments
	}

	if kcal, err := strconv.ParseFloat(cmd.Args[0], 64); err == nil {
		if kcal < 0 {
			return nil, ErrInvalidArguments
		}
		name := "meal"
		if len(cmd.Args) > 1 {
			name = strings.Join(cmd.Args[1:], " ")
		}
		return []models.FoodItem{{Name: name, Calories: kcal}}, nil
	}

	if s.nutrition == nil {
		return nil, ErrInvalidArguments
	}

	foods, err := s.nutrition.Lookup(ctx, strings.Join(cmd.Args, " "))
	if err != nil {
		return nil, fmt.Errorf("lookup meal: %w", err)
	}
	if len(foods) == 0 {
		return nil, ErrInvalidArguments
	}
	return foods, nil
}

func buildActivityRequest(cmd models.Command) (models.AddActivityRequest, error) {
	if len(cmd.Args) < 3 {
		return models.AddActivityRequest{}, ErrInvalidArguments
	}

	minutes, err := strconv.Atoi(cmd.Args[1])
	if err != nil || minutes <= 0 {
		return models.AddActivityRequest{}, ErrInvalidArguments
	}

	kcal, err := strconv.Atoi(cmd.Args[2])
	if err != nil || kcal < 0 {
		return models.AddActivityRequest{}, ErrInvalidArguments
	}

	name := cmd.Args[0]
	if len(cmd.Args) > 3 {
		name = strings.Join(cmd.Args[3:], " ")
	}

	return models.AddActivityRequest{
		Activity:       name,
		ActivityType:   cmd.Args[0],
		Duration:       minutes,
		CaloriesBurned: &kcal,
	}, nil
}

func (s *Service) withDaySummary(ctx context.Context, userID string, day time.Time, message string) string {
	summary, err := s.tracker.DailySummary(ctx, userID, day)
	if err != nil {
		s.logger.Debug("daily summary failed", zap.Error(err))
		return message
	}
	return message + "\n" + reporting.FormatDay(summary.DailyMetrics)
}
