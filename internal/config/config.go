package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/core/rules"
	"github.com/TokiACD/caretrack/pkg/core/schedule"
)

// SlotTimesConfig is the default start/end wall-clock times for one slot
type SlotTimesConfig struct {
	Start string `yaml:"start" validate:"required"`
	End   string `yaml:"end" validate:"required"`
}

// ShiftTimeOverride changes the slot times for dates matched by an rrule,
// e.g. shorter day shifts on weekends.
type ShiftTimeOverride struct {
	RRule     string `yaml:"rrule" validate:"required"`
	ShiftType string `yaml:"shiftType" validate:"required,oneof=DAY NIGHT"`
	Start     string `yaml:"start" validate:"required"`
	End       string `yaml:"end" validate:"required"`
}

// SchedulingConfig carries the rule engine thresholds
type SchedulingConfig struct {
	WeeklyHourLimit   int    `yaml:"weeklyHourLimit" validate:"omitempty,min=1"`
	RestPeriodHours   int    `yaml:"restPeriodHours" validate:"omitempty,min=1"`
	RestWarningHours  int    `yaml:"restWarningHours" validate:"omitempty,min=0"`
	WeekendLookback   string `yaml:"weekendLookback" validate:"omitempty,oneof=calendar rolling"`
	RotationMinShifts int    `yaml:"rotationMinShifts" validate:"omitempty,min=1"`
	PresentationCap   int    `yaml:"presentationCap" validate:"omitempty,min=1"`
	DragTimeoutMs     int    `yaml:"dragTimeoutMs" validate:"omitempty,min=100"`
}

// GmailConfig configures the violations digest notifier
type GmailConfig struct {
	UserID           string   `yaml:"userID,omitempty"`
	Sender           string   `yaml:"sender,omitempty"`
	DigestRecipients []string `yaml:"digestRecipients,omitempty" validate:"dive,email"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL        string              `yaml:"databaseURL,omitempty"`
	APIBaseURL         string              `yaml:"apiBaseURL,omitempty" validate:"omitempty,url"`
	ServerAddr         string              `yaml:"serverAddr,omitempty"`
	Scheduling         SchedulingConfig    `yaml:"scheduling,omitempty"`
	DayShift           *SlotTimesConfig    `yaml:"dayShift,omitempty"`
	NightShift         *SlotTimesConfig    `yaml:"nightShift,omitempty"`
	ShiftTimeOverrides []ShiftTimeOverride `yaml:"shiftTimeOverrides,omitempty" validate:"dive"`
	Gmail              GmailConfig         `yaml:"gmail,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from caretrack_config.yaml,
// looking in the current directory first, then the user's home directory.
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment, e.g. env="test"
// looks for caretrack_config.test.yaml.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the rrule syntax of every
// shift-time override, and the wall-clock time fields.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, override := range cfg.ShiftTimeOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in shiftTimeOverrides[%d]: %w", i, err)
		}
		if _, err := model.ParseTimeOfDay(override.Start); err != nil {
			return fmt.Errorf("invalid start in shiftTimeOverrides[%d]: %w", i, err)
		}
		if _, err := model.ParseTimeOfDay(override.End); err != nil {
			return fmt.Errorf("invalid end in shiftTimeOverrides[%d]: %w", i, err)
		}
	}

	for name, slot := range map[string]*SlotTimesConfig{"dayShift": cfg.DayShift, "nightShift": cfg.NightShift} {
		if slot == nil {
			continue
		}
		if _, err := model.ParseTimeOfDay(slot.Start); err != nil {
			return fmt.Errorf("invalid %s.start: %w", name, err)
		}
		if _, err := model.ParseTimeOfDay(slot.End); err != nil {
			return fmt.Errorf("invalid %s.end: %w", name, err)
		}
	}

	return nil
}

// RulesConfig converts the scheduling section into engine thresholds,
// falling back to the regulatory defaults for anything unset.
func (c *Config) RulesConfig() rules.Config {
	cfg := rules.DefaultConfig()
	if c.Scheduling.WeeklyHourLimit > 0 {
		cfg.WeeklyLimitMinutes = c.Scheduling.WeeklyHourLimit * 60
	}
	if c.Scheduling.RestPeriodHours > 0 {
		cfg.RestPeriodHours = c.Scheduling.RestPeriodHours
	}
	if c.Scheduling.RestWarningHours > 0 {
		cfg.RestWarningHours = c.Scheduling.RestWarningHours
	}
	if c.Scheduling.WeekendLookback != "" {
		cfg.WeekendLookback = rules.WeekendLookback(c.Scheduling.WeekendLookback)
	}
	if c.Scheduling.RotationMinShifts > 0 {
		cfg.RotationMinShifts = c.Scheduling.RotationMinShifts
	}
	return cfg
}

// ShiftTimes builds the slot-time resolver from the config, parsing the
// recurrence overrides. Validate must have passed first.
func (c *Config) ShiftTimes() (schedule.ShiftTimes, error) {
	times := schedule.DefaultShiftTimes()

	if c.DayShift != nil {
		slot, err := parseSlotTimes(*c.DayShift)
		if err != nil {
			return times, fmt.Errorf("invalid dayShift: %w", err)
		}
		times.Day = slot
	}
	if c.NightShift != nil {
		slot, err := parseSlotTimes(*c.NightShift)
		if err != nil {
			return times, fmt.Errorf("invalid nightShift: %w", err)
		}
		times.Night = slot
	}

	for i, o := range c.ShiftTimeOverrides {
		rule, err := rrule.StrToRRule(o.RRule)
		if err != nil {
			return times, fmt.Errorf("invalid rrule in shiftTimeOverrides[%d]: %w", i, err)
		}
		slot, err := parseSlotTimes(SlotTimesConfig{Start: o.Start, End: o.End})
		if err != nil {
			return times, fmt.Errorf("invalid shiftTimeOverrides[%d]: %w", i, err)
		}
		times.Overrides = append(times.Overrides, schedule.Override{
			Rule:      rule,
			ShiftType: model.ShiftType(o.ShiftType),
			Times:     slot,
		})
	}
	return times, nil
}

func parseSlotTimes(cfg SlotTimesConfig) (schedule.SlotTimes, error) {
	start, err := model.ParseTimeOfDay(cfg.Start)
	if err != nil {
		return schedule.SlotTimes{}, err
	}
	end, err := model.ParseTimeOfDay(cfg.End)
	if err != nil {
		return schedule.SlotTimes{}, err
	}
	return schedule.SlotTimes{Start: start, End: end}, nil
}

// findConfigFile searches for the config file in the current directory and
// the home directory. With env it looks for caretrack_config.<env>.yaml.
func findConfigFile(env string) (string, error) {
	configFileName := "caretrack_config.yaml"
	if env != "" {
		configFileName = "caretrack_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
