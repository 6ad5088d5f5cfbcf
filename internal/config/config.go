package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pinggolf/m3-planning-tools/internal/calendar"
	"github.com/pinggolf/m3-planning-tools/internal/costmodel"
	"github.com/pinggolf/m3-planning-tools/internal/ga"
)

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv        string
	AppPort       int
	RunMigrations bool

	// Database settings
	DatabaseURL                string
	DatabaseMaxConnections     int
	DatabaseMaxIdleConnections int
	DatabaseConnectionLifetime time.Duration

	// CORS settings
	CORSAllowedOrigins   string
	CORSAllowCredentials bool

	// API throttle settings
	APIThrottleRequestsPerSecond int
	APIThrottleBurstSize         int

	// Logging
	LogLevel string

	// NATS settings
	NATSURL string

	// Scheduling settings — the external configuration table (spec §6)
	Calendar    calendar.Config
	CostModel   costmodel.Weights
	GAWeights   ga.Weights
	GAParams    ga.Params
	AllMachinesGenerations int // default 200, used only by the all-machines planner
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		AppPort:       getEnvAsInt("APP_PORT", 8080),
		RunMigrations: getEnvAsBool("RUN_MIGRATIONS", false),

		DatabaseURL:                getEnv("DATABASE_URL", ""),
		DatabaseMaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 25),
		DatabaseMaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		DatabaseConnectionLifetime: getEnvAsDuration("DATABASE_CONNECTION_LIFETIME", 5*time.Minute),

		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		CORSAllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),

		APIThrottleRequestsPerSecond: getEnvAsInt("API_THROTTLE_REQUESTS_PER_SECOND", 10),
		APIThrottleBurstSize:         getEnvAsInt("API_THROTTLE_BURST_SIZE", 5),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		NATSURL: getEnv("NATS_URL", "nats://localhost:4222"),

		Calendar: calendar.Config{
			WeekdayShifts:         getEnvAsInt("WEEKDAY_SHIFTS", 2),
			HoursPerWeekdayShift:  getEnvAsFloat("HOURS_PER_WEEKDAY_SHIFT", 12),
			SaturdayShifts:        getEnvAsInt("SATURDAY_SHIFTS", 2),
			HoursPerSaturdayShift: getEnvAsFloat("HOURS_PER_SATURDAY_SHIFT", 12),
			DayStartHour:          getEnvAsInt("DAY_START_HOUR", 7),
			Efficiency:            getEnvAsFloat("EFFICIENCY", 0.95),
			SafetyBufferFraction:  getEnvAsFloat("SAFETY_BUFFER_FRACTION", 0.01),
		},

		CostModel: costmodel.Weights{
			InkChangeCostMin:             getEnvAsFloat("INK_CHANGE_COST_MIN", 5.0),
			InkAddCost:                   getEnvAsFloat("INK_ADD_COST", 25.0),
			ColorReuseBonus:              getEnvAsFloat("COLOR_REUSE_BONUS", 15.0),
			MaterialChangeCompleteFactor: getEnvAsFloat("MATERIAL_CHANGE_COMPLETE_FACTOR", 1.0),
			MaterialChangePartialFactor:  getEnvAsFloat("MATERIAL_CHANGE_PARTIAL_FACTOR", 0.5),
			SameCustomerBonusFactor:      getEnvAsFloat("SAME_CUSTOMER_BONUS_FACTOR", 0.7),
		},

		GAWeights: ga.Weights{
			SetupCostWeight:        getEnvAsFloat("SETUP_COST_WEIGHT", 100),
			DelayPenaltyWeight:     getEnvAsFloat("DELAY_PENALTY_WEIGHT", 10),
			InkOvercapacityPenalty: getEnvAsFloat("INK_OVERCAPACITY_PENALTY", 1000),
			HighInkPriorityWeight:  getEnvAsFloat("HIGH_INK_PRIORITY_WEIGHT", 50000),
		},

		GAParams: ga.Params{
			PopulationSize: getEnvAsInt("GA_POPULATION_SIZE", 100),
			Generations:    getEnvAsInt("GA_GENERATIONS", 100),
			CxPB:           getEnvAsFloat("GA_CXPB", 0.7),
			MutPB:          getEnvAsFloat("GA_MUTPB", 0.2),
			MutIndPB:       getEnvAsFloat("GA_MUT_INDPB", 0.05),
			TournamentSize: getEnvAsInt("GA_TOURNAMENT_SIZE", 3),
		},

		AllMachinesGenerations: getEnvAsInt("GA_ALL_MACHINES_GENERATIONS", 200),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
