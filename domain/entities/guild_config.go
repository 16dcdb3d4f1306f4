package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxTopRoles is the number of ranked positions that receive a cosmetic role
const MaxTopRoles = 3

// Default values applied when a guild has not customised a parameter
const (
	DefaultDailyPoints         int64   = 10
	DefaultQuizPoints          int64   = 5
	DefaultGoldMinPoints       int64   = 25
	DefaultGoldMaxPoints       int64   = 40
	DefaultQuizCooldownMin     int64   = 15
	DefaultDailyCooldownHours  int64   = 24
	DefaultRobberyCooldownMin  int64   = 5
	DefaultMaxRobberiesDaily   int64   = 5
	DefaultMinMoneyToRob       int64   = 50
	DefaultRobberyMinPct       float64 = 0.10
	DefaultRobberyMaxPct       float64 = 0.20
	DefaultRobberyFailPct      float64 = 0.10
	DefaultRobberyEloDelta     int64   = 10
	DefaultGoldIntervalMin     int64   = 30
	DefaultGoldIntervalMax     int64   = 120
	DefaultGoldQuizChance      float64 = 0.05
	DefaultGoldAnswerWindowSec int64   = 60
	DefaultLocale                      = "es"
)

// ChannelKind identifies which configured channel an announcement belongs to
type ChannelKind string

const (
	ChannelKindQuiz     ChannelKind = "quiz"
	ChannelKindGold     ChannelKind = "gold"
	ChannelKindLog      ChannelKind = "log"
	ChannelKindAnnounce ChannelKind = "announce"
)

// GuildConfig holds the per-guild parameter space every engine operates within
type GuildConfig struct {
	GuildID           int64   `db:"guild_id"`
	QuizChannelID     *int64  `db:"quiz_channel_id"`
	GoldChannelID     *int64  `db:"gold_channel_id"`
	LogChannelID      *int64  `db:"log_channel_id"`
	AnnounceChannelID *int64  `db:"announce_channel_id"`
	TopRoleIDs        []int64 `db:"top_role_ids"`
	Locale            string  `db:"locale"`

	DailyPoints         int64   `db:"daily_points"`
	QuizPoints          int64   `db:"quiz_points"`
	GoldMinPoints       int64   `db:"gold_min_points"`
	GoldMaxPoints       int64   `db:"gold_max_points"`
	QuizCooldownMin     int64   `db:"quiz_cooldown_min"`
	DailyCooldownHours  int64   `db:"daily_cooldown_hours"`
	RobberyCooldownMin  int64   `db:"robbery_cooldown_min"`
	MaxRobberiesDaily   int64   `db:"max_robberies_daily"`
	MinMoneyToRob       int64   `db:"min_money_to_rob"`
	RobberyMinPct       float64 `db:"robbery_min_pct"`
	RobberyMaxPct       float64 `db:"robbery_max_pct"`
	RobberyFailPct      float64 `db:"robbery_fail_pct"`
	RobberyEloDelta     int64   `db:"robbery_elo_delta"`
	GoldIntervalMin     int64   `db:"gold_interval_min"`
	GoldIntervalMax     int64   `db:"gold_interval_max"`
	GoldQuizChance      float64 `db:"gold_quiz_chance"`
	GoldAnswerWindowSec int64   `db:"gold_answer_window_sec"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DefaultGuildConfig returns the fallback configuration for a guild
func DefaultGuildConfig(guildID int64) *GuildConfig {
	return &GuildConfig{
		GuildID:             guildID,
		TopRoleIDs:          []int64{},
		Locale:              DefaultLocale,
		DailyPoints:         DefaultDailyPoints,
		QuizPoints:          DefaultQuizPoints,
		GoldMinPoints:       DefaultGoldMinPoints,
		GoldMaxPoints:       DefaultGoldMaxPoints,
		QuizCooldownMin:     DefaultQuizCooldownMin,
		DailyCooldownHours:  DefaultDailyCooldownHours,
		RobberyCooldownMin:  DefaultRobberyCooldownMin,
		MaxRobberiesDaily:   DefaultMaxRobberiesDaily,
		MinMoneyToRob:       DefaultMinMoneyToRob,
		RobberyMinPct:       DefaultRobberyMinPct,
		RobberyMaxPct:       DefaultRobberyMaxPct,
		RobberyFailPct:      DefaultRobberyFailPct,
		RobberyEloDelta:     DefaultRobberyEloDelta,
		GoldIntervalMin:     DefaultGoldIntervalMin,
		GoldIntervalMax:     DefaultGoldIntervalMax,
		GoldQuizChance:      DefaultGoldQuizChance,
		GoldAnswerWindowSec: DefaultGoldAnswerWindowSec,
	}
}

// DailyCooldown returns the daily claim cooldown as a duration
func (c *GuildConfig) DailyCooldown() time.Duration {
	return time.Duration(c.DailyCooldownHours) * time.Hour
}

// QuizCooldown returns the quiz cooldown as a duration
func (c *GuildConfig) QuizCooldown() time.Duration {
	return time.Duration(c.QuizCooldownMin) * time.Minute
}

// RobberyCooldown returns the robbery cooldown as a duration
func (c *GuildConfig) RobberyCooldown() time.Duration {
	return time.Duration(c.RobberyCooldownMin) * time.Minute
}

// GoldAnswerWindow returns how long a golden event accepts answers
func (c *GuildConfig) GoldAnswerWindow() time.Duration {
	return time.Duration(c.GoldAnswerWindowSec) * time.Second
}

// ChannelFor returns the channel an announcement of the given kind should be routed to.
// Gold and announcement traffic fall back to the quiz channel.
func (c *GuildConfig) ChannelFor(kind ChannelKind) (int64, bool) {
	var candidates []*int64
	switch kind {
	case ChannelKindQuiz:
		candidates = []*int64{c.QuizChannelID}
	case ChannelKindGold:
		candidates = []*int64{c.GoldChannelID, c.QuizChannelID}
	case ChannelKindLog:
		candidates = []*int64{c.LogChannelID}
	case ChannelKindAnnounce:
		candidates = []*int64{c.AnnounceChannelID, c.QuizChannelID}
	}
	for _, id := range candidates {
		if id != nil && *id > 0 {
			return *id, true
		}
	}
	return 0, false
}

// TopRoleFor returns the role bound to a 1-based rank
func (c *GuildConfig) TopRoleFor(rank int) (int64, bool) {
	if rank < 1 || rank > len(c.TopRoleIDs) || rank > MaxTopRoles {
		return 0, false
	}
	return c.TopRoleIDs[rank-1], true
}

// Validate checks cross-field ordering rules
func (c *GuildConfig) Validate() error {
	if c.GoldMinPoints > c.GoldMaxPoints {
		return fmt.Errorf("gold_min_points (%d) cannot exceed gold_max_points (%d)", c.GoldMinPoints, c.GoldMaxPoints)
	}
	if c.GoldIntervalMin > c.GoldIntervalMax {
		return fmt.Errorf("gold_interval_min (%d) cannot exceed gold_interval_max (%d)", c.GoldIntervalMin, c.GoldIntervalMax)
	}
	if c.RobberyMinPct > c.RobberyMaxPct {
		return fmt.Errorf("robbery_min_pct (%.2f) cannot exceed robbery_max_pct (%.2f)", c.RobberyMinPct, c.RobberyMaxPct)
	}
	if len(c.TopRoleIDs) > MaxTopRoles {
		return fmt.Errorf("at most %d top roles can be configured", MaxTopRoles)
	}
	return nil
}

// ParamKind distinguishes integer parameters from percentage parameters
type ParamKind int

const (
	ParamKindInt ParamKind = iota
	ParamKindPercent
)

// ParamRule is the accepted range for one tunable parameter.
// Percent parameters are entered as 0-100 and stored as fractions.
type ParamRule struct {
	Kind ParamKind
	Min  float64
	Max  float64
	Unit string
}

// ParamRules lists every parameter an administrator may change
var ParamRules = map[string]ParamRule{
	"daily_points":           {Kind: ParamKindInt, Min: 0, Max: 10000, Unit: "pts"},
	"quiz_points":            {Kind: ParamKindInt, Min: 0, Max: 10000, Unit: "pts"},
	"gold_min_points":        {Kind: ParamKindInt, Min: 0, Max: 10000, Unit: "pts"},
	"gold_max_points":        {Kind: ParamKindInt, Min: 0, Max: 10000, Unit: "pts"},
	"quiz_cooldown_min":      {Kind: ParamKindInt, Min: 1, Max: 1440, Unit: "min"},
	"daily_cooldown_hours":   {Kind: ParamKindInt, Min: 1, Max: 168, Unit: "h"},
	"robbery_cooldown_min":   {Kind: ParamKindInt, Min: 1, Max: 1440, Unit: "min"},
	"max_robberies_daily":    {Kind: ParamKindInt, Min: 0, Max: 50},
	"min_money_to_rob":       {Kind: ParamKindInt, Min: 0, Max: 10000},
	"robbery_elo_delta":      {Kind: ParamKindInt, Min: 0, Max: 100},
	"gold_interval_min":      {Kind: ParamKindInt, Min: 1, Max: 1440, Unit: "min"},
	"gold_interval_max":      {Kind: ParamKindInt, Min: 1, Max: 1440, Unit: "min"},
	"gold_answer_window_sec": {Kind: ParamKindInt, Min: 10, Max: 600, Unit: "s"},
	"gold_quiz_chance":       {Kind: ParamKindPercent, Min: 0, Max: 100, Unit: "%"},
	"robbery_min_pct":        {Kind: ParamKindPercent, Min: 0, Max: 100, Unit: "%"},
	"robbery_max_pct":        {Kind: ParamKindPercent, Min: 0, Max: 100, Unit: "%"},
	"robbery_fail_pct":       {Kind: ParamKindPercent, Min: 0, Max: 100, Unit: "%"},
}

// SetParam validates a raw value and writes it into the config.
// It returns a display form of the accepted value.
func (c *GuildConfig) SetParam(name, raw string) (string, error) {
	rule, ok := ParamRules[name]
	if !ok {
		return "", fmt.Errorf("unknown parameter: %s", name)
	}
	raw = strings.TrimSpace(raw)

	if rule.Kind == ParamKindPercent {
		num, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
		if err != nil {
			return "", fmt.Errorf("%s must be a number", name)
		}
		if num < rule.Min || num > rule.Max {
			return "", fmt.Errorf("%s must be between %g and %g", name, rule.Min, rule.Max)
		}
		c.setFraction(name, num/100.0)
		return fmt.Sprintf("%g%%", num), nil
	}

	num, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%s must be an integer", name)
	}
	if float64(num) < rule.Min || float64(num) > rule.Max {
		return "", fmt.Errorf("%s must be between %g and %g", name, rule.Min, rule.Max)
	}
	c.setInt(name, num)
	if rule.Unit == "" {
		return strconv.FormatInt(num, 10), nil
	}
	return fmt.Sprintf("%d %s", num, rule.Unit), nil
}

func (c *GuildConfig) setFraction(name string, v float64) {
	switch name {
	case "gold_quiz_chance":
		c.GoldQuizChance = v
	case "robbery_min_pct":
		c.RobberyMinPct = v
	case "robbery_max_pct":
		c.RobberyMaxPct = v
	case "robbery_fail_pct":
		c.RobberyFailPct = v
	}
}

func (c *GuildConfig) setInt(name string, v int64) {
	switch name {
	case "daily_points":
		c.DailyPoints = v
	case "quiz_points":
		c.QuizPoints = v
	case "gold_min_points":
		c.GoldMinPoints = v
	case "gold_max_points":
		c.GoldMaxPoints = v
	case "quiz_cooldown_min":
		c.QuizCooldownMin = v
	case "daily_cooldown_hours":
		c.DailyCooldownHours = v
	case "robbery_cooldown_min":
		c.RobberyCooldownMin = v
	case "max_robberies_daily":
		c.MaxRobberiesDaily = v
	case "min_money_to_rob":
		c.MinMoneyToRob = v
	case "robbery_elo_delta":
		c.RobberyEloDelta = v
	case "gold_interval_min":
		c.GoldIntervalMin = v
	case "gold_interval_max":
		c.GoldIntervalMax = v
	case "gold_answer_window_sec":
		c.GoldAnswerWindowSec = v
	}
}
