package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNameSpawnsCreated    = "spawns_created_total"
	MetricNameSpawnsClaimed    = "spawns_claimed_total"
	MetricNamePacksOpened      = "packs_opened_total"
	MetricNameCardsCrafted     = "cards_crafted_total"
	MetricNameTradesCompleted  = "trades_completed_total"
	MetricNameTradesInvalid    = "trades_invalidated_total"
	MetricNamePuzzlesCompleted = "puzzles_completed_total"
	MetricNameLevelUps         = "level_ups_total"
	MetricNameCoinsEarned      = "coins_earned_total"
	MetricNameCoinsSpent       = "coins_spent_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextSpawnsCreated    = "Total number of card spawns created"
	HelpTextSpawnsClaimed    = "Total number of card spawns claimed"
	HelpTextPacksOpened      = "Total number of card packs opened"
	HelpTextCardsCrafted     = "Total number of cards crafted"
	HelpTextTradesCompleted  = "Total number of trades completed"
	HelpTextTradesInvalid    = "Total number of trades invalidated at execution"
	HelpTextPuzzlesCompleted = "Total number of puzzles completed"
	HelpTextLevelUps         = "Total number of user level ups"
	HelpTextCoinsEarned      = "Total coins credited to users"
	HelpTextCoinsSpent       = "Total coins debited from users"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelType   = "type"
	LabelAction = "action"
)

// Log Messages
const (
	LogMsgMetricsRecorded = "Metrics recorded for event"
)
