package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for reports and caching.
	DatabaseBackend string

	// Provider represents the external assessment service flavor.
	Provider string

	// ScoreBand represents the severity band of an assessment score.
	ScoreBand string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All assessment providers supported.
const (
	AzureProvider  Provider = "azure" // default
	OpenAIProvider Provider = "openai"
)

// Score bands, from worst to best.
const (
	CriticalBand ScoreBand = "Critical" // 0-3
	ModerateBand ScoreBand = "Moderate" // 4-6
	MinorBand    ScoreBand = "Minor"    // 7-8
	SecureBand   ScoreBand = "Secure"   // 9-10
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 10
)

// DefaultBranch is the branch requested when none is given.
const DefaultBranch = "main"

// Fixed texts used by assessments.
const (
	NoVulnerableLines  = "No vulnerable lines"
	DefaultAnalysis    = "Analysis not available."
	DefaultSuggestion  = "No suggestions available."
	FallbackAnalysis   = "Analysis failed due to an error."
	FallbackSuggestion = "Suggestion generation failed."
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidProviders lists all valid assessment providers.
var ValidProviders = map[Provider]struct{}{
	AzureProvider:  {},
	OpenAIProvider: {},
}
