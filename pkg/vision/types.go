package vision

// ImageType tags the screen type an uploaded screenshot represents. It is
// always decided by the classifier, never by the caller.
type ImageType string

const (
	TypeFormation    ImageType = "formation"
	TypePlayerStats  ImageType = "player_stats"
	TypeMatchStats   ImageType = "match_stats"
	TypeHeatmap      ImageType = "heatmap"
	TypeTeamOverview ImageType = "team_overview"
	TypeUnknown      ImageType = "unknown"
)

// Named batch slots. Callers may add more without breaking aggregation.
const (
	SlotStats            = "stats"
	SlotRatings          = "ratings"
	SlotHeatmapOffensive = "heatmapOffensive"
	SlotHeatmapDefensive = "heatmapDefensive"
)

// Fallback reasons recorded on simulated records.
const (
	FallbackEngineUnavailable = "engine_unavailable"
	FallbackTimeout           = "timeout"
)

// Player is one entry of a parsed formation.
type Player struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Role     string `json:"role"`
}

// AttackAreas holds left/center/right attack percentages read off a heatmap
// summary panel.
type AttackAreas struct {
	Left   int `json:"left"`
	Center int `json:"center"`
	Right  int `json:"right"`
}

// Zone is one heatmap cell with an intensity in [0,1]. Zone extraction is not
// implemented yet; the field exists so records stay forward compatible.
type Zone struct {
	Name      string  `json:"name"`
	Intensity float64 `json:"intensity"`
}

// ParsedRecord is the typed result of analyzing one screenshot. Type selects
// which of the variant fields are populated; Confidence and RawText are always
// set. RawText holds only a truncated copy of the recognized text.
type ParsedRecord struct {
	Type       ImageType `json:"type"`
	Confidence float64   `json:"confidence"`
	RawText    string    `json:"rawText"`

	// formation
	Formation string   `json:"formation,omitempty"`
	Players   []Player `json:"players,omitempty"`

	// player_stats
	Stats map[string]int `json:"stats,omitempty"`

	// match_stats
	Home map[string]int `json:"home,omitempty"`
	Away map[string]int `json:"away,omitempty"`

	// heatmap
	Analysis    string       `json:"analysis,omitempty"`
	AttackAreas *AttackAreas `json:"attackAreas,omitempty"`
	Zones       []Zone       `json:"zones,omitempty"`

	// generic fallback
	Lines     []string `json:"lines,omitempty"`
	WordCount int      `json:"wordCount,omitempty"`

	// Simulated marks demo/fallback data so the UI never presents it as a
	// genuine measurement. FallbackReason is one of the Fallback* constants.
	Simulated      bool   `json:"simulated,omitempty"`
	FallbackReason string `json:"fallbackReason,omitempty"`
}

// PlayerRating is one row of the ratings table.
type PlayerRating struct {
	Player string  `json:"player"`
	Rating float64 `json:"rating"`
}

// Heatmaps pairs the two heatmap slots of a match batch. A nil side means the
// slot was absent or failed, never "measured zero".
type Heatmaps struct {
	Offensive *ParsedRecord `json:"offensive"`
	Defensive *ParsedRecord `json:"defensive"`
}

// AggregatedMatchRecord is the consolidated result of a multi-image batch.
// Fields are only ever extended during one batch run, never overwritten.
type AggregatedMatchRecord struct {
	Stats    map[string]int `json:"stats"`
	Ratings  []PlayerRating `json:"ratings"`
	Heatmaps Heatmaps       `json:"heatmaps"`
}

// BatchResult wraps the aggregate with per-slot diagnostics. FailedSlots maps
// slot name to the failure message; successful slots are listed in Analyzed.
type BatchResult struct {
	ID          string                `json:"id"`
	Aggregate   AggregatedMatchRecord `json:"aggregate"`
	Analyzed    []string              `json:"analyzed"`
	FailedSlots map[string]string     `json:"failedSlots,omitempty"`
}
