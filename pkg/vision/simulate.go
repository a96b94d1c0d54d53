package vision

// Simulate returns the static demo record for an image type, tagged so the
// UI can label it as fallback data. It is the single fallback strategy used
// when the engine is unavailable or too slow; nothing else fabricates
// records.
func Simulate(typ ImageType, reason string) *ParsedRecord {
	rec := simulatedRecord(typ)
	rec.Simulated = true
	rec.FallbackReason = reason
	return rec
}

func simulatedRecord(typ ImageType) *ParsedRecord {
	switch typ {
	case TypeFormation:
		return &ParsedRecord{
			Type:      TypeFormation,
			Formation: "4-3-3",
			Players: []Player{
				{Name: "Gianluigi Donnarumma", Position: "GK", Role: "Portiere"},
				{Name: "Theo Hernández", Position: "LB", Role: "Terzino Sinistro"},
				{Name: "Fikayo Tomori", Position: "CB", Role: "Difensore Centrale"},
				{Name: "Alessandro Bastoni", Position: "CB", Role: "Difensore Centrale"},
				{Name: "Davide Calabria", Position: "RB", Role: "Terzino Destro"},
				{Name: "Sandro Tonali", Position: "CDM", Role: "Mediano"},
				{Name: "Ismaël Bennacer", Position: "CM", Role: "Centrocampista"},
				{Name: "Brahim Díaz", Position: "CAM", Role: "Trequartista"},
				{Name: "Rafael Leão", Position: "LW", Role: "Ala Sinistra"},
				{Name: "Olivier Giroud", Position: "ST", Role: "Attaccante"},
				{Name: "Alexis Saelemaekers", Position: "RW", Role: "Ala Destra"},
			},
			RawText:    "formation demo 4-3-3",
			Confidence: confFormation,
		}
	case TypePlayerStats:
		return &ParsedRecord{
			Type: TypePlayerStats,
			Stats: map[string]int{
				"shooting":  95,
				"passing":   88,
				"dribbling": 92,
				"defending": 45,
				"physical":  78,
				"speed":     89,
			},
			RawText:    "player stats demo",
			Confidence: confPlayerStats,
		}
	case TypeMatchStats:
		return &ParsedRecord{
			Type:       TypeMatchStats,
			Home:       map[string]int{"possession": 55, "shots": 12, "goals": 2},
			Away:       map[string]int{"possession": 45, "shots": 8, "goals": 1},
			RawText:    "match stats demo",
			Confidence: confMatchStats,
		}
	case TypeHeatmap:
		return &ParsedRecord{
			Type:        TypeHeatmap,
			Analysis:    "heatmap zone analysis not yet supported",
			AttackAreas: &AttackAreas{Left: 46, Center: 45, Right: 9},
			RawText:     "heatmap demo",
			Confidence:  confHeatmap,
		}
	default:
		return &ParsedRecord{
			Type:       typ,
			Lines:      []string{"demo data"},
			WordCount:  2,
			RawText:    "demo data",
			Confidence: confGeneric,
		}
	}
}
