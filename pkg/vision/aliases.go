package vision

// statAlias buckets a recognized stat label into a canonical key. Aliases are
// matched case-insensitively as substrings, first hit wins, so new labels and
// locales are additive.
type statAlias struct {
	key     string
	aliases []string
}

// Canonical player-stat keys with English and Italian label variants, in the
// priority order the game presents them.
var playerStatAliases = []statAlias{
	{"shooting", []string{"shooting", "tiro"}},
	{"passing", []string{"passing", "passaggio"}},
	{"dribbling", []string{"dribbling"}},
	{"defending", []string{"defending", "difesa"}},
	{"physical", []string{"physical", "fisico"}},
	{"speed", []string{"speed", "velocità"}},
}

// positionRoles maps abbreviated position codes to the role names the UI
// renders. Unknown codes fall through to the code itself.
var positionRoles = map[string]string{
	"GK":  "Portiere",
	"CB":  "Difensore Centrale",
	"LB":  "Terzino Sinistro",
	"RB":  "Terzino Destro",
	"CDM": "Mediano",
	"CM":  "Centrocampista",
	"CAM": "Trequartista",
	"LM":  "Centrocampista Sinistro",
	"RM":  "Centrocampista Destro",
	"LW":  "Ala Sinistra",
	"RW":  "Ala Destra",
	"ST":  "Attaccante",
	"CF":  "Punta",
}

// roleForPosition resolves a position code to its display role.
func roleForPosition(pos string) string {
	if role, ok := positionRoles[pos]; ok {
		return role
	}
	return pos
}
