package scenario

// Game score variants, in priority order:
//   - by-game-mode: game_id present, per-mode score ceilings
//   - simple: a single global score ceiling
//
// Every other detected factor (moves, play time, multiplier) adds a range check
// that is ANDed into is_valid.
const (
	VariantGameMode    = "by-game-mode"
	VariantSimpleScore = "simple"
)

var gameScoreRules = []Rule{
	rule("scoreVariable", `score|points|finalScore|playerScore|totalScore`, "score"),
	rule("maxScore", `MAX_SCORE|maxPoints|scoreLimit|highScore|maxScore`, ""),
	rule("gameId", `gameId|levelId|stageId|gameType|modeId`, "game_id"),
	rule("moves", `moves|actions|steps|turns|commands`, "move_count"),
	rule("time", `time|duration|elapsed|timestamp`, "play_time"),
	rule("multiplier", `multiplier|bonus|combo|streak`, "multiplier"),
	rule("validation", `valid|check|verify|isLegal|allowed`, ""),
}

var gameScoreTypes = map[string]string{
	"game_id":    "u32",
	"score":      "u32",
	"move_count": "u32",
	"play_time":  "u64",
	"multiplier": "u8",
}

func gameScore() *Scenario {
	return &Scenario{
		Descriptor: Descriptor{
			ID:          "game-score",
			Name:        "Game Score Verification",
			Description: "Verify game scores with zero-knowledge proofs",
			Example:     "Prove that a player achieved a specific score without revealing game details",
		},
		Parse:      parseGameScore,
		Program:    gameScoreProgram,
		inputTypes: gameScoreTypes,
	}
}

func parseGameScore(raw string) Features {
	tags, inputs := matchRules(gameScoreRules, raw)

	// score is the one slot every game program needs
	inputs = appendUnique(inputs, "score")

	f := Features{Tags: tags, Inputs: inputs, Variant: VariantSimpleScore}
	if f.HasInput("game_id") {
		f.Variant = VariantGameMode
	}
	return f
}

func gameScoreProgram(f Features) string {
	p := program{reads: readsFor(f.Inputs, gameScoreTypes)}

	if f.Variant == VariantGameMode {
		p.logic = append(p.logic,
			"let score_valid = match game_id {",
			"    1 => score <= 1_000_000, // Classic mode",
			"    2 => score <= 500_000,   // Speed mode",
			"    3 => score <= 2_000_000, // Expert mode",
			"    4 => score <= 100_000,   // Puzzle mode",
			"    _ => false,",
			"};",
		)
	} else {
		p.logic = append(p.logic, "let score_valid = score > 0 && score <= 1_000_000;")
	}

	checks := []string{"score_valid"}
	if f.HasInput("move_count") {
		p.logic = append(p.logic, "let moves_valid = move_count > 0 && move_count < 10_000;")
		checks = append(checks, "moves_valid")
	}
	if f.HasInput("play_time") {
		p.logic = append(p.logic, "let time_valid = play_time > 0 && play_time < 86_400;")
		checks = append(checks, "time_valid")
	}
	if f.HasInput("multiplier") {
		p.logic = append(p.logic,
			"let multiplier_valid = multiplier > 0 && multiplier <= 10;",
			"let boosted_score = score.saturating_mul(multiplier as u32);",
			"let boost_valid = boosted_score <= 10_000_000;",
		)
		checks = append(checks, "multiplier_valid", "boost_valid")
	}
	p.logic = append(p.logic, "let is_valid = "+allOf(checks...)+";")

	p.commits = append(p.commits, f.Inputs...)
	return p.render()
}
