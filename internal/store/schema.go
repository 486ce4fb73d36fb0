package store

import "github.com/sipocalypse/api/internal/rowstore"

const (
	TableGames       = "games"
	TableDailyScores = "daily_scores"
	TableWinners     = "winners"
)

// Tables lists every table the application owns, in setup-check order.
var Tables = []string{TableGames, TableDailyScores, TableWinners}

var GamesSchema = rowstore.Schema{
	Table: TableGames,
	Defaults: []string{
		"game_id", "date", "created_at", "activity", "game_name", "rule_count",
		"chaos_level", "rules_json", "dares_json", "chaos_score", "status",
	},
	Fields: []rowstore.Field{
		{Key: "gameId", Aliases: []string{"game_id", "game id", "id"}},
		{Key: "date", Aliases: []string{"date"}},
		{Key: "createdAt", Aliases: []string{"created_at", "created at", "timestamp"}},
		{Key: "activity", Aliases: []string{"activity"}},
		{Key: "gameName", Aliases: []string{"game_name", "game name", "name", "title"}},
		{Key: "ruleCount", Aliases: []string{"rule_count", "rule count", "number of rules"}},
		{Key: "dareCount", Aliases: []string{"dare_count", "dare count", "number of dares"}},
		{Key: "chaosLevel", Aliases: []string{"chaos_level", "chaos level"}},
		{Key: "rulesJson", Aliases: []string{"rules_json", "rules"}},
		{Key: "daresJson", Aliases: []string{"dares_json", "dares"}},
		{Key: "chaosScore", Aliases: []string{"chaos_score", "score"}},
		{Key: "status", Aliases: []string{"status"}},
	},
}

var DailyScoresSchema = rowstore.Schema{
	Table: TableDailyScores,
	Defaults: []string{
		"date", "game_id", "activity", "score", "chaos_level", "rule_count", "dare_count", "created_at",
	},
	Fields: []rowstore.Field{
		{Key: "date", Aliases: []string{"date"}},
		{Key: "gameId", Aliases: []string{"game_id", "game id"}},
		{Key: "activity", Aliases: []string{"activity"}},
		{Key: "score", Aliases: []string{"score"}},
		{Key: "chaosLevel", Aliases: []string{"chaos_level", "chaos level"}},
		{Key: "ruleCount", Aliases: []string{"rule_count", "rule count", "number of rules"}},
		{Key: "dareCount", Aliases: []string{"dare_count", "dare count", "number of dares"}},
		{Key: "createdAt", Aliases: []string{"created_at", "created at"}},
	},
}

var WinnersSchema = rowstore.Schema{
	Table: TableWinners,
	Defaults: []string{
		"date", "game_id", "activity", "score", "status", "image_prompt", "image_url",
		"social_caption", "posted_at", "created_at",
	},
	Fields: []rowstore.Field{
		{Key: "date", Aliases: []string{"date"}},
		{Key: "gameId", Aliases: []string{"game_id", "game id"}},
		{Key: "activity", Aliases: []string{"activity"}},
		{Key: "score", Aliases: []string{"score"}},
		{Key: "status", Aliases: []string{"status"}},
		{Key: "imagePrompt", Aliases: []string{"image_prompt", "image prompt"}},
		{Key: "imageUrl", Aliases: []string{"image_url", "image url"}},
		{Key: "socialCaption", Aliases: []string{"social_caption", "social caption"}},
		{Key: "postedAt", Aliases: []string{"posted_at", "posted at"}},
		{Key: "createdAt", Aliases: []string{"created_at", "created at"}},
	},
}
