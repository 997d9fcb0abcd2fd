package mcp

import "github.com/mark3labs/mcp-go/mcp"

var tagEnum = mcp.Enum("Family", "Personal", "Office", "Other")

var addToolDef = mcp.NewTool("journal_add",
	mcp.WithDescription("Record a mood journal entry. If the store is unavailable the entry is kept in memory and a STORE_UNAVAILABLE error is returned."),
	mcp.WithString("journal", mcp.Required(), mcp.Description("Free-text journal content")),
	mcp.WithNumber("mood_value", mcp.Required(), mcp.Min(1), mcp.Max(9), mcp.Description("Mood from 1 (very unpleasant) to 9 (very pleasant)")),
	mcp.WithString("tag", tagEnum, mcp.Description("Life area. Default: Personal")),
	mcp.WithString("emotion", mcp.Description("Emotion label. Default: the first emotion for the mood")),
)

var listToolDef = mcp.NewTool("journal_list",
	mcp.WithDescription("List stored journal entries, newest first."),
	mcp.WithString("tag", tagEnum, mcp.Description("Only entries with this tag")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 200)")),
	mcp.WithNumber("offset", mcp.Description("Entries to skip")),
)

var getToolDef = mcp.NewTool("journal_get",
	mcp.WithDescription("Fetch one journal entry with its mood classification."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id")),
)

var deleteToolDef = mcp.NewTool("journal_delete",
	mcp.WithDescription("Permanently delete a journal entry."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id")),
)

var statsToolDef = mcp.NewTool("journal_stats",
	mcp.WithDescription("Derived mood statistics: average, distribution, weekday averages, recent trend, emotions and word cloud."),
	mcp.WithString("tag", tagEnum, mcp.Description("Only entries with this tag")),
	mcp.WithString("timezone", mcp.Description("IANA zone for weekday bucketing, e.g. Europe/Paris")),
)

var seedToolDef = mcp.NewTool("journal_seed",
	mcp.WithDescription("Load the sample journal entries when the journal has fewer than the configured threshold."),
	mcp.WithBoolean("force", mcp.Description("Seed regardless of the current entry count")),
)

var classifyToolDef = mcp.NewTool("mood_classify",
	mcp.WithDescription("Label, emoji, color and emotion vocabulary for a mood value."),
	mcp.WithNumber("value", mcp.Required(), mcp.Min(0), mcp.Max(9), mcp.Description("Mood value 1-9, or 0 for absent")),
)

var exportToolDef = mcp.NewTool("journal_export",
	mcp.WithDescription("Export every entry to a JSONL file."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path. Default: <baseDir>/exports/journal-<timestamp>.jsonl")),
)

var importToolDef = mcp.NewTool("journal_import",
	mcp.WithDescription("Import entries from a JSONL export. Entries whose uid already exists are skipped."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
)
