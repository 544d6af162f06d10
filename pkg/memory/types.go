package memory

import "time"

// Memory is a single remembered fact, retrieved by semantic similarity.
type Memory struct {
	// ID is the store-assigned identifier.
	ID int64

	// Text is the remembered fact as the user stated it.
	Text string

	// CreatedAt is when the fact was stored.
	CreatedAt time.Time

	// Distance is the vector-space distance to the query embedding when the
	// memory was returned from Search. Lower means more similar. Zero when
	// the memory was not produced by a search.
	Distance float64
}

// Turn records one completed exchange between the user and the assistant.
type Turn struct {
	// ID is the store-assigned identifier.
	ID int64

	// UserText is what the user said, after filtering and wake-word stripping.
	UserText string

	// AssistantText is the assistant's spoken reply.
	AssistantText string

	// Source records which transcription path produced UserText:
	// "realtime" for the session's own transcript, "fallback" for local STT.
	Source string

	// StartedAt is when the user's utterance was committed.
	StartedAt time.Time

	// Latency is the time from commit to the end of the assistant's response.
	Latency time.Duration
}

// DailySummary is an LLM-written recap of one day's conversation.
type DailySummary struct {
	// Day is the calendar day the summary covers, truncated to midnight UTC.
	Day time.Time

	// Summary is the recap text.
	Summary string

	// Tags are short topic labels extracted alongside the recap.
	Tags []string

	// CreatedAt is when the summary was generated.
	CreatedAt time.Time
}
