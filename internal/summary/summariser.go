// Package summary generates daily conversation recaps. Each finished day
// with logged turns gets a short LLM-written summary plus key tags, stored in
// the memory layer. Recent summaries are folded into the realtime session's
// instructions so the assistant carries context across days.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/llm"
)

// summaryPrompt asks for memory-oriented output in a parseable two-line
// format. The constraints mirror what a navigation assistant needs to recall:
// environments, landmarks, hazards, not narrative.
const summaryPrompt = `You are generating long-term memory for a blind user's voice assistant.

Below are the user's interactions for the day:
%s
Write a compact, factual memory summary (4-6 sentences) that includes:
- Common environments
- Likely place type ONLY if confident
- Navigation difficulty
- Important landmarks
- Safety concerns
- User movement behavior

Do NOT mention the date.
Do NOT write a story.
Do NOT use phrases like "the individual".

Return format:
Summary: <memory-oriented summary>
Key_Tags: <comma-separated tags>`

// Summariser writes daily summaries for days that have turns but no recap.
type Summariser struct {
	store memory.SummaryStore
	llm   llm.Provider
}

// New creates a Summariser.
func New(store memory.SummaryStore, provider llm.Provider) *Summariser {
	return &Summariser{store: store, llm: provider}
}

// Run summarises every finished day that still lacks a summary. The current
// day is always excluded so a day is only summarised once it is over.
// Per-day failures are logged and skipped; Run returns the first storage
// error that prevents it from making progress.
func (s *Summariser) Run(ctx context.Context) error {
	pending, err := s.store.DaysPendingSummary(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("summary: list pending days: %w", err)
	}

	for _, day := range pending {
		if err := s.summariseDay(ctx, day); err != nil {
			slog.Warn("summary: day skipped", "day", day.Format("2006-01-02"), "error", err)
		}
	}
	return nil
}

// Start runs the summariser immediately and then on every interval tick
// until ctx is cancelled. It blocks; run it in its own goroutine.
func (s *Summariser) Start(ctx context.Context, interval time.Duration) {
	if err := s.Run(ctx); err != nil {
		slog.Warn("summary: run failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				slog.Warn("summary: run failed", "error", err)
			}
		}
	}
}

// summariseDay generates and stores the recap for one day.
func (s *Summariser) summariseDay(ctx context.Context, day time.Time) error {
	turns, err := s.store.TurnsOn(ctx, day)
	if err != nil {
		return fmt.Errorf("load turns: %w", err)
	}
	if len(turns) == 0 {
		return nil
	}

	var sb strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&sb, "User: %s\nAssistant: %s\n\n", t.UserText, t.AssistantText)
	}

	resp, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(summaryPrompt, sb.String())},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return fmt.Errorf("complete: %w", err)
	}

	text, tags := parseSummary(resp.Content)
	if text == "" {
		return fmt.Errorf("model returned no Summary line")
	}

	if err := s.store.SaveSummary(ctx, memory.DailySummary{
		Day:       day,
		Summary:   text,
		Tags:      tags,
		CreatedAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	slog.Info("summary: day summarised",
		"day", day.Format("2006-01-02"),
		"turns", len(turns),
		"tags", tags)
	return nil
}

// InstructionSupplement folds the n most recent summaries into a block of
// text suitable for appending to session instructions. Returns the empty
// string when no summaries exist or the store fails.
func (s *Summariser) InstructionSupplement(ctx context.Context, n int) string {
	summaries, err := s.store.RecentSummaries(ctx, n)
	if err != nil {
		slog.Debug("summary: load recent failed", "error", err)
		return ""
	}
	if len(summaries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("What you remember from recent days:\n")
	for _, ds := range summaries {
		fmt.Fprintf(&sb, "- %s\n", ds.Summary)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// parseSummary extracts the summary text and tags from the model's two-line
// response format.
func parseSummary(output string) (summary string, tags []string) {
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "summary:"):
			summary = strings.TrimSpace(line[len("summary:"):])
		case strings.HasPrefix(lower, "key_tags:"):
			for _, tag := range strings.Split(line[len("key_tags:"):], ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					tags = append(tags, tag)
				}
			}
		}
	}
	return summary, tags
}
