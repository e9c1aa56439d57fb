// Package assistant answers free-form questions about the Lagos and Nairobi
// schedules, grounding the language model in the formatted schedule text.
package assistant

import (
	"context"
	"fmt"
	"io"
	"strings"

	"devfestsched/schedule"

	"go.uber.org/zap"
)

// Canned replies for questions that never reach the model.
const (
	NoDataBoth    = "I currently don't have schedule details for either DevFest Lagos or DevFest Nairobi from their official sources. Please check back later or visit their official websites."
	NoDataLagos   = "I currently don't have schedule details for DevFest Lagos from the official source. Please check back later or visit the official DevFest Lagos website."
	NoDataNairobi = "I currently don't have schedule details for DevFest Nairobi from the official source (the scraper couldn't fetch it or it's not published yet). Please check the official DevFest Nairobi website for the latest updates."
	Clarify       = "To help you with schedule information, could you please specify whether you're interested in DevFest Lagos or DevFest Nairobi?"
)

// NoAnswer is what the model is told to say when the schedule lacks the answer.
const NoAnswer = "Based on the currently available schedule, that information is not listed."

const (
	lagos   = "lagos"
	nairobi = "nairobi"
)

// scheduleKeywords mark a question as needing schedule data.
var scheduleKeywords = []string{
	"session", "talk", "speaker", "track", "workshop", "keynote",
	"schedule", "agenda", "when is", "what time", "who is speaking", "room for",
}

// Generator produces the final answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StreamGenerator writes the answer to w as the model produces it.
type StreamGenerator interface {
	GenerateStream(ctx context.Context, prompt string, w io.Writer) error
}

// Schedules yields the formatted schedule text of an event location.
type Schedules interface {
	Text(ctx context.Context, location string) string
}

type Assistant struct {
	schedules Schedules
	gen       Generator
	log       *zap.Logger
}

func New(s Schedules, gen Generator, log *zap.Logger) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{schedules: s, gen: gen, log: log}
}

// Route describes how a question will be answered.
type Route struct {
	Lagos, Nairobi bool
	// NeedsSchedule is set when the question mentions a schedule keyword.
	NeedsSchedule bool
}

func RouteQuestion(question string) Route {
	q := strings.ToLower(question)
	r := Route{
		Lagos:   strings.Contains(q, lagos),
		Nairobi: strings.Contains(q, nairobi),
	}
	for _, k := range scheduleKeywords {
		if strings.Contains(q, k) {
			r.NeedsSchedule = true
			break
		}
	}
	return r
}

// Ask answers question. Canned replies are returned without calling the
// generator; generator failures are returned as errors.
func (a *Assistant) Ask(ctx context.Context, question string) (string, error) {
	prompt, canned := a.prompt(ctx, question)
	if prompt == "" {
		return canned, nil
	}
	answer, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

// AskStream is Ask writing to w. When the generator can stream, chunks are
// written as they arrive.
func (a *Assistant) AskStream(ctx context.Context, question string, w io.Writer) error {
	prompt, canned := a.prompt(ctx, question)
	if prompt == "" {
		_, err := io.WriteString(w, canned)
		return err
	}
	if sg, ok := a.gen.(StreamGenerator); ok {
		if err := sg.GenerateStream(ctx, prompt, w); err != nil {
			return fmt.Errorf("generate answer: %w", err)
		}
		return nil
	}
	answer, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generate answer: %w", err)
	}
	_, err = io.WriteString(w, answer)
	return err
}

// prompt routes question. It returns the prompt for the model, or an empty
// prompt and the canned reply when the model is not needed.
func (a *Assistant) prompt(ctx context.Context, question string) (prompt, canned string) {
	a.log.Info("received query", zap.String("query", question))
	route := RouteQuestion(question)

	var sections []string
	if route.Lagos {
		if text := a.schedules.Text(ctx, lagos); !schedule.IsUnavailable(text) {
			sections = append(sections, text)
		}
	}
	if route.Nairobi {
		if text := a.schedules.Text(ctx, nairobi); !schedule.IsUnavailable(text) {
			sections = append(sections, text)
		}
	}

	intro := "You are a helpful DevFest Schedule Assistant.\n"
	switch {
	case route.Lagos && route.Nairobi:
		intro += "You have access to DevFest schedules for BOTH Lagos and Nairobi if available from their official sources.\n"
		if len(sections) == 0 {
			return "", NoDataBoth
		}
	case route.Lagos:
		intro += "You have access to the DevFest Lagos schedule if available from its official source.\n"
		if len(sections) == 0 {
			return "", NoDataLagos
		}
	case route.Nairobi:
		intro += "You have access to the DevFest Nairobi schedule if available from its official source.\n"
		if len(sections) == 0 {
			return "", NoDataNairobi
		}
	case route.NeedsSchedule:
		a.log.Info("query implies need for schedule but no city specified, asking for clarification")
		return "", Clarify
	}

	if len(sections) > 0 {
		prompt = SchedulePrompt(intro, strings.Join(sections, "\n\n"), question)
	} else {
		a.log.Info("general query, no city; using general prompt without schedule context")
		prompt = GeneralPrompt(question)
	}
	a.log.Debug("sending query to model", zap.Int("promptBytes", len(prompt)))
	return prompt, ""
}

// SchedulePrompt grounds the model in schedule and restricts it to it.
func SchedulePrompt(intro, schedule, question string) string {
	return fmt.Sprintf(`
%s
Answer the user's question based *only* on the provided schedule information below.
If the information to answer the question is not in the schedule, clearly state that "%s"
Do not make up information or assume details not present.

--- START OF SCHEDULE DATA ---
%s
--- END OF SCHEDULE DATA ---

User Question: %s

Assistant Response:
`, intro, NoAnswer, schedule, question)
}

// GeneralPrompt is used for questions that name no event.
func GeneralPrompt(question string) string {
	return fmt.Sprintf(`
You are a helpful DevFest Schedule Assistant.
The user asked: "%s"
This query does not specify a DevFest location (e.g., Lagos or Nairobi) and might be a general question.
Please respond to the user.
If the question can be answered generally about DevFests without needing specific schedules (e.g., "What is a DevFest?"), please do so.
If you suspect they MIGHT need schedule data but didn't ask directly (e.g. "Tell me about AI"), you can briefly answer generally and then offer to provide schedule details if they specify a location.
Do not invent schedule details if none were provided for context.
`, question)
}
