// Package agent runs the question-answering loop: send the conversation to
// the model, dispatch any tool calls it requests, feed the results back, and
// repeat until the model produces a final answer. The loop is one state
// machine over provider-neutral shapes; which LLM service is on the other
// end only changes the adapter, never the loop.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atakanozcan/docagent/config"
	"github.com/atakanozcan/docagent/llms"
	"github.com/atakanozcan/docagent/tools"
)

// ============================================================================
// AGENT - QUESTION ANSWERING ORCHESTRATION
// ============================================================================

// state is the loop's position between suspension points.
type state int

const (
	awaitingModel state = iota
	dispatchingTools
	done
)

// fallbackAnswer is returned when a final response carries no text.
const fallbackAnswer = "I couldn't generate a response."

// Observer receives a synchronous notification after each tool result. It is
// a side channel for monitoring: panics are recovered and failures never
// influence the loop.
type Observer func(toolName string, args map[string]interface{}, resultText string)

// Agent answers questions with an LLM and a frozen tool catalog. Construct
// it once; concurrent AnswerQuestion calls are safe because each builds its
// own conversation and the registry is read-only after startup.
type Agent struct {
	provider     llms.LLMProvider
	registry     *tools.Registry
	systemPrompt string
	maxTurns     int
}

// New creates an agent from its collaborators.
func New(provider llms.LLMProvider, registry *tools.Registry, cfg *config.AgentConfig) *Agent {
	return &Agent{
		provider:     provider,
		registry:     registry,
		systemPrompt: cfg.SystemPrompt,
		maxTurns:     cfg.MaxTurns,
	}
}

// Answer is the outcome of one question-answer exchange.
type Answer struct {
	Text       string        `json:"text"`
	ExchangeID string        `json:"exchange_id"`
	Turns      int           `json:"turns"`
	ToolCalls  int           `json:"tool_calls"`
	Usage      llms.Usage    `json:"usage"`
	Elapsed    time.Duration `json:"elapsed"`
}

// AnswerQuestion runs the loop for one question. The observer may be nil.
// Model-boundary failures are returned as errors; tool failures stay inside
// the conversation as error-content results.
func (a *Agent) AnswerQuestion(ctx context.Context, question string, observer Observer) (*Answer, error) {
	started := time.Now()
	exchangeID := uuid.NewString()

	log := slog.With("exchange_id", exchangeID)
	log.Info("Answering question", "question", question)

	messages := []llms.Message{
		{Role: llms.RoleSystem, Content: a.systemPrompt},
		{Role: llms.RoleUser, Content: question},
	}
	catalog := a.registry.Definitions()

	answer := &Answer{ExchangeID: exchangeID}
	current := awaitingModel

	for current != done {
		if a.maxTurns > 0 && answer.Turns >= a.maxTurns {
			log.Warn("Turn limit reached", "turns", answer.Turns)
			answer.Text = fmt.Sprintf("I stopped after %d turns without reaching a final answer.", answer.Turns)
			break
		}

		turn, err := a.provider.Generate(ctx, messages, catalog)
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}
		answer.Turns++
		answer.Usage.InputTokens += turn.Usage.InputTokens
		answer.Usage.OutputTokens += turn.Usage.OutputTokens

		switch {
		case turn.HasToolCalls():
			current = dispatchingTools

			// The assistant turn goes into the conversation verbatim,
			// text and tool calls both, before any tool runs.
			messages = append(messages, llms.Message{
				Role:      llms.RoleAssistant,
				Content:   turn.Text,
				ToolCalls: turn.ToolCalls,
			})

			messages = append(messages, a.dispatch(ctx, log, turn.ToolCalls, observer)...)
			answer.ToolCalls += len(turn.ToolCalls)
			current = awaitingModel

		case turn.StopReason == llms.StopEndTurn:
			current = done
			answer.Text = turn.Text
			if answer.Text == "" {
				answer.Text = fallbackAnswer
			}

		default:
			// The caller always gets some string, even when the
			// provider signals something we don't recognize.
			current = done
			answer.Text = fmt.Sprintf("Unexpected stop reason: %s", turn.StopReason)
			log.Warn("Unexpected stop reason", "stop_reason", turn.StopReason)
		}
	}

	answer.Elapsed = time.Since(started)
	log.Info("Question answered",
		"turns", answer.Turns,
		"tool_calls", answer.ToolCalls,
		"elapsed", answer.Elapsed,
	)
	return answer, nil
}

// dispatch runs one batch of tool calls sequentially in model order and
// returns the tool-result messages, one per call, keyed by call ID.
func (a *Agent) dispatch(ctx context.Context, log *slog.Logger, calls []llms.ToolCall, observer Observer) []llms.Message {
	results := make([]llms.Message, 0, len(calls))

	for _, call := range calls {
		log.Info("Using tool", "tool", call.Name, "arguments", call.Arguments)

		result := a.registry.Execute(ctx, call.Name, call.Arguments)
		log.Debug("Tool finished",
			"tool", call.Name,
			"success", result.Success,
			"elapsed", result.ExecutionTime,
		)

		notifyObserver(log, observer, call.Name, call.Arguments, result.Content)

		results = append(results, llms.Message{
			Role:       llms.RoleTool,
			ToolCallID: call.ID,
			Content:    result.Content,
		})
	}

	return results
}

// notifyObserver fires the hook, swallowing panics so a broken observer
// cannot take down the conversation.
func notifyObserver(log *slog.Logger, observer Observer, toolName string, args map[string]interface{}, resultText string) {
	if observer == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Observer panicked", "tool", toolName, "panic", r)
		}
	}()

	observer(toolName, args, resultText)
}
