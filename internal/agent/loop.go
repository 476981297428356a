// internal/agent/loop.go
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"studynet-advisor/internal/common/logger"
)

const counselorSystemPrompt = `You are an AI counselor for StudyNet, helping international students find universities and courses in Australia.

IMPORTANT GUIDELINES:
1. Always be helpful, friendly, and professional
2. For course searches, use the search_courses tool with appropriate filters
3. For university comparisons, use the compare_providers tool
4. For guidance questions (visa, applications), use the search_guidance tool
5. Always cite specific course names, fees, and provider names from your search results
6. If you don't find results, suggest the student broaden their search criteria
7. Format responses with clear sections and bullet points when helpful`

const exhaustedFallback = "I apologize, but I'm having trouble processing that request right now. " +
	"Could you please rephrase your question or be more specific about what you're looking for?"

// Loop drives the bounded tool-calling conversation with the model. Each
// step either answers or requests tool calls, whose results are fed back
// as tool messages.
type Loop struct {
	llm      llms.Model
	registry *Registry
	maxSteps int
	logger   logger.Logger
}

// LoopResult is the synthesized answer plus the tools invoked to reach it.
type LoopResult struct {
	Answer    string
	ToolsUsed []string
}

func NewLoop(model llms.Model, registry *Registry, maxSteps int, log logger.Logger) *Loop {
	if maxSteps <= 0 {
		maxSteps = 5
	}
	return &Loop{
		llm:      model,
		registry: registry,
		maxSteps: maxSteps,
		logger:   log.With(map[string]interface{}{"component": "reasoning_loop"}),
	}
}

// Run executes the loop for a single student question. history is the
// windowed session memory, oldest first.
func (l *Loop) Run(ctx context.Context, history []Message, query string) (*LoopResult, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, counselorSystemPrompt))

	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == RoleAI {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, query))

	tools := l.toolDefinitions()
	result := &LoopResult{}

	for step := 0; step < l.maxSteps; step++ {
		resp, err := l.llm.GenerateContent(ctx, messages,
			llms.WithTools(tools),
			llms.WithTemperature(0.1),
		)
		if err != nil {
			return nil, fmt.Errorf("model call failed on step %d: %w", step+1, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("model returned no choices on step %d", step+1)
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			result.Answer = choice.Content
			return result, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextPart(choice.Content))
		}
		for _, call := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, call)
		}
		messages = append(messages, assistant)

		for _, call := range choice.ToolCalls {
			messages = append(messages, l.execute(ctx, call, result))
		}
	}

	l.logger.Warn("reasoning loop exhausted", map[string]interface{}{
		"max_steps":  l.maxSteps,
		"tools_used": result.ToolsUsed,
	})
	result.Answer = exhaustedFallback
	return result, nil
}

// execute runs one tool call and wraps its output as a tool message. Tool
// errors go back to the model as content so it can correct itself.
func (l *Loop) execute(ctx context.Context, call llms.ToolCall, result *LoopResult) llms.MessageContent {
	name := call.FunctionCall.Name
	result.ToolsUsed = append(result.ToolsUsed, name)

	var content string
	input := map[string]interface{}{}
	if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &input); err != nil {
		content = fmt.Sprintf("Error: tool arguments were not valid JSON: %v", err)
	} else {
		output, err := l.registry.Invoke(ctx, name, input)
		if err != nil {
			content = fmt.Sprintf("Error: %v", err)
		} else {
			content = output
		}
	}

	l.logger.Debug("tool call completed", map[string]interface{}{
		"tool":         name,
		"tool_call_id": call.ID,
	})

	return llms.MessageContent{
		Role: llms.ChatMessageTypeTool,
		Parts: []llms.ContentPart{
			llms.ToolCallResponse{
				ToolCallID: call.ID,
				Name:       name,
				Content:    content,
			},
		},
	}
}

func (l *Loop) toolDefinitions() []llms.Tool {
	tools := l.registry.Tools()
	defs := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return defs
}
