// Package pipeline - agent.go implements the bounded tool-calling loop shared
// by the discovery and research stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/llm"
)

// nudgeMessage is appended when the model replies without calling a tool.
const nudgeMessage = "Please make sure to call the appropriate tools to either conduct the research or complete it"

// errToolBudgetExhausted marks a loop that ran out of iterations without
// calling its done tool. Callers decide whether to treat that as an error
// or continue with partial results.
var errToolBudgetExhausted = errors.New("tool iteration budget exhausted")

// toolLoop configures one bounded agent loop.
type toolLoop struct {
	step        string
	tier        llm.ModelTier
	system      string
	initialUser string
	specs       []llm.ToolSpec
	doneTool    string
}

// runToolLoop drives the agent until it calls the done tool or the iteration
// budget runs out. It returns the done tool's arguments. Tool failures are
// fed back into the transcript as error results rather than aborting the
// loop; only model invocation errors are fatal.
func (p *Pipeline) runToolLoop(ctx context.Context, appID uuid.UUID, loop toolLoop) (map[string]any, error) {
	messages := []llm.Message{{Role: llm.RoleUser, Text: loop.initialUser}}

	for iteration := 1; iteration <= maxToolIterations; iteration++ {
		resp, err := p.invoke(ctx, llm.Request{
			Tier:     loop.tier,
			System:   loop.system,
			Messages: messages,
			Tools:    loop.specs,
		})
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			// Re-prompt the model instead of giving up on a chatty turn
			messages = append(messages,
				llm.Message{Role: llm.RoleModel, Text: resp.Text},
				llm.Message{Role: llm.RoleUser, Text: nudgeMessage},
			)
			continue
		}

		if resp.ToolCalls[0].Name == loop.doneTool {
			return resp.ToolCalls[0].Args, nil
		}

		results := p.dispatchAll(ctx, appID, loop.step, iteration, resp.ToolCalls)
		messages = append(messages,
			llm.Message{Role: llm.RoleModel, Text: resp.Text, ToolCalls: resp.ToolCalls},
			llm.Message{Role: llm.RoleTool, ToolResults: results},
		)
	}

	return nil, fmt.Errorf("%s did not complete within %d iterations: %w", loop.step, maxToolIterations, errToolBudgetExhausted)
}

// dispatchAll executes a turn's tool calls concurrently. Each call's failure
// is isolated into an error result and a failed tool.execution event.
func (p *Pipeline) dispatchAll(ctx context.Context, appID uuid.UUID, step string, iteration int, calls []llm.ToolCall) []llm.ToolResult {
	results := make([]llm.ToolResult, len(calls))

	g, gCtx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			p.emitter.ToolExecution(gCtx, appID, step, call.Name, db.EventStarted, iteration, nil, nil)

			content, err := p.tools.Dispatch(gCtx, call)
			if err != nil {
				p.emitter.ToolExecution(gCtx, appID, step, call.Name, db.EventFailed, iteration, nil, errInfo(err))
				results[i] = llm.ToolResult{
					Name:    call.Name,
					Content: fmt.Sprintf("ERROR: tool execution failed: %v", err),
					IsError: true,
				}
				return nil
			}

			p.emitter.ToolExecution(gCtx, appID, step, call.Name, db.EventSucceeded, iteration, nil, nil)
			results[i] = llm.ToolResult{Name: call.Name, Content: content}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
