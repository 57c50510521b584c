package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/leadline/diagnostic/backend/internal/model/dialogue"
	"github.com/leadline/diagnostic/backend/internal/service/engine"
)

const rewordSystemPrompt = "You are the diagnostic agent on a sales " +
	"outsourcing site. Rephrase the scripted line you are given so it " +
	"reads like a natural reply to the visitor's last message. Keep " +
	"the same meaning, claims and numbers. One short paragraph, no " +
	"greetings, no markdown."

// LLM rewords the scripted agent line through a chat model. The script
// still decides everything structural: which step fires, the phase,
// the estimate, the CTA reveal and the deferred follow-up all come
// from the engine; the model only rewrites the wording. Any model
// failure falls back to the scripted text.
type LLM struct {
	engine  *engine.Engine
	rng     engine.RandomSource
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewLLM compiles the rewording chain against the provided chat model.
func NewLLM(ctx context.Context, chatModel model.ChatModel, eng *engine.Engine, rng engine.RandomSource, timeout time.Duration) (*LLM, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("Visitor said: {visitor}\nScripted line: {scripted}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reword chain: %w", err)
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LLM{engine: eng, rng: rng, chain: runnable, timeout: timeout}, nil
}

func (l *LLM) Diagnose(ctx context.Context, userMessage string, turnIndex int, phase dialogue.Phase) (engine.Result, error) {
	res, err := l.engine.NextTurn(userMessage, turnIndex, phase, l.rng)
	if err != nil {
		return engine.Result{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	reply, err := l.chain.Invoke(callCtx, map[string]any{
		"system":   rewordSystemPrompt,
		"visitor":  userMessage,
		"scripted": res.AgentText,
	})
	if err != nil {
		log.Printf("[agent] reword failed, using scripted line: %v", err)
		return res, nil
	}

	if text := strings.TrimSpace(reply.Content); text != "" {
		res.AgentText = text
	}
	return res, nil
}
