package generator

import (
	"context"
	"fmt"
)

// ChatClient is the slice of the OpenAI client the text-generation path
// needs. Declared here (at the consumer) so tests can substitute a fake —
// the same accept-an-interface pattern the service layer uses for its
// repository.
type ChatClient interface {
	ChatCompletion(ctx context.Context, model, system, user string) (string, error)
}

// ImageClient is the image-generation slice of the OpenAI client.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// FallbackPolicy is the two-tier model policy for text generation: try the
// primary (higher-capability) model, and on ANY failure retry exactly once
// against the fallback model with the fallback instruction. Both failing
// fails the step.
//
// Keeping the policy as a plain value — rather than inlining try/retry at
// each call site — means the tier behaviour is tested once, independent of
// what is being generated.
type FallbackPolicy struct {
	Primary  string
	Fallback string
}

// Complete runs the tiered completion. primaryUser and fallbackUser may
// differ: the fallback instruction typically carries an extra length
// constraint to suit the smaller model.
func (p FallbackPolicy) Complete(ctx context.Context, chat ChatClient, system, primaryUser, fallbackUser string) (string, error) {
	content, primaryErr := chat.ChatCompletion(ctx, p.Primary, system, primaryUser)
	if primaryErr == nil {
		return content, nil
	}

	content, fallbackErr := chat.ChatCompletion(ctx, p.Fallback, system, fallbackUser)
	if fallbackErr == nil {
		return content, nil
	}

	return "", fmt.Errorf("%s: %v; fallback %s: %w", p.Primary, primaryErr, p.Fallback, fallbackErr)
}
