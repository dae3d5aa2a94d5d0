// Package generator produces one stat card per statistic: a visual prompt, a
// rendered image URL, and a short motivational quotation.
//
// THE TASK GRAPH:
// prompt → image and prompt → quotation are the only real data dependencies;
// image and quotation are independent of each other once the prompt exists.
// They still run in sequence here — one statistic means at most three
// in-flight paid calls either way, and sequential keeps failure attribution
// simple. If generation latency ever matters, image and quotation are the
// safe pair to overlap.
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/github-wrapped/internal/apperror"
	"github.com/sakif/github-wrapped/internal/model"
)

const (
	promptSystem = "You are an AI generating prompts for stunning visual designs."
	quoteSystem  = "You are an AI specialized in creating motivational and inspiring quotes for achievements."

	// Appended to the user instruction on the fallback tier — the smaller
	// model tends to ramble without an explicit cap.
	fallbackLengthConstraint = " Prompt length must be below 1000 words."
)

func promptInstruction(statName model.StatName, statValue string) string {
	return fmt.Sprintf(
		"Create a detailed, visually inspiring prompt for generating a DALL·E image based on the following GitHub stat: "+
			"'%s' with a value of %s. "+
			"The prompt should include vibrant imagery, modern icons, a rich color palette, and elements that symbolize the magnitude of the number. "+
			"The design should be motivational and suitable for sharing on LinkedIn and Instagram.",
		statName, statValue,
	)
}

func quoteInstruction(statName model.StatName, statValue, prompt string) string {
	return fmt.Sprintf(
		"Write an inspiring and motivational quote based on this GitHub stat: '%s' with a value of %s. "+
			"The quote should emphasize growth, creativity, and impact, and should resonate with developers and tech enthusiasts. "+
			"Keep in mind that the design is already made with this prompt: %s. "+
			"Give a short quotation that will be displayed on the image. "+
			"The quote should help the viewer to understand the significance of the stat and inspire them to achieve more.",
		statName, statValue, prompt,
	)
}

func quoteFallbackInstruction(statName model.StatName, statValue string) string {
	return fmt.Sprintf(
		"Write an inspiring and motivational quote based on this GitHub stat: '%s' with a value of %s. "+
			"The quote should emphasize growth, creativity, and impact, and should resonate with developers and tech enthusiasts.",
		statName, statValue,
	)
}

// Generator drives the three-step content workflow for one statistic.
type Generator struct {
	chat   ChatClient
	images ImageClient
	policy FallbackPolicy
	logger *slog.Logger
}

// New creates a Generator.
func New(chat ChatClient, images ImageClient, policy FallbackPolicy, logger *slog.Logger) *Generator {
	return &Generator{
		chat:   chat,
		images: images,
		policy: policy,
		logger: logger,
	}
}

// Generate produces an unpersisted ArtifactRecord for one statistic.
//
// The three steps run in sequence: prompt (tiered text model), image (no
// fallback tier — image generation either works or the artifact fails), then
// quotation (same tiered policy, seeded with the generated prompt for
// context). A failure at any step fails THIS artifact only; whether that
// aborts the rest of the run is the orchestrator's policy, not ours.
func (g *Generator) Generate(ctx context.Context, statName model.StatName, statValue string) (*model.ArtifactRecord, error) {
	instruction := promptInstruction(statName, statValue)
	prompt, err := g.policy.Complete(ctx, g.chat, promptSystem,
		instruction,
		instruction+fallbackLengthConstraint,
	)
	if err != nil {
		return nil, apperror.GenerationFailed("prompt", err)
	}

	imageURL, err := g.images.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, apperror.GenerationFailed("image", err)
	}

	quotation, err := g.policy.Complete(ctx, g.chat, quoteSystem,
		quoteInstruction(statName, statValue, prompt),
		quoteFallbackInstruction(statName, statValue),
	)
	if err != nil {
		return nil, apperror.GenerationFailed("quotation", err)
	}

	g.logger.Info("artifact generated",
		slog.String("stat", string(statName)),
		slog.String("value", statValue),
	)

	return &model.ArtifactRecord{
		StatName:  statName,
		StatValue: statValue,
		Prompt:    prompt,
		Quotation: quotation,
		ImageURL:  imageURL,
	}, nil
}
