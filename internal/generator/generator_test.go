package generator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sakif/github-wrapped/internal/apperror"
	"github.com/sakif/github-wrapped/internal/model"
)

// fakeChat scripts chat-completion responses per model, recording every call.
type chatCall struct {
	Model  string
	System string
	User   string
}

type fakeChat struct {
	calls    []chatCall
	failFor  map[string]error // model → error to return
	response string
}

func (f *fakeChat) ChatCompletion(_ context.Context, chatModel, system, user string) (string, error) {
	f.calls = append(f.calls, chatCall{Model: chatModel, System: system, User: user})
	if err, ok := f.failFor[chatModel]; ok {
		return "", err
	}
	return f.response, nil
}

type fakeImages struct {
	calls     []string
	url       string
	returnErr error
}

func (f *fakeImages) GenerateImage(_ context.Context, prompt string) (string, error) {
	f.calls = append(f.calls, prompt)
	if f.returnErr != nil {
		return "", f.returnErr
	}
	return f.url, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testPolicy() FallbackPolicy {
	return FallbackPolicy{Primary: "gpt-4", Fallback: "gpt-3.5-turbo"}
}

func TestGenerate_Success(t *testing.T) {
	chat := &fakeChat{response: "generated text"}
	images := &fakeImages{url: "https://images.example/card.png"}
	g := New(chat, images, testPolicy(), testLogger())

	art, err := g.Generate(context.Background(), model.StatTotalCommits, "1234")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if art.StatName != model.StatTotalCommits {
		t.Errorf("StatName = %q, want %q", art.StatName, model.StatTotalCommits)
	}
	if art.StatValue != "1234" {
		t.Errorf("StatValue = %q, want %q", art.StatValue, "1234")
	}
	if art.Prompt != "generated text" || art.Quotation != "generated text" {
		t.Errorf("Prompt/Quotation not filled from chat output: %+v", art)
	}
	if art.ImageURL != "https://images.example/card.png" {
		t.Errorf("ImageURL = %q", art.ImageURL)
	}

	// Happy path: two chat calls (prompt, quote), both on the primary model.
	if len(chat.calls) != 2 {
		t.Fatalf("chat calls = %d, want 2", len(chat.calls))
	}
	for _, call := range chat.calls {
		if call.Model != "gpt-4" {
			t.Errorf("model = %q, want gpt-4", call.Model)
		}
	}

	// The image call receives the generated prompt verbatim.
	if len(images.calls) != 1 || images.calls[0] != "generated text" {
		t.Errorf("image calls = %v", images.calls)
	}

	// The stat name and value are embedded in the instructions.
	if !strings.Contains(chat.calls[0].User, "'Total Commits' with a value of 1234") {
		t.Errorf("prompt instruction missing stat: %q", chat.calls[0].User)
	}
	// The quote instruction carries the generated prompt for context.
	if !strings.Contains(chat.calls[1].User, "generated text") {
		t.Errorf("quote instruction missing prompt context: %q", chat.calls[1].User)
	}
}

// TestGenerate_PrimaryFallsBack: primary tier fails, fallback succeeds — the
// artifact is still produced and the run is not failed.
func TestGenerate_PrimaryFallsBack(t *testing.T) {
	chat := &fakeChat{
		response: "fallback text",
		failFor:  map[string]error{"gpt-4": errors.New("model overloaded")},
	}
	images := &fakeImages{url: "https://images.example/card.png"}
	g := New(chat, images, testPolicy(), testLogger())

	art, err := g.Generate(context.Background(), model.StatFollowers, "42")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if art.Prompt != "fallback text" {
		t.Errorf("Prompt = %q, want fallback output", art.Prompt)
	}

	// Four chat calls: prompt primary (fails) + fallback, quote primary
	// (fails) + fallback.
	if len(chat.calls) != 4 {
		t.Fatalf("chat calls = %d, want 4", len(chat.calls))
	}
	if chat.calls[0].Model != "gpt-4" || chat.calls[1].Model != "gpt-3.5-turbo" {
		t.Errorf("prompt tier order wrong: %q then %q", chat.calls[0].Model, chat.calls[1].Model)
	}
	// The fallback prompt instruction carries the length constraint.
	if !strings.Contains(chat.calls[1].User, "below 1000 words") {
		t.Errorf("fallback instruction missing length constraint: %q", chat.calls[1].User)
	}
}

func TestGenerate_BothTiersFail(t *testing.T) {
	chat := &fakeChat{failFor: map[string]error{
		"gpt-4":         errors.New("primary down"),
		"gpt-3.5-turbo": errors.New("fallback down"),
	}}
	images := &fakeImages{url: "unused"}
	g := New(chat, images, testPolicy(), testLogger())

	_, err := g.Generate(context.Background(), model.StatStarsReceived, "7")
	if err == nil {
		t.Fatal("Generate() should fail when both tiers fail")
	}
	if !errors.Is(err, apperror.ErrGeneration) {
		t.Errorf("error = %v, want ErrGeneration", err)
	}
	// Failed at the prompt step: nothing should reach the image model.
	if len(images.calls) != 0 {
		t.Errorf("image calls = %d, want 0", len(images.calls))
	}
}

func TestGenerate_ImageFailureHasNoFallback(t *testing.T) {
	chat := &fakeChat{response: "a prompt"}
	images := &fakeImages{returnErr: errors.New("content policy violation")}
	g := New(chat, images, testPolicy(), testLogger())

	_, err := g.Generate(context.Background(), model.StatMostUsedLanguage, "Go")
	if err == nil {
		t.Fatal("Generate() should fail when image generation fails")
	}
	if !errors.Is(err, apperror.ErrGeneration) {
		t.Errorf("error = %v, want ErrGeneration", err)
	}
	// Exactly one image attempt and no quotation attempt afterwards.
	if len(images.calls) != 1 {
		t.Errorf("image calls = %d, want 1", len(images.calls))
	}
	if len(chat.calls) != 1 {
		t.Errorf("chat calls = %d, want 1 (prompt only)", len(chat.calls))
	}
}

func TestFallbackPolicy_PrimarySuccessSkipsFallback(t *testing.T) {
	chat := &fakeChat{response: "ok"}
	p := testPolicy()

	out, err := p.Complete(context.Background(), chat, "sys", "primary user", "fallback user")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "ok" {
		t.Errorf("Complete() = %q, want %q", out, "ok")
	}
	if len(chat.calls) != 1 {
		t.Fatalf("chat calls = %d, want 1", len(chat.calls))
	}
	if chat.calls[0].User != "primary user" {
		t.Errorf("user = %q, want primary instruction", chat.calls[0].User)
	}
}

func TestFallbackPolicy_ErrorNamesBothTiers(t *testing.T) {
	chat := &fakeChat{failFor: map[string]error{
		"gpt-4":         errors.New("boom"),
		"gpt-3.5-turbo": errors.New("also boom"),
	}}
	p := testPolicy()

	_, err := p.Complete(context.Background(), chat, "sys", "u", "u")
	if err == nil {
		t.Fatal("Complete() should fail")
	}
	if !strings.Contains(err.Error(), "gpt-4") || !strings.Contains(err.Error(), "gpt-3.5-turbo") {
		t.Errorf("error should name both tiers: %v", err)
	}
}
