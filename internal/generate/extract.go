package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/procgen3d/internal/logger"
	"github.com/Faultbox/procgen3d/internal/modifier"
	"github.com/Faultbox/procgen3d/pkg/obj"
)

// Extractor derives the modifiers offered for a generated model.
type Extractor interface {
	Extract(ctx context.Context, objText, prompt string) (modifier.Set, error)
}

// GroupExtractor derives modifiers from the model's groups: a size and a
// visibility modifier per named group, plus seedless when a seed group
// exists. It never calls out.
type GroupExtractor struct{}

// Extract parses objText and builds the modifier set. Unparseable text
// yields the defaults.
func (GroupExtractor) Extract(ctx context.Context, objText, prompt string) (modifier.Set, error) {
	set := modifier.Defaults()

	m, err := obj.ParseString(objText)
	if err != nil {
		return set, nil
	}
	for _, name := range m.GroupNames() {
		if name == obj.DefaultGroup {
			continue
		}
		set[name+obj.SizeSuffix] = modifier.Definition{
			Type:        modifier.Float,
			Min:         modifier.Bound(0.1),
			Max:         modifier.Bound(3.0),
			Default:     1.0,
			Description: fmt.Sprintf("Scale of the %s about its center", name),
		}
		set[name+obj.VisibleSuffix] = modifier.Definition{
			Type:        modifier.Boolean,
			Default:     true,
			Description: fmt.Sprintf("Show the %s", name),
		}
		if name == obj.SeedGroup {
			set[obj.ModSeedless] = modifier.Definition{
				Type:        modifier.Boolean,
				Default:     false,
				Description: "Remove the seeds",
			}
		}
	}
	return set, nil
}

// maxExtractOBJ bounds the OBJ text sent for feature extraction.
const maxExtractOBJ = 2000

// ChatExtractor asks a chat model to propose modifiers. Any failure falls
// back to Fallback, or to modifier.Defaults when Fallback is nil.
type ChatExtractor struct {
	Chat     *Chat
	Timeout  time.Duration
	Fallback Extractor
	Log      *zap.Logger
}

// Extract returns the proposed modifiers. overall_size is always present.
func (e *ChatExtractor) Extract(ctx context.Context, objText, prompt string) (modifier.Set, error) {
	set, err := e.propose(ctx, objText, prompt)
	if err == nil {
		set.EnsureOverallSize()
		return set, nil
	}

	log := e.Log
	if log == nil {
		log = logger.Named("generate")
	}
	log.Warn("feature extraction failed, using fallback", zap.Error(err))

	if e.Fallback != nil {
		return e.Fallback.Extract(ctx, objText, prompt)
	}
	return modifier.Defaults(), nil
}

func (e *ChatExtractor) propose(ctx context.Context, objText, prompt string) (modifier.Set, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	if len(objText) > maxExtractOBJ {
		objText = objText[:maxExtractOBJ] + "\n..."
	}
	user := fmt.Sprintf("INPUT OBJ:\n%s\n\nORIGINAL PROMPT: %s", objText, prompt)

	reply, err := e.Chat.complete(ctx, extractionPrompt, user, nil, 0.3, 2048)
	if err != nil {
		return nil, err
	}

	var set modifier.Set
	if err := json.Unmarshal([]byte(StripFences(reply)), &set); err != nil {
		return nil, fmt.Errorf("decoding modifiers: %w", err)
	}
	set.Sanitize()
	if len(set) == 0 {
		return nil, fmt.Errorf("no usable modifiers in reply")
	}
	return set, nil
}

const extractionPrompt = `Analyze the given .obj 3D model and identify meaningful modifiers that users could adjust.

Extract 3-5 intuitive modifiers that make sense for this object. For each modifier, determine:
1. Name (snake_case); use <group>_size and <group>_visible for groups tagged with # GROUP:
2. Type (float, boolean, or integer)
3. Range (min/max for numbers)
4. Default value
5. Description

OUTPUT ONLY VALID JSON in this exact format:
{
  "overall_size": {
    "type": "float",
    "min": 0.1,
    "max": 5.0,
    "default": 1.0,
    "description": "Overall scale of the entire object"
  },
  "example_modifier": {
    "type": "boolean",
    "default": false,
    "description": "Example boolean toggle"
  }
}

Respond with ONLY the JSON, no markdown formatting.`
