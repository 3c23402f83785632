package testsupport

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-cardgen/pkg/compose"
)

// Abort, queued as a scripted answer, makes the driver return
// compose.ErrAborted from the prompt that consumes it, simulating Ctrl+C.
var Abort = abortAnswer{}

type abortAnswer struct{}

// ScriptedDriver replays canned answers for compose flows. Answers are
// consumed in prompt order; an exhausted script or a type mismatch fails the
// test naming the prompt that asked. Select answers may be given as indices
// or as option text (exact or prefix match), which keeps scripts readable.
type ScriptedDriver struct {
	t       *testing.T
	answers []any
	pos     int

	// Infos collects every Info message in order. Useful for asserting
	// re-prompt warnings and preview output.
	Infos []string
}

// NewScriptedDriver builds a driver that will serve the given answers.
func NewScriptedDriver(t *testing.T, answers ...any) *ScriptedDriver {
	return &ScriptedDriver{t: t, answers: answers}
}

// Remaining reports how many scripted answers were never consumed.
func (d *ScriptedDriver) Remaining() int {
	return len(d.answers) - d.pos
}

func (d *ScriptedDriver) next(prompt string) any {
	d.t.Helper()
	if d.pos >= len(d.answers) {
		d.t.Fatalf("scripted driver: no answer left for prompt %q", prompt)
	}
	answer := d.answers[d.pos]
	d.pos++
	return answer
}

func (d *ScriptedDriver) Input(_ context.Context, cfg compose.InputConfig) (string, error) {
	d.t.Helper()
	answer := d.next(cfg.Message)
	if _, abort := answer.(abortAnswer); abort {
		return "", compose.ErrAborted
	}
	s, ok := answer.(string)
	if !ok {
		d.t.Fatalf("scripted driver: prompt %q wants a string, script has %T", cfg.Message, answer)
	}
	if s == "" && cfg.Default != "" {
		s = cfg.Default
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(s); err != nil {
			d.t.Fatalf("scripted driver: answer %q for prompt %q rejected: %v", s, cfg.Message, err)
		}
	}
	return s, nil
}

func (d *ScriptedDriver) Confirm(_ context.Context, cfg compose.ConfirmConfig) (bool, error) {
	d.t.Helper()
	answer := d.next(cfg.Message)
	if _, abort := answer.(abortAnswer); abort {
		return false, compose.ErrAborted
	}
	b, ok := answer.(bool)
	if !ok {
		d.t.Fatalf("scripted driver: prompt %q wants a bool, script has %T", cfg.Message, answer)
	}
	return b, nil
}

func (d *ScriptedDriver) Select(_ context.Context, cfg compose.SelectConfig) (int, error) {
	d.t.Helper()
	answer := d.next(cfg.Message)
	switch v := answer.(type) {
	case abortAnswer:
		return 0, compose.ErrAborted
	case int:
		return v, nil
	case string:
		if idx := optionIndex(cfg.Options, v); idx >= 0 {
			return idx, nil
		}
		d.t.Fatalf("scripted driver: option %q not offered by prompt %q (options %v)", v, cfg.Message, cfg.Options)
	default:
		d.t.Fatalf("scripted driver: prompt %q wants an int or option text, script has %T", cfg.Message, answer)
	}
	return 0, nil
}

func (d *ScriptedDriver) MultiSelect(_ context.Context, cfg compose.SelectConfig) ([]int, error) {
	d.t.Helper()
	answer := d.next(cfg.Message)
	switch v := answer.(type) {
	case abortAnswer:
		return nil, compose.ErrAborted
	case []int:
		return v, nil
	case []string:
		out := make([]int, 0, len(v))
		for _, option := range v {
			idx := optionIndex(cfg.Options, option)
			if idx < 0 {
				d.t.Fatalf("scripted driver: option %q not offered by prompt %q (options %v)", option, cfg.Message, cfg.Options)
			}
			out = append(out, idx)
		}
		return out, nil
	default:
		d.t.Fatalf("scripted driver: prompt %q wants indices or option text, script has %T", cfg.Message, answer)
	}
	return nil, nil
}

func (d *ScriptedDriver) TextArea(_ context.Context, cfg compose.TextAreaConfig) (string, error) {
	d.t.Helper()
	answer := d.next(cfg.Message)
	if _, abort := answer.(abortAnswer); abort {
		return "", compose.ErrAborted
	}
	s, ok := answer.(string)
	if !ok {
		d.t.Fatalf("scripted driver: prompt %q wants a string, script has %T", cfg.Message, answer)
	}
	return s, nil
}

func (d *ScriptedDriver) Info(_ context.Context, msg string) error {
	d.Infos = append(d.Infos, msg)
	return nil
}

func optionIndex(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	for i, option := range options {
		if strings.HasPrefix(option, value+" ") {
			return i
		}
	}
	return -1
}
