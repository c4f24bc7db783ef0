package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// inputConfig collects the InputOptions of one Input call.
type inputConfig struct {
	key         string
	placeholder string
	defaultVal  string
	validate    func(string) error
}

// InputOption customizes Input.
type InputOption func(*inputConfig)

// WithKey names the headless default consulted without a terminal.
func WithKey(key string) InputOption {
	return func(c *inputConfig) { c.key = key }
}

// WithPlaceholder sets the grey hint shown in an empty field.
func WithPlaceholder(s string) InputOption {
	return func(c *inputConfig) { c.placeholder = s }
}

// WithDefault pre-fills the field.
func WithDefault(s string) InputOption {
	return func(c *inputConfig) { c.defaultVal = s }
}

// WithValidate checks the value before the form may be submitted.
func WithValidate(fn func(string) error) InputOption {
	return func(c *inputConfig) { c.validate = fn }
}

// promptImpl implements Prompt.
type promptImpl struct {
	theme    *Theme
	headless *HeadlessManager
}

// NewPrompt creates a Prompt backed by the given theme and headless manager.
func NewPrompt(theme *Theme, hm *HeadlessManager) Prompt {
	return &promptImpl{theme: theme, headless: hm}
}

// Input reads one line. Without a terminal the headless default for the
// key is returned, then the WithDefault value.
func (p *promptImpl) Input(label string, opts ...InputOption) (string, error) {
	var cfg inputConfig
	for _, o := range opts {
		o(&cfg)
	}
	if p.headless.IsHeadless() {
		return p.inputHeadless(cfg)
	}
	return p.inputInteractive(label, cfg)
}

func (p *promptImpl) inputHeadless(cfg inputConfig) (string, error) {
	v, ok := p.headless.GetDefault(cfg.key)
	if !ok || cfg.key == "" {
		if cfg.defaultVal == "" {
			return "", ErrHeadlessNoDefaults
		}
		v = cfg.defaultVal
	}
	if cfg.validate != nil {
		if err := cfg.validate(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (p *promptImpl) inputInteractive(label string, cfg inputConfig) (string, error) {
	value := cfg.defaultVal
	in := huh.NewInput().Title(label).Value(&value)
	if cfg.placeholder != "" {
		in = in.Placeholder(cfg.placeholder)
	}
	if cfg.validate != nil {
		in = in.Validate(cfg.validate)
	}
	if err := huh.NewForm(huh.NewGroup(in)).WithTheme(p.theme.HuhTheme()).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("prompt: %w", err)
	}
	return strings.TrimSpace(value), nil
}

// Confirm asks a yes/no question. Without a terminal the "confirm" default
// is parsed, then def is returned.
func (p *promptImpl) Confirm(label string, def bool) (bool, error) {
	if p.headless.IsHeadless() {
		if v, ok := p.headless.GetDefault("confirm"); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return false, fmt.Errorf("confirm default %q: %w", v, err)
			}
			return b, nil
		}
		return def, nil
	}
	return p.confirmInteractive(label, def)
}

func (p *promptImpl) confirmInteractive(label string, def bool) (bool, error) {
	value := def
	c := huh.NewConfirm().Title(label).Affirmative("Yes").Negative("No").Value(&value)
	if err := huh.NewForm(huh.NewGroup(c)).WithTheme(p.theme.HuhTheme()).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrCancelled
		}
		return false, fmt.Errorf("confirm: %w", err)
	}
	return value, nil
}
