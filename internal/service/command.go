package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"heater_controller/internal/logger"
)

// ErrUnknownCommand is returned for a payload that is neither a known
// single-letter command nor a JSON message.
var ErrUnknownCommand = errors.New("unknown command")

// JSON message types accepted by Execute besides "schedule".
const (
	MessageTypeOverride      = "override"
	MessageTypeClearOverride = "clear_override"
	MessageTypeResetFault    = "reset_fault"
)

// CommandService interprets the text protocol shared by the websocket and
// the MQTT command topic:
//
//	U / D   nudge the target by +0.1 / -0.1 °C
//	V / E   nudge the target by +0.5 / -0.5 °C
//	R       clear the override
//	{...}   JSON message, see Execute
type CommandService struct {
	overrides Overrides
	config    Configuration
	safety    Safety
	log       *logger.Logger
}

func NewCommandService(o Overrides, c Configuration, s Safety, log *logger.Logger) *CommandService {
	return &CommandService{overrides: o, config: c, safety: s, log: log}
}

type overrideMessage struct {
	Type    string   `json:"type"`
	Target  *float64 `json:"target"`
	Minutes *int     `json:"minutes"`
}

// Execute runs one command. JSON messages are dispatched on "type":
// "schedule" or no type updates the config, "override" starts an override with
// "target" and optional "minutes", "clear_override" and "reset_fault" take
// no arguments.
func (c *CommandService) Execute(ctx context.Context, payload []byte) error {
	p := bytes.TrimSpace(payload)
	if len(p) == 0 {
		return ErrUnknownCommand
	}
	if p[0] == '{' {
		return c.executeJSON(ctx, p)
	}
	if len(p) != 1 {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, p)
	}

	switch p[0] {
	case 'U', 'u':
		c.overrides.NudgeOverride(ctx, StepFine)
	case 'D', 'd':
		c.overrides.NudgeOverride(ctx, -StepFine)
	case 'V', 'v':
		c.overrides.NudgeOverride(ctx, StepCoarse)
	case 'E', 'e':
		c.overrides.NudgeOverride(ctx, -StepCoarse)
	case 'R', 'r':
		c.overrides.ClearOverride(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, p)
	}
	return nil
}

func (c *CommandService) executeJSON(ctx context.Context, p []byte) error {
	var msg overrideMessage
	if err := json.Unmarshal(p, &msg); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}

	switch msg.Type {
	case "", MessageTypeSchedule:
		_, err := c.config.ApplyJSON(ctx, p)
		return err
	case MessageTypeOverride:
		if msg.Target == nil {
			return fmt.Errorf("%w: override without target", ErrInvalidTarget)
		}
		_, err := c.overrides.ActivateOverride(ctx, *msg.Target, msg.Minutes)
		return err
	case MessageTypeClearOverride:
		c.overrides.ClearOverride(ctx)
		return nil
	case MessageTypeResetFault:
		return c.safety.ResetFault(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnhandledMessage, msg.Type)
	}
}
