// Package demo provides in-process native tools for trying group chats
// without external services.
package demo

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/hupe1980/agentgroup/tool"
)

// Brightness of a light.
type Brightness string

// Brightness levels.
const (
	BrightnessLow    Brightness = "Low"
	BrightnessMedium Brightness = "Medium"
	BrightnessHigh   Brightness = "High"
)

// Light is the state of one light.
type Light struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	IsOn       bool       `json:"is_on"`
	Brightness Brightness `json:"brightness"`
	Color      string     `json:"color" jsonschema_description:"The color of the light with a hex code (ensure you include the # symbol)"`
	IsBlinking bool       `json:"is_blinking"`
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Lights is a mutex-guarded set of lights.
type Lights struct {
	mu     sync.Mutex
	lights []Light
}

// NewLights returns the four stage lights in their initial state.
func NewLights() *Lights {
	return &Lights{lights: []Light{
		{ID: 1, Name: "Main Stage", Brightness: BrightnessMedium, Color: "#FFFFFF"},
		{ID: 2, Name: "Second Stage", IsBlinking: true, Brightness: BrightnessHigh, Color: "#FF0000"},
		{ID: 3, Name: "Outside", Brightness: BrightnessLow, Color: "#FFFF00"},
		{ID: 4, Name: "Entrance", IsOn: true, Brightness: BrightnessLow, Color: "#FFFF00"},
	}}
}

// List returns a snapshot of all lights.
func (l *Lights) List() []Light {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Light, len(l.lights))
	copy(out, l.lights)
	return out
}

func (l *Lights) update(tl string, id int, fn func(*Light)) (Light, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.lights {
		if l.lights[i].ID == id {
			fn(&l.lights[i])
			return l.lights[i], nil
		}
	}
	return Light{}, tool.NewToolError(tl, fmt.Sprintf("light %d not found", id), "NOT_FOUND")
}

type stateArgs struct {
	ID   int  `json:"id" jsonschema_description:"Light id"`
	IsOn bool `json:"is_on" jsonschema_description:"Whether the light is switched on"`
}

type blinkingArgs struct {
	ID         int  `json:"id" jsonschema_description:"Light id"`
	IsBlinking bool `json:"is_blinking" jsonschema_description:"Whether the light blinks"`
}

type colorArgs struct {
	ID       int    `json:"id" jsonschema_description:"Light id"`
	RGBColor string `json:"rgb_color" jsonschema_description:"RGB hex code including the # symbol"`
}

type brightnessArgs struct {
	ID         int        `json:"id" jsonschema_description:"Light id"`
	Brightness Brightness `json:"brightness" jsonschema:"enum=Low,enum=Medium,enum=High"`
}

// Tools returns the lights plugin: get_lights, change_state,
// change_blinking, change_color and change_brightness.
func (l *Lights) Tools() []tool.Tool {
	return []tool.Tool{
		tool.NewFunctionTool("get_lights", "Gets a list of lights and their current state", nil,
			func(_ context.Context, _ map[string]any) (any, error) {
				return l.List(), nil
			}),
		tool.NewTypedFunctionTool("change_state", "Changes the state of the light",
			func(_ context.Context, a stateArgs) (any, error) {
				return l.update("change_state", a.ID, func(lt *Light) { lt.IsOn = a.IsOn })
			}),
		tool.NewTypedFunctionTool("change_blinking", "Changes the blinking state of the light",
			func(_ context.Context, a blinkingArgs) (any, error) {
				return l.update("change_blinking", a.ID, func(lt *Light) { lt.IsBlinking = a.IsBlinking })
			}),
		tool.NewTypedFunctionTool("change_color", "Changes the color of the light by passing the RGB color hex code",
			func(_ context.Context, a colorArgs) (any, error) {
				if !hexColor.MatchString(a.RGBColor) {
					return nil, tool.NewToolError("change_color", fmt.Sprintf("invalid color %q", a.RGBColor), tool.CodeValidation)
				}
				return l.update("change_color", a.ID, func(lt *Light) { lt.Color = a.RGBColor })
			}),
		tool.NewTypedFunctionTool("change_brightness", "Changes the brightness value of the light",
			func(_ context.Context, a brightnessArgs) (any, error) {
				switch a.Brightness {
				case BrightnessLow, BrightnessMedium, BrightnessHigh:
				default:
					return nil, tool.NewToolError("change_brightness", fmt.Sprintf("invalid brightness %q", a.Brightness), tool.CodeValidation)
				}
				return l.update("change_brightness", a.ID, func(lt *Light) { lt.Brightness = a.Brightness })
			}),
	}
}
