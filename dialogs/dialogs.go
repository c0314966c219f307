// Package dialogs wraps the native dialog plugin (alert, confirm and prompt)
// behind blocking, context-aware calls.
//
// When the plugin is absent the service reports it once at construction and
// routes every call to a Fallback. Apps that also run outside the native
// shell should supply their own Fallback; the default one talks to a console.
package dialogs

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-push-bridge/pkg/bridge"
	"github.com/tinywideclouds/go-push-bridge/pkg/future"
)

const (
	PluginName   = "cordova-plugin-dialogs"
	PluginSource = "https://github.com/apache/cordova-plugin-dialogs.git"
)

// NativePromptResult is what the native prompt reports.
type NativePromptResult struct {
	Input1      string `json:"input1"`
	ButtonIndex int    `json:"buttonIndex"`
}

// Native is the dialog plugin. Each method invokes its callback once, when
// the user dismisses the dialog. Button indexes are 1-based.
type Native interface {
	Alert(message string, onDismiss func(), title, button string)
	Confirm(message string, onResult func(buttonIndex int), title string, buttons []string)
	Prompt(message string, onResult func(NativePromptResult), title string, buttons []string, defaultText string)
}

// Fallback renders dialogs when the plugin is missing.
type Fallback interface {
	Alert(message, title, button string) error
	Confirm(message, title string, buttons []string) (int, error)
	Prompt(message, title string, buttons []string, defaultText string) (PromptResult, error)
}

type AlertOptions struct {
	Title   string
	Message string
	Button  string
}

type ConfirmOptions struct {
	Title   string
	Message string
	Buttons []string
}

type PromptOptions struct {
	Title       string
	Message     string
	Buttons     []string
	DefaultText string
}

// PromptResult is the entered text and the 1-based index of the button pressed.
type PromptResult struct {
	Text        string `json:"text"`
	ButtonIndex int    `json:"buttonIndex"`
}

type Service struct {
	native   Native
	fallback Fallback
	logger   *slog.Logger
}

// New builds the service. native may be nil. A nil fallback selects the
// console fallback on stdin/stdout; a nil report logs the missing plugin.
func New(native Native, fallback Fallback, report bridge.MissingCapabilityReporter, logger *slog.Logger) *Service {
	logger = logger.With("component", "Dialogs")
	if native == nil {
		if report == nil {
			report = bridge.LogMissingCapability(logger)
		}
		report(PluginName, PluginSource)
	}
	if fallback == nil {
		fallback = NewStdConsoleFallback(logger)
	}
	return &Service{native: native, fallback: fallback, logger: logger}
}

// Alert shows a message and returns when it is dismissed.
func (s *Service) Alert(ctx context.Context, opts AlertOptions) error {
	if s.native == nil {
		return s.fallback.Alert(opts.Message, opts.Title, opts.Button)
	}
	f := future.New[struct{}]()
	s.native.Alert(opts.Message, func() { f.Resolve(struct{}{}) }, opts.Title, opts.Button)
	_, err := f.Wait(ctx)
	return err
}

// Confirm returns the 1-based index of the button pressed.
func (s *Service) Confirm(ctx context.Context, opts ConfirmOptions) (int, error) {
	if s.native == nil {
		return s.fallback.Confirm(opts.Message, opts.Title, opts.Buttons)
	}
	f := future.New[int]()
	s.native.Confirm(opts.Message, func(idx int) { f.Resolve(idx) }, opts.Title, opts.Buttons)
	return f.Wait(ctx)
}

// Prompt asks for a line of text.
func (s *Service) Prompt(ctx context.Context, opts PromptOptions) (PromptResult, error) {
	if s.native == nil {
		return s.fallback.Prompt(opts.Message, opts.Title, opts.Buttons, opts.DefaultText)
	}
	f := future.New[PromptResult]()
	s.native.Prompt(opts.Message, func(r NativePromptResult) {
		f.Resolve(PromptResult{Text: r.Input1, ButtonIndex: r.ButtonIndex})
	}, opts.Title, opts.Buttons, opts.DefaultText)
	return f.Wait(ctx)
}
