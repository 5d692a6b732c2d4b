package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bz888/codeagent/internal/assistant"
	"github.com/bz888/codeagent/internal/api/client"
	"github.com/bz888/codeagent/internal/completion"
	"github.com/bz888/codeagent/internal/config"
	"github.com/bz888/codeagent/internal/logger"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const completionTimeout = 3 * time.Second

// UI is the terminal host: a conversation view fed by chat fragments, a
// code panel and a question box, plus a status bar with the model state.
type UI struct {
	app          *tview.Application
	pages        *tview.Pages
	mainFlex     *tview.Flex
	debugConsole *tview.TextView
	textView     *tview.TextView
	statusBar    *tview.TextView
	codeArea     *tview.TextArea
	textArea     *tview.TextArea

	assistant    *assistant.Assistant
	debugVisible bool
	localLogger  *logger.Logger

	turnMu     sync.Mutex
	cancelTurn context.CancelFunc
}

// New builds the widgets. The debug console exists before the logger is
// initialised so it can be handed to logger.InitLogger.
func New() *UI {
	u := &UI{app: tview.NewApplication()}
	u.app.EnablePaste(true)
	u.app.EnableMouse(true)

	u.debugConsole = u.initDebugConsole()
	u.textView = initChatViewer()
	u.statusBar = initStatusBar()
	u.codeArea = initCodeInput()
	u.textArea = initChatInput()
	return u
}

func initChatViewer() *tview.TextView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	textView.SetTitle("Conversation").SetBorder(true)
	textView.SetScrollable(true)
	textView.ScrollToEnd()
	return textView
}

func initStatusBar() *tview.TextView {
	return tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignRight)
}

func initCodeInput() *tview.TextArea {
	codeArea := tview.NewTextArea()
	codeArea.SetTitle("Code").SetBorder(true)
	return codeArea
}

func initChatInput() *tview.TextArea {
	textArea := tview.NewTextArea()
	textArea.SetTitle("Question").SetBorder(true)
	return textArea
}

func (u *UI) initDebugConsole() *tview.TextView {
	console := tview.NewTextView().
		SetChangedFunc(func() {
			go u.app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	console.SetTitle("Debugger").SetBorder(true)
	console.ScrollToEnd()
	return console
}

// DebugConsole is the writer dev-mode log lines go to.
func (u *UI) DebugConsole() *tview.TextView {
	return u.debugConsole
}

// Run shows the application until /bye. Settings changes received from
// changes are applied through the assistant and repaint the status bar.
func (u *UI) Run(a *assistant.Assistant, cfg config.Config, initial config.Settings, changes <-chan config.Settings) error {
	u.assistant = a
	u.localLogger = logger.NewLogger("views")

	u.textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			u.app.SetFocus(u.textArea)
		}
		return event
	})

	inputFlex := tview.NewFlex().
		AddItem(u.codeArea, 0, 1, false).
		AddItem(u.textArea, 0, 1, true)
	subFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(u.textView, 0, 1, false).
		AddItem(inputFlex, 8, 2, true).
		AddItem(u.statusBar, 1, 0, false)
	u.mainFlex = tview.NewFlex().
		AddItem(subFlex, 0, 2, true)

	if cfg.Dev {
		u.mainFlex.AddItem(u.debugConsole, 0, 1, false)
		u.debugVisible = true
	}

	u.setInputCapture()
	u.setCodeCapture()
	u.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyESC && u.stopAnswer() {
			u.localLogger.Info("Answer stopped by user")
			return nil
		}
		return event
	})

	u.pages = tview.NewPages().AddPage("main", u.mainFlex, true, true)

	go u.followSettings(initial, changes, u.applySettings)

	return u.app.SetRoot(u.pages, true).SetFocus(u.textArea).Run()
}

// followSettings applies initial before any change from changes, so the
// startup sync can never overwrite a newer edit.
func (u *UI) followSettings(initial config.Settings, changes <-chan config.Settings, apply func(config.Settings)) {
	apply(initial)
	for s := range changes {
		u.localLogger.Info("Settings changed, applying")
		apply(s)
	}
}

func (u *UI) applySettings(s config.Settings) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	state := u.assistant.ApplySettings(ctx, s)
	u.app.QueueUpdateDraw(func() {
		u.statusBar.SetText(fmt.Sprintf("[yellow]%s[-] ", state))
	})
}

func (u *UI) setInputCapture() {
	u.textArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyESC:
			if u.textView.GetText(false) != "" {
				u.app.SetFocus(u.textView)
			}
		case tcell.KeyBacktab:
			u.app.SetFocus(u.codeArea)
			return nil
		case tcell.KeyEnter:
			content := strings.TrimSpace(u.textArea.GetText())
			if content == "" {
				return nil
			}
			u.textArea.SetText("", true)

			cmd, err := parseCommand(content)
			if err != nil {
				fmt.Fprintf(u.textView, "\n[red::]%s[-]\n", tview.Escape(err.Error()))
				return nil
			}
			u.runCommand(cmd, content)
			return nil
		}
		return event
	})
}

func (u *UI) setCodeCapture() {
	u.codeArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyBacktab:
			u.app.SetFocus(u.textArea)
			return nil
		case tcell.KeyTab:
			go u.complete(u.codeArea.GetText())
			return nil
		}
		return event
	})
}

func (u *UI) runCommand(cmd command, content string) {
	switch cmd.kind {
	case cmdHelp:
		u.listHelp(content)
	case cmdBye:
		u.quitApp()
	case cmdDebug:
		u.toggleDebugConsole()
	case cmdSessions:
		go u.createSessionModal()
	case cmdReset:
		u.textArea.SetDisabled(true)
		go func() {
			defer u.enableInput()
			u.resetConversation()
		}()
	case cmdToggle:
		u.textArea.SetDisabled(true)
		go func() {
			defer u.enableInput()
			u.toggleFeature(cmd)
		}()
	default:
		u.textArea.SetDisabled(true)
		code := u.codeArea.GetText()
		go func() {
			defer u.enableInput()
			u.chatting(code, content)
		}()
	}
}

func (u *UI) enableInput() {
	u.app.QueueUpdateDraw(func() {
		u.textArea.SetDisabled(false)
	})
}

func (u *UI) chatting(code, question string) {
	u.app.QueueUpdateDraw(func() {
		fmt.Fprintln(u.textView, "[red::]You:[-]")
		fmt.Fprintf(u.textView, "%s\n\n", tview.Escape(question))
		fmt.Fprintf(u.textView, "[green::]Bot:[-]\n")
	})

	ctx, endTurn := u.beginTurn()
	defer endTurn()

	err := u.assistant.Chat(ctx, code, question, func(fragment string) error {
		u.app.QueueUpdateDraw(func() {
			fmt.Fprint(u.textView, tview.Escape(fragment))
		})
		return nil
	})

	u.app.QueueUpdateDraw(func() {
		switch {
		case errors.Is(err, client.ErrChatDisabled):
			fmt.Fprintf(u.textView, "[yellow::]Chat is turned off, use /chat on[-]\n\n")
		case err != nil:
			fmt.Fprintf(u.textView, "\n[red::]%s[-]\n\n", tview.Escape(err.Error()))
		default:
			fmt.Fprint(u.textView, "\n\n")
		}
		u.textView.ScrollToEnd()
	})
}

// beginTurn returns the context of a new chat turn. Esc or /bye cancel it
// through stopAnswer; the returned func ends the turn.
func (u *UI) beginTurn() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	u.turnMu.Lock()
	u.cancelTurn = cancel
	u.turnMu.Unlock()

	return ctx, func() {
		u.turnMu.Lock()
		u.cancelTurn = nil
		u.turnMu.Unlock()
		cancel()
	}
}

// stopAnswer cancels the running chat turn and reports whether there was one.
func (u *UI) stopAnswer() bool {
	u.turnMu.Lock()
	defer u.turnMu.Unlock()
	if u.cancelTurn == nil {
		return false
	}
	u.cancelTurn()
	u.cancelTurn = nil
	return true
}

func (u *UI) resetConversation() {
	outcome, err := u.assistant.ResetSession(context.Background())
	u.app.QueueUpdateDraw(func() {
		if err != nil {
			fmt.Fprintf(u.textView, "\n[red::]Reset failed: %s[-]\n\n", tview.Escape(err.Error()))
			return
		}
		fmt.Fprintf(u.textView, "\n%s\n\n", outcome)
	})
}

func (u *UI) toggleFeature(cmd command) {
	state, err := u.assistant.Toggle(context.Background(), cmd.feature, cmd.enable)
	u.app.QueueUpdateDraw(func() {
		if err != nil {
			fmt.Fprintf(u.textView, "\n[red::]Failed to switch %s: %s[-]\n\n", cmd.feature, tview.Escape(err.Error()))
		}
		u.statusBar.SetText(fmt.Sprintf("[yellow]%s[-] ", state))
	})
}

func (u *UI) complete(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	suggestion, ok := u.assistant.Complete(ctx, completion.Request{Before: code})
	if !ok {
		u.localLogger.Info("No completion for the code panel")
		return
	}
	u.app.QueueUpdateDraw(func() {
		// The panel may have been edited while the request was in flight.
		if u.codeArea.GetText() == code {
			u.codeArea.SetText(code+suggestion.Text, true)
		}
	})
}

func createModal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

func (u *UI) createSessionModal() {
	ctx := context.Background()
	if _, _, err := u.assistant.Sessions().Discover(ctx); err != nil {
		u.localLogger.Warn("Current session unknown:", err)
	}
	sessions, err := u.assistant.Sessions().List(ctx)
	if err != nil {
		u.localLogger.Error("Failed to list sessions:", err)
		u.app.QueueUpdateDraw(func() {
			fmt.Fprintf(u.textView, "\n[red::]Failed to list sessions: %s[-]\n\n", tview.Escape(err.Error()))
		})
		return
	}

	closeModal := func() {
		u.pages.RemovePage("sessionModal")
		u.app.SetFocus(u.textArea)
	}

	list := tview.NewList()
	list.SetBorder(true).SetTitle("Sessions")
	for i, s := range sessions {
		label := s.ID
		if s.Name != "" {
			label = s.Name + " " + s.ID[:min(8, len(s.ID))]
		}
		runeValue := 'a' + rune(i%26)

		if s.IsCurrent {
			list.AddItem(label, "Current session", runeValue, func() {
				fmt.Fprintf(u.textView, "\nAlready using session: %s\n\n", s.ID)
				closeModal()
			})
			continue
		}
		list.AddItem(label, "Session", runeValue, func() {
			closeModal()
			go u.switchSession(s.ID)
		})
	}
	list.AddItem("Back", "", 'q', closeModal)

	u.app.QueueUpdateDraw(func() {
		u.pages.AddPage("sessionModal", createModal(list, 50, 12), true, true)
		u.app.SetFocus(list)
	})
}

func (u *UI) switchSession(id string) {
	err := u.assistant.Sessions().Switch(context.Background(), id)
	u.app.QueueUpdateDraw(func() {
		if err != nil {
			fmt.Fprintf(u.textView, "\n[red::]Failed to switch session: %s[-]\n\n", tview.Escape(err.Error()))
			return
		}
		fmt.Fprintf(u.textView, "\nUsing session: %s\n\n", id)
	})
}

func (u *UI) toggleDebugConsole() {
	if u.debugVisible {
		u.mainFlex.RemoveItem(u.debugConsole)
		fmt.Fprintf(u.textView, "\nDebug console disabled\n")
	} else {
		u.mainFlex.AddItem(u.debugConsole, 0, 1, false)
		fmt.Fprintf(u.textView, "\nDebug console enabled\n")
	}
	u.debugVisible = !u.debugVisible
}

func (u *UI) quitApp() {
	fmt.Fprintf(u.textView, "Bye bye\n")
	u.stopAnswer()
	u.localLogger.Info("Shutting down gracefully.")
	u.app.Stop()
}

func (u *UI) listHelp(content string) {
	fmt.Fprintln(u.textView, "[red::]You:[-]")
	fmt.Fprintf(u.textView, "%s\n\n", tview.Escape(content))

	fmt.Fprintf(u.textView, "[green::]Bot:[-]\n")
	fmt.Fprintf(u.textView, "Here are some commands you can use:\n")
	for _, line := range helpLines {
		fmt.Fprintln(u.textView, line)
	}
	fmt.Fprintf(u.textView, "\nCurrent state: %s\n\n", u.assistant.Status())
}
