package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"watchlog/internal/codec"
	"watchlog/internal/export"
	"watchlog/internal/refdata"
	"watchlog/internal/report"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "check",
		short: "Decode a report document and print integrity findings",
		usage: "watchlog check <file>",
		long: `Decode a duty-report document and print every soft warning.

Exits non-zero when the document fails to decode; the error names the
offending field or reference.
`,
		run: runCheck,
	},
	{
		name:  "show",
		short: "Print a summary of a report document",
		usage: "watchlog show <file>",
		long: `Decode a duty-report document and print its summary pages.
`,
		run: runShow,
	},
	{
		name:  "new",
		short: "Create a new report document",
		usage: "watchlog new <file>",
		long: `Create a new duty-report document at <file>.

Prompts for station, date and duty times; every other field starts at
its default.

Errors if the file already exists.
`,
		run: runNew,
	},
	{
		name:  "carry",
		short: "Carry hours forward from one report into its successor",
		usage: "watchlog carry <prev> <next>",
		long: `Compute the carryover of <prev> and apply it to <next>, rewriting
<next> in place.

Raises the serial number, the personnel and boat carry minutes and the
initial engine hour reading. The entered final engine reading of <next>
is never lowered.
`,
		run: runCarry,
	},
	{
		name:  "export",
		short: "Write the markdown summary bundle of a report",
		usage: "watchlog export <file> <dir>",
		long: `Decode a duty-report document and write its markdown summary
pages to <dir>.
`,
		run: runExport,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "watchlog — watch duty report keeping\n\n")
	fmt.Fprintf(w, "Usage:\n  watchlog <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'watchlog help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "watchlog: unknown command %q\n\nRun 'watchlog help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'watchlog help' for usage.", args[0])
}

// loadRefdata opens the station/boat registry. The file is optional: a
// missing registry means every lookup misses softly.
func loadRefdata() (*refdata.Store, error) {
	path := os.Getenv("WATCHLOG_REFDATA")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return &refdata.Store{}, nil
		}
		path = filepath.Join(home, ".watchlog", "refdata.yaml")
	}
	return refdata.Load(path)
}

func printWarnings(w io.Writer, warnings []codec.Warning) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning.Detail)
	}
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func runCheck(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: watchlog check <file>")
	}
	ref, err := loadRefdata()
	if err != nil {
		return err
	}
	r, warnings, err := codec.DecodeFile(args[0], ref)
	if err != nil {
		return err
	}
	printWarnings(os.Stdout, warnings)
	fmt.Printf("ok: report %d, %d on duty, %d drives\n", r.Serial, r.RosterSize(), len(r.Boat.Drives))
	return nil
}

// ---------------------------------------------------------------------------
// show
// ---------------------------------------------------------------------------

func runShow(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: watchlog show <file>")
	}
	ref, err := loadRefdata()
	if err != nil {
		return err
	}
	r, warnings, err := codec.DecodeFile(args[0], ref)
	if err != nil {
		return err
	}
	s := export.GenerateSummary(r, warnings)
	for _, page := range []string{"index.md", "personnel.md", "boat.md", "rescues.md"} {
		content, ok := s.Page(page)
		if !ok {
			continue
		}
		fmt.Print(content)
		fmt.Println()
	}
	return nil
}

// ---------------------------------------------------------------------------
// new
// ---------------------------------------------------------------------------

// newQuestions are the prompts for a fresh report document.
var newQuestions = []promptQuestion{
	{key: "station", prompt: "Station"},
	{key: "date", prompt: "Date (YYYY-MM-DD)"},
	{key: "begin", prompt: "Duty begin (HH:MM)"},
	{key: "end", prompt: "Duty end (HH:MM)"},
}

func runNew(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: watchlog new <file>")
	}
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	answers, err := promptQuestions(newQuestions)
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}

	r := report.New()
	r.Station = answers["station"]
	if d := answers["date"]; d != "" {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("date %q: want YYYY-MM-DD", d)
		}
		r.Date = d
	}
	if b := answers["begin"]; b != "" {
		if r.Begin, err = report.ParseClock(b); err != nil {
			return err
		}
	}
	if e := answers["end"]; e != "" {
		if r.End, err = report.ParseClock(e); err != nil {
			return err
		}
	}

	if err := codec.EncodeToFile(r, path); err != nil {
		return err
	}
	fmt.Printf("created %s\n", path)
	return nil
}

// ---------------------------------------------------------------------------
// carry
// ---------------------------------------------------------------------------

func runCarry(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: watchlog carry <prev> <next>")
	}
	ref, err := loadRefdata()
	if err != nil {
		return err
	}

	prev, warnings, err := codec.DecodeFile(args[0], ref)
	if err != nil {
		return fmt.Errorf("previous report: %w", err)
	}
	printWarnings(os.Stderr, warnings)

	next, warnings, err := codec.DecodeFile(args[1], ref)
	if err != nil {
		return fmt.Errorf("next report: %w", err)
	}
	printWarnings(os.Stderr, warnings)

	cs := report.CarryForward(prev)
	if !next.ApplyCarry(cs) {
		fmt.Println("nothing to do: carryover already applied")
		return nil
	}
	if err := codec.EncodeToFile(next, args[1]); err != nil {
		return err
	}
	fmt.Printf("carried forward: serial %d, personnel %d min, boat %d min, engine hours %d\n",
		cs.Serial, cs.PersonnelCarry, cs.BoatCarry, cs.EngineHoursInit)
	return nil
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func runExport(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: watchlog export <file> <dir>")
	}
	ref, err := loadRefdata()
	if err != nil {
		return err
	}
	r, warnings, err := codec.DecodeFile(args[0], ref)
	if err != nil {
		return err
	}
	s := export.GenerateSummary(r, warnings)
	if err := export.WriteSummary(s, args[1]); err != nil {
		return err
	}
	fmt.Printf("exported summary to %s\n", args[1])
	return nil
}

// ---------------------------------------------------------------------------
// TUI prompt helpers
// ---------------------------------------------------------------------------

type promptQuestion struct {
	key    string
	prompt string
}

// promptModel is a bubbletea model that asks one question at a time.
type promptModel struct {
	questions []promptQuestion
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newPromptModel(questions []promptQuestion) promptModel {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.prompt
		ti.CharLimit = 128
		inputs[i] = ti
	}
	m := promptModel{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s: %s\n", q.prompt, m.inputs[m.idx].View())
}

// promptQuestions runs the TUI and returns answers keyed by question key.
func promptQuestions(questions []promptQuestion) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	m := newPromptModel(questions)
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		answers[q.key] = final.inputs[i].Value()
	}
	return answers, nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
