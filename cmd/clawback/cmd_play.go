package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/nvandessel/clawback/internal/clock"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/session"
	"github.com/nvandessel/clawback/internal/terminal"
	"github.com/spf13/cobra"
)

const playHelp = `Type a shell command to run it in the terminal, or one of:
  /chat [@npc] <text>                  message a coworker (default: the active one)
  /email [list]                        list the mailbox
  /email read <id>                     open an email
  /email send <to> <subject> <body>    send an email (quote multi-word arguments)
  /search <query>                      search the web
  /open <path>  /close <path>          open or close a file in the editor
  /tool <name>                         switch to a tool panel
  /calendar [day]                      list events, optionally for one day
  /calendar add <title> <day> <start> <end>
  /wait [ticks]                        fast-forward (default 1 tick)
  /pause  /resume  /speed <mode>       control the clock
  /status                              show the shift status
  /help                                show this help
  /quit                                end the shift`

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a shift interactively",
		Long: `Play a shift on the terminal. The clock runs in real time at the configured
speed while you type; coworker messages and events are printed as they
happen.

` + playHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			opts, err := rt.sessionOptions()
			if err != nil {
				return err
			}
			if err := applyShiftFlags(cmd, &opts); err != nil {
				return err
			}
			speedName := rt.cfg.Simulation.Speed
			if cmd.Flags().Changed("speed") {
				speedName, _ = cmd.Flags().GetString("speed")
			}
			speed, err := clock.ParseSpeed(speedName)
			if err != nil {
				return err
			}

			sess := session.New(opts)
			defer sess.Close()
			if err := sess.Start(ctx); err != nil {
				return fmt.Errorf("failed to start shift: %w", err)
			}
			sess.SetSpeed(speed)

			p := newPlayer(session.NewDriver(sess), cmd.OutOrStdout())
			return p.play(ctx, cmd.InOrStdin())
		},
	}
	addShiftFlags(cmd)
	cmd.Flags().String("speed", "", "Clock speed: paused, normal, fast or turbo (default from config)")
	return cmd
}

// player is the line-oriented front end of a shift.
type player struct {
	driver *session.Driver

	mu  sync.Mutex
	out io.Writer
}

func newPlayer(d *session.Driver, out io.Writer) *player {
	p := &player{driver: d, out: out}
	d.OnEvents = p.printEvents
	return p
}

func (p *player) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *player) printEvents(events []models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range events {
		printEvent(p.out, e)
	}
}

// play runs the clock in the background and reads commands from in until
// the shift is over, /quit or end of input.
func (p *player) play(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- p.driver.Run(ctx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	p.printBanner()
	for {
		select {
		case <-ctx.Done():
			p.finish(context.Background())
			return nil
		case err := <-runDone:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			p.finish(ctx)
			return nil
		case line, ok := <-lines:
			if !ok {
				p.finish(ctx)
				return nil
			}
			if quit := p.handle(ctx, line); quit {
				p.finish(ctx)
				return nil
			}
		}
	}
}

func (p *player) printBanner() {
	_ = p.driver.Do(func(s *session.Session) error {
		st := s.Status()
		p.printf("Shift %s started, day %d %s. You are assisting %s (%s).\n",
			st.SessionID, st.Clock.Day, st.Time, st.NPC.Name, st.NPC.Role)
		p.printf("Type /help for commands.\n")
		return nil
	})
}

// finish ends a shift still in progress and prints the summary.
func (p *player) finish(ctx context.Context) {
	_ = p.driver.Do(func(s *session.Session) error {
		if !s.Phase().IsOver() {
			before := len(s.Events())
			s.End(ctx)
			p.printEvents(s.Events()[before:])
		}
		p.printf("\n")
		p.mu.Lock()
		printSummary(p.out, s.Summary(), s.Phase())
		p.mu.Unlock()
		return nil
	})
}

// handle executes one input line and reports whether the player quit.
func (p *player) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		p.exec(line)
		return false
	}

	args, err := terminal.Tokenize(line[1:])
	if err != nil || len(args) == 0 {
		p.printf("error: %v\n", errOr(err, "empty command"))
		return false
	}
	name, args := args[0], args[1:]

	switch name {
	case "quit", "exit":
		return true
	case "help":
		p.printf("%s\n", playHelp)
	case "wait":
		p.wait(ctx, args)
	default:
		err = p.driver.Do(func(s *session.Session) error {
			return p.office(s, name, args)
		})
		if err != nil {
			p.printf("error: %v\n", err)
		}
	}
	return false
}

func (p *player) exec(line string) {
	_ = p.driver.Do(func(s *session.Session) error {
		entry, err := s.Exec(line)
		if err != nil {
			p.printf("error: %v\n", err)
			return nil
		}
		if entry.Output != "" {
			p.printf("%s\n", entry.Output)
		}
		return nil
	})
}

func (p *player) wait(ctx context.Context, args []string) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			p.printf("error: /wait takes a positive tick count\n")
			return
		}
		n = v
	}
	for i := 0; i < n; i++ {
		p.driver.WaitIdle()
		events := p.driver.Step(ctx, 1)
		p.printEvents(events)
	}
	_ = p.driver.Do(func(s *session.Session) error {
		p.printf("It is %s on day %d.\n", s.Clock().TimeString(), s.Clock().Day)
		return nil
	})
}

// office runs the slash commands that act on the office tools.
func (p *player) office(s *session.Session, name string, args []string) error {
	switch name {
	case "chat":
		npc := ""
		if len(args) > 0 && strings.HasPrefix(args[0], "@") {
			npc, args = strings.TrimPrefix(args[0], "@"), args[1:]
		}
		if len(args) == 0 {
			return errors.New("usage: /chat [@npc] <text>")
		}
		msg, err := s.SendChat(npc, strings.Join(args, " "))
		if err != nil {
			return err
		}
		p.printf("you -> %s: %s\n", msg.NPCID, msg.Text)

	case "email":
		return p.email(s, args)

	case "search":
		if len(args) == 0 {
			return errors.New("usage: /search <query>")
		}
		results, err := s.Search(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(results) == 0 {
			p.printf("No results.\n")
		}
		for _, r := range results {
			p.printf("- %s <%s>\n  %s\n", r.Title, r.URL, r.Snippet)
		}

	case "open":
		if len(args) != 1 {
			return errors.New("usage: /open <path>")
		}
		text, err := s.OpenFile(args[0])
		if err != nil {
			return err
		}
		p.printf("%s\n", text)

	case "close":
		if len(args) != 1 {
			return errors.New("usage: /close <path>")
		}
		return s.CloseFile(args[0])

	case "tool":
		if len(args) != 1 {
			return errors.New("usage: /tool <name>")
		}
		if err := s.OpenTool(models.ToolID(args[0])); err != nil {
			return err
		}
		p.printf("Switched to %s.\n", args[0])

	case "calendar":
		return p.calendar(s, args)

	case "status":
		p.status(s)

	case "pause":
		return s.Pause()

	case "resume":
		return s.Resume()

	case "speed":
		if len(args) != 1 {
			return errors.New("usage: /speed <paused|normal|fast|turbo>")
		}
		speed, err := clock.ParseSpeed(args[0])
		if err != nil {
			return err
		}
		s.SetSpeed(speed)

	default:
		return fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return nil
}

func (p *player) email(s *session.Session, args []string) error {
	action := "list"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}
	switch action {
	case "list":
		if err := s.OpenTool(models.ToolEmail); err != nil {
			return err
		}
		for _, e := range s.Emails() {
			mark := " "
			if !e.IsRead {
				mark = "*"
			}
			p.printf("%s %s  %-24s %s\n", mark, e.ID, e.From, e.Subject)
		}
	case "read":
		if len(args) != 1 {
			return errors.New("usage: /email read <id>")
		}
		e, err := s.ReadEmail(args[0])
		if err != nil {
			return err
		}
		p.printf("From: %s\nTo: %s\nSubject: %s\n\n%s\n", e.From, e.To, e.Subject, e.Body)
	case "send":
		if len(args) < 3 {
			return errors.New("usage: /email send <to> <subject> <body>")
		}
		e, err := s.SendEmail(args[0], args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		p.printf("Sent %q to %s.\n", e.Subject, e.To)
	default:
		return fmt.Errorf("unknown email action %q (list, read, send)", action)
	}
	return nil
}

func (p *player) calendar(s *session.Session, args []string) error {
	if len(args) > 0 && args[0] == "add" {
		if len(args) != 5 {
			return errors.New("usage: /calendar add <title> <day> <start> <end>")
		}
		nums := make([]int, 3)
		for i, a := range args[2:] {
			v, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("calendar: %q is not a number", a)
			}
			nums[i] = v
		}
		e, conflict, err := s.AddEvent(args[1], nums[0], nums[1], nums[2])
		if err != nil {
			return err
		}
		p.printf("Added %q on day %d, %d:00-%d:00.\n", e.Title, e.Day, e.StartHour, e.EndHour)
		if conflict {
			p.printf("Note: it overlaps another event.\n")
		}
		return nil
	}

	day := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("calendar: %q is not a day", args[0])
		}
		day = v
	}
	if err := s.OpenTool(models.ToolCalendar); err != nil {
		return err
	}
	for _, e := range s.CalendarEvents() {
		if day > 0 && e.Day != day {
			continue
		}
		p.printf("day %d %2d:00-%2d:00  %s\n", e.Day, e.StartHour, e.EndHour, e.Title)
	}
	return nil
}

func (p *player) status(s *session.Session) {
	st := s.Status()
	p.printf("Day %d %s  phase %s  speed %s\n", st.Clock.Day, st.Time, st.Phase, st.Clock.Speed)
	p.printf("Score %d  streak %d  security %d/%d  unread email %d\n",
		st.Score.Total, st.Score.Streak, st.Score.Security, models.MaxSecurity, st.UnreadEmails)
	p.printf("CPU %.0f%%  memory %.0f%%  disk %.0f%%  network %.0f%%\n",
		st.Resources.CPU, st.Resources.Memory, st.Resources.Disk, st.Resources.Network)
	if len(st.Open) == 0 {
		p.printf("No open requests.\n")
		return
	}
	for _, r := range st.Open {
		p.printf("[%s] %s from %s (%d/%d ticks)\n", r.Status, r.Title, r.NPCID, r.Elapsed(st.Clock.Tick), r.DeadlineTicks)
		for _, o := range r.Objectives {
			box := " "
			if o.Completed {
				box = "x"
			}
			p.printf("  [%s] %s\n", box, o.Description)
		}
	}
}

func errOr(err error, fallback string) any {
	if err != nil {
		return err
	}
	return fallback
}
