package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/scoring"
	"github.com/nvandessel/clawback/internal/session"
)

// BriefingURI is the resource describing the shift as it stands.
const BriefingURI = "clawback://shift/briefing"

// chatWindow is how many recent chat messages office_chat returns.
const chatWindow = 20

// registerTools registers all office MCP tools with the server.
func (s *Server) registerTools() error {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_exec",
		Description: "Run a command in the office terminal (ls, cd, cat, grep, find, mkdir, touch, cp, mv, rm, chmod, ps, df, ...)",
	}, s.handleOfficeExec)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_chat",
		Description: "Send a chat message to a coworker, or read the conversation when text is omitted",
	}, s.handleOfficeChat)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_email",
		Description: "List, read or send email",
	}, s.handleOfficeEmail)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_search",
		Description: "Search the office knowledge base and the web",
	}, s.handleOfficeSearch)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_calendar",
		Description: "List calendar events or schedule a new one",
	}, s.handleOfficeCalendar)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_open",
		Description: "Open a file in the file viewer (or close it)",
	}, s.handleOfficeOpen)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_tool",
		Description: "Switch the active office tool",
	}, s.handleOfficeTool)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_status",
		Description: "Show the clock, score, resources, open requests and events since the last check",
	}, s.handleOfficeStatus)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_wait",
		Description: "Let office time pass; requests arrive, progress and expire only while waiting",
	}, s.handleOfficeWait)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "office_new_shift",
		Description: "Discard the current shift and start a fresh one",
	}, s.handleOfficeNewShift)

	return nil
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() error {
	s.server.AddResource(&sdk.Resource{
		URI:         BriefingURI,
		Name:        "clawback-shift-briefing",
		Description: "The current shift: time, score, coworker mood and every open request with its objectives.",
		MIMEType:    "text/markdown",
	}, s.handleBriefingResource)

	return nil
}

// handleBriefingResource renders the shift as markdown.
func (s *Server) handleBriefingResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	var text string
	_ = s.driver.Do(func(sess *session.Session) error {
		text = briefing(sess.Status())
		return nil
	})

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      BriefingURI,
				MIMEType: "text/markdown",
				Text:     text,
			},
		},
	}, nil
}

// briefing formats a status for the briefing resource.
func briefing(st session.Status) string {
	var sb strings.Builder
	sb.WriteString("# Shift Briefing\n\n")
	fmt.Fprintf(&sb, "Day %d, %s (%s). Phase: %s.\n\n", st.Clock.Day, st.Time, st.Clock.Speed, st.Phase)
	fmt.Fprintf(&sb, "Score %d, streak %d, security %d/100.\n", st.Score.Total, st.Score.Streak, st.Score.Security)
	fmt.Fprintf(&sb, "Working with %s (%s), mood %s, reputation %d.\n\n",
		st.NPC.Name, st.NPC.Role, st.NPCState.Mood, st.NPCState.Reputation)

	if len(st.Open) == 0 {
		sb.WriteString("No open requests. Call `office_wait` to let time pass.\n")
		return sb.String()
	}

	sb.WriteString("## Open Requests\n\n")
	for _, r := range st.Open {
		remaining := r.ArrivalTick + r.DeadlineTicks - st.Clock.Tick
		trap := ""
		if r.IsSecurityTrap {
			trap = " (think before you act)"
		}
		fmt.Fprintf(&sb, "### %s%s\n\n", r.Title, trap)
		fmt.Fprintf(&sb, "Tier %d, %d points, %d minutes left, status %s.\n\n", r.Tier, r.BasePoints, remaining, r.Status)
		if r.Description != "" {
			sb.WriteString(r.Description)
			sb.WriteString("\n\n")
		}
		for _, o := range r.Objectives {
			mark := " "
			if o.Completed {
				mark = "x"
			}
			fmt.Fprintf(&sb, "- [%s] %s\n", mark, o.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (s *Server) handleOfficeExec(ctx context.Context, req *sdk.CallToolRequest, args ExecInput) (_ *sdk.CallToolResult, _ ExecOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_exec", start, retErr, sanitizeToolParams(map[string]any{"command": args.Command}))
	}()

	if err := s.toolLimiters.Check("office_exec"); err != nil {
		return nil, ExecOutput{}, err
	}
	if strings.TrimSpace(args.Command) == "" {
		return nil, ExecOutput{}, fmt.Errorf("command is required")
	}

	var out ExecOutput
	err := s.driver.Do(func(sess *session.Session) error {
		entry, err := sess.Exec(args.Command)
		if err != nil {
			return err
		}
		out = ExecOutput{
			Command: entry.Command,
			Output:  entry.Output,
			IsError: entry.IsError,
			Cwd:     sess.Cwd(),
			Tick:    entry.Tick,
		}
		return nil
	})
	return nil, out, err
}

func (s *Server) handleOfficeChat(ctx context.Context, req *sdk.CallToolRequest, args ChatInput) (_ *sdk.CallToolResult, _ ChatOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_chat", start, retErr, sanitizeToolParams(map[string]any{
			"npc_id": args.NPCID, "text": args.Text,
		}))
	}()

	if err := s.toolLimiters.Check("office_chat"); err != nil {
		return nil, ChatOutput{}, err
	}

	var out ChatOutput
	err := s.driver.Do(func(sess *session.Session) error {
		npc, ok := findPersona(sess, args.NPCID)
		if !ok {
			return fmt.Errorf("%w: %s", session.ErrUnknownNPC, args.NPCID)
		}
		if args.Text != "" {
			if _, err := sess.SendChat(npc.ID, args.Text); err != nil {
				return err
			}
		} else if err := sess.OpenTool(models.ToolChat); err != nil {
			return err
		}

		state, _ := sess.NPCState(npc.ID)
		conv := sess.Conversation(npc.ID)
		if len(conv) > chatWindow {
			conv = conv[len(conv)-chatWindow:]
		}
		out = ChatOutput{NPC: npc, State: state, Conversation: conv}
		return nil
	})
	return nil, out, err
}

// findPersona resolves id against the roster; empty means the active coworker.
func findPersona(sess *session.Session, id string) (models.Persona, bool) {
	if id == "" {
		return sess.ActiveNPC(), true
	}
	for _, p := range sess.Personas() {
		if p.ID == id {
			return p, true
		}
	}
	return models.Persona{}, false
}

func (s *Server) handleOfficeEmail(ctx context.Context, req *sdk.CallToolRequest, args EmailInput) (_ *sdk.CallToolResult, _ EmailOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_email", start, retErr, sanitizeToolParams(map[string]any{
			"action": args.Action, "id": args.ID, "to": args.To, "subject": args.Subject, "body": args.Body,
		}))
	}()

	if err := s.toolLimiters.Check("office_email"); err != nil {
		return nil, EmailOutput{}, err
	}

	var out EmailOutput
	err := s.driver.Do(func(sess *session.Session) error {
		switch args.Action {
		case "", "list":
			if err := sess.OpenTool(models.ToolEmail); err != nil {
				return err
			}
			emails := sess.Emails()
			out.Emails = make([]EmailSummary, 0, len(emails))
			for _, e := range emails {
				out.Emails = append(out.Emails, EmailSummary{
					ID: e.ID, From: e.From, To: e.To, Subject: e.Subject, Tick: e.Tick, IsRead: e.IsRead,
				})
			}
			out.Count = len(out.Emails)
		case "read":
			if args.ID == "" {
				return fmt.Errorf("id is required to read an email")
			}
			e, err := sess.ReadEmail(args.ID)
			if err != nil {
				return err
			}
			out.Email = &e
		case "send":
			if args.To == "" {
				return fmt.Errorf("to is required to send an email")
			}
			e, err := sess.SendEmail(args.To, args.Subject, args.Body)
			if err != nil {
				return err
			}
			out.Email = &e
		default:
			return fmt.Errorf("invalid action %q (valid: list, read, send)", args.Action)
		}
		return nil
	})
	return nil, out, err
}

func (s *Server) handleOfficeSearch(ctx context.Context, req *sdk.CallToolRequest, args SearchInput) (_ *sdk.CallToolResult, _ SearchOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_search", start, retErr, sanitizeToolParams(map[string]any{"query": args.Query}))
	}()

	if err := s.toolLimiters.Check("office_search"); err != nil {
		return nil, SearchOutput{}, err
	}

	var out SearchOutput
	err := s.driver.Do(func(sess *session.Session) error {
		results, err := sess.Search(args.Query)
		if err != nil {
			return err
		}
		out = SearchOutput{Query: sess.SearchQuery(), Results: results, Count: len(results)}
		return nil
	})
	return nil, out, err
}

func (s *Server) handleOfficeCalendar(ctx context.Context, req *sdk.CallToolRequest, args CalendarInput) (_ *sdk.CallToolResult, _ CalendarOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_calendar", start, retErr, sanitizeToolParams(map[string]any{
			"action": args.Action, "title": args.Title, "day": args.Day,
			"start_hour": args.StartHour, "end_hour": args.EndHour,
		}))
	}()

	if err := s.toolLimiters.Check("office_calendar"); err != nil {
		return nil, CalendarOutput{}, err
	}

	var out CalendarOutput
	err := s.driver.Do(func(sess *session.Session) error {
		switch args.Action {
		case "", "list":
			if err := sess.OpenTool(models.ToolCalendar); err != nil {
				return err
			}
			out.Events = sess.CalendarEvents()
		case "add":
			e, conflict, err := sess.AddEvent(args.Title, args.Day, args.StartHour, args.EndHour)
			if err != nil {
				return err
			}
			out.Added = &e
			out.Conflict = conflict
			out.Events = sess.CalendarEvents()
		default:
			return fmt.Errorf("invalid action %q (valid: list, add)", args.Action)
		}
		return nil
	})
	return nil, out, err
}

func (s *Server) handleOfficeOpen(ctx context.Context, req *sdk.CallToolRequest, args OpenInput) (_ *sdk.CallToolResult, _ OpenOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_open", start, retErr, sanitizeToolParams(map[string]any{
			"path": args.Path, "close": args.Close,
		}))
	}()

	if err := s.toolLimiters.Check("office_open"); err != nil {
		return nil, OpenOutput{}, err
	}
	if args.Path == "" {
		return nil, OpenOutput{}, fmt.Errorf("path is required")
	}

	out := OpenOutput{Path: args.Path}
	err := s.driver.Do(func(sess *session.Session) error {
		if args.Close {
			if err := sess.CloseFile(args.Path); err != nil {
				return err
			}
		} else {
			content, err := sess.OpenFile(args.Path)
			if err != nil {
				return err
			}
			out.Content = content
		}
		out.OpenFiles = sess.OpenFiles()
		return nil
	})
	return nil, out, err
}

func (s *Server) handleOfficeTool(ctx context.Context, req *sdk.CallToolRequest, args ToolInput) (_ *sdk.CallToolResult, _ ToolOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_tool", start, retErr, sanitizeToolParams(map[string]any{"tool": args.Tool}))
	}()

	if err := s.toolLimiters.Check("office_tool"); err != nil {
		return nil, ToolOutput{}, err
	}

	var out ToolOutput
	err := s.driver.Do(func(sess *session.Session) error {
		if err := sess.OpenTool(models.ToolID(args.Tool)); err != nil {
			return err
		}
		out.ActiveTool = sess.ActiveTool()
		return nil
	})
	return nil, out, err
}

func (s *Server) handleOfficeStatus(ctx context.Context, req *sdk.CallToolRequest, args StatusInput) (_ *sdk.CallToolResult, _ StatusOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_status", start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := s.toolLimiters.Check("office_status"); err != nil {
		return nil, StatusOutput{}, err
	}

	var out StatusOutput
	_ = s.driver.Do(func(sess *session.Session) error {
		out.Status = sess.Status()
		out.Events = sess.NewEvents()
		out.Summary = finalSummary(sess)
		return nil
	})
	return nil, out, nil
}

func (s *Server) handleOfficeWait(ctx context.Context, req *sdk.CallToolRequest, args WaitInput) (_ *sdk.CallToolResult, _ WaitOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_wait", start, retErr, sanitizeToolParams(map[string]any{"ticks": args.Ticks}))
	}()

	if err := s.toolLimiters.Check("office_wait"); err != nil {
		return nil, WaitOutput{}, err
	}

	ticks := args.Ticks
	if ticks == 0 {
		ticks = 1
	}
	if ticks < 0 || ticks > s.maxWait {
		return nil, WaitOutput{}, fmt.Errorf("ticks must be between 1 and %d", s.maxWait)
	}

	var before int
	var phase session.Phase
	_ = s.driver.Do(func(sess *session.Session) error {
		before = sess.Clock().Tick
		phase = sess.Phase()
		return nil
	})
	if phase != session.PhasePlaying {
		return nil, WaitOutput{}, fmt.Errorf("%w (%s)", session.ErrNotPlaying, phase)
	}

	// Background work settles before every tick so each wait is repeatable.
	for i := 0; i < ticks && ctx.Err() == nil; i++ {
		s.driver.WaitIdle()
		s.driver.Step(ctx, 1)
	}

	var out WaitOutput
	_ = s.driver.Do(func(sess *session.Session) error {
		snap := sess.Clock()
		out = WaitOutput{
			Ticked:  snap.Tick - before,
			Time:    snap.TimeString(),
			Day:     snap.Day,
			Phase:   sess.Phase(),
			Events:  sess.NewEvents(),
			Summary: finalSummary(sess),
		}
		return nil
	})
	s.logger.Debug("office wait", "requested", ticks, "ticked", out.Ticked, "events", len(out.Events))
	return nil, out, ctx.Err()
}

func (s *Server) handleOfficeNewShift(ctx context.Context, req *sdk.CallToolRequest, args NewShiftInput) (_ *sdk.CallToolResult, _ NewShiftOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("office_new_shift", start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := s.toolLimiters.Check("office_new_shift"); err != nil {
		return nil, NewShiftOutput{}, err
	}

	s.driver.WaitIdle()
	var out NewShiftOutput
	err := s.driver.Do(func(sess *session.Session) error {
		out.Previous = sess.Summary()
		sess.Reset()
		if err := sess.Start(ctx); err != nil {
			return err
		}
		out.SessionID = sess.ID()
		out.NPC = sess.ActiveNPC()
		return nil
	})
	if err == nil {
		s.logger.Info("new shift", "session", out.SessionID, "previous_score", out.Previous.TotalScore)
	}
	return nil, out, err
}

// finalSummary returns the summary once the shift is over, nil before.
func finalSummary(sess *session.Session) *scoring.Summary {
	if !sess.Phase().IsOver() {
		return nil
	}
	sum := sess.Summary()
	return &sum
}
