// Package terminal interprets shell-like command lines against the virtual
// filesystem. It never touches the host: every command is simulated and
// reports the resource cost the session charges for it.
package terminal

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/vfs"
)

// Cost is the resource load a command adds to the simulated machine.
type Cost struct {
	CPU     float64 `json:"cpu,omitempty"`
	Memory  float64 `json:"memory,omitempty"`
	Disk    float64 `json:"disk,omitempty"`
	Network float64 `json:"network,omitempty"`
}

// IsZero reports whether the cost charges nothing.
func (c Cost) IsZero() bool { return c == Cost{} }

var (
	costList    = Cost{CPU: 1}
	costRead    = Cost{CPU: 1, Memory: 2}
	costGrep    = Cost{CPU: 5, Memory: 3}
	costDu      = Cost{CPU: 3}
	costFind    = Cost{CPU: 4}
	costGit     = Cost{CPU: 2}
	costTop     = Cost{CPU: 2}
	costWrite   = Cost{Disk: 1}
	costNet     = Cost{Network: 15, CPU: 2}
	costInstall = Cost{Network: 25, CPU: 10, Memory: 5, Disk: 2}
)

// Result is the outcome of one command line.
type Result struct {
	Output  string `json:"output"`
	IsError bool   `json:"is_error"`
	NewCwd  string `json:"new_cwd,omitempty"`
	Cost    Cost   `json:"cost"`
	Clear   bool   `json:"clear,omitempty"`
}

// FS is the filesystem surface the interpreter needs.
type FS interface {
	Resolve(p, cwd string) string
	GetNode(p, cwd string) (vfs.Info, error)
	Exists(p, cwd string) bool
	IsDir(p, cwd string) bool
	ListDir(p, cwd string, showHidden bool) ([]vfs.Info, error)
	ReadFile(p, cwd string) (string, error)
	WriteFile(p, cwd, data string) error
	AppendFile(p, cwd, data string) error
	Touch(p, cwd string) error
	Mkdir(p, cwd string) error
	MkdirAll(p, cwd string) error
	Remove(p, cwd string, recursive bool) error
	Copy(src, dst, cwd string) error
	Move(src, dst, cwd string) error
	Grep(pattern, p, cwd string) ([]vfs.Match, error)
	Walk(p, cwd string, fn func(vfs.Info)) error
	Usage(p, cwd string) (int, error)
	DiskUsage() int
}

// DiskCapacity is the size df reports for the virtual disk.
const DiskCapacity = 512 * 1024

// Interpreter executes command lines.
type Interpreter struct {
	fs      FS
	history func() []string
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithHistory sets the source of earlier command lines for `history`.
func WithHistory(fn func() []string) Option {
	return func(in *Interpreter) { in.history = fn }
}

// New creates an interpreter over fs.
func New(fs FS, opts ...Option) *Interpreter {
	in := &Interpreter{fs: fs}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

type handler func(in *Interpreter, args []string, cwd string) Result

var commands map[string]handler

func init() {
	commands = map[string]handler{
		"help":    (*Interpreter).help,
		"pwd":     (*Interpreter).pwd,
		"whoami":  (*Interpreter).whoami,
		"ls":      (*Interpreter).ls,
		"cd":      (*Interpreter).cd,
		"cat":     (*Interpreter).cat,
		"less":    (*Interpreter).cat,
		"more":    (*Interpreter).cat,
		"head":    (*Interpreter).head,
		"tail":    (*Interpreter).tail,
		"echo":    (*Interpreter).echo,
		"touch":   (*Interpreter).touch,
		"cp":      (*Interpreter).cp,
		"mv":      (*Interpreter).mv,
		"rm":      (*Interpreter).rm,
		"mkdir":   (*Interpreter).mkdir,
		"grep":    (*Interpreter).grep,
		"find":    (*Interpreter).find,
		"du":      (*Interpreter).du,
		"df":      (*Interpreter).df,
		"ps":      (*Interpreter).ps,
		"top":     (*Interpreter).top,
		"clear":   (*Interpreter).clear,
		"git":     (*Interpreter).git,
		"npm":     (*Interpreter).npm,
		"pip":     (*Interpreter).pip,
		"curl":    (*Interpreter).curl,
		"wget":    (*Interpreter).wget,
		"history": (*Interpreter).historyCmd,
		"sudo":    (*Interpreter).sudo,
	}
}

// Execute runs one command line in cwd.
func (in *Interpreter) Execute(line, cwd string) Result {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{}
	}
	tokens, err := Tokenize(line)
	if err != nil {
		return fail("sh: %v", err)
	}
	if len(tokens) == 0 {
		return Result{}
	}
	return in.run(tokens, cwd, line)
}

func (in *Interpreter) run(tokens []string, cwd, line string) Result {
	h, found := commands[tokens[0]]
	if !found {
		return fail("%s: command not found", tokens[0])
	}
	if tokens[0] == "history" {
		return in.historyLine(line)
	}
	return h(in, tokens[1:], cwd)
}

func ok(format string, args ...any) Result {
	return Result{Output: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) Result {
	return Result{Output: fmt.Sprintf(format, args...), IsError: true}
}

func withCost(r Result, c Cost) Result {
	r.Cost = c
	return r
}

// describe renders a filesystem error the way a shell would.
func describe(cmd, p string, err error) string {
	switch {
	case errors.Is(err, vfs.ErrNotFound):
		return fmt.Sprintf("%s: %s: No such file or directory", cmd, p)
	case errors.Is(err, vfs.ErrNotDir):
		return fmt.Sprintf("%s: %s: Not a directory", cmd, p)
	case errors.Is(err, vfs.ErrIsDir):
		return fmt.Sprintf("%s: %s: Is a directory", cmd, p)
	case errors.Is(err, vfs.ErrNotEmpty):
		return fmt.Sprintf("%s: %s: Directory not empty", cmd, p)
	case errors.Is(err, vfs.ErrExists):
		return fmt.Sprintf("%s: %s: File exists", cmd, p)
	case errors.Is(err, vfs.ErrRootRemoval):
		return fmt.Sprintf("%s: it is dangerous to operate recursively on '/'", cmd)
	case errors.Is(err, vfs.ErrSameFile):
		return fmt.Sprintf("%s: '%s' and its destination are the same file", cmd, p)
	default:
		return fmt.Sprintf("%s: %s: %v", cmd, p, err)
	}
}

// splitFlags separates short flags from operands. "--" ends flag parsing.
func splitFlags(args []string) (flags map[rune]bool, operands []string) {
	flags = map[rune]bool{}
	done := false
	for _, a := range args {
		if !done && a == "--" {
			done = true
			continue
		}
		if !done && len(a) > 1 && a[0] == '-' {
			for _, r := range a[1:] {
				flags[r] = true
			}
			continue
		}
		operands = append(operands, a)
	}
	return flags, operands
}

const helpText = `Available commands:
  help                      show this help
  pwd, whoami               print working directory or user
  ls [-a] [-l] [path]       list directory contents
  cd [path]                 change directory
  cat|less|more file...     print files
  head|tail [-n N] file     print the first or last lines
  echo text [>|>> file]     print or write text
  touch file                create an empty file
  cp src dst, mv src dst    copy or move a file
  rm [-r] [-f] path...      remove files or directories
  mkdir [-p] dir...         create directories
  grep [-r] [-n] pat [path] search file contents
  find [path] [-name pat]   find files by name
  du [-h] [path], df [-h]   disk usage
  ps, top                   process list
  git status|log|diff|branch
  npm install, pip install  install packages
  curl|wget url             fetch a URL
  history, clear`

func (in *Interpreter) help([]string, string) Result { return ok("%s", helpText) }

func (in *Interpreter) pwd(_ []string, cwd string) Result { return ok("%s", cwd) }

func (in *Interpreter) whoami([]string, string) Result { return ok("user") }

func (in *Interpreter) clear([]string, string) Result { return Result{Clear: true} }

func (in *Interpreter) ls(args []string, cwd string) Result {
	flags, operands := splitFlags(args)
	if len(operands) == 0 {
		operands = []string{"."}
	}
	var b strings.Builder
	failed := false
	for i, p := range operands {
		info, err := in.fs.GetNode(p, cwd)
		if err != nil {
			writeLine(&b, describe("ls", p, err))
			failed = true
			continue
		}
		entries := []vfs.Info{info}
		if info.IsDir() {
			if entries, err = in.fs.ListDir(p, cwd, flags['a']); err != nil {
				writeLine(&b, describe("ls", p, err))
				failed = true
				continue
			}
			if len(operands) > 1 {
				if i > 0 {
					writeLine(&b, "")
				}
				writeLine(&b, p+":")
			}
		}
		writeLine(&b, formatEntries(entries, flags['l']))
	}
	return withCost(Result{Output: strings.TrimRight(b.String(), "\n"), IsError: failed}, costList)
}

func formatEntries(entries []vfs.Info, long bool) string {
	if !long {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		return strings.Join(names, "  ")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		kind := "-"
		if e.IsDir() {
			kind = "d"
		}
		lines = append(lines, fmt.Sprintf("%s%s user user %6d %s", kind, e.Permissions, e.Size, e.Name))
	}
	return strings.Join(lines, "\n")
}

func writeLine(b *strings.Builder, s string) {
	b.WriteString(s)
	b.WriteByte('\n')
}

func (in *Interpreter) cd(args []string, cwd string) Result {
	target := constants.HomeDir
	if len(args) > 0 {
		target = args[0]
	}
	info, err := in.fs.GetNode(target, cwd)
	if err != nil {
		return fail("%s", describe("cd", target, err))
	}
	if !info.IsDir() {
		return fail("%s", describe("cd", target, vfs.ErrNotDir))
	}
	return Result{NewCwd: info.Path}
}

func (in *Interpreter) cat(args []string, cwd string) Result {
	_, operands := splitFlags(args)
	if len(operands) == 0 {
		return fail("cat: missing file operand")
	}
	var parts []string
	failed := false
	for _, p := range operands {
		data, err := in.fs.ReadFile(p, cwd)
		if err != nil {
			parts = append(parts, describe("cat", p, err))
			failed = true
			continue
		}
		parts = append(parts, strings.TrimRight(data, "\n"))
	}
	return withCost(Result{Output: strings.Join(parts, "\n"), IsError: failed}, costRead)
}

// lineCount parses -n N, -nN and -N forms, defaulting to 10.
func lineCount(cmd string, args []string) (int, []string, error) {
	n := 10
	var rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-n":
			if i+1 >= len(args) {
				return 0, nil, fmt.Errorf("%s: option requires an argument -- 'n'", cmd)
			}
			i++
			a = "-" + args[i]
			fallthrough
		case strings.HasPrefix(a, "-n") || (len(a) > 1 && a[0] == '-'):
			v, err := strconv.Atoi(strings.TrimPrefix(strings.TrimPrefix(a, "-n"), "-"))
			if err != nil || v < 0 {
				return 0, nil, fmt.Errorf("%s: invalid number of lines: '%s'", cmd, a)
			}
			n = v
		default:
			rest = append(rest, a)
		}
	}
	return n, rest, nil
}

func (in *Interpreter) head(args []string, cwd string) Result {
	return in.slice("head", args, cwd, func(lines []string, n int) []string {
		if n < len(lines) {
			return lines[:n]
		}
		return lines
	})
}

func (in *Interpreter) tail(args []string, cwd string) Result {
	return in.slice("tail", args, cwd, func(lines []string, n int) []string {
		if n < len(lines) {
			return lines[len(lines)-n:]
		}
		return lines
	})
}

func (in *Interpreter) slice(cmd string, args []string, cwd string, pick func([]string, int) []string) Result {
	n, operands, err := lineCount(cmd, args)
	if err != nil {
		return fail("%v", err)
	}
	if len(operands) == 0 {
		return fail("%s: missing file operand", cmd)
	}
	data, err := in.fs.ReadFile(operands[0], cwd)
	if err != nil {
		return withCost(fail("%s", describe(cmd, operands[0], err)), costRead)
	}
	lines := strings.Split(strings.TrimRight(data, "\n"), "\n")
	return withCost(ok("%s", strings.Join(pick(lines, n), "\n")), costRead)
}

func (in *Interpreter) echo(args []string, cwd string) Result {
	var text []string
	for i := 0; i < len(args); i++ {
		if args[i] != ">" && args[i] != ">>" {
			text = append(text, args[i])
			continue
		}
		if i+1 >= len(args) {
			return fail("sh: syntax error near unexpected token `newline'")
		}
		file := args[i+1]
		body := strings.Join(append(text, args[i+2:]...), " ") + "\n"
		var err error
		if args[i] == ">>" {
			err = in.fs.AppendFile(file, cwd, body)
		} else {
			err = in.fs.WriteFile(file, cwd, body)
		}
		if err != nil {
			return fail("%s", describe("sh", file, err))
		}
		return withCost(Result{}, costWrite)
	}
	return ok("%s", strings.Join(text, " "))
}

func (in *Interpreter) touch(args []string, cwd string) Result {
	if len(args) == 0 {
		return fail("touch: missing file operand")
	}
	for _, p := range args {
		if err := in.fs.Touch(p, cwd); err != nil {
			return fail("%s", describe("touch", p, err))
		}
	}
	return withCost(Result{}, costWrite)
}

func (in *Interpreter) cp(args []string, cwd string) Result {
	return in.transfer("cp", args, cwd, in.fs.Copy)
}

func (in *Interpreter) mv(args []string, cwd string) Result {
	return in.transfer("mv", args, cwd, in.fs.Move)
}

func (in *Interpreter) transfer(cmd string, args []string, cwd string, op func(src, dst, cwd string) error) Result {
	_, operands := splitFlags(args)
	if len(operands) < 2 {
		return fail("%s: missing destination file operand", cmd)
	}
	dst := operands[len(operands)-1]
	for _, src := range operands[:len(operands)-1] {
		if err := op(src, dst, cwd); err != nil {
			return fail("%s", describe(cmd, src, err))
		}
	}
	return withCost(Result{}, costWrite)
}

func (in *Interpreter) rm(args []string, cwd string) Result {
	flags, operands := splitFlags(args)
	recursive := flags['r'] || flags['R']
	force := flags['f']
	if len(operands) == 0 {
		return fail("rm: missing operand")
	}
	for _, p := range operands {
		err := in.fs.Remove(p, cwd, recursive)
		if err == nil || (force && errors.Is(err, vfs.ErrNotFound)) {
			continue
		}
		if errors.Is(err, vfs.ErrNotEmpty) {
			return fail("rm: cannot remove '%s': Is a directory", p)
		}
		return fail("%s", describe("rm", p, err))
	}
	return withCost(Result{}, costWrite)
}

func (in *Interpreter) mkdir(args []string, cwd string) Result {
	flags, operands := splitFlags(args)
	if len(operands) == 0 {
		return fail("mkdir: missing operand")
	}
	for _, p := range operands {
		var err error
		if flags['p'] {
			err = in.fs.MkdirAll(p, cwd)
		} else {
			err = in.fs.Mkdir(p, cwd)
		}
		if err != nil {
			return fail("%s", describe("mkdir", p, err))
		}
	}
	return withCost(Result{}, costWrite)
}

func (in *Interpreter) grep(args []string, cwd string) Result {
	flags, operands := splitFlags(args)
	if len(operands) == 0 {
		return fail("grep: missing pattern")
	}
	pattern := operands[0]
	paths := operands[1:]
	recursive := flags['r'] || flags['R']
	if len(paths) == 0 {
		if !recursive {
			return fail("grep: missing file operand")
		}
		paths = []string{"."}
	}

	var lines []string
	failed := false
	for _, p := range paths {
		if !recursive && in.fs.IsDir(p, cwd) {
			lines = append(lines, describe("grep", p, vfs.ErrIsDir))
			failed = true
			continue
		}
		matches, err := in.fs.Grep(pattern, p, cwd)
		if err != nil {
			lines = append(lines, describe("grep", p, err))
			failed = true
			continue
		}
		for _, m := range matches {
			if flags['n'] {
				lines = append(lines, fmt.Sprintf("%s:%d:%s", m.Path, m.Line, m.Text))
			} else {
				lines = append(lines, fmt.Sprintf("%s:%s", m.Path, m.Text))
			}
		}
	}
	return withCost(Result{Output: strings.Join(lines, "\n"), IsError: failed}, costGrep)
}

func (in *Interpreter) find(args []string, cwd string) Result {
	root := "."
	namePattern := ""
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-name" || args[i] == "-iname":
			if i+1 >= len(args) {
				return fail("find: missing argument to `%s'", args[i])
			}
			i++
			namePattern = args[i]
		case strings.HasPrefix(args[i], "-"):
			return fail("find: unknown predicate `%s'", args[i])
		default:
			root = args[i]
		}
	}

	var out []string
	err := in.fs.Walk(root, cwd, func(info vfs.Info) {
		if namePattern != "" {
			matched, _ := path.Match(namePattern, info.Name)
			if !matched {
				return
			}
		}
		out = append(out, info.Path)
	})
	if err != nil {
		return withCost(fail("%s", describe("find", root, err)), costFind)
	}
	return withCost(ok("%s", strings.Join(out, "\n")), costFind)
}

func sizeString(n int, human bool) string {
	if human {
		return humanize.IBytes(uint64(n))
	}
	return strconv.Itoa((n + 1023) / 1024)
}

func (in *Interpreter) du(args []string, cwd string) Result {
	flags, operands := splitFlags(args)
	if len(operands) == 0 {
		operands = []string{"."}
	}
	var lines []string
	for _, p := range operands {
		n, err := in.fs.Usage(p, cwd)
		if err != nil {
			return withCost(fail("%s", describe("du", p, err)), costDu)
		}
		lines = append(lines, fmt.Sprintf("%s\t%s", sizeString(n, flags['h']), in.fs.Resolve(p, cwd)))
	}
	return withCost(ok("%s", strings.Join(lines, "\n")), costDu)
}

func (in *Interpreter) df(args []string, _ string) Result {
	flags, _ := splitFlags(args)
	used := in.fs.DiskUsage()
	avail := DiskCapacity - used
	if avail < 0 {
		avail = 0
	}
	pct := used * 100 / DiskCapacity
	header := "Filesystem     1K-blocks  Used Available Use% Mounted on"
	if flags['h'] {
		header = "Filesystem      Size  Used Avail Use% Mounted on"
	}
	row := fmt.Sprintf("vdisk0 %10s %5s %9s %3d%% /",
		sizeString(DiskCapacity, flags['h']), sizeString(used, flags['h']), sizeString(avail, flags['h']), pct)
	return withCost(ok("%s\n%s", header, row), costDu)
}

const psText = `  PID TTY          TIME CMD
    1 ?        00:00:02 init
  212 ?        00:00:09 clawback-agent
  318 pts/0    00:00:00 bash
  402 pts/0    00:00:00 ps`

func (in *Interpreter) ps([]string, string) Result {
	return withCost(ok("%s", psText), costList)
}

const topText = `top - load average: 0.42, 0.37, 0.30
Tasks:   4 total,   1 running,   3 sleeping
  PID USER      %CPU %MEM COMMAND
  212 user       3.1  4.2 clawback-agent
    1 root       0.0  0.1 init
  318 user       0.0  0.3 bash`

func (in *Interpreter) top([]string, string) Result {
	return withCost(ok("%s", topText), costTop)
}

// inRepo reports whether cwd lies inside a project checkout.
func inRepo(cwd string) bool {
	projects := path.Join(constants.HomeDir, "projects")
	return strings.HasPrefix(cwd+"/", projects+"/") && cwd != projects
}

func (in *Interpreter) git(args []string, cwd string) Result {
	if len(args) == 0 {
		return fail("usage: git <status|log|diff|branch>")
	}
	if !inRepo(cwd) {
		return withCost(fail("fatal: not a git repository (or any of the parent directories): .git"), costGit)
	}
	switch args[0] {
	case "status":
		return withCost(ok("On branch main\nYour branch is up to date with 'origin/main'.\n\nnothing to commit, working tree clean"), costGit)
	case "log":
		return withCost(ok("commit 3f9c2a1 (HEAD -> main, origin/main)\nAuthor: Dev Dan <dan@company.com>\n\n    Fix login redirect\n\ncommit 8b41e07\nAuthor: Sarah <sarah@company.com>\n\n    Initial commit"), costGit)
	case "diff":
		return withCost(Result{}, costGit)
	case "branch":
		return withCost(ok("* main\n  feature/dark-mode"), costGit)
	default:
		return withCost(fail("git: '%s' is not a git command. See 'git --help'.", args[0]), costGit)
	}
}

func (in *Interpreter) npm(args []string, cwd string) Result {
	if len(args) == 0 || (args[0] != "install" && args[0] != "i") {
		return fail("Usage: npm install [<package>...]")
	}
	_, pkgs := splitFlags(args[1:])
	if len(pkgs) == 0 {
		if !in.fs.Exists("package.json", cwd) {
			return withCost(fail("npm ERR! enoent Could not read package.json"), costInstall)
		}
		return withCost(ok("up to date, audited 1 package in 1s\n\nfound 0 vulnerabilities"), costInstall)
	}
	return withCost(ok("added %d package(s) in 2s: %s\n\nfound 0 vulnerabilities", len(pkgs), strings.Join(pkgs, ", ")), costInstall)
}

func (in *Interpreter) pip(args []string, cwd string) Result {
	if len(args) == 0 || args[0] != "install" {
		return fail("Usage: pip install [-r requirements.txt] <package>...")
	}
	var pkgs []string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		if rest[i] == "-r" {
			if i+1 >= len(rest) {
				return fail("pip: error: -r option requires 1 argument")
			}
			i++
			data, err := in.fs.ReadFile(rest[i], cwd)
			if err != nil {
				return withCost(fail("ERROR: Could not open requirements file: %s", describe("pip", rest[i], err)), costInstall)
			}
			for _, line := range strings.Split(data, "\n") {
				if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
					pkgs = append(pkgs, line)
				}
			}
			continue
		}
		if !strings.HasPrefix(rest[i], "-") {
			pkgs = append(pkgs, rest[i])
		}
	}
	if len(pkgs) == 0 {
		return fail("ERROR: You must give at least one requirement to install")
	}
	return withCost(ok("Successfully installed %s", strings.Join(pkgs, " ")), costInstall)
}

// urlArg returns the first operand that is not a flag value.
func urlArg(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") {
			if len(a) == 2 && strings.ContainsAny(a[1:], "dHoXuT") {
				i++
			}
			continue
		}
		return a
	}
	return ""
}

func (in *Interpreter) curl(args []string, _ string) Result {
	u := urlArg(args)
	if u == "" {
		return fail("curl: no URL specified!")
	}
	return withCost(ok("HTTP/1.1 200 OK\n[simulated response from %s]", u), costNet)
}

func (in *Interpreter) wget(args []string, _ string) Result {
	u := urlArg(args)
	if u == "" {
		return fail("wget: missing URL")
	}
	name := path.Base(u)
	if name == "" || name == "." || name == "/" || strings.Contains(name, ":") {
		name = "index.html"
	}
	return withCost(ok("Connecting to %s... connected.\nHTTP request sent, awaiting response... 200 OK\n[simulated download of '%s']", u, name), costNet)
}

func (in *Interpreter) historyCmd([]string, string) Result { return Result{} }

func (in *Interpreter) historyLine(line string) Result {
	var prior []string
	if in.history != nil {
		prior = in.history()
	}
	all := append(append([]string{}, prior...), line)
	lines := make([]string, len(all))
	for i, cmd := range all {
		lines[i] = fmt.Sprintf("%5d  %s", i+1, cmd)
	}
	return ok("%s", strings.Join(lines, "\n"))
}

func (in *Interpreter) sudo(args []string, cwd string) Result {
	if len(args) == 0 {
		return fail("usage: sudo command")
	}
	return in.run(args, cwd, strings.Join(args, " "))
}
