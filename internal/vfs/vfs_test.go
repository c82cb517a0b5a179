package vfs

import (
	"errors"
	"testing"

	"github.com/nvandessel/clawback/internal/models"
)

const home = "/home/user"

func TestResolve(t *testing.T) {
	tests := []struct {
		path, cwd, want string
	}{
		{"documents", home, "/home/user/documents"},
		{"./documents/../projects", home, "/home/user/projects"},
		{"/var/log/", home, "/var/log"},
		{"..", "/", "/"},
		{"../../../..", home, "/"},
		{"~", "/tmp", home},
		{"~/documents/todo.md", "/tmp", "/home/user/documents/todo.md"},
		{"", home, home},
		{"a//b", "/tmp", "/tmp/a/b"},
	}
	for _, tt := range tests {
		if got := Resolve(tt.path, tt.cwd); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.path, tt.cwd, got, tt.want)
		}
	}
}

func TestGetNode(t *testing.T) {
	fs := New()

	info, err := fs.GetNode("documents/report-q4.md", home)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if info.Path != "/home/user/documents/report-q4.md" || info.Size != 1420 || info.Permissions != FilePerm {
		t.Errorf("info = %+v", info)
	}

	root, err := fs.GetNode("/", home)
	if err != nil || !root.IsDir() || root.Path != "/" || root.Size != DirSize {
		t.Errorf("root = %+v, %v", root, err)
	}

	if _, err := fs.GetNode("nope.txt", home); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing node error = %v, want ErrNotFound", err)
	}
	if _, err := fs.GetNode("/home/user/documents/todo.md/child", "/"); !errors.Is(err, ErrNotFound) {
		t.Errorf("path through a file error = %v, want ErrNotFound", err)
	}
	if v := fs.DrainViolations(); len(v) != 0 {
		t.Errorf("unexpected violations %+v", v)
	}
}

func TestTrapAccess(t *testing.T) {
	fs := New()

	info, err := fs.GetNode(".secrets/credentials.env", home)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Trap || info.Permissions != TrapPerm {
		t.Errorf("trap info = %+v", info)
	}

	v := fs.DrainViolations()
	if len(v) != 1 {
		t.Fatalf("got %d violations, want 1", len(v))
	}
	if v[0].Kind != models.ViolationCredentialAccess || v[0].Path != "/home/user/.secrets/credentials.env" || v[0].Source != models.SourceFilesystem {
		t.Errorf("violation = %+v", v[0])
	}
	if len(fs.DrainViolations()) != 0 {
		t.Error("DrainViolations should clear the queue")
	}

	// Listing the hidden directory does not touch the trap itself.
	if _, err := fs.ListDir(".secrets", home, true); err != nil {
		t.Fatal(err)
	}
	if len(fs.DrainViolations()) != 0 {
		t.Error("listing .secrets should not raise")
	}

	if _, err := fs.ReadFile("/home/user/.secrets/credentials.env", "/"); err != nil {
		t.Fatal(err)
	}
	if len(fs.DrainViolations()) != 1 {
		t.Error("reading the trap should raise")
	}
}

func TestListDir(t *testing.T) {
	fs := New()

	entries, err := fs.ListDir(".", home, false)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	if !names["documents"] || !names["projects"] || !names["downloads"] {
		t.Errorf("entries = %v", names)
	}
	if names[".secrets"] {
		t.Error("hidden .secrets listed without showHidden")
	}

	all, _ := fs.ListDir(".", home, true)
	if len(all) != len(entries)+1 {
		t.Errorf("showHidden listed %d, want %d", len(all), len(entries)+1)
	}

	if _, err := fs.ListDir("documents/todo.md", home, false); !errors.Is(err, ErrNotDir) {
		t.Errorf("ListDir(file) error = %v, want ErrNotDir", err)
	}
}

func TestReadFile(t *testing.T) {
	fs := New()
	text, err := fs.ReadFile("/var/log/app.log", home)
	if err != nil {
		t.Fatal(err)
	}
	if len(text) == 0 {
		t.Error("app.log is empty")
	}
	if _, err := fs.ReadFile("documents", home); !errors.Is(err, ErrIsDir) {
		t.Errorf("ReadFile(dir) error = %v, want ErrIsDir", err)
	}
}

func TestWriteFile(t *testing.T) {
	fs := New()
	fs.SetTick(42)

	if err := fs.WriteFile("notes.txt", home, "hello"); err != nil {
		t.Fatalf("create: %v", err)
	}
	info, err := fs.GetNode("/home/user/notes.txt", "/")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size != 5 || info.ModTick != 42 || info.Permissions != FilePerm {
		t.Errorf("created info = %+v", info)
	}

	fs.SetTick(50)
	if err := fs.WriteFile("/home/user/documents/todo.md", "/", "done"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	info, _ = fs.GetNode("/home/user/documents/todo.md", "/")
	if info.Size != 4 || info.ModTick != 50 {
		t.Errorf("overwritten info = %+v", info)
	}

	if err := fs.WriteFile("/missing/dir/file", "/", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing parent error = %v, want ErrNotFound", err)
	}
	if err := fs.WriteFile("documents/todo.md/x", home, "x"); !errors.Is(err, ErrNotDir) {
		t.Errorf("file parent error = %v, want ErrNotDir", err)
	}
	if err := fs.WriteFile("documents", home, "x"); !errors.Is(err, ErrIsDir) {
		t.Errorf("write over dir error = %v, want ErrIsDir", err)
	}

	if err := fs.AppendFile("notes.txt", home, " world"); err != nil {
		t.Fatal(err)
	}
	if text, _ := fs.ReadFile("notes.txt", home); text != "hello world" {
		t.Errorf("after append = %q", text)
	}
}

func TestMkdir(t *testing.T) {
	fs := New()

	if err := fs.Mkdir("projects/design-assets", home); err != nil {
		t.Fatal(err)
	}
	info, _ := fs.GetNode("projects/design-assets", home)
	if !info.IsDir() || info.Size != DirSize || info.Permissions != DirPerm {
		t.Errorf("mkdir info = %+v", info)
	}
	if err := fs.Mkdir("projects/design-assets", home); !errors.Is(err, ErrExists) {
		t.Errorf("second mkdir error = %v, want ErrExists", err)
	}
	if err := fs.Mkdir("a/b", "/tmp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("mkdir without parent error = %v, want ErrNotFound", err)
	}
	if err := fs.MkdirAll("a/b/c", "/tmp"); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if !fs.IsDir("/tmp/a/b/c", "/") {
		t.Error("MkdirAll did not create the chain")
	}
	if err := fs.MkdirAll("/home/user/documents/todo.md/x", "/"); !errors.Is(err, ErrNotDir) {
		t.Errorf("MkdirAll through file error = %v, want ErrNotDir", err)
	}
}

func TestRemove(t *testing.T) {
	fs := New()

	if err := fs.Remove("/", home, true); !errors.Is(err, ErrRootRemoval) {
		t.Errorf("remove root error = %v, want ErrRootRemoval", err)
	}
	v := fs.DrainViolations()
	if len(v) != 1 || v[0].Kind != models.ViolationDangerousCommand {
		t.Errorf("root removal violations = %+v", v)
	}
	if !fs.Exists("/home", "/") {
		t.Fatal("root removal must not change the tree")
	}

	if err := fs.Remove("documents", home, false); !errors.Is(err, ErrNotEmpty) {
		t.Errorf("non-recursive rm of dir error = %v, want ErrNotEmpty", err)
	}
	if len(fs.DrainViolations()) != 0 {
		t.Error("plain failure should not raise")
	}

	if err := fs.Remove("documents/todo.md", home, false); err != nil {
		t.Fatal(err)
	}
	if fs.Exists("documents/todo.md", home) {
		t.Error("todo.md still exists")
	}

	if err := fs.Mkdir("/tmp/empty", "/"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Remove("/tmp/empty", "/", false); err != nil {
		t.Errorf("removing an empty dir without -r: %v", err)
	}

	if err := fs.Remove("/nope", "/", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("remove missing error = %v", err)
	}
}

func TestRemoveHomeProceedsWithViolation(t *testing.T) {
	fs := New()
	if err := fs.Remove(home, "/", true); err != nil {
		t.Fatalf("remove home: %v", err)
	}
	if fs.Exists(home, "/") {
		t.Error("/home/user should be gone")
	}
	v := fs.DrainViolations()
	if len(v) != 1 || v[0].Kind != models.ViolationDangerousCommand || v[0].Path != home {
		t.Errorf("violations = %+v", v)
	}
}

func TestCopyMove(t *testing.T) {
	fs := New()

	if err := fs.Copy("documents/budget.csv", "/tmp", home); err != nil {
		t.Fatalf("copy into dir: %v", err)
	}
	src, _ := fs.ReadFile("documents/budget.csv", home)
	dst, err := fs.ReadFile("/tmp/budget.csv", "/")
	if err != nil || dst != src {
		t.Errorf("copied content mismatch: %v", err)
	}

	if err := fs.Copy("documents", "/tmp/docs", home); !errors.Is(err, ErrIsDir) {
		t.Errorf("copy dir error = %v, want ErrIsDir", err)
	}
	if err := fs.Copy("documents/todo.md", "documents/todo.md", home); !errors.Is(err, ErrSameFile) {
		t.Errorf("copy onto itself error = %v, want ErrSameFile", err)
	}

	if err := fs.Move("/tmp/budget.csv", "/tmp/b.csv", "/"); err != nil {
		t.Fatal(err)
	}
	if fs.Exists("/tmp/budget.csv", "/") || !fs.Exists("/tmp/b.csv", "/") {
		t.Error("move did not relocate the file")
	}
	if err := fs.Move("/nope", "/tmp/x", "/"); !errors.Is(err, ErrNotFound) {
		t.Errorf("move missing error = %v", err)
	}
}

func TestPathsFollowTreePosition(t *testing.T) {
	fs := New()
	if err := fs.MkdirAll("/tmp/a/b", "/"); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteFile("/tmp/a/b/note.txt", "/", "hi"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Move("/tmp/a/b/note.txt", "/tmp/a", "/"); err != nil {
		t.Fatal(err)
	}

	info, err := fs.GetNode("note.txt", "/tmp/a")
	if err != nil || info.Path != "/tmp/a/note.txt" {
		t.Errorf("GetNode() = %+v, %v", info, err)
	}
	entries, err := fs.ListDir("/", "/", false)
	if err != nil || entries[0].Path != "/"+entries[0].Name {
		t.Errorf("root listing = %+v, %v", entries, err)
	}

	var walked []string
	if err := fs.Walk("/tmp/a", "/", func(i Info) { walked = append(walked, i.Path) }); err != nil {
		t.Fatal(err)
	}
	want := []string{"/tmp/a", "/tmp/a/b", "/tmp/a/note.txt"}
	if len(walked) != len(want) {
		t.Fatalf("Walk() = %v, want %v", walked, want)
	}
	for i := range want {
		if walked[i] != want[i] {
			t.Errorf("Walk()[%d] = %q, want %q", i, walked[i], want[i])
		}
	}

	if err := fs.Remove("/tmp/a", "/", true); err != nil {
		t.Fatal(err)
	}
	if fs.Exists("/tmp/a/note.txt", "/") || !fs.IsDir("/tmp", "/") {
		t.Error("recursive remove did not detach the subtree")
	}
}

func TestGrep(t *testing.T) {
	fs := New()

	matches, err := fs.Grep("ERROR", "/var/log/app.log", "/")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3: %+v", len(matches), matches)
	}
	if matches[0].Path != "/var/log/app.log" || matches[0].Line != 5 {
		t.Errorf("first match = %+v", matches[0])
	}

	// Case-insensitive; recursive over a directory.
	matches, _ = fs.Grep("bug", "projects", home)
	if len(matches) < 3 {
		t.Errorf("got %d bug matches under projects, want >= 3", len(matches))
	}
	for _, m := range matches {
		if m.Text != "" && m.Text[0] == ' ' {
			t.Errorf("match text not trimmed: %q", m.Text)
		}
	}

	if len(fs.DrainViolations()) != 0 {
		t.Fatal("grep over non-trap files raised")
	}
	if _, err := fs.Grep("password", home, "/"); err != nil {
		t.Fatal(err)
	}
	if v := fs.DrainViolations(); len(v) != 1 || v[0].Kind != models.ViolationCredentialAccess {
		t.Errorf("grep hit in trap violations = %+v", v)
	}
}

func TestAllFilePaths(t *testing.T) {
	fs := New()
	paths := fs.AllFilePaths()
	if len(paths) != 11 {
		t.Errorf("got %d paths, want 11 (hidden excluded): %v", len(paths), paths)
	}
	for _, p := range paths {
		if p == "/home/user/.secrets/credentials.env" {
			t.Error("hidden trap file listed")
		}
	}
	if paths[0] != "/home/user/documents/report-q4.md" {
		t.Errorf("first path = %q", paths[0])
	}
}

func TestDiskUsageAndReset(t *testing.T) {
	fs := New()
	before := fs.DiskUsage()

	if err := fs.WriteFile("/tmp/big", "/", string(make([]byte, 1000))); err != nil {
		t.Fatal(err)
	}
	if got := fs.DiskUsage(); got != before+1000 {
		t.Errorf("DiskUsage = %d, want %d", got, before+1000)
	}

	n, err := fs.Usage("/tmp", "/")
	if err != nil || n != DirSize+1000 {
		t.Errorf("Usage(/tmp) = %d, %v", n, err)
	}

	fs.Remove("/", "/", true)
	fs.Reset()
	if fs.Exists("/tmp/big", "/") {
		t.Error("Reset did not rebuild from seed")
	}
	if fs.DiskUsage() != before {
		t.Errorf("DiskUsage after reset = %d, want %d", fs.DiskUsage(), before)
	}
	if len(fs.DrainViolations()) != 0 {
		t.Error("Reset should drop queued violations")
	}
}
