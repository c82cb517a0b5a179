package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/clawback/internal/pathutil"
)

// ReportInfo describes a report file for retention decisions.
type ReportInfo struct {
	Path      string
	Size      int64
	WrittenAt time.Time
}

// RetentionPolicy decides which reports to keep.
type RetentionPolicy interface {
	Apply(reports []ReportInfo) (keep []ReportInfo)
}

// CountPolicy keeps the N most recent reports.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount reports (sorted newest-first).
func (p *CountPolicy) Apply(reports []ReportInfo) []ReportInfo {
	if len(reports) <= p.MaxCount {
		return reports
	}
	return reports[:p.MaxCount]
}

// AgePolicy keeps reports written within MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
	now    func() time.Time
}

// Apply keeps reports whose WrittenAt is within MaxAge of now.
func (p *AgePolicy) Apply(reports []ReportInfo) []ReportInfo {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	cutoff := now().Add(-p.MaxAge)
	var keep []ReportInfo
	for _, r := range reports {
		if r.WrittenAt.After(cutoff) {
			keep = append(keep, r)
		}
	}
	return keep
}

// CompositePolicy keeps a report only if every sub-policy keeps it.
type CompositePolicy struct {
	Policies []RetentionPolicy
}

// Apply returns the intersection of the reports kept by each sub-policy.
func (p *CompositePolicy) Apply(reports []ReportInfo) []ReportInfo {
	keep := reports
	for _, policy := range p.Policies {
		keep = policy.Apply(keep)
	}
	return keep
}

// ListReports scans dir for shift reports, newest first.
// A missing directory holds no reports.
func ListReports(dir string) ([]ReportInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading report directory: %w", err)
	}

	var reports []ReportInfo
	for _, e := range entries {
		if e.IsDir() || !isReportFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		reports = append(reports, ReportInfo{
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			WrittenAt: info.ModTime(),
		})
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if !reports[i].WrittenAt.Equal(reports[j].WrittenAt) {
			return reports[i].WrittenAt.After(reports[j].WrittenAt)
		}
		return reports[i].Path > reports[j].Path
	})
	return reports, nil
}

// PruneReports deletes the reports in dir the policy does not keep and
// returns the removed paths.
func PruneReports(dir string, policy RetentionPolicy) (deleted []string, err error) {
	reports, err := ListReports(dir)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[string]bool)
	for _, r := range policy.Apply(reports) {
		keepSet[r.Path] = true
	}

	for _, r := range reports {
		if keepSet[r.Path] {
			continue
		}
		// Refuse paths that resolve outside the report directory.
		if err := pathutil.ValidatePath(r.Path, []string{dir}); err != nil {
			return deleted, err
		}
		if err := os.Remove(r.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", pathutil.RedactPath(r.Path), err)
		}
		deleted = append(deleted, r.Path)
	}
	return deleted, nil
}

func isReportFile(name string) bool {
	return strings.HasPrefix(name, "shift-") && strings.HasSuffix(name, ".json")
}

// ParseAge parses retention ages like "30d", "2w" or "720h".
func ParseAge(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", string(suffix), s)
	}
}
