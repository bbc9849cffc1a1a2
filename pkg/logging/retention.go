package logging

import (
	"os"
	"path/filepath"
	"sort"
	"time"
)

const sessionDirLayout = "2006-01-02-150405"

// RetentionPolicy defines log retention rules
type RetentionPolicy struct {
	KeepSessions int // Keep the newest N session directories
	MaxAgeDays   int // Delete sessions older than this regardless of count
}

// DefaultRetentionPolicy returns the defaults used by Init.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		KeepSessions: 20,
		MaxAgeDays:   30,
	}
}

// pruneSessions removes session directories under baseDir that fall outside
// the policy. The current session is never removed. A zero policy keeps all.
func pruneSessions(baseDir, current string, policy RetentionPolicy, now time.Time) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return
	}

	type session struct {
		name    string
		started time.Time
	}

	var sessions []session
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		started, err := time.ParseInLocation(sessionDirLayout, entry.Name(), time.Local)
		if err != nil {
			continue
		}
		sessions = append(sessions, session{name: entry.Name(), started: started})
	}

	// Newest first
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].name > sessions[j].name
	})

	maxAge := time.Duration(policy.MaxAgeDays) * 24 * time.Hour
	for i, s := range sessions {
		path := filepath.Join(baseDir, s.name)
		if path == current {
			continue
		}
		tooMany := policy.KeepSessions > 0 && i >= policy.KeepSessions
		tooOld := policy.MaxAgeDays > 0 && now.Sub(s.started) > maxAge
		if tooMany || tooOld {
			os.RemoveAll(path) // best effort
		}
	}
}
