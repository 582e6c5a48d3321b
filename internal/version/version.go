package version

import (
	"fmt"
	"time"

	"savestate-server/internal/infrastructure/storage"
)

// Заполняются через -ldflags "-X savestate-server/internal/version.BuildDate=..."
var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
	BuildCI     string
)

var buildEpoch = time.Date(
	2025, time.December, 4,
	0, 0, 0, 0,
	time.UTC,
)

// VersionInfo describes the build metadata and the save format this build writes.
type VersionInfo struct {
	BuildID        int
	BuildDate      string
	Commit         string
	Branch         string
	CI             string
	SnapshotMagic  string
	SnapshotFormat uint32
	Calculated     bool
	Error          string
}

// CalculateBuildID returns the number of days between the epoch and date.
func CalculateBuildID(date string) (int, error) {
	if date == "" {
		return 0, fmt.Errorf("BuildDate is empty")
	}

	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid BuildDate %q: %w", date, err)
	}

	if t.Before(buildEpoch) {
		return 0, fmt.Errorf("BuildDate %s is before epoch", date)
	}

	return int(t.Sub(buildEpoch).Hours() / 24), nil
}

// Info returns structured version information.
func Info() VersionInfo {
	info := VersionInfo{
		BuildDate:      BuildDate,
		Commit:         BuildCommit,
		Branch:         BuildBranch,
		CI:             BuildCI,
		SnapshotMagic:  storage.MagicHeader,
		SnapshotFormat: storage.Version1,
	}

	id, err := CalculateBuildID(BuildDate)
	if err != nil {
		info.Error = err.Error()
		return info
	}

	info.BuildID = id
	info.Calculated = true
	return info
}

// String returns a human-readable build string.
func String() string {
	info := Info()

	build := "Build unknown (" + info.Error + ")"
	if info.Calculated {
		build = fmt.Sprintf(
			"Build %d (%s) commit[%s] branch[%s] ci[%s]",
			info.BuildID,
			info.BuildDate,
			coalesce(info.Commit, "unknown"),
			coalesce(info.Branch, "unknown"),
			coalesce(info.CI, "local"),
		)
	}
	return fmt.Sprintf("%s saves[%s v%d]", build, info.SnapshotMagic, info.SnapshotFormat)
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
