package scaffold

import "fmt"

// BackupSuffix is appended to a file name to form its backup path.
const BackupSuffix = ".groundwork.bak"

// BackupPolicy controls when a file is copied aside before being replaced.
type BackupPolicy string

const (
	// BackupAlways backs up every existing file that is about to change.
	BackupAlways BackupPolicy = "always"
	// BackupOnConflict backs up files edited outside their regions.
	BackupOnConflict BackupPolicy = "on-conflict"
	// BackupNever never writes backups.
	BackupNever BackupPolicy = "never"
)

// ParseBackupPolicy validates a policy name. Empty means BackupOnConflict.
func ParseBackupPolicy(s string) (BackupPolicy, error) {
	switch BackupPolicy(s) {
	case "":
		return BackupOnConflict, nil
	case BackupAlways, BackupOnConflict, BackupNever:
		return BackupPolicy(s), nil
	}
	return "", fmt.Errorf("unknown backup policy %q (want always, on-conflict or never)", s)
}

func (p BackupPolicy) wants(conflict bool) bool {
	switch p {
	case BackupAlways:
		return true
	case BackupNever:
		return false
	default:
		return conflict
	}
}
