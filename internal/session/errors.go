package session

import "github.com/kildtools/kild/internal/errs"

// Error codes for the session subsystem.
const (
	CodeNotFound        errs.Code = "SESSION_NOT_FOUND"
	CodeExists          errs.Code = "SESSION_EXISTS"
	CodeWorktreeMissing errs.Code = "WORKTREE_MISSING"
	CodeKillFailed      errs.Code = "PROCESS_KILL_FAILED"
	CodeRecordCorrupt   errs.Code = "SESSION_RECORD_CORRUPT"
)
