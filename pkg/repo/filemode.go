package repo

import (
	"os"

	"github.com/odvcencio/folio/pkg/object"
)

func modeFromFileInfo(info os.FileInfo) string {
	if info.Mode()&0o111 != 0 {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

// blobModeFor keeps an existing executable bit when a blob is rewritten.
func blobModeFor(existing object.TreeEntry, found bool) string {
	if found && existing.Mode == object.TreeModeExecutable {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}
