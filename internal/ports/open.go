package ports

import "os/exec"

// EditorOpener opens notes in an external editor.
type EditorOpener interface {
	// OpenFile opens the file in the user's preferred editor, using
	// $EDITOR and falling back to common editors.
	OpenFile(path string) error

	// Command returns an exec.Cmd for opening a file in the editor, for
	// integrating with bubbletea's ExecProcess.
	Command(path string) (*exec.Cmd, error)
}

// ObsidianOpener opens notes in Obsidian through the obsidian:// URI scheme.
type ObsidianOpener interface {
	// OpenFile opens the given absolute path inside the vault.
	OpenFile(filePath string) error
}
