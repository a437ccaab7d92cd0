// Package editor opens notes in the user's terminal editor.
package editor

import (
	"fmt"
	"os"
	"os/exec"
)

// Opener implements ports.EditorOpener.
type Opener struct{}

// NewOpener creates a new editor opener.
func NewOpener() *Opener {
	return &Opener{}
}

// OpenFile opens a file in the user's preferred editor.
func (o *Opener) OpenFile(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// Command returns an exec.Cmd for opening a file in the editor. Useful with
// bubbletea's ExecProcess so the TUI suspends while the editor runs.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	editor := o.findEditor()
	if editor == "" {
		return nil, fmt.Errorf("no editor found: set $EDITOR environment variable")
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd, nil
}

func (o *Opener) findEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}

	for _, editor := range []string{"nvim", "vim", "vi", "nano", "code"} {
		if path, err := exec.LookPath(editor); err == nil {
			return path
		}
	}
	return ""
}
