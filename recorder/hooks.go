package recorder

import (
	"fmt"
	"os"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/kballard/go-shellquote"
)

// EnvDocumentID carries the id of the confirmed document to the
// post-document command.
const EnvDocumentID = "CRANIO_DOCUMENT_ID"

type hookMsg struct {
	err error
}

// documentCommand prepares the user's post-document command.
func documentCommand(cmdline, documentID string) (*exec.Cmd, error) {
	args, err := shellquote.Split(cmdline)
	if err != nil {
		return nil, fmt.Errorf("unable to parse settings.cmd option: %w", err)
	}

	if len(args) == 0 {
		return nil, nil
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = append(os.Environ(), EnvDocumentID+"="+documentID)

	return cmd, nil
}

func (m *Model) runDocumentCmd(documentID string) tea.Cmd {
	if m.opts.DocumentCmd == "" || documentID == "" {
		return nil
	}

	cmdline := m.opts.DocumentCmd

	return func() tea.Msg {
		cmd, err := documentCommand(cmdline, documentID)
		if err != nil || cmd == nil {
			return hookMsg{err}
		}

		out, err := cmd.CombinedOutput()
		if err != nil {
			err = fmt.Errorf("settings.cmd failed: %w: %s", err, out)
		}

		return hookMsg{err}
	}
}

func (m *Model) notifyLost(fault string) tea.Cmd {
	if !m.opts.Notify {
		return nil
	}

	return func() tea.Msg {
		err := beeep.Notify("cranio: sensor lost", fault, "")
		if err != nil {
			m.log.Warn("notification failed", "error", err)
		}

		return nil
	}
}
