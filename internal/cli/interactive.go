package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/agentx-labs/promptreg/internal/registry"
	"github.com/agentx-labs/promptreg/internal/store"
)

// prompter asks questions on out and reads answers line by line from in.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// confirm asks a yes/no question. An empty answer means no.
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question + " (y/N) ")
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// conflictHandler returns the ConflictFunc for the --on-conflict and
// --rename-to flags. Without a fixed action the user is asked.
func conflictHandler(action, renameTo string, p *prompter) (registry.ConflictFunc, error) {
	switch registry.ConflictAction(action) {
	case registry.ConflictReplace, registry.ConflictKeep:
		decision := registry.ConflictDecision{Action: registry.ConflictAction(action)}
		return func(*store.Artifact, string) (registry.ConflictDecision, error) { return decision, nil }, nil
	case registry.ConflictRename:
		if renameTo == "" {
			return nil, fmt.Errorf("--on-conflict=rename needs --rename-to")
		}
		asked := map[string]bool{}
		return func(a *store.Artifact, path string) (registry.ConflictDecision, error) {
			if asked[a.Ref()] {
				return registry.ConflictDecision{}, fmt.Errorf("%s also exists", path)
			}
			asked[a.Ref()] = true
			return registry.ConflictDecision{Action: registry.ConflictRename, NewName: renameTo}, nil
		}, nil
	case "", "ask":
		return p.askConflict, nil
	default:
		return nil, fmt.Errorf("unknown --on-conflict value %q (replace, keep, rename, ask)", action)
	}
}

func (p *prompter) askConflict(a *store.Artifact, path string) (registry.ConflictDecision, error) {
	fmt.Fprintf(p.out, "%s already exists (installing %s).\n", path, a.Ref())
	for {
		answer, err := p.ask("? [r]eplace, [k]eep, re[n]ame: ")
		if err == io.EOF {
			return registry.ConflictDecision{Action: registry.ConflictKeep}, nil
		}
		if err != nil {
			return registry.ConflictDecision{}, err
		}
		switch strings.ToLower(answer) {
		case "r", "replace":
			return registry.ConflictDecision{Action: registry.ConflictReplace}, nil
		case "k", "keep", "":
			return registry.ConflictDecision{Action: registry.ConflictKeep}, nil
		case "n", "rename":
			name, err := p.ask("? New name (without extension): ")
			if err != nil {
				return registry.ConflictDecision{}, err
			}
			return registry.ConflictDecision{Action: registry.ConflictRename, NewName: name}, nil
		}
	}
}
