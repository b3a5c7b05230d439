// Package prompt holds the interactive bits of the CLI. Every prompt refuses
// to run when stdin is not a terminal so scripted use fails fast.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/healthmap/healthmap/internal/models"
)

// ErrNotInteractive is returned when a prompt is needed but stdin is not a terminal
var ErrNotInteractive = errors.New("not running in an interactive terminal")

// Interactive reports whether stdin is a terminal
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Password reads a password without echo
func Password(label string) (string, error) {
	if !Interactive() {
		return "", ErrNotInteractive
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// Text asks for a single line; an empty answer is rejected when required
func Text(label string, required bool) (string, error) {
	if !Interactive() {
		return "", ErrNotInteractive
	}
	p := promptui.Prompt{Label: label}
	if required {
		p.Validate = func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("valeur requise")
			}
			return nil
		}
	}
	value, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("input cancelled: %w", err)
	}
	return strings.TrimSpace(value), nil
}

// StructureType shows the structure types by label and returns the chosen one
func StructureType() (models.StructureType, error) {
	if !Interactive() {
		return "", ErrNotInteractive
	}

	type typeOption struct {
		Label string
		Type  models.StructureType
	}

	options := make([]typeOption, len(models.StructureTypes))
	for i, t := range models.StructureTypes {
		options[i] = typeOption{Label: t.Label(), Type: t}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	sel := promptui.Select{
		Label:     "Type de structure",
		Items:     options,
		Templates: templates,
		Size:      len(options),
	}

	index, _, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("structure type selection cancelled: %w", err)
	}
	return options[index].Type, nil
}

// Confirm asks a yes/no question. Declining is not an error.
func Confirm(label string) (bool, error) {
	if !Interactive() {
		return false, ErrNotInteractive
	}
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}

// Select shows labels and returns the index of the chosen one
func Select(label string, labels []string) (int, error) {
	if !Interactive() {
		return 0, ErrNotInteractive
	}
	if len(labels) == 0 {
		return 0, fmt.Errorf("nothing to choose from")
	}

	sel := promptui.Select{
		Label: label,
		Items: labels,
		Size:  10,
	}
	index, _, err := sel.Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}
