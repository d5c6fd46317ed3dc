package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/loomkit/weft/cmd/weft/internal/config"
)

func newCreateCommand() *cobra.Command {
	var (
		dialect       string
		useBem        bool
		port          int
		gitInit       bool
		noInteractive bool
	)

	cmd := &cobra.Command{
		Use:   "create [project-name]",
		Short: "Create a new weft project",
		Long:  `Creates a new weft project with a weft.yml configuration and a starter template.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectName := args[0]

			isTerminal := false
			if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) != 0 {
				isTerminal = true
			}

			scaffold := projectScaffold{
				Name:    projectName,
				Dialect: dialect,
				UseBem:  useBem,
				Port:    port,
				GitInit: gitInit,
			}

			if isTerminal && !noInteractive {
				answered, err := runCreateTUI(scaffold)
				if err != nil {
					return err
				}
				if answered == nil {
					fmt.Println("Project creation cancelled.")
					return nil
				}
				scaffold = *answered
			}

			if err := scaffold.generate(); err != nil {
				return fmt.Errorf("failed to generate project: %w", err)
			}

			fmt.Printf("\n✨ Project '%s' created successfully!\n", scaffold.Name)
			fmt.Println("\nNext steps:")
			fmt.Printf("   cd %s\n", scaffold.Name)
			fmt.Println("   weft dev")
			return nil
		},
	}

	cmd.Flags().StringVarP(&dialect, "dialect", "d", "plain", "Render dialect: plain or vue")
	cmd.Flags().BoolVar(&useBem, "bem", false, "Enable the bem naming extension")
	cmd.Flags().IntVarP(&port, "port", "p", 7433, "Dev server port")
	cmd.Flags().BoolVar(&gitInit, "git", false, "Initialize a git repository")
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Skip the interactive wizard")

	return cmd
}

// projectScaffold is the answer set the wizard (or the flags) produce.
type projectScaffold struct {
	Name    string
	Dialect string
	UseBem  bool
	Port    int
	GitInit bool
}

func (p projectScaffold) generate() error {
	if _, err := os.Stat(p.Name); err == nil {
		return fmt.Errorf("directory %s already exists", p.Name)
	}
	if err := os.MkdirAll(filepath.Join(p.Name, "templates"), 0755); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Dialect = p.Dialect
	if p.UseBem {
		cfg.Extensions = []string{"bem"}
	}
	if p.Port != 0 {
		cfg.Dev.Port = p.Port
	}
	if err := config.Save(cfg, p.Name); err != nil {
		return err
	}

	starter := starterTemplate
	if p.UseBem {
		starter = starterTemplateBem
	}
	starterPath := filepath.Join(p.Name, "templates", "hello.json")
	if err := os.WriteFile(starterPath, []byte(starter), 0644); err != nil {
		return err
	}

	if p.GitInit {
		if err := initGitRepo(p.Name); err != nil {
			fmt.Printf("Warning: failed to initialize git repository: %v\n", err)
		}
	}

	return nil
}

func initGitRepo(projectPath string) error {
	cmd := exec.Command("git", "init")
	cmd.Dir = projectPath
	if err := cmd.Run(); err != nil {
		return err
	}

	cmd = exec.Command("git", "add", ".")
	cmd.Dir = projectPath
	if err := cmd.Run(); err != nil {
		return err
	}

	cmd = exec.Command("git", "commit", "-m", "Initial commit")
	cmd.Dir = projectPath
	return cmd.Run()
}

const starterTemplate = `{
  "template": [
    {
      "tag": "div",
      "attributes": { "class": "hello" },
      "styles": { "padding": "2rem", "fontFamily": "sans-serif" },
      "children": [
        { "tag": "h1", "children": [{ "type": "text", "content": "Hello from weft" }] },
        { "tag": "p", "children": [{ "type": "text", "content": "Edit templates/hello.json and watch this page reload." }] }
      ]
    }
  ],
  "component": { "name": "Hello" }
}
`

const starterTemplateBem = `{
  "template": [
    {
      "tag": "div",
      "overrides": { "bem": { "block": "hello" } },
      "styles": { "padding": "2rem", "fontFamily": "sans-serif" },
      "children": [
        { "tag": "h1", "overrides": { "bem": { "element": "title" } }, "children": [{ "type": "text", "content": "Hello from weft" }] },
        { "tag": "p", "overrides": { "bem": { "element": "body" } }, "children": [{ "type": "text", "content": "Edit templates/hello.json and watch this page reload." }] }
      ]
    }
  ],
  "component": { "name": "Hello" }
}
`

// --- interactive wizard ---

type createStep int

const (
	stepName createStep = iota
	stepDialect
	stepBem
	stepPort
	stepDone
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
)

type createModel struct {
	step     createStep
	scaffold projectScaffold

	nameInput textinput.Model
	portInput textinput.Model

	dialects     []string
	selectedItem int
	quitting     bool
	err          error
}

func newCreateModel(seed projectScaffold) createModel {
	nameInput := textinput.New()
	nameInput.Placeholder = "my-weft-project"
	nameInput.CharLimit = 64
	nameInput.SetValue(seed.Name)
	nameInput.Focus()

	portInput := textinput.New()
	portInput.Placeholder = "7433"
	portInput.CharLimit = 5
	if seed.Port != 0 {
		portInput.SetValue(strconv.Itoa(seed.Port))
	}

	selected := 0
	if seed.Dialect == "vue" {
		selected = 1
	}

	return createModel{
		step:         stepName,
		scaffold:     seed,
		nameInput:    nameInput,
		portInput:    portInput,
		dialects:     []string{"plain", "vue"},
		selectedItem: selected,
	}
}

func (m createModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m createModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg)
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.step == stepDialect {
			if m.selectedItem > 0 {
				m.selectedItem--
			}
			return m, nil
		}

	case "down", "j":
		if m.step == stepDialect {
			if m.selectedItem < len(m.dialects)-1 {
				m.selectedItem++
			}
			return m, nil
		}

	case "y", "Y":
		if m.step == stepBem {
			m.scaffold.UseBem = true
			return m.advance()
		}

	case "n", "N":
		if m.step == stepBem {
			m.scaffold.UseBem = false
			return m.advance()
		}

	case "enter":
		return m.advance()
	}

	return m.updateInputs(msg)
}

func (m createModel) advance() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepName:
		if m.nameInput.Value() == "" {
			m.err = fmt.Errorf("project name is required")
			return m, nil
		}
		m.err = nil
		m.scaffold.Name = m.nameInput.Value()
		m.step = stepDialect

	case stepDialect:
		m.scaffold.Dialect = m.dialects[m.selectedItem]
		m.step = stepBem

	case stepBem:
		m.step = stepPort
		m.portInput.Focus()
		return m, textinput.Blink

	case stepPort:
		port, err := strconv.Atoi(m.portInput.Value())
		if m.portInput.Value() == "" {
			port = 7433
		} else if err != nil || port <= 0 || port > 65535 {
			m.err = fmt.Errorf("invalid port")
			return m, nil
		}
		m.err = nil
		m.scaffold.Port = port
		m.step = stepDone
		return m, tea.Quit
	}
	return m, nil
}

func (m createModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.step {
	case stepName:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case stepPort:
		m.portInput, cmd = m.portInput.Update(msg)
	}
	return m, cmd
}

func (m createModel) View() string {
	if m.quitting || m.step == stepDone {
		return ""
	}

	var body string
	switch m.step {
	case stepName:
		body = "Project name:\n\n" + m.nameInput.View()
	case stepDialect:
		body = "Render dialect:\n\n"
		for i, d := range m.dialects {
			cursor := "  "
			line := d
			if i == m.selectedItem {
				cursor = "> "
				line = selectedStyle.Render(d)
			}
			body += cursor + line + "\n"
		}
	case stepBem:
		body = "Enable the bem naming extension? (y/n)"
	case stepPort:
		body = "Dev server port:\n\n" + m.portInput.View()
	}

	out := titleStyle.Render("Create a weft project") + "\n\n" + body + "\n"
	if m.err != nil {
		out += "\n" + m.err.Error() + "\n"
	}
	out += "\n" + faintStyle.Render("enter continue • esc cancel")
	return out
}

// runCreateTUI walks the wizard; a nil scaffold means the user cancelled.
func runCreateTUI(seed projectScaffold) (*projectScaffold, error) {
	p := tea.NewProgram(newCreateModel(seed))
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	m := finalModel.(createModel)
	if m.quitting && m.step != stepDone {
		return nil, nil
	}
	return &m.scaffold, nil
}
