package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/uncase/dashboard/internal/app"
	"github.com/uncase/dashboard/internal/bus"
	"github.com/uncase/dashboard/internal/jobs"
	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/sandbox"
)

type View int

const (
	ViewJobs View = iota
	ViewJobDetail
	ViewNewJob
)

type App struct {
	core    *app.App
	changes <-chan bus.Change
	expired <-chan sandbox.Expired

	view        View
	jobs        []models.PipelineJob
	seeds       []models.Seed
	session     *models.SandboxSession
	ttl         time.Duration
	demo        bool
	collapsed   bool
	selectedIdx int
	stageIdx    int
	notice      string

	bar    progress.Model
	width  int
	height int
	err    error
}

// NewApp builds the dashboard. changes and expired may be nil; with a nil
// changes channel the view only refreshes on its own actions and ticks.
func NewApp(core *app.App, changes <-chan bus.Change, expired <-chan sandbox.Expired) *App {
	return &App{
		core:    core,
		changes: changes,
		expired: expired,
		view:    ViewJobs,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(20), progress.WithoutPercentage()),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadState, a.tickCmd(), a.waitForChange(), a.waitForExpiry())
}

type tickMsg time.Time

// the sandbox countdown needs a 1s refresh
func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case stateLoadedMsg:
		a.jobs = msg.jobs
		a.seeds = msg.seeds
		a.session = msg.session
		a.ttl = msg.ttl
		a.demo = msg.demo
		a.collapsed = msg.collapsed
		if a.selectedIdx >= len(a.jobs) {
			a.selectedIdx = max(0, len(a.jobs)-1)
		}
		if a.view == ViewJobDetail && len(a.jobs) == 0 {
			a.view = ViewJobs
		}
		return a, nil

	case tickMsg:
		if a.session == nil {
			return a, a.tickCmd()
		}
		// TTL clears an expired session, which shows up as a change
		a.ttl = a.core.Sessions.TTL(context.Background())
		if a.ttl <= 0 {
			a.session = nil
		}
		return a, a.tickCmd()

	case changeMsg:
		return a, tea.Batch(a.loadState, a.waitForChange())

	case expiredMsg:
		a.notice = fmt.Sprintf("Sandbox for %s expired", msg.session.Domain)
		a.session = nil
		a.ttl = 0
		return a, a.waitForExpiry()

	case actionDoneMsg:
		a.err = msg.err
		if msg.notice != "" {
			a.notice = msg.notice
		}
		return a, a.loadState
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.view {
	case ViewJobs:
		return a.handleJobsKey(msg)
	case ViewJobDetail:
		return a.handleJobDetailKey(msg)
	case ViewNewJob:
		return a.handleNewJobKey(msg)
	}
	return a, nil
}

func (a *App) selectedJob() (models.PipelineJob, bool) {
	if len(a.jobs) == 0 || a.selectedIdx >= len(a.jobs) {
		return models.PipelineJob{}, false
	}
	return a.jobs[a.selectedIdx], true
}

func (a *App) handleJobsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "up", "k":
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case "down", "j":
		if a.selectedIdx < len(a.jobs)-1 {
			a.selectedIdx++
		}

	case "enter":
		if _, ok := a.selectedJob(); ok {
			a.view = ViewJobDetail
		}

	case "n":
		a.view = ViewNewJob
		a.stageIdx = 0

	case "x":
		if job, ok := a.selectedJob(); ok {
			return a, a.cancelJob(job.ID)
		}

	case "d":
		if job, ok := a.selectedJob(); ok {
			return a, a.removeJob(job.ID)
		}

	case "c":
		return a, a.clearCompleted

	case "s":
		return a, a.toggleSidebar

	case "a":
		return a, a.activateDemo

	case "r":
		return a, a.resetDemo
	}

	return a, nil
}

func (a *App) handleJobDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		a.view = ViewJobs

	case "ctrl+c":
		return a, tea.Quit

	case "x":
		if job, ok := a.selectedJob(); ok {
			return a, a.cancelJob(job.ID)
		}
	}

	return a, nil
}

func (a *App) handleNewJobKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.view = ViewJobs

	case "ctrl+c":
		return a, tea.Quit

	case "up", "k":
		if a.stageIdx > 0 {
			a.stageIdx--
		}

	case "down", "j":
		if a.stageIdx < len(models.Stages)-1 {
			a.stageIdx++
		}

	case "enter":
		a.view = ViewJobs
		a.selectedIdx = 0
		return a, a.addJob(models.Stages[a.stageIdx])
	}

	return a, nil
}

func (a *App) View() string {
	switch a.view {
	case ViewJobs:
		return a.viewJobs()
	case ViewJobDetail:
		return a.viewJobDetail()
	case ViewNewJob:
		return a.viewNewJob()
	}
	return ""
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	demoBanner = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("220")).
			Padding(0, 1)

	sandboxBanner = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("45")).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("238")).
			PaddingLeft(1).
			Width(34)

	statusRunning   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	statusComplete  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusCancelled = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	statusQueued    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func (a *App) viewBanners() string {
	var s string
	if a.demo {
		s += demoBanner.Render("DEMO MODE  local synthetic data") + "\n"
	}
	if a.session != nil {
		line := fmt.Sprintf("SANDBOX %s  expires in %s  %s",
			a.session.Domain, sandbox.FormatCountdown(a.ttl), a.session.APIURL)
		s += sandboxBanner.Render(line) + "\n"
	}
	if a.notice != "" {
		s += dimStyle.Render(a.notice) + "\n"
	}
	if s != "" {
		s += "\n"
	}
	return s
}

func (a *App) viewJobs() string {
	s := titleStyle.Render("uncase") + "\n\n"
	s += a.viewBanners()

	if a.err != nil {
		s += statusFailed.Render(fmt.Sprintf("Error: %v", a.err)) + "\n"
	}

	var list string
	if len(a.jobs) == 0 {
		list = "No pipeline jobs. Press 'n' to add one or 'a' for demo data.\n"
	} else {
		list = "Pipeline Jobs\n"
		list += "─────────────\n"
		for i, job := range a.jobs {
			line := a.formatJobLine(job)
			if i == a.selectedIdx {
				line = selectedStyle.Render("▶ " + line)
			} else if job.Status.Terminal() {
				line = "  " + dimStyle.Render(line)
			} else {
				line = "  " + line
			}
			list += line + "\n"
		}
	}

	if !a.collapsed {
		list = lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().MarginRight(2).Render(list), a.viewSidebar())
	}
	s += list

	s += "\n" + helpStyle.Render("[enter] view  [n] new  [x] cancel  [d] remove  [c] clear done  [s] seeds  [a] demo  [r] reset  [q] quit")

	return s
}

func (a *App) viewSidebar() string {
	s := fmt.Sprintf("Seeds (%d)\n", len(a.seeds))
	for i, seed := range a.seeds {
		if i == 12 {
			s += dimStyle.Render(fmt.Sprintf("… %d more", len(a.seeds)-i)) + "\n"
			break
		}
		s += fmt.Sprintf("%s %s\n", truncate(seed.Domain, 22), dimStyle.Render(seed.Language))
	}
	return sidebarStyle.Render(strings.TrimRight(s, "\n"))
}

func (a *App) formatJobLine(job models.PipelineJob) string {
	status := a.formatStatus(job.Status)
	label := truncate(job.Label, 32)
	if label == "" {
		label = string(job.Stage)
	}
	bar := a.bar.ViewAs(float64(job.Progress) / 100)
	return fmt.Sprintf("%-9s %s %s %3d%%  %-32s %s", job.Stage, status, bar, job.Progress, label, formatAge(job.CreatedAt))
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%dd", days)
	}
}

func (a *App) formatStatus(status models.JobStatus) string {
	switch status {
	case models.JobStatusRunning:
		return statusRunning.Render("● running  ")
	case models.JobStatusCompleted:
		return statusComplete.Render("✓ completed")
	case models.JobStatusFailed:
		return statusFailed.Render("✗ failed   ")
	case models.JobStatusCancelled:
		return statusCancelled.Render("⊘ cancelled")
	default:
		return statusQueued.Render("○ queued   ")
	}
}

func (a *App) viewJobDetail() string {
	job, ok := a.selectedJob()
	if !ok {
		return "No job selected"
	}

	s := titleStyle.Render(fmt.Sprintf("Job %s", job.ID)) + "  " + a.formatStatus(job.Status) + "\n\n"
	s += labelStyle.Render("Stage:    ") + string(job.Stage) + "\n"
	s += labelStyle.Render("Label:    ") + job.Label + "\n"
	s += labelStyle.Render("Progress: ") + a.bar.ViewAs(float64(job.Progress)/100) + fmt.Sprintf(" %d%%", job.Progress) + "\n"
	s += labelStyle.Render("Created:  ") + job.CreatedAt.Local().Format(time.DateTime) + "\n"
	if job.StartedAt != nil {
		s += labelStyle.Render("Started:  ") + job.StartedAt.Local().Format(time.DateTime) + "\n"
	}
	if job.CompletedAt != nil {
		s += labelStyle.Render("Finished: ") + job.CompletedAt.Local().Format(time.DateTime)
		if job.StartedAt != nil {
			s += dimStyle.Render("  (" + formatDuration(job.CompletedAt.Sub(*job.StartedAt)) + ")")
		}
		s += "\n"
	}
	if job.Error != "" {
		s += labelStyle.Render("Error:    ") + statusFailed.Render(job.Error) + "\n"
	}
	if len(job.Metadata) > 0 {
		s += "\nMetadata\n"
		for k, v := range job.Metadata {
			s += fmt.Sprintf("  %s: %v\n", k, v)
		}
	}

	s += "\n" + helpStyle.Render("[x] cancel  [esc] back")

	return s
}

func (a *App) viewNewJob() string {
	s := titleStyle.Render("New Job") + "\n\n"
	s += "Stage:\n"
	for i, stage := range models.Stages {
		line := string(stage)
		if i == a.stageIdx {
			s += selectedStyle.Render("▶ "+line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("[↑/↓] select  [enter] add  [esc] cancel")

	return s
}

// Messages

type stateLoadedMsg struct {
	jobs      []models.PipelineJob
	seeds     []models.Seed
	session   *models.SandboxSession
	ttl       time.Duration
	demo      bool
	collapsed bool
}

type changeMsg bus.Change

type expiredMsg struct {
	session models.SandboxSession
}

type actionDoneMsg struct {
	notice string
	err    error
}

// Commands

func (a *App) loadState() tea.Msg {
	ctx := context.Background()
	return stateLoadedMsg{
		jobs:      a.core.Queue.Jobs(ctx),
		seeds:     a.core.Demo.Seeds(ctx),
		session:   a.core.Sessions.Get(ctx),
		ttl:       a.core.Sessions.TTL(ctx),
		demo:      a.core.Demo.IsActive(ctx),
		collapsed: a.core.Store.SidebarCollapsed(ctx),
	}
}

func (a *App) waitForChange() tea.Cmd {
	if a.changes == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-a.changes
		if !ok {
			return nil
		}
		return changeMsg(c)
	}
}

func (a *App) waitForExpiry() tea.Cmd {
	if a.expired == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-a.expired
		if !ok {
			return nil
		}
		return expiredMsg{session: ev.Session}
	}
}

func (a *App) addJob(stage models.JobStage) tea.Cmd {
	return func() tea.Msg {
		job, err := a.core.Queue.Add(context.Background(), jobs.JobInput{Stage: stage, Label: fmt.Sprintf("New %s job", stage)})
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: "Added job " + job.ID}
	}
}

func (a *App) cancelJob(id string) tea.Cmd {
	return func() tea.Msg {
		_, err := a.core.Queue.Cancel(context.Background(), id)
		return actionDoneMsg{err: err}
	}
}

func (a *App) removeJob(id string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: a.core.Queue.Remove(context.Background(), id)}
	}
}

func (a *App) clearCompleted() tea.Msg {
	return actionDoneMsg{err: a.core.Queue.ClearCompleted(context.Background())}
}

func (a *App) toggleSidebar() tea.Msg {
	return actionDoneMsg{err: a.core.Store.SetSidebarCollapsed(context.Background(), !a.collapsed)}
}

func (a *App) activateDemo() tea.Msg {
	if err := a.core.Demo.Activate(context.Background()); err != nil {
		return actionDoneMsg{err: err}
	}
	return actionDoneMsg{notice: "Demo data loaded"}
}

func (a *App) resetDemo() tea.Msg {
	if err := a.core.Demo.Reset(context.Background()); err != nil {
		return actionDoneMsg{err: err}
	}
	return actionDoneMsg{notice: "Demo data cleared"}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
