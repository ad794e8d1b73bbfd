package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/consilium/internal/archive"
	"github.com/aristath/consilium/internal/config"
	"github.com/aristath/consilium/internal/coordinator"
	"github.com/aristath/consilium/internal/events"
	"github.com/aristath/consilium/internal/persona"
	"github.com/aristath/consilium/internal/producer"
	"github.com/aristath/consilium/internal/report"
	"github.com/aristath/consilium/internal/scheduler"
	"github.com/aristath/consilium/internal/workflow"
)

var (
	styleRound    = lipgloss.NewStyle().Bold(true)
	styleApproved = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	styleRevision = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	styleFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	var (
		workflowName = flag.String("workflow", "discovery", "Workflow to run: discovery or sow")
		input        = flag.String("input", "", "Client brief text, or @path to read it from a file")
		docs         = flag.String("docs", "", "Path to supporting documents (optional)")
		discoveryIn  = flag.String("discovery", "", "Path to a prior discovery document (sow workflow)")
		outDir       = flag.String("out", "output", "Output directory for documents and the audit archive")
		rounds       = flag.Int("rounds", 0, "Round budget override (0 uses config)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *workflowName, *input, *docs, *discoveryIn, *outDir, *rounds); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, workflowName, input, docs, discoveryIn, outDir string, rounds int) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if rounds > 0 {
		cfg.Coordination.MaxRounds = rounds
	}

	engagement := workflow.Engagement{
		ClientInput: readInput(input),
		Documents:   readFileOrEmpty(docs),
	}

	var tasks []*scheduler.Task
	switch workflowName {
	case "discovery":
		tasks = workflow.Discovery(engagement)
	case "sow":
		tasks = workflow.ScopeOfWork(engagement, readFileOrEmpty(discoveryIn))
	default:
		return fmt.Errorf("unknown workflow %q (want discovery or sow)", workflowName)
	}

	// Pre-flight: catch broken builder output before spending producer calls.
	preflight := scheduler.NewGraph()
	if err := preflight.Ingest(tasks); err != nil {
		return fmt.Errorf("workflow specification invalid: %w", err)
	}
	if _, err := preflight.Validate(); err != nil {
		log.Printf("WARNING: %v; the round budget will bound the run", err)
	}

	prod, err := buildProducer(cfg)
	if err != nil {
		return err
	}

	bus := events.NewEventBus()
	defer bus.Close()
	progress := bus.SubscribeAll(0)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		printProgress(progress)
	}()

	coord := coordinator.New(prod, coordinator.Options{
		MaxRounds:           cfg.Coordination.MaxRounds,
		Concurrency:         cfg.Coordination.Concurrency,
		CallTimeout:         time.Duration(cfg.Coordination.CallTimeoutSeconds) * time.Second,
		ContextExcerptChars: cfg.Coordination.ContextExcerptChars,
		ReviewPreviewChars:  cfg.Coordination.ReviewPreviewChars,
	}, bus)
	coord.SetPersonaSource(personaSource(cfg))

	started := time.Now()
	result, runErr := coord.ExecuteWorkflow(ctx, tasks)
	finished := time.Now()

	bus.Close()
	<-progressDone

	if result == nil {
		return runErr
	}

	var incomplete *scheduler.WorkflowIncompleteError
	if runErr != nil && !errors.As(runErr, &incomplete) {
		return runErr
	}
	if incomplete != nil {
		log.Printf("WARNING: %v", incomplete)
	}

	if err := writeArtifacts(ctx, workflowName, outDir, result, started, finished, incomplete == nil); err != nil {
		return err
	}

	if incomplete != nil {
		return fmt.Errorf("workflow did not converge: %d task(s) left non-terminal", len(incomplete.Stuck))
	}
	return nil
}

// buildProducer constructs the configured producer stack: per-type adapters,
// optional resilience wrapping, and role routing from the agents section.
func buildProducer(cfg *config.Config) (producer.Producer, error) {
	instances := make(map[string]producer.Producer, len(cfg.Producers))
	instantiate := func(key string) (producer.Producer, error) {
		if p, ok := instances[key]; ok {
			return p, nil
		}
		pc, ok := cfg.Producers[key]
		if !ok {
			return nil, fmt.Errorf("no producer configured under key %q", key)
		}
		p, err := producer.New(producer.Config{
			Type:        pc.Type,
			BaseURL:     pc.BaseURL,
			Model:       pc.Model,
			APIKeyEnv:   pc.APIKeyEnv,
			Temperature: pc.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("producer %q: %w", key, err)
		}
		if pc.Resilient {
			p = producer.Resilient(p, producer.DefaultRetryConfig())
		}
		instances[key] = p
		return p, nil
	}

	fallback, err := instantiate(cfg.DefaultProducer)
	if err != nil {
		return nil, err
	}

	router := producer.NewRoleRouter(fallback)
	for role, agent := range cfg.Agents {
		if agent.Producer == "" {
			continue
		}
		p, err := instantiate(agent.Producer)
		if err != nil {
			return nil, err
		}
		router.Route(role, p)
	}
	return router, nil
}

// personaSource layers config-level system-prompt overrides over the
// built-in persona registry.
func personaSource(cfg *config.Config) func(string) string {
	return func(role string) string {
		if agent, ok := cfg.Agents[role]; ok && agent.SystemPrompt != "" {
			return agent.SystemPrompt
		}
		return persona.SystemPrompt(role)
	}
}

func printProgress(ch <-chan events.Event) {
	for ev := range ch {
		switch e := ev.(type) {
		case events.RoundStartedEvent:
			fmt.Println(styleRound.Render(fmt.Sprintf("Round %d: %d task(s) ready", e.Round, e.Ready)))
		case events.TaskStartedEvent:
			fmt.Println(styleDim.Render(fmt.Sprintf("  %s: %s (%s)", e.Role, e.Title, e.Kind)))
		case events.TaskApprovedEvent:
			fmt.Println(styleApproved.Render(fmt.Sprintf("  approved: %s", e.ID)))
		case events.RevisionRequestedEvent:
			fmt.Println(styleRevision.Render(fmt.Sprintf("  revision %d requested: %s", e.Revision, e.ID)))
		case events.TaskFailedEvent:
			fmt.Println(styleFailed.Render(fmt.Sprintf("  failed: %s (%v)", e.ID, e.Err)))
		case events.WorkflowFinishedEvent:
			if e.Complete {
				fmt.Println(styleApproved.Render(fmt.Sprintf("Workflow complete in %d round(s)", e.Rounds)))
			} else {
				fmt.Println(styleFailed.Render(fmt.Sprintf("Workflow stopped after %d round(s); %d task(s) stuck", e.Rounds, e.Stuck)))
			}
		}
	}
}

// writeArtifacts renders the deliverable and audit report into outDir and
// archives the run.
func writeArtifacts(ctx context.Context, workflowName, outDir string, result *coordinator.Result, started, finished time.Time, complete bool) error {
	// Rebuild a graph from the snapshot to get the topological section order.
	g := scheduler.NewGraph()
	order := make([]string, 0, len(result.Tasks))
	if err := g.Ingest(result.Tasks); err == nil {
		if sorted, err := g.Order(); err == nil {
			order = sorted
		}
	}
	if len(order) == 0 {
		for _, task := range result.Tasks {
			order = append(order, task.ID)
		}
	}

	sink := report.DirSink{Dir: outDir}
	docPath, err := sink.Write(workflowName, report.AssembleDocument(documentTitle(workflowName), result.Tasks, order))
	if err != nil {
		return err
	}
	reportPath, err := sink.Write(workflowName+"_coordination_report", report.CoordinationReport(result.Tasks))
	if err != nil {
		return err
	}

	store, err := archive.Open(ctx, filepath.Join(outDir, "consilium.db"))
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer store.Close()

	err = store.SaveRun(ctx, archive.Run{
		ID:         archive.NewRunID(),
		Workflow:   workflowName,
		Rounds:     result.Rounds,
		Complete:   complete,
		StartedAt:  started,
		FinishedAt: finished,
	}, result.Tasks)
	if err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}

	fmt.Println(styleDim.Render("Wrote " + docPath + " and " + reportPath))
	return nil
}

func documentTitle(workflowName string) string {
	switch workflowName {
	case "sow":
		return "Statement of Work"
	default:
		return "Discovery Report"
	}
}

// readInput returns the literal text, or the file contents when prefixed
// with '@'.
func readInput(input string) string {
	if len(input) > 1 && input[0] == '@' {
		return readFileOrEmpty(input[1:])
	}
	return input
}

func readFileOrEmpty(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("WARNING: could not read %s: %v", path, err)
		return ""
	}
	return string(data)
}
