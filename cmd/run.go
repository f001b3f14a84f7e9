package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/barista/internal/config"
	"github.com/maxkimambo/barista/internal/dag"
	"github.com/maxkimambo/barista/internal/logger"
	"github.com/maxkimambo/barista/internal/orchestrator"
	"github.com/maxkimambo/barista/internal/progress"
	"github.com/maxkimambo/barista/internal/resolver"
	"github.com/maxkimambo/barista/internal/task"
	"github.com/maxkimambo/barista/internal/utils"
)

var (
	projectFile string
	workers     int
	only        []string
	lockFile    string
	updateLock  bool
	cacheDir    string
	dotFile     string
)

var runCmd = &cobra.Command{
	Use:   "run [task[:key=value...]]...",
	Short: "Build tasks and everything they depend on",
	Long: `Builds the given tasks, or every task when none is given, together with the
tasks they depend on. Gems declared by the project are fetched and built first.

Arguments are passed to a task as colon separated key=value pairs. Values are
typed: "quoted" strings, integers, floats and true/false.

Example:
barista run
barista run package:version="1.2.0":release=true -w 4
barista run --only 'test:*' --lock barista.lock --update-lock
barista run --dot build.dot
`,
	RunE: runBuild,
}

func init() {
	runCmd.Flags().StringVarP(&projectFile, "file", "f", config.DefaultFile, "Project file, or a directory containing "+config.DefaultFile)
	runCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of tasks built in parallel (defaults to the project setting or the number of CPUs)")
	runCmd.Flags().StringSliceVar(&only, "only", nil, "Build only the tasks matching these name patterns, and their dependencies")
	runCmd.Flags().StringVar(&lockFile, "lock", "", "Lock snapshot deciding which dependencies are stale")
	runCmd.Flags().BoolVar(&updateLock, "update-lock", false, "Record the watched files in the lock snapshot after a successful build")
	runCmd.Flags().StringVar(&cacheDir, "cache-dir", resolver.DefaultCacheDir, "Directory remote gems are fetched to")
	runCmd.Flags().StringVar(&dotFile, "dot", "", "Write the build graph of every project, coloured by task outcome, to this Graphviz file")
}

// plan is one project to build with the targets selected for it
type plan struct {
	project *config.Project
	targets []string
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	requested, order, err := task.ParseArgs(args)
	if err != nil {
		return err
	}

	root, err := config.Load(projectFile)
	if err != nil {
		return err
	}

	parallelism := effectiveWorkers(workers, root.Workers)

	gems, err := newGemLoader(cacheDir, parallelism).load(ctx, root)
	if err != nil {
		return err
	}

	plans, err := planBuild(append(gems, root), order, only)
	if err != nil {
		return err
	}

	snapshot, err := loadLock(ctx, lockFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if quiet {
		out = io.Discard
	}

	logger.User.Startingf("Building %s with %d workers", root.Name, parallelism)

	var reports []string
	for _, p := range plans {
		presenter := progress.NewPresenter(out)
		for _, t := range p.project.Registry.Tasks() {
			t.Load(requested[t.Name()])
			presenter.Attach(t)
		}

		o, err := orchestrator.New(p.project.Registry, orchestrator.Config{
			Workers: effectiveWorkers(workers, p.project.Workers),
			Targets: p.targets,
			Lock:    snapshot,
			Hooks:   presenter.Hooks(),
		})
		if err != nil {
			return err
		}

		if p.project != root {
			logger.User.Buildingf("Building gem %s", p.project.Name)
		}

		err = o.Execute(ctx)
		fmt.Fprintln(out, presenter.Summary())

		viz := dag.NewVisualization(subgraph(o.Graph(), o.BuildList()), presenter.Statuses())
		logger.Op.Debugf("%s", viz.TextSummary())
		reports = append(reports, viz.DOT(p.project.Name))

		if err != nil {
			if werr := writeReport(dotFile, reports); werr != nil {
				logger.Op.Warnf("Failed to write %s: %v", dotFile, werr)
			}
			return err
		}
	}

	if err := writeReport(dotFile, reports); err != nil {
		return err
	}

	if updateLock {
		registries := make([]*task.Registry, 0, len(plans))
		for _, p := range plans {
			registries = append(registries, p.project.Registry)
		}
		if err := recordLock(ctx, lockPath(root, lockFile), registries...); err != nil {
			return err
		}
	}

	logger.User.Success("Build finished")
	return nil
}

// planBuild assigns the requested tasks and --only patterns to the projects
// declaring them. Requested tasks no project declares go to the last project,
// whose orchestrator reports them as unknown. Without any selection every
// project builds all of its tasks.
func planBuild(projects []*config.Project, order, patterns []string) ([]plan, error) {
	if len(order) == 0 && len(patterns) == 0 {
		plans := make([]plan, 0, len(projects))
		for _, project := range projects {
			plans = append(plans, plan{project: project})
		}
		return plans, nil
	}

	claimed := make(map[string]bool)
	plans := make([]plan, 0, len(projects))
	for _, project := range projects {
		var names []string
		for _, t := range project.Registry.Tasks() {
			names = append(names, t.Name())
		}

		targets, err := utils.FilterNames(names, patterns)
		if err != nil {
			return nil, err
		}
		if len(patterns) == 0 {
			targets = nil
		}

		for _, name := range order {
			if _, ok := project.Registry.Lookup(name); ok && !claimed[name] {
				claimed[name] = true
				targets = appendUnique(targets, name)
			}
		}

		if len(targets) > 0 {
			plans = append(plans, plan{project: project, targets: targets})
		}
	}

	var unclaimed []string
	for _, name := range order {
		if !claimed[name] {
			unclaimed = append(unclaimed, name)
		}
	}
	if len(unclaimed) > 0 {
		last := projects[len(projects)-1]
		if len(plans) > 0 && plans[len(plans)-1].project == last {
			plans[len(plans)-1].targets = append(plans[len(plans)-1].targets, unclaimed...)
		} else {
			plans = append(plans, plan{project: last, targets: unclaimed})
		}
	}

	if len(plans) == 0 {
		return nil, fmt.Errorf("no task matches --only %s", strings.Join(patterns, ","))
	}
	return plans, nil
}

// writeReport writes one DOT graph per built project to path. An empty path writes nothing.
func writeReport(path string, graphs []string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strings.Join(graphs, "\n")), 0o644)
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

// effectiveWorkers prefers the flag, then the project setting, then the number of CPUs
func effectiveWorkers(flag, project int) int {
	switch {
	case flag > 0:
		return flag
	case project > 0:
		return project
	default:
		return runtime.NumCPU()
	}
}
