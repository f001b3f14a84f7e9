package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/barista/internal/config"
	"github.com/maxkimambo/barista/internal/task"
	"github.com/maxkimambo/barista/internal/utils"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect and record lock snapshots",
	Long: `A lock snapshot records the modification time of the files watched by each
dependency. In a later run with --lock, a dependency stops ordering its task when
one of its watched files is older than the recorded time. The task still builds.`,
}

var lockShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the files recorded in a lock snapshot",
	RunE:  runLockShow,
}

var lockCaptureCmd = &cobra.Command{
	Use:   "capture [task[:key=value...]]...",
	Short: "Record the watched files of a project without building it",
	RunE:  runLockCapture,
}

func init() {
	for _, c := range []*cobra.Command{lockShowCmd, lockCaptureCmd} {
		c.Flags().StringVarP(&projectFile, "file", "f", config.DefaultFile, "Project file, or a directory containing "+config.DefaultFile)
		c.Flags().StringVar(&lockFile, "lock", "", "Lock snapshot (defaults to "+DefaultLockFile+" next to the project file)")
	}

	lockCmd.AddCommand(lockShowCmd)
	lockCmd.AddCommand(lockCaptureCmd)
}

func runLockShow(cmd *cobra.Command, args []string) error {
	path := lockFile
	if path == "" {
		project, err := config.Load(projectFile)
		if err != nil {
			return err
		}
		path = lockPath(project, "")
	}

	snapshot, err := loadLock(cmd.Context(), path)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), lockTable(snapshot))
	return nil
}

func runLockCapture(cmd *cobra.Command, args []string) error {
	project, err := config.Load(projectFile)
	if err != nil {
		return err
	}

	requested, _, err := task.ParseArgs(args)
	if err != nil {
		return err
	}
	for _, t := range project.Registry.Tasks() {
		t.Load(requested[t.Name()])
	}

	return recordLock(cmd.Context(), lockPath(project, lockFile), project.Registry)
}

func lockTable(snapshot task.Lock) string {
	table := utils.NewTableFormatter("TASK", "FILE", "MODIFIED")

	tasks := make([]string, 0, len(snapshot))
	for name := range snapshot {
		tasks = append(tasks, name)
	}
	sort.Strings(tasks)

	for _, name := range tasks {
		files := make([]string, 0, len(snapshot[name]))
		for path := range snapshot[name] {
			files = append(files, path)
		}
		sort.Strings(files)

		for _, path := range files {
			table.AddRow(name, path, snapshot[name][path].Format(time.RFC3339))
		}
	}
	return table.String()
}
