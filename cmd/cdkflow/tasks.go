package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/basewarphq/cdkflow/cmd/internal/projcfg"
	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
)

type TasksCmd struct{}

func (c *TasksCmd) Run() error {
	cfg, err := projcfg.Load()
	if err != nil {
		return err
	}
	manifest, err := scaffold.LoadTasks(cfg.Root)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "TASK\tDESCRIPTION")
	for _, task := range manifest.Tasks {
		fmt.Fprintf(writer, "%s\t%s\n", task.Name, task.Description)
	}
	return writer.Flush()
}
