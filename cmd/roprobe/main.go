package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.firedancer.io/roprobe/cmd/roprobe/inspect"
	"go.firedancer.io/roprobe/cmd/roprobe/list"
	"go.firedancer.io/roprobe/cmd/roprobe/run"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:   "roprobe",
	Short: "Read-only account write protection probe",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(
		&run.Cmd,
		&list.Cmd,
		&inspect.Cmd,
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	defer klog.Flush()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
