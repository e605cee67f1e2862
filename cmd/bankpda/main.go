package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/Overclock-Validator/bankpda/cmd/bankpda/derive"
	"github.com/Overclock-Validator/bankpda/cmd/bankpda/env"
	"github.com/Overclock-Validator/bankpda/cmd/bankpda/initialize"
	"github.com/Overclock-Validator/bankpda/cmd/bankpda/inspect"
	"github.com/Overclock-Validator/bankpda/cmd/bankpda/race"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:   "bankpda",
	Short: "Create and inspect bank accounts at program derived addresses",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)
	env.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		&derive.Cmd,
		&initialize.Cmd,
		&inspect.Cmd,
		&race.Cmd,
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
