package derive

import (
	"fmt"

	"github.com/Overclock-Validator/bankpda/cmd/bankpda/env"
	"github.com/Overclock-Validator/bankpda/pkg/bank"
	"github.com/Overclock-Validator/bankpda/pkg/pda"
	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "derive",
		Short: "Print the program address and bump for a bank owner or raw seeds",
		Args:  cobra.NoArgs,
		Run:   run,
	}

	owner string
	seeds []string
)

func init() {
	Cmd.Flags().StringVarP(&owner, "owner", "o", "", "Bank account owner public key")
	Cmd.Flags().StringArrayVarP(&seeds, "seed", "s", nil, "Raw seed (repeatable); used when --owner is not set")
	Cmd.MarkFlagsMutuallyExclusive("owner", "seed")
}

func run(c *cobra.Command, args []string) {
	cfg, err := env.LoadConfig()
	if err != nil {
		klog.Exitf("unable to load config: %s", err)
	}

	deriver, err := pda.NewDeriver(cfg.ProgramKey(), cfg.Derive)
	if err != nil {
		klog.Exitf("invalid derivation limits: %s", err)
	}

	var seedBytes [][]byte
	if owner != "" {
		ownerKey, err := solana.PublicKeyFromBase58(owner)
		if err != nil {
			klog.Exitf("invalid owner %q: %s", owner, err)
		}
		seedBytes = bank.Seeds(ownerKey)
	} else {
		seedBytes = lo.Map(seeds, func(s string, _ int) []byte { return []byte(s) })
	}

	addr, bump, err := deriver.FindProgramAddress(seedBytes)
	if err != nil {
		klog.Exitf("unable to derive address: %s", err)
	}

	fmt.Printf("%s %d\n", addr, bump)
}
