package initialize

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Overclock-Validator/bankpda/cmd/bankpda/env"
	"github.com/Overclock-Validator/bankpda/pkg/guard"
	"github.com/gagliardetto/solana-go"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "initialize",
		Short: "Create the caller's bank account",
		Args:  cobra.NoArgs,
		Run:   run,
	}

	keypairPath string
	name        string
)

func init() {
	Cmd.Flags().StringVarP(&keypairPath, "keypair", "k", defaultKeypairPath(), "Path to the owner's solana-keygen keypair file")
	Cmd.Flags().StringVarP(&name, "name", "n", "", "Bank account name")
}

func defaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

func run(c *cobra.Command, args []string) {
	user, err := solana.PrivateKeyFromSolanaKeygenFile(keypairPath)
	if err != nil {
		klog.Exitf("unable to read keypair %s: %s", keypairPath, err)
	}

	e, err := env.Open(nil)
	if err != nil {
		klog.Exitf("unable to open ledger: %s", err)
	}
	defer e.Close()

	receipt, err := e.Program.CreateAccount(c.Context(), user, name)
	if err != nil {
		if guard.IsRetryable(err) {
			klog.Errorf("initialize may be retried: %s", err)
		} else {
			klog.Errorf("initialize failed: %s", err)
		}
		e.Close()
		os.Exit(1)
	}

	klog.Infof("created bank account %s (bump %d, sequence %d) for %s",
		receipt.Address, receipt.Bump, receipt.Sequence, user.PublicKey())

	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Printf("Your transaction signature %s\n", receipt.Signature)
	} else {
		fmt.Println(receipt.Signature)
	}
}
