package inspect

import (
	"errors"
	"fmt"

	"github.com/Overclock-Validator/bankpda/cmd/bankpda/env"
	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"github.com/Overclock-Validator/bankpda/pkg/bank"
	"github.com/Overclock-Validator/bankpda/pkg/pda"
	"github.com/Overclock-Validator/bankpda/pkg/rent"
	"github.com/Overclock-Validator/bankpda/pkg/rpcclient"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "inspect",
		Short: "Show a bank account from the local ledger or a cluster",
		Args:  cobra.NoArgs,
		Run:   run,
	}

	owner     string
	remote    bool
	endpoint  string
	signature string
)

func init() {
	Cmd.Flags().StringVarP(&owner, "owner", "o", "", "Bank account owner public key")
	Cmd.Flags().BoolVarP(&remote, "remote", "r", false, "Read from the cluster at rpc.endpoint instead of the local ledger")
	Cmd.Flags().StringVar(&endpoint, "rpc", "", "RPC endpoint to read from; implies --remote")
	Cmd.Flags().StringVar(&signature, "signature", "", "Also report the cluster status of this transaction signature")
	_ = Cmd.MarkFlagRequired("owner")
}

func run(c *cobra.Command, args []string) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		klog.Exitf("invalid owner %q: %s", owner, err)
	}

	if remote || endpoint != "" {
		runRemote(c, ownerKey)
		return
	}

	e, err := env.Open(nil)
	if err != nil {
		klog.Exitf("unable to open ledger: %s", err)
	}
	defer e.Close()

	body, acct, err := e.Program.Lookup(c.Context(), ownerKey)
	if errors.Is(err, accounts.ErrNoAccount) {
		addr, bump, _ := e.Program.Address(ownerKey)
		fmt.Printf("address:  %s\nbump:     %d\nstate:    absent\n", addr, bump)
		return
	} else if err != nil {
		klog.Errorf("unable to read bank account for %s: %s", ownerKey, err)
		return
	}

	fmt.Printf("address:  %s\n", acct.Key)
	fmt.Printf("bump:     %d\n", acct.Bump)
	fmt.Printf("state:    present\n")
	fmt.Printf("sequence: %d\n", acct.CreatedAt)
	fmt.Printf("hash:     %x\n", acct.Hash())
	sr := rent.DefaultSysvarRent()
	fmt.Printf("rent:     %d lamports to be exempt\n", sr.MinimumBalance(uint64(len(acct.Data))))
	printBank(body)
}

func runRemote(c *cobra.Command, ownerKey solana.PublicKey) {
	cfg, err := env.LoadConfig()
	if err != nil {
		klog.Exitf("unable to load config: %s", err)
	}
	if endpoint == "" {
		endpoint = cfg.Rpc.Endpoint
	}

	deriver, err := pda.NewDeriver(cfg.ProgramKey(), cfg.Derive)
	if err != nil {
		klog.Exitf("invalid derivation limits: %s", err)
	}
	addr, bump, err := deriver.FindProgramAddress(bank.Seeds(ownerKey))
	if err != nil {
		klog.Exitf("unable to derive address: %s", err)
	}

	rpcc := rpcclient.NewRpcClient(endpoint)
	klog.V(2).Infof("fetching %s from %s", addr, endpoint)

	fmt.Printf("address:  %s\nbump:     %d\n", addr, bump)

	body, acct, err := rpcc.GetBankAccount(c.Context(), cfg.ProgramKey(), addr)
	if errors.Is(err, accounts.ErrNoAccount) {
		fmt.Printf("state:    absent\n")
	} else if err != nil {
		klog.Errorf("unable to fetch bank account %s: %s", addr, err)
	} else {
		fmt.Printf("state:    present\n")
		fmt.Printf("lamports: %d\n", acct.Lamports)
		sr, err := rpcc.GetRent(c.Context())
		if err != nil {
			klog.Warningf("unable to fetch rent sysvar, using defaults: %s", err)
			sr = rent.DefaultSysvarRent()
		}
		dataLen := uint64(len(acct.Data.GetBinary()))
		fmt.Printf("rent:     %d lamports to be exempt (exempt: %t)\n",
			sr.MinimumBalance(dataLen), sr.IsExempt(acct.Lamports, dataLen))
		printBank(body)
	}

	if signature == "" {
		return
	}
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		klog.Exitf("invalid signature %q: %s", signature, err)
	}
	status, err := rpcc.GetSignatureStatus(c.Context(), sig)
	if err != nil {
		klog.Errorf("unable to fetch status of %s: %s", sig, err)
		return
	}
	if status == nil {
		fmt.Printf("tx:       %s unknown\n", sig)
		return
	}
	fmt.Printf("tx:       %s %s at slot %d (err: %v)\n", sig, status.ConfirmationStatus, status.Slot, status.Err)
}

func printBank(b *bank.Bank) {
	fmt.Printf("name:     %q\n", b.Name)
	fmt.Printf("balance:  %d\n", b.Balance)
	fmt.Printf("owner:    %s\n", b.Owner)
}
