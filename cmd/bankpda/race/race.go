package race

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/Overclock-Validator/bankpda/cmd/bankpda/env"
	"github.com/Overclock-Validator/bankpda/pkg/bank"
	"github.com/Overclock-Validator/bankpda/pkg/guard"
	"github.com/gagliardetto/solana-go"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "race",
		Short: "Run concurrent initializers against one bank account and report who won",
		Args:  cobra.NoArgs,
		Run:   run,
	}

	numInitializers int
	poolSize        int
	keypairPath     string
	metricsAddr     string
)

func init() {
	Cmd.Flags().IntVarP(&numInitializers, "n", "n", 64, "Number of concurrent initializers")
	Cmd.Flags().IntVar(&poolSize, "pool-size", 0, "Worker pool size (default: one worker per initializer)")
	Cmd.Flags().StringVarP(&keypairPath, "keypair", "k", "", "Owner keypair file (default: a fresh ephemeral key)")
	Cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address until interrupted")
}

type Attempt struct {
	Worker  int
	Receipt *guard.Receipt
	Err     error
}

type raceTask struct {
	worker int
}

// Race submits n initialize calls for user's bank account through a pool of
// poolSize workers and returns every attempt's result, ordered by worker.
func Race(ctx context.Context, program *bank.Program, user solana.PrivateKey, n int, poolSize int) ([]Attempt, error) {
	if n < 1 {
		return nil, fmt.Errorf("need at least one initializer, got %d", n)
	}
	if poolSize < 1 {
		poolSize = n
	}

	attempts := make([]Attempt, n)
	start := make(chan struct{})
	wg := sync.WaitGroup{}

	pool, err := ants.NewPoolWithFunc(poolSize, func(i interface{}) {
		defer wg.Done()
		task := i.(raceTask)
		<-start
		receipt, err := program.Initialize(ctx, user)
		attempts[task.worker] = Attempt{Worker: task.worker, Receipt: receipt, Err: err}
	})
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	// the first poolSize initializers wait on start so they contend for
	// the account together; the rest run as workers free up
	released := false
	release := func() {
		if !released {
			close(start)
			released = true
		}
	}
	for i := 0; i < n; i++ {
		if i == poolSize {
			release()
		}
		wg.Add(1)
		if err := pool.Invoke(raceTask{worker: i}); err != nil {
			attempts[i] = Attempt{Worker: i, Err: err}
			wg.Done()
		}
	}
	klog.V(2).Infof("race: %d initializers on %d workers", n, min(n, poolSize))
	release()
	wg.Wait()

	return attempts, nil
}

// Summarize groups attempts by outcome.
func Summarize(attempts []Attempt) map[string][]Attempt {
	return lo.GroupBy(attempts, func(a Attempt) string {
		return guard.Outcome(a.Err)
	})
}

func run(c *cobra.Command, args []string) {
	var user solana.PrivateKey
	if keypairPath != "" {
		var err error
		user, err = solana.PrivateKeyFromSolanaKeygenFile(keypairPath)
		if err != nil {
			klog.Exitf("unable to read keypair %s: %s", keypairPath, err)
		}
	} else {
		user = solana.NewWallet().PrivateKey
	}

	reg := prometheus.NewRegistry()
	e, err := env.Open(reg)
	if err != nil {
		klog.Exitf("unable to open ledger: %s", err)
	}
	defer e.Close()

	var srv *http.Server
	if metricsAddr != "" {
		srv = serveMetrics(reg, metricsAddr)
	}

	addr, bump, err := e.Program.Address(user.PublicKey())
	if err != nil {
		klog.Exitf("unable to derive address: %s", err)
	}
	klog.Infof("racing %d initializers for %s (bump %d, owner %s)", numInitializers, addr, bump, user.PublicKey())

	attempts, err := Race(c.Context(), e.Program, user, numInitializers, poolSize)
	if err != nil {
		klog.Errorf("race failed: %s", err)
		return
	}

	groups := Summarize(attempts)
	for _, winner := range groups[guard.OutcomeCommitted] {
		fmt.Printf("winner:  worker %d sequence %d signature %s\n",
			winner.Worker, winner.Receipt.Sequence, winner.Receipt.Signature)
	}
	outcomes := lo.Keys(groups)
	slices.Sort(outcomes)
	for _, outcome := range outcomes {
		fmt.Printf("%-20s %d\n", outcome, len(groups[outcome]))
	}
	if n := len(groups[guard.OutcomeCommitted]); n > 1 {
		klog.Errorf("%d initializers committed the same account", n)
	}

	if srv != nil {
		klog.Infof("serving metrics on %s until interrupted", metricsAddr)
		<-c.Context().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func serveMetrics(reg *prometheus.Registry, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("metrics server: %s", err)
		}
	}()
	return srv
}
