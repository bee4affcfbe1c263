package harness

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/roprobe/pkg/accounts"
	"go.firedancer.io/roprobe/pkg/cu"
	"go.firedancer.io/roprobe/pkg/global"
	"go.firedancer.io/roprobe/pkg/romodify"
	"go.firedancer.io/roprobe/pkg/sealevel"
	"go.firedancer.io/roprobe/pkg/util"
	"k8s.io/klog/v2"
)

// ForeignOwnerAddr owns subjects of scenarios with Subject.ForeignOwner set.
var ForeignOwnerAddr = func() solana.PublicKey {
	h := sha256.Sum256([]byte("roprobe/foreign-owner"))
	return solana.PublicKeyFromBytes(h[:])
}()

type StepResult struct {
	Step         Step
	Err          error
	Outcome      Outcome
	Logs         []string
	ComputeUnits uint64
	PreByte      *byte
	PostByte     *byte
	PreHash      []byte
	PostHash     []byte
	Committed    bool
	// HostBug is set when a transaction committed a change to a read-only
	// subject.
	HostBug bool
}

func (s *StepResult) Matched() bool {
	return s.Outcome == s.Step.Expect
}

type Result struct {
	Scenario  Scenario
	Subject   solana.PublicKey
	Steps     []StepResult
	FinalByte *byte
	Err       error
	Duration  time.Duration
}

func (r *Result) HostBug() bool {
	for i := range r.Steps {
		if r.Steps[i].HostBug {
			return true
		}
	}
	return false
}

// Passed reports whether every step had its expected outcome and the
// subject ended in the expected state.
func (r *Result) Passed() bool {
	if r.Err != nil || len(r.Steps) != len(r.Scenario.Steps) {
		return false
	}
	for i := range r.Steps {
		if !r.Steps[i].Matched() {
			return false
		}
	}
	if want := r.Scenario.FinalByte; want != nil {
		return r.FinalByte != nil && *r.FinalByte == *want
	}
	return true
}

type Runner struct {
	Store         accounts.Accounts
	Metrics       *Metrics
	Parallel      int
	ComputeBudget uint64
}

func NewRunner(store accounts.Accounts) *Runner {
	return &Runner{Store: store, Parallel: 1, ComputeBudget: cu.DefaultComputeUnitLimit}
}

// Run executes a scenario against a fresh subject account. Each step is a
// separate transaction whose account changes are stored only if it
// succeeds.
func (r *Runner) Run(ctx context.Context, sc Scenario) (res Result) {
	start := time.Now()
	res = Result{Scenario: sc, Subject: solana.NewWallet().PublicKey()}
	defer func() {
		res.Duration = time.Since(start)
		r.Metrics.observeScenario(&res)
	}()

	if err := sc.Validate(); err != nil {
		res.Err = err
		return res
	}

	owner := romodify.ProgramAddr
	if sc.Subject.ForeignOwner {
		owner = ForeignOwnerAddr
	}
	subject := &accounts.Account{
		Key:      res.Subject,
		Lamports: 1,
		Data:     bytes.Clone(sc.Subject.Data),
		Owner:    owner,
	}
	pk := [32]byte(res.Subject)
	if err := r.Store.SetAccount(&pk, subject); err != nil {
		res.Err = fmt.Errorf("storing subject: %w", err)
		return res
	}

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		stepRes, err := r.runStep(&sc, res.Subject, step)
		if err != nil {
			res.Err = fmt.Errorf("step %d: %w", i, err)
			return res
		}
		klog.V(2).Infof("scenario %s step %d (%s): %s", sc.Name, i, step, stepRes.Outcome)
		r.Metrics.observeStep(&stepRes)
		res.Steps = append(res.Steps, stepRes)
	}

	final, err := r.Store.GetAccount(&pk)
	if err != nil {
		res.Err = fmt.Errorf("loading subject: %w", err)
		return res
	}
	res.FinalByte = firstByte(final.Data)
	return res
}

func (r *Runner) runStep(sc *Scenario, subjectKey solana.PublicKey, step Step) (StepResult, error) {
	pk := [32]byte(subjectKey)
	subject, err := r.Store.GetAccount(&pk)
	if err != nil {
		return StepResult{}, err
	}
	program := accounts.Account{
		Key:        romodify.ProgramAddr,
		Lamports:   1,
		Owner:      sealevel.NativeLoaderAddr,
		Executable: true,
	}

	log := new(sealevel.LogRecorder)
	txAccts := sealevel.NewTransactionAccounts([]accounts.Account{program, *subject})
	execCtx := &sealevel.ExecutionCtx{
		Log:                log,
		TransactionContext: sealevel.NewTransactionCtxDefault(*txAccts),
		GlobalCtx:          global.NewGlobalCtx(sc.features()),
		ComputeMeter:       cu.NewComputeMeter(r.computeBudget()),
	}

	metas := []sealevel.AccountMeta{{Pubkey: subjectKey, IsWritable: sc.Subject.Writable}}
	if !sc.OmitProgramAccount {
		metas = append(metas, sealevel.AccountMeta{Pubkey: romodify.ProgramAddr})
	}
	instrAccts := sealevel.InstructionAcctsFromAccountMetas(metas, execCtx.TransactionContext.Accounts)

	err = execCtx.ProcessInstruction(step.Data, instrAccts, []uint64{0})

	post, getErr := execCtx.TransactionContext.Accounts.GetAccount(1)
	if getErr != nil {
		return StepResult{}, getErr
	}

	stepRes := StepResult{
		Step:         step,
		Err:          err,
		Outcome:      OutcomeOf(err),
		Logs:         log.Logs,
		ComputeUnits: execCtx.ComputeMeter.Used(),
		PreByte:      firstByte(subject.Data),
		PostByte:     firstByte(post.Data),
		PreHash:      util.CalculateAcctHash(subject),
		PostHash:     util.CalculateAcctHash(post),
	}

	if err != nil {
		return stepRes, nil
	}

	if err := r.Store.SetAccount(&pk, post); err != nil {
		return StepResult{}, err
	}
	stepRes.Committed = true
	stepRes.HostBug = !sc.Subject.Writable && !bytes.Equal(subject.Data, post.Data)
	if stepRes.HostBug {
		klog.Warningf("scenario %s: read-only subject %s modified by %s", sc.Name, subjectKey, step)
	}
	return stepRes, nil
}

func (r *Runner) computeBudget() uint64 {
	if r.ComputeBudget == 0 {
		return cu.DefaultComputeUnitLimit
	}
	return r.ComputeBudget
}

// RunAll runs scenarios on a worker pool of r.Parallel workers and returns
// their results in input order. onDone, if set, is called once per
// finished scenario, never concurrently.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario, onDone func(Result)) []Result {
	workers := r.Parallel
	if workers < 1 {
		workers = 1
	}
	pool := pond.New(workers, len(scenarios))
	defer pool.StopAndWait()

	results := make([]Result, len(scenarios))
	var mu sync.Mutex
	group := pool.Group()
	for i, sc := range scenarios {
		group.Submit(func() {
			results[i] = r.Run(ctx, sc)
			if onDone != nil {
				mu.Lock()
				onDone(results[i])
				mu.Unlock()
			}
		})
	}
	group.Wait()
	return results
}

func firstByte(data []byte) *byte {
	if len(data) == 0 {
		return nil
	}
	return byteRef(data[0])
}
