package anchor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/goblinstake/goblin-stake/clients/cluster"
	"github.com/goblinstake/goblin-stake/clients/cluster/rpc"
)

// fakeConnection answers from canned values and records what was sent.
type fakeConnection struct {
	mutex       sync.Mutex
	sendErr     error
	zeroSig     bool
	statuses    []*solrpc.SignatureStatusesResult
	blockHeight uint64
	accountData []byte
	sent        []*solana.Transaction
	statusCalls int
}

func (c *fakeConnection) GetLatestBlockhash(ctx context.Context, commitment solrpc.CommitmentType) (*rpc.BlockhashInfo, error) {
	return &rpc.BlockhashInfo{
		Blockhash:            solana.Hash{1, 2, 3},
		LastValidBlockHeight: 100,
	}, nil
}

func (c *fakeConnection) GetBlockHeight(ctx context.Context, commitment solrpc.CommitmentType) (uint64, error) {
	return c.blockHeight, nil
}

func (c *fakeConnection) SendTransaction(ctx context.Context, tx *solana.Transaction, opts solrpc.TransactionOpts) (solana.Signature, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.sent = append(c.sent, tx)
	if c.sendErr != nil {
		return solana.Signature{}, c.sendErr
	}
	if c.zeroSig {
		return solana.Signature{}, nil
	}
	return tx.Signatures[0], nil
}

func (c *fakeConnection) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*solrpc.SignatureStatusesResult, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	idx := c.statusCalls
	c.statusCalls++
	if len(c.statuses) == 0 {
		return nil, nil
	}
	if idx >= len(c.statuses) {
		idx = len(c.statuses) - 1
	}
	return c.statuses[idx], nil
}

func (c *fakeConnection) GetAccountData(ctx context.Context, account solana.PublicKey, commitment solrpc.CommitmentType) ([]byte, error) {
	if c.accountData == nil {
		return nil, rpc.ErrAccountNotFound
	}
	return c.accountData, nil
}

type recordingObserver struct {
	submitted []string
	settled   []error
}

func (o *recordingObserver) OnSubmitted(method string, signature solana.Signature) {
	o.submitted = append(o.submitted, method)
}

func (o *recordingObserver) OnSettled(signature solana.Signature, slot uint64, err error) {
	o.settled = append(o.settled, err)
}

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testWallet(t *testing.T) *cluster.Wallet {
	t.Helper()

	wallet, err := cluster.NewWallet(solana.NewWallet().PrivateKey)
	if err != nil {
		t.Fatal(err)
	}
	return wallet
}

func testProvider(t *testing.T, conn Connection) *Provider {
	opts := DefaultProviderOptions()
	opts.PollInterval = 5 * time.Millisecond
	opts.ConfirmTimeout = 200 * time.Millisecond
	return NewProvider(conn, testWallet(t), opts, testLogger())
}

func memoInstruction() solana.Instruction {
	return solana.NewInstruction(solana.MemoProgramID, solana.AccountMetaSlice{}, []byte("test"))
}

func TestSendAndConfirm(t *testing.T) {
	confirmed := &solrpc.SignatureStatusesResult{Slot: 42, ConfirmationStatus: solrpc.ConfirmationStatusConfirmed}

	tests := []struct {
		name      string
		conn      *fakeConnection
		wantErr   error
		wantSig   bool
		checkErr  func(err error) bool
		submitted int
	}{
		{
			name:      "confirmed",
			conn:      &fakeConnection{statuses: []*solrpc.SignatureStatusesResult{nil, confirmed}},
			wantSig:   true,
			submitted: 1,
		},
		{
			name:      "failed on chain",
			conn:      &fakeConnection{statuses: []*solrpc.SignatureStatusesResult{{Slot: 7, Err: map[string]interface{}{"InstructionError": []interface{}{float64(0), map[string]interface{}{"Custom": float64(6000)}}}}}},
			wantSig:   true,
			submitted: 1,
			checkErr: func(err error) bool {
				var txErr *TransactionError
				return errors.As(err, &txErr)
			},
		},
		{
			name:      "confirm timeout",
			conn:      &fakeConnection{},
			wantErr:   ErrConfirmTimeout,
			wantSig:   true,
			submitted: 1,
		},
		{
			name:      "blockhash expired",
			conn:      &fakeConnection{blockHeight: 101},
			wantErr:   ErrBlockhashExpired,
			wantSig:   true,
			submitted: 1,
		},
		{
			name:      "empty signature",
			conn:      &fakeConnection{zeroSig: true},
			wantErr:   ErrEmptySignature,
			submitted: 0,
		},
		{
			name:      "send rejected",
			conn:      &fakeConnection{sendErr: errors.New("connection refused")},
			submitted: 0,
			checkErr: func(err error) bool {
				return err.Error() == "connection refused"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := testProvider(t, tt.conn)
			observer := &recordingObserver{}
			provider.SetObserver(observer)

			signature, err := provider.SendAndConfirm(context.Background(), "memo", []solana.Instruction{memoInstruction()})

			expectErr := tt.wantErr != nil || tt.checkErr != nil
			if !expectErr && err != nil {
				t.Fatalf("SendAndConfirm() error = %v", err)
			}
			if expectErr && err == nil {
				t.Fatalf("SendAndConfirm() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("SendAndConfirm() error = %v, want %v", err, tt.wantErr)
			}
			if tt.checkErr != nil && !tt.checkErr(err) {
				t.Errorf("SendAndConfirm() unexpected error %v", err)
			}
			if signature.IsZero() == tt.wantSig {
				t.Errorf("SendAndConfirm() signature zero = %v, want signature %v", signature.IsZero(), tt.wantSig)
			}
			if len(observer.submitted) != tt.submitted || len(observer.settled) != tt.submitted {
				t.Errorf("observer calls = %v/%v, want %v", len(observer.submitted), len(observer.settled), tt.submitted)
			}
		})
	}
}

func TestSendAndConfirmSignsWithWalletAsPayer(t *testing.T) {
	conn := &fakeConnection{statuses: []*solrpc.SignatureStatusesResult{{ConfirmationStatus: solrpc.ConfirmationStatusProcessed}}}
	provider := testProvider(t, conn)

	if _, err := provider.SendAndConfirm(context.Background(), "memo", []solana.Instruction{memoInstruction()}); err != nil {
		t.Fatalf("SendAndConfirm() error = %v", err)
	}

	tx := conn.sent[0]
	if !tx.Message.AccountKeys[0].Equals(provider.Wallet().PublicKey()) {
		t.Errorf("payer = %v, want wallet %v", tx.Message.AccountKeys[0], provider.Wallet().PublicKey())
	}
	if err := tx.VerifySignatures(); err != nil {
		t.Errorf("VerifySignatures() error = %v", err)
	}
}

func TestSendAndConfirmCallerContext(t *testing.T) {
	opts := DefaultProviderOptions()
	opts.PollInterval = 5 * time.Millisecond
	opts.ConfirmTimeout = time.Hour

	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		wantErr error
	}{
		{
			name: "cancelled",
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				time.AfterFunc(20*time.Millisecond, cancel)
				return ctx, cancel
			},
			wantErr: context.Canceled,
		},
		{
			name: "deadline",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 50*time.Millisecond)
			},
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewProvider(&fakeConnection{}, testWallet(t), opts, testLogger())
			ctx, cancel := tt.ctx()
			defer cancel()

			started := time.Now()
			_, err := provider.SendAndConfirm(ctx, "memo", []solana.Instruction{memoInstruction()})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SendAndConfirm() error = %v, want %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrConfirmTimeout) {
				t.Errorf("SendAndConfirm() error = %v, caller context reported as confirm timeout", err)
			}
			if elapsed := time.Since(started); elapsed > 5*time.Second {
				t.Errorf("SendAndConfirm() returned after %v", elapsed)
			}
		})
	}
}
