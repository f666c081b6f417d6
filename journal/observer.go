package journal

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/goblinstake/goblin-stake/metrics"
)

// Observer records provider transactions in the journal. Journal failures are logged, never returned.
type Observer struct {
	store   *Store
	cluster string
	logger  logrus.FieldLogger

	methodsMutex sync.Mutex
	methods      map[solana.Signature]string
}

func NewObserver(store *Store, cluster string, logger logrus.FieldLogger) *Observer {
	return &Observer{
		store:   store,
		cluster: cluster,
		logger:  logger,
		methods: map[solana.Signature]string{},
	}
}

func (o *Observer) OnSubmitted(method string, signature solana.Signature) {
	o.methodsMutex.Lock()
	o.methods[signature] = method
	o.methodsMutex.Unlock()

	if o.store == nil {
		return
	}

	err := o.store.Add(&Record{
		Signature: signature.String(),
		Method:    method,
		Cluster:   o.cluster,
		Submitted: time.Now(),
		Status:    StatusSubmitted,
	})
	if err != nil {
		o.logger.Warnf("could not journal transaction %v: %v", signature, err)
	}
}

func (o *Observer) OnSettled(signature solana.Signature, slot uint64, err error) {
	o.methodsMutex.Lock()
	method := o.methods[signature]
	delete(o.methods, signature)
	o.methodsMutex.Unlock()

	status := StatusConfirmed
	errText := ""
	if err != nil {
		status = StatusFailed
		errText = err.Error()
	}
	metrics.ObserveTransaction(method, string(status))

	if o.store == nil {
		return
	}

	if err := o.store.UpdateStatus(signature, status, slot, errText); err != nil {
		o.logger.Warnf("could not update journal record %v: %v", signature, err)
	}
}
