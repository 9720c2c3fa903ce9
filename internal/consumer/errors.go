package consumer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProcessorFault    = errors.New("consumer: processor fault")
	ErrContractViolation = errors.New("consumer: processor contract violation")
	ErrAckFailed         = errors.New("consumer: ack failed")
	ErrFetchFailed       = errors.New("consumer: fetch failed")
	ErrMissingCollab     = errors.New("consumer: provider and processor are required")
)

// FaultKind — вид фатального сбоя.
type FaultKind string

const (
	FaultProcessor FaultKind = "processor"
	FaultContract  FaultKind = "contract"
	FaultAck       FaultKind = "ack"
	FaultFetch     FaultKind = "fetch"
)

// Recovery — что было сделано с сообщением до эскалации сбоя.
type Recovery int

const (
	// RecoveryNone — ничего: сообщение остаётся без ack, повтор — на стороне транспорта.
	RecoveryNone Recovery = iota
	// RecoveryRequeued — nack без requeue и публикация в хвост очереди прошли успешно.
	RecoveryRequeued
	// RecoveryFailed — попытка nack/публикации не удалась.
	RecoveryFailed
)

func (r Recovery) String() string {
	switch r {
	case RecoveryRequeued:
		return "requeued"
	case RecoveryFailed:
		return "requeue failed"
	default:
		return "none"
	}
}

// Fault — фатальный сбой цикла. Всегда останавливает цикл, даже если
// сообщение успешно переотправлено: Recovery показывает, что было сделано.
type Fault struct {
	Queue       string
	MessageID   string
	Kind        FaultKind
	Recovery    Recovery
	Err         error
	RecoveryErr error
}

func (f *Fault) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "queue %s", f.Queue)
	if f.MessageID != "" {
		fmt.Fprintf(&b, " message %s", f.MessageID)
	}
	fmt.Fprintf(&b, ": %v", f.Err)
	if f.Kind == FaultProcessor {
		fmt.Fprintf(&b, " (recovery: %s)", f.Recovery)
	}
	if f.RecoveryErr != nil {
		fmt.Fprintf(&b, ": %v", f.RecoveryErr)
	}
	return b.String()
}

func (f *Fault) Unwrap() []error {
	errs := make([]error, 0, 2)
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	if f.RecoveryErr != nil {
		errs = append(errs, f.RecoveryErr)
	}
	return errs
}

// Requeued — сбой обработан (сообщение в хвосте очереди) и эскалирован.
func (f *Fault) Requeued() bool { return f.Recovery == RecoveryRequeued }

// AsFault — достаёт *Fault из цепочки ошибок.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// panicError — паника обработчика, превращённая в ошибку.
type panicError struct {
	value any
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

// Unwrap — если паниковали ошибкой, она доступна через errors.Is/As.
func (p *panicError) Unwrap() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return nil
}
