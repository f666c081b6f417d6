package anchor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

var (
	ErrEmptySignature   = errors.New("network returned an empty transaction signature")
	ErrConfirmTimeout   = errors.New("transaction was not confirmed in time")
	ErrBlockhashExpired = errors.New("blockhash expired before the transaction was confirmed")
)

// RemoteCallError is returned for every failed remote method call: unreachable
// network, rejected instruction (preflight or on chain) and confirmation timeout.
type RemoteCallError struct {
	Method       string
	Signature    solana.Signature // zero if the transaction never reached the cluster
	ProgramError *ProgramError    // set if the program rejected the instruction with a known code
	Err          error
}

func (e *RemoteCallError) Error() string {
	msg := fmt.Sprintf("remote call %v failed", e.Method)
	if !e.Signature.IsZero() {
		msg += fmt.Sprintf(" (tx %v)", e.Signature)
	}
	if e.ProgramError != nil {
		return fmt.Sprintf("%v: %v", msg, e.ProgramError.Error())
	}
	return fmt.Sprintf("%v: %v", msg, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// ProgramError is a custom error code raised by the program or the anchor framework.
type ProgramError struct {
	Code uint32
	Name string
	Msg  string
}

func (e *ProgramError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("custom program error %v (0x%x)", e.Code, e.Code)
	}
	if e.Msg == "" {
		return fmt.Sprintf("%v (%v)", e.Name, e.Code)
	}
	return fmt.Sprintf("%v (%v): %v", e.Name, e.Code, e.Msg)
}

// TransactionError carries the raw error object of a transaction that failed on chain.
type TransactionError struct {
	Raw interface{}
}

func (e *TransactionError) Error() string {
	raw, err := json.Marshal(e.Raw)
	if err != nil {
		return fmt.Sprintf("transaction failed on chain: %v", e.Raw)
	}
	return fmt.Sprintf("transaction failed on chain: %s", raw)
}

// codes of the anchor framework itself (the program's own codes start at 6000)
var frameworkErrors = map[uint32]IdlErrorCode{
	100:  {Code: 100, Name: "InstructionMissing", Msg: "8 byte instruction identifier not provided"},
	101:  {Code: 101, Name: "InstructionFallbackNotFound", Msg: "Fallback functions are not supported"},
	102:  {Code: 102, Name: "InstructionDidNotDeserialize", Msg: "The program could not deserialize the given instruction"},
	103:  {Code: 103, Name: "InstructionDidNotSerialize", Msg: "The program could not serialize the given instruction"},
	2000: {Code: 2000, Name: "ConstraintMut", Msg: "A mut constraint was violated"},
	2001: {Code: 2001, Name: "ConstraintHasOne", Msg: "A has one constraint was violated"},
	2002: {Code: 2002, Name: "ConstraintSigner", Msg: "A signer constraint was violated"},
	2003: {Code: 2003, Name: "ConstraintRaw", Msg: "A raw constraint was violated"},
	2006: {Code: 2006, Name: "ConstraintSeeds", Msg: "A seeds constraint was violated"},
	3000: {Code: 3000, Name: "AccountDiscriminatorAlreadySet", Msg: "The account discriminator was already set on this account"},
	3001: {Code: 3001, Name: "AccountDiscriminatorNotFound", Msg: "No 8 byte discriminator was found on the account"},
	3002: {Code: 3002, Name: "AccountDiscriminatorMismatch", Msg: "8 byte discriminator did not match what was expected"},
	3003: {Code: 3003, Name: "AccountDidNotDeserialize", Msg: "Failed to deserialize the account"},
	3007: {Code: 3007, Name: "AccountOwnedByWrongProgram", Msg: "The given account is owned by a different program than expected"},
	3010: {Code: 3010, Name: "AccountNotSigner", Msg: "The given account did not sign"},
	3012: {Code: 3012, Name: "AccountNotInitialized", Msg: "The program expected this account to be already initialized"},
}

var (
	customErrorHexPattern = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)
	errorNumberLogPattern = regexp.MustCompile(`Error Number: (\d+)\.`)
)

// ResolveProgramError extracts a custom error code from err and names it from the idl.
func ResolveProgramError(err error, idl *Idl) (*ProgramError, bool) {
	code, ok := ExtractCustomErrorCode(err)
	if !ok {
		return nil, false
	}

	progErr := &ProgramError{Code: code}
	if idl != nil {
		if known, found := idl.ErrorByCode(code); found {
			progErr.Name = known.Name
			progErr.Msg = known.Msg
			return progErr, true
		}
	}
	if known, found := frameworkErrors[code]; found {
		progErr.Name = known.Name
		progErr.Msg = known.Msg
	}

	return progErr, true
}

// ExtractCustomErrorCode looks for InstructionError [i, {"Custom": n}] in a transaction
// or rpc error, falling back to the program logs and the rpc error message.
func ExtractCustomErrorCode(err error) (uint32, bool) {
	if err == nil {
		return 0, false
	}

	var txErr *TransactionError
	if errors.As(err, &txErr) {
		if code, ok := customCodeFromRaw(txErr.Raw); ok {
			return code, true
		}
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		if data, ok := rpcErr.Data.(map[string]interface{}); ok {
			if code, ok := customCodeFromRaw(data["err"]); ok {
				return code, true
			}
			if logs, ok := data["logs"].([]interface{}); ok {
				for _, line := range logs {
					text, _ := line.(string)
					if match := errorNumberLogPattern.FindStringSubmatch(text); match != nil {
						if code, err := strconv.ParseUint(match[1], 10, 32); err == nil {
							return uint32(code), true
						}
					}
				}
			}
		}
	}

	if match := customErrorHexPattern.FindStringSubmatch(err.Error()); match != nil {
		if code, err := strconv.ParseUint(match[1], 16, 32); err == nil {
			return uint32(code), true
		}
	}

	return 0, false
}

func customCodeFromRaw(raw interface{}) (uint32, bool) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return 0, false
	}
	ixErr, ok := obj["InstructionError"].([]interface{})
	if !ok || len(ixErr) != 2 {
		return 0, false
	}
	detail, ok := ixErr[1].(map[string]interface{})
	if !ok {
		return 0, false
	}
	return toUint32(detail["Custom"])
}

func toUint32(value interface{}) (uint32, bool) {
	switch v := value.(type) {
	case float64:
		if v < 0 || v > float64(^uint32(0)) {
			return 0, false
		}
		return uint32(v), true
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 32)
		if err != nil {
			return 0, false
		}
		return uint32(n), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint32(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint32(v), true
	case uint32:
		return v, true
	case uint64:
		return uint32(v), true
	}
	return 0, false
}
