package signer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"sui-wallet-go/internal/logger"
	"sui-wallet-go/internal/metrics"
	"sui-wallet-go/pkg/intent"
	"sui-wallet-go/pkg/keypair"
	"sui-wallet-go/pkg/signature"
)

// ErrEmptyTransaction is returned when a builder produces no bytes
var ErrEmptyTransaction = errors.New("empty transaction bytes")

// BuildFunc produces unsigned BCS TransactionData
type BuildFunc func(ctx context.Context) ([]byte, error)

// SubmitFunc hands signed transaction bytes to the network
type SubmitFunc func(ctx context.Context, txBytes []byte, sig signature.Serialized) (interface{}, error)

// Result describes a signed and submitted transaction
type Result struct {
	TxBytes   string               // base64 of the signed bytes
	Signature signature.Serialized // flag || sig || pubkey, base64
	Digest    string               // base58 transaction digest computed locally
	Response  interface{}          // whatever the submit collaborator returned
}

// Signer signs transactions with a single key pair
type Signer struct {
	kp      *keypair.KeyPair
	logger  *logger.Logger
	metrics *metrics.Metrics
	audit   *logger.AuditLogger
}

// Option configures a Signer
type Option func(*Signer)

// WithMetrics records signature and submission metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Signer) { s.metrics = m }
}

// WithAuditLog appends every signed and submitted transaction to al
func WithAuditLog(al *logger.AuditLogger) Option {
	return func(s *Signer) { s.audit = al }
}

// New creates a signer for kp
func New(kp *keypair.KeyPair, log *logger.Logger, opts ...Option) *Signer {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Signer{kp: kp, logger: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KeyPair returns the signing key pair
func (s *Signer) KeyPair() *keypair.KeyPair {
	return s.kp
}

// SignTransaction signs BLAKE2b-256(intent || txBytes) and serializes the result for the wire
func SignTransaction(kp *keypair.KeyPair, txBytes []byte) (signature.Serialized, error) {
	if kp.Destroyed() {
		return "", keypair.ErrDestroyed
	}
	digest := intent.HashTransaction(txBytes)
	sig := kp.Sign(digest[:])

	wire, err := signature.Serialize(kp.Scheme(), sig, kp.PublicKey())
	if err != nil {
		return "", fmt.Errorf("failed to serialize signature: %w", err)
	}
	return wire, nil
}

// SignRawUnsafe signs msg as-is, without intent framing or hashing.
//
// Legacy: nodes reject signatures produced this way. It exists for reproducing
// old test vectors and must not be used for transactions sent to the network.
func SignRawUnsafe(kp *keypair.KeyPair, msg []byte) (signature.Serialized, error) {
	if kp.Destroyed() {
		return "", keypair.ErrDestroyed
	}
	return signature.Serialize(kp.Scheme(), kp.Sign(msg), kp.PublicKey())
}

// SignTransaction signs txBytes with the signer's key pair
func (s *Signer) SignTransaction(txBytes []byte) (signature.Serialized, error) {
	start := time.Now()
	wire, err := SignTransaction(s.kp, txBytes)
	if err != nil {
		s.logger.LogError("signer", "sign", err, nil)
		return "", err
	}

	elapsed := time.Since(start)
	s.metrics.ObserveSignature(s.kp.Scheme().String(), elapsed)
	s.logger.LogSigned(intent.TransactionDigest(txBytes), s.kp.Address().String(), elapsed)
	return wire, nil
}

// SignAndSubmit builds, signs and submits one transaction. Nothing is retried.
// Errors from submit are returned as-is.
func (s *Signer) SignAndSubmit(ctx context.Context, build BuildFunc, submit SubmitFunc) (*Result, error) {
	txBytes, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	if len(txBytes) == 0 {
		return nil, fmt.Errorf("failed to build transaction: %w", ErrEmptyTransaction)
	}

	wire, err := s.SignTransaction(txBytes)
	if err != nil {
		return nil, err
	}

	result := &Result{
		TxBytes:   base64.StdEncoding.EncodeToString(txBytes),
		Signature: wire,
		Digest:    intent.TransactionDigest(txBytes),
	}
	s.record(result, logger.TxStatusSigned, nil)

	resp, err := submit(ctx, txBytes, wire)
	s.metrics.ObserveSubmission(err)
	s.logger.LogSubmitted(result.Digest, err)
	if err != nil {
		s.record(result, logger.TxStatusFailed, err)
		return nil, err
	}

	result.Response = resp
	s.record(result, logger.TxStatusSubmitted, nil)
	return result, nil
}

func (s *Signer) record(r *Result, status string, submitErr error) {
	if s.audit == nil {
		return
	}

	rec := logger.TxRecord{
		Address:   s.kp.Address().String(),
		Digest:    r.Digest,
		Status:    status,
		Signature: r.Signature.String(),
	}
	if submitErr != nil {
		rec.ErrorMessage = submitErr.Error()
	}
	if err := s.audit.Record(rec); err != nil {
		s.logger.LogError("signer", "audit", err, nil)
	}
}
