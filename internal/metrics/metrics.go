// Package metrics exposes Prometheus instrumentation for the
// cryptographic session engine: handshake counts, encrypt/decrypt
// latency, and authentication failures. Instrumentation never changes
// control flow (spec §4.5) — every call here is a side-effecting
// observation only.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HandshakesTotal counts handshake attempts by session mode and
	// outcome.
	HandshakesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyberium_handshakes_total",
			Help: "Total number of session handshakes attempted",
		},
		[]string{"mode", "role", "result"}, // basic/triple, initiator/responder, success/error
	)

	// MessagesTotal counts encrypt/decrypt operations by direction
	// and outcome.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyberium_messages_total",
			Help: "Total number of messages encrypted or decrypted",
		},
		[]string{"mode", "operation", "result"}, // encrypt/decrypt, success/error
	)

	// OperationLatency observes provider-call latency for handshake
	// and message operations.
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kyberium_operation_latency_seconds",
			Help:    "Latency of session engine operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~0.82s
		},
		[]string{"operation"},
	)

	// AuthenticationFailuresTotal counts signature and AEAD
	// authentication failures, the security-relevant subset of errors.
	AuthenticationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyberium_authentication_failures_total",
			Help: "Total number of signature or AEAD authentication failures",
		},
		[]string{"stage"}, // signature_verify, aead_decrypt
	)
)
