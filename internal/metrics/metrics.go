package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthChallengesIssued counts sign-in challenges issued
	AuthChallengesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mirror_auth_challenges_issued_total",
			Help: "Total number of sign-in challenges issued",
		},
	)

	// AuthSessionsCreated counts sessions minted from verified challenges
	AuthSessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mirror_auth_sessions_created_total",
			Help: "Total number of sessions created",
		},
	)

	// AuthVerifyFailures counts failed challenge verifications by reason
	AuthVerifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_auth_verify_failures_total",
			Help: "Total number of failed challenge verifications",
		},
		[]string{"reason"},
	)

	// CredentialsProcessed counts credential submissions by resulting status
	CredentialsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_credentials_processed_total",
			Help: "Total number of credential submissions processed",
		},
		[]string{"status"},
	)

	// SyncRuns counts event sync runs by outcome
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_sync_runs_total",
			Help: "Total number of event sync runs",
		},
		[]string{"source", "status"},
	)

	// SyncEventsIngested counts chain events written to the activity feed
	SyncEventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_sync_events_ingested_total",
			Help: "Total number of chain events ingested",
		},
		[]string{"source"},
	)

	// SyncLastProcessedBlock tracks the durable cursor position per source
	SyncLastProcessedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mirror_sync_last_processed_block",
			Help: "Last processed block number by source",
		},
		[]string{"source"},
	)

	// ProposalsRecorded counts proposal writes by resulting state
	ProposalsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_governance_proposals_total",
			Help: "Total number of proposal records written",
		},
		[]string{"state"},
	)

	// VotesRecorded counts vote upserts
	VotesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mirror_governance_votes_total",
			Help: "Total number of vote records written",
		},
	)

	// ArtifactsRegistered counts artifact registrations by on-chain outcome
	ArtifactsRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_artifacts_registered_total",
			Help: "Total number of artifacts registered",
		},
		[]string{"onchain"},
	)

	// ChainTransactionsSent counts transactions submitted to the chain
	ChainTransactionsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_chain_transactions_sent_total",
			Help: "Total number of transactions sent to the chain",
		},
		[]string{"operation", "status"},
	)

	// ErrorsTotal counts errors by component and type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
