package inbound

import (
	"context"
	"time"

	"github.com/Subrata270/studio-sub001/domain/entity"
)

type ContinuationDecisionRequest struct {
	Month    string `json:"month"`
	Decision string `json:"decision"`
}

// ScanFailure names one subscription the scan could not process
type ScanFailure struct {
	SubscriptionID string `json:"subscription_id"`
	Error          string `json:"error"`
}

type ScanReport struct {
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Scanned       int           `json:"scanned"`
	LedgerUpdated int           `json:"ledger_updated"`
	Alerted       int           `json:"alerted"`
	Expired       int           `json:"expired"`
	Activated     int           `json:"activated"`
	Failures      []ScanFailure `json:"failures"`
}

type ContinuationUseCase interface {
	RunExpiryScan(ctx context.Context) (*ScanReport, error)
	RecordDecision(ctx context.Context, actor entity.Actor, id string, req ContinuationDecisionRequest) (*entity.Subscription, error)
}
