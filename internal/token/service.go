package token

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cpwidget/pkg/metrics"
	"cpwidget/pkg/profiles"
)

// Request is one token acquisition for a user against a tenant.
type Request struct {
	UserID      string
	Email       string // looked up from the profile when empty
	Credentials Credentials
}

// Service runs the acquisition state machine: use a valid cached token,
// else issue one (forcing a single retry when the issued expiry is already
// past) and store it.
type Service struct {
	store    *Store
	issuer   *Issuer
	profiles profiles.Store
	now      func() time.Time
	log      *zap.SugaredLogger
	m        *metrics.Metrics
}

func NewService(store *Store, issuer *Issuer, p profiles.Store, log *zap.SugaredLogger, m *metrics.Metrics, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &Service{store: store, issuer: issuer, profiles: p, now: now, log: log, m: m}
}

// AccessToken returns a usable token, or "" when none could be obtained.
func (s *Service) AccessToken(ctx context.Context, req Request) string {
	if req.UserID == "" {
		s.m.TokenAcquisitions.WithLabelValues(metrics.OutcomeAnonymous).Inc()
		return ""
	}
	email := req.Email
	if email == "" {
		if p, err := s.profiles.Get(ctx, req.UserID); err == nil {
			email = p[profiles.EmailField]
		}
	}
	if email == "" {
		s.log.Debugw("no email for user, skipping token", "user", req.UserID)
		s.m.TokenAcquisitions.WithLabelValues(metrics.OutcomeAnonymous).Inc()
		return ""
	}

	if tok, ok := s.store.Cached(ctx, req.UserID, req.Credentials.RefreshToken); ok {
		s.m.TokenAcquisitions.WithLabelValues(metrics.OutcomeCached).Inc()
		return tok.AccessToken
	}

	now := s.now().UnixMilli()
	outcome := metrics.OutcomeIssued
	s.m.IssuerCalls.WithLabelValues("false").Inc()
	tok, err := s.issuer.Issue(ctx, req.Credentials, email, false)
	if err != nil {
		return s.abort(req, "issue", err)
	}
	if now > tok.ExpiresAtMillis {
		s.log.Debugw("issued token already expired, forcing refresh", "user", req.UserID)
		outcome = metrics.OutcomeForced
		s.m.IssuerCalls.WithLabelValues("true").Inc()
		if tok, err = s.issuer.Issue(ctx, req.Credentials, email, true); err != nil {
			return s.abort(req, "forced issue", err)
		}
		if s.now().UnixMilli() > tok.ExpiresAtMillis {
			return s.abort(req, "forced issue", errExpiredOnArrival)
		}
	}

	if !s.store.Save(ctx, req.UserID, req.Credentials.RefreshToken, tok) {
		s.m.TokenPersistFails.Inc()
	}
	s.m.TokenAcquisitions.WithLabelValues(outcome).Inc()
	return tok.AccessToken
}

func (s *Service) abort(req Request, stage string, err error) string {
	s.log.Errorw("access token unavailable", "user", req.UserID, "host", req.Credentials.HostName, "stage", stage, "err", err)
	s.m.TokenAcquisitions.WithLabelValues(metrics.OutcomeFailed).Inc()
	return ""
}
