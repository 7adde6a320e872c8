package certrequest

import (
	"strings"
	"time"
)

// Request statuses reported by the status endpoint.
const (
	StatusNone      = "no_pending_requests"
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// PrepStatus is the readiness of a DNS-01 record.
type PrepStatus string

const (
	PrepNone      PrepStatus = "none"
	PrepPreparing PrepStatus = "preparing"
	PrepReady     PrepStatus = "ready"
	PrepError     PrepStatus = "error"
)

// Challenge methods as submitted by clients.
const (
	MethodHTTP = "http"
	MethodDNS  = "dns"
)

// Pending is the in-flight request of a session.
type Pending struct {
	RequestID    string    `json:"requestId"`
	Domain       string    `json:"domain"`
	Email        string    `json:"email"`
	Method       string    `json:"method"`
	RecordName   string    `json:"recordName,omitempty"`
	RecordValue  string    `json:"recordValue,omitempty"`
	RequestTime  time.Time `json:"requestTime"`
	Prepared     bool      `json:"prepared"`
	DNSVerified  bool      `json:"dnsVerified"`
	PrepareError string    `json:"prepareError,omitempty"`
	Fallback     bool      `json:"fallback,omitempty"`
}

// IsDNS reports whether the request uses DNS-01.
func (p *Pending) IsDNS() bool {
	return p != nil && p.Method == MethodDNS
}

// Completed is a successful outcome.
type Completed struct {
	RequestID     string    `json:"requestId"`
	Domain        string    `json:"domain"`
	CertificateID string    `json:"certificateId"`
	CompletedAt   time.Time `json:"completedAt"`
}

// Failure is a failed outcome.
type Failure struct {
	RequestID string    `json:"requestId"`
	Domain    string    `json:"domain"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	FailedAt  time.Time `json:"failedAt"`
}

// State is the certificate request data carried by a session.
type State struct {
	Pending   *Pending   `json:"pending,omitempty"`
	Completed *Completed `json:"completed,omitempty"`
	Failure   *Failure   `json:"failure,omitempty"`
}

// Snapshot is what the status endpoint reports.
type Snapshot struct {
	Status    string
	Pending   *Pending
	Completed *Completed
	Failure   *Failure
}

// Submit makes p the pending request, discarding any earlier request and
// unread outcome.
func (s *State) Submit(p Pending) {
	s.Pending = &p
	s.Completed = nil
	s.Failure = nil
}

func (s *State) current(requestID string) *Pending {
	if s.Pending == nil || s.Pending.RequestID != requestID {
		return nil
	}
	return s.Pending
}

// MarkPrepared records the DNS-01 record for the request.
func (s *State) MarkPrepared(requestID, name, value string, fallback bool) bool {
	p := s.current(requestID)
	if p == nil {
		return false
	}
	p.Prepared = true
	p.RecordName = name
	p.RecordValue = value
	p.Fallback = fallback
	p.PrepareError = ""
	return true
}

// MarkPrepareFailed records why the DNS-01 record could not be prepared.
func (s *State) MarkPrepareFailed(requestID, msg string) bool {
	p := s.current(requestID)
	if p == nil {
		return false
	}
	p.PrepareError = msg
	return true
}

// MarkDNSVerified flags the pending request for domain as locally verified.
func (s *State) MarkDNSVerified(domain string) bool {
	if s.Pending == nil || !strings.EqualFold(s.Pending.Domain, strings.TrimSpace(domain)) {
		return false
	}
	s.Pending.DNSVerified = true
	return true
}

// Complete stores a successful outcome and clears the pending request.
func (s *State) Complete(requestID string, c Completed) bool {
	if s.current(requestID) == nil {
		return false
	}
	c.RequestID = requestID
	s.Completed = &c
	s.Failure = nil
	s.Pending = nil
	return true
}

// Fail stores a failed outcome and clears the pending request.
func (s *State) Fail(requestID string, f Failure) bool {
	if s.current(requestID) == nil {
		return false
	}
	f.RequestID = requestID
	s.Failure = &f
	s.Completed = nil
	s.Pending = nil
	return true
}

// Consume reports the current status. An outcome is returned once and then
// cleared; a pending request stays until it concludes.
func (s *State) Consume() Snapshot {
	switch {
	case s.Completed != nil:
		snap := Snapshot{Status: StatusCompleted, Completed: s.Completed}
		s.Completed = nil
		return snap
	case s.Failure != nil:
		snap := Snapshot{Status: StatusError, Failure: s.Failure}
		s.Failure = nil
		return snap
	case s.Pending != nil:
		p := *s.Pending
		return Snapshot{Status: StatusPending, Pending: &p}
	default:
		return Snapshot{Status: StatusNone}
	}
}

// DNSStatus reports the DNS-01 record readiness of the pending request.
func (s *State) DNSStatus() (PrepStatus, *Pending) {
	if !s.Pending.IsDNS() {
		return PrepNone, nil
	}
	p := *s.Pending
	switch {
	case p.PrepareError != "":
		return PrepError, &p
	case p.Prepared:
		return PrepReady, &p
	default:
		return PrepPreparing, &p
	}
}
