package certrequest

// JSON bodies exchanged with the certificate API.

// GenerateRequest starts a certificate request.
type GenerateRequest struct {
	Domain        string `json:"domain" sanitize:"hostname" validate:"required;max:253;domain"`
	Email         string `json:"email" sanitize:"trim_lower" validate:"required;max:254;email"`
	ChallengeType string `json:"challengeType" sanitize:"trim_lower"`
}

// DNSData is the TXT record a user must publish.
type DNSData struct {
	Domain      string `json:"domain"`
	RecordName  string `json:"recordName"`
	RecordValue string `json:"recordValue"`
	Fallback    bool   `json:"fallback,omitempty"`
}

// ProcessingResponse acknowledges work started in the background.
type ProcessingResponse struct {
	Success bool     `json:"success"`
	Status  string   `json:"status"`
	Message string   `json:"message"`
	DNSData *DNSData `json:"dnsData,omitempty"`
}

// DNSStatusResponse reports DNS-01 record preparation.
type DNSStatusResponse struct {
	Success bool       `json:"success"`
	Status  PrepStatus `json:"status"`
	DNSData *DNSData   `json:"dnsData,omitempty"`
	Message string     `json:"message,omitempty"`
}

// CheckDNSRequest asks for a propagation check. RecordValue overrides the
// value stored with the pending request.
type CheckDNSRequest struct {
	Domain      string `json:"domain" sanitize:"hostname" validate:"domain"`
	RecordValue string `json:"recordValue,omitempty" sanitize:"trim"`
}

// CheckDNSResponse is the outcome of a propagation check.
type CheckDNSResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Domain  string   `json:"domain,omitempty"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// VerifyDNSRequest asks the CA to validate the DNS-01 challenge.
type VerifyDNSRequest struct {
	Domain               string `json:"domain" sanitize:"hostname" validate:"domain"`
	UseVerifiedChallenge bool   `json:"useVerifiedChallenge,omitempty"`
}

// DNSRecord names a TXT record in status responses.
type DNSRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StatusResponse is the body of the status endpoint.
type StatusResponse struct {
	Status        string     `json:"status"`
	Domain        string     `json:"domain,omitempty"`
	CertificateID string     `json:"certificateId,omitempty"`
	Message       string     `json:"message,omitempty"`
	Details       []string   `json:"details,omitempty"`
	DNSRecord     *DNSRecord `json:"dnsRecord,omitempty"`
	// RequestTime is in Unix milliseconds.
	RequestTime int64 `json:"requestTime,omitempty"`
}

// StatusFrom renders a Snapshot as a StatusResponse.
func StatusFrom(snap Snapshot) StatusResponse {
	switch snap.Status {
	case StatusCompleted:
		return StatusResponse{
			Status:        StatusCompleted,
			Domain:        snap.Completed.Domain,
			CertificateID: snap.Completed.CertificateID,
			Message:       "Certificate issued successfully",
		}
	case StatusError:
		return StatusResponse{
			Status:  StatusError,
			Domain:  snap.Failure.Domain,
			Message: snap.Failure.Message,
			Details: snap.Failure.Details,
		}
	case StatusPending:
		resp := StatusResponse{
			Status:      StatusPending,
			Domain:      snap.Pending.Domain,
			RequestTime: snap.Pending.RequestTime.UnixMilli(),
		}
		if snap.Pending.IsDNS() && snap.Pending.RecordValue != "" {
			resp.DNSRecord = &DNSRecord{Name: snap.Pending.RecordName, Value: snap.Pending.RecordValue}
		}
		return resp
	default:
		return StatusResponse{Status: StatusNone}
	}
}
