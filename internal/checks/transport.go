package checks

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/target"
)

// TLSInfo describes the negotiated connection.
type TLSInfo struct {
	Version         string    `json:"version" yaml:"version"`
	CipherSuite     string    `json:"cipher_suite" yaml:"cipher_suite"`
	Issuer          string    `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Subject         string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	NotAfter        time.Time `json:"not_after,omitempty" yaml:"not_after,omitempty"`
	DaysUntilExpiry int       `json:"days_until_expiry" yaml:"days_until_expiry"`
}

// Certificate expiry windows.
const (
	expiryWarnDays     = 30
	expiryCriticalDays = 7
)

// CheckTransport reports a missing HTTPS origin, or inspects the TLS state
// of the first response: protocol version, cipher suite, expiry and
// self-signed certificates.
func CheckTransport(t target.Target, state *tls.ConnectionState, now time.Time) (*TLSInfo, []finding.Finding) {
	if !t.IsHTTPS() {
		return nil, []finding.Finding{{
			Type:           "No HTTPS",
			Severity:       finding.High,
			Category:       "SSL/TLS Issues",
			Description:    "Website is not using HTTPS encryption",
			Recommendation: "Implement SSL/TLS certificate and redirect all traffic to HTTPS",
		}}
	}
	if state == nil {
		return nil, nil
	}

	info := &TLSInfo{
		Version:     tls.VersionName(state.Version),
		CipherSuite: tls.CipherSuiteName(state.CipherSuite),
	}
	var out []finding.Finding

	if state.Version < tls.VersionTLS12 {
		out = append(out, finding.Finding{
			Type:           "Weak TLS Version",
			Severity:       finding.High,
			Category:       "SSL/TLS Issues",
			Description:    fmt.Sprintf("Server negotiated %s", info.Version),
			Recommendation: "Disable protocols older than TLS 1.2",
		})
	}
	if insecureSuite(state.CipherSuite) {
		out = append(out, finding.Finding{
			Type:           "Weak SSL Cipher",
			Severity:       finding.High,
			Category:       "SSL/TLS Issues",
			Description:    fmt.Sprintf("Weak cipher suite detected: %s", info.CipherSuite),
			Recommendation: "Update SSL/TLS configuration to use strong ciphers",
		})
	}

	if len(state.PeerCertificates) > 0 {
		cert := state.PeerCertificates[0]
		info.Issuer = cert.Issuer.String()
		info.Subject = cert.Subject.String()
		info.NotAfter = cert.NotAfter
		info.DaysUntilExpiry = int(cert.NotAfter.Sub(now).Hours() / 24)
		out = append(out, certificateFindings(cert, info.DaysUntilExpiry)...)
	}
	return info, out
}

func certificateFindings(cert *x509.Certificate, days int) []finding.Finding {
	var out []finding.Finding
	if days < expiryWarnDays {
		sev := finding.Medium
		if days < expiryCriticalDays {
			sev = finding.High
		}
		out = append(out, finding.Finding{
			Type:           "SSL Certificate Expiring Soon",
			Severity:       sev,
			Category:       "SSL/TLS Issues",
			Description:    fmt.Sprintf("Certificate expires in %d days", days),
			Evidence:       map[string]interface{}{"not_after": cert.NotAfter},
			Recommendation: "Renew SSL certificate before expiration",
		})
	}
	if cert.Issuer.String() == cert.Subject.String() {
		out = append(out, finding.Finding{
			Type:           "Self-Signed Certificate",
			Severity:       finding.Medium,
			Category:       "SSL/TLS Issues",
			Description:    "Certificate is self-signed",
			Evidence:       map[string]interface{}{"issuer": cert.Issuer.String()},
			Recommendation: "Use a certificate from a trusted CA",
		})
	}
	return out
}

func insecureSuite(id uint16) bool {
	for _, s := range tls.InsecureCipherSuites() {
		if s.ID == id {
			return true
		}
	}
	return false
}
