package dnscheck

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Resolver looks up TXT records.
// A name with no records returns an empty slice and no error.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DefaultResolvConf is the resolver configuration read by SystemResolver.
const DefaultResolvConf = "/etc/resolv.conf"

// SystemResolver queries the nameservers listed in a resolv.conf file.
// The file is read on each lookup so configuration changes apply at once.
type SystemResolver struct {
	ConfPath string
	// Port overrides the port from the config file.
	Port   string
	client *dns.Client
}

// NewSystemResolver creates a resolver reading confPath, or
// DefaultResolvConf when empty.
func NewSystemResolver(confPath string) *SystemResolver {
	if confPath == "" {
		confPath = DefaultResolvConf
	}
	return &SystemResolver{ConfPath: confPath, client: &dns.Client{Timeout: 5 * time.Second}}
}

// LookupTXT queries each configured nameserver in turn until one answers.
func (r *SystemResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	conf, err := dns.ClientConfigFromFile(r.ConfPath)
	if err != nil {
		return nil, fmt.Errorf("read resolver config: %w", err)
	}
	if len(conf.Servers) == 0 {
		return nil, ErrNoNameservers
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range conf.Servers {
		port := conf.Port
		if r.Port != "" {
			port = r.Port
		}
		addr := net.JoinHostPort(server, port)
		resp, err := r.exchange(ctx, msg, addr)
		if err != nil {
			lastErr = err
			continue
		}
		switch resp.Rcode {
		case dns.RcodeSuccess:
			return txtValues(resp), nil
		case dns.RcodeNameError:
			return nil, nil
		default:
			lastErr = fmt.Errorf("query %s via %s: %s", name, addr, dns.RcodeToString[resp.Rcode])
		}
	}
	return nil, lastErr
}

func (r *SystemResolver) exchange(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, error) {
	resp, _, err := r.client.ExchangeContext(ctx, msg, addr)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: r.client.Timeout}
		resp, _, err = tcp.ExchangeContext(ctx, msg, addr)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func txtValues(resp *dns.Msg) []string {
	var out []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			var b strings.Builder
			for _, part := range txt.Txt {
				b.WriteString(unescapeTXT(part))
			}
			out = append(out, b.String())
		}
	}
	return out
}

// unescapeTXT turns a character-string from presentation format back into
// its wire bytes: `\"` becomes a quote and `\DDD` a decimal byte.
func unescapeTXT(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b = append(b, c)
			continue
		}
		if i+3 < len(s) && isDigit(s[i+1]) && isDigit(s[i+2]) && isDigit(s[i+3]) {
			n := int(s[i+1]-'0')*100 + int(s[i+2]-'0')*10 + int(s[i+3]-'0')
			if n <= 255 {
				b = append(b, byte(n))
				i += 3
				continue
			}
		}
		b = append(b, s[i+1])
		i++
	}
	return string(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
