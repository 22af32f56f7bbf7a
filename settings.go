package remotefs

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gonzalop/remotefs/transport"
)

// DefaultTimeout bounds connection setup when no timeout option is given.
const DefaultTimeout = 30 * time.Second

// implicitTLSPort is the port FTPS servers listen on for implicit TLS.
const implicitTLSPort = 990

// settings holds the extra options a driver understands, validated.
type settings struct {
	passive            bool
	timeout            time.Duration
	tls                transport.TLSMode
	insecureSkipVerify bool
	serverName         string
	disableEPSV        bool
	bandwidth          int64
	chunkSize          int
	knownHosts         string
	insecureHostKey    bool
}

func parseSettings(o ConnectionOptions) (settings, error) {
	s := settings{
		passive:    true,
		timeout:    DefaultTimeout,
		serverName: o.Host,
		chunkSize:  transport.DefaultChunkSize,
	}
	if o.Protocol == ProtocolFTPS {
		s.tls = transport.TLSExplicit
		if o.Port == implicitTLSPort {
			s.tls = transport.TLSImplicit
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		s.knownHosts = filepath.Join(home, ".ssh", "known_hosts")
	}

	var err error
	for _, key := range o.ExtraKeys() {
		value, _ := o.Extra(key)
		switch strings.ToLower(key) {
		case "passive":
			s.passive, err = strconv.ParseBool(value)
		case "timeout":
			s.timeout, err = parseTimeout(value)
		case "tls":
			if o.Protocol != ProtocolFTPS {
				continue
			}
			switch strings.ToLower(value) {
			case "explicit":
				s.tls = transport.TLSExplicit
			case "implicit":
				s.tls = transport.TLSImplicit
			default:
				err = fmt.Errorf("want explicit or implicit, got %q", value)
			}
		case "insecure_skip_verify":
			s.insecureSkipVerify, err = strconv.ParseBool(value)
		case "server_name":
			s.serverName = value
		case "disable_epsv":
			s.disableEPSV, err = strconv.ParseBool(value)
		case "bandwidth":
			s.bandwidth, err = strconv.ParseInt(value, 10, 64)
			if err == nil && s.bandwidth < 0 {
				err = fmt.Errorf("negative rate %d", s.bandwidth)
			}
		case "chunk_size":
			s.chunkSize, err = strconv.Atoi(value)
			if err == nil && s.chunkSize <= 0 {
				err = fmt.Errorf("chunk size must be positive, got %d", s.chunkSize)
			}
		case "known_hosts":
			s.knownHosts = value
		case "insecure_host_key":
			s.insecureHostKey, err = strconv.ParseBool(value)
		default:
			continue
		}
		if err != nil {
			return settings{}, &ConfigurationError{Reason: ReasonBadValue, Key: key, Err: err}
		}
	}
	return s, nil
}

// parseTimeout accepts a Go duration ("10s", "1m30s") or whole seconds.
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative timeout %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", d)
	}
	return d, nil
}

func (s settings) transportConfig(o ConnectionOptions, logger *slog.Logger) transport.Config {
	cfg := transport.Config{
		Host:            o.Host,
		Port:            o.Port,
		TLS:             s.tls,
		Passive:         s.passive,
		DisableEPSV:     s.disableEPSV,
		Timeout:         s.timeout,
		ChunkSize:       s.chunkSize,
		KnownHostsFile:  s.knownHosts,
		InsecureHostKey: s.insecureHostKey,
		Logger:          logger,
	}
	if s.tls != transport.TLSNone {
		cfg.TLSConfig = &tls.Config{
			ServerName:         s.serverName,
			InsecureSkipVerify: s.insecureSkipVerify,
		}
	}
	return cfg
}
